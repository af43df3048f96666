package codec

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/box"
)

// keyPair is the Curve25519 keypair owned by an encrypting codec. It lives
// only in memory and is never serialized.
type keyPair struct {
	public  [32]byte
	private [32]byte
}

func generateKeyPair(random io.Reader) (*keyPair, error) {
	if random == nil {
		random = rand.Reader
	}
	pub, priv, err := box.GenerateKey(random)
	if err != nil {
		return nil, fmt.Errorf("codec: generate keypair: %w", err)
	}
	return &keyPair{public: *pub, private: *priv}, nil
}

// seal encrypts plaintext to the keypair's public key. Each call uses a
// fresh ephemeral sender key, so equal plaintexts produce different output.
func (kp *keyPair) seal(plaintext []byte) ([]byte, error) {
	return box.SealAnonymous(nil, plaintext, &kp.public, rand.Reader)
}

// open reverses seal.
func (kp *keyPair) open(sealed []byte) ([]byte, bool) {
	return box.OpenAnonymous(nil, sealed, &kp.public, &kp.private)
}
