package codec

import (
	"bytes"
	"errors"
	"testing"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

// TestGenerateKeyPair tests key generation.
func TestGenerateKeyPair(t *testing.T) {
	kp, err := generateKeyPair(nil)
	if err != nil {
		t.Fatalf("generateKeyPair() error = %v", err)
	}
	if kp.public == ([32]byte{}) || kp.private == ([32]byte{}) {
		t.Error("generated key is all zeros")
	}

	other, err := generateKeyPair(nil)
	if err != nil {
		t.Fatalf("generateKeyPair() error = %v", err)
	}
	if kp.public == other.public {
		t.Error("two keypairs share a public key")
	}
}

func TestGenerateKeyPairReaderFailure(t *testing.T) {
	if _, err := generateKeyPair(failingReader{}); err == nil {
		t.Error("expected error from failing entropy source")
	}
}

// TestSealOpen tests that sealing is randomized and reversible.
func TestSealOpen(t *testing.T) {
	kp, err := generateKeyPair(nil)
	if err != nil {
		t.Fatal(err)
	}

	plaintext := []byte(`{"thisMessageType":"ACK"}`)
	a, err := kp.seal(plaintext)
	if err != nil {
		t.Fatal(err)
	}
	b, err := kp.seal(plaintext)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a, b) {
		t.Error("sealing the same plaintext twice produced identical output")
	}
	if len(a) != len(plaintext)+sealOverhead {
		t.Errorf("sealed length = %d, want %d", len(a), len(plaintext)+sealOverhead)
	}

	got, ok := kp.open(a)
	if !ok || !bytes.Equal(got, plaintext) {
		t.Errorf("open() = %q, %v", got, ok)
	}

	a[len(a)-1] ^= 0xff
	if _, ok := kp.open(a); ok {
		t.Error("open() accepted tampered ciphertext")
	}
}
