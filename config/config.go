// Package config loads communicator and logging settings from an optional
// YAML file and FFPP_* environment variables.
//
//	communicator:
//	  local_port: 33445
//	  bind_address: 0.0.0.0
//	  poll_interval: 10ms
//	  max_resend_attempts: 3
//	  encryption: false
//	  receive_buffer_size: 65535
//	log:
//	  level: info
//	  format: text
//
// Environment variables use the same keys upper-cased with dots replaced by
// underscores, for example FFPP_COMMUNICATOR_LOCAL_PORT=33445.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/opd-ai/ffpp/communicator"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "FFPP"

// Config is the complete runtime configuration.
type Config struct {
	Communicator CommunicatorConfig `mapstructure:"communicator"`
	Log          LogConfig          `mapstructure:"log"`
}

// CommunicatorConfig mirrors communicator.Options.
type CommunicatorConfig struct {
	LocalPort         int           `mapstructure:"local_port"`
	BindAddress       string        `mapstructure:"bind_address"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	MaxResendAttempts int           `mapstructure:"max_resend_attempts"`
	Encryption        bool          `mapstructure:"encryption"`
	ReceiveBufferSize int           `mapstructure:"receive_buffer_size"`
}

// LogConfig selects the logrus level and formatter.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	defaults := communicator.NewOptions()
	v.SetDefault("communicator.local_port", defaults.LocalPort)
	v.SetDefault("communicator.bind_address", defaults.BindAddress)
	v.SetDefault("communicator.poll_interval", defaults.PollInterval)
	v.SetDefault("communicator.max_resend_attempts", defaults.MaxResendAttempts)
	v.SetDefault("communicator.encryption", defaults.Encryption)
	v.SetDefault("communicator.receive_buffer_size", defaults.ReceiveBufferSize)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration. An empty path skips the file and uses
// defaults and environment variables only.
func Load(path string) (*Config, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		logrus.WithFields(logrus.Fields{
			"function": "Load",
			"package":  "config",
			"file":     v.ConfigFileUsed(),
		}).Debug("Loaded configuration file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the communicator or the
// logger would reject.
func (c *Config) Validate() error {
	if err := c.CommunicatorOptions().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.New("config: log format must be text or json")
	}
	return nil
}

// CommunicatorOptions converts the communicator section to
// communicator.Options.
func (c *Config) CommunicatorOptions() *communicator.Options {
	return &communicator.Options{
		LocalPort:         c.Communicator.LocalPort,
		BindAddress:       c.Communicator.BindAddress,
		PollInterval:      c.Communicator.PollInterval,
		MaxResendAttempts: c.Communicator.MaxResendAttempts,
		Encryption:        c.Communicator.Encryption,
		ReceiveBufferSize: c.Communicator.ReceiveBufferSize,
	}
}
