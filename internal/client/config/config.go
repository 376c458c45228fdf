package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/turbouploader/internal/common"
)

// Transports understood by the upload client factory.
const (
	TransportBundler = "bundler"
	TransportS3      = "s3"
)

// Passphrase modes for sponsored wallets.
const (
	PassphraseUser     = "user"
	PassphraseIdentity = "identity"
)

// Config holds runtime settings for the uploader CLI.
//
// Durations are time.Duration; in JSON they may be strings like "30s".
type Config struct {
	DatabasePath string

	GatewayHost      string
	UploadServiceURL string
	PaymentToken     string
	Transport        string

	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string

	AppName        string
	PassphraseMode string

	FederatedLogin  bool
	IdentitySecret  string
	IdentitySubject string

	Platform       string
	AgentAddr      string
	ConnectTimeout time.Duration
	KeyBits        int

	LogLevel string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "uploader.db"
	c.GatewayHost = common.DefaultGatewayHost
	c.UploadServiceURL = "https://upload.ardrive.io"
	c.PaymentToken = "arweave"
	c.Transport = TransportBundler
	c.S3Bucket = "permaweb"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.AppName = "TurboUploader"
	c.PassphraseMode = PassphraseUser
	c.FederatedLogin = false
	c.Platform = "desktop"
	c.AgentAddr = "http://127.0.0.1:7319"
	c.ConnectTimeout = 30 * time.Second
	c.KeyBits = 4096
	c.LogLevel = "info"
}

// Validate rejects enumerated settings with unknown values.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportBundler, TransportS3:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	switch c.PassphraseMode {
	case PassphraseUser, PassphraseIdentity:
	default:
		return fmt.Errorf("unknown passphrase mode %q", c.PassphraseMode)
	}
	if c.PassphraseMode == PassphraseIdentity && !c.FederatedLogin {
		return fmt.Errorf("passphrase mode %q requires federated login", c.PassphraseMode)
	}
	switch c.Platform {
	case "desktop", "mobile":
	default:
		return fmt.Errorf("unknown platform %q", c.Platform)
	}
	if c.KeyBits < 1024 {
		return fmt.Errorf("key_bits %d is too small", c.KeyBits)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
