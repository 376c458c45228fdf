package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/turbouploader/internal/flagx"
	"github.com/dmitrijs2005/turbouploader/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Absent keys
// leave the corresponding Config field untouched.
type JsonConfig struct {
	DatabasePath     string `json:"database_path"`
	GatewayHost      string `json:"gateway_host"`
	UploadServiceURL string `json:"upload_service_url"`
	PaymentToken     string `json:"payment_token"`
	Transport        string `json:"transport"`

	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`

	AppName        string `json:"app_name"`
	PassphraseMode string `json:"passphrase_mode"`

	FederatedLogin  *bool  `json:"federated_login"`
	IdentitySecret  string `json:"identity_secret"`
	IdentitySubject string `json:"identity_subject"`

	Platform       string          `json:"platform"`
	AgentAddr      string          `json:"agent_addr"`
	ConnectTimeout *timex.Duration `json:"connect_timeout"`
	KeyBits        int             `json:"key_bits"`

	LogLevel string `json:"log_level"`
}

// parseJson overlays cfg with values from the file named by -c or -config.
// Without either flag it does nothing.
func parseJson(cfg *Config) error {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return err
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	jc.apply(cfg)
	return nil
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.GatewayHost, jc.GatewayHost)
	setString(&cfg.UploadServiceURL, jc.UploadServiceURL)
	setString(&cfg.PaymentToken, jc.PaymentToken)
	setString(&cfg.Transport, jc.Transport)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.AppName, jc.AppName)
	setString(&cfg.PassphraseMode, jc.PassphraseMode)
	setString(&cfg.IdentitySecret, jc.IdentitySecret)
	setString(&cfg.IdentitySubject, jc.IdentitySubject)
	setString(&cfg.Platform, jc.Platform)
	setString(&cfg.AgentAddr, jc.AgentAddr)
	setString(&cfg.LogLevel, jc.LogLevel)

	if jc.FederatedLogin != nil {
		cfg.FederatedLogin = *jc.FederatedLogin
	}
	if jc.ConnectTimeout != nil {
		cfg.ConnectTimeout = jc.ConnectTimeout.Duration
	}
	if jc.KeyBits != 0 {
		cfg.KeyBits = jc.KeyBits
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
