package config

import (
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/turbouploader/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "uploader.db", c.DatabasePath)
	assert.Equal(t, common.DefaultGatewayHost, c.GatewayHost)
	assert.Equal(t, TransportBundler, c.Transport)
	assert.Equal(t, PassphraseUser, c.PassphraseMode)
	assert.Equal(t, 30*time.Second, c.ConnectTimeout)
	assert.Equal(t, 4096, c.KeyBits)
	assert.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{name: "s3 transport", mutate: func(c *Config) { c.Transport = TransportS3 }, ok: true},
		{name: "unknown transport", mutate: func(c *Config) { c.Transport = "ftp" }},
		{name: "unknown mode", mutate: func(c *Config) { c.PassphraseMode = "pin" }},
		{name: "identity without login", mutate: func(c *Config) { c.PassphraseMode = PassphraseIdentity }},
		{name: "identity with login", mutate: func(c *Config) {
			c.PassphraseMode = PassphraseIdentity
			c.FederatedLogin = true
		}, ok: true},
		{name: "unknown platform", mutate: func(c *Config) { c.Platform = "tv" }},
		{name: "tiny keys", mutate: func(c *Config) { c.KeyBits = 512 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			if tt.ok {
				assert.NoError(t, c.Validate())
			} else {
				assert.Error(t, c.Validate())
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"transport":    "s3",
		"gateway_host": "gw.example",
	})

	os.Args = []string{"cmd", "-c", path, "-g", "flag.example", "-unknown", "x"}
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, TransportS3, cfg.Transport, "from json")
	assert.Equal(t, "flag.example", cfg.GatewayHost, "flags win over json")
	assert.Equal(t, "uploader.db", cfg.DatabasePath, "default kept")

	os.Args = []string{"cmd", "-t", "carrier-pigeon"}
	_, err = LoadConfig()
	require.Error(t, err)
}
