package config

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	base := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		return c
	}

	tests := []struct {
		name     string
		args     []string
		expected func() *Config
		wantErr  bool
	}{
		{
			name:     "no flags",
			args:     []string{"cmd"},
			expected: base,
		},
		{
			name: "overrides",
			args: []string{"cmd", "-d", "/tmp/u.db", "-t", "s3", "-f", "upload", "-m", "identity", "-p", "mobile", "-l", "debug"},
			expected: func() *Config {
				c := base()
				c.DatabasePath = "/tmp/u.db"
				c.Transport = TransportS3
				c.FederatedLogin = true
				c.PassphraseMode = PassphraseIdentity
				c.Platform = "mobile"
				c.LogLevel = "debug"
				return c
			},
		},
		{
			name: "equals form",
			args: []string{"cmd", "-w=http://agent:1", "-f=false", "-u=https://up.example"},
			expected: func() *Config {
				c := base()
				c.AgentAddr = "http://agent:1"
				c.UploadServiceURL = "https://up.example"
				return c
			},
		},
		{
			name:    "bad bool",
			args:    []string{"cmd", "-f=maybe"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			cfg := base()
			err := parseFlags(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected(), cfg))
		})
	}
}
