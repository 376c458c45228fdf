package config

import (
	"flag"
	"io"
	"os"

	"github.com/dmitrijs2005/turbouploader/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-d string   database path
//	-g string   gateway host for content locators
//	-u string   upload service URL
//	-t string   transport: bundler or s3
//	-m string   passphrase mode: user or identity
//	-f          enable federated login
//	-p string   platform: desktop or mobile
//	-w string   wallet agent address
//	-l string   log level
//
// os.Args is filtered with flagx.FilterArgs first, so flags owned by other
// components do not cause parse errors.
func parseFlags(cfg *Config) error {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-d", "-g", "-u", "-t", "-m", "-p", "-w", "-l"},
		"-f")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "database path")
	fs.StringVar(&cfg.GatewayHost, "g", cfg.GatewayHost, "gateway host")
	fs.StringVar(&cfg.UploadServiceURL, "u", cfg.UploadServiceURL, "upload service URL")
	fs.StringVar(&cfg.Transport, "t", cfg.Transport, "transport (bundler|s3)")
	fs.StringVar(&cfg.PassphraseMode, "m", cfg.PassphraseMode, "passphrase mode (user|identity)")
	fs.BoolVar(&cfg.FederatedLogin, "f", cfg.FederatedLogin, "enable federated login")
	fs.StringVar(&cfg.Platform, "p", cfg.Platform, "platform (desktop|mobile)")
	fs.StringVar(&cfg.AgentAddr, "w", cfg.AgentAddr, "wallet agent address")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	return fs.Parse(args)
}
