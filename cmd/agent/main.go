package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/turbouploader/internal/agentd"
	"github.com/dmitrijs2005/turbouploader/internal/buildinfo"
	"github.com/dmitrijs2005/turbouploader/internal/client/wallet"
	"github.com/dmitrijs2005/turbouploader/internal/cryptox"
	"github.com/dmitrijs2005/turbouploader/internal/filex"
	"github.com/dmitrijs2005/turbouploader/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	fs := flag.NewFlagSet("agent", flag.ExitOnError)
	addr := fs.String("a", "127.0.0.1:7319", "listen address")
	keyPath := fs.String("k", filepath.Join(filex.DefaultDataDir("turbouploader"), "agent-key.json"), "wallet key file (created if missing)")
	autoApprove := fs.Bool("y", false, "approve every connect request")
	level := fs.String("l", "info", "log level")
	_ = fs.Parse(os.Args[1:])

	log := logging.NewTextLogger(os.Stderr, *level)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *addr, *keyPath, *autoApprove, log); err != nil {
		log.Error(ctx, "agent stopped", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, addr, keyPath string, autoApprove bool, log logging.Logger) error {
	jwk, created, err := agentd.LoadOrCreateKey(keyPath, cryptox.DefaultKeyBits)
	if err != nil {
		return err
	}
	w, err := wallet.NewSponsoredWallet(jwk)
	if err != nil {
		return err
	}
	if created {
		log.Info(ctx, "new wallet key written", "path", keyPath)
	}
	fmt.Printf("Agent wallet address: %s\n", w.Address())

	approve := agentd.AutoApprove
	if !autoApprove {
		approve = promptApprover()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           agentd.NewServer(w, approve, log).NewRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "agent listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// promptApprover asks on the terminal, one request at a time.
func promptApprover() agentd.Approver {
	var mu sync.Mutex
	reader := bufio.NewReader(os.Stdin)

	return func(ctx context.Context, perms []wallet.Permission, app wallet.AppInfo) bool {
		mu.Lock()
		defer mu.Unlock()

		names := make([]string, len(perms))
		for i, p := range perms {
			names[i] = string(p)
		}
		fmt.Printf("%q requests %s. Allow? [y/N] ", app.Name, strings.Join(names, ", "))

		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}
