package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/dmitrijs2005/turbouploader/internal/client/agent"
	"github.com/dmitrijs2005/turbouploader/internal/client/auth"
	"github.com/dmitrijs2005/turbouploader/internal/client/client"
	"github.com/dmitrijs2005/turbouploader/internal/client/config"
	"github.com/dmitrijs2005/turbouploader/internal/client/models"
	"github.com/dmitrijs2005/turbouploader/internal/client/repositories/uploads"
	"github.com/dmitrijs2005/turbouploader/internal/client/services"
	"github.com/dmitrijs2005/turbouploader/internal/client/wallet"
	"github.com/dmitrijs2005/turbouploader/internal/logging"

	_ "modernc.org/sqlite"
)

// uploaderFactory builds the storage-network client for a ready wallet.
type uploaderFactory func(ctx context.Context, signer wallet.Signer) (client.Uploader, error)

// App is the REPL collaborator: it owns the core services and renders their
// state. It only talks to them through select, upload and status calls.
type App struct {
	config *config.Config
	log    logging.Logger
	out    io.Writer
	reader *bufio.Reader
	db     *sql.DB

	identity services.IdentityService
	wallets  services.WalletService
	uploads  services.UploadService
	history  uploads.Repository

	newUploader uploaderFactory

	mu       sync.Mutex
	selected *models.File
}

// NewApp opens the local store and wires the services for c.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := client.OpenDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}
	repos := client.NewRepositories(db)

	var provider services.IdentityProvider
	if c.FederatedLogin {
		provider = &auth.DevProvider{Subject: c.IdentitySubject, Secret: []byte(c.IdentitySecret)}
	}
	var secret []byte
	if c.IdentitySecret != "" {
		secret = []byte(c.IdentitySecret)
	}
	identity := services.NewIdentityService(provider, repos.Metadata, secret, log)

	wallets := services.NewWalletService(repos.Profile, agent.New(c.AgentAddr, nil, log), identity, services.WalletOptions{
		KeyBits:        c.KeyBits,
		AppName:        c.AppName,
		Platform:       c.Platform,
		ConnectTimeout: c.ConnectTimeout,
	}, log)

	pipeline := services.NewUploadService(services.UploadOptions{
		AppName:     c.AppName,
		GatewayHost: c.GatewayHost,
	}, log)

	a := &App{
		config:   c,
		log:      log,
		out:      os.Stdout,
		reader:   bufio.NewReader(os.Stdin),
		db:       db,
		identity: identity,
		wallets:  wallets,
		uploads:  pipeline,
		history:  repos.Uploads,
	}
	a.newUploader = a.defaultUploaderFactory(http.DefaultClient)
	a.wire(ctx)
	return a, nil
}

// wire connects service notifications: a ready wallet gets an upload
// client, a lost wallet takes it away, and logout drops the sponsored wallet.
func (a *App) wire(ctx context.Context) {
	a.wallets.Subscribe(func(state services.WalletState, h wallet.Handle) {
		a.onWalletChange(ctx, state, h)
	})
	a.identity.OnLogout(func(ctx context.Context) {
		a.wallets.HandleLogout(ctx)
	})
	a.uploads.Subscribe(a.renderJob)
	a.uploads.Subscribe(func(job models.UploadJob) {
		if !job.Status.Terminal() {
			return
		}
		if err := a.history.Record(ctx, &job); err != nil {
			a.log.Warn(ctx, "upload not added to history", "job_id", job.ID, "error", err)
		}
	})
}

func (a *App) onWalletChange(ctx context.Context, state services.WalletState, h wallet.Handle) {
	if state != services.StateReady || h == nil {
		if state == services.StateNoWallet {
			a.uploads.SetClient(nil)
		}
		return
	}
	u, err := a.newUploader(ctx, h)
	if err != nil {
		a.log.Error(ctx, "upload client unavailable", "error", err)
		a.uploads.SetClient(nil)
		return
	}
	a.uploads.SetClient(u)
}

func (a *App) defaultUploaderFactory(httpClient *http.Client) uploaderFactory {
	return func(ctx context.Context, signer wallet.Signer) (client.Uploader, error) {
		c := a.config
		if c.Transport == config.TransportS3 {
			return client.NewS3Client(ctx, client.S3Config{
				Bucket:       c.S3Bucket,
				Region:       c.S3Region,
				BaseEndpoint: c.S3BaseEndpoint,
				AccessKey:    c.S3AccessKey,
				SecretKey:    c.S3SecretKey,
			}, signer, httpClient, a.log)
		}
		return client.NewBundlerClient(c.UploadServiceURL, c.PaymentToken, signer, httpClient, a.log)
	}
}

// Run restores a remembered login, then runs the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	if sess, err := a.identity.Restore(ctx); err != nil {
		a.printErr(err)
	} else if sess != nil {
		fmt.Fprintf(a.out, "Welcome back, %s\n", sess.Subject)
	}

	fmt.Fprintln(a.out, "TurboUploader CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

// Close releases the local store.
func (a *App) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) getStatus() string {
	s := string(a.wallets.State())
	if h := a.wallets.Current(); h != nil {
		s = fmt.Sprintf("%s %s", h.Type(), shortAddress(h.Address()))
	}
	if sess := a.identity.Current(); sess != nil {
		s = sess.Subject + " " + s
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) selectedFile() *models.File {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selected
}
