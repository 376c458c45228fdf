package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/turbouploader/internal/client/client"
	"github.com/dmitrijs2005/turbouploader/internal/client/models"
	"github.com/dmitrijs2005/turbouploader/internal/client/wallet"
	"github.com/dmitrijs2005/turbouploader/internal/common"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

var testNow = time.Date(2025, 6, 1, 10, 30, 0, 123_000_000, time.UTC)

// fixClock pins timeNow for the duration of the test.
func fixClock(t *testing.T, at time.Time) {
	t.Helper()
	orig := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = orig })
}

func openRepos(t *testing.T) *client.Repositories {
	t.Helper()
	db, err := client.OpenDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return client.NewRepositories(db)
}

func requireKind(t *testing.T, err error, kind common.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equalf(t, kind, common.KindOf(err), "error: %v", err)
}

// brokenProfiles fails every call with err.
type brokenProfiles struct{ err error }

func (b brokenProfiles) Save(context.Context, *models.Profile) error        { return b.err }
func (b brokenProfiles) Load(context.Context) (*models.Profile, error)      { return nil, b.err }
func (b brokenProfiles) UpdateSponsorAddress(context.Context, string) error { return b.err }
func (b brokenProfiles) ClearSponsorAddress(context.Context) error          { return b.err }
func (b brokenProfiles) Delete(context.Context) error                       { return b.err }

// failingSave loads from an inner store but fails on Save.
type failingSave struct {
	inner interface {
		Load(context.Context) (*models.Profile, error)
	}
	brokenProfiles
}

func (f failingSave) Load(ctx context.Context) (*models.Profile, error) { return f.inner.Load(ctx) }

var errDiskFull = errors.New("database or disk is full")

// fakeConnector is an in-memory wallet.Connector.
type fakeConnector struct {
	mu            sync.Mutex
	available     bool
	connectErr    error
	disconnectErr error
	addr          string
	connected     bool
	connects      int
	perms         []wallet.Permission
	app           wallet.AppInfo
	disconnects   int
	block         chan struct{}
}

func (f *fakeConnector) Available(context.Context) bool { return f.available }

func (f *fakeConnector) Connect(ctx context.Context, perms []wallet.Permission, app wallet.AppInfo) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.perms, f.app = perms, app
	f.connects++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeConnector) Disconnect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.disconnects++
	return f.disconnectErr
}

func (f *fakeConnector) ActiveAddress(context.Context) (string, error) { return f.addr, nil }
func (f *fakeConnector) PublicKey(context.Context) (string, error)     { return "owner", nil }
func (f *fakeConnector) Sign(context.Context, []byte) ([]byte, error)  { return []byte("sig"), nil }

// stubIdentity is a fixed IdentityService.
type stubIdentity struct {
	enabled bool
	session *Session
}

func (s *stubIdentity) Enabled() bool                                 { return s.enabled }
func (s *stubIdentity) Restore(context.Context) (*Session, error)     { return s.session, nil }
func (s *stubIdentity) Login(context.Context, bool) (*Session, error) { return s.session, nil }
func (s *stubIdentity) Logout(context.Context) error                  { s.session = nil; return nil }
func (s *stubIdentity) Current() *Session                             { return s.session }
func (s *stubIdentity) OnLogout(LogoutListener)                       {}
