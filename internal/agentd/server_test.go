package agentd

import (
	"context"
	"crypto/sha256"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/turbouploader/internal/client/agent"
	"github.com/dmitrijs2005/turbouploader/internal/client/wallet"
	"github.com/dmitrijs2005/turbouploader/internal/common"
	"github.com/dmitrijs2005/turbouploader/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	keyOnce sync.Once
	testKey *cryptox.JWK
	keyErr  error
)

func testWallet(t *testing.T) *wallet.SponsoredWallet {
	t.Helper()
	keyOnce.Do(func() { testKey, keyErr = cryptox.GenerateJWK(1024) })
	require.NoError(t, keyErr)
	w, err := wallet.NewSponsoredWallet(testKey)
	require.NoError(t, err)
	return w
}

func startAgent(t *testing.T, approve Approver) (*Server, *agent.Connector, *httptest.Server) {
	t.Helper()
	srv := NewServer(testWallet(t), approve, nil)
	ts := httptest.NewServer(srv.NewRouter())
	t.Cleanup(ts.Close)
	return srv, agent.New(ts.URL, ts.Client(), nil), ts
}

func TestRoundTripThroughConnector(t *testing.T) {
	ctx := context.Background()

	apps := make(chan wallet.AppInfo, 1)
	srv, c, _ := startAgent(t, func(_ context.Context, perms []wallet.Permission, app wallet.AppInfo) bool {
		apps <- app
		return true
	})
	w := testWallet(t)

	require.True(t, c.Available(ctx))
	require.NoError(t, c.Connect(ctx, wallet.DefaultPermissions, wallet.AppInfo{Name: "TurboUploader"}))
	assert.Equal(t, "TurboUploader", (<-apps).Name)
	assert.Equal(t, 1, srv.Sessions())

	addr, err := c.ActiveAddress(ctx)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), addr)

	owner, err := c.PublicKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, testKey.Owner(), owner)

	digest := sha256.Sum256([]byte("item"))
	sig, err := c.Sign(ctx, digest[:])
	require.NoError(t, err)
	require.NoError(t, cryptox.VerifyPSS(owner, digest[:], sig))

	// the connector is a usable external wallet
	ew, err := wallet.NewExternalWallet(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), ew.Address())

	require.NoError(t, c.Disconnect(ctx))
	assert.Equal(t, 0, srv.Sessions())
	_, err = c.ActiveAddress(ctx)
	require.ErrorIs(t, err, agent.ErrNotConnected)
}

func TestConnectDenied(t *testing.T) {
	_, c, _ := startAgent(t, func(context.Context, []wallet.Permission, wallet.AppInfo) bool { return false })

	err := c.Connect(context.Background(), wallet.DefaultPermissions, wallet.AppInfo{Name: "x"})
	require.ErrorIs(t, err, agent.ErrPermissionDenied)
}

func TestPermissionsAreEnforced(t *testing.T) {
	ctx := context.Background()
	_, c, _ := startAgent(t, nil)

	require.NoError(t, c.Connect(ctx, []wallet.Permission{wallet.PermAccessAddress}, wallet.AppInfo{Name: "x"}))

	_, err := c.ActiveAddress(ctx)
	require.NoError(t, err)

	_, err = c.PublicKey(ctx)
	require.ErrorIs(t, err, agent.ErrPermissionDenied)

	digest := sha256.Sum256([]byte("item"))
	_, err = c.Sign(ctx, digest[:])
	require.ErrorIs(t, err, agent.ErrPermissionDenied)
}

func TestRawRequests(t *testing.T) {
	_, _, ts := startAgent(t, nil)

	post := func(path, session, body string) *http.Response {
		req, err := http.NewRequest(http.MethodPost, ts.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		if session != "" {
			req.Header.Set(common.AgentSessionHeaderName, session)
		}
		resp, err := ts.Client().Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	assert.Equal(t, http.StatusBadRequest, post("/v1/connect", "", `{"permissions":[]}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, post("/v1/connect", "", `not json`).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, post("/v1/sign", "bogus", `{"data":"AA"}`).StatusCode)

	resp, err := ts.Client().Get(ts.URL + "/v1/connect")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestSign_RejectsNonDigest(t *testing.T) {
	ctx := context.Background()
	_, c, _ := startAgent(t, nil)
	require.NoError(t, c.Connect(ctx, wallet.DefaultPermissions, wallet.AppInfo{Name: "x"}))

	_, err := c.Sign(ctx, []byte("short"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
