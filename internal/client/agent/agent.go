// Package agent is a wallet.Connector talking HTTP/JSON to a locally running
// signer agent. The agent keeps the private key; this side only sees the
// address, the public key and signatures.
package agent

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/turbouploader/internal/client/wallet"
	"github.com/dmitrijs2005/turbouploader/internal/common"
	"github.com/dmitrijs2005/turbouploader/internal/logging"
	"github.com/dmitrijs2005/turbouploader/internal/netx"
)

// statusTimeout bounds the availability probe.
const statusTimeout = 2 * time.Second

var (
	ErrNotConnected     = errors.New("agent: not connected")
	ErrPermissionDenied = errors.New("agent: permission denied")
)

// Connector implements wallet.Connector.
type Connector struct {
	baseURL    string
	httpClient *http.Client
	log        logging.Logger

	mu      sync.Mutex
	session string
}

var _ wallet.Connector = (*Connector)(nil)

// New returns a connector for the agent at baseURL.
func New(baseURL string, httpClient *http.Client, log logging.Logger) *Connector {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Connector{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log.With("component", "agent"),
	}
}

// Available probes the agent. Any failure counts as unavailable.
func (c *Connector) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	var out struct {
		Ready bool `json:"ready"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/status", nil, &out, false); err != nil {
		c.log.Debug(ctx, "agent unavailable", "error", err)
		return false
	}
	return out.Ready
}

type connectRequest struct {
	Permissions []wallet.Permission `json:"permissions"`
	AppInfo     wallet.AppInfo      `json:"appInfo"`
}

// Connect opens a new session, ending any previous one first.
func (c *Connector) Connect(ctx context.Context, perms []wallet.Permission, app wallet.AppInfo) error {
	if c.currentSession() != "" {
		if err := c.Disconnect(ctx); err != nil {
			c.log.Warn(ctx, "previous agent session not closed", "error", err)
		}
	}

	var out struct {
		Session string `json:"session"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/connect", connectRequest{Permissions: perms, AppInfo: app}, &out, false); err != nil {
		return err
	}
	if out.Session == "" {
		return errors.New("agent: empty session")
	}

	c.mu.Lock()
	c.session = out.Session
	c.mu.Unlock()
	return nil
}

// Disconnect ends the session. It is a no-op when not connected.
func (c *Connector) Disconnect(ctx context.Context) error {
	if c.currentSession() == "" {
		return nil
	}
	err := c.do(ctx, http.MethodPost, "/v1/disconnect", nil, nil, true)

	c.mu.Lock()
	c.session = ""
	c.mu.Unlock()
	return err
}

func (c *Connector) ActiveAddress(ctx context.Context) (string, error) {
	var out struct {
		Address string `json:"address"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/address", nil, &out, true); err != nil {
		return "", err
	}
	return out.Address, nil
}

func (c *Connector) PublicKey(ctx context.Context) (string, error) {
	var out struct {
		Owner string `json:"owner"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/public-key", nil, &out, true); err != nil {
		return "", err
	}
	return out.Owner, nil
}

func (c *Connector) Sign(ctx context.Context, digest []byte) ([]byte, error) {
	in := struct {
		Data string `json:"data"`
	}{Data: base64.RawURLEncoding.EncodeToString(digest)}
	var out struct {
		Signature string `json:"signature"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/sign", in, &out, true); err != nil {
		return nil, err
	}
	sig, err := base64.RawURLEncoding.DecodeString(out.Signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature encoding: %w", err)
	}
	return sig, nil
}

func (c *Connector) currentSession() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Connector) do(ctx context.Context, method, path string, in, out any, needSession bool) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if needSession {
		s := c.currentSession()
		if s == "" {
			return ErrNotConnected
		}
		req.Header.Set(common.AgentSessionHeaderName, s)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("agent %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrPermissionDenied
	case resp.StatusCode == http.StatusUnauthorized:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrNotConnected
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("agent %s: %w", path, netx.NewStatusError(resp))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("agent %s: decode: %w", path, err)
	}
	return nil
}
