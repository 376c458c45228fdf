package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/turbouploader/internal/client/auth"
	"github.com/dmitrijs2005/turbouploader/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/turbouploader/internal/common"
	"github.com/dmitrijs2005/turbouploader/internal/logging"
)

// identityTokenKey is the metadata key of the remembered token.
const identityTokenKey = "identity_token"

// Session is an active federated login.
type Session struct {
	Subject    string
	ExpiresAt  time.Time
	Token      string
	Remembered bool
}

// IdentityProvider runs the federated login flow and returns the raw token.
type IdentityProvider interface {
	Login(ctx context.Context) (string, error)
}

// TokenRevoker is implemented by providers that can end a session remotely.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string) error
}

// LogoutListener is told when the session ends.
type LogoutListener func(ctx context.Context)

// IdentityService manages the federated login session.
//
// Contract:
//   - Restore: revive a remembered, unexpired token; expired or unreadable
//     tokens are discarded.
//   - Login: run the provider flow; remember the token only when asked.
//   - Logout: revoke, forget the stored token, notify listeners.
//
// With a nil provider the service is disabled: Restore returns no session
// and Login fails with a ValidationError.
type IdentityService interface {
	Enabled() bool
	Restore(ctx context.Context) (*Session, error)
	Login(ctx context.Context, remember bool) (*Session, error)
	Logout(ctx context.Context) error
	Current() *Session
	OnLogout(fn LogoutListener)
}

type identityService struct {
	provider IdentityProvider
	tokens   metadata.Repository
	secret   []byte
	log      logging.Logger

	mu        sync.Mutex
	current   *Session
	listeners []LogoutListener
}

// NewIdentityService builds the session manager. secret verifies token
// signatures; when empty tokens are decoded without verification.
func NewIdentityService(provider IdentityProvider, tokens metadata.Repository, secret []byte, log logging.Logger) IdentityService {
	if log == nil {
		log = logging.Nop()
	}
	return &identityService{
		provider: provider,
		tokens:   tokens,
		secret:   secret,
		log:      log.With("component", "identity"),
	}
}

func (s *identityService) Enabled() bool { return s.provider != nil }

func (s *identityService) Restore(ctx context.Context) (*Session, error) {
	if !s.Enabled() {
		return nil, nil
	}

	raw, err := s.tokens.Get(ctx, identityTokenKey)
	if err != nil {
		return nil, common.NewError(common.KindStorage, "failed to read saved login", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	info, err := auth.ParseToken(string(raw), s.secret, timeNow())
	if err != nil {
		s.log.Info(ctx, "discarding saved login", "reason", err.Error())
		if derr := s.tokens.Delete(ctx, identityTokenKey); derr != nil {
			return nil, common.NewError(common.KindStorage, "failed to discard saved login", derr)
		}
		return nil, nil
	}

	sess := &Session{Subject: info.Subject, ExpiresAt: info.ExpiresAt, Token: string(raw), Remembered: true}
	s.setCurrent(sess)
	s.log.Info(ctx, "login restored", "expires_at", info.ExpiresAt)
	return copySession(sess), nil
}

func (s *identityService) Login(ctx context.Context, remember bool) (*Session, error) {
	if !s.Enabled() {
		return nil, common.NewError(common.KindValidation, "federated login is disabled", nil)
	}

	raw, err := s.provider.Login(ctx)
	if err != nil {
		return nil, common.NewError(common.KindConnection, "login failed", err)
	}

	info, err := auth.ParseToken(raw, s.secret, timeNow())
	if err != nil {
		return nil, common.NewError(common.KindValidation, "login returned an unusable token", err)
	}

	if remember {
		err = s.tokens.Set(ctx, identityTokenKey, []byte(raw))
	} else {
		err = s.tokens.Delete(ctx, identityTokenKey)
	}
	if err != nil {
		return nil, common.NewError(common.KindStorage, "failed to save login", err)
	}

	sess := &Session{Subject: info.Subject, ExpiresAt: info.ExpiresAt, Token: raw, Remembered: remember}
	s.setCurrent(sess)
	s.log.Info(ctx, "logged in", "remembered", remember)
	return copySession(sess), nil
}

func (s *identityService) Logout(ctx context.Context) error {
	s.mu.Lock()
	sess := s.current
	s.current = nil
	listeners := append([]LogoutListener(nil), s.listeners...)
	s.mu.Unlock()

	if sess != nil {
		if r, ok := s.provider.(TokenRevoker); ok {
			if err := r.Revoke(ctx, sess.Token); err != nil {
				s.log.Warn(ctx, "token revocation failed", "error", err)
			}
		}
	}

	var storageErr error
	if s.tokens != nil {
		if err := s.tokens.Delete(ctx, identityTokenKey); err != nil {
			storageErr = common.NewError(common.KindStorage, "failed to forget saved login", err)
		}
	}

	for _, fn := range listeners {
		fn(ctx)
	}
	s.log.Info(ctx, "logged out")
	return storageErr
}

func (s *identityService) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && !timeNow().Before(s.current.ExpiresAt) {
		s.current = nil
	}
	return copySession(s.current)
}

func (s *identityService) OnLogout(fn LogoutListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *identityService) setCurrent(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = sess
}

func copySession(s *Session) *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
