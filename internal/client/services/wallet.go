package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/turbouploader/internal/address"
	"github.com/dmitrijs2005/turbouploader/internal/client/models"
	"github.com/dmitrijs2005/turbouploader/internal/client/repositories/profile"
	"github.com/dmitrijs2005/turbouploader/internal/client/wallet"
	"github.com/dmitrijs2005/turbouploader/internal/common"
	"github.com/dmitrijs2005/turbouploader/internal/cryptox"
	"github.com/dmitrijs2005/turbouploader/internal/logging"
)

// WalletState is the connection manager state.
type WalletState string

const (
	StateNoWallet           WalletState = "NoWallet"
	StateAcquiringSponsored WalletState = "AcquiringSponsored"
	StateAcquiringExternal  WalletState = "AcquiringExternal"
	StateReady              WalletState = "Ready"
)

// Platform values.
const (
	PlatformDesktop = "desktop"
	PlatformMobile  = "mobile"
)

var generateJWK = cryptox.GenerateJWK

// WalletListener observes state changes. h is nil unless state is Ready.
type WalletListener func(state WalletState, h wallet.Handle)

// WalletOptions tunes the connection manager.
type WalletOptions struct {
	KeyBits        int
	AppName        string
	Platform       string
	ConnectTimeout time.Duration
}

// WalletService acquires and holds the single active wallet.
//
// Contract:
//   - CreateSponsoredWallet: generate, encrypt, persist, then become Ready.
//     A wallet that failed to persist is discarded.
//   - UnlockSponsoredWallet: check identity binding, decrypt, become Ready.
//   - ConnectExternalWallet: request the fixed permission set from the
//     connector and hold only its capability reference. An external wallet
//     that is already Ready is returned as is.
//   - Disconnect drops the handle; DeleteProfile also wipes storage.
//
// Acquiring a wallet of one type while the other type is Ready is rejected.
type WalletService interface {
	State() WalletState
	Current() wallet.Handle
	Profile(ctx context.Context) (*models.Profile, error)
	HasSponsoredWallet(ctx context.Context) (bool, error)

	CreateSponsoredWallet(ctx context.Context, name string, src PassphraseSource) (*wallet.SponsoredWallet, error)
	UnlockSponsoredWallet(ctx context.Context, src PassphraseSource) (*wallet.SponsoredWallet, error)
	ConnectExternalWallet(ctx context.Context) (*wallet.ExternalWallet, error)
	Disconnect(ctx context.Context) error
	DeleteProfile(ctx context.Context) error

	SetSponsorAddress(ctx context.Context, addr string) error
	ClearSponsorAddress(ctx context.Context) error

	HandleLogout(ctx context.Context)
	Subscribe(fn WalletListener)
}

type walletService struct {
	profiles  profile.Repository
	connector wallet.Connector
	identity  IdentityService
	opts      WalletOptions
	log       logging.Logger

	mu        sync.Mutex
	state     WalletState
	handle    wallet.Handle
	listeners []WalletListener
}

// NewWalletService builds the connection manager. connector and identity may
// be nil when external wallets or federated login are not available.
func NewWalletService(profiles profile.Repository, connector wallet.Connector, identity IdentityService, opts WalletOptions, log logging.Logger) WalletService {
	if opts.KeyBits == 0 {
		opts.KeyBits = cryptox.DefaultKeyBits
	}
	if opts.Platform == "" {
		opts.Platform = PlatformDesktop
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 30 * time.Second
	}
	if log == nil {
		log = logging.Nop()
	}
	return &walletService{
		profiles:  profiles,
		connector: connector,
		identity:  identity,
		opts:      opts,
		log:       log.With("component", "wallet"),
		state:     StateNoWallet,
	}
}

func (s *walletService) State() WalletState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *walletService) Current() wallet.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return nil
	}
	return s.handle
}

func (s *walletService) Subscribe(fn WalletListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *walletService) Profile(ctx context.Context) (*models.Profile, error) {
	p, err := s.profiles.Load(ctx)
	if err != nil {
		return nil, common.NewError(common.KindStorage, "failed to load profile", err)
	}
	return p, nil
}

func (s *walletService) HasSponsoredWallet(ctx context.Context) (bool, error) {
	p, err := s.Profile(ctx)
	if err != nil {
		return false, err
	}
	return p != nil, nil
}

// acquisition is an in-progress wallet acquisition. It restores the
// previous state unless committed.
type acquisition struct {
	s          *walletService
	prevState  WalletState
	prevHandle wallet.Handle
	done       bool
}

// begin moves to an Acquiring state. A Ready wallet of the other type, or
// another acquisition, makes it fail.
func (s *walletService) begin(to WalletState, want wallet.Type) (*acquisition, error) {
	s.mu.Lock()
	prevState, prevHandle := s.state, s.handle

	switch {
	case prevState == StateAcquiringSponsored || prevState == StateAcquiringExternal:
		s.mu.Unlock()
		return nil, common.NewError(common.KindAlreadyInProgress, "a wallet is already being connected", nil)
	case prevState == StateReady && prevHandle.Type() != want:
		s.mu.Unlock()
		msg := "Disconnect the external wallet first"
		if prevHandle.Type() == wallet.TypeSponsored {
			msg = "Disconnect the sponsored wallet first"
		}
		return nil, common.NewError(common.KindValidation, msg, nil)
	}

	s.state = to
	s.mu.Unlock()
	s.notify(to, nil)

	return &acquisition{s: s, prevState: prevState, prevHandle: prevHandle}, nil
}

func (a *acquisition) commit(h wallet.Handle) {
	a.done = true
	a.s.mu.Lock()
	a.s.state, a.s.handle = StateReady, h
	a.s.mu.Unlock()
	a.s.notify(StateReady, h)
}

func (a *acquisition) rollback() {
	if a.done {
		return
	}
	a.done = true
	a.s.mu.Lock()
	a.s.state, a.s.handle = a.prevState, a.prevHandle
	a.s.mu.Unlock()
	a.s.notify(a.prevState, a.prevHandle)
}

func (s *walletService) CreateSponsoredWallet(ctx context.Context, name string, src PassphraseSource) (*wallet.SponsoredWallet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.NewError(common.KindValidation, "Please enter a profile name", nil)
	}

	acq, err := s.begin(StateAcquiringSponsored, wallet.TypeSponsored)
	if err != nil {
		return nil, err
	}
	defer acq.rollback()

	existing, err := s.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, common.NewError(common.KindValidation, "A profile already exists on this device; delete it first", nil)
	}

	ownerID, err := s.boundOwner()
	if err != nil {
		return nil, err
	}

	pass, err := src.Passphrase(ctx)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(pass)

	jwk, err := generateJWK(s.opts.KeyBits)
	if err != nil {
		return nil, common.NewError(common.KindGeneration, "failed to generate wallet", err)
	}
	w, err := wallet.NewSponsoredWallet(jwk)
	if err != nil {
		return nil, common.NewError(common.KindGeneration, "failed to generate wallet", err)
	}

	blob, err := cryptox.EncryptJSON(jwk, pass)
	if err != nil {
		return nil, common.NewError(common.KindGeneration, "failed to encrypt wallet", err)
	}

	p := &models.Profile{
		Name:           name,
		WalletMaterial: models.WalletMaterial{Encrypted: blob},
		OwnerID:        ownerID,
	}
	if err := s.profiles.Save(ctx, p); err != nil {
		return nil, common.NewError(common.KindStorage, "failed to save profile", err)
	}

	acq.commit(w)
	s.log.Info(ctx, "sponsored wallet created", "address", w.Address())
	return w, nil
}

func (s *walletService) UnlockSponsoredWallet(ctx context.Context, src PassphraseSource) (*wallet.SponsoredWallet, error) {
	acq, err := s.begin(StateAcquiringSponsored, wallet.TypeSponsored)
	if err != nil {
		return nil, err
	}
	defer acq.rollback()

	p, err := s.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, common.NewError(common.KindValidation, "No saved profile found; create a wallet first", nil)
	}

	if p.OwnerID != "" {
		sess := s.currentSession()
		if sess == nil || sess.Subject != p.OwnerID {
			return nil, common.NewError(common.KindIdentityMismatch, "This wallet belongs to a different account", nil)
		}
	}

	pass, err := src.Passphrase(ctx)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(pass)

	var jwk *cryptox.JWK
	legacy := !p.WalletMaterial.IsEncrypted()
	if legacy {
		jwk = p.WalletMaterial.Plain
	} else {
		jwk = &cryptox.JWK{}
		if err := cryptox.DecryptJSON(p.WalletMaterial.Encrypted, pass, jwk); err != nil {
			return nil, err
		}
	}

	w, err := wallet.NewSponsoredWallet(jwk)
	if err != nil {
		return nil, common.NewError(common.KindDecryption, "stored wallet is not a usable key", err)
	}

	if legacy {
		if err := s.migrateLegacy(ctx, p, jwk, pass); err != nil {
			return nil, err
		}
	}

	acq.commit(w)
	s.log.Info(ctx, "sponsored wallet unlocked", "address", w.Address(), "migrated", legacy)
	return w, nil
}

// migrateLegacy re-encrypts a plaintext profile under pass.
func (s *walletService) migrateLegacy(ctx context.Context, p *models.Profile, jwk *cryptox.JWK, pass []byte) error {
	blob, err := cryptox.EncryptJSON(jwk, pass)
	if err != nil {
		return common.NewError(common.KindStorage, "failed to encrypt legacy wallet", err)
	}
	migrated := *p
	migrated.WalletMaterial = models.WalletMaterial{Encrypted: blob}
	if err := s.profiles.Save(ctx, &migrated); err != nil {
		return common.NewError(common.KindStorage, "failed to save profile", err)
	}
	return nil
}

func (s *walletService) ConnectExternalWallet(ctx context.Context) (*wallet.ExternalWallet, error) {
	// An external wallet that is already Ready shares the connector session,
	// so reconnecting could tear it down under the current handle.
	s.mu.Lock()
	if ew, ok := s.handle.(*wallet.ExternalWallet); ok && s.state == StateReady {
		s.mu.Unlock()
		return ew, nil
	}
	s.mu.Unlock()

	acq, err := s.begin(StateAcquiringExternal, wallet.TypeExternal)
	if err != nil {
		return nil, err
	}
	defer acq.rollback()

	if s.connector == nil || !s.connector.Available(ctx) {
		if s.opts.Platform == PlatformMobile {
			return nil, common.NewError(common.KindUnsupportedPlatform, "External wallets are not supported here; use a desktop browser", nil)
		}
		return nil, common.NewError(common.KindConnection, "Wallet connector not found; install or start it and retry", nil)
	}

	cctx, cancel := context.WithTimeout(ctx, s.opts.ConnectTimeout)
	defer cancel()

	if err := s.connector.Connect(cctx, wallet.DefaultPermissions, wallet.AppInfo{Name: s.opts.AppName}); err != nil {
		return nil, common.NewError(common.KindConnection, "Failed to connect wallet", err)
	}

	w, err := wallet.NewExternalWallet(cctx, s.connector)
	if err != nil {
		if derr := s.connector.Disconnect(ctx); derr != nil {
			err = errors.Join(err, derr)
		}
		return nil, common.NewError(common.KindConnection, "Failed to read wallet address", err)
	}

	acq.commit(w)
	s.log.Info(ctx, "external wallet connected", "address", w.Address())
	return w, nil
}

func (s *walletService) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	h := s.handle
	if s.state != StateReady {
		s.mu.Unlock()
		return nil
	}
	s.state, s.handle = StateNoWallet, nil
	s.mu.Unlock()

	var err error
	if ew, ok := h.(*wallet.ExternalWallet); ok {
		if derr := ew.Connector().Disconnect(ctx); derr != nil {
			err = common.NewError(common.KindConnection, "Failed to disconnect wallet", derr)
		}
	}

	s.notify(StateNoWallet, nil)
	s.log.Info(ctx, "wallet disconnected", "type", string(h.Type()))
	return err
}

func (s *walletService) DeleteProfile(ctx context.Context) error {
	if err := s.profiles.Delete(ctx); err != nil {
		return common.NewError(common.KindStorage, "failed to delete profile", err)
	}

	s.mu.Lock()
	dropped := false
	if s.state == StateReady && s.handle.Type() == wallet.TypeSponsored {
		s.state, s.handle = StateNoWallet, nil
		dropped = true
	}
	s.mu.Unlock()

	if dropped {
		s.notify(StateNoWallet, nil)
	}
	s.log.Info(ctx, "profile deleted")
	return nil
}

func (s *walletService) SetSponsorAddress(ctx context.Context, addr string) error {
	addr = strings.TrimSpace(addr)
	if !address.IsValid(addr) {
		return common.NewError(common.KindValidation, "Invalid sponsor address", nil)
	}
	if err := s.profiles.UpdateSponsorAddress(ctx, addr); err != nil {
		return common.NewError(common.KindStorage, "failed to save sponsor address", err)
	}
	return nil
}

func (s *walletService) ClearSponsorAddress(ctx context.Context) error {
	if err := s.profiles.ClearSponsorAddress(ctx); err != nil {
		return common.NewError(common.KindStorage, "failed to clear sponsor address", err)
	}
	return nil
}

// HandleLogout drops a sponsored wallet; it was unlocked under the ended
// session. External wallets are not bound to the identity and stay.
func (s *walletService) HandleLogout(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateReady || s.handle.Type() != wallet.TypeSponsored {
		s.mu.Unlock()
		return
	}
	s.state, s.handle = StateNoWallet, nil
	s.mu.Unlock()

	s.notify(StateNoWallet, nil)
	s.log.Info(ctx, "sponsored wallet dropped on logout")
}

func (s *walletService) boundOwner() (string, error) {
	if s.identity == nil || !s.identity.Enabled() {
		return "", nil
	}
	sess := s.identity.Current()
	if sess == nil {
		return "", common.NewError(common.KindValidation, "Please log in first", nil)
	}
	return sess.Subject, nil
}

func (s *walletService) currentSession() *Session {
	if s.identity == nil {
		return nil
	}
	return s.identity.Current()
}

func (s *walletService) notify(state WalletState, h wallet.Handle) {
	s.mu.Lock()
	listeners := append([]WalletListener(nil), s.listeners...)
	s.mu.Unlock()

	if state != StateReady {
		h = nil
	}
	for _, fn := range listeners {
		fn(state, h)
	}
}
