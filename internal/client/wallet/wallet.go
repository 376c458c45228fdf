// Package wallet models the signing wallet as a closed variant: a locally
// generated SponsoredWallet that owns its key, or an ExternalWallet that only
// holds a capability reference into a connector.
package wallet

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/turbouploader/internal/cryptox"
)

// Type tells the two wallet variants apart.
type Type string

const (
	TypeSponsored Type = "sponsored"
	TypeExternal  Type = "external"
)

// Signer is what an upload client needs from a wallet.
type Signer interface {
	// Owner returns the base64url public modulus.
	Owner(ctx context.Context) (string, error)
	// Sign signs a SHA-256 digest with RSA-PSS.
	Sign(ctx context.Context, digest []byte) ([]byte, error)
}

// Handle is the runtime wallet. Only *SponsoredWallet and *ExternalWallet
// implement it.
type Handle interface {
	Signer
	Type() Type
	Address() string
	isHandle()
}

// SponsoredWallet is a locally generated wallet whose key lives in memory.
type SponsoredWallet struct {
	jwk     *cryptox.JWK
	key     *rsa.PrivateKey
	address string
}

// NewSponsoredWallet validates jwk and derives its address.
func NewSponsoredWallet(jwk *cryptox.JWK) (*SponsoredWallet, error) {
	key, err := jwk.PrivateKey()
	if err != nil {
		return nil, err
	}
	addr, err := jwk.Address()
	if err != nil {
		return nil, err
	}
	return &SponsoredWallet{jwk: jwk, key: key, address: addr}, nil
}

func (w *SponsoredWallet) Type() Type      { return TypeSponsored }
func (w *SponsoredWallet) Address() string { return w.address }
func (w *SponsoredWallet) isHandle()       {}

// JWK returns the keypair, for persisting.
func (w *SponsoredWallet) JWK() *cryptox.JWK { return w.jwk }

func (w *SponsoredWallet) Owner(context.Context) (string, error) {
	return w.jwk.Owner(), nil
}

func (w *SponsoredWallet) Sign(ctx context.Context, digest []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return cryptox.SignPSS(w.key, digest)
}

// Permission is a capability requested from an external connector.
type Permission string

const (
	PermAccessAddress   Permission = "ACCESS_ADDRESS"
	PermAccessPublicKey Permission = "ACCESS_PUBLIC_KEY"
	PermSignTransaction Permission = "SIGN_TRANSACTION"
	PermSignature       Permission = "SIGNATURE"
)

// DefaultPermissions is the fixed set requested on every connect.
var DefaultPermissions = []Permission{
	PermAccessAddress,
	PermAccessPublicKey,
	PermSignTransaction,
	PermSignature,
}

// AppInfo identifies this application to the connector.
type AppInfo struct {
	Name string `json:"name"`
}

// Connector is the contract of an external wallet connector. Private key
// material never crosses it.
type Connector interface {
	Available(ctx context.Context) bool
	Connect(ctx context.Context, perms []Permission, app AppInfo) error
	Disconnect(ctx context.Context) error
	ActiveAddress(ctx context.Context) (string, error)
	PublicKey(ctx context.Context) (string, error)
	Sign(ctx context.Context, digest []byte) ([]byte, error)
}

var ErrEmptyAddress = errors.New("connector returned an empty address")

// ExternalWallet is a capability reference into a connected connector.
type ExternalWallet struct {
	connector Connector
	address   string
	owner     string
}

// NewExternalWallet reads the active address from an already connected c.
func NewExternalWallet(ctx context.Context, c Connector) (*ExternalWallet, error) {
	addr, err := c.ActiveAddress(ctx)
	if err != nil {
		return nil, fmt.Errorf("active address: %w", err)
	}
	if addr == "" {
		return nil, ErrEmptyAddress
	}
	return &ExternalWallet{connector: c, address: addr}, nil
}

func (w *ExternalWallet) Type() Type      { return TypeExternal }
func (w *ExternalWallet) Address() string { return w.address }
func (w *ExternalWallet) isHandle()       {}

// Connector returns the underlying connector.
func (w *ExternalWallet) Connector() Connector { return w.connector }

func (w *ExternalWallet) Owner(ctx context.Context) (string, error) {
	if w.owner != "" {
		return w.owner, nil
	}
	owner, err := w.connector.PublicKey(ctx)
	if err != nil {
		return "", fmt.Errorf("public key: %w", err)
	}
	w.owner = owner
	return owner, nil
}

func (w *ExternalWallet) Sign(ctx context.Context, digest []byte) ([]byte, error) {
	return w.connector.Sign(ctx, digest)
}
