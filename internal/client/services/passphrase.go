package services

import (
	"context"

	"github.com/dmitrijs2005/turbouploader/internal/common"
)

// PassphraseSource supplies the secret that encrypts a sponsored wallet.
// The returned slice is wiped by the caller after use.
type PassphraseSource interface {
	Passphrase(ctx context.Context) ([]byte, error)
}

// UserPassphrase is an explicit secret typed by the user.
type UserPassphrase []byte

func (p UserPassphrase) Passphrase(context.Context) ([]byte, error) {
	if len(p) == 0 {
		return nil, common.NewError(common.KindValidation, "Please enter a passphrase", nil)
	}
	return append([]byte(nil), p...), nil
}

// IdentityPassphrase uses the logged-in subject id as the secret.
type IdentityPassphrase struct {
	Identity IdentityService
}

func (p IdentityPassphrase) Passphrase(context.Context) ([]byte, error) {
	if p.Identity == nil {
		return nil, common.NewError(common.KindValidation, "federated login is disabled", nil)
	}
	sess := p.Identity.Current()
	if sess == nil {
		return nil, common.NewError(common.KindValidation, "Please log in first", nil)
	}
	return []byte(sess.Subject), nil
}
