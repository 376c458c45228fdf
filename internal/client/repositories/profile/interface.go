// Package profile persists the device's single wallet profile.
package profile

import (
	"context"

	"github.com/dmitrijs2005/turbouploader/internal/client/models"
)

// Repository is the wallet store. Save replaces the whole record; the sponsor
// updates touch only the sponsor field and do nothing when no profile exists.
// Load returns (nil, nil) when no profile was ever saved.
type Repository interface {
	Save(ctx context.Context, p *models.Profile) error
	Load(ctx context.Context) (*models.Profile, error)
	UpdateSponsorAddress(ctx context.Context, address string) error
	ClearSponsorAddress(ctx context.Context) error
	Delete(ctx context.Context) error
}
