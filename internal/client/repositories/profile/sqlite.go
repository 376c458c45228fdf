package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/turbouploader/internal/client/models"
	"github.com/dmitrijs2005/turbouploader/internal/dbx"
)

// profileRowID is the fixed primary key of the only row.
const profileRowID = 1

type SQLiteRepository struct {
	db dbx.DB
}

func NewSQLiteRepository(db dbx.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Save(ctx context.Context, p *models.Profile) error {
	return save(ctx, r.db, p)
}

func (r *SQLiteRepository) Load(ctx context.Context) (*models.Profile, error) {
	return load(ctx, r.db)
}

func (r *SQLiteRepository) UpdateSponsorAddress(ctx context.Context, address string) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		p, err := load(ctx, tx)
		if err != nil {
			return err
		}
		if p == nil {
			return nil
		}
		p.SponsorAddress = address
		return save(ctx, tx, p)
	})
}

func (r *SQLiteRepository) ClearSponsorAddress(ctx context.Context) error {
	return r.UpdateSponsorAddress(ctx, "")
}

func (r *SQLiteRepository) Delete(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM profile`); err != nil {
		return fmt.Errorf("profile delete: %w", err)
	}
	return nil
}

func save(ctx context.Context, db dbx.DBTX, p *models.Profile) error {
	if p == nil {
		return errors.New("profile save: nil profile")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("profile encode: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO profile (id, data, updated_at) VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, profileRowID, data)
	if err != nil {
		return fmt.Errorf("profile save: %w", err)
	}
	return nil
}

func load(ctx context.Context, db dbx.DBTX) (*models.Profile, error) {
	var data []byte
	err := db.QueryRowContext(ctx, `SELECT data FROM profile WHERE id = ?`, profileRowID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile load: %w", err)
	}

	var p models.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("profile decode: %w", err)
	}
	return &p, nil
}
