package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/turbouploader/internal/client/migrations"
	"github.com/dmitrijs2005/turbouploader/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/turbouploader/internal/client/repositories/profile"
	"github.com/dmitrijs2005/turbouploader/internal/client/repositories/uploads"
	"github.com/dmitrijs2005/turbouploader/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Repositories bundles the local stores.
type Repositories struct {
	Metadata metadata.Repository
	Profile  profile.Repository
	Uploads  uploads.Repository
}

// NewRepositories builds the SQLite-backed stores over db.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Metadata: metadata.NewSQLiteRepository(db),
		Profile:  profile.NewSQLiteRepository(db),
		Uploads:  uploads.NewSQLiteRepository(db),
	}
}

// RunMigrations applies the embedded migrations. It is safe to call on an
// already migrated database.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// OpenDatabase opens (creating if needed) the SQLite file at dsn and migrates
// it. The pool is limited to one connection so ":memory:" databases keep
// their schema.
func OpenDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn != ":memory:" {
		if err := filex.EnsureParentDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
