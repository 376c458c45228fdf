package uploads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/turbouploader/internal/client/models"
	"github.com/dmitrijs2005/turbouploader/internal/common"
	"github.com/dmitrijs2005/turbouploader/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const columns = `id, file_name, file_size, payer, status, locator, content_id, failure_kind, failure_message, created_at`

func (r *SQLiteRepository) Record(ctx context.Context, job *models.UploadJob) error {
	if job == nil {
		return errors.New("uploads record: nil job")
	}

	var kind, msg string
	if job.Failure != nil {
		kind, msg = string(job.Failure.Kind), job.Failure.Message
	}

	query := `INSERT INTO uploads (` + columns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			locator = excluded.locator,
			content_id = excluded.content_id,
			failure_kind = excluded.failure_kind,
			failure_message = excluded.failure_message`
	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.FileName, job.FileSize, job.Payer, string(job.Status),
		job.Locator, job.ContentID, kind, msg,
		job.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("uploads record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.UploadJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM uploads WHERE id = ?`, id)

	job, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("uploads get %q: %w", id, err)
	}
	return job, nil
}

func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]*models.UploadJob, error) {
	query := `SELECT ` + columns + ` FROM uploads ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("uploads list: %w", err)
	}
	defer rows.Close()

	var result []*models.UploadJob
	for rows.Next() {
		job, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("uploads list: %w", err)
		}
		result = append(result, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("uploads list: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM uploads`); err != nil {
		return fmt.Errorf("uploads clear: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.UploadJob, error) {
	var (
		job          models.UploadJob
		status       string
		kind, msg    string
		createdAtRaw string
	)
	err := s.Scan(&job.ID, &job.FileName, &job.FileSize, &job.Payer, &status,
		&job.Locator, &job.ContentID, &kind, &msg, &createdAtRaw)
	if err != nil {
		return nil, err
	}

	job.Status = models.UploadStatus(status)
	if kind != "" {
		job.Failure = common.NewError(common.Kind(kind), msg, nil)
	}
	if job.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtRaw); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	return &job, nil
}
