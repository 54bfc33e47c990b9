package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkalvans/passvault/internal/dbx"
)

// SQLiteRepository implements Repository over a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, app, username, encPassword string) error {
	query := `INSERT INTO records (id, app, username, password) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, uuid.NewString(), app, username, encPassword)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Search(ctx context.Context, app string) (*Record, error) {
	query := `SELECT id, app, username, password FROM records WHERE app = ?`
	row := r.db.QueryRowContext(ctx, query, app)

	rec := &Record{}
	if err := row.Scan(&rec.ID, &rec.App, &rec.Username, &rec.Password); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to search record: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, app, username, encPassword string) error {
	query := `UPDATE records SET username = ?, password = ? WHERE app = ?`
	res, err := r.db.ExecContext(ctx, query, username, encPassword, app)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}

func (r *SQLiteRepository) ListApps(ctx context.Context) ([]string, error) {
	query := `SELECT app FROM records ORDER BY app`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list apps: %w", err)
	}
	defer rows.Close()

	var apps []string
	for rows.Next() {
		var app string
		if err := rows.Scan(&app); err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	return nil
}
