package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// UploadStarted records a new processing session
func (db *DB) UploadStarted(ctx context.Context, id, sourcePath string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO uploads (id, source_path, status, started_at) VALUES (?, ?, ?, ?)",
		id, sourcePath, StatusProcessing, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to record upload: %w", err)
	}
	return nil
}

// UploadFinished stores the terminal status of a session
func (db *DB) UploadFinished(ctx context.Context, id, status, detail string) error {
	result, err := db.conn.ExecContext(ctx,
		"UPDATE uploads SET status = ?, detail = ?, finished_at = ? WHERE id = ?",
		status, detail, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update upload: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("upload not found: %s", id)
	}
	return nil
}

// GetUpload retrieves an upload by ID
func (db *DB) GetUpload(ctx context.Context, id string) (*Upload, error) {
	var u Upload
	var finished sql.NullTime
	err := db.conn.QueryRowContext(ctx,
		"SELECT id, source_path, status, detail, started_at, finished_at FROM uploads WHERE id = ?",
		id,
	).Scan(&u.ID, &u.SourcePath, &u.Status, &u.Detail, &u.StartedAt, &finished)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("upload not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}
	if finished.Valid {
		u.FinishedAt = &finished.Time
	}

	return &u, nil
}

// ListUploads returns the most recent uploads first
func (db *DB) ListUploads(ctx context.Context, limit, offset int) ([]*Upload, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, source_path, status, detail, started_at, finished_at FROM uploads ORDER BY started_at DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []*Upload
	for rows.Next() {
		var u Upload
		var finished sql.NullTime
		if err := rows.Scan(&u.ID, &u.SourcePath, &u.Status, &u.Detail, &u.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		if finished.Valid {
			u.FinishedAt = &finished.Time
		}
		uploads = append(uploads, &u)
	}

	return uploads, rows.Err()
}

// PruneUploads keeps only the newest keep rows and returns how many were deleted
func (db *DB) PruneUploads(ctx context.Context, keep int) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM uploads WHERE id NOT IN (
			SELECT id FROM uploads ORDER BY started_at DESC LIMIT ?
		)`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune uploads: %w", err)
	}
	return result.RowsAffected()
}

// ClearUploads deletes the whole journal
func (db *DB) ClearUploads(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, "DELETE FROM uploads"); err != nil {
		return fmt.Errorf("failed to clear uploads: %w", err)
	}
	return nil
}
