// Package catalog maps public resource ids to backend object keys and
// gates unpublished resources. It is optional: the server streams by raw
// object key when no catalog DSN is configured.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
)

// ErrNotFound means the public id is unknown or the resource is not
// published.
var ErrNotFound = errors.New("resource not in catalog")

type Catalog struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open connects to MySQL, retrying with backoff until the deadline —
// the database container often comes up after the server does.
func Open(ctx context.Context, dsn string, log zerolog.Logger) (*Catalog, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	retryInterval := 2 * time.Second
	deadline := time.Now().Add(30 * time.Second)
	for {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			db.Close()
			return nil, fmt.Errorf("catalog database unreachable: %w", err)
		}
		log.Warn().Err(err).Dur("retry_in", retryInterval).Msg("catalog ping failed, retrying")
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
		retryInterval *= 2
	}

	return &Catalog{db: db, log: log}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// Resolve returns the backend object key for a published public id.
func (c *Catalog) Resolve(ctx context.Context, publicID string) (string, error) {
	var objectKey string
	query := `SELECT object_key FROM resource WHERE public_id = ? AND published = 1`

	err := c.db.QueryRowContext(ctx, query, publicID).Scan(&objectKey)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %s", ErrNotFound, publicID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve resource: %w", err)
	}

	return objectKey, nil
}

// Publish inserts or republishes a mapping. Used by the ingest tooling,
// not by the request path.
func (c *Catalog) Publish(ctx context.Context, publicID, objectKey string) error {
	query := `INSERT INTO resource (public_id, object_key, published)
	          VALUES (?, ?, 1)
	          ON DUPLICATE KEY UPDATE object_key = VALUES(object_key), published = 1`

	if _, err := c.db.ExecContext(ctx, query, publicID, objectKey); err != nil {
		return fmt.Errorf("failed to publish resource: %w", err)
	}
	return nil
}

// Unpublish hides a resource without deleting its mapping.
func (c *Catalog) Unpublish(ctx context.Context, publicID string) error {
	result, err := c.db.ExecContext(ctx,
		`UPDATE resource SET published = 0 WHERE public_id = ?`, publicID)
	if err != nil {
		return fmt.Errorf("failed to unpublish resource: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, publicID)
	}
	return nil
}
