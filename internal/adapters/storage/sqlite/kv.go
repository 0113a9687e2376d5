// Package sqlite es el backend por defecto del almacenamiento local: un archivo
// sqlite en el dispositivo (driver puro Go, sin cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS local_kv (
		namespace  TEXT    NOT NULL,
		key        TEXT    NOT NULL,
		value      BLOB    NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (namespace, key)
	);
`

type KV struct {
	db *sql.DB
}

// Open abre (o crea) la base en path. ":memory:" sirve para tests.
func Open(path string) (*KV, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// una sola conexión: las escrituras quedan serializadas y los PRAGMA aplican a todo
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return &KV{db: db}, nil
}

func (r *KV) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	var v []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM local_kv WHERE namespace = ? AND key = ?`,
		namespace, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (r *KV) Set(ctx context.Context, namespace, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO local_kv (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, namespace, key, value, time.Now().UnixMilli())
	return err
}

func (r *KV) Remove(ctx context.Context, namespace, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM local_kv WHERE namespace = ? AND key = ?`,
		namespace, key,
	)
	return err
}

func (r *KV) Keys(ctx context.Context, namespace string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key FROM local_kv WHERE namespace = ? ORDER BY key ASC`,
		namespace,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (r *KV) Close() error {
	return r.db.Close()
}
