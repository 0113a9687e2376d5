package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

const kvSchema = `
	CREATE TABLE IF NOT EXISTS local_kv (
		namespace  TEXT        NOT NULL,
		key        TEXT        NOT NULL,
		value      BYTEA       NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (namespace, key)
	)
`

// KVRepo guarda el almacenamiento local en Postgres (dispositivo compartido / kiosco).
type KVRepo struct {
	db *sql.DB
}

func NewKVRepo(db *sql.DB) *KVRepo {
	return &KVRepo{db: db}
}

// EnsureSchema crea la tabla si no existe.
func (r *KVRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, kvSchema)
	return err
}

func (r *KVRepo) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return nil, false, nil
	}

	var v []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT value
		FROM local_kv
		WHERE namespace = $1 AND key = $2
	`, namespace, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (r *KVRepo) Set(ctx context.Context, namespace, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO local_kv (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (namespace, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`, namespace, key, value)
	return err
}

func (r *KVRepo) Remove(ctx context.Context, namespace, key string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM local_kv
		WHERE namespace = $1 AND key = $2
	`, namespace, key)
	return err
}

func (r *KVRepo) Keys(ctx context.Context, namespace string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT key
		FROM local_kv
		WHERE namespace = $1
		ORDER BY key ASC
	`, namespace)
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

func (r *KVRepo) Close() error {
	return r.db.Close()
}
