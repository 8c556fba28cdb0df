package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core/session"
)

const table = "client_storage"

// Store keeps values in the client_storage table, one row per (namespace, key).
type Store struct {
	db *sqlx.DB
}

var _ session.Provider = (*Store)(nil)

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Scope(namespace string) session.Storage {
	return &scoped{db: s.db, ns: namespace}
}

type scoped struct {
	db *sqlx.DB
	ns string
}

var _ session.Storage = (*scoped)(nil)

func (sc *scoped) Get(ctx context.Context, key string) (string, error) {
	var value string
	q := "SELECT value FROM " + table + " WHERE namespace = $1 AND key = $2"
	if err := sc.db.GetContext(ctx, &value, q, sc.ns, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", session.ErrNotFound
		}
		return "", errors.Wrap(err, "reading session value")
	}
	return value, nil
}

func (sc *scoped) Set(ctx context.Context, key, value string) error {
	q := `INSERT INTO ` + table + ` (namespace, key, value, updated_at) VALUES ($1, $2, $3, now())
		ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	_, err := sc.db.ExecContext(ctx, q, sc.ns, key, value)
	return errors.Wrap(err, "writing session value")
}

func (sc *scoped) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	q, args, err := sqlx.In("DELETE FROM "+table+" WHERE namespace = ? AND key IN (?)", sc.ns, keys)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	_, err = sc.db.ExecContext(ctx, sc.db.Rebind(q), args...)
	return errors.Wrap(err, "deleting session values")
}
