// Package pgstore persists ledger snapshots in PostgreSQL.
package pgstore

import (
	"database/sql"
	"errors"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    snapshot_key TEXT PRIMARY KEY,
    body         BYTEA NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

type Store struct {
	db *sql.DB
}

func OpenPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(key string) ([]byte, bool, error) {
	var body []byte
	err := s.db.QueryRow(`SELECT body FROM snapshots WHERE snapshot_key = $1`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

func (s *Store) Save(key string, body []byte) error {
	_, err := s.db.Exec(`
INSERT INTO snapshots (snapshot_key, body, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (snapshot_key) DO UPDATE SET
    body = excluded.body,
    updated_at = excluded.updated_at
`, key, body)
	return err
}
