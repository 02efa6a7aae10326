package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLStore keeps snapshots in the snapshots table created by db.Open.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Get(ctx context.Context, ns Namespace, key string) ([]byte, error) {
	if err := checkKey(ns, key); err != nil {
		return nil, err
	}
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM snapshots WHERE namespace=$1 AND key=$2`, string(ns), key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

func (s *SQLStore) Put(ctx context.Context, ns Namespace, key string, data []byte) error {
	if err := checkKey(ns, key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO snapshots (namespace,key,data,updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (namespace,key) DO UPDATE SET data=EXCLUDED.data, updated_at=EXCLUDED.updated_at`,
		string(ns), key, string(data), time.Now().Unix())
	return err
}

func (s *SQLStore) Delete(ctx context.Context, ns Namespace, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE namespace=$1 AND key=$2`, string(ns), key)
	return err
}
