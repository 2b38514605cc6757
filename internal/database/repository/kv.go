package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/jask/pokedex/internal/database"
)

// KVRepo handles the scoped key/value table.
type KVRepo struct {
	db *sql.DB
}

func NewKVRepo(db *sql.DB) *KVRepo { return &KVRepo{db: db} }

// Get returns the row for scope/key, or nil when absent.
func (r *KVRepo) Get(ctx context.Context, scope, key string) (*KV, error) {
	row := r.db.QueryRowContext(ctx, `SELECT scope, key, value, revision, updated_at FROM kv WHERE scope = ? AND key = ?`, scope, key)
	var kv KV
	if err := row.Scan(&kv.Scope, &kv.Key, &kv.Value, &kv.Revision, &kv.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &kv, nil
}

// Set overwrites the value under scope/key and returns the new revision.
func (r *KVRepo) Set(ctx context.Context, scope, key, value string) (string, error) {
	rev := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO kv(scope, key, value, revision, updated_at) VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(scope, key) DO UPDATE SET
	 value=excluded.value,
	 revision=excluded.revision,
	 updated_at=excluded.updated_at;
	`, scope, key, value, rev, database.Now())
	if err != nil {
		return "", err
	}
	return rev, nil
}

// Remove deletes scope/key. Removing an absent key is not an error.
func (r *KVRepo) Remove(ctx context.Context, scope, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE scope = ? AND key = ?`, scope, key)
	return err
}

// Scope binds the repo to a single scope.
func (r *KVRepo) Scope(scope string) *ScopedStore {
	return &ScopedStore{repo: r, scope: scope}
}

// ScopedStore is a key/value view restricted to one scope.
type ScopedStore struct {
	repo  *KVRepo
	scope string
}

func (s *ScopedStore) Get(ctx context.Context, key string) (string, bool, error) {
	kv, err := s.repo.Get(ctx, s.scope, key)
	if err != nil || kv == nil {
		return "", false, err
	}
	return kv.Value, true, nil
}

func (s *ScopedStore) Set(ctx context.Context, key, value string) error {
	_, err := s.repo.Set(ctx, s.scope, key, value)
	return err
}

func (s *ScopedStore) Remove(ctx context.Context, key string) error {
	return s.repo.Remove(ctx, s.scope, key)
}

// Revision returns the current revision of key, or "" when absent.
func (s *ScopedStore) Revision(ctx context.Context, key string) (string, error) {
	kv, err := s.repo.Get(ctx, s.scope, key)
	if err != nil || kv == nil {
		return "", err
	}
	return kv.Revision, nil
}
