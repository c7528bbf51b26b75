package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/dbx"
)

const (
	keyWalletConnected = "wallet_connected"
	keyConnectedAt     = "wallet_connected_at"
)

// SessionStore persists the "user connected intentionally" flag that gates
// silent auto-reconnect, plus the time it was set.
type SessionStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

// WasConnected reports whether the flag is set.
func (s *SessionStore) WasConnected(ctx context.Context) (bool, error) {
	v, err := NewSQLiteRepository(s.db).Get(ctx, keyWalletConnected)
	if err != nil {
		return false, err
	}
	return string(v) == "true", nil
}

// ConnectedAt returns when the flag was last set, or the zero time.
func (s *SessionStore) ConnectedAt(ctx context.Context) (time.Time, error) {
	v, err := NewSQLiteRepository(s.db).Get(ctx, keyConnectedAt)
	if err != nil || v == nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, string(v))
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed %s: %w", keyConnectedAt, err)
	}
	return t, nil
}

// MarkConnected sets the flag and its timestamp in one transaction.
func (s *SessionStore) MarkConnected(ctx context.Context) error {
	at := s.now().UTC().Format(time.RFC3339)
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		if err := repo.Set(ctx, keyWalletConnected, []byte("true")); err != nil {
			return err
		}
		return repo.Set(ctx, keyConnectedAt, []byte(at))
	})
}

// Clear removes the flag. Clearing an absent flag is not an error.
func (s *SessionStore) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		if err := repo.Delete(ctx, keyWalletConnected); err != nil {
			return err
		}
		return repo.Delete(ctx, keyConnectedAt)
	})
}
