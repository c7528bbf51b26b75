// Package metadata persists small key/value facts about the local client in
// the SQLite metadata table. The only fact the market client keeps across
// restarts is whether the user connected a wallet on purpose.
package metadata

import (
	"context"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
