package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophmarket/internal/client/client"
	"github.com/dmitrijs2005/gophmarket/internal/client/models"
	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	lru "github.com/hashicorp/golang-lru"
)

// ProgressFunc is told how many of total ids have been inspected.
type ProgressFunc func(done, total uint64)

// SearchScanner finds a token by URI by walking ids 1..totalSupply in
// order. There is no index: a miss costs one read per minted token.
//
// URIs never change after mint and ids are never reused, so the URI seen
// for an id is memoized; a deleted token reads as an empty URI and is
// memoized as such. A memo hit is always confirmed by a fresh read before
// it is returned.
type SearchScanner struct {
	gateway client.Gateway
	memo    *lru.Cache
	log     logging.Logger
}

func NewSearchScanner(gateway client.Gateway, memoSize int, log logging.Logger) (*SearchScanner, error) {
	if memoSize <= 0 {
		memoSize = 1
	}
	memo, err := lru.New(memoSize)
	if err != nil {
		return nil, fmt.Errorf("uri memo: %w", err)
	}
	if log == nil {
		log = logging.Discard()
	}
	return &SearchScanner{gateway: gateway, memo: memo, log: log.With("component", "search")}, nil
}

// FindByURI returns the lowest-id record whose URI equals uri exactly.
// found is false when no id in 1..totalSupply matches; that is not an error.
// progress may be nil.
func (s *SearchScanner) FindByURI(ctx context.Context, uri string, progress ProgressFunc) (rec models.NFTRecord, found bool, err error) {
	if uri == "" {
		return models.NFTRecord{}, false, common.ErrInvalidURI
	}

	total, err := s.gateway.TotalSupply(ctx)
	if err != nil {
		return models.NFTRecord{}, false, fmt.Errorf("search: %w", err)
	}

	reads := 0
	for id := uint64(1); id <= total; id++ {
		if err := ctx.Err(); err != nil {
			return models.NFTRecord{}, false, fmt.Errorf("search: %w: %w", common.ErrNetwork, err)
		}

		stored, fresh, err := s.uriOf(ctx, id)
		if err != nil {
			return models.NFTRecord{}, false, fmt.Errorf("search id %d: %w", id, err)
		}
		if fresh != nil {
			reads++
		}
		if progress != nil {
			progress(id, total)
		}
		if stored != uri {
			continue
		}

		if fresh == nil {
			if fresh, err = s.gateway.RecordOf(ctx, id); err != nil {
				return models.NFTRecord{}, false, fmt.Errorf("search id %d: %w", id, err)
			}
			reads++
			s.memo.Add(id, fresh.URI)
		}
		if fresh.URI == uri {
			s.log.Debug(ctx, "uri found", "id", id, "reads", reads, "total", total)
			return *fresh, true, nil
		}
	}

	s.log.Debug(ctx, "uri not found", "reads", reads, "total", total)
	return models.NFTRecord{}, false, nil
}

// uriOf answers from the memo when it can. On a miss it reads the record
// and returns it as fresh.
func (s *SearchScanner) uriOf(ctx context.Context, id uint64) (string, *models.NFTRecord, error) {
	if v, ok := s.memo.Get(id); ok {
		return v.(string), nil, nil
	}

	r, err := s.gateway.RecordOf(ctx, id)
	if err != nil {
		return "", nil, err
	}
	s.memo.Add(id, r.URI)
	return r.URI, r, nil
}

// Forget drops the memoized URI of id, e.g. after the token was deleted.
func (s *SearchScanner) Forget(id uint64) {
	s.memo.Remove(id)
}

// Reset empties the memo.
func (s *SearchScanner) Reset() {
	s.memo.Purge()
}
