package services

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/client/client"
	"github.com/dmitrijs2005/gophmarket/internal/client/models"
	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"golang.org/x/sync/errgroup"
)

// ownedReadLimit caps concurrent record reads while resolving owned ids.
const ownedReadLimit = 8

// ListingCache holds the two derived views shown to the user: tokens listed
// for sale by others, and tokens owned by the connected account. Views are
// only ever replaced as a whole by Rebuild.
type ListingCache struct {
	gateway client.Gateway
	session *models.Session
	log     logging.Logger
	now     func() time.Time

	rebuildMu sync.Mutex

	mu      sync.RWMutex
	listed  []models.NFTRecord
	owned   []models.NFTRecord
	owner   string
	builtAt time.Time
	stale   bool
}

func NewListingCache(gateway client.Gateway, session *models.Session, log logging.Logger) *ListingCache {
	if log == nil {
		log = logging.Discard()
	}
	return &ListingCache{
		gateway: gateway,
		session: session,
		log:     log.With("component", "listing_cache"),
		now:     time.Now,
		stale:   true,
	}
}

// Rebuild re-reads both views from the contract for the current session and
// swaps them in. On error the previous views stay and are marked stale.
// Concurrent calls run one after another.
func (c *ListingCache) Rebuild(ctx context.Context) error {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()

	address, connected := c.session.Address()

	listed, err := c.readListed(ctx, address)
	var owned []models.NFTRecord
	if err == nil && connected {
		owned, err = c.readOwned(ctx, address)
	}
	if err == nil {
		c.swap(listed, owned, address)
		return nil
	}

	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()

	c.log.Warn(ctx, "listing rebuild failed", "error", err)
	return fmt.Errorf("rebuild listings: %w", err)
}

func (c *ListingCache) swap(listed, owned []models.NFTRecord, owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listed = listed
	c.owned = owned
	c.owner = owner
	c.builtAt = c.now()
	c.stale = false
}

// readListed returns every listed record except the caller's own.
func (c *ListingCache) readListed(ctx context.Context, address string) ([]models.NFTRecord, error) {
	all, err := c.gateway.ListedInventory(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.NFTRecord, 0, len(all))
	for _, r := range all {
		if address != "" && models.SameAddress(r.Seller, address) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// readOwned resolves the caller's token ids to records, keeping id order.
func (c *ListingCache) readOwned(ctx context.Context, address string) ([]models.NFTRecord, error) {
	ids, err := c.gateway.OwnedIDs(ctx, address)
	if err != nil {
		return nil, err
	}

	out := make([]models.NFTRecord, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ownedReadLimit)

	for i, id := range ids {
		g.Go(func() error {
			r, err := c.gateway.RecordOf(gctx, id)
			if err != nil {
				return fmt.Errorf("record %d: %w", id, err)
			}
			out[i] = *r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Listed returns a copy of the public browse view.
func (c *ListingCache) Listed() []models.NFTRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.listed)
}

// Owned returns a copy of the caller's inventory.
func (c *ListingCache) Owned() []models.NFTRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.owned)
}

// FilterListed returns listed records priced at or below maxWei. The bound
// must be positive.
func (c *ListingCache) FilterListed(maxWei *big.Int) ([]models.NFTRecord, error) {
	if maxWei == nil || maxWei.Sign() <= 0 {
		return nil, common.ErrInvalidPrice
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.NFTRecord, 0, len(c.listed))
	for _, r := range c.listed {
		if r.PriceWei != nil && r.PriceWei.Cmp(maxWei) <= 0 {
			out = append(out, r)
		}
	}
	return out, nil
}

// FindListed looks a token up in the browse view.
func (c *ListingCache) FindListed(id uint64) (models.NFTRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.listed {
		if r.ID == id {
			return r, true
		}
	}
	return models.NFTRecord{}, false
}

// Stale reports whether the last rebuild failed or none has run yet.
func (c *ListingCache) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale
}

// BuiltAt returns when the views were last replaced.
func (c *ListingCache) BuiltAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.builtAt
}

// Owner returns the address the owned view was built for, empty when it was
// built without a session.
func (c *ListingCache) Owner() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.owner
}
