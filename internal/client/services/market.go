package services

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/client/client"
	"github.com/dmitrijs2005/gophmarket/internal/client/models"
	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
)

// Refresher rebuilds derived views after a confirmed mutation.
type Refresher interface {
	Rebuild(ctx context.Context) error
}

// URIMemo forgets what it knows about a token.
type URIMemo interface {
	Forget(id uint64)
}

// MarketService turns a user intent into a validated, submitted and
// resolved transaction.
//
// Every write is at most once: it is checked, submitted, awaited for one
// confirmation and never retried. Cheap preconditions are checked first and
// fail without submitting anything. Only one operation per (kind, token)
// may be in flight; a second one fails with common.ErrOperationInFlight.
// Views are rebuilt only after confirmation, never speculatively.
type MarketService interface {
	Mint(ctx context.Context, uri string) (models.TxResult, error)
	List(ctx context.Context, id uint64, priceWei *big.Int) (models.TxResult, error)
	UpdatePrice(ctx context.Context, id uint64, priceWei *big.Int) (models.TxResult, error)
	Unlist(ctx context.Context, id uint64) (models.TxResult, error)
	Buy(ctx context.Context, id uint64, priceWei *big.Int) (models.TxResult, error)
	Delete(ctx context.Context, id uint64) (models.TxResult, error)

	// Pending lists the operations submitted or being checked, oldest first.
	Pending() []models.PendingOperation
	ListingFee() *big.Int
}

type marketService struct {
	gateway  client.Gateway
	sessions SessionService
	views    Refresher
	memo     URIMemo
	fee      *big.Int
	log      logging.Logger
	now      func() time.Time

	mu       sync.Mutex
	inFlight map[models.OpKey]models.PendingOperation
}

// MarketOptions groups the collaborators of the market service. Views and
// Memo are optional.
type MarketOptions struct {
	Gateway    client.Gateway
	Sessions   SessionService
	Views      Refresher
	Memo       URIMemo
	ListingFee *big.Int
	Logger     logging.Logger
}

func NewMarketService(opts MarketOptions) MarketService {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	fee := new(big.Int)
	if opts.ListingFee != nil {
		fee.Set(opts.ListingFee)
	}
	return &marketService{
		gateway:  opts.Gateway,
		sessions: opts.Sessions,
		views:    opts.Views,
		memo:     opts.Memo,
		fee:      fee,
		log:      log.With("component", "market"),
		now:      time.Now,
		inFlight: make(map[models.OpKey]models.PendingOperation),
	}
}

func (m *marketService) ListingFee() *big.Int {
	return new(big.Int).Set(m.fee)
}

func (m *marketService) Mint(ctx context.Context, uri string) (models.TxResult, error) {
	if strings.TrimSpace(uri) == "" {
		return models.TxResult{}, common.ErrInvalidURI
	}
	return m.run(ctx, models.OpKey{Kind: models.OpMint}, nil, func(ctx context.Context, from string) (client.PendingTx, error) {
		return m.gateway.Mint(ctx, from, uri)
	})
}

func (m *marketService) List(ctx context.Context, id uint64, priceWei *big.Int) (models.TxResult, error) {
	if !positive(priceWei) {
		return models.TxResult{}, common.ErrInvalidPrice
	}
	check := func(ctx context.Context, caller string) error {
		return m.requireBalance(ctx, caller, m.fee)
	}
	return m.run(ctx, models.OpKey{Kind: models.OpList, TargetID: id}, check, func(ctx context.Context, from string) (client.PendingTx, error) {
		return m.gateway.ListForSale(ctx, from, id, priceWei, m.ListingFee())
	})
}

func (m *marketService) UpdatePrice(ctx context.Context, id uint64, priceWei *big.Int) (models.TxResult, error) {
	if !positive(priceWei) {
		return models.TxResult{}, common.ErrInvalidPrice
	}
	return m.run(ctx, models.OpKey{Kind: models.OpUpdatePrice, TargetID: id}, nil, func(ctx context.Context, from string) (client.PendingTx, error) {
		return m.gateway.UpdatePrice(ctx, from, id, priceWei)
	})
}

func (m *marketService) Unlist(ctx context.Context, id uint64) (models.TxResult, error) {
	return m.run(ctx, models.OpKey{Kind: models.OpUnlist, TargetID: id}, nil, func(ctx context.Context, from string) (client.PendingTx, error) {
		return m.gateway.Unlist(ctx, from, id)
	})
}

// Buy pays priceWei for token id. The buyer may not be the token's seller
// (or its owner when no seller is recorded) and must hold at least priceWei.
func (m *marketService) Buy(ctx context.Context, id uint64, priceWei *big.Int) (models.TxResult, error) {
	if !positive(priceWei) {
		return models.TxResult{}, common.ErrInvalidPrice
	}
	check := func(ctx context.Context, caller string) error {
		rec, err := m.gateway.RecordOf(ctx, id)
		if err != nil {
			return fmt.Errorf("read record %d: %w", id, err)
		}
		if models.SameAddress(caller, rec.SellerOrOwner()) {
			return common.ErrSelfPurchase
		}
		return m.requireBalance(ctx, caller, priceWei)
	}
	return m.run(ctx, models.OpKey{Kind: models.OpBuy, TargetID: id}, check, func(ctx context.Context, from string) (client.PendingTx, error) {
		return m.gateway.Buy(ctx, from, id, priceWei)
	})
}

func (m *marketService) Delete(ctx context.Context, id uint64) (models.TxResult, error) {
	res, err := m.run(ctx, models.OpKey{Kind: models.OpDelete, TargetID: id}, nil, func(ctx context.Context, from string) (client.PendingTx, error) {
		return m.gateway.DeleteRecord(ctx, from, id)
	})
	if err == nil && m.memo != nil {
		m.memo.Forget(id)
	}
	return res, err
}

func (m *marketService) requireBalance(ctx context.Context, caller string, need *big.Int) error {
	bal, err := m.sessions.BalanceOf(ctx, caller)
	if err != nil {
		return err
	}
	if bal.Cmp(need) < 0 {
		return common.ErrInsufficientFunds
	}
	return nil
}

// submitFunc sends the write signed as from.
type submitFunc func(ctx context.Context, from string) (client.PendingTx, error)

// run holds the in-flight key for key across the whole operation: checks,
// submission and the wait for confirmation. The key is released on every
// path.
//
// The account read at the start is the one every check runs against and the
// one the transaction is signed as. If the wallet has moved to another
// account by submit time the operation fails with common.ErrAccountChanged.
func (m *marketService) run(ctx context.Context, key models.OpKey, check func(ctx context.Context, caller string) error, submit submitFunc) (models.TxResult, error) {
	cur := m.sessions.Current()
	caller := cur.Address
	if !cur.Connected || caller == "" {
		return models.TxResult{}, common.ErrNotConnected
	}

	op, err := m.acquire(key)
	if err != nil {
		return models.TxResult{}, err
	}
	defer m.release(key)

	log := m.log.With("op_id", op.ID.String(), "op", key.String())
	res := models.TxResult{OpID: op.ID, Key: key}

	if check != nil {
		if err := check(ctx, caller); err != nil {
			if common.IsPrecondition(err) {
				log.Info(ctx, "operation refused", "error", err)
			} else {
				log.Warn(ctx, "precondition check failed", "error", err)
			}
			return res, err
		}
	}

	if now := m.sessions.Current(); !now.Connected || !models.SameAddress(now.Address, caller) {
		log.Info(ctx, "operation refused", "error", common.ErrAccountChanged, "checked", caller, "current", now.Address)
		return res, common.ErrAccountChanged
	}

	tx, err := submit(ctx, caller)
	if err != nil {
		return res, m.failed(ctx, log, err)
	}
	res.TxHash = tx.Hash()
	m.submitted(key, res.TxHash)
	log.Info(ctx, "transaction submitted", "tx", res.TxHash)

	receipt, err := tx.Wait(ctx)
	if receipt != nil {
		res.BlockNumber = receipt.BlockNumber
		res.GasUsed = receipt.GasUsed
	}
	if err != nil {
		return res, m.failed(ctx, log, err)
	}

	log.Info(ctx, "transaction confirmed", "tx", res.TxHash, "block", res.BlockNumber)
	res.CacheStale = !m.refresh(ctx, log)
	return res, nil
}

// failed logs a failed operation and resyncs views when the contract said
// no, since that usually means local state was out of date.
func (m *marketService) failed(ctx context.Context, log logging.Logger, err error) error {
	switch common.Classify(err) {
	case common.KindUserRejected:
		log.Info(ctx, "user rejected the request")
	case common.KindEstimationFailure, common.KindReverted:
		log.Warn(ctx, "contract rejected the operation", "error", err)
		m.refresh(ctx, log)
	default:
		log.Error(ctx, "operation failed", "error", err)
	}
	return err
}

func (m *marketService) refresh(ctx context.Context, log logging.Logger) bool {
	if m.views == nil {
		return true
	}
	if err := m.views.Rebuild(ctx); err != nil {
		log.Warn(ctx, "views not refreshed, will retry on next refresh", "error", err)
		return false
	}
	return true
}

func (m *marketService) acquire(key models.OpKey) (models.PendingOperation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, busy := m.inFlight[key]; busy {
		return cur, fmt.Errorf("%s: %w", key, common.ErrOperationInFlight)
	}
	op := models.NewPendingOperation(key, m.now())
	m.inFlight[key] = op
	return op, nil
}

func (m *marketService) submitted(key models.OpKey, hash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if op, ok := m.inFlight[key]; ok {
		op.TxHash = hash
		m.inFlight[key] = op
	}
}

func (m *marketService) release(key models.OpKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, key)
}

func (m *marketService) Pending() []models.PendingOperation {
	m.mu.Lock()
	out := make([]models.PendingOperation, 0, len(m.inFlight))
	for _, op := range m.inFlight {
		out = append(out, op)
	}
	m.mu.Unlock()

	slices.SortFunc(out, func(a, b models.PendingOperation) int {
		return a.SubmittedAt.Compare(b.SubmittedAt)
	})
	return out
}

func positive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}
