package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// maxPollSteps bounds the receipt poll interval at this many multiples of
// the configured one.
const maxPollSteps = 8

type receiptReader interface {
	TransactionReceipt(ctx context.Context, hash ethcommon.Hash) (*types.Receipt, error)
}

type pendingTx struct {
	hash     ethcommon.Hash
	backend  receiptReader
	interval time.Duration
	log      logging.Logger
}

func (p *pendingTx) Hash() string {
	return p.hash.Hex()
}

// Wait polls for the receipt with exponential backoff until it shows up.
// Lookup errors are retried; only ctx ends the wait early.
func (p *pendingTx) Wait(ctx context.Context) (*Receipt, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.interval
	b.MaxInterval = p.interval * maxPollSteps
	b.MaxElapsedTime = 0

	lookup := func() (*Receipt, error) {
		r, err := p.backend.TransactionReceipt(ctx, p.hash)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, ethereum.NotFound
		}
		return p.resolve(r)
	}

	notify := func(err error, next time.Duration) {
		if !errors.Is(err, ethereum.NotFound) {
			p.log.Debug(ctx, "receipt lookup failed", "tx", p.hash.Hex(), "retry_in", next, "error", err)
		}
	}

	receipt, err := backoff.RetryNotifyWithData(lookup, backoff.WithContext(b, ctx), notify)
	if err != nil && ctx.Err() != nil && !errors.Is(err, common.ErrReverted) {
		return nil, fmt.Errorf("%w: waiting for %s: %w", common.ErrNetwork, p.hash.Hex(), ctx.Err())
	}
	return receipt, err
}

// resolve turns a receipt into the client's view of it. A failed status is
// final and stops the retries.
func (p *pendingTx) resolve(r *types.Receipt) (*Receipt, error) {
	out := &Receipt{TxHash: p.hash.Hex(), GasUsed: r.GasUsed}
	if r.BlockNumber != nil {
		out.BlockNumber = r.BlockNumber.Uint64()
	}

	if r.Status == types.ReceiptStatusFailed {
		return out, backoff.Permanent(fmt.Errorf("%w: %s", common.ErrReverted, p.hash.Hex()))
	}
	return out, nil
}
