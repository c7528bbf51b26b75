package wallet

import (
	"context"
	"slices"
	"strings"
	"time"
)

// SubscribeAccounts polls eth_accounts on the provider's interval and calls
// fn with the new list whenever it differs from the previous one. The first
// poll result is taken as the baseline and is not delivered.
//
// Poll errors are logged and skipped; a wallet that is briefly unreachable
// does not look like an empty account list.
func (p *RPCProvider) SubscribeAccounts(ctx context.Context, fn func([]string)) (func(), error) {
	initial, err := p.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		p.watchAccounts(ctx, initial, fn)
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

func (p *RPCProvider) watchAccounts(ctx context.Context, prev []string, fn func([]string)) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pollCtx, cancel := context.WithTimeout(ctx, pollTimeout)
			accounts, err := p.Accounts(pollCtx)
			cancel()

			if err != nil {
				if ctx.Err() == nil {
					p.log.Debug(ctx, "account poll failed", "error", err)
				}
				continue
			}

			if sameAccounts(prev, accounts) {
				continue
			}
			prev = accounts
			fn(accounts)

		case <-ctx.Done():
			return
		}
	}
}

func sameAccounts(a, b []string) bool {
	return slices.EqualFunc(a, b, strings.EqualFold)
}
