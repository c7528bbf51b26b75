// Package wallet is the client side of the wallet capability: account access,
// balance reads, permission resets, transaction signing and account-change
// notifications. Any EIP-1193 compatible signer reachable over JSON-RPC can
// back it.
package wallet

import (
	"context"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// TxRequest is an unsigned call handed to the wallet for signing and
// broadcast. Gas is filled in by the caller after estimation.
type TxRequest struct {
	From  ethcommon.Address
	To    ethcommon.Address
	Data  []byte
	Value *big.Int
	Gas   uint64
}

// Provider is the wallet surface the session and gateway depend on.
//
// RequestAccounts may prompt the user; Accounts never does. Errors wrap the
// sentinels from package common (ErrUserRejected, ErrWalletUnavailable,
// ErrNotConnected, ErrReverted, ErrNetwork).
type Provider interface {
	RequestAccounts(ctx context.Context) ([]string, error)
	Accounts(ctx context.Context) ([]string, error)
	Balance(ctx context.Context, address string) (*big.Int, error)
	RequestPermissions(ctx context.Context) error
	SendTransaction(ctx context.Context, tx TxRequest) (ethcommon.Hash, error)

	// SubscribeAccounts calls fn every time the set of authorized accounts
	// changes. The returned cancel func stops delivery and waits for any
	// callback in progress.
	SubscribeAccounts(ctx context.Context, fn func(accounts []string)) (cancel func(), err error)

	Close()
}
