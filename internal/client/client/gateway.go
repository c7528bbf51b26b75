package client

import (
	"context"
	"math/big"

	"github.com/dmitrijs2005/gophmarket/internal/client/models"
)

// Gateway is the typed boundary to the marketplace contract.
//
// Reads never need a session. Writes are estimated and signed as the
// account passed in from, never as whatever account happens to be current,
// and return as soon as the transaction is accepted; the caller decides
// whether to wait for it. A write that could not be submitted returns an
// error wrapping one of the common sentinels: ErrUserRejected when the
// wallet prompt was declined, ErrEstimationFailure when the contract refused
// the call up front, ErrNotConnected without a signer or a valid from.
type Gateway interface {
	ListedInventory(ctx context.Context) ([]models.NFTRecord, error)
	OwnedIDs(ctx context.Context, owner string) ([]uint64, error)
	URIOf(ctx context.Context, id uint64) (string, error)
	RecordOf(ctx context.Context, id uint64) (*models.NFTRecord, error)
	TotalSupply(ctx context.Context) (uint64, error)

	Mint(ctx context.Context, from, uri string) (PendingTx, error)
	ListForSale(ctx context.Context, from string, id uint64, priceWei, feeWei *big.Int) (PendingTx, error)
	UpdatePrice(ctx context.Context, from string, id uint64, priceWei *big.Int) (PendingTx, error)
	Unlist(ctx context.Context, from string, id uint64) (PendingTx, error)
	Buy(ctx context.Context, from string, id uint64, priceWei *big.Int) (PendingTx, error)
	DeleteRecord(ctx context.Context, from string, id uint64) (PendingTx, error)
}

// PendingTx is a submitted transaction.
type PendingTx interface {
	Hash() string

	// Wait blocks until the transaction is included in a block. A reverted
	// transaction returns its receipt together with common.ErrReverted.
	Wait(ctx context.Context) (*Receipt, error)
}

// Receipt is the part of a transaction receipt the client reports.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
}
