package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/gophmarket/internal/client/models"
	"github.com/dmitrijs2005/gophmarket/internal/common"
)

func TestFailureMessage(t *testing.T) {
	tests := []struct {
		name string
		op   models.OpKind
		err  error
		want string
	}{
		{"rejected", models.OpBuy, common.ErrUserRejected, ""},
		{"wrapped rejection", models.OpMint, fmt.Errorf("mint: %w", common.ErrUserRejected), ""},
		{"mint estimation", models.OpMint, common.ErrEstimationFailure, "Minting failed: this NFT may have already been minted."},
		{"list estimation", models.OpList, common.ErrEstimationFailure, "Listing failed: the marketplace rejected the transaction."},
		{"revert", models.OpUnlist, common.ErrReverted, "Unlisting failed: the transaction reverted."},
		{"buy not connected", models.OpBuy, common.ErrNotConnected, "Please connect your wallet to buy (type 'connect')."},
		{"self purchase", models.OpBuy, common.ErrSelfPurchase, "You cannot buy your own NFT."},
		{"in flight", models.OpDelete, common.ErrOperationInFlight, "Delete is already in progress."},
		{"account switched", models.OpBuy, fmt.Errorf("buy: %w", common.ErrAccountChanged), "Purchase cancelled: your wallet switched accounts. Check and try again."},
		{"browse bound", opBrowse, common.ErrInvalidPrice, "Maximum price must be positive."},
		{"network", opSearch, common.ErrNetwork, "Search failed: network error, try again."},
		{"unknown", models.OpList, errors.New("boom"), "Listing failed: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failureMessage(tt.op, tt.err))
		})
	}
}

func TestSuccessMessage_StaleViews(t *testing.T) {
	res := models.TxResult{Key: models.OpKey{Kind: models.OpUnlist, TargetID: 2}, CacheStale: true}
	msg := successMessage(res, nil)

	assert.Contains(t, msg, "NFT 2 unlisted!")
	assert.Contains(t, msg, "type 'refresh'")
}
