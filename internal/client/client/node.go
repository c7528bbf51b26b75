package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// DialNode connects to the chain node used for reads, gas estimation and
// receipts.
func DialNode(ctx context.Context, url string) (*ethclient.Client, error) {
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: dial node %s: %w", common.ErrNetwork, url, err)
	}
	return c, nil
}
