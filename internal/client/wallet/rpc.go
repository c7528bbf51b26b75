package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	defaultPollInterval = 2 * time.Second
	pollTimeout         = 3 * time.Second
)

// RPCProvider talks to a wallet over go-ethereum's JSON-RPC client.
type RPCProvider struct {
	client   *rpc.Client
	interval time.Duration
	log      logging.Logger
}

var _ Provider = (*RPCProvider)(nil)

// Dial connects to the wallet at url. An empty url means no wallet is
// configured and yields common.ErrWalletUnavailable.
func Dial(ctx context.Context, url string, pollInterval time.Duration, log logging.Logger) (*RPCProvider, error) {
	if strings.TrimSpace(url) == "" {
		return nil, common.ErrWalletUnavailable
	}

	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrWalletUnavailable, err)
	}

	return NewRPCProvider(c, pollInterval, log), nil
}

// NewRPCProvider wraps an existing rpc client. pollInterval controls how
// often eth_accounts is polled for account changes.
func NewRPCProvider(c *rpc.Client, pollInterval time.Duration, log logging.Logger) *RPCProvider {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if log == nil {
		log = logging.Discard()
	}
	return &RPCProvider{client: c, interval: pollInterval, log: log.With("component", "wallet")}
}

func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []ethcommon.Address
	err := p.client.CallContext(ctx, &accounts, "eth_requestAccounts")
	if isMethodNotFound(err) {
		// plain nodes with unlocked accounts do not implement the prompt
		return p.Accounts(ctx)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return hexAccounts(accounts), nil
}

func (p *RPCProvider) Accounts(ctx context.Context) ([]string, error) {
	var accounts []ethcommon.Address
	if err := p.client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, mapError(err)
	}
	return hexAccounts(accounts), nil
}

func (p *RPCProvider) Balance(ctx context.Context, address string) (*big.Int, error) {
	if !ethcommon.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid address %q", address)
	}

	var balance hexutil.Big
	err := p.client.CallContext(ctx, &balance, "eth_getBalance", ethcommon.HexToAddress(address), "latest")
	if err != nil {
		return nil, mapError(err)
	}
	return balance.ToInt(), nil
}

// RequestPermissions asks the wallet to re-prompt for account access
// (wallet_requestPermissions with the eth_accounts capability).
func (p *RPCProvider) RequestPermissions(ctx context.Context) error {
	var result []map[string]any
	params := map[string]any{"eth_accounts": map[string]any{}}
	if err := p.client.CallContext(ctx, &result, "wallet_requestPermissions", params); err != nil {
		return mapError(err)
	}
	return nil
}

type sendTxArgs struct {
	From  ethcommon.Address `json:"from"`
	To    ethcommon.Address `json:"to"`
	Gas   hexutil.Uint64    `json:"gas"`
	Value *hexutil.Big      `json:"value,omitempty"`
	Data  hexutil.Bytes     `json:"data"`
}

func (p *RPCProvider) SendTransaction(ctx context.Context, tx TxRequest) (ethcommon.Hash, error) {
	args := sendTxArgs{
		From: tx.From,
		To:   tx.To,
		Gas:  hexutil.Uint64(tx.Gas),
		Data: tx.Data,
	}
	if tx.Value != nil && tx.Value.Sign() > 0 {
		args.Value = (*hexutil.Big)(tx.Value)
	}

	var hash ethcommon.Hash
	if err := p.client.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return ethcommon.Hash{}, mapError(err)
	}

	p.log.Debug(ctx, "transaction sent", "tx", hash.Hex(), "from", tx.From.Hex())
	return hash, nil
}

func (p *RPCProvider) Close() {
	p.client.Close()
}

// mapError keeps server answers distinguishable by code and treats every
// transport failure as the wallet being unreachable.
func mapError(err error) error {
	if common.IsServerError(err) {
		return common.FromRPC(err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", common.ErrNetwork, err)
	}
	return fmt.Errorf("%w: %w", common.ErrWalletUnavailable, err)
}

func isMethodNotFound(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr) && rpcErr.ErrorCode() == common.CodeMethodNotFound
}

func hexAccounts(in []ethcommon.Address) []string {
	out := make([]string, len(in))
	for i, a := range in {
		out[i] = a.Hex()
	}
	return out
}
