package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/client/models"
	"github.com/dmitrijs2005/gophmarket/internal/client/wallet"
	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Backend is the node access the gateway needs. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractCaller
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	TransactionReceipt(ctx context.Context, hash ethcommon.Hash) (*types.Receipt, error)
}

// Signer submits transactions on behalf of the connected account.
// wallet.Provider satisfies it.
type Signer interface {
	SendTransaction(ctx context.Context, tx wallet.TxRequest) (ethcommon.Hash, error)
}

// gasMarginPercent is applied on top of the node's estimate.
const gasMarginPercent = 120

// EthGateway implements Gateway with go-ethereum: calls go through a
// bind.BoundContract, writes are estimated against the node and signed by
// the wallet.
type EthGateway struct {
	address      ethcommon.Address
	abi          abi.ABI
	contract     *bind.BoundContract
	backend      Backend
	signer       Signer
	pollInterval time.Duration
	log          logging.Logger
}

var _ Gateway = (*EthGateway)(nil)

// GatewayOptions groups the collaborators of EthGateway.
type GatewayOptions struct {
	Address             string
	ABI                 abi.ABI
	Backend             Backend
	Signer              Signer
	ReceiptPollInterval time.Duration
	Logger              logging.Logger
}

func NewEthGateway(opts GatewayOptions) (*EthGateway, error) {
	if !ethcommon.IsHexAddress(opts.Address) {
		return nil, fmt.Errorf("invalid contract address %q", opts.Address)
	}
	if opts.Backend == nil {
		return nil, errors.New("gateway: nil backend")
	}

	interval := opts.ReceiptPollInterval
	if interval <= 0 {
		interval = time.Second
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	address := ethcommon.HexToAddress(opts.Address)
	return &EthGateway{
		address:      address,
		abi:          opts.ABI,
		contract:     bind.NewBoundContract(address, opts.ABI, opts.Backend, nil, nil),
		backend:      opts.Backend,
		signer:       opts.Signer,
		pollInterval: interval,
		log:          log.With("component", "gateway"),
	}, nil
}

// call runs a read-only method as the connected account when there is one,
// so msg.sender based views such as myNFTs see the caller.
func (g *EthGateway) call(ctx context.Context, from string, method string, args ...any) ([]any, error) {
	opts := &bind.CallOpts{Context: ctx}
	if from != "" {
		opts.From = ethcommon.HexToAddress(from)
	}

	var out []any
	if err := g.contract.Call(opts, &out, method, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", method, readError(err))
	}
	return out, nil
}

func (g *EthGateway) ListedInventory(ctx context.Context) ([]models.NFTRecord, error) {
	out, err := g.call(ctx, "", methodListed)
	if err != nil {
		return nil, err
	}

	raw := *abi.ConvertType(out[0], new([]nftTuple)).(*[]nftTuple)
	records := make([]models.NFTRecord, 0, len(raw))
	for _, t := range raw {
		r, err := t.record()
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

func (g *EthGateway) OwnedIDs(ctx context.Context, owner string) ([]uint64, error) {
	if !ethcommon.IsHexAddress(owner) {
		return nil, fmt.Errorf("invalid owner address %q", owner)
	}

	out, err := g.call(ctx, owner, methodMine)
	if err != nil {
		return nil, err
	}

	raw := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	ids := make([]uint64, 0, len(raw))
	for _, v := range raw {
		id, err := tokenID(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (g *EthGateway) URIOf(ctx context.Context, id uint64) (string, error) {
	out, err := g.call(ctx, "", methodURI, new(big.Int).SetUint64(id))
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

func (g *EthGateway) RecordOf(ctx context.Context, id uint64) (*models.NFTRecord, error) {
	out, err := g.call(ctx, "", methodRecord, new(big.Int).SetUint64(id))
	if err != nil {
		return nil, err
	}
	if len(out) != 6 {
		return nil, fmt.Errorf("%s: unexpected output count %d", methodRecord, len(out))
	}

	t := nftTuple{
		Id:     *abi.ConvertType(out[0], new(*big.Int)).(**big.Int),
		Uri:    *abi.ConvertType(out[1], new(string)).(*string),
		Price:  *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
		Owner:  *abi.ConvertType(out[3], new(ethcommon.Address)).(*ethcommon.Address),
		Seller: *abi.ConvertType(out[4], new(ethcommon.Address)).(*ethcommon.Address),
		Listed: *abi.ConvertType(out[5], new(bool)).(*bool),
	}

	// the mapping getter answers zero values for ids that were never
	// minted or were deleted
	if t.Id == nil || t.Id.Sign() == 0 {
		r := models.NFTRecord{ID: id, PriceWei: new(big.Int)}
		return &r, nil
	}

	r, err := t.record()
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (g *EthGateway) TotalSupply(ctx context.Context) (uint64, error) {
	out, err := g.call(ctx, "", methodTotalSupply)
	if err != nil {
		return 0, err
	}
	return tokenID(*abi.ConvertType(out[0], new(*big.Int)).(**big.Int))
}

func (g *EthGateway) Mint(ctx context.Context, from, uri string) (PendingTx, error) {
	return g.transact(ctx, from, nil, methodMint, uri)
}

func (g *EthGateway) ListForSale(ctx context.Context, from string, id uint64, priceWei, feeWei *big.Int) (PendingTx, error) {
	return g.transact(ctx, from, feeWei, methodList, new(big.Int).SetUint64(id), priceWei)
}

func (g *EthGateway) UpdatePrice(ctx context.Context, from string, id uint64, priceWei *big.Int) (PendingTx, error) {
	return g.transact(ctx, from, nil, methodUpdatePrice, new(big.Int).SetUint64(id), priceWei)
}

func (g *EthGateway) Unlist(ctx context.Context, from string, id uint64) (PendingTx, error) {
	return g.transact(ctx, from, nil, methodUnlist, new(big.Int).SetUint64(id))
}

func (g *EthGateway) Buy(ctx context.Context, from string, id uint64, priceWei *big.Int) (PendingTx, error) {
	return g.transact(ctx, from, priceWei, methodBuy, new(big.Int).SetUint64(id))
}

func (g *EthGateway) DeleteRecord(ctx context.Context, from string, id uint64) (PendingTx, error) {
	return g.transact(ctx, from, nil, methodDelete, new(big.Int).SetUint64(id))
}

// transact packs the call, estimates gas as account from and hands the
// request to the wallet for signing as that same account.
func (g *EthGateway) transact(ctx context.Context, account string, value *big.Int, method string, args ...any) (PendingTx, error) {
	if g.signer == nil || !ethcommon.IsHexAddress(account) {
		return nil, fmt.Errorf("%s: %w", method, common.ErrNotConnected)
	}
	from := ethcommon.HexToAddress(account)

	data, err := g.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: pack: %w", method, err)
	}

	msg := ethereum.CallMsg{From: from, To: &g.address, Value: value, Data: data}
	gas, err := g.backend.EstimateGas(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, estimateError(err))
	}
	gas = gas * gasMarginPercent / 100

	hash, err := g.signer.SendTransaction(ctx, wallet.TxRequest{
		From:  from,
		To:    g.address,
		Data:  data,
		Value: value,
		Gas:   gas,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	g.log.Debug(ctx, "transaction submitted", "method", method, "tx", hash.Hex(), "gas", gas)
	return &pendingTx{hash: hash, backend: g.backend, interval: g.pollInterval, log: g.log}, nil
}

// estimateError separates a contract refusing the call from the node being
// unreachable.
func estimateError(err error) error {
	if common.IsServerError(err) {
		return fmt.Errorf("%w: %w", common.ErrEstimationFailure, err)
	}
	return common.FromRPC(err)
}

func readError(err error) error {
	if errors.Is(err, bind.ErrNoCode) {
		return fmt.Errorf("%w: %w", common.ErrNetwork, err)
	}
	return common.FromRPC(err)
}
