package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/client/wallet"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

var (
	contractAddr = ethcommon.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	alice        = ethcommon.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	bob          = ethcommon.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
)

type rpcErr struct {
	code int
	msg  string
}

func (e *rpcErr) Error() string  { return e.msg }
func (e *rpcErr) ErrorCode() int { return e.code }

// fakeBackend answers contract calls from handlers keyed by method name.
type fakeBackend struct {
	mu          sync.Mutex
	abi         abi.ABI
	handlers    map[string]func(args []any) []any
	calls       []ethereum.CallMsg
	estimateErr error
	estimates   []ethereum.CallMsg
	gas         uint64
	receipts    []receiptAnswer
	receiptHits int
}

type receiptAnswer struct {
	r   *types.Receipt
	err error
}

func (b *fakeBackend) CodeAt(ctx context.Context, contract ethcommon.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (b *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	b.calls = append(b.calls, call)
	b.mu.Unlock()

	method, err := b.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, err
	}
	h, ok := b.handlers[method.Name]
	if !ok {
		return nil, fmt.Errorf("no handler for %s", method.Name)
	}
	return method.Outputs.Pack(h(args)...)
}

func (b *fakeBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.estimates = append(b.estimates, msg)
	if b.estimateErr != nil {
		return 0, b.estimateErr
	}
	return b.gas, nil
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, hash ethcommon.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.receiptHits >= len(b.receipts) {
		return nil, ethereum.NotFound
	}
	a := b.receipts[b.receiptHits]
	b.receiptHits++
	return a.r, a.err
}

type fakeSigner struct {
	mu   sync.Mutex
	sent []wallet.TxRequest
	err  error
}

func (s *fakeSigner) SendTransaction(ctx context.Context, tx wallet.TxRequest) (ethcommon.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return ethcommon.Hash{}, s.err
	}
	s.sent = append(s.sent, tx)
	return ethcommon.BigToHash(big.NewInt(int64(len(s.sent)))), nil
}

func newTestGateway(t *testing.T) (*EthGateway, *fakeBackend, *fakeSigner) {
	t.Helper()

	parsed, err := LoadABI("")
	require.NoError(t, err)

	backend := &fakeBackend{abi: parsed, handlers: map[string]func([]any) []any{}, gas: 100_000}
	signer := &fakeSigner{}

	g, err := NewEthGateway(GatewayOptions{
		Address:             contractAddr.Hex(),
		ABI:                 parsed,
		Backend:             backend,
		Signer:              signer,
		ReceiptPollInterval: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	return g, backend, signer
}

func receiptWithStatus(status uint64, block int64) receiptAnswer {
	return receiptAnswer{r: &types.Receipt{Status: status, BlockNumber: big.NewInt(block), GasUsed: 42_000}}
}

var errDial = errors.New("dial tcp 127.0.0.1:8545: connect: connection refused")
