package wallet

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// codedErr is returned by the fake services; the rpc server encodes its code
// into the JSON error object.
type codedErr struct {
	code int
	msg  string
}

func (e codedErr) Error() string  { return e.msg }
func (e codedErr) ErrorCode() int { return e.code }

// fakeWallet is the state behind the in-process wallet server.
type fakeWallet struct {
	mu         sync.Mutex
	accounts   []ethcommon.Address
	authorized bool
	requestErr error
	permErr    error
	sendErr    error
	balances   map[ethcommon.Address]*big.Int
	sent       []sendTxArgs
	prompts    int
	permCalls  int
}

func (w *fakeWallet) setAccounts(a ...ethcommon.Address) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.accounts = a
}

type ethAPI struct{ w *fakeWallet }

func (a *ethAPI) RequestAccounts() ([]ethcommon.Address, error) {
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	a.w.prompts++
	if a.w.requestErr != nil {
		return nil, a.w.requestErr
	}
	a.w.authorized = true
	return a.w.accounts, nil
}

func (a *ethAPI) Accounts() ([]ethcommon.Address, error) {
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	if !a.w.authorized {
		return []ethcommon.Address{}, nil
	}
	return a.w.accounts, nil
}

func (a *ethAPI) GetBalance(addr ethcommon.Address, block string) (*hexutil.Big, error) {
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	b, ok := a.w.balances[addr]
	if !ok {
		b = new(big.Int)
	}
	return (*hexutil.Big)(b), nil
}

func (a *ethAPI) SendTransaction(args sendTxArgs) (ethcommon.Hash, error) {
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	if a.w.sendErr != nil {
		return ethcommon.Hash{}, a.w.sendErr
	}
	a.w.sent = append(a.w.sent, args)
	return ethcommon.BigToHash(big.NewInt(int64(len(a.w.sent)))), nil
}

type walletAPI struct{ w *fakeWallet }

func (a *walletAPI) RequestPermissions(params map[string]any) ([]map[string]any, error) {
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	a.w.permCalls++
	if a.w.permErr != nil {
		return nil, a.w.permErr
	}
	return []map[string]any{{"parentCapability": "eth_accounts"}}, nil
}

// plainNodeAPI mimics a dev node: accounts are unlocked and there is no
// eth_requestAccounts.
type plainNodeAPI struct{ w *fakeWallet }

func (a *plainNodeAPI) Accounts() ([]ethcommon.Address, error) {
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	return a.w.accounts, nil
}

func newTestProvider(t *testing.T, services map[string]any) *RPCProvider {
	t.Helper()

	srv := rpc.NewServer()
	for name, svc := range services {
		require.NoError(t, srv.RegisterName(name, svc))
	}
	t.Cleanup(srv.Stop)

	p := NewRPCProvider(rpc.DialInProc(srv), 10*time.Millisecond, nil)
	t.Cleanup(p.Close)
	return p
}

func walletServices(w *fakeWallet) map[string]any {
	return map[string]any{"eth": &ethAPI{w: w}, "wallet": &walletAPI{w: w}}
}
