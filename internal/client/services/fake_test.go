package services

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophmarket/internal/client/client"
	"github.com/dmitrijs2005/gophmarket/internal/client/models"
	"github.com/dmitrijs2005/gophmarket/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophmarket/internal/client/utils"
	"github.com/dmitrijs2005/gophmarket/internal/client/wallet"
	"github.com/stretchr/testify/require"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

const (
	alice  = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	bob    = "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"
	escrow = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
)

func ether(s string) *big.Int {
	v, err := utils.ParseEther(s)
	if err != nil {
		panic(err)
	}
	return v
}

// ---- fake marketplace ----

// fakeGateway is an in-memory marketplace. Writes take effect when their
// pending transaction confirms, like on chain.
type fakeGateway struct {
	mu     sync.Mutex
	tokens map[uint64]models.NFTRecord
	supply uint64

	submitErr error
	waitErr   error
	hold      chan struct{}

	submitted []string
	senders   []string
	reads     map[string]int
	listedErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{tokens: map[uint64]models.NFTRecord{}, reads: map[string]int{}}
}

// seed mints a token for owner without going through a transaction.
func (g *fakeGateway) seed(owner, uri string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.supply++
	g.tokens[g.supply] = models.NFTRecord{ID: g.supply, URI: uri, PriceWei: new(big.Int), Owner: owner}
	return g.supply
}

func (g *fakeGateway) seedListing(seller, uri string, price *big.Int) uint64 {
	id := g.seed(seller, uri)
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.tokens[id]
	r.Listed, r.Seller, r.Owner, r.PriceWei = true, seller, escrow, price
	g.tokens[id] = r
	return id
}

func (g *fakeGateway) record(id uint64) models.NFTRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tokens[id]
}

func (g *fakeGateway) submissions() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.submitted)
}

func (g *fakeGateway) signers() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.senders)
}

func (g *fakeGateway) readCount(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reads[name]
}

func (g *fakeGateway) ListedInventory(ctx context.Context) ([]models.NFTRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reads["listed"]++
	if g.listedErr != nil {
		return nil, g.listedErr
	}
	var out []models.NFTRecord
	for id := uint64(1); id <= g.supply; id++ {
		if r, ok := g.tokens[id]; ok && r.Listed {
			out = append(out, r)
		}
	}
	return out, nil
}

func (g *fakeGateway) OwnedIDs(ctx context.Context, owner string) ([]uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reads["owned"]++
	var out []uint64
	for id := uint64(1); id <= g.supply; id++ {
		r, ok := g.tokens[id]
		if ok && (models.SameAddress(r.Owner, owner) || (r.Listed && models.SameAddress(r.Seller, owner))) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (g *fakeGateway) URIOf(ctx context.Context, id uint64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reads["uri"]++
	return g.tokens[id].URI, nil
}

func (g *fakeGateway) RecordOf(ctx context.Context, id uint64) (*models.NFTRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reads["record"]++
	r, ok := g.tokens[id]
	if !ok {
		r = models.NFTRecord{ID: id, PriceWei: new(big.Int)}
	}
	r.PriceWei = new(big.Int).Set(r.PriceWei)
	return &r, nil
}

func (g *fakeGateway) TotalSupply(ctx context.Context) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.supply, nil
}

func (g *fakeGateway) Mint(ctx context.Context, from, uri string) (client.PendingTx, error) {
	return g.submit("mint", from, func(caller string) {
		g.supply++
		g.tokens[g.supply] = models.NFTRecord{ID: g.supply, URI: uri, PriceWei: new(big.Int), Owner: caller}
	})
}

func (g *fakeGateway) ListForSale(ctx context.Context, from string, id uint64, priceWei, feeWei *big.Int) (client.PendingTx, error) {
	return g.submit(fmt.Sprintf("list(%d)", id), from, func(caller string) {
		r := g.tokens[id]
		r.Listed, r.Seller, r.Owner, r.PriceWei = true, caller, escrow, priceWei
		g.tokens[id] = r
	})
}

func (g *fakeGateway) UpdatePrice(ctx context.Context, from string, id uint64, priceWei *big.Int) (client.PendingTx, error) {
	return g.submit(fmt.Sprintf("updatePrice(%d)", id), from, func(string) {
		r := g.tokens[id]
		r.PriceWei = priceWei
		g.tokens[id] = r
	})
}

func (g *fakeGateway) Unlist(ctx context.Context, from string, id uint64) (client.PendingTx, error) {
	return g.submit(fmt.Sprintf("unlist(%d)", id), from, func(string) {
		r := g.tokens[id]
		r.Listed, r.Owner, r.Seller, r.PriceWei = false, r.Seller, "", new(big.Int)
		g.tokens[id] = r
	})
}

func (g *fakeGateway) Buy(ctx context.Context, from string, id uint64, priceWei *big.Int) (client.PendingTx, error) {
	return g.submit(fmt.Sprintf("buy(%d)", id), from, func(caller string) {
		r := g.tokens[id]
		r.Listed, r.Owner, r.Seller, r.PriceWei = false, caller, "", new(big.Int)
		g.tokens[id] = r
	})
}

func (g *fakeGateway) DeleteRecord(ctx context.Context, from string, id uint64) (client.PendingTx, error) {
	return g.submit(fmt.Sprintf("delete(%d)", id), from, func(string) {
		delete(g.tokens, id)
	})
}

func (g *fakeGateway) submit(name, from string, apply func(caller string)) (client.PendingTx, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.submitErr != nil {
		return nil, g.submitErr
	}
	g.submitted = append(g.submitted, name)
	g.senders = append(g.senders, from)
	return &fakePending{g: g, hash: fmt.Sprintf("0x%064x", len(g.submitted)), apply: func() { apply(from) }}, nil
}

type fakePending struct {
	g     *fakeGateway
	hash  string
	apply func()
}

func (p *fakePending) Hash() string { return p.hash }

func (p *fakePending) Wait(ctx context.Context) (*client.Receipt, error) {
	p.g.mu.Lock()
	hold, waitErr := p.g.hold, p.g.waitErr
	p.g.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	r := &client.Receipt{TxHash: p.hash, BlockNumber: 1, GasUsed: 21000}
	if waitErr != nil {
		return r, waitErr
	}

	p.g.mu.Lock()
	p.apply()
	p.g.mu.Unlock()
	return r, nil
}

// ---- fake wallet ----

type fakeWallet struct {
	mu          sync.Mutex
	accounts    []string
	authorized  bool
	requestErr  error
	permErr     error
	accountsErr error
	balances    map[string]*big.Int
	prompts     int
	permCalls   int
	onChange    func([]string)
	onBalance   func(address string)
}

var _ wallet.Provider = (*fakeWallet)(nil)

func (w *fakeWallet) RequestAccounts(ctx context.Context) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prompts++
	if w.requestErr != nil {
		return nil, w.requestErr
	}
	w.authorized = true
	return slices.Clone(w.accounts), nil
}

func (w *fakeWallet) Accounts(ctx context.Context) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.accountsErr != nil {
		return nil, w.accountsErr
	}
	if !w.authorized {
		return nil, nil
	}
	return slices.Clone(w.accounts), nil
}

func (w *fakeWallet) Balance(ctx context.Context, address string) (*big.Int, error) {
	w.mu.Lock()
	hook := w.onBalance
	w.mu.Unlock()
	if hook != nil {
		hook(address)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.balances[strings.ToLower(address)]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (w *fakeWallet) setBalance(address string, v *big.Int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.balances == nil {
		w.balances = map[string]*big.Int{}
	}
	w.balances[strings.ToLower(address)] = v
}

func (w *fakeWallet) RequestPermissions(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.permCalls++
	return w.permErr
}

func (w *fakeWallet) SendTransaction(ctx context.Context, tx wallet.TxRequest) (ethcommon.Hash, error) {
	return ethcommon.Hash{}, nil
}

func (w *fakeWallet) SubscribeAccounts(ctx context.Context, fn func([]string)) (func(), error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.onChange = nil
	}, nil
}

// emit simulates the wallet switching accounts.
func (w *fakeWallet) emit(accounts ...string) {
	w.mu.Lock()
	w.accounts = accounts
	fn := w.onChange
	w.mu.Unlock()
	if fn != nil {
		fn(accounts)
	}
}

func (w *fakeWallet) promptCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.prompts
}

func (w *fakeWallet) Close() {}

// ---- wiring ----

func newStore(t *testing.T) *metadata.SessionStore {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return metadata.NewSessionStore(db)
}

type harness struct {
	session  *models.Session
	wallet   *fakeWallet
	store    *metadata.SessionStore
	sessions SessionService
	gateway  *fakeGateway
	cache    *ListingCache
	scanner  *SearchScanner
	market   MarketService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{session: models.NewSession(), wallet: &fakeWallet{}, store: newStore(t)}
	h.sessions = NewSessionService(h.wallet, h.store, h.session, nil)
	h.gateway = newFakeGateway()
	h.cache = NewListingCache(h.gateway, h.session, nil)

	var err error
	h.scanner, err = NewSearchScanner(h.gateway, 64, nil)
	require.NoError(t, err)

	h.market = NewMarketService(MarketOptions{
		Gateway:    h.gateway,
		Sessions:   h.sessions,
		Views:      h.cache,
		Memo:       h.scanner,
		ListingFee: ether("0.01"),
	})
	return h
}

// connectAs connects the harness session as address.
func (h *harness) connectAs(t *testing.T, address string) {
	t.Helper()
	h.wallet.mu.Lock()
	h.wallet.accounts = []string{address}
	h.wallet.mu.Unlock()
	_, err := h.sessions.Connect(context.Background())
	require.NoError(t, err)
}
