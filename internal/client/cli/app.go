package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/client/client"
	"github.com/dmitrijs2005/gophmarket/internal/client/config"
	"github.com/dmitrijs2005/gophmarket/internal/client/models"
	"github.com/dmitrijs2005/gophmarket/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophmarket/internal/client/services"
	"github.com/dmitrijs2005/gophmarket/internal/client/wallet"
	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
)

// listingViews is the part of services.ListingCache the commands read.
type listingViews interface {
	Rebuild(ctx context.Context) error
	Listed() []models.NFTRecord
	Owned() []models.NFTRecord
	FilterListed(maxWei *big.Int) ([]models.NFTRecord, error)
	FindListed(id uint64) (models.NFTRecord, bool)
	Stale() bool
	BuiltAt() time.Time
}

// uriFinder is the part of services.SearchScanner the commands use.
type uriFinder interface {
	FindByURI(ctx context.Context, uri string, progress services.ProgressFunc) (models.NFTRecord, bool, error)
	Reset()
}

type App struct {
	config   *config.Config
	log      logging.Logger
	sessions services.SessionService
	market   services.MarketService
	views    listingViews
	finder   uriFinder
	input    *bufio.Scanner
	out      io.Writer
	progress bool

	foundMu sync.Mutex
	found   *models.NFTRecord

	// jobs tracks marketplace writes running in the background.
	jobs sync.WaitGroup

	closers []func()
}

// NewApp opens the local database, dials the node and the wallet and wires
// the services. A wallet that cannot be reached is not fatal: the client
// starts disconnected and session commands report the wallet as missing.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	a := &App{
		config:   c,
		log:      log,
		out:      os.Stdout,
		progress: stderrIsTerminal(),
	}

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}
	a.onClose(func() { closeDB(db) })

	node, err := client.DialNode(ctx, c.NodeURL)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.onClose(node.Close)

	var provider wallet.Provider
	var signer client.Signer
	rp, err := wallet.Dial(ctx, c.WalletURL, c.AccountPollInterval, log)
	switch {
	case err == nil:
		provider, signer = rp, rp
		a.onClose(rp.Close)
	case errors.Is(err, common.ErrWalletUnavailable):
		log.Warn(ctx, "wallet not reachable, starting disconnected", "url", c.WalletURL, "error", err)
	default:
		a.Close()
		return nil, err
	}

	parsed, err := client.LoadABI(c.ABIPath)
	if err != nil {
		a.Close()
		return nil, err
	}

	session := models.NewSession()
	gateway, err := client.NewEthGateway(client.GatewayOptions{
		Address:             c.ContractAddress,
		ABI:                 parsed,
		Backend:             node,
		Signer:              signer,
		ReceiptPollInterval: c.ReceiptPollInterval,
		Logger:              log,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	scanner, err := services.NewSearchScanner(gateway, c.URICacheSize, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	cache := services.NewListingCache(gateway, session, log)

	a.sessions = services.NewSessionService(provider, metadata.NewSessionStore(db), session, log)
	a.views = cache
	a.finder = scanner
	a.market = services.NewMarketService(services.MarketOptions{
		Gateway:    gateway,
		Sessions:   a.sessions,
		Views:      cache,
		Memo:       scanner,
		ListingFee: c.ListingFeeWei,
		Logger:     log,
	})

	return a, nil
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close waits for background writes and releases connections in reverse
// order of acquisition.
func (a *App) Close() {
	a.jobs.Wait()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func closeDB(db *sql.DB) {
	_ = db.Close()
}

// Run restores the session, starts the account watcher and blocks in the
// REPL until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsubscribe := a.sessions.Subscribe(func(ws models.WalletSession) {
		a.sessionChanged(watchCtx, ws)
	})
	defer unsubscribe()

	if stop, err := a.sessions.Watch(watchCtx); err == nil {
		defer stop()
	} else {
		a.log.Debug(ctx, "account watcher not started", "error", err)
	}

	a.Root(ctx)

	if n := len(a.market.Pending()); n > 0 {
		a.printf("Waiting for %d pending operation(s)...\n", n)
	}
}

// sessionChanged rebuilds the views for the new identity. A failed rebuild
// keeps the previous views, marked stale.
func (a *App) sessionChanged(ctx context.Context, ws models.WalletSession) {
	a.setFound(nil)
	if ws.Connected {
		a.printf("Wallet account: %s\n", ws.Address)
	} else {
		a.printf("Wallet disconnected.\n")
	}
	if err := a.views.Rebuild(ctx); err != nil {
		a.log.Warn(ctx, "rebuild views after session change", "error", err)
	}
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) setFound(rec *models.NFTRecord) {
	a.foundMu.Lock()
	defer a.foundMu.Unlock()
	a.found = rec
}

func (a *App) lastFound() (models.NFTRecord, bool) {
	a.foundMu.Lock()
	defer a.foundMu.Unlock()
	if a.found == nil {
		return models.NFTRecord{}, false
	}
	return *a.found, true
}

// background runs a marketplace write off the REPL goroutine so several
// operations can be pending at once.
func (a *App) background(ctx context.Context, fn func(ctx context.Context)) {
	a.jobs.Add(1)
	go func() {
		defer a.jobs.Done()
		fn(ctx)
	}()
}
