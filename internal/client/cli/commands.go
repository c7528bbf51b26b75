package cli

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dmitrijs2005/gophmarket/internal/client/models"
	"github.com/dmitrijs2005/gophmarket/internal/client/utils"
	"github.com/dmitrijs2005/gophmarket/internal/common"
)

// errUsage is returned for malformed command arguments; the usage line has
// already been printed.
var errUsage = errors.New("usage")

func (a *App) usage(line string) error {
	a.printf("Usage: %s\n", line)
	return errUsage
}

// report prints the message for a failed command and returns err unchanged.
func (a *App) report(op models.OpKind, err error) error {
	return a.reportWithPrice(op, err, nil)
}

func (a *App) reportWithPrice(op models.OpKind, err error, priceWei *big.Int) error {
	if msg := failureMessageWithPrice(op, err, priceWei); msg != "" {
		a.printf("%s\n", msg)
	}
	return err
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid token id %q", s)
	}
	return id, nil
}

func (a *App) Connect(ctx context.Context) error {
	ws, err := a.sessions.Connect(ctx)
	if err != nil {
		return a.report(opConnect, err)
	}
	a.printf("Connected: %s\n", ws.Address)
	if !ws.Persisted {
		a.printf("The session will not be restored on the next start.\n")
	}
	return nil
}

// Reconnect asks the wallet to show its account picker again.
func (a *App) Reconnect(ctx context.Context) error {
	ws, err := a.sessions.ResetConnection(ctx)
	if err != nil {
		return a.report(opConnect, err)
	}
	a.printf("Connected: %s\n", ws.Address)
	return nil
}

func (a *App) Disconnect(ctx context.Context) error {
	if err := a.sessions.Disconnect(ctx); err != nil {
		return a.report(opConnect, err)
	}
	a.printf("Disconnected.\n")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	ws := a.sessions.Current()
	if !ws.Connected {
		a.printf("Wallet:       disconnected\n")
	} else {
		a.printf("Wallet:       %s\n", ws.Address)
		if at, err := a.sessions.ConnectedAt(ctx); err != nil {
			a.log.Warn(ctx, "read connection time", "error", err)
		} else if !at.IsZero() {
			a.printf("Connected:    %s\n", humanize.Time(at))
		}
		bal, err := a.sessions.Balance(ctx)
		if err != nil {
			a.printf("Balance:      unavailable (%s)\n", failureMessage(opStatus, err))
		} else {
			a.printf("Balance:      %s ETH\n", utils.FormatEther(bal))
		}
	}
	a.printf("Listing fee:  %s ETH\n", utils.FormatEther(a.market.ListingFee()))

	built := "never"
	if t := a.views.BuiltAt(); !t.IsZero() {
		built = humanize.Time(t)
	}
	if a.views.Stale() {
		built += " (stale)"
	}
	a.printf("Views built:  %s\n", built)
	a.printf("Pending:      %d\n", len(a.market.Pending()))
	return nil
}

func (a *App) Mint(ctx context.Context, uri string) error {
	if uri == "" {
		return a.report(models.OpMint, common.ErrInvalidURI)
	}
	a.submit(ctx, models.OpMint, nil, func(ctx context.Context) (models.TxResult, error) {
		return a.market.Mint(ctx, uri)
	})
	return nil
}

// List puts an owned token up for sale. The listing fee is sent along.
func (a *App) List(ctx context.Context, args []string) error {
	id, price, err := a.idAndPrice(args, "list <id> <price in ETH>")
	if err != nil {
		return err
	}
	fee := a.market.ListingFee()
	a.printf("Listing NFT %d for %s ETH (fee %s ETH)\n", id, utils.FormatEther(price), utils.FormatEther(fee))
	a.submit(ctx, models.OpList, price, func(ctx context.Context) (models.TxResult, error) {
		return a.market.List(ctx, id, price)
	})
	return nil
}

func (a *App) UpdatePrice(ctx context.Context, args []string) error {
	id, price, err := a.idAndPrice(args, "price <id> <price in ETH>")
	if err != nil {
		return err
	}
	a.submit(ctx, models.OpUpdatePrice, price, func(ctx context.Context) (models.TxResult, error) {
		return a.market.UpdatePrice(ctx, id, price)
	})
	return nil
}

func (a *App) Unlist(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("unlist <id>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return a.usage("unlist <id>")
	}
	a.submit(ctx, models.OpUnlist, nil, func(ctx context.Context) (models.TxResult, error) {
		return a.market.Unlist(ctx, id)
	})
	return nil
}

// Delete removes a token for good after the user confirms.
func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("delete <id>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return a.usage("delete <id>")
	}

	ok, err := Confirm(a.input, fmt.Sprintf("Delete NFT %d? This cannot be undone.", id), a.out)
	if err != nil {
		return err
	}
	if !ok {
		a.printf("Cancelled.\n")
		return nil
	}

	a.submit(ctx, models.OpDelete, nil, func(ctx context.Context) (models.TxResult, error) {
		return a.market.Delete(ctx, id)
	})
	return nil
}

// Buy purchases a listed token. Without an id it buys the token found by
// the last successful search.
func (a *App) Buy(ctx context.Context, args []string) error {
	var rec models.NFTRecord
	switch len(args) {
	case 0:
		found, ok := a.lastFound()
		if !ok {
			return a.usage("buy <id> (or search for a URI first)")
		}
		rec = found
	case 1:
		id, err := parseID(args[0])
		if err != nil {
			return a.usage("buy <id>")
		}
		found, ok := a.findForPurchase(id)
		if !ok {
			a.printf("NFT %d is not listed for sale.\n", id)
			return nil
		}
		rec = found
	default:
		return a.usage("buy <id>")
	}

	if !rec.Listed {
		a.printf("NFT %d is not listed for sale.\n", rec.ID)
		return nil
	}

	a.printf("Buying NFT %d for %s ETH\n", rec.ID, utils.FormatEther(rec.PriceWei))
	a.submit(ctx, models.OpBuy, rec.PriceWei, func(ctx context.Context) (models.TxResult, error) {
		return a.market.Buy(ctx, rec.ID, rec.PriceWei)
	})
	return nil
}

// findForPurchase prefers the browse view and falls back to the last search
// hit, which may be the caller's own listing and so absent from browse.
func (a *App) findForPurchase(id uint64) (models.NFTRecord, bool) {
	if rec, ok := a.views.FindListed(id); ok {
		return rec, true
	}
	if rec, ok := a.lastFound(); ok && rec.ID == id {
		return rec, true
	}
	return models.NFTRecord{}, false
}

func (a *App) idAndPrice(args []string, usage string) (uint64, *big.Int, error) {
	if len(args) != 2 {
		return 0, nil, a.usage(usage)
	}
	id, err := parseID(args[0])
	if err != nil {
		return 0, nil, a.usage(usage)
	}
	price, err := utils.ParseEther(args[1])
	if err != nil || price.Sign() <= 0 {
		return 0, nil, a.report(models.OpList, common.ErrInvalidPrice)
	}
	return id, price, nil
}

// submit runs a write in the background and prints its outcome.
func (a *App) submit(ctx context.Context, op models.OpKind, priceWei *big.Int, fn func(ctx context.Context) (models.TxResult, error)) {
	a.printf("%s started; confirm it in your wallet if asked.\n", opTitle(op))
	a.background(ctx, func(ctx context.Context) {
		res, err := fn(ctx)
		if err != nil {
			_ = a.reportWithPrice(op, err, priceWei)
			return
		}
		a.printf("%s\n", successMessage(res, priceWei))
		a.log.Debug(ctx, "operation confirmed", "op", res.Key.String(), "tx", res.TxHash,
			"block", res.BlockNumber, "gas", humanize.Comma(int64(res.GasUsed)))
	})
}

// Browse prints the tokens for sale, optionally only those priced at or
// below a maximum.
func (a *App) Browse(ctx context.Context, args []string) error {
	records := a.views.Listed()
	if len(args) > 0 {
		maxWei, err := utils.ParseEther(args[0])
		if err != nil {
			return a.report(opBrowse, common.ErrInvalidPrice)
		}
		if records, err = a.views.FilterListed(maxWei); err != nil {
			return a.report(opBrowse, err)
		}
	}
	if len(records) == 0 {
		a.printf("No NFTs for sale.\n")
		return nil
	}
	a.printRecords(records)
	return nil
}

// Mine prints the connected account's inventory.
func (a *App) Mine(ctx context.Context) error {
	if !a.sessions.Current().Connected {
		return a.report(opBrowse, common.ErrNotConnected)
	}
	records := a.views.Owned()
	if len(records) == 0 {
		a.printf("You do not own any NFTs.\n")
		return nil
	}
	a.printRecords(records)
	return nil
}

// Search scans the marketplace for a token minted with exactly uri. The hit
// is remembered so a bare "buy" can purchase it.
func (a *App) Search(ctx context.Context, uri string) error {
	if !a.sessions.Current().Connected {
		return a.report(opSearch, common.ErrNotConnected)
	}
	if uri == "" {
		return a.report(opSearch, common.ErrInvalidURI)
	}

	progress, done := a.searchProgress()
	rec, found, err := a.finder.FindByURI(ctx, uri, progress)
	done()
	if err != nil {
		a.setFound(nil)
		return a.report(opSearch, err)
	}
	if !found {
		a.setFound(nil)
		a.printf("NFT with this URI not found.\n")
		return nil
	}

	a.setFound(&rec)
	a.printRecords([]models.NFTRecord{rec})
	if rec.Listed {
		a.printf("Type 'buy' to purchase it.\n")
	}
	return nil
}

func (a *App) Pending(ctx context.Context) error {
	ops := a.market.Pending()
	if len(ops) == 0 {
		a.printf("No pending operations.\n")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OPERATION\tTX\tSUBMITTED")
	for _, op := range ops {
		tx := op.TxHash
		if tx == "" {
			tx = "awaiting wallet"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", op.Key, tx, humanize.Time(op.SubmittedAt))
	}
	return tw.Flush()
}

// Refresh rebuilds both views and forgets every URI the search memoized.
func (a *App) Refresh(ctx context.Context) error {
	start := time.Now()
	a.finder.Reset()
	if err := a.views.Rebuild(ctx); err != nil {
		return a.report(opBrowse, err)
	}
	a.printf("Views refreshed: %d for sale, %d owned (%s).\n",
		len(a.views.Listed()), len(a.views.Owned()), time.Since(start).Round(time.Millisecond))
	return nil
}

func (a *App) printRecords(records []models.NFTRecord) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tURI\tPRICE (ETH)\tSELLER\tLISTED")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n", r.ID, r.URI, utils.FormatEther(r.PriceWei), shortAddress(r.SellerOrOwner()), r.Listed)
	}
	_ = tw.Flush()
}
