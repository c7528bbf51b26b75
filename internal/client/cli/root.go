package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

// getStatus renders the prompt status: the short wallet address or
// "disconnected", plus the number of operations still in flight.
func (a *App) getStatus() string {
	s := "disconnected"
	if ws := a.sessions.Current(); ws.Connected {
		s = shortAddress(ws.Address)
	}
	if n := len(a.market.Pending()); n > 0 {
		s = fmt.Sprintf("%s, %d pending", s, n)
	}
	if a.views.Stale() {
		s += ", stale"
	}
	return fmt.Sprintf("(%s)", s)
}

func shortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// Root greets the user, silently restores a session approved in an earlier
// run, builds the initial views and hands over to the REPL.
//
// A restored session notifies the session listener, which has already
// rebuilt the views; they are only built here when nothing was restored.
func (a *App) Root(ctx context.Context) {
	a.printf("Welcome to GophMarket CLI (type 'help' for commands)\n")

	ws, err := a.sessions.AutoReconnect(ctx)
	switch {
	case err != nil:
		a.log.Warn(ctx, "auto reconnect", "error", err)
	case ws.Connected:
		a.printf("Reconnected as %s\n", ws.Address)
	}

	if !ws.Connected {
		if err := a.views.Rebuild(ctx); err != nil {
			a.printf("Could not load marketplace listings: %s\n", failureMessage(opBrowse, err))
		}
	}

	if a.input == nil {
		a.input = bufio.NewScanner(os.Stdin)
	}
	runREPL(ctx, a, a.getStatus, a.input)
}
