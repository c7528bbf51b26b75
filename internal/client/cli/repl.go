package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"unicode"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Connect(ctx context.Context) error
	Reconnect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Status(ctx context.Context) error
	Mint(ctx context.Context, uri string) error
	List(ctx context.Context, args []string) error
	UpdatePrice(ctx context.Context, args []string) error
	Unlist(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Buy(ctx context.Context, args []string) error
	Browse(ctx context.Context, args []string) error
	Mine(ctx context.Context) error
	Search(ctx context.Context, uri string) error
	Pending(ctx context.Context) error
	Refresh(ctx context.Context) error
}

const helpText = `Available commands:
  connect | reconnect | disconnect | status
  mint <uri>                 mint a new NFT
  list <id> <eth>            list an owned NFT for sale (listing fee applies)
  price <id> <eth>           change the price of your listing
  unlist <id>                take your listing off the market
  delete <id>                delete an NFT you own
  buy [id]                   buy a listed NFT, or the last search hit
  browse [max eth]           NFTs for sale, optionally up to a price
  mine                       NFTs you own
  search <uri>               find an NFT by its URI
  pending | refresh | exit`

// runREPL starts a simple read–eval–print loop for the GophMarket CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command and passes the remaining tokens to the handler. Unknown commands
// are reported back to the user. The loop exits on scanner EOF, when the
// user types "exit" or "quit", or when ctx is done.
//
// Handlers print their own outcome, so errors returned to the loop are
// ignored here.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("gm %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := strings.TrimLeftFunc(scanner.Text(), unicode.IsSpace)
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]
		// URIs keep their inner whitespace as typed.
		rest := strings.TrimSpace(line[len(parts[0]):])

		switch cmd {
		case "help", "?":
			printlnFn(helpText)

		case "connect":
			_ = a.Connect(ctx)

		case "reconnect":
			_ = a.Reconnect(ctx)

		case "disconnect":
			_ = a.Disconnect(ctx)

		case "status":
			_ = a.Status(ctx)

		case "mint":
			_ = a.Mint(ctx, rest)

		case "list", "sell":
			_ = a.List(ctx, args)

		case "price":
			_ = a.UpdatePrice(ctx, args)

		case "unlist":
			_ = a.Unlist(ctx, args)

		case "delete":
			_ = a.Delete(ctx, args)

		case "buy":
			_ = a.Buy(ctx, args)

		case "b", "browse":
			_ = a.Browse(ctx, args)

		case "mine":
			_ = a.Mine(ctx)

		case "search":
			_ = a.Search(ctx, rest)

		case "pending":
			_ = a.Pending(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
