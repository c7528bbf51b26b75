// Package cli provides the interactive GophMarket command-line client.
//
// It wires configuration, the local session store, the Ethereum node and
// wallet connections, and the marketplace services, then runs a REPL.
// Typical flow: restore a previously approved wallet session without
// prompting, build the listing views, follow wallet account changes in the
// background and execute user commands.
//
// Commands:
//   - connect / reconnect / disconnect / status
//   - mint, list, price, unlist, delete, buy
//   - browse (optionally below a maximum price), mine, search
//   - pending, refresh
//
// Marketplace writes run in the background; their outcome is printed when
// the transaction resolves and `pending` shows what is still in flight.
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
