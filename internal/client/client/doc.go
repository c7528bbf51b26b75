// Package client is the chain-facing half of the market client.
//
// # Overview
//
// The package provides:
//  1. The Gateway interface: typed reads (listed inventory, owned ids, token
//     records, URIs, total supply) and writes (mint, list, reprice, unlist,
//     buy, delete) against the marketplace contract.
//  2. EthGateway, a go-ethereum implementation. Reads go through a
//     bind.BoundContract over the node connection. Writes are packed with
//     the contract ABI, estimated against the node as the connected account
//     and signed by the wallet. Each write returns a PendingTx whose Wait
//     polls for the receipt.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Errors wrap the sentinels of package common. Wallet declines surface as
// common.ErrUserRejected, contract refusals as common.ErrEstimationFailure
// (before submission) or common.ErrReverted (after inclusion), and transport
// trouble as common.ErrNetwork.
//
// # Concurrency & Contexts
//
// EthGateway is safe for concurrent use. All operations accept a
// context.Context and honor cancellation.
package client
