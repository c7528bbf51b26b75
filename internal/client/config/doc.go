// Package config loads runtime configuration for the GophMarket CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults). The contract address
//     default is the one linked into the binary (package buildinfo).
//  2. Optional config file selected with -c or -config. Files ending in
//     .yaml or .yml are decoded as YAML, anything else as JSON.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-n string   node JSON-RPC URL
//	-w string   wallet JSON-RPC URL
//	-m string   marketplace contract address
//	-i int      wallet account poll interval (seconds)
//	-d string   SQLite database path
//	-l string   log level
//
// # File schema
//
// Durations are strings accepted by time.ParseDuration, the listing fee is a
// decimal ether amount. Empty or missing keys keep the previous value.
//
//	{
//	  "node_url": "http://127.0.0.1:8545",
//	  "wallet_url": "http://127.0.0.1:1248",
//	  "contract_address": "0x5FbDB2315678afecb367f032d93F642f64180aa3",
//	  "abi_path": "",
//	  "listing_fee": "0.01",
//	  "account_poll_interval": "2s",
//	  "receipt_poll_interval": "1s",
//	  "database_path": "market.db",
//	  "uri_cache_size": 4096,
//	  "log_level": "info"
//	}
//
// Invalid files or flag values panic during startup.
package config
