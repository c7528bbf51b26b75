package config

import (
	"flag"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/client/utils"
	"github.com/dmitrijs2005/gophmarket/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-n string   node JSON-RPC URL
//	-w string   wallet JSON-RPC URL
//	-m string   marketplace contract address
//	-i int      wallet account poll interval in seconds
//	-d string   SQLite database path
//	-l string   log level
//
// Only these flags are looked at (flagx.FilterArgs), so -c/-config and
// anything else on the command line do not interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-n", "-w", "-m", "-i", "-d", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.NodeURL, "n", cfg.NodeURL, "node JSON-RPC URL")
	fs.StringVar(&cfg.WalletURL, "w", cfg.WalletURL, "wallet JSON-RPC URL")
	fs.StringVar(&cfg.ContractAddress, "m", cfg.ContractAddress, "marketplace contract address")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "SQLite database path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	pollInterval := fs.Int("i", int(cfg.AccountPollInterval.Seconds()), "wallet account poll interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if *pollInterval <= 0 {
		panic(fmt.Sprintf("account poll interval must be positive, got %d", *pollInterval))
	}
	cfg.AccountPollInterval = time.Duration(*pollInterval) * time.Second
}

func parseFee(s string) (*big.Int, error) {
	fee, err := utils.ParseEther(s)
	if err != nil {
		return nil, fmt.Errorf("listing_fee: %w", err)
	}
	if fee.Sign() < 0 {
		return nil, fmt.Errorf("listing_fee must not be negative, got %s", s)
	}
	return fee, nil
}
