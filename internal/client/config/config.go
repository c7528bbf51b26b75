package config

import (
	"math/big"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/buildinfo"
	"github.com/dmitrijs2005/gophmarket/internal/client/utils"
)

// Config holds runtime settings for the GophMarket CLI.
//
// Fields:
//   - NodeURL: JSON-RPC endpoint of a chain node, used for reads and receipts.
//   - WalletURL: JSON-RPC endpoint of the wallet that owns accounts and signs.
//   - ContractAddress: marketplace contract; defaults to the build-time value.
//   - ABIPath: optional JSON ABI replacing the embedded one.
//   - ListingFeeWei: fixed fee sent with every listing.
//   - AccountPollInterval: how often the wallet is asked for its accounts.
//   - ReceiptPollInterval: how often a pending transaction's receipt is polled.
//   - DatabasePath: SQLite file holding the persisted session flag.
//   - URICacheSize: entries kept by the search scanner's URI memo.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	NodeURL             string
	WalletURL           string
	ContractAddress     string
	ABIPath             string
	ListingFeeWei       *big.Int
	AccountPollInterval time.Duration
	ReceiptPollInterval time.Duration
	DatabasePath        string
	URICacheSize        int
	LogLevel            string
}

// DefaultListingFee is the bonded amount the marketplace charges per listing.
const DefaultListingFee = "0.01"

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.NodeURL = "http://127.0.0.1:8545"
	c.WalletURL = "http://127.0.0.1:1248"
	c.ContractAddress = buildinfo.ContractAddress
	c.ABIPath = ""
	c.ListingFeeWei = mustParseEther(DefaultListingFee)
	c.AccountPollInterval = 2 * time.Second
	c.ReceiptPollInterval = 1 * time.Second
	c.DatabasePath = "market.db"
	c.URICacheSize = 4096
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file (if given) and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}

func mustParseEther(s string) *big.Int {
	v, err := utils.ParseEther(s)
	if err != nil {
		panic(err)
	}
	return v
}
