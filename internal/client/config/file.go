package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/flagx"
	"gopkg.in/yaml.v3"
)

// FileConfig is the DTO decoded from a JSON or YAML config file. After
// decoding, non-empty values are copied into the runtime Config.
type FileConfig struct {
	NodeURL             string `json:"node_url" yaml:"node_url"`
	WalletURL           string `json:"wallet_url" yaml:"wallet_url"`
	ContractAddress     string `json:"contract_address" yaml:"contract_address"`
	ABIPath             string `json:"abi_path" yaml:"abi_path"`
	ListingFee          string `json:"listing_fee" yaml:"listing_fee"`
	AccountPollInterval string `json:"account_poll_interval" yaml:"account_poll_interval"`
	ReceiptPollInterval string `json:"receipt_poll_interval" yaml:"receipt_poll_interval"`
	DatabasePath        string `json:"database_path" yaml:"database_path"`
	URICacheSize        int    `json:"uri_cache_size" yaml:"uri_cache_size"`
	LogLevel            string `json:"log_level" yaml:"log_level"`
}

// parseFile overlays cfg with the file named by -c/-config. Without the
// flag nothing happens. Read, decode or value errors panic.
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc, err := decodeFile(path, data)
	if err != nil {
		panic(err)
	}

	if err := fc.apply(cfg); err != nil {
		panic(err)
	}
}

func decodeFile(path string, data []byte) (*FileConfig, error) {
	var fc FileConfig

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse yaml config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse json config %s: %w", path, err)
		}
	}

	return &fc, nil
}

func (fc *FileConfig) apply(cfg *Config) error {
	setString(&cfg.NodeURL, fc.NodeURL)
	setString(&cfg.WalletURL, fc.WalletURL)
	setString(&cfg.ContractAddress, fc.ContractAddress)
	setString(&cfg.ABIPath, fc.ABIPath)
	setString(&cfg.DatabasePath, fc.DatabasePath)
	setString(&cfg.LogLevel, fc.LogLevel)

	if fc.URICacheSize > 0 {
		cfg.URICacheSize = fc.URICacheSize
	}

	if fc.ListingFee != "" {
		fee, err := parseFee(fc.ListingFee)
		if err != nil {
			return err
		}
		cfg.ListingFeeWei = fee
	}

	if err := setDuration(&cfg.AccountPollInterval, "account_poll_interval", fc.AccountPollInterval); err != nil {
		return err
	}
	return setDuration(&cfg.ReceiptPollInterval, "receipt_poll_interval", fc.ReceiptPollInterval)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", name, v)
	}
	*dst = d
	return nil
}
