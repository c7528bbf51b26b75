package client

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed marketplace.abi.json
var marketplaceABI []byte

// Contract method names.
const (
	methodMint        = "mint"
	methodList        = "listNFTforsale"
	methodUpdatePrice = "updatePrice"
	methodUnlist      = "unlistNFT"
	methodDelete      = "deleteNFT"
	methodBuy         = "buyNFT"
	methodListed      = "getListedNFTs"
	methodMine        = "myNFTs"
	methodRecord      = "nfts"
	methodURI         = "getURI"
	methodTotalSupply = "totalSupply"
)

var requiredMethods = []string{
	methodMint, methodList, methodUpdatePrice, methodUnlist, methodDelete, methodBuy,
	methodListed, methodMine, methodRecord, methodURI, methodTotalSupply,
}

// LoadABI returns the marketplace ABI. With an empty path the embedded copy
// is used. Otherwise path may hold either a bare ABI array or a compiler
// artifact with an "abi" field.
func LoadABI(path string) (abi.ABI, error) {
	data := marketplaceABI
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return abi.ABI{}, fmt.Errorf("read abi: %w", err)
		}
		if data, err = artifactABI(raw); err != nil {
			return abi.ABI{}, err
		}
	}

	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse abi: %w", err)
	}

	for _, m := range requiredMethods {
		if _, ok := parsed.Methods[m]; !ok {
			return abi.ABI{}, fmt.Errorf("abi is missing method %s", m)
		}
	}
	return parsed, nil
}

func artifactABI(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, nil
	}

	var artifact struct {
		ABI json.RawMessage `json:"abi"`
	}
	if err := json.Unmarshal(trimmed, &artifact); err != nil {
		return nil, fmt.Errorf("parse artifact: %w", err)
	}
	if len(artifact.ABI) == 0 {
		return nil, fmt.Errorf("artifact has no abi field")
	}
	return artifact.ABI, nil
}
