// Package utils converts between user-facing ether amounts and wei.
// Conversions are exact; no floating point is involved.
package utils

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/ethereum/go-ethereum/params"
)

var weiPerEther = big.NewInt(params.Ether)

// ParseEther parses a decimal ether amount such as "1", "0.01" or "1e-3"
// into wei. Amounts with more precision than one wei are rejected. Negative
// amounts parse; callers decide whether they are acceptable.
func ParseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(s, "/") {
		return nil, fmt.Errorf("%w: %q is not a decimal amount", common.ErrInvalidPrice, s)
	}

	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a decimal amount", common.ErrInvalidPrice, s)
	}

	r.Mul(r, new(big.Rat).SetInt(weiPerEther))
	if !r.IsInt() {
		return nil, fmt.Errorf("%w: %q has more than 18 decimals", common.ErrInvalidPrice, s)
	}

	return new(big.Int).Set(r.Num()), nil
}

// FormatEther renders wei as a decimal ether string without trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	s := new(big.Rat).SetFrac(wei, weiPerEther).FloatString(18)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
