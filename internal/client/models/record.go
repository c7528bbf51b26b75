// Package models contains the client-side domain types: the wallet session,
// marketplace records and in-flight operations.
package models

import "math/big"

// NFTRecord mirrors one token entry of the marketplace contract. PriceWei is
// in the smallest currency unit and is never nil for records produced by the
// gateway.
type NFTRecord struct {
	ID       uint64
	URI      string
	PriceWei *big.Int
	Owner    string
	Seller   string
	Listed   bool
}

// SellerOrOwner returns the address that would receive payment for the
// record: the seller when one is recorded, the owner otherwise.
func (r NFTRecord) SellerOrOwner() string {
	if r.Seller != "" && !isZeroAddress(r.Seller) {
		return r.Seller
	}
	return r.Owner
}

// Valid reports whether the record satisfies listed => price > 0.
func (r NFTRecord) Valid() bool {
	if !r.Listed {
		return true
	}
	return r.PriceWei != nil && r.PriceWei.Sign() > 0
}

func isZeroAddress(addr string) bool {
	n := NormalizeAddress(addr)
	if len(n) > 2 && n[:2] == "0x" {
		n = n[2:]
	}
	for _, c := range n {
		if c != '0' {
			return false
		}
	}
	return true
}
