package client

import (
	"fmt"
	"math/big"

	"github.com/dmitrijs2005/gophmarket/internal/client/models"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// nftTuple matches the NFT struct of the contract field by field, as
// produced by the abi decoder.
type nftTuple struct {
	Id     *big.Int
	Uri    string
	Price  *big.Int
	Owner  ethcommon.Address
	Seller ethcommon.Address
	Listed bool
}

func (t nftTuple) record() (models.NFTRecord, error) {
	id, err := tokenID(t.Id)
	if err != nil {
		return models.NFTRecord{}, err
	}

	price := new(big.Int)
	if t.Price != nil {
		price.Set(t.Price)
	}

	r := models.NFTRecord{
		ID:       id,
		URI:      t.Uri,
		PriceWei: price,
		Owner:    addressString(t.Owner),
		Seller:   addressString(t.Seller),
		Listed:   t.Listed,
	}
	return r, nil
}

func tokenID(v *big.Int) (uint64, error) {
	if v == nil || v.Sign() < 0 || !v.IsUint64() {
		return 0, fmt.Errorf("token id %v out of range", v)
	}
	return v.Uint64(), nil
}

func addressString(a ethcommon.Address) string {
	if a == (ethcommon.Address{}) {
		return ""
	}
	return a.Hex()
}
