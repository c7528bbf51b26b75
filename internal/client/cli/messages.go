package cli

import (
	"fmt"
	"math/big"

	"github.com/dmitrijs2005/gophmarket/internal/client/models"
	"github.com/dmitrijs2005/gophmarket/internal/client/utils"
	"github.com/dmitrijs2005/gophmarket/internal/common"
)

// Operations that only exist on the command line.
const (
	opConnect models.OpKind = "connect"
	opBrowse  models.OpKind = "browse"
	opSearch  models.OpKind = "search"
	opStatus  models.OpKind = "status"
)

var opTitles = map[models.OpKind]string{
	models.OpMint:        "Minting",
	models.OpList:        "Listing",
	models.OpUnlist:      "Unlisting",
	models.OpUpdatePrice: "Price update",
	models.OpBuy:         "Purchase",
	models.OpDelete:      "Delete",
	opConnect:            "Wallet connection",
	opBrowse:             "Loading listings",
	opSearch:             "Search",
	opStatus:             "Status",
}

func opTitle(op models.OpKind) string {
	if t, ok := opTitles[op]; ok {
		return t
	}
	return string(op)
}

// failureMessage turns an operation error into the line shown to the user.
// A rejection in the wallet is the user's own decision and yields "".
func failureMessage(op models.OpKind, err error) string {
	return failureMessageWithPrice(op, err, nil)
}

// failureMessageWithPrice is failureMessage for operations whose funds check
// can name the amount needed.
func failureMessageWithPrice(op models.OpKind, err error, priceWei *big.Int) string {
	switch common.Classify(err) {
	case common.KindNone, common.KindUserRejected:
		return ""
	case common.KindWalletUnavailable:
		return "No wallet found. Start a wallet that exposes JSON-RPC and point -w at it."
	case common.KindNotConnected:
		if op == models.OpBuy {
			return "Please connect your wallet to buy (type 'connect')."
		}
		return "Please connect your wallet first (type 'connect')."
	case common.KindInvalidPrice:
		if op == opBrowse {
			return "Maximum price must be positive."
		}
		return "Enter a valid price."
	case common.KindInvalidURI:
		return "Please enter a URI."
	case common.KindSelfPurchase:
		return "You cannot buy your own NFT."
	case common.KindInsufficientFunds:
		if op == models.OpBuy && priceWei != nil {
			return fmt.Sprintf("Insufficient ETH balance. You need at least %s ETH.", utils.FormatEther(priceWei))
		}
		return "Insufficient ETH balance."
	case common.KindInFlight:
		return fmt.Sprintf("%s is already in progress.", opTitle(op))
	case common.KindAccountChanged:
		return fmt.Sprintf("%s cancelled: your wallet switched accounts. Check and try again.", opTitle(op))
	case common.KindEstimationFailure:
		if op == models.OpMint {
			return "Minting failed: this NFT may have already been minted."
		}
		return fmt.Sprintf("%s failed: the marketplace rejected the transaction.", opTitle(op))
	case common.KindReverted:
		return fmt.Sprintf("%s failed: the transaction reverted.", opTitle(op))
	case common.KindNetwork:
		return fmt.Sprintf("%s failed: network error, try again.", opTitle(op))
	}
	return fmt.Sprintf("%s failed: %s", opTitle(op), err)
}

// successMessage describes a confirmed write.
func successMessage(res models.TxResult, priceWei *big.Int) string {
	var msg string
	switch res.Key.Kind {
	case models.OpMint:
		msg = "NFT minted successfully!"
	case models.OpList:
		msg = fmt.Sprintf("NFT %d listed for %s ETH!", res.Key.TargetID, utils.FormatEther(priceWei))
	case models.OpUpdatePrice:
		msg = fmt.Sprintf("Price of NFT %d updated to %s ETH!", res.Key.TargetID, utils.FormatEther(priceWei))
	case models.OpUnlist:
		msg = fmt.Sprintf("NFT %d unlisted!", res.Key.TargetID)
	case models.OpBuy:
		msg = fmt.Sprintf("NFT %d purchased!", res.Key.TargetID)
	case models.OpDelete:
		msg = fmt.Sprintf("NFT %d deleted!", res.Key.TargetID)
	default:
		msg = fmt.Sprintf("%s confirmed.", res.Key)
	}
	if res.CacheStale {
		msg += " Views could not be refreshed; type 'refresh'."
	}
	return msg
}
