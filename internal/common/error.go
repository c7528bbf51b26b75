// Package common defines the error taxonomy shared by the wallet transport,
// the contract gateway and the client services. Callers match values with
// errors.Is, or reduce an error to a Kind with Classify when they only need
// to decide how to present it.
package common

import (
	"errors"
	"fmt"
)

var (
	// Wallet-level errors.
	ErrUserRejected      = errors.New("user rejected the request")
	ErrWalletUnavailable = errors.New("wallet unavailable")
	ErrNotConnected      = errors.New("wallet not connected")

	// Locally detected precondition failures. Nothing is submitted when one
	// of these is returned.
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrInvalidURI        = errors.New("invalid uri")
	ErrSelfPurchase      = errors.New("cannot buy own token")
	ErrOperationInFlight = errors.New("operation already in flight")
	ErrAccountChanged    = errors.New("wallet account changed during the operation")

	// Contract-level rejections.
	ErrReverted          = errors.New("transaction reverted")
	ErrEstimationFailure = fmt.Errorf("%w: gas estimation failed", ErrReverted)

	// Connectivity or provider failure.
	ErrNetwork = errors.New("network error")
)

// Kind is a coarse classification of an operation outcome.
type Kind int

const (
	KindNone Kind = iota
	KindUserRejected
	KindWalletUnavailable
	KindNotConnected
	KindInsufficientFunds
	KindInvalidPrice
	KindInvalidURI
	KindSelfPurchase
	KindInFlight
	KindAccountChanged
	KindEstimationFailure
	KindReverted
	KindNetwork
	KindUnknown
)

var kindNames = map[Kind]string{
	KindNone:              "none",
	KindUserRejected:      "user_rejected",
	KindWalletUnavailable: "wallet_unavailable",
	KindNotConnected:      "not_connected",
	KindInsufficientFunds: "insufficient_funds",
	KindInvalidPrice:      "invalid_price",
	KindInvalidURI:        "invalid_uri",
	KindSelfPurchase:      "self_purchase",
	KindInFlight:          "in_flight",
	KindAccountChanged:    "account_changed",
	KindEstimationFailure: "estimation_failure",
	KindReverted:          "reverted",
	KindNetwork:           "network",
	KindUnknown:           "unknown",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// classification order matters: ErrEstimationFailure wraps ErrReverted.
var kindTable = []struct {
	err  error
	kind Kind
}{
	{ErrUserRejected, KindUserRejected},
	{ErrWalletUnavailable, KindWalletUnavailable},
	{ErrNotConnected, KindNotConnected},
	{ErrInsufficientFunds, KindInsufficientFunds},
	{ErrInvalidPrice, KindInvalidPrice},
	{ErrInvalidURI, KindInvalidURI},
	{ErrSelfPurchase, KindSelfPurchase},
	{ErrOperationInFlight, KindInFlight},
	{ErrAccountChanged, KindAccountChanged},
	{ErrEstimationFailure, KindEstimationFailure},
	{ErrReverted, KindReverted},
	{ErrNetwork, KindNetwork},
}

// Classify reduces err to its Kind. A nil error is KindNone; an error that
// does not wrap any of the package sentinels is KindUnknown.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, e := range kindTable {
		if errors.Is(err, e.err) {
			return e.kind
		}
	}
	return KindUnknown
}

// IsPrecondition reports whether err is a locally detected failure, i.e. one
// returned before anything was submitted.
func IsPrecondition(err error) bool {
	switch Classify(err) {
	case KindInsufficientFunds, KindInvalidPrice, KindInvalidURI, KindSelfPurchase, KindInFlight, KindAccountChanged, KindNotConnected:
		return true
	}
	return false
}
