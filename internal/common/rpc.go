package common

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
)

// JSON-RPC error codes the client reacts to. The 4xxx codes are defined by
// EIP-1193 for wallet providers; 3 is what nodes return for a reverted call.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupportedMethod = 4200
	CodeDisconnected      = 4900
	CodeChainDisconnected = 4901
	CodeExecutionReverted = 3
	CodeMethodNotFound    = -32601
)

// FromRPC maps an error returned by a go-ethereum rpc client onto the
// package sentinels. Errors the server answered with are mapped by code;
// anything else (dial failures, HTTP errors, timeouts) is ErrNetwork. The
// original error stays in the chain.
func FromRPC(err error) error {
	if err == nil {
		return nil
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case CodeUserRejected:
			return fmt.Errorf("%w: %w", ErrUserRejected, err)
		case CodeUnauthorized:
			return fmt.Errorf("%w: %w", ErrNotConnected, err)
		case CodeDisconnected, CodeChainDisconnected:
			return fmt.Errorf("%w: %w", ErrWalletUnavailable, err)
		case CodeExecutionReverted:
			return fmt.Errorf("%w: %w", ErrReverted, err)
		}
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		return fmt.Errorf("%w: %w", ErrReverted, err)
	}

	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

// IsServerError reports whether err carries a JSON-RPC error object, i.e.
// the remote end received and rejected the request.
func IsServerError(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr)
}
