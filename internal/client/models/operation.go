package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OpKind string

const (
	OpMint        OpKind = "mint"
	OpList        OpKind = "list"
	OpUnlist      OpKind = "unlist"
	OpUpdatePrice OpKind = "updatePrice"
	OpBuy         OpKind = "buy"
	OpDelete      OpKind = "delete"
)

// OpKey identifies an in-flight operation. Mint has no target and always
// uses TargetID 0.
type OpKey struct {
	Kind     OpKind
	TargetID uint64
}

func (k OpKey) String() string {
	if k.Kind == OpMint {
		return string(k.Kind)
	}
	return fmt.Sprintf("%s(%d)", k.Kind, k.TargetID)
}

// PendingOperation exists between submission and resolution only.
type PendingOperation struct {
	ID          uuid.UUID
	Key         OpKey
	SubmittedAt time.Time
	TxHash      string
}

func NewPendingOperation(key OpKey, now time.Time) PendingOperation {
	return PendingOperation{ID: uuid.New(), Key: key, SubmittedAt: now}
}

// TxResult describes a confirmed operation.
type TxResult struct {
	OpID        uuid.UUID
	Key         OpKey
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
	// CacheStale is set when the post-confirmation refresh failed; the
	// mutation itself succeeded.
	CacheStale bool
}
