package ledger

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrMemberNotFound  = errors.New("member has no balance in this group")
	ErrAlreadyApplied  = errors.New("settlement already applied to balances")
	ErrConflict        = errors.New("concurrent balance update conflict")
	ErrEmptyEntry      = errors.New("ledger entry has no adjustments")
	ErrUnbalancedEntry = errors.New("ledger entry adjustments do not sum to zero")
)

// Store persists group balances and the ledger entry log.
//
// Apply must write the entry and all of its balance adjustments atomically,
// so a partial failure can never leave a group's balance sum away from zero.
// A second settlement_confirmed entry for the same settlement must be
// rejected with ErrAlreadyApplied. Transient write conflicts are reported as
// ErrConflict and retried by the Ledger.
type Store interface {
	Balances(ctx context.Context, groupID int64) ([]MemberBalance, error)
	Apply(ctx context.Context, entry Entry) error
}
