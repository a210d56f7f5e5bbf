package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/vishal-ch336/divido/internal/money"
)

// EntryKind identifies the event that caused a balance mutation
type EntryKind string

const (
	EntryExpenseApplied      EntryKind = "expense_applied"
	EntryExpenseReversed     EntryKind = "expense_reversed"
	EntrySettlementConfirmed EntryKind = "settlement_confirmed"
)

// Entry is an immutable record of one balance mutation. The current balance
// of a member is the fold of all adjustments that ever touched them, which
// makes reversal a matter of writing an inverse entry.
type Entry struct {
	ID          string       `json:"id"`
	GroupID     int64        `json:"group_id"`
	Kind        EntryKind    `json:"kind"`
	RefID       int64        `json:"ref_id"` // expense or settlement ID
	Adjustments []Adjustment `json:"adjustments"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Adjustment is a signed balance delta for one member
type Adjustment struct {
	UserID int64       `json:"user_id"`
	Delta  money.Cents `json:"delta"`
}

// MemberBalance is one member's signed running balance within a group.
// Positive means the group owes the member; negative means the member owes
// the group.
type MemberBalance struct {
	UserID  int64       `json:"user_id"`
	Balance money.Cents `json:"balance"`
}

// newEntry builds an entry for the given event
func newEntry(groupID int64, kind EntryKind, refID int64, adjustments []Adjustment) Entry {
	return Entry{
		ID:          uuid.NewString(),
		GroupID:     groupID,
		Kind:        kind,
		RefID:       refID,
		Adjustments: adjustments,
		CreatedAt:   time.Now().UTC(),
	}
}

// Validate ensures the entry keeps the group balance sum at zero: every
// entry must carry at least one adjustment and its deltas must cancel out.
func (e *Entry) Validate() error {
	if len(e.Adjustments) == 0 {
		return ErrEmptyEntry
	}

	var sum money.Cents
	for _, a := range e.Adjustments {
		sum += a.Delta
	}
	if sum != 0 {
		return ErrUnbalancedEntry
	}

	return nil
}
