package settlement

import (
	"time"

	"github.com/vishal-ch336/divido/internal/expense"
	"github.com/vishal-ch336/divido/internal/money"
)

// Status represents the lifecycle state of a settlement
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusDisputed  Status = "disputed"
)

// ValidStatus reports whether the status is one of the known values
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusDisputed:
		return true
	}
	return false
}

// Settlement represents a direct repayment between two group members.
// Only a confirmed settlement affects balances; the confirmation is
// recorded exactly once no matter how often it is retried.
type Settlement struct {
	ID            int64                 `json:"id"`
	GroupID       int64                 `json:"group_id"`
	FromUserID    int64                 `json:"from_user_id"` // who pays
	ToUserID      int64                 `json:"to_user_id"`   // who receives
	Amount        money.Cents           `json:"amount"`
	Status        Status                `json:"status"`
	PaymentMethod expense.PaymentMethod `json:"payment_method"`
	Note          *string               `json:"note,omitempty"`
	ConfirmedAt   *time.Time            `json:"confirmed_at,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}
