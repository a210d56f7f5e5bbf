package group

import (
	"time"

	"github.com/vishal-ch336/divido/internal/money"
)

// MemberRole represents a member's role within a group
type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

// Group represents an expense-sharing group
type Group struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Currency    string    `json:"currency"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Member represents a user's membership in a group. Balance is the signed
// running total in minor units: positive means the group owes this member,
// negative means this member owes the group. It starts at zero on join and
// is mutated only by the ledger.
type Member struct {
	GroupID  int64       `json:"group_id"`
	UserID   int64       `json:"user_id"`
	Role     MemberRole  `json:"role"`
	Balance  money.Cents `json:"balance"`
	JoinedAt time.Time   `json:"joined_at"`
}
