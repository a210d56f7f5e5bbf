package group

import (
	"time"

	"github.com/vishal-ch336/divido/internal/debt"
	"github.com/vishal-ch336/divido/internal/ledger"
)

// CreateGroupRequest represents the request to create a group
type CreateGroupRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Currency    string `json:"currency"`
}

// AddMemberRequest represents the request to add a member to a group
type AddMemberRequest struct {
	UserID int64      `json:"user_id" validate:"required"`
	Role   MemberRole `json:"role"`
}

// GroupResponse represents the response for a group
type GroupResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
	CreatedBy   int64  `json:"created_by"`
	CreatedAt   string `json:"created_at"`
}

// MemberResponse represents the response for a group member
type MemberResponse struct {
	UserID   int64      `json:"user_id"`
	Role     MemberRole `json:"role"`
	Balance  string     `json:"balance"`
	JoinedAt string     `json:"joined_at"`
}

// BalanceResponse is one member's current balance
type BalanceResponse struct {
	UserID  int64  `json:"user_id"`
	Balance string `json:"balance"`
}

// DebtRelationResponse is a derived "who owes whom" relation
type DebtRelationResponse struct {
	FromUserID int64  `json:"from_user_id"`
	ToUserID   int64  `json:"to_user_id"`
	Amount     string `json:"amount"`
}

// GroupDetailResponse combines the group with its members, total spend and
// the transaction-derived debt relations shown on the group detail view
type GroupDetailResponse struct {
	GroupResponse
	Members       []*MemberResponse       `json:"members"`
	TotalExpenses string                  `json:"total_expenses"`
	DebtRelations []*DebtRelationResponse `json:"debt_relations"`
}

// SummaryResponse is the caller's position within a group
type SummaryResponse struct {
	Balance       string `json:"balance"`
	YouAreOwed    string `json:"you_are_owed"`
	YouOwe        string `json:"you_owe"`
	TotalExpenses string `json:"total_expenses"`
}

// ToResponse converts a Group model to a GroupResponse DTO
func (g *Group) ToResponse() *GroupResponse {
	return &GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Currency:    g.Currency,
		CreatedBy:   g.CreatedBy,
		CreatedAt:   g.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToResponse converts a Member model to a MemberResponse DTO
func (m *Member) ToResponse() *MemberResponse {
	return &MemberResponse{
		UserID:   m.UserID,
		Role:     m.Role,
		Balance:  m.Balance.String(),
		JoinedAt: m.JoinedAt.UTC().Format(time.RFC3339),
	}
}

func balanceResponses(balances []ledger.MemberBalance) []*BalanceResponse {
	out := make([]*BalanceResponse, len(balances))
	for i, b := range balances {
		out[i] = &BalanceResponse{UserID: b.UserID, Balance: b.Balance.String()}
	}
	return out
}

func relationResponses(relations []debt.Relation) []*DebtRelationResponse {
	out := make([]*DebtRelationResponse, len(relations))
	for i, r := range relations {
		out[i] = &DebtRelationResponse{
			FromUserID: r.FromUserID,
			ToUserID:   r.ToUserID,
			Amount:     r.Amount.String(),
		}
	}
	return out
}
