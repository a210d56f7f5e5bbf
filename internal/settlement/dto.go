package settlement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vishal-ch336/divido/internal/expense"
)

// CreateSettlementRequest represents the request to record a repayment
type CreateSettlementRequest struct {
	GroupID       int64                 `json:"group_id" validate:"required"`
	FromUserID    *int64                `json:"from_user_id,omitempty"` // defaults to the caller
	ToUserID      int64                 `json:"to_user_id" validate:"required"`
	Amount        decimal.Decimal       `json:"amount" validate:"required"`
	PaymentMethod expense.PaymentMethod `json:"payment_method"`
	Note          *string               `json:"note,omitempty"`
}

// SettlementResponse represents the response for a settlement
type SettlementResponse struct {
	ID            int64                 `json:"id"`
	GroupID       int64                 `json:"group_id"`
	FromUserID    int64                 `json:"from_user_id"`
	ToUserID      int64                 `json:"to_user_id"`
	Amount        string                `json:"amount"`
	Status        Status                `json:"status"`
	PaymentMethod expense.PaymentMethod `json:"payment_method"`
	Note          *string               `json:"note,omitempty"`
	ConfirmedAt   *string               `json:"confirmed_at,omitempty"`
	CreatedAt     string                `json:"created_at"`
}

// SuggestionResponse is one proposed repayment from the settlement planner
type SuggestionResponse struct {
	FromUserID int64  `json:"from_user_id"`
	ToUserID   int64  `json:"to_user_id"`
	Amount     string `json:"amount"`
}

// ToResponse converts a Settlement model to a SettlementResponse DTO
func (s *Settlement) ToResponse() *SettlementResponse {
	resp := &SettlementResponse{
		ID:            s.ID,
		GroupID:       s.GroupID,
		FromUserID:    s.FromUserID,
		ToUserID:      s.ToUserID,
		Amount:        s.Amount.String(),
		Status:        s.Status,
		PaymentMethod: s.PaymentMethod,
		Note:          s.Note,
		CreatedAt:     s.CreatedAt.UTC().Format(time.RFC3339),
	}
	if s.ConfirmedAt != nil {
		confirmed := s.ConfirmedAt.UTC().Format(time.RFC3339)
		resp.ConfirmedAt = &confirmed
	}
	return resp
}
