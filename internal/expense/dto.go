package expense

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vishal-ch336/divido/internal/split"
)

// CreateExpenseRequest represents the request to create an expense
type CreateExpenseRequest struct {
	GroupID       int64               `json:"group_id" validate:"required"`
	Description   string              `json:"description" validate:"required,max=200"`
	Amount        decimal.Decimal     `json:"amount" validate:"required"`
	PayerID       *int64              `json:"payer_id,omitempty"` // defaults to the caller
	PaidTo        *string             `json:"paid_to,omitempty"`
	PaymentMethod PaymentMethod       `json:"payment_method"`
	Category      string              `json:"category" validate:"required"`
	SplitType     string              `json:"split_type"`
	Participants  []split.Participant `json:"participants" validate:"required"`
	SpentAt       *time.Time          `json:"spent_at,omitempty"`
}

// UpdateExpenseRequest represents the request to amend an expense
type UpdateExpenseRequest struct {
	Description   string              `json:"description" validate:"required,max=200"`
	Amount        decimal.Decimal     `json:"amount" validate:"required"`
	PayerID       *int64              `json:"payer_id,omitempty"`
	PaidTo        *string             `json:"paid_to,omitempty"`
	PaymentMethod PaymentMethod       `json:"payment_method"`
	Category      string              `json:"category" validate:"required"`
	SplitType     string              `json:"split_type"`
	Participants  []split.Participant `json:"participants" validate:"required"`
	SpentAt       *time.Time          `json:"spent_at,omitempty"`
}

// SplitResponse represents one split line in an expense response
type SplitResponse struct {
	UserID     int64            `json:"user_id"`
	Amount     string           `json:"amount"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
	Shares     *int64           `json:"shares,omitempty"`
}

// ExpenseResponse represents the response for an expense
type ExpenseResponse struct {
	ID            int64            `json:"id"`
	GroupID       int64            `json:"group_id"`
	PayerID       int64            `json:"payer_id"`
	Description   string           `json:"description"`
	Amount        string           `json:"amount"`
	PaidTo        *string          `json:"paid_to,omitempty"`
	PaymentMethod PaymentMethod    `json:"payment_method"`
	Category      string           `json:"category"`
	SplitType     split.Policy     `json:"split_type"`
	SpentAt       string           `json:"spent_at"`
	CreatedAt     string           `json:"created_at"`
	Splits        []*SplitResponse `json:"splits,omitempty"`
}

// ToResponse converts an Expense model to an ExpenseResponse DTO
func (e *Expense) ToResponse() *ExpenseResponse {
	return &ExpenseResponse{
		ID:            e.ID,
		GroupID:       e.GroupID,
		PayerID:       e.PayerID,
		Description:   e.Description,
		Amount:        e.Amount.String(),
		PaidTo:        e.PaidTo,
		PaymentMethod: e.PaymentMethod,
		Category:      e.Category,
		SplitType:     e.SplitType,
		SpentAt:       e.SpentAt.UTC().Format(time.RFC3339),
		CreatedAt:     e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToResponse converts a Split model to a SplitResponse DTO
func (s *Split) ToResponse() *SplitResponse {
	return &SplitResponse{
		UserID:     s.UserID,
		Amount:     s.Amount.String(),
		Percentage: s.Percentage,
		Shares:     s.Shares,
	}
}
