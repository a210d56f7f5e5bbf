package expense

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vishal-ch336/divido/internal/money"
	"github.com/vishal-ch336/divido/internal/split"
)

// PaymentMethod represents how an expense was paid
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodUPI  PaymentMethod = "upi"
	PaymentMethodCard PaymentMethod = "card"
)

// ValidPaymentMethod reports whether the method is one of the known values
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodUPI, PaymentMethodCard:
		return true
	}
	return false
}

// Expense represents an expense in the system. Immutable for ledger
// purposes: amending one means reversing the old splits and applying the
// new ones.
type Expense struct {
	ID            int64         `json:"id"`
	GroupID       int64         `json:"group_id"`
	PayerID       int64         `json:"payer_id"`
	Description   string        `json:"description"`
	Amount        money.Cents   `json:"amount"`
	PaidTo        *string       `json:"paid_to,omitempty"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Category      string        `json:"category"`
	SplitType     split.Policy  `json:"split_type"`
	SpentAt       time.Time     `json:"spent_at"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Split represents one participant's owed portion of an expense
type Split struct {
	ID         int64            `json:"id"`
	ExpenseID  int64            `json:"expense_id"`
	UserID     int64            `json:"user_id"`
	Amount     money.Cents      `json:"amount"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
	Shares     *int64           `json:"shares,omitempty"`
}

// ExpenseWithSplits combines an expense with its splits
type ExpenseWithSplits struct {
	Expense *Expense
	Splits  []*Split
}

// toShares converts persisted splits back into calculator shares, which is
// what the ledger consumes when reversing an expense
func toShares(splits []*Split) []split.Share {
	shares := make([]split.Share, len(splits))
	for i, s := range splits {
		shares[i] = split.Share{
			UserID:     s.UserID,
			Amount:     s.Amount,
			Percentage: s.Percentage,
			Shares:     s.Shares,
		}
	}
	return shares
}
