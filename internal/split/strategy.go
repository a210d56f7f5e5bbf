package split

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vishal-ch336/divido/internal/money"
)

// Policy defines how an expense amount is apportioned among participants
type Policy string

const (
	PolicyEqual      Policy = "equal"
	PolicyPercentage Policy = "percentage"
	PolicyShare      Policy = "share"
)

// Participant is one member taking part in a split, with the weight the
// policy needs. A missing weight is treated as zero.
type Participant struct {
	UserID     int64            `json:"user_id"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"` // percentage policy
	Shares     *int64           `json:"shares,omitempty"`     // share policy
}

// Share is the calculated portion owed by a single participant. Every
// participant appears in the output, the payer included; the payer's own
// share nets out against the payer credit when the ledger applies it.
type Share struct {
	UserID     int64            `json:"user_id"`
	Amount     money.Cents      `json:"amount"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
	Shares     *int64           `json:"shares,omitempty"`
}

// Strategy is the interface that all split policies implement
type Strategy interface {
	// Calculate computes the owed amount for every participant.
	// The returned shares always sum exactly to amount.
	Calculate(amount money.Cents, participants []Participant) ([]Share, error)

	// Policy returns the policy identifier for this strategy
	Policy() Policy

	// Validate checks if the inputs are valid for this strategy
	Validate(amount money.Cents, participants []Participant) error
}

// Factory creates split strategies based on the requested policy
type Factory struct{}

// NewFactory creates a new factory instance
func NewFactory() *Factory {
	return &Factory{}
}

// Create returns the strategy implementation for the given policy
func (f *Factory) Create(policy Policy) (Strategy, error) {
	switch policy {
	case PolicyEqual:
		return &EqualStrategy{}, nil
	case PolicyPercentage:
		return &PercentageStrategy{}, nil
	case PolicyShare:
		return &ShareStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, policy)
	}
}

// CreateFromString creates a strategy from a string policy (useful for API requests)
func (f *Factory) CreateFromString(policy string) (Strategy, error) {
	return f.Create(Policy(policy))
}

var (
	ErrUnknownPolicy        = errors.New("unknown split policy")
	ErrNoParticipants       = errors.New("at least one participant is required")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidPercentages   = errors.New("percentages must sum to 100")
	ErrPercentageOutOfRange = errors.New("percentage must be between 0 and 100")
	ErrInvalidShares        = errors.New("total shares must be greater than zero")
	ErrNegativeShares       = errors.New("share counts cannot be negative")
)

// percentageEpsilon is the tolerance on the percentage sum; inputs come from
// clients that may carry float dust.
var percentageEpsilon = decimal.NewFromFloat(0.01)

// distributeRemainder spreads the difference between the target amount and
// the current share total across the shares, one minor unit at a time in
// stable input order, so the final sum is exact.
func distributeRemainder(shares []Share, target money.Cents) {
	total := money.Cents(0)
	for _, s := range shares {
		total += s.Amount
	}

	step := money.Cents(1)
	if total > target {
		step = -1
	}
	for i := 0; total != target; i = (i + 1) % len(shares) {
		shares[i].Amount += step
		total += step
	}
}
