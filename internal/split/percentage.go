package split

import (
	"github.com/shopspring/decimal"

	"github.com/vishal-ch336/divido/internal/money"
)

// =============================================================================
// PERCENTAGE SPLIT STRATEGY
// Divides the expense based on specified percentages for each participant
// =============================================================================

var hundred = decimal.NewFromInt(100)

// PercentageStrategy implements the Strategy interface for percentage-based splits
type PercentageStrategy struct{}

// Policy returns the split policy identifier
func (s *PercentageStrategy) Policy() Policy {
	return PolicyPercentage
}

// Validate checks if the inputs are valid for a percentage split.
// A participant without a percentage counts as 0.
func (s *PercentageStrategy) Validate(amount money.Cents, participants []Participant) error {
	if len(participants) == 0 {
		return ErrNoParticipants
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}

	total := decimal.Zero
	for _, p := range participants {
		pct := participantPercentage(p)
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			return ErrPercentageOutOfRange
		}
		total = total.Add(pct)
	}

	if total.Sub(hundred).Abs().GreaterThan(percentageEpsilon) {
		return ErrInvalidPercentages
	}

	return nil
}

// Calculate divides the amount based on each participant's percentage,
// truncating to minor units and assigning the leftover units to the first
// participants in input order so the sum is exact.
func (s *PercentageStrategy) Calculate(amount money.Cents, participants []Participant) ([]Share, error) {
	if err := s.Validate(amount, participants); err != nil {
		return nil, err
	}

	amountCents := decimal.NewFromInt(int64(amount))
	shares := make([]Share, len(participants))
	for i, p := range participants {
		pct := participantPercentage(p)
		raw := amountCents.Mul(pct).Div(hundred)
		shares[i] = Share{
			UserID:     p.UserID,
			Amount:     money.Cents(raw.IntPart()),
			Percentage: p.Percentage,
		}
	}
	distributeRemainder(shares, amount)

	return shares, nil
}

func participantPercentage(p Participant) decimal.Decimal {
	if p.Percentage == nil {
		return decimal.Zero
	}
	return *p.Percentage
}
