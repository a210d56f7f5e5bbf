package split

import "github.com/vishal-ch336/divido/internal/money"

// =============================================================================
// EQUAL SPLIT STRATEGY
// Divides the expense equally among all participants
// =============================================================================

// EqualStrategy implements the Strategy interface for equal splits
type EqualStrategy struct{}

// Policy returns the split policy identifier
func (s *EqualStrategy) Policy() Policy {
	return PolicyEqual
}

// Validate checks if the inputs are valid for an equal split
func (s *EqualStrategy) Validate(amount money.Cents, participants []Participant) error {
	if len(participants) == 0 {
		return ErrNoParticipants
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Calculate divides the amount evenly among all participants. When the
// amount does not divide exactly, the leftover minor units go to the first
// participants in input order.
func (s *EqualStrategy) Calculate(amount money.Cents, participants []Participant) ([]Share, error) {
	if err := s.Validate(amount, participants); err != nil {
		return nil, err
	}

	n := money.Cents(len(participants))
	base := amount / n

	shares := make([]Share, len(participants))
	for i, p := range participants {
		shares[i] = Share{
			UserID: p.UserID,
			Amount: base,
		}
	}
	distributeRemainder(shares, amount)

	return shares, nil
}
