package split

import "github.com/vishal-ch336/divido/internal/money"

// =============================================================================
// SHARE SPLIT STRATEGY
// Divides the expense proportionally to integer share counts
// =============================================================================

// ShareStrategy implements the Strategy interface for share-count splits
type ShareStrategy struct{}

// Policy returns the split policy identifier
func (s *ShareStrategy) Policy() Policy {
	return PolicyShare
}

// Validate checks if the inputs are valid for a share split.
// A participant without a share count counts as 0 shares.
func (s *ShareStrategy) Validate(amount money.Cents, participants []Participant) error {
	if len(participants) == 0 {
		return ErrNoParticipants
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}

	var total int64
	for _, p := range participants {
		n := participantShares(p)
		if n < 0 {
			return ErrNegativeShares
		}
		total += n
	}

	if total <= 0 {
		return ErrInvalidShares
	}

	return nil
}

// Calculate divides the amount proportionally to each participant's share
// count, truncating to minor units and assigning the leftover units to the
// first participants in input order so the sum is exact.
func (s *ShareStrategy) Calculate(amount money.Cents, participants []Participant) ([]Share, error) {
	if err := s.Validate(amount, participants); err != nil {
		return nil, err
	}

	var totalShares int64
	for _, p := range participants {
		totalShares += participantShares(p)
	}

	shares := make([]Share, len(participants))
	for i, p := range participants {
		n := participantShares(p)
		shares[i] = Share{
			UserID: p.UserID,
			Amount: money.Cents(int64(amount) * n / totalShares),
			Shares: p.Shares,
		}
	}
	distributeRemainder(shares, amount)

	return shares, nil
}

func participantShares(p Participant) int64 {
	if p.Shares == nil {
		return 0
	}
	return *p.Shares
}
