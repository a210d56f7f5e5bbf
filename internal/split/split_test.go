package split

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishal-ch336/divido/internal/money"
)

func pct(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func shareCount(n int64) *int64 {
	return &n
}

func amounts(shares []Share) []money.Cents {
	out := make([]money.Cents, len(shares))
	for i, s := range shares {
		out[i] = s.Amount
	}
	return out
}

func sum(shares []Share) money.Cents {
	var total money.Cents
	for _, s := range shares {
		total += s.Amount
	}
	return total
}

func TestEqualStrategy_Calculate(t *testing.T) {
	tests := []struct {
		name         string
		amount       money.Cents
		participants []Participant
		want         []money.Cents
		wantErr      error
	}{
		{
			name:         "divides exactly",
			amount:       3000,
			participants: []Participant{{UserID: 1}, {UserID: 2}, {UserID: 3}},
			want:         []money.Cents{1000, 1000, 1000},
		},
		{
			name:         "remainder goes to first participants in order",
			amount:       10000,
			participants: []Participant{{UserID: 1}, {UserID: 2}, {UserID: 3}},
			want:         []money.Cents{3334, 3333, 3333},
		},
		{
			name:         "single participant takes everything",
			amount:       999,
			participants: []Participant{{UserID: 7}},
			want:         []money.Cents{999},
		},
		{
			name:         "amount smaller than participant count",
			amount:       2,
			participants: []Participant{{UserID: 1}, {UserID: 2}, {UserID: 3}},
			want:         []money.Cents{1, 1, 0},
		},
		{
			name:    "no participants",
			amount:  1000,
			wantErr: ErrNoParticipants,
		},
		{
			name:         "zero amount",
			amount:       0,
			participants: []Participant{{UserID: 1}},
			wantErr:      ErrInvalidAmount,
		},
		{
			name:         "negative amount",
			amount:       -100,
			participants: []Participant{{UserID: 1}},
			wantErr:      ErrInvalidAmount,
		},
	}

	strategy := &EqualStrategy{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := strategy.Calculate(tt.amount, tt.participants)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, amounts(shares))
			assert.Equal(t, tt.amount, sum(shares))
		})
	}
}

func TestPercentageStrategy_Calculate(t *testing.T) {
	tests := []struct {
		name         string
		amount       money.Cents
		participants []Participant
		want         []money.Cents
		wantErr      error
	}{
		{
			name:   "forty thirty thirty",
			amount: 3200,
			participants: []Participant{
				{UserID: 1, Percentage: pct("40")},
				{UserID: 2, Percentage: pct("30")},
				{UserID: 3, Percentage: pct("30")},
			},
			want: []money.Cents{1280, 960, 960},
		},
		{
			name:   "thirds leave remainder at the front",
			amount: 1000,
			participants: []Participant{
				{UserID: 1, Percentage: pct("33.33")},
				{UserID: 2, Percentage: pct("33.33")},
				{UserID: 3, Percentage: pct("33.34")},
			},
			want: []money.Cents{334, 333, 333},
		},
		{
			name:   "missing percentage counts as zero",
			amount: 1000,
			participants: []Participant{
				{UserID: 1, Percentage: pct("100")},
				{UserID: 2},
			},
			want: []money.Cents{1000, 0},
		},
		{
			name:   "sum within tolerance is accepted",
			amount: 1000,
			participants: []Participant{
				{UserID: 1, Percentage: pct("50.005")},
				{UserID: 2, Percentage: pct("49.999")},
			},
			want: []money.Cents{501, 499},
		},
		{
			name:   "sum off by more than tolerance",
			amount: 1000,
			participants: []Participant{
				{UserID: 1, Percentage: pct("60")},
				{UserID: 2, Percentage: pct("30")},
			},
			wantErr: ErrInvalidPercentages,
		},
		{
			name:   "negative percentage",
			amount: 1000,
			participants: []Participant{
				{UserID: 1, Percentage: pct("-10")},
				{UserID: 2, Percentage: pct("110")},
			},
			wantErr: ErrPercentageOutOfRange,
		},
		{
			name:   "percentage above one hundred",
			amount: 1000,
			participants: []Participant{
				{UserID: 1, Percentage: pct("150")},
			},
			wantErr: ErrPercentageOutOfRange,
		},
		{
			name:    "no participants",
			amount:  1000,
			wantErr: ErrNoParticipants,
		},
	}

	strategy := &PercentageStrategy{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := strategy.Calculate(tt.amount, tt.participants)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, amounts(shares))
			assert.Equal(t, tt.amount, sum(shares))
		})
	}
}

func TestShareStrategy_Calculate(t *testing.T) {
	tests := []struct {
		name         string
		amount       money.Cents
		participants []Participant
		want         []money.Cents
		wantErr      error
	}{
		{
			name:   "proportional to share counts",
			amount: 6000,
			participants: []Participant{
				{UserID: 1, Shares: shareCount(2)},
				{UserID: 2, Shares: shareCount(1)},
				{UserID: 3, Shares: shareCount(2)},
				{UserID: 4, Shares: shareCount(1)},
			},
			want: []money.Cents{2000, 1000, 2000, 1000},
		},
		{
			name:   "remainder goes to first participants in order",
			amount: 1000,
			participants: []Participant{
				{UserID: 1, Shares: shareCount(1)},
				{UserID: 2, Shares: shareCount(1)},
				{UserID: 3, Shares: shareCount(1)},
			},
			want: []money.Cents{334, 333, 333},
		},
		{
			name:   "missing share count means zero shares",
			amount: 900,
			participants: []Participant{
				{UserID: 1, Shares: shareCount(3)},
				{UserID: 2},
			},
			want: []money.Cents{900, 0},
		},
		{
			name:   "all zero shares",
			amount: 1000,
			participants: []Participant{
				{UserID: 1, Shares: shareCount(0)},
				{UserID: 2},
			},
			wantErr: ErrInvalidShares,
		},
		{
			name:   "negative share count",
			amount: 1000,
			participants: []Participant{
				{UserID: 1, Shares: shareCount(-1)},
				{UserID: 2, Shares: shareCount(2)},
			},
			wantErr: ErrNegativeShares,
		},
		{
			name:    "no participants",
			amount:  1000,
			wantErr: ErrNoParticipants,
		},
	}

	strategy := &ShareStrategy{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := strategy.Calculate(tt.amount, tt.participants)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, amounts(shares))
			assert.Equal(t, tt.amount, sum(shares))
		})
	}
}

func TestFactory_Create(t *testing.T) {
	factory := NewFactory()

	for _, policy := range []Policy{PolicyEqual, PolicyPercentage, PolicyShare} {
		strategy, err := factory.Create(policy)
		require.NoError(t, err)
		assert.Equal(t, policy, strategy.Policy())
	}

	_, err := factory.CreateFromString("exact")
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestCalculate_PayerAppearsInOutput(t *testing.T) {
	// The payer is never filtered out; netting against the payer credit
	// happens when the ledger applies the shares.
	strategy := &EqualStrategy{}
	shares, err := strategy.Calculate(900, []Participant{{UserID: 1}, {UserID: 2}, {UserID: 3}})
	require.NoError(t, err)

	ids := make([]int64, len(shares))
	for i, s := range shares {
		ids[i] = s.UserID
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)
}
