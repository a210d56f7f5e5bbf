package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishal-ch336/divido/internal/money"
	"github.com/vishal-ch336/divido/internal/split"
)

// memStore is an in-memory Store with the same semantics as the Postgres
// one: atomic entries, balances folded from adjustments, and at-most-once
// settlement application keyed on the settlement ID.
type memStore struct {
	balances    map[int64]map[int64]money.Cents // groupID -> userID -> balance
	entries     []Entry
	settlements map[int64]bool // settlement refIDs already applied

	failures int // upcoming Apply calls fail with failErr
	failErr  error
}

func newMemStore(groupIDs ...int64) *memStore {
	s := &memStore{
		balances:    make(map[int64]map[int64]money.Cents),
		settlements: make(map[int64]bool),
	}
	for _, id := range groupIDs {
		s.balances[id] = make(map[int64]money.Cents)
	}
	return s
}

func (s *memStore) Balances(ctx context.Context, groupID int64) ([]MemberBalance, error) {
	group, ok := s.balances[groupID]
	if !ok {
		return nil, ErrGroupNotFound
	}
	var out []MemberBalance
	for userID, balance := range group {
		out = append(out, MemberBalance{UserID: userID, Balance: balance})
	}
	return out, nil
}

func (s *memStore) Apply(ctx context.Context, entry Entry) error {
	if s.failures > 0 {
		s.failures--
		return s.failErr
	}
	group, ok := s.balances[entry.GroupID]
	if !ok {
		return ErrGroupNotFound
	}
	if entry.Kind == EntrySettlementConfirmed {
		if s.settlements[entry.RefID] {
			return ErrAlreadyApplied
		}
		s.settlements[entry.RefID] = true
	}
	for _, a := range entry.Adjustments {
		group[a.UserID] += a.Delta
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *memStore) balance(groupID, userID int64) money.Cents {
	return s.balances[groupID][userID]
}

func (s *memStore) groupSum(groupID int64) money.Cents {
	var sum money.Cents
	for _, b := range s.balances[groupID] {
		sum += b
	}
	return sum
}

func share(userID int64, amount money.Cents) split.Share {
	return split.Share{UserID: userID, Amount: amount}
}

func TestLedger_ApplyExpense(t *testing.T) {
	store := newMemStore(1)
	l := New(store, nil)

	// User 1 pays 3000, split three ways with the payer participating.
	err := l.ApplyExpense(context.Background(), 1, 10, 1, []split.Share{share(1, 1000), share(2, 1000), share(3, 1000)})
	require.NoError(t, err)

	assert.Equal(t, money.Cents(2000), store.balance(1, 1))
	assert.Equal(t, money.Cents(-1000), store.balance(1, 2))
	assert.Equal(t, money.Cents(-1000), store.balance(1, 3))
	assert.Zero(t, store.groupSum(1))
}

func TestLedger_ApplyExpense_PayerNotParticipating(t *testing.T) {
	store := newMemStore(1)
	l := New(store, nil)

	err := l.ApplyExpense(context.Background(), 1, 10, 1, []split.Share{share(2, 600), share(3, 400)})
	require.NoError(t, err)

	assert.Equal(t, money.Cents(1000), store.balance(1, 1))
	assert.Equal(t, money.Cents(-600), store.balance(1, 2))
	assert.Equal(t, money.Cents(-400), store.balance(1, 3))
	assert.Zero(t, store.groupSum(1))
}

func TestLedger_ReverseExpense(t *testing.T) {
	store := newMemStore(1)
	l := New(store, nil)
	ctx := context.Background()

	expenseShares := []split.Share{share(1, 1100), share(2, 1100), share(3, 1100)}
	require.NoError(t, l.ApplyExpense(ctx, 1, 10, 1, expenseShares))
	require.NoError(t, l.ReverseExpense(ctx, 1, 10, 1, expenseShares))

	for _, userID := range []int64{1, 2, 3} {
		assert.Zero(t, store.balance(1, userID), "user %d", userID)
	}
	assert.Len(t, store.entries, 2)
	assert.Equal(t, EntryExpenseApplied, store.entries[0].Kind)
	assert.Equal(t, EntryExpenseReversed, store.entries[1].Kind)
}

func TestLedger_ReplaceExpense(t *testing.T) {
	store := newMemStore(1)
	l := New(store, nil)
	ctx := context.Background()

	require.NoError(t, l.ApplyExpense(ctx, 1, 10, 1, []split.Share{share(2, 500), share(3, 500)}))

	// Amendment changes the amount, the split and the payer.
	err := l.ReplaceExpense(ctx, 1, 10,
		1, []split.Share{share(2, 500), share(3, 500)},
		2, []split.Share{share(1, 900), share(3, 300)})
	require.NoError(t, err)

	assert.Equal(t, money.Cents(-900), store.balance(1, 1))
	assert.Equal(t, money.Cents(1200), store.balance(1, 2))
	assert.Equal(t, money.Cents(-300), store.balance(1, 3))
	assert.Zero(t, store.groupSum(1))
}

func TestLedger_ApplySettlement(t *testing.T) {
	store := newMemStore(1)
	l := New(store, nil)
	ctx := context.Background()

	require.NoError(t, l.ApplyExpense(ctx, 1, 10, 1, []split.Share{share(2, 600), share(3, 400)}))
	require.NoError(t, l.ApplySettlement(ctx, 1, 77, 2, 1, 600))

	assert.Equal(t, money.Cents(400), store.balance(1, 1))
	assert.Zero(t, store.balance(1, 2))
	assert.Equal(t, money.Cents(-400), store.balance(1, 3))
	assert.Zero(t, store.groupSum(1))
}

func TestLedger_ApplySettlement_ExactlyOnce(t *testing.T) {
	store := newMemStore(1)
	l := New(store, nil)
	ctx := context.Background()

	require.NoError(t, l.ApplySettlement(ctx, 1, 77, 2, 1, 600))

	err := l.ApplySettlement(ctx, 1, 77, 2, 1, 600)
	assert.ErrorIs(t, err, ErrAlreadyApplied)

	// The retry must not have moved balances a second time.
	assert.Equal(t, money.Cents(600), store.balance(1, 1))
	assert.Equal(t, money.Cents(-600), store.balance(1, 2))
}

func TestLedger_ApplySettlement_RejectsNonPositiveAmount(t *testing.T) {
	l := New(newMemStore(1), nil)

	for _, amount := range []money.Cents{0, -100} {
		err := l.ApplySettlement(context.Background(), 1, 77, 2, 1, amount)
		assert.ErrorIs(t, err, split.ErrInvalidAmount)
	}
}

func TestLedger_UnknownGroup(t *testing.T) {
	l := New(newMemStore(1), nil)

	err := l.ApplyExpense(context.Background(), 99, 10, 1, []split.Share{share(2, 100), share(1, 100)})
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestLedger_RetriesConflicts(t *testing.T) {
	store := newMemStore(1)
	store.failures = 2
	store.failErr = ErrConflict
	l := New(store, nil)

	err := l.ApplyExpense(context.Background(), 1, 10, 1, []split.Share{share(2, 100), share(1, 100)})
	require.NoError(t, err)
	assert.Zero(t, store.groupSum(1))
}

func TestLedger_GivesUpAfterMaxAttempts(t *testing.T) {
	store := newMemStore(1)
	store.failures = maxApplyAttempts
	store.failErr = ErrConflict
	l := New(store, nil)

	err := l.ApplyExpense(context.Background(), 1, 10, 1, []split.Share{share(2, 100), share(1, 100)})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Empty(t, store.entries)
}

func TestEntry_Validate(t *testing.T) {
	tests := []struct {
		name        string
		adjustments []Adjustment
		wantErr     error
	}{
		{
			name:        "balanced entry",
			adjustments: []Adjustment{{UserID: 1, Delta: 500}, {UserID: 2, Delta: -500}},
		},
		{
			name:    "no adjustments",
			wantErr: ErrEmptyEntry,
		},
		{
			name:        "deltas do not cancel",
			adjustments: []Adjustment{{UserID: 1, Delta: 500}, {UserID: 2, Delta: -499}},
			wantErr:     ErrUnbalancedEntry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := newEntry(1, EntryExpenseApplied, 10, tt.adjustments)
			err := entry.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
