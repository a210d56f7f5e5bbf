package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishal-ch336/divido/internal/ledger"
	"github.com/vishal-ch336/divido/internal/money"
)

type fakeStore struct {
	settlements map[int64]*Settlement
	nextID      int64

	updateFailures int // upcoming UpdateStatus calls fail with updateErr
	updateErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{settlements: make(map[int64]*Settlement), nextID: 1}
}

func (f *fakeStore) Create(ctx context.Context, s *Settlement) error {
	s.ID = f.nextID
	s.CreatedAt = time.Now().UTC()
	f.nextID++
	copied := *s
	f.settlements[s.ID] = &copied
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*Settlement, error) {
	s, ok := f.settlements[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id int64, from, to Status, confirmedAt *time.Time) (bool, error) {
	if f.updateFailures > 0 {
		f.updateFailures--
		return false, f.updateErr
	}
	s, ok := f.settlements[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	if confirmedAt != nil {
		s.ConfirmedAt = confirmedAt
	}
	return true, nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID int64, groupID *int64, status *Status, limit, offset int) ([]*Settlement, int, error) {
	var out []*Settlement
	for _, s := range f.settlements {
		if s.FromUserID != userID && s.ToUserID != userID {
			continue
		}
		if groupID != nil && s.GroupID != *groupID {
			continue
		}
		if status != nil && s.Status != *status {
			continue
		}
		copied := *s
		out = append(out, &copied)
	}
	return out, len(out), nil
}

// fakeMemberships: only group 1 exists; it has members 1, 2, 3 and user 1
// is the admin.
type fakeMemberships struct{}

func (fakeMemberships) GroupExists(ctx context.Context, groupID int64) (bool, error) {
	return groupID == 1, nil
}

func (fakeMemberships) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	return groupID == 1 && userID >= 1 && userID <= 3, nil
}

func (fakeMemberships) IsAdmin(ctx context.Context, groupID, userID int64) (bool, error) {
	return groupID == 1 && userID == 1, nil
}

type fakeLedger struct {
	applied  map[int64]bool
	balances []ledger.MemberBalance
	calls    int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{applied: make(map[int64]bool)}
}

func (f *fakeLedger) ApplySettlement(ctx context.Context, groupID, settlementID, fromUserID, toUserID int64, amount money.Cents) error {
	if f.applied[settlementID] {
		return ledger.ErrAlreadyApplied
	}
	f.applied[settlementID] = true
	f.calls++
	return nil
}

func (f *fakeLedger) Balances(ctx context.Context, groupID int64) ([]ledger.MemberBalance, error) {
	return f.balances, nil
}

func newTestService() (*Service, *fakeStore, *fakeLedger) {
	store := newFakeStore()
	led := newFakeLedger()
	return NewService(store, fakeMemberships{}, led), store, led
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestService_Create(t *testing.T) {
	svc, _, led := newTestService()

	s, err := svc.Create(context.Background(), 2, &CreateSettlementRequest{
		GroupID:  1,
		ToUserID: 1,
		Amount:   amount("6.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), s.FromUserID)
	assert.Equal(t, int64(1), s.ToUserID)
	assert.Equal(t, money.Cents(600), s.Amount)
	assert.Equal(t, StatusPending, s.Status)
	assert.Nil(t, s.ConfirmedAt)

	// Recording a settlement must not touch balances.
	assert.Zero(t, led.calls)
}

func TestService_Create_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name    string
		actorID int64
		req     *CreateSettlementRequest
		wantErr error
	}{
		{
			name:    "non positive amount",
			actorID: 2,
			req:     &CreateSettlementRequest{GroupID: 1, ToUserID: 1, Amount: amount("0")},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "self settlement",
			actorID: 2,
			req:     &CreateSettlementRequest{GroupID: 1, ToUserID: 2, Amount: amount("1.00")},
			wantErr: ErrSelfSettlement,
		},
		{
			name:    "receiver not a member",
			actorID: 2,
			req:     &CreateSettlementRequest{GroupID: 1, ToUserID: 9, Amount: amount("1.00")},
			wantErr: ErrNotMember,
		},
		{
			name:    "actor not a member",
			actorID: 9,
			req:     &CreateSettlementRequest{GroupID: 1, ToUserID: 1, Amount: amount("1.00")},
			wantErr: ErrNotMember,
		},
		{
			name:    "unknown payment method",
			actorID: 2,
			req:     &CreateSettlementRequest{GroupID: 1, ToUserID: 1, Amount: amount("1.00"), PaymentMethod: "cheque"},
			wantErr: ErrInvalidPaymentMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.actorID, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Confirm(t *testing.T) {
	svc, store, led := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, 2, &CreateSettlementRequest{
		GroupID: 1, ToUserID: 1, Amount: amount("6.00"),
	})
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, 1, created.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.ConfirmedAt)
	assert.Equal(t, 1, led.calls)

	stored, _ := store.GetByID(ctx, created.ID)
	assert.Equal(t, StatusConfirmed, stored.Status)
}

func TestService_Confirm_OnlyReceiver(t *testing.T) {
	svc, _, led := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, 2, &CreateSettlementRequest{
		GroupID: 1, ToUserID: 1, Amount: amount("6.00"),
	})
	require.NoError(t, err)

	// Neither the payer nor a bystander may confirm.
	for _, actorID := range []int64{2, 3} {
		_, err := svc.Confirm(ctx, actorID, created.ID)
		assert.ErrorIs(t, err, ErrNotReceiver)
	}
	assert.Zero(t, led.calls)
}

func TestService_Confirm_SecondAttemptFails(t *testing.T) {
	svc, _, led := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, 2, &CreateSettlementRequest{
		GroupID: 1, ToUserID: 1, Amount: amount("6.00"),
	})
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, 1, created.ID)
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, 1, created.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusChange)

	// Exactly one balance mutation regardless of retries.
	assert.Equal(t, 1, led.calls)
}

func TestService_Confirm_RecoversFromStatusWriteFailure(t *testing.T) {
	svc, store, led := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, 2, &CreateSettlementRequest{
		GroupID: 1, ToUserID: 1, Amount: amount("6.00"),
	})
	require.NoError(t, err)

	// Balances move but the status write dies before the row is updated.
	store.updateFailures = 1
	store.updateErr = errors.New("connection reset")

	_, err = svc.Confirm(ctx, 1, created.ID)
	require.Error(t, err)

	stuck, _ := store.GetByID(ctx, created.ID)
	assert.Equal(t, StatusPending, stuck.Status)
	assert.Equal(t, 1, led.calls)

	// The next confirm by the receiver finishes the transition without
	// applying the balance effect again.
	confirmed, err := svc.Confirm(ctx, 1, created.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.ConfirmedAt)
	assert.Equal(t, 1, led.calls)
}

func TestService_Create_UnknownGroup(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), 2, &CreateSettlementRequest{
		GroupID: 99, ToUserID: 1, Amount: amount("6.00"),
	})
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestService_Confirm_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Confirm(context.Background(), 1, 404)
	assert.ErrorIs(t, err, ErrSettlementNotFound)
}

func TestService_Dispute(t *testing.T) {
	svc, _, led := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, 2, &CreateSettlementRequest{
		GroupID: 1, ToUserID: 3, Amount: amount("6.00"),
	})
	require.NoError(t, err)

	disputed, err := svc.Dispute(ctx, 1, created.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusDisputed, disputed.Status)
	assert.Zero(t, led.calls)

	// A disputed settlement is terminal for both transitions.
	_, err = svc.Confirm(ctx, 3, created.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusChange)
	_, err = svc.Dispute(ctx, 1, created.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusChange)
}

func TestService_Dispute_AdminOnly(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, 2, &CreateSettlementRequest{
		GroupID: 1, ToUserID: 1, Amount: amount("6.00"),
	})
	require.NoError(t, err)

	for _, actorID := range []int64{2, 3} {
		_, err := svc.Dispute(ctx, actorID, created.ID)
		assert.ErrorIs(t, err, ErrNotAdmin)
	}
}

func TestService_Suggestions(t *testing.T) {
	svc, _, led := newTestService()
	led.balances = []ledger.MemberBalance{
		{UserID: 1, Balance: 2400},
		{UserID: 2, Balance: -1200},
		{UserID: 3, Balance: -1200},
	}

	relations, err := svc.Suggestions(context.Background(), 2, 1)
	require.NoError(t, err)
	require.Len(t, relations, 2)
	assert.Equal(t, int64(1), relations[0].ToUserID)
	assert.Equal(t, money.Cents(1200), relations[0].Amount)

	_, err = svc.Suggestions(context.Background(), 9, 1)
	assert.ErrorIs(t, err, ErrNotMember)
}
