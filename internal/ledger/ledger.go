// Package ledger maintains the authoritative per-member balances for a
// group. Balances are only ever mutated here, through entries that move
// equal and opposite amounts between members, so the sum of balances within
// a group is always exactly zero.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vishal-ch336/divido/internal/money"
	"github.com/vishal-ch336/divido/internal/observability"
	"github.com/vishal-ch336/divido/internal/split"
)

const (
	maxApplyAttempts = 3
	retryBackoff     = 25 * time.Millisecond
)

// Ledger applies balance mutations for expenses and settlements. Mutations
// for the same group are serialized through a per-group lock; store-level
// conflicts are retried transparently.
type Ledger struct {
	store   Store
	metrics *observability.Metrics

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// New creates a Ledger on top of the given store. metrics may be nil.
func New(store Store, metrics *observability.Metrics) *Ledger {
	return &Ledger{
		store:   store,
		metrics: metrics,
		locks:   make(map[int64]*sync.Mutex),
	}
}

// Balances returns the current balance of every member of the group.
// Members that never took part in anything are at zero.
func (l *Ledger) Balances(ctx context.Context, groupID int64) ([]MemberBalance, error) {
	return l.store.Balances(ctx, groupID)
}

// ApplyExpense debits every participant's share and credits the payer with
// the full amount. The payer is not skipped when they are also a
// participant; their own share nets out against the payer credit.
func (l *Ledger) ApplyExpense(ctx context.Context, groupID, expenseID, payerID int64, shares []split.Share) error {
	return l.apply(ctx, newEntry(groupID, EntryExpenseApplied, expenseID, expenseAdjustments(payerID, shares, 1)))
}

// ReverseExpense undoes a previously applied expense by writing the exact
// inverse entry. Used when an expense is edited or deleted.
func (l *Ledger) ReverseExpense(ctx context.Context, groupID, expenseID, payerID int64, shares []split.Share) error {
	return l.apply(ctx, newEntry(groupID, EntryExpenseReversed, expenseID, expenseAdjustments(payerID, shares, -1)))
}

// ReplaceExpense reverses the old splits and applies the new ones under a
// single group lock, so no reader between the two steps can observe a group
// with only half of the amendment applied.
func (l *Ledger) ReplaceExpense(ctx context.Context, groupID, expenseID, oldPayerID int64, oldShares []split.Share, newPayerID int64, newShares []split.Share) error {
	lock := l.groupLock(groupID)
	lock.Lock()
	defer lock.Unlock()

	if err := l.applyLocked(ctx, newEntry(groupID, EntryExpenseReversed, expenseID, expenseAdjustments(oldPayerID, oldShares, -1))); err != nil {
		return err
	}
	return l.applyLocked(ctx, newEntry(groupID, EntryExpenseApplied, expenseID, expenseAdjustments(newPayerID, newShares, 1)))
}

// ApplySettlement discharges debt between two members: the payer's balance
// rises toward zero, the recipient's credit shrinks by the same amount.
// This is the inverse-sign rule relative to an expense. The store applies
// a given settlement at most once; a repeat returns ErrAlreadyApplied.
func (l *Ledger) ApplySettlement(ctx context.Context, groupID, settlementID, fromUserID, toUserID int64, amount money.Cents) error {
	if amount <= 0 {
		return split.ErrInvalidAmount
	}
	adjustments := []Adjustment{
		{UserID: fromUserID, Delta: amount},
		{UserID: toUserID, Delta: -amount},
	}
	return l.apply(ctx, newEntry(groupID, EntrySettlementConfirmed, settlementID, adjustments))
}

func (l *Ledger) apply(ctx context.Context, entry Entry) error {
	lock := l.groupLock(entry.GroupID)
	lock.Lock()
	defer lock.Unlock()
	return l.applyLocked(ctx, entry)
}

func (l *Ledger) applyLocked(ctx context.Context, entry Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	start := time.Now()
	var err error
	for attempt := 1; attempt <= maxApplyAttempts; attempt++ {
		err = l.store.Apply(ctx, entry)
		if err == nil {
			l.metrics.ObserveMutation(string(entry.Kind), time.Since(start))
			slog.Debug("ledger mutation applied",
				"group_id", entry.GroupID,
				"kind", entry.Kind,
				"ref_id", entry.RefID,
				"adjustments", len(entry.Adjustments),
			)
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			break
		}
		l.metrics.ObserveRetry()
		slog.Warn("ledger store conflict, retrying",
			"group_id", entry.GroupID,
			"kind", entry.Kind,
			"attempt", attempt,
		)
		time.Sleep(time.Duration(attempt) * retryBackoff)
	}

	l.metrics.ObserveFailure(string(entry.Kind))
	return err
}

// groupLock returns the mutex serializing mutations for the given group
func (l *Ledger) groupLock(groupID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[groupID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[groupID] = lock
	}
	return lock
}

// expenseAdjustments builds the balance deltas for an expense: minus each
// participant's share, plus the full amount for the payer. sign is 1 to
// apply and -1 to reverse.
func expenseAdjustments(payerID int64, shares []split.Share, sign money.Cents) []Adjustment {
	adjustments := make([]Adjustment, 0, len(shares)+1)
	var total money.Cents
	for _, s := range shares {
		total += s.Amount
		adjustments = append(adjustments, Adjustment{UserID: s.UserID, Delta: -s.Amount * sign})
	}
	adjustments = append(adjustments, Adjustment{UserID: payerID, Delta: total * sign})
	return adjustments
}
