package settlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vishal-ch336/divido/internal/debt"
	"github.com/vishal-ch336/divido/internal/expense"
	"github.com/vishal-ch336/divido/internal/ledger"
	"github.com/vishal-ch336/divido/internal/money"
)

// Common errors
var (
	ErrSettlementNotFound   = errors.New("settlement not found")
	ErrGroupNotFound        = errors.New("group not found")
	ErrNotMember            = errors.New("both parties must be members of the group")
	ErrNotReceiver          = errors.New("only the receiving user can confirm a settlement")
	ErrNotAdmin             = errors.New("only a group admin can dispute a settlement")
	ErrSelfSettlement       = errors.New("payer and receiver must be different users")
	ErrInvalidAmount        = errors.New("settlement amount must be positive")
	ErrInvalidNote          = errors.New("note must be at most 500 characters")
	ErrInvalidPaymentMethod = errors.New("payment method must be cash, upi or card")
	ErrInvalidStatusChange  = errors.New("settlement is not in a state that allows this transition")
)

// Store is the persistence surface the service needs
type Store interface {
	Create(ctx context.Context, s *Settlement) error
	GetByID(ctx context.Context, id int64) (*Settlement, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status, confirmedAt *time.Time) (bool, error)
	ListByUser(ctx context.Context, userID int64, groupID *int64, status *Status, limit, offset int) ([]*Settlement, int, error)
}

// Memberships answers group existence, membership and role checks
type Memberships interface {
	GroupExists(ctx context.Context, groupID int64) (bool, error)
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
	IsAdmin(ctx context.Context, groupID, userID int64) (bool, error)
}

// Ledger applies confirmed settlements and reads balances for suggestions
type Ledger interface {
	ApplySettlement(ctx context.Context, groupID, settlementID, fromUserID, toUserID int64, amount money.Cents) error
	Balances(ctx context.Context, groupID int64) ([]ledger.MemberBalance, error)
}

// Service handles settlement business logic
type Service struct {
	store       Store
	memberships Memberships
	ledger      Ledger
}

// NewService creates a new settlement service
func NewService(store Store, memberships Memberships, ledger Ledger) *Service {
	return &Service{
		store:       store,
		memberships: memberships,
		ledger:      ledger,
	}
}

// Create records a pending settlement. It has no balance effect until the
// receiver confirms it.
func (s *Service) Create(ctx context.Context, actorID int64, req *CreateSettlementRequest) (*Settlement, error) {
	fromUserID := actorID
	if req.FromUserID != nil {
		fromUserID = *req.FromUserID
	}

	amount := money.FromDecimal(req.Amount)
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if fromUserID == req.ToUserID {
		return nil, ErrSelfSettlement
	}
	if req.Note != nil && len(*req.Note) > 500 {
		return nil, ErrInvalidNote
	}

	method := req.PaymentMethod
	if method == "" {
		method = expense.PaymentMethodCash
	}
	if !expense.ValidPaymentMethod(method) {
		return nil, ErrInvalidPaymentMethod
	}

	exists, err := s.memberships.GroupExists(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrGroupNotFound
	}

	for _, userID := range []int64{actorID, fromUserID, req.ToUserID} {
		ok, err := s.memberships.IsMember(ctx, req.GroupID, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotMember
		}
	}

	settlement := &Settlement{
		GroupID:       req.GroupID,
		FromUserID:    fromUserID,
		ToUserID:      req.ToUserID,
		Amount:        amount,
		Status:        StatusPending,
		PaymentMethod: method,
		Note:          req.Note,
	}

	if err := s.store.Create(ctx, settlement); err != nil {
		return nil, err
	}

	return settlement, nil
}

// GetByID retrieves a settlement visible to the actor
func (s *Service) GetByID(ctx context.Context, actorID, id int64) (*Settlement, error) {
	settlement, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if settlement == nil {
		return nil, ErrSettlementNotFound
	}

	ok, err := s.memberships.IsMember(ctx, settlement.GroupID, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}

	return settlement, nil
}

// Confirm marks a pending settlement as confirmed and applies its balance
// effect. Only the receiving user may confirm. The ledger write is keyed on
// the settlement ID, so retries and races cannot apply it twice.
func (s *Service) Confirm(ctx context.Context, actorID, id int64) (*Settlement, error) {
	settlement, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if settlement == nil {
		return nil, ErrSettlementNotFound
	}
	if settlement.ToUserID != actorID {
		return nil, ErrNotReceiver
	}
	if settlement.Status != StatusPending {
		return nil, ErrInvalidStatusChange
	}

	err = s.ledger.ApplySettlement(ctx, settlement.GroupID, settlement.ID,
		settlement.FromUserID, settlement.ToUserID, settlement.Amount)
	if err != nil && !errors.Is(err, ledger.ErrAlreadyApplied) {
		return nil, err
	}
	// ErrAlreadyApplied on a still-pending settlement means an earlier
	// confirm moved the balances but failed before the status row was
	// written. Finishing the pending -> confirmed transition here is the
	// recovery path; the ledger itself never applies twice.

	now := time.Now().UTC()
	updated, err := s.store.UpdateStatus(ctx, id, StatusPending, StatusConfirmed, &now)
	if err != nil {
		slog.Error("settlement applied but status update failed",
			"settlement_id", id, "error", err)
		return nil, err
	}
	if !updated {
		return nil, ErrInvalidStatusChange
	}

	settlement.Status = StatusConfirmed
	settlement.ConfirmedAt = &now
	return settlement, nil
}

// Dispute marks a pending settlement as disputed. Only a group admin may do
// this, and a disputed settlement never touches balances.
func (s *Service) Dispute(ctx context.Context, actorID, id int64) (*Settlement, error) {
	settlement, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if settlement == nil {
		return nil, ErrSettlementNotFound
	}

	ok, err := s.memberships.IsAdmin(ctx, settlement.GroupID, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAdmin
	}
	if settlement.Status != StatusPending {
		return nil, ErrInvalidStatusChange
	}

	updated, err := s.store.UpdateStatus(ctx, id, StatusPending, StatusDisputed, nil)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrInvalidStatusChange
	}

	settlement.Status = StatusDisputed
	return settlement, nil
}

// List retrieves the actor's settlements with optional group and status
// filters
func (s *Service) List(ctx context.Context, actorID int64, groupID *int64, status *Status, page, perPage int) ([]*Settlement, int, error) {
	if status != nil && !ValidStatus(*status) {
		return nil, 0, ErrInvalidStatusChange
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.store.ListByUser(ctx, actorID, groupID, status, perPage, offset)
}

// Suggestions returns a minimal repayment plan for the group's current
// balances
func (s *Service) Suggestions(ctx context.Context, actorID, groupID int64) ([]debt.Relation, error) {
	ok, err := s.memberships.IsMember(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}

	balances, err := s.ledger.Balances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return debt.SettlementPlan(balances), nil
}
