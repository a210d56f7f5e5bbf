package expense

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vishal-ch336/divido/internal/money"
	"github.com/vishal-ch336/divido/internal/split"
)

// Common errors
var (
	ErrExpenseNotFound      = errors.New("expense not found")
	ErrNotMember            = errors.New("all parties must be members of the group")
	ErrInvalidDescription   = errors.New("description is required and must be at most 200 characters")
	ErrInvalidCategory      = errors.New("category is required")
	ErrInvalidPaymentMethod = errors.New("payment method must be cash, upi or card")
)

// Store is the persistence surface the service needs
type Store interface {
	CreateExpenseWithSplits(ctx context.Context, expense *Expense, splits []*Split) error
	UpdateExpenseWithSplits(ctx context.Context, expense *Expense, splits []*Split) error
	GetExpenseByID(ctx context.Context, id int64) (*Expense, error)
	GetSplitsByExpenseID(ctx context.Context, expenseID int64) ([]*Split, error)
	ListByGroup(ctx context.Context, groupID int64, limit, offset int) ([]*Expense, int, error)
	DeleteExpense(ctx context.Context, id int64) error
}

// Memberships answers group membership checks
type Memberships interface {
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
}

// Ledger applies and reverses the balance effect of an expense
type Ledger interface {
	ApplyExpense(ctx context.Context, groupID, expenseID, payerID int64, shares []split.Share) error
	ReverseExpense(ctx context.Context, groupID, expenseID, payerID int64, shares []split.Share) error
	ReplaceExpense(ctx context.Context, groupID, expenseID, oldPayerID int64, oldShares []split.Share, newPayerID int64, newShares []split.Share) error
}

// Service handles expense business logic
type Service struct {
	store       Store
	memberships Memberships
	ledger      Ledger
	factory     *split.Factory
}

// NewService creates a new expense service
func NewService(store Store, memberships Memberships, ledger Ledger, factory *split.Factory) *Service {
	return &Service{
		store:       store,
		memberships: memberships,
		ledger:      ledger,
		factory:     factory,
	}
}

// CreateExpense validates the request, computes the splits, persists the
// expense and applies its balance effect. The splits are consumed by the
// ledger exactly once, here.
func (s *Service) CreateExpense(ctx context.Context, actorID int64, req *CreateExpenseRequest) (*ExpenseWithSplits, error) {
	payerID := actorID
	if req.PayerID != nil {
		payerID = *req.PayerID
	}

	expense, splits, err := s.buildExpense(ctx, req.GroupID, payerID, &buildInput{
		Description:   req.Description,
		Amount:        money.FromDecimal(req.Amount),
		PaidTo:        req.PaidTo,
		PaymentMethod: req.PaymentMethod,
		Category:      req.Category,
		SplitType:     req.SplitType,
		Participants:  req.Participants,
		SpentAt:       req.SpentAt,
	})
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, req.GroupID, actorID); err != nil {
		return nil, err
	}

	if err := s.store.CreateExpenseWithSplits(ctx, expense, splits); err != nil {
		return nil, err
	}

	if err := s.ledger.ApplyExpense(ctx, expense.GroupID, expense.ID, expense.PayerID, toShares(splits)); err != nil {
		// Compensate so a failed apply does not leave an orphaned expense.
		if deleteErr := s.store.DeleteExpense(ctx, expense.ID); deleteErr != nil {
			slog.Error("failed to compensate expense after ledger failure",
				"expense_id", expense.ID, "error", deleteErr)
		}
		return nil, err
	}

	return &ExpenseWithSplits{Expense: expense, Splits: splits}, nil
}

// GetExpenseByID retrieves an expense with its splits
func (s *Service) GetExpenseByID(ctx context.Context, actorID, id int64) (*ExpenseWithSplits, error) {
	expense, err := s.store.GetExpenseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, ErrExpenseNotFound
	}

	if err := s.requireMember(ctx, expense.GroupID, actorID); err != nil {
		return nil, err
	}

	splits, err := s.store.GetSplitsByExpenseID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ExpenseWithSplits{Expense: expense, Splits: splits}, nil
}

// ListByGroup retrieves the group's expenses, newest first
func (s *Service) ListByGroup(ctx context.Context, actorID, groupID int64, page, perPage int) ([]*Expense, int, error) {
	if err := s.requireMember(ctx, groupID, actorID); err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.store.ListByGroup(ctx, groupID, perPage, offset)
}

// UpdateExpense amends an expense: the old splits are reversed and the new
// ones applied, so the group's balances stay consistent with what is stored.
func (s *Service) UpdateExpense(ctx context.Context, actorID, id int64, req *UpdateExpenseRequest) (*ExpenseWithSplits, error) {
	existing, err := s.store.GetExpenseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrExpenseNotFound
	}
	if err := s.requireMember(ctx, existing.GroupID, actorID); err != nil {
		return nil, err
	}

	oldSplits, err := s.store.GetSplitsByExpenseID(ctx, id)
	if err != nil {
		return nil, err
	}

	payerID := existing.PayerID
	if req.PayerID != nil {
		payerID = *req.PayerID
	}

	expense, splits, err := s.buildExpense(ctx, existing.GroupID, payerID, &buildInput{
		Description:   req.Description,
		Amount:        money.FromDecimal(req.Amount),
		PaidTo:        req.PaidTo,
		PaymentMethod: req.PaymentMethod,
		Category:      req.Category,
		SplitType:     req.SplitType,
		Participants:  req.Participants,
		SpentAt:       req.SpentAt,
	})
	if err != nil {
		return nil, err
	}
	expense.ID = existing.ID
	expense.CreatedAt = existing.CreatedAt

	if err := s.store.UpdateExpenseWithSplits(ctx, expense, splits); err != nil {
		return nil, err
	}

	if err := s.ledger.ReplaceExpense(ctx, expense.GroupID, expense.ID,
		existing.PayerID, toShares(oldSplits), expense.PayerID, toShares(splits)); err != nil {
		// Restore the old rows so the stored splits keep matching what the
		// balances reflect; otherwise a later delete would reverse splits
		// that were never applied.
		if restoreErr := s.store.UpdateExpenseWithSplits(ctx, existing, oldSplits); restoreErr != nil {
			slog.Error("failed to restore expense after ledger failure",
				"expense_id", expense.ID, "error", restoreErr)
		}
		return nil, err
	}

	return &ExpenseWithSplits{Expense: expense, Splits: splits}, nil
}

// DeleteExpense removes an expense after reversing its balance effect
func (s *Service) DeleteExpense(ctx context.Context, actorID, id int64) error {
	existing, err := s.store.GetExpenseByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrExpenseNotFound
	}
	if err := s.requireMember(ctx, existing.GroupID, actorID); err != nil {
		return err
	}

	splits, err := s.store.GetSplitsByExpenseID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.ledger.ReverseExpense(ctx, existing.GroupID, existing.ID, existing.PayerID, toShares(splits)); err != nil {
		return err
	}

	return s.store.DeleteExpense(ctx, id)
}

type buildInput struct {
	Description   string
	Amount        money.Cents
	PaidTo        *string
	PaymentMethod PaymentMethod
	Category      string
	SplitType     string
	Participants  []split.Participant
	SpentAt       *time.Time
}

func (s *Service) buildExpense(ctx context.Context, groupID, payerID int64, in *buildInput) (*Expense, []*Split, error) {
	if in.Description == "" || len(in.Description) > 200 {
		return nil, nil, ErrInvalidDescription
	}
	if in.Category == "" {
		return nil, nil, ErrInvalidCategory
	}

	method := in.PaymentMethod
	if method == "" {
		method = PaymentMethodCash
	}
	if !ValidPaymentMethod(method) {
		return nil, nil, ErrInvalidPaymentMethod
	}

	policy := in.SplitType
	if policy == "" {
		policy = string(split.PolicyEqual)
	}
	strategy, err := s.factory.CreateFromString(policy)
	if err != nil {
		return nil, nil, err
	}

	if err := s.requireMember(ctx, groupID, payerID); err != nil {
		return nil, nil, err
	}
	for _, p := range in.Participants {
		if err := s.requireMember(ctx, groupID, p.UserID); err != nil {
			return nil, nil, err
		}
	}

	shares, err := strategy.Calculate(in.Amount, in.Participants)
	if err != nil {
		return nil, nil, err
	}

	spentAt := time.Now().UTC()
	if in.SpentAt != nil {
		spentAt = *in.SpentAt
	}

	expense := &Expense{
		GroupID:       groupID,
		PayerID:       payerID,
		Description:   in.Description,
		Amount:        in.Amount,
		PaidTo:        in.PaidTo,
		PaymentMethod: method,
		Category:      in.Category,
		SplitType:     strategy.Policy(),
		SpentAt:       spentAt,
	}

	splits := make([]*Split, len(shares))
	for i, share := range shares {
		splits[i] = &Split{
			UserID:     share.UserID,
			Amount:     share.Amount,
			Percentage: share.Percentage,
			Shares:     share.Shares,
		}
	}

	return expense, splits, nil
}

func (s *Service) requireMember(ctx context.Context, groupID, userID int64) error {
	ok, err := s.memberships.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}
