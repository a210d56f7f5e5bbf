package group

import (
	"context"
	"errors"

	"github.com/vishal-ch336/divido/internal/debt"
	"github.com/vishal-ch336/divido/internal/ledger"
	"github.com/vishal-ch336/divido/internal/money"
)

// Common errors
var (
	ErrGroupNotFound       = errors.New("group not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberAlreadyExists = errors.New("user is already a member of this group")
	ErrNotAuthorized       = errors.New("not authorized to perform this action")
	ErrMemberHasBalance    = errors.New("member balance must be settled before leaving")
)

// BalanceSource provides the current balance vector for a group
type BalanceSource interface {
	Balances(ctx context.Context, groupID int64) ([]ledger.MemberBalance, error)
}

// ExpenseSource provides the raw expense records a group's detail view is
// derived from
type ExpenseSource interface {
	SplitRecords(ctx context.Context, groupID int64) ([]debt.ExpenseRecord, error)
	TotalByGroup(ctx context.Context, groupID int64) (money.Cents, error)
}

// Service handles group business logic
type Service struct {
	repo     *Repository
	balances BalanceSource
	expenses ExpenseSource
}

// NewService creates a new group service
func NewService(repo *Repository, balances BalanceSource, expenses ExpenseSource) *Service {
	return &Service{
		repo:     repo,
		balances: balances,
		expenses: expenses,
	}
}

// Create creates a new group; the repository seats the creator as admin
// with a zero balance in the same transaction
func (s *Service) Create(ctx context.Context, creatorID int64, req *CreateGroupRequest) (*Group, error) {
	return s.repo.Create(ctx, creatorID, req)
}

// GetByID retrieves a group by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Group, error) {
	group, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// List retrieves all groups the user belongs to
func (s *Service) List(ctx context.Context, userID int64) ([]*Group, error) {
	return s.repo.ListByUser(ctx, userID)
}

// GetDetail returns the group with its members, total spend and the
// transaction-derived debt relations, the way the group detail view shows
// them. Gross transaction debt: confirmed settlements are not subtracted
// here, the balances endpoint carries those.
func (s *Service) GetDetail(ctx context.Context, actorID, groupID int64) (*GroupDetailResponse, error) {
	group, err := s.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if err := s.requireMember(ctx, groupID, actorID); err != nil {
		return nil, err
	}

	members, err := s.repo.GetMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	total, err := s.expenses.TotalByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	records, err := s.expenses.SplitRecords(ctx, groupID)
	if err != nil {
		return nil, err
	}

	detail := &GroupDetailResponse{
		GroupResponse: *group.ToResponse(),
		Members:       make([]*MemberResponse, len(members)),
		TotalExpenses: total.String(),
		DebtRelations: relationResponses(debt.PairwiseNet(records)),
	}
	for i, m := range members {
		detail.Members[i] = m.ToResponse()
	}

	return detail, nil
}

// Delete removes a group and everything hanging off it. Admin only.
func (s *Service) Delete(ctx context.Context, actorID, groupID int64) error {
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, groupID)
}

// AddMember adds a user to the group with a zero starting balance. Admin only.
func (s *Service) AddMember(ctx context.Context, actorID, groupID int64, req *AddMemberRequest) (*Member, error) {
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetMember(ctx, groupID, req.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrMemberAlreadyExists
	}

	role := req.Role
	if role == "" {
		role = MemberRoleMember
	}

	return s.repo.AddMember(ctx, groupID, req.UserID, role)
}

// RemoveMember removes a user from the group. Admin only, and the member
// must be fully settled: removing a nonzero balance would break the group's
// zero-sum invariant.
func (s *Service) RemoveMember(ctx context.Context, actorID, groupID, userID int64) error {
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		return err
	}

	member, err := s.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrMemberNotFound
	}
	if member.Balance != 0 {
		return ErrMemberHasBalance
	}

	return s.repo.RemoveMember(ctx, groupID, userID)
}

// Balances returns the current balance of every member
func (s *Service) Balances(ctx context.Context, actorID, groupID int64) ([]*BalanceResponse, error) {
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, groupID, actorID); err != nil {
		return nil, err
	}

	balances, err := s.balances.Balances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return balanceResponses(balances), nil
}

// Summary returns the caller's position within the group
func (s *Service) Summary(ctx context.Context, actorID, groupID int64) (*SummaryResponse, error) {
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, groupID, actorID); err != nil {
		return nil, err
	}

	balances, err := s.balances.Balances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	var own, owed, owe money.Cents
	for _, b := range balances {
		if b.UserID == actorID {
			own = b.Balance
			if b.Balance > 0 {
				owed = b.Balance
			} else {
				owe = -b.Balance
			}
		}
	}

	total, err := s.expenses.TotalByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return &SummaryResponse{
		Balance:       own.String(),
		YouAreOwed:    owed.String(),
		YouOwe:        owe.String(),
		TotalExpenses: total.String(),
	}, nil
}

func (s *Service) requireMember(ctx context.Context, groupID, userID int64) error {
	ok, err := s.repo.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAuthorized
	}
	return nil
}

func (s *Service) requireAdmin(ctx context.Context, groupID, userID int64) error {
	ok, err := s.repo.IsAdmin(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAuthorized
	}
	return nil
}
