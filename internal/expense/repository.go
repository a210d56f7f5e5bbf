package expense

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vishal-ch336/divido/internal/debt"
	"github.com/vishal-ch336/divido/internal/money"
)

// Repository handles expense and split data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new expense repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateExpenseWithSplits inserts the expense and all of its splits in one
// transaction and fills in the generated IDs
func (r *Repository) CreateExpenseWithSplits(ctx context.Context, expense *Expense, splits []*Split) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO expenses (group_id, payer_id, description, amount_cents, paid_to, payment_method, category, split_type, spent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err = tx.QueryRowContext(ctx, query,
		expense.GroupID,
		expense.PayerID,
		expense.Description,
		expense.Amount,
		expense.PaidTo,
		expense.PaymentMethod,
		expense.Category,
		expense.SplitType,
		expense.SpentAt,
	).Scan(&expense.ID, &expense.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	if err := r.insertSplits(ctx, tx, expense.ID, splits); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit expense: %w", err)
	}

	return nil
}

// UpdateExpenseWithSplits rewrites the expense row and replaces its splits
// in one transaction
func (r *Repository) UpdateExpenseWithSplits(ctx context.Context, expense *Expense, splits []*Split) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE expenses
		SET payer_id = $2, description = $3, amount_cents = $4, paid_to = $5,
		    payment_method = $6, category = $7, split_type = $8, spent_at = $9
		WHERE id = $1
	`
	result, err := tx.ExecContext(ctx, query,
		expense.ID,
		expense.PayerID,
		expense.Description,
		expense.Amount,
		expense.PaidTo,
		expense.PaymentMethod,
		expense.Category,
		expense.SplitType,
		expense.SpentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrExpenseNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_splits WHERE expense_id = $1`, expense.ID); err != nil {
		return fmt.Errorf("failed to delete old splits: %w", err)
	}

	if err := r.insertSplits(ctx, tx, expense.ID, splits); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit expense update: %w", err)
	}

	return nil
}

func (r *Repository) insertSplits(ctx context.Context, tx *sql.Tx, expenseID int64, splits []*Split) error {
	query := `
		INSERT INTO expense_splits (expense_id, user_id, amount_cents, percentage, shares)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	for _, s := range splits {
		s.ExpenseID = expenseID
		var pct decimal.NullDecimal
		if s.Percentage != nil {
			pct = decimal.NewNullDecimal(*s.Percentage)
		}
		var shares sql.NullInt64
		if s.Shares != nil {
			shares = sql.NullInt64{Int64: *s.Shares, Valid: true}
		}
		if err := tx.QueryRowContext(ctx, query, expenseID, s.UserID, s.Amount, pct, shares).Scan(&s.ID); err != nil {
			return fmt.Errorf("failed to create split: %w", err)
		}
	}
	return nil
}

// GetExpenseByID retrieves an expense by its ID, or nil when it does not exist
func (r *Repository) GetExpenseByID(ctx context.Context, id int64) (*Expense, error) {
	query := `
		SELECT id, group_id, payer_id, description, amount_cents, paid_to, payment_method, category, split_type, spent_at, created_at
		FROM expenses
		WHERE id = $1
	`

	expense := &Expense{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&expense.ID,
		&expense.GroupID,
		&expense.PayerID,
		&expense.Description,
		&expense.Amount,
		&expense.PaidTo,
		&expense.PaymentMethod,
		&expense.Category,
		&expense.SplitType,
		&expense.SpentAt,
		&expense.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return expense, nil
}

// GetSplitsByExpenseID retrieves all splits for an expense
func (r *Repository) GetSplitsByExpenseID(ctx context.Context, expenseID int64) ([]*Split, error) {
	query := `
		SELECT id, expense_id, user_id, amount_cents, percentage, shares
		FROM expense_splits
		WHERE expense_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	var splits []*Split
	for rows.Next() {
		s, err := scanSplit(rows)
		if err != nil {
			return nil, err
		}
		splits = append(splits, s)
	}

	return splits, rows.Err()
}

// ListByGroup retrieves the group's expenses, newest first, with the total count
func (r *Repository) ListByGroup(ctx context.Context, groupID int64, limit, offset int) ([]*Expense, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses WHERE group_id = $1`, groupID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	query := `
		SELECT id, group_id, payer_id, description, amount_cents, paid_to, payment_method, category, split_type, spent_at, created_at
		FROM expenses
		WHERE group_id = $1
		ORDER BY spent_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*Expense
	for rows.Next() {
		expense := &Expense{}
		if err := rows.Scan(
			&expense.ID,
			&expense.GroupID,
			&expense.PayerID,
			&expense.Description,
			&expense.Amount,
			&expense.PaidTo,
			&expense.PaymentMethod,
			&expense.Category,
			&expense.SplitType,
			&expense.SpentAt,
			&expense.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}

	return expenses, total, rows.Err()
}

// DeleteExpense deletes an expense; its splits cascade at the schema level
func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrExpenseNotFound
	}

	return nil
}

// TotalByGroup returns the sum of all expense amounts in the group
func (r *Repository) TotalByGroup(ctx context.Context, groupID int64) (money.Cents, error) {
	var total money.Cents
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE group_id = $1`, groupID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to total expenses: %w", err)
	}
	return total, nil
}

// SplitRecords loads the group's raw expense records in the shape the debt
// resolver consumes
func (r *Repository) SplitRecords(ctx context.Context, groupID int64) ([]debt.ExpenseRecord, error) {
	query := `
		SELECT e.id, e.payer_id, s.user_id, s.amount_cents
		FROM expenses e
		JOIN expense_splits s ON s.expense_id = e.id
		WHERE e.group_id = $1
		ORDER BY e.id, s.id
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load split records: %w", err)
	}
	defer rows.Close()

	var records []debt.ExpenseRecord
	var current *debt.ExpenseRecord
	var currentID int64
	for rows.Next() {
		var expenseID, payerID int64
		var line debt.SplitLine
		if err := rows.Scan(&expenseID, &payerID, &line.UserID, &line.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan split record: %w", err)
		}
		if current == nil || expenseID != currentID {
			records = append(records, debt.ExpenseRecord{PayerID: payerID})
			current = &records[len(records)-1]
			currentID = expenseID
		}
		current.Splits = append(current.Splits, line)
	}

	return records, rows.Err()
}

type splitScanner interface {
	Scan(dest ...any) error
}

func scanSplit(row splitScanner) (*Split, error) {
	s := &Split{}
	var pct decimal.NullDecimal
	var shares sql.NullInt64
	if err := row.Scan(&s.ID, &s.ExpenseID, &s.UserID, &s.Amount, &pct, &shares); err != nil {
		return nil, fmt.Errorf("failed to scan split: %w", err)
	}
	if pct.Valid {
		s.Percentage = &pct.Decimal
	}
	if shares.Valid {
		s.Shares = &shares.Int64
	}
	return s, nil
}
