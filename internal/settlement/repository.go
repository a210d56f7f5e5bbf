package settlement

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vishal-ch336/divido/internal/money"
)

// Repository handles database operations for settlements
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new settlement repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new pending settlement
func (r *Repository) Create(ctx context.Context, s *Settlement) error {
	query := `
		INSERT INTO settlements (group_id, from_user_id, to_user_id, amount_cents, status, payment_method, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		s.GroupID, s.FromUserID, s.ToUserID, int64(s.Amount), s.Status, s.PaymentMethod, s.Note,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create settlement: %w", err)
	}

	return nil
}

// GetByID retrieves a settlement by ID. Returns nil when not found.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Settlement, error) {
	query := `
		SELECT id, group_id, from_user_id, to_user_id, amount_cents, status, payment_method, note, confirmed_at, created_at
		FROM settlements
		WHERE id = $1`

	s, err := scanSettlement(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	return s, nil
}

// UpdateStatus transitions a settlement from one status to another. The
// current status is part of the predicate so concurrent transitions cannot
// both win.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to Status, confirmedAt *time.Time) (bool, error) {
	query := `
		UPDATE settlements
		SET status = $1, confirmed_at = COALESCE($2, confirmed_at)
		WHERE id = $3 AND status = $4`

	result, err := r.db.ExecContext(ctx, query, to, confirmedAt, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update settlement status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update settlement status: %w", err)
	}

	return rows > 0, nil
}

// ListByUser retrieves settlements the user is a party to, newest first,
// optionally filtered by group and status
func (r *Repository) ListByUser(ctx context.Context, userID int64, groupID *int64, status *Status, limit, offset int) ([]*Settlement, int, error) {
	where := `WHERE (from_user_id = $1 OR to_user_id = $1)`
	args := []interface{}{userID}

	if groupID != nil {
		args = append(args, *groupID)
		where += fmt.Sprintf(" AND group_id = $%d", len(args))
	}
	if status != nil {
		args = append(args, *status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM settlements ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count settlements: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, group_id, from_user_id, to_user_id, amount_cents, status, payment_method, note, confirmed_at, created_at
		FROM settlements
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}

	return settlements, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSettlement(row rowScanner) (*Settlement, error) {
	var s Settlement
	var amount int64
	var note sql.NullString
	var confirmedAt sql.NullTime

	err := row.Scan(&s.ID, &s.GroupID, &s.FromUserID, &s.ToUserID, &amount,
		&s.Status, &s.PaymentMethod, &note, &confirmedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}

	s.Amount = money.Cents(amount)
	if note.Valid {
		s.Note = &note.String
	}
	if confirmedAt.Valid {
		s.ConfirmedAt = &confirmedAt.Time
	}

	return &s, nil
}
