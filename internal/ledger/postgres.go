package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore persists balances in group_members and the entry log in
// ledger_entries/ledger_adjustments. Each Apply runs in a single transaction.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a ledger store backed by the given database
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Balances returns the balance of every member of the group, oldest member first
func (s *PostgresStore) Balances(ctx context.Context, groupID int64) ([]MemberBalance, error) {
	if err := s.groupExists(ctx, s.db, groupID); err != nil {
		return nil, err
	}

	query := `
		SELECT user_id, balance_cents
		FROM group_members
		WHERE group_id = $1
		ORDER BY joined_at, user_id
	`

	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close()

	var balances []MemberBalance
	for rows.Next() {
		var b MemberBalance
		if err := rows.Scan(&b.UserID, &b.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances = append(balances, b)
	}

	return balances, rows.Err()
}

// Apply writes the entry and all balance adjustments in one transaction
func (s *PostgresStore) Apply(ctx context.Context, entry Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.groupExists(ctx, tx, entry.GroupID); err != nil {
		return err
	}

	insertEntry := `
		INSERT INTO ledger_entries (id, group_id, kind, ref_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.ExecContext(ctx, insertEntry, entry.ID, entry.GroupID, entry.Kind, entry.RefID, entry.CreatedAt); err != nil {
		return classifyPQError(err, "failed to insert ledger entry")
	}

	adjustBalance := `
		UPDATE group_members
		SET balance_cents = balance_cents + $3
		WHERE group_id = $1 AND user_id = $2
	`
	insertAdjustment := `
		INSERT INTO ledger_adjustments (entry_id, user_id, delta_cents)
		VALUES ($1, $2, $3)
	`
	for _, a := range entry.Adjustments {
		result, err := tx.ExecContext(ctx, adjustBalance, entry.GroupID, a.UserID, a.Delta)
		if err != nil {
			return classifyPQError(err, "failed to adjust balance")
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to adjust balance: %w", err)
		}
		if affected == 0 {
			return ErrMemberNotFound
		}

		if _, err := tx.ExecContext(ctx, insertAdjustment, entry.ID, a.UserID, a.Delta); err != nil {
			return classifyPQError(err, "failed to insert adjustment")
		}
	}

	if err := tx.Commit(); err != nil {
		return classifyPQError(err, "failed to commit ledger entry")
	}

	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) groupExists(ctx context.Context, q queryer, groupID int64) error {
	var exists bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM groups WHERE id = $1)`, groupID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check group: %w", err)
	}
	if !exists {
		return ErrGroupNotFound
	}
	return nil
}

// classifyPQError maps Postgres error codes onto the ledger's sentinel
// errors: the partial unique index on settlement_confirmed entries surfaces
// as ErrAlreadyApplied, serialization failures and deadlocks as ErrConflict.
func classifyPQError(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return ErrAlreadyApplied
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return ErrConflict
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
