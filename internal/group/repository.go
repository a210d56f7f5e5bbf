package group

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles group and membership persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new group repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new group together with the creator's admin membership
// in one transaction, so no group can exist without an admin
func (r *Repository) Create(ctx context.Context, createdBy int64, req *CreateGroupRequest) (*Group, error) {
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO groups (name, description, currency, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, description, currency, created_by, created_at
	`

	group := &Group{}
	err = tx.QueryRowContext(ctx, query, req.Name, req.Description, currency, createdBy).Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.Currency,
		&group.CreatedBy,
		&group.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	memberQuery := `
		INSERT INTO group_members (group_id, user_id, role)
		VALUES ($1, $2, $3)
	`
	if _, err := tx.ExecContext(ctx, memberQuery, group.ID, createdBy, MemberRoleAdmin); err != nil {
		return nil, fmt.Errorf("failed to add creator: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit group: %w", err)
	}

	return group, nil
}

// GroupExists reports whether the group exists
func (r *Repository) GroupExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM groups WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check group: %w", err)
	}
	return exists, nil
}

// GetByID retrieves a group by its ID, or nil when it does not exist
func (r *Repository) GetByID(ctx context.Context, id int64) (*Group, error) {
	query := `
		SELECT id, name, description, currency, created_by, created_at
		FROM groups
		WHERE id = $1
	`

	group := &Group{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.Currency,
		&group.CreatedBy,
		&group.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return group, nil
}

// ListByUser retrieves all groups the user is a member of, newest first
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]*Group, error) {
	query := `
		SELECT g.id, g.name, g.description, g.currency, g.created_by, g.created_at
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		group := &Group{}
		if err := rows.Scan(
			&group.ID,
			&group.Name,
			&group.Description,
			&group.Currency,
			&group.CreatedBy,
			&group.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}

	return groups, rows.Err()
}

// Delete removes a group; memberships, expenses, settlements and ledger
// entries cascade at the schema level
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrGroupNotFound
	}

	return nil
}

// AddMember inserts a membership with a zero starting balance
func (r *Repository) AddMember(ctx context.Context, groupID int64, userID int64, role MemberRole) (*Member, error) {
	query := `
		INSERT INTO group_members (group_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING group_id, user_id, role, balance_cents, joined_at
	`

	member := &Member{}
	err := r.db.QueryRowContext(ctx, query, groupID, userID, role).Scan(
		&member.GroupID,
		&member.UserID,
		&member.Role,
		&member.Balance,
		&member.JoinedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return member, nil
}

// GetMember retrieves one membership, or nil when it does not exist
func (r *Repository) GetMember(ctx context.Context, groupID, userID int64) (*Member, error) {
	query := `
		SELECT group_id, user_id, role, balance_cents, joined_at
		FROM group_members
		WHERE group_id = $1 AND user_id = $2
	`

	member := &Member{}
	err := r.db.QueryRowContext(ctx, query, groupID, userID).Scan(
		&member.GroupID,
		&member.UserID,
		&member.Role,
		&member.Balance,
		&member.JoinedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

// GetMembers retrieves all members of a group, oldest first
func (r *Repository) GetMembers(ctx context.Context, groupID int64) ([]*Member, error) {
	query := `
		SELECT group_id, user_id, role, balance_cents, joined_at
		FROM group_members
		WHERE group_id = $1
		ORDER BY joined_at, user_id
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		member := &Member{}
		if err := rows.Scan(
			&member.GroupID,
			&member.UserID,
			&member.Role,
			&member.Balance,
			&member.JoinedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}

	return members, rows.Err()
}

// RemoveMember deletes a membership
func (r *Repository) RemoveMember(ctx context.Context, groupID, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrMemberNotFound
	}

	return nil
}

// IsMember reports whether the user belongs to the group
func (r *Repository) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`,
		groupID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

// IsAdmin reports whether the user is an admin of the group
func (r *Repository) IsAdmin(ctx context.Context, groupID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2 AND role = $3)`,
		groupID, userID, MemberRoleAdmin).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check admin role: %w", err)
	}
	return exists, nil
}
