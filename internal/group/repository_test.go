package group

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Create_SeatsCreatorInSameTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO groups").
		WithArgs("Trip", "", "INR", int64(7)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "description", "currency", "created_by", "created_at"}).
			AddRow(int64(1), "Trip", "", "INR", int64(7), now))
	mock.ExpectExec("INSERT INTO group_members").
		WithArgs(int64(1), int64(7), MemberRoleAdmin).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := NewRepository(db)
	group, err := repo.Create(context.Background(), 7, &CreateGroupRequest{Name: "Trip"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), group.ID)
	assert.Equal(t, int64(7), group.CreatedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A failed membership insert must roll the group insert back: no group may
// exist without its admin.
func TestRepository_Create_RollsBackOnMembershipFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO groups").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "description", "currency", "created_by", "created_at"}).
			AddRow(int64(1), "Trip", "", "INR", int64(7), time.Now()))
	mock.ExpectExec("INSERT INTO group_members").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	repo := NewRepository(db)
	_, err = repo.Create(context.Background(), 7, &CreateGroupRequest{Name: "Trip"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
