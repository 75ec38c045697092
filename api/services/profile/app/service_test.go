package app

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvalette/mealmind/api/database"
	"github.com/rvalette/mealmind/api/logger"
	identitygw "github.com/rvalette/mealmind/api/services/identity/gateway"
)

type fakeIdentityGateway struct {
	users map[string]identitygw.User
	err   error
}

func (f fakeIdentityGateway) GetUser(_ context.Context, userID string) (identitygw.User, error) {
	if f.err != nil {
		return identitygw.User{}, f.err
	}
	return f.users[userID], nil
}

func newMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	prev := database.GetDB()
	database.SetDB(db)
	t.Cleanup(func() {
		database.SetDB(prev)
		db.Close()
	})
	return mock
}

const selectProfileSQL = "SELECT user_id, email, subscription_active, subscription_tier, stripe_subscription_id FROM profile WHERE user_id = $1"

func emptyProfileRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"user_id", "email", "subscription_active", "subscription_tier", "stripe_subscription_id"})
}

func Test_EnsureProfile_CreatesOnFirstContact(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(selectProfileSQL).WithArgs("user_1").WillReturnRows(emptyProfileRows())
	mock.ExpectExec("INSERT INTO profile (user_id, email) VALUES ($1, $2)").
		WithArgs("user_1", "a@b.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	gw := fakeIdentityGateway{users: map[string]identitygw.User{
		"user_1": {ID: "user_1", Email: "a@b.com"},
	}}
	svc := NewService(gw, logger.NewTestLogger(t))

	created, err := svc.EnsureProfile(context.Background(), "user_1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_EnsureProfile_AlreadyExists(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(selectProfileSQL).WithArgs("user_1").
		WillReturnRows(emptyProfileRows().AddRow("user_1", "a@b.com", false, nil, nil))

	// The identity provider must not be contacted for an existing profile.
	svc := NewService(fakeIdentityGateway{err: errors.New("identity should not be called")}, logger.NewTestLogger(t))

	created, err := svc.EnsureProfile(context.Background(), "user_1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_EnsureProfile_NoEmail(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(selectProfileSQL).WithArgs("user_1").WillReturnRows(emptyProfileRows())

	gw := fakeIdentityGateway{users: map[string]identitygw.User{
		"user_1": {ID: "user_1"},
	}}
	svc := NewService(gw, logger.NewTestLogger(t))

	_, err := svc.EnsureProfile(context.Background(), "user_1")
	assert.ErrorIs(t, err, ErrNoEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_EnsureProfile_IdentityFailure(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(selectProfileSQL).WithArgs("user_1").WillReturnRows(emptyProfileRows())

	svc := NewService(fakeIdentityGateway{err: errors.New("upstream 500")}, logger.NewTestLogger(t))

	_, err := svc.EnsureProfile(context.Background(), "user_1")
	assert.ErrorIs(t, err, ErrIdentity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_EnsureProfile_ConcurrentCreateIsBenign(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(selectProfileSQL).WithArgs("user_1").WillReturnRows(emptyProfileRows())
	mock.ExpectExec("INSERT INTO profile (user_id, email) VALUES ($1, $2)").
		WithArgs("user_1", "a@b.com").
		WillReturnError(&pq.Error{Code: "23505"})

	gw := fakeIdentityGateway{users: map[string]identitygw.User{
		"user_1": {ID: "user_1", Email: "a@b.com"},
	}}
	svc := NewService(gw, logger.NewTestLogger(t))

	created, err := svc.EnsureProfile(context.Background(), "user_1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_SubscriptionStatus(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(selectProfileSQL).WithArgs("user_1").
		WillReturnRows(emptyProfileRows().AddRow("user_1", "a@b.com", true, "year", "sub_1"))

	svc := NewService(fakeIdentityGateway{}, logger.NewTestLogger(t))

	status, err := svc.SubscriptionStatus(context.Background(), "user_1")
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.Equal(t, "year", status.Tier)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_SubscriptionStatus_NoProfile(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(selectProfileSQL).WithArgs("ghost").WillReturnRows(emptyProfileRows())

	svc := NewService(fakeIdentityGateway{}, logger.NewTestLogger(t))

	_, err := svc.SubscriptionStatus(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
