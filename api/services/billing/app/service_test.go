package app

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go"

	"github.com/rvalette/mealmind/api/database"
	"github.com/rvalette/mealmind/api/logger"
)

type fakePaymentGateway struct {
	sessions     map[string]stripe.CheckoutSession
	updateErr    error
	cancelErr    error
	canceledIDs  []string
	updatedSubs  []string
	updatedPrice []string
}

func (f *fakePaymentGateway) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	return stripe.Event{}, nil
}

func (f *fakePaymentGateway) CreateCheckoutSession(userID, planType, priceID string) (stripe.CheckoutSession, error) {
	if f.sessions == nil {
		return stripe.CheckoutSession{ID: "cs_" + priceID}, nil
	}
	return f.sessions[priceID], nil
}

func (f *fakePaymentGateway) GetSubscription(id string) (stripe.Subscription, error) {
	return stripe.Subscription{ID: id}, nil
}

func (f *fakePaymentGateway) UpdateSubscriptionPlan(subscriptionID, priceID string) (stripe.Subscription, error) {
	if f.updateErr != nil {
		return stripe.Subscription{}, f.updateErr
	}
	f.updatedSubs = append(f.updatedSubs, subscriptionID)
	f.updatedPrice = append(f.updatedPrice, priceID)
	return stripe.Subscription{ID: subscriptionID}, nil
}

func (f *fakePaymentGateway) CancelSubscription(id string) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.canceledIDs = append(f.canceledIDs, id)
	return nil
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

func newTestService(t *testing.T) Service {
	t.Helper()
	catalog := NewCatalog("price_week", "price_month", "price_year")
	return NewService(&fakePaymentGateway{}, catalog, logger.NewTestLogger(t))
}

func rawEvent(eventType, raw string) stripe.Event {
	return stripe.Event{
		ID:   "evt_test",
		Type: eventType,
		Data: &stripe.EventData{Raw: []byte(raw)},
	}
}

const (
	selectBySubSQL  = "SELECT user_id, email, subscription_active, subscription_tier, stripe_subscription_id FROM profile WHERE stripe_subscription_id = $1"
	selectByUserSQL = "SELECT user_id, email, subscription_active, subscription_tier, stripe_subscription_id FROM profile WHERE user_id = $1"
	activateSQL     = "UPDATE profile SET stripe_subscription_id = $2, subscription_active = TRUE, subscription_tier = $3, updated_at = now() WHERE user_id = $1"
	deactivateSQL   = "UPDATE profile SET subscription_active = FALSE, updated_at = now() WHERE user_id = $1"
	clearSQL        = "UPDATE profile SET subscription_active = FALSE, stripe_subscription_id = NULL, updated_at = now() WHERE user_id = $1"
	updateTierSQL   = "UPDATE profile SET subscription_tier = $2, updated_at = now() WHERE user_id = $1"
	deadLetterSQL   = "INSERT INTO webhook_dead_letter (event_id, event_type, failure, payload) VALUES ($1, $2, $3, $4)"
)

func profileRow(userID string, active bool, tier, subID interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"user_id", "email", "subscription_active", "subscription_tier", "stripe_subscription_id"}).
		AddRow(userID, userID+"@example.com", active, tier, subID)
}

func noRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"user_id", "email", "subscription_active", "subscription_tier", "stripe_subscription_id"})
}

func Test_ProcessEvent_CheckoutCompleted_Activates(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectExec(activateSQL).
		WithArgs("user_1", "sub_1", "month").
		WillReturnResult(sqlmock.NewResult(0, 1))

	evt := rawEvent("checkout.session.completed",
		`{"metadata": {"clerkUserId": "user_1", "planType": "month"}, "subscription": "sub_1"}`)

	err := newTestService(t).ProcessEvent(context.Background(), evt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_ProcessEvent_CheckoutCompleted_ReplayConverges(t *testing.T) {
	// A redelivered event applies the same absolute assignment; the second run
	// issues the identical update and leaves the row in the same state.
	mock := newMockDB(t)
	mock.ExpectExec(activateSQL).WithArgs("user_1", "sub_1", "month").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(activateSQL).WithArgs("user_1", "sub_1", "month").WillReturnResult(sqlmock.NewResult(0, 1))

	evt := rawEvent("checkout.session.completed",
		`{"metadata": {"clerkUserId": "user_1", "planType": "month"}, "subscription": "sub_1"}`)

	svc := newTestService(t)
	require.NoError(t, svc.ProcessEvent(context.Background(), evt))
	require.NoError(t, svc.ProcessEvent(context.Background(), evt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_ProcessEvent_CheckoutCompleted_NoUserID_Skipped(t *testing.T) {
	mock := newMockDB(t)

	evt := rawEvent("checkout.session.completed", `{"subscription": "sub_1"}`)

	err := newTestService(t).ProcessEvent(context.Background(), evt)
	require.NoError(t, err)
	// No store access for an unresolvable event.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_ProcessEvent_CheckoutCompleted_NoSubscription_Skipped(t *testing.T) {
	mock := newMockDB(t)

	evt := rawEvent("checkout.session.completed", `{"metadata": {"clerkUserId": "user_1"}}`)

	err := newTestService(t).ProcessEvent(context.Background(), evt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_ProcessEvent_CheckoutCompleted_NoProfile_Skipped(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectExec(activateSQL).
		WithArgs("ghost", "sub_1", "month").
		WillReturnResult(sqlmock.NewResult(0, 0))

	evt := rawEvent("checkout.session.completed",
		`{"metadata": {"clerkUserId": "ghost", "planType": "month"}, "subscription": "sub_1"}`)

	err := newTestService(t).ProcessEvent(context.Background(), evt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_ProcessEvent_CheckoutCompleted_StoreFailureDeadLetters(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectExec(activateSQL).
		WithArgs("user_1", "sub_1", "month").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectExec(deadLetterSQL).
		WithArgs("evt_test", "checkout.session.completed", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	evt := rawEvent("checkout.session.completed",
		`{"metadata": {"clerkUserId": "user_1", "planType": "month"}, "subscription": "sub_1"}`)

	// The event is still acknowledged; the failure lands in the dead-letter table.
	err := newTestService(t).ProcessEvent(context.Background(), evt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_ProcessEvent_InvoicePaymentFailed_Deactivates(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(selectBySubSQL).
		WithArgs("sub_1").
		WillReturnRows(profileRow("user_1", true, "month", "sub_1"))
	mock.ExpectExec(deactivateSQL).
		WithArgs("user_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	evt := rawEvent("invoice.payment_failed", `{"lines": {"data": [{"subscription": "sub_1"}]}}`)

	err := newTestService(t).ProcessEvent(context.Background(), evt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_ProcessEvent_InvoicePaymentFailed_NoLines_Skipped(t *testing.T) {
	mock := newMockDB(t)

	evt := rawEvent("invoice.payment_failed", `{"lines": {"data": []}}`)

	err := newTestService(t).ProcessEvent(context.Background(), evt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_ProcessEvent_InvoicePaymentFailed_UnknownSubscription_Skipped(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(selectBySubSQL).WithArgs("sub_unknown").WillReturnRows(noRows())

	evt := rawEvent("invoice.payment_failed", `{"lines": {"data": [{"subscription": "sub_unknown"}]}}`)

	err := newTestService(t).ProcessEvent(context.Background(), evt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_ProcessEvent_SubscriptionDeleted_Clears(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(selectBySubSQL).
		WithArgs("sub_1").
		WillReturnRows(profileRow("user_1", true, "month", "sub_1"))
	mock.ExpectExec(clearSQL).
		WithArgs("user_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	evt := rawEvent("customer.subscription.deleted", `{"id": "sub_1"}`)

	err := newTestService(t).ProcessEvent(context.Background(), evt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_ProcessEvent_SubscriptionDeleted_LookupFailureDeadLetters(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(selectBySubSQL).
		WithArgs("sub_1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectExec(deadLetterSQL).
		WithArgs("evt_test", "customer.subscription.deleted", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	evt := rawEvent("customer.subscription.deleted", `{"id": "sub_1"}`)

	err := newTestService(t).ProcessEvent(context.Background(), evt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_ProcessEvent_MalformedObject_Rejected(t *testing.T) {
	mock := newMockDB(t)

	evt := rawEvent("checkout.session.completed", `{"metadata": 42}`)

	err := newTestService(t).ProcessEvent(context.Background(), evt)
	assert.ErrorIs(t, err, ErrBadEvent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_ProcessEvent_UnhandledType_Ignored(t *testing.T) {
	mock := newMockDB(t)

	evt := rawEvent("customer.created", `{"id": "cus_1"}`)

	err := newTestService(t).ProcessEvent(context.Background(), evt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_CreateCheckoutSession(t *testing.T) {
	svc := newTestService(t)

	sessionID, err := svc.CreateCheckoutSession(context.Background(), "user_1", "month")
	require.NoError(t, err)
	assert.Equal(t, "cs_price_month", sessionID)
}

func Test_CreateCheckoutSession_UnknownPlan(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateCheckoutSession(context.Background(), "user_1", "decade")
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func Test_ChangePlan(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(selectByUserSQL).
		WithArgs("user_1").
		WillReturnRows(profileRow("user_1", true, "month", "sub_1"))
	mock.ExpectExec(updateTierSQL).
		WithArgs("user_1", "year").
		WillReturnResult(sqlmock.NewResult(0, 1))

	gw := &fakePaymentGateway{}
	svc := NewService(gw, NewCatalog("price_week", "price_month", "price_year"), logger.NewTestLogger(t))

	err := svc.ChangePlan(context.Background(), "user_1", "year")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub_1"}, gw.updatedSubs)
	assert.Equal(t, []string{"price_year"}, gw.updatedPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_ChangePlan_NoActiveSubscription(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(selectByUserSQL).
		WithArgs("user_1").
		WillReturnRows(profileRow("user_1", false, nil, nil))

	err := newTestService(t).ChangePlan(context.Background(), "user_1", "year")
	assert.ErrorIs(t, err, ErrNoSubscription)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_ChangePlan_UnknownPlan(t *testing.T) {
	err := newTestService(t).ChangePlan(context.Background(), "user_1", "decade")
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func Test_Unsubscribe(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(selectByUserSQL).
		WithArgs("user_1").
		WillReturnRows(profileRow("user_1", true, "month", "sub_1"))
	mock.ExpectExec(deactivateSQL).
		WithArgs("user_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	gw := &fakePaymentGateway{}
	svc := NewService(gw, NewCatalog("price_week", "price_month", "price_year"), logger.NewTestLogger(t))

	err := svc.Unsubscribe(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub_1"}, gw.canceledIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_Unsubscribe_NoSubscription(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(selectByUserSQL).
		WithArgs("user_1").
		WillReturnRows(profileRow("user_1", false, nil, nil))

	err := newTestService(t).Unsubscribe(context.Background(), "user_1")
	assert.ErrorIs(t, err, ErrNoSubscription)
	assert.NoError(t, mock.ExpectationsWereMet())
}
