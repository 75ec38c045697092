package db

import (
	"database/sql"
	"fmt"

	"github.com/rvalette/mealmind/api/database"
)

// Profile is one user's billing state, keyed by the identity-provider user id.
type Profile struct {
	UserID               string
	Email                string
	SubscriptionActive   bool
	SubscriptionTier     sql.NullString
	StripeSubscriptionID sql.NullString
}

const profileColumns = "user_id, email, subscription_active, subscription_tier, stripe_subscription_id"

// GetProfile returns the profile for a user id. The second return value is
// false when no row exists.
func GetProfile(userID string) (Profile, bool, error) {
	row := database.GetDB().QueryRow(
		"SELECT "+profileColumns+" FROM profile WHERE user_id = $1", userID)
	return scanProfile(row)
}

// GetProfileBySubscriptionID is the reverse lookup used by webhook events
// that carry only the payment provider's subscription id.
func GetProfileBySubscriptionID(subscriptionID string) (Profile, bool, error) {
	row := database.GetDB().QueryRow(
		"SELECT "+profileColumns+" FROM profile WHERE stripe_subscription_id = $1", subscriptionID)
	return scanProfile(row)
}

func scanProfile(row *sql.Row) (Profile, bool, error) {
	var p Profile
	err := row.Scan(&p.UserID, &p.Email, &p.SubscriptionActive, &p.SubscriptionTier, &p.StripeSubscriptionID)
	if err == sql.ErrNoRows {
		return Profile{}, false, nil
	}
	if err != nil {
		return Profile{}, false, fmt.Errorf("failed to scan profile: %w", err)
	}
	return p, true, nil
}

// CreateProfile inserts a fresh profile row with no subscription state.
// The primary key constraint is the backstop against concurrent duplicate
// creates; callers treat a unique violation as a benign race.
func CreateProfile(userID, email string) error {
	_, err := database.GetDB().Exec(
		"INSERT INTO profile (user_id, email) VALUES ($1, $2)", userID, email)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// ActivateSubscription links a subscription to the profile and marks it
// active. Tier may be null when checkout metadata omitted the plan type.
func ActivateSubscription(userID, subscriptionID string, tier sql.NullString) (bool, error) {
	res, err := database.GetDB().Exec(
		"UPDATE profile SET stripe_subscription_id = $2, subscription_active = TRUE, subscription_tier = $3, updated_at = now() WHERE user_id = $1",
		userID, subscriptionID, tier)
	if err != nil {
		return false, fmt.Errorf("failed to activate subscription: %w", err)
	}
	return rowUpdated(res)
}

// DeactivateSubscription flips the active flag only; tier and subscription id
// stay in place so a later payment can reactivate without relinking.
func DeactivateSubscription(userID string) (bool, error) {
	res, err := database.GetDB().Exec(
		"UPDATE profile SET subscription_active = FALSE, updated_at = now() WHERE user_id = $1", userID)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate subscription: %w", err)
	}
	return rowUpdated(res)
}

// ClearSubscription unlinks the subscription entirely.
func ClearSubscription(userID string) (bool, error) {
	res, err := database.GetDB().Exec(
		"UPDATE profile SET subscription_active = FALSE, stripe_subscription_id = NULL, updated_at = now() WHERE user_id = $1", userID)
	if err != nil {
		return false, fmt.Errorf("failed to clear subscription: %w", err)
	}
	return rowUpdated(res)
}

// UpdateTier records a plan change for an already linked subscription.
func UpdateTier(userID, tier string) (bool, error) {
	res, err := database.GetDB().Exec(
		"UPDATE profile SET subscription_tier = $2, updated_at = now() WHERE user_id = $1", userID, tier)
	if err != nil {
		return false, fmt.Errorf("failed to update tier: %w", err)
	}
	return rowUpdated(res)
}

func rowUpdated(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}
