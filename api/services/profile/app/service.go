package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	identitygw "github.com/rvalette/mealmind/api/services/identity/gateway"
	profiledb "github.com/rvalette/mealmind/api/services/profile/db"
)

// Service defines the business operations for the profile domain.
type Service interface {
	// EnsureProfile lazily creates the profile row for an authenticated user.
	// It reports whether a row was created; an existing row is a success, not
	// an error.
	EnsureProfile(ctx context.Context, userID string) (bool, error)
	// SubscriptionStatus returns the user's current billing state.
	SubscriptionStatus(ctx context.Context, userID string) (SubscriptionStatus, error)
}

// SubscriptionStatus is the domain response for the status endpoint.
// Tier is empty when no plan type was recorded.
type SubscriptionStatus struct {
	Active bool   `json:"active"`
	Tier   string `json:"tier,omitempty"`
}

type serviceImpl struct {
	identity identitygw.IdentityGateway
	logger   *zap.Logger
}

func NewService(identity identitygw.IdentityGateway, logger *zap.Logger) Service {
	return serviceImpl{identity: identity, logger: logger}
}

// EnsureProfile creates the profile on first authenticated contact. The email
// is captured from the identity provider at creation and never re-synced.
func (s serviceImpl) EnsureProfile(ctx context.Context, userID string) (bool, error) {
	_, exists, err := profiledb.GetProfile(userID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if exists {
		return false, nil
	}

	user, err := s.identity.GetUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrIdentity, err)
	}
	if user.Email == "" {
		return false, fmt.Errorf("%w: user %s has no email address", ErrNoEmail, userID)
	}

	if err := profiledb.CreateProfile(userID, user.Email); err != nil {
		// A concurrent request may have created the row between the lookup and
		// the insert; the unique constraint rejection is a benign race.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			s.logger.Info("profile already created by concurrent request", zap.String("userId", userID))
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	s.logger.Info("profile created", zap.String("userId", userID))
	return true, nil
}

func (s serviceImpl) SubscriptionStatus(ctx context.Context, userID string) (SubscriptionStatus, error) {
	profile, exists, err := profiledb.GetProfile(userID)
	if err != nil {
		return SubscriptionStatus{}, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if !exists {
		return SubscriptionStatus{}, fmt.Errorf("%w: user %s", ErrProfileNotFound, userID)
	}
	return SubscriptionStatus{
		Active: profile.SubscriptionActive,
		Tier:   profile.SubscriptionTier.String,
	}, nil
}
