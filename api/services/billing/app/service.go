package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	stripe "github.com/stripe/stripe-go"
	"go.uber.org/zap"

	billingdb "github.com/rvalette/mealmind/api/services/billing/db"
	gw "github.com/rvalette/mealmind/api/services/billing/gateway"
	profiledb "github.com/rvalette/mealmind/api/services/profile/db"
)

// Service defines the business operations for the billing domain.
type Service interface {
	// ProcessEvent applies a verified webhook event to profile state. A non-nil
	// error means the event object itself could not be decoded; transition
	// failures are dead-lettered and swallowed so the provider is always
	// acknowledged for a validly signed event.
	ProcessEvent(ctx context.Context, event stripe.Event) error
	// CreateCheckoutSession starts a subscription checkout and returns the
	// session id for the frontend redirect.
	CreateCheckoutSession(ctx context.Context, userID, planType string) (string, error)
	ChangePlan(ctx context.Context, userID, newPlan string) error
	Unsubscribe(ctx context.Context, userID string) error
	Catalog() Catalog
}

type serviceImpl struct {
	gw      gw.PaymentGateway
	catalog Catalog
	logger  *zap.Logger
}

func NewService(g gw.PaymentGateway, catalog Catalog, logger *zap.Logger) Service {
	return serviceImpl{gw: g, catalog: catalog, logger: logger}
}

func (s serviceImpl) Catalog() Catalog { return s.catalog }

// ProcessEvent dispatches on the event type. All three handled transitions
// assign absolute field values, so replays of the same event converge on the
// same profile state without an idempotency ledger.
func (s serviceImpl) ProcessEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutSessionCompleted(event)
	case "invoice.payment_failed":
		return s.handleInvoicePaymentFailed(event)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(event)
	default:
		s.logger.Info("unhandled event type", zap.String("eventType", string(event.Type)))
		return nil
	}
}

// handleCheckoutSessionCompleted links the new subscription to the profile
// named in the session metadata and activates it.
func (s serviceImpl) handleCheckoutSessionCompleted(event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("%w: error unmarshaling into CheckoutSession: %v", ErrBadEvent, err)
	}

	userID := session.Metadata["clerkUserId"]
	if userID == "" {
		s.skip(event, "no user id found in session metadata")
		return nil
	}
	if session.Subscription == nil || session.Subscription.ID == "" {
		s.skip(event, "no subscription id found in session")
		return nil
	}

	tier := sql.NullString{String: session.Metadata["planType"], Valid: session.Metadata["planType"] != ""}
	updated, err := profiledb.ActivateSubscription(userID, session.Subscription.ID, tier)
	if err != nil {
		s.deadLetter(event, fmt.Sprintf("activate failed for user %s: %v", userID, err))
		return nil
	}
	if !updated {
		s.skip(event, fmt.Sprintf("no profile found for user %s", userID))
		return nil
	}

	s.logger.Info("subscription activated",
		zap.String("userId", userID),
		zap.String("subscriptionId", session.Subscription.ID),
		zap.String("tier", tier.String))
	return nil
}

// handleInvoicePaymentFailed deactivates the profile linked to the failed
// invoice's subscription. Tier and subscription id stay untouched so a
// recovered payment can reactivate without relinking.
func (s serviceImpl) handleInvoicePaymentFailed(event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("%w: error unmarshaling into Invoice: %v", ErrBadEvent, err)
	}

	// The subscription id rides on the first invoice line item.
	var subscriptionID string
	if invoice.Lines != nil && len(invoice.Lines.Data) > 0 {
		subscriptionID = invoice.Lines.Data[0].Subscription
	}
	if subscriptionID == "" {
		s.skip(event, "no subscription id found in invoice lines")
		return nil
	}

	profile, found, err := profiledb.GetProfileBySubscriptionID(subscriptionID)
	if err != nil {
		s.deadLetter(event, fmt.Sprintf("profile lookup failed for subscription %s: %v", subscriptionID, err))
		return nil
	}
	if !found {
		s.skip(event, fmt.Sprintf("no profile found for subscription %s", subscriptionID))
		return nil
	}

	if _, err := profiledb.DeactivateSubscription(profile.UserID); err != nil {
		s.deadLetter(event, fmt.Sprintf("deactivate failed for user %s: %v", profile.UserID, err))
		return nil
	}

	s.logger.Info("subscription payment failed",
		zap.String("userId", profile.UserID),
		zap.String("subscriptionId", subscriptionID))
	return nil
}

// handleSubscriptionDeleted deactivates the linked profile and unlinks the
// subscription id.
func (s serviceImpl) handleSubscriptionDeleted(event stripe.Event) error {
	var subscription stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		return fmt.Errorf("%w: error unmarshaling into Subscription: %v", ErrBadEvent, err)
	}
	if subscription.ID == "" {
		s.skip(event, "no subscription id found in event")
		return nil
	}

	profile, found, err := profiledb.GetProfileBySubscriptionID(subscription.ID)
	if err != nil {
		s.deadLetter(event, fmt.Sprintf("profile lookup failed for subscription %s: %v", subscription.ID, err))
		return nil
	}
	if !found {
		s.skip(event, fmt.Sprintf("no profile found for subscription %s", subscription.ID))
		return nil
	}

	if _, err := profiledb.ClearSubscription(profile.UserID); err != nil {
		s.deadLetter(event, fmt.Sprintf("clear failed for user %s: %v", profile.UserID, err))
		return nil
	}

	s.logger.Info("subscription canceled",
		zap.String("userId", profile.UserID),
		zap.String("subscriptionId", subscription.ID))
	return nil
}

// skip records a benign resolution miss. The provider retries deliveries that
// are not acknowledged, so rejecting here would only replay an event this app
// can never apply.
func (s serviceImpl) skip(event stripe.Event, reason string) {
	s.logger.Warn("webhook event skipped",
		zap.String("eventId", event.ID),
		zap.String("eventType", string(event.Type)),
		zap.String("reason", reason))
}

// deadLetter records a transition that was recognized but could not be
// applied. The event is still acknowledged; the dead-letter row keeps the
// failure recoverable independently of the provider's delivery semantics.
func (s serviceImpl) deadLetter(event stripe.Event, failure string) {
	s.logger.Error("webhook transition failed",
		zap.String("eventId", event.ID),
		zap.String("eventType", string(event.Type)),
		zap.String("failure", failure))
	if err := billingdb.RecordFailure(event.ID, string(event.Type), failure, event.Data.Raw); err != nil {
		s.logger.Error("dead letter insert failed",
			zap.String("eventId", event.ID),
			zap.Error(err))
	}
}

func (s serviceImpl) CreateCheckoutSession(ctx context.Context, userID, planType string) (string, error) {
	priceID, ok := s.catalog.PriceID(planType)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlan, planType)
	}
	session, err := s.gw.CreateCheckoutSession(userID, planType, priceID)
	if err != nil {
		return "", fmt.Errorf("%w: error creating checkout session: %v", ErrGateway, err)
	}
	s.logger.Info("checkout session created",
		zap.String("userId", userID),
		zap.String("planType", planType))
	return session.ID, nil
}

func (s serviceImpl) ChangePlan(ctx context.Context, userID, newPlan string) error {
	priceID, ok := s.catalog.PriceID(newPlan)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPlan, newPlan)
	}

	profile, found, err := profiledb.GetProfile(userID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if !found || !profile.SubscriptionActive || !profile.StripeSubscriptionID.Valid {
		return fmt.Errorf("%w: user %s", ErrNoSubscription, userID)
	}

	if _, err := s.gw.UpdateSubscriptionPlan(profile.StripeSubscriptionID.String, priceID); err != nil {
		return fmt.Errorf("%w: error updating subscription: %v", ErrGateway, err)
	}
	if _, err := profiledb.UpdateTier(userID, newPlan); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	s.logger.Info("plan changed",
		zap.String("userId", userID),
		zap.String("newPlan", newPlan))
	return nil
}

// Unsubscribe cancels at the provider and marks the profile inactive right
// away; the customer.subscription.deleted webhook later clears the link.
func (s serviceImpl) Unsubscribe(ctx context.Context, userID string) error {
	profile, found, err := profiledb.GetProfile(userID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if !found || !profile.StripeSubscriptionID.Valid {
		return fmt.Errorf("%w: user %s", ErrNoSubscription, userID)
	}

	if err := s.gw.CancelSubscription(profile.StripeSubscriptionID.String); err != nil {
		return fmt.Errorf("%w: error canceling subscription: %v", ErrGateway, err)
	}
	if _, err := profiledb.DeactivateSubscription(userID); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	s.logger.Info("subscription cancel requested", zap.String("userId", userID))
	return nil
}
