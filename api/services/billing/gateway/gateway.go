package gateway

import stripe "github.com/stripe/stripe-go"

// PaymentGateway abstracts the Stripe SDK operations needed by the app layer.
// Methods return values (not pointers) to respect the project's preference
// to avoid pointer types in public interfaces.
type PaymentGateway interface {
	// VerifyWebhook checks the provider signature over the raw payload and
	// reconstructs the typed event.
	VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error)
	// CreateCheckoutSession starts a subscription checkout for the given price.
	// The user id and plan type ride along as session metadata so the
	// completion webhook can resolve the profile.
	CreateCheckoutSession(userID, planType, priceID string) (stripe.CheckoutSession, error)
	GetSubscription(id string) (stripe.Subscription, error)
	// UpdateSubscriptionPlan swaps the subscription's single item to a new price.
	UpdateSubscriptionPlan(subscriptionID, priceID string) (stripe.Subscription, error)
	CancelSubscription(id string) error
}
