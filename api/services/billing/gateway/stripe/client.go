package stripegw

import (
	"fmt"

	stripe "github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/checkout/session"
	"github.com/stripe/stripe-go/sub"
	"github.com/stripe/stripe-go/webhook"

	gw "github.com/rvalette/mealmind/api/services/billing/gateway"
)

// SetKey configures the Stripe SDK key once during bootstrap.
func SetKey(key string) { stripe.Key = key }

// client is the Stripe SDK-backed implementation of the gateway.
type client struct {
	webhookSecret string
	clientURL     string
}

// New returns a PaymentGateway backed by the official Stripe SDK.
func New(webhookSecret, clientURL string) gw.PaymentGateway {
	return client{webhookSecret: webhookSecret, clientURL: clientURL}
}

func (c client) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
}

func (c client) CreateCheckoutSession(userID, planType, priceID string) (stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String("subscription"),
		ClientReferenceID:  stripe.String(userID),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Items: []*stripe.CheckoutSessionSubscriptionDataItemsParams{
				{Plan: stripe.String(priceID), Quantity: stripe.Int64(1)},
			},
		},
		SuccessURL: stripe.String(c.clientURL + "/subscribe/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(c.clientURL + "/subscribe"),
	}
	params.AddMetadata("clerkUserId", userID)
	params.AddMetadata("planType", planType)

	sessPtr, err := session.New(params)
	if err != nil {
		return stripe.CheckoutSession{}, err
	}
	if sessPtr == nil {
		return stripe.CheckoutSession{}, nil
	}
	return *sessPtr, nil
}

func (c client) GetSubscription(id string) (stripe.Subscription, error) {
	subPtr, err := sub.Get(id, nil)
	if err != nil {
		return stripe.Subscription{}, err
	}
	if subPtr == nil {
		return stripe.Subscription{}, nil
	}
	return *subPtr, nil
}

func (c client) UpdateSubscriptionPlan(subscriptionID, priceID string) (stripe.Subscription, error) {
	current, err := c.GetSubscription(subscriptionID)
	if err != nil {
		return stripe.Subscription{}, err
	}
	if current.Items == nil || len(current.Items.Data) == 0 {
		return stripe.Subscription{}, fmt.Errorf("subscription %s has no items", subscriptionID)
	}
	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{ID: stripe.String(current.Items.Data[0].ID), Plan: stripe.String(priceID)},
		},
	}
	updated, err := sub.Update(subscriptionID, params)
	if err != nil {
		return stripe.Subscription{}, err
	}
	if updated == nil {
		return stripe.Subscription{}, nil
	}
	return *updated, nil
}

func (c client) CancelSubscription(id string) error {
	_, err := sub.Cancel(id, nil)
	return err
}
