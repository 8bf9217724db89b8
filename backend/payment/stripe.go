package payment

import (
	"fmt"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

// CheckoutParams carries everything the provider needs to build a hosted
// checkout session for a single course.
type CheckoutParams struct {
	CourseID  uint
	UserID    uint
	Title     string
	Thumbnail string
	// UnitAmount is the price in the currency's minor units (e.g. paise).
	UnitAmount int64
	Currency   string
	SuccessURL string
	CancelURL  string
}

// Session is the provider-issued checkout session. ID is the correlation
// key later echoed back in the completion webhook.
type Session struct {
	ID  string
	URL string
}

// Provider abstracts the hosted-checkout API so controllers take an
// injected client instead of a package-level one.
type Provider interface {
	CreateCheckoutSession(params CheckoutParams) (*Session, error)
	VerifyEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api, webhookSecret: webhookSecret}
}

func (p *StripeProvider) CreateCheckoutSession(params CheckoutParams) (*Session, error) {
	checkoutParams := &stripe.CheckoutSessionParams{
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		BillingAddressCollection: stripe.String("required"),
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:               stripe.String(params.SuccessURL),
		CancelURL:                stripe.String(params.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(params.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:   stripe.String(params.Title),
						Images: []*string{stripe.String(params.Thumbnail)},
					},
					UnitAmount: stripe.Int64(params.UnitAmount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice([]string{"IN"}),
		},
	}
	checkoutParams.AddMetadata("courseId", fmt.Sprintf("%d", params.CourseID))
	checkoutParams.AddMetadata("userId", fmt.Sprintf("%d", params.UserID))

	session, err := p.api.CheckoutSessions.New(checkoutParams)
	if err != nil {
		return nil, err
	}

	return &Session{ID: session.ID, URL: session.URL}, nil
}

// VerifyEvent authenticates a webhook payload against its signature header.
// Stripe signs the raw body with HMAC-SHA256 and the comparison inside
// ConstructEvent is constant-time.
func (p *StripeProvider) VerifyEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, sigHeader, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
}
