package payment

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// API is the slice of the payment provider the orchestrator needs. It is
// implemented by stripeAPI for production and faked in tests.
type API interface {
	// FindCustomerByEmail returns the first customer with the given email,
	// or nil when none exists.
	FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error)
	CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error)
	CreatePaymentMethod(ctx context.Context, params *stripe.PaymentMethodParams) (*stripe.PaymentMethod, error)
	CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	CreateRefund(ctx context.Context, params *stripe.RefundParams) (*stripe.Refund, error)
}

type stripeAPI struct {
	sc *client.API
}

// NewStripeAPI builds an API backed by a dedicated Stripe client. The
// client is constructed here and injected upward, never held as package
// state.
func NewStripeAPI(secretKey string) API {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &stripeAPI{sc: sc}
}

func (s *stripeAPI) FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := s.sc.Customers.List(params)
	if it.Next() {
		return it.Customer(), nil
	}
	return nil, it.Err()
}

func (s *stripeAPI) CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	params.Context = ctx
	return s.sc.Customers.New(params)
}

func (s *stripeAPI) CreatePaymentMethod(ctx context.Context, params *stripe.PaymentMethodParams) (*stripe.PaymentMethod, error) {
	params.Context = ctx
	return s.sc.PaymentMethods.New(params)
}

func (s *stripeAPI) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	params.Context = ctx
	return s.sc.PaymentIntents.New(params)
}

func (s *stripeAPI) CreateRefund(ctx context.Context, params *stripe.RefundParams) (*stripe.Refund, error) {
	params.Context = ctx
	return s.sc.Refunds.New(params)
}
