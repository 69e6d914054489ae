package payment

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v76"
)

// InvalidParamsError reports a missing or malformed charge field. Callers
// map it to a 400.
type InvalidParamsError struct {
	Field string
}

func (e *InvalidParamsError) Error() string {
	return fmt.Sprintf("payment: %s is required", e.Field)
}

// ProviderError wraps a payment-provider failure. Callers map it to a 402;
// the underlying error is never swallowed.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment: %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ChargeParams carries everything needed for a confirmed card charge.
type ChargeParams struct {
	TotalPrice float64
	Currency   string

	CardNumber string
	ExpMonth   int64
	ExpYear    int64
	CVC        string

	Street      string
	City        string
	PostalCode  string
	Country     string
	State       string
	CountryCode string
	PhoneNumber string

	CustomerName  string
	CustomerEmail string
}

// Result is the outcome of a successful charge.
type Result struct {
	PaymentIntentID string
	ClientSecret    string
	CustomerID      string
	Status          string
	Amount          int64
	Currency        string
}

// Orchestrator drives the charge flow: validate, resolve-or-create the
// provider customer, create a card payment method, then create and confirm
// a payment intent.
type Orchestrator struct {
	api       API
	returnURL string
}

// NewOrchestrator wires the orchestrator to an API and the client address
// used for 3-D-Secure style redirects.
func NewOrchestrator(api API, clientAddress string) *Orchestrator {
	return &Orchestrator{
		api:       api,
		returnURL: strings.TrimRight(clientAddress, "/") + "/payment-verified",
	}
}

// MinorUnits converts a decimal price to the provider's integer amount.
func MinorUnits(totalPrice float64) int64 {
	return int64(math.Round(totalPrice * 100))
}

func (p ChargeParams) validate() error {
	checks := []struct {
		field string
		ok    bool
	}{
		{"totalPrice", p.TotalPrice > 0},
		{"currency", strings.TrimSpace(p.Currency) != ""},
		{"cardNumber", strings.TrimSpace(p.CardNumber) != ""},
		{"expMonth", p.ExpMonth > 0},
		{"expYear", p.ExpYear > 0},
		{"cvc", strings.TrimSpace(p.CVC) != ""},
		{"street", strings.TrimSpace(p.Street) != ""},
		{"city", strings.TrimSpace(p.City) != ""},
		{"postalCode", strings.TrimSpace(p.PostalCode) != ""},
		{"country", strings.TrimSpace(p.Country) != ""},
		{"state", strings.TrimSpace(p.State) != ""},
		{"countryCode", strings.TrimSpace(p.CountryCode) != ""},
		{"phoneNumber", strings.TrimSpace(p.PhoneNumber) != ""},
		{"user", strings.TrimSpace(p.CustomerName) != "" && strings.TrimSpace(p.CustomerEmail) != ""},
	}
	for _, check := range checks {
		if !check.ok {
			return &InvalidParamsError{Field: check.field}
		}
	}
	return nil
}

// Charge runs the full payment flow synchronously. A provider failure at
// any step returns a ProviderError; no step is attempted after a failure.
func (o *Orchestrator) Charge(ctx context.Context, p ChargeParams) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	phone := p.CountryCode + p.PhoneNumber
	address := &stripe.AddressParams{
		City:       stripe.String(p.City),
		Country:    stripe.String(p.Country),
		Line1:      stripe.String(p.Street),
		PostalCode: stripe.String(p.PostalCode),
		State:      stripe.String(p.State),
	}

	customer, err := o.resolveCustomer(ctx, p.CustomerName, p.CustomerEmail, phone, address)
	if err != nil {
		return nil, err
	}

	method, err := o.api.CreatePaymentMethod(ctx, &stripe.PaymentMethodParams{
		Type: stripe.String("card"),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(p.CardNumber),
			ExpMonth: stripe.Int64(p.ExpMonth),
			ExpYear:  stripe.Int64(p.ExpYear),
			CVC:      stripe.String(p.CVC),
		},
		BillingDetails: &stripe.PaymentMethodBillingDetailsParams{
			Name:    stripe.String(p.CustomerName),
			Email:   stripe.String(p.CustomerEmail),
			Phone:   stripe.String(phone),
			Address: address,
		},
	})
	if err != nil {
		return nil, &ProviderError{Op: "create payment method", Err: err}
	}

	amount := MinorUnits(p.TotalPrice)
	currency := strings.ToLower(strings.TrimSpace(p.Currency))

	intent, err := o.api.CreatePaymentIntent(ctx, &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		PaymentMethod: stripe.String(method.ID),
		ReturnURL:     stripe.String(o.returnURL),
		Customer:      stripe.String(customer.ID),
		Confirm:       stripe.Bool(true),
	})
	if err != nil {
		return nil, &ProviderError{Op: "create payment intent", Err: err}
	}

	return &Result{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		CustomerID:      customer.ID,
		Status:          string(intent.Status),
		Amount:          amount,
		Currency:        currency,
	}, nil
}

func (o *Orchestrator) resolveCustomer(ctx context.Context, name, email, phone string, address *stripe.AddressParams) (*stripe.Customer, error) {
	existing, err := o.api.FindCustomerByEmail(ctx, email)
	if err != nil {
		return nil, &ProviderError{Op: "list customers", Err: err}
	}
	if existing != nil {
		return existing, nil
	}

	created, err := o.api.CreateCustomer(ctx, &stripe.CustomerParams{
		Name:    stripe.String(name),
		Email:   stripe.String(email),
		Phone:   stripe.String(phone),
		Address: address,
	})
	if err != nil {
		return nil, &ProviderError{Op: "create customer", Err: err}
	}
	return created, nil
}

// Refund issues a partial or full refund against a payment intent. The
// amount is in minor units.
func (o *Orchestrator) Refund(ctx context.Context, paymentIntentID string, amount int64) (*stripe.Refund, error) {
	if strings.TrimSpace(paymentIntentID) == "" {
		return nil, &InvalidParamsError{Field: "paymentIntentId"}
	}
	if amount <= 0 {
		return nil, &InvalidParamsError{Field: "amount"}
	}

	refund, err := o.api.CreateRefund(ctx, &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
		Amount:        stripe.Int64(amount),
	})
	if err != nil {
		return nil, &ProviderError{Op: "create refund", Err: err}
	}
	return refund, nil
}
