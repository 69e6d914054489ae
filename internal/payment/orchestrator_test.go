package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

type fakeAPI struct {
	existingCustomer *stripe.Customer

	listCalls   int
	customers   []*stripe.CustomerParams
	methods     []*stripe.PaymentMethodParams
	intents     []*stripe.PaymentIntentParams
	refunds     []*stripe.RefundParams
	listErr     error
	customerErr error
	methodErr   error
	intentErr   error
	refundErr   error
}

func (f *fakeAPI) FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.existingCustomer, nil
}

func (f *fakeAPI) CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	f.customers = append(f.customers, params)
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	return &stripe.Customer{ID: "cus_new"}, nil
}

func (f *fakeAPI) CreatePaymentMethod(ctx context.Context, params *stripe.PaymentMethodParams) (*stripe.PaymentMethod, error) {
	f.methods = append(f.methods, params)
	if f.methodErr != nil {
		return nil, f.methodErr
	}
	return &stripe.PaymentMethod{ID: "pm_test"}, nil
}

func (f *fakeAPI) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.intents = append(f.intents, params)
	if f.intentErr != nil {
		return nil, f.intentErr
	}
	return &stripe.PaymentIntent{
		ID:           "pi_test",
		ClientSecret: "pi_test_secret",
		Status:       stripe.PaymentIntentStatusSucceeded,
	}, nil
}

func (f *fakeAPI) CreateRefund(ctx context.Context, params *stripe.RefundParams) (*stripe.Refund, error) {
	f.refunds = append(f.refunds, params)
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	return &stripe.Refund{ID: "re_test"}, nil
}

func validCharge() ChargeParams {
	return ChargeParams{
		TotalPrice:    149.99,
		Currency:      "USD",
		CardNumber:    "4242424242424242",
		ExpMonth:      12,
		ExpYear:       2030,
		CVC:           "314",
		Street:        "Main St 1",
		City:          "Springfield",
		PostalCode:    "12345",
		Country:       "US",
		State:         "IL",
		CountryCode:   "+1",
		PhoneNumber:   "5550100",
		CustomerName:  "Jane Doe",
		CustomerEmail: "jane@example.com",
	}
}

func TestChargeMissingFieldSkipsProviderCalls(t *testing.T) {
	fields := map[string]func(*ChargeParams){
		"cvc":        func(p *ChargeParams) { p.CVC = "" },
		"currency":   func(p *ChargeParams) { p.Currency = "" },
		"totalPrice": func(p *ChargeParams) { p.TotalPrice = 0 },
		"expMonth":   func(p *ChargeParams) { p.ExpMonth = 0 },
		"user":       func(p *ChargeParams) { p.CustomerEmail = "" },
	}

	for field, clear := range fields {
		api := &fakeAPI{}
		o := NewOrchestrator(api, "http://localhost:3000")

		params := validCharge()
		clear(&params)

		result, err := o.Charge(context.Background(), params)
		require.Nil(t, result, field)

		var invalid *InvalidParamsError
		require.ErrorAs(t, err, &invalid, field)

		require.Zero(t, api.listCalls, field)
		require.Empty(t, api.methods, field)
		require.Empty(t, api.intents, field)
	}
}

func TestChargeAmountIsRoundedMinorUnits(t *testing.T) {
	api := &fakeAPI{}
	o := NewOrchestrator(api, "http://localhost:3000")

	result, err := o.Charge(context.Background(), validCharge())
	require.NoError(t, err)
	require.NotNil(t, result)

	require.Len(t, api.intents, 1)
	intent := api.intents[0]
	require.Equal(t, int64(14999), *intent.Amount)
	require.Equal(t, "usd", *intent.Currency)
	require.True(t, *intent.Confirm)
	require.Equal(t, "http://localhost:3000/payment-verified", *intent.ReturnURL)

	require.Equal(t, int64(14999), result.Amount)
	require.Equal(t, "pi_test", result.PaymentIntentID)
	require.Equal(t, string(stripe.PaymentIntentStatusSucceeded), result.Status)
}

func TestChargeReusesExistingCustomer(t *testing.T) {
	api := &fakeAPI{existingCustomer: &stripe.Customer{ID: "cus_existing"}}
	o := NewOrchestrator(api, "http://localhost:3000")

	result, err := o.Charge(context.Background(), validCharge())
	require.NoError(t, err)
	require.Equal(t, "cus_existing", result.CustomerID)
	require.Empty(t, api.customers, "no customer should be created when one exists")
}

func TestChargeCreatesCustomerWhenAbsent(t *testing.T) {
	api := &fakeAPI{}
	o := NewOrchestrator(api, "http://localhost:3000")

	result, err := o.Charge(context.Background(), validCharge())
	require.NoError(t, err)
	require.Equal(t, "cus_new", result.CustomerID)

	require.Len(t, api.customers, 1)
	created := api.customers[0]
	require.Equal(t, "jane@example.com", *created.Email)
	require.Equal(t, "+15550100", *created.Phone)
}

func TestChargeProviderFailureSurfaces(t *testing.T) {
	// Provider failures must surface to the caller, never a nil result
	// with no error.
	cause := errors.New("card declined")
	api := &fakeAPI{intentErr: cause}
	o := NewOrchestrator(api, "http://localhost:3000")

	result, err := o.Charge(context.Background(), validCharge())
	require.Nil(t, result)

	var provider *ProviderError
	require.ErrorAs(t, err, &provider)
	require.ErrorIs(t, err, cause)
}

func TestRefund(t *testing.T) {
	api := &fakeAPI{}
	o := NewOrchestrator(api, "http://localhost:3000")

	_, err := o.Refund(context.Background(), "pi_test", 500)
	require.NoError(t, err)
	require.Len(t, api.refunds, 1)
	require.Equal(t, "pi_test", *api.refunds[0].PaymentIntent)
	require.Equal(t, int64(500), *api.refunds[0].Amount)

	_, err = o.Refund(context.Background(), "", 500)
	var invalid *InvalidParamsError
	require.ErrorAs(t, err, &invalid)
}

func TestMinorUnitsRounds(t *testing.T) {
	cases := map[float64]int64{
		10:     1000,
		123.45: 12345,
		0.1:    10,
		19.99:  1999,
	}
	for price, want := range cases {
		if got := MinorUnits(price); got != want {
			t.Fatalf("MinorUnits(%v) = %d, want %d", price, got, want)
		}
	}
}
