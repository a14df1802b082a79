package payments

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/jkiprotich/mifugo-market-backend/pkg/errors"
	"github.com/jkiprotich/mifugo-market-backend/pkg/logger"
	"github.com/jkiprotich/mifugo-market-backend/pkg/metrics"
	"github.com/jkiprotich/mifugo-market-backend/pkg/paystack"
)

type hostedClient interface {
	Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error)
	Verify(ctx context.Context, reference string) (*paystack.VerifyResult, error)
}

// PaystackGateway adapts the raw Paystack client to the checkout contract.
// The provider's minor-unit convention is not guaranteed, so a failed
// initialize is retried once with the amount rescaled by 100.
type PaystackGateway struct {
	client      hostedClient
	currency    string
	callbackURL string
	logg        *logger.Logger
	metrics     *metrics.PaymentMetrics
}

// NewPaystackGateway builds the hosted-checkout adapter.
func NewPaystackGateway(client hostedClient, currency, callbackURL string, logg *logger.Logger, m *metrics.PaymentMetrics) (*PaystackGateway, error) {
	if client == nil {
		return nil, fmt.Errorf("paystack client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &PaystackGateway{
		client:      client,
		currency:    strings.TrimSpace(currency),
		callbackURL: strings.TrimSpace(callbackURL),
		logg:        logg,
		metrics:     m,
	}, nil
}

// InitializeHosted starts a hosted checkout and returns the redirect target.
func (g *PaystackGateway) InitializeHosted(ctx context.Context, input InitializeInput) (*AuthorizationTarget, error) {
	if err := ValidateEmail(input.PayerEmail); err != nil {
		return nil, err
	}
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	result, err := g.initialize(ctx, input, input.Amount)
	if err != nil && isUnrecognized(err) {
		// Unit-scale compatibility shim: the provider may expect minor units.
		g.metrics.IncUnitScaleRetry()
		logCtx := g.logg.WithFields(ctx, map[string]any{
			"reference": input.Reference,
			"amount":    input.Amount,
		})
		g.logg.Warn(logCtx, "initialize yielded no authorization target, retrying with minor-unit amount")
		result, err = g.initialize(ctx, input, input.Amount*100)
	}
	if err != nil {
		g.metrics.IncInitialize("failure")
		return nil, err
	}

	g.metrics.IncInitialize("success")
	return &AuthorizationTarget{
		URL:        result.AuthorizationURL,
		AccessCode: result.AccessCode,
		Reference:  result.Reference,
	}, nil
}

// VerifyHosted resolves the settlement outcome for a reference. Safe to call
// repeatedly; the caller applies the outcome idempotently.
func (g *PaystackGateway) VerifyHosted(ctx context.Context, reference string) (*Settlement, error) {
	trimmed := strings.TrimSpace(reference)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required")
	}

	result, err := g.client.Verify(ctx, trimmed)
	if err != nil {
		g.metrics.IncVerify("error")
		return nil, err
	}

	settlement := &Settlement{
		Settled:   result.Succeeded(),
		Reference: result.Reference,
		Amount:    result.Amount,
		Channel:   result.Channel,
		PaidAt:    result.PaidAt,
		Message:   result.Status,
	}
	if settlement.Settled {
		g.metrics.IncVerify("settled")
	} else {
		g.metrics.IncVerify("unsettled")
	}
	return settlement, nil
}

func (g *PaystackGateway) initialize(ctx context.Context, input InitializeInput, amount int64) (*paystack.InitializeResult, error) {
	return g.client.Initialize(ctx, paystack.InitializeRequest{
		Email:       strings.TrimSpace(input.PayerEmail),
		Amount:      amount,
		Currency:    g.currency,
		Reference:   input.Reference,
		CallbackURL: g.callbackURL,
		Metadata:    input.Metadata,
	})
}

func isUnrecognized(err error) bool {
	typed := pkgerrors.As(err)
	return typed != nil && typed.Code() == pkgerrors.CodeGatewayUnrecognized
}
