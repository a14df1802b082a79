package payments

import (
	"context"
	"testing"

	pkgerrors "github.com/jkiprotich/mifugo-market-backend/pkg/errors"
	"github.com/jkiprotich/mifugo-market-backend/pkg/logger"
	"github.com/jkiprotich/mifugo-market-backend/pkg/metrics"
	"github.com/jkiprotich/mifugo-market-backend/pkg/paystack"
)

func TestInitializeHostedValidatesBeforeNetwork(t *testing.T) {
	t.Parallel()

	client := &stubHostedClient{}
	gateway := newTestGateway(t, client)

	cases := []struct {
		name  string
		input InitializeInput
	}{
		{"empty email", InitializeInput{Amount: 1000}},
		{"malformed email", InitializeInput{Amount: 1000, PayerEmail: "not-an-email"}},
		{"non-positive amount", InitializeInput{Amount: 0, PayerEmail: "farmer@example.com"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := gateway.InitializeHosted(context.Background(), tc.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("unexpected error code: %v", err)
			}
		})
	}
	if client.initializeCalls != 0 {
		t.Fatalf("expected no network calls, got %d", client.initializeCalls)
	}
}

func TestInitializeHostedRetriesWithMinorUnits(t *testing.T) {
	t.Parallel()

	client := &stubHostedClient{
		initializeErrs: []error{
			pkgerrors.New(pkgerrors.CodeGatewayUnrecognized, "no checkout url"),
			nil,
		},
		initializeResult: &paystack.InitializeResult{
			AuthorizationURL: "https://checkout.paystack.com/abc123",
			Reference:        "PS-REF-1",
		},
	}
	gateway := newTestGateway(t, client)

	target, err := gateway.InitializeHosted(context.Background(), InitializeInput{
		Amount:     1500,
		PayerEmail: "farmer@example.com",
		Reference:  "PS-REF-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.URL != "https://checkout.paystack.com/abc123" {
		t.Fatalf("unexpected target url %q", target.URL)
	}
	if client.initializeCalls != 2 {
		t.Fatalf("expected 2 initialize attempts, got %d", client.initializeCalls)
	}
	if client.amounts[0] != 1500 || client.amounts[1] != 150000 {
		t.Fatalf("expected amounts [1500 150000], got %v", client.amounts)
	}
}

func TestInitializeHostedDoesNotRetryOnUnavailable(t *testing.T) {
	t.Parallel()

	client := &stubHostedClient{
		initializeErrs: []error{
			pkgerrors.New(pkgerrors.CodeGatewayUnavailable, "connection refused"),
		},
	}
	gateway := newTestGateway(t, client)

	_, err := gateway.InitializeHosted(context.Background(), InitializeInput{
		Amount:     1500,
		PayerEmail: "farmer@example.com",
	})
	if err == nil {
		t.Fatal("expected gateway error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeGatewayUnavailable {
		t.Fatalf("unexpected error code: %v", err)
	}
	if client.initializeCalls != 1 {
		t.Fatalf("expected single attempt, got %d", client.initializeCalls)
	}
}

func TestInitializeHostedSurfacesSecondFailure(t *testing.T) {
	t.Parallel()

	client := &stubHostedClient{
		initializeErrs: []error{
			pkgerrors.New(pkgerrors.CodeGatewayUnrecognized, "no checkout url"),
			pkgerrors.New(pkgerrors.CodeGatewayUnrecognized, "no checkout url"),
		},
	}
	gateway := newTestGateway(t, client)

	_, err := gateway.InitializeHosted(context.Background(), InitializeInput{
		Amount:     1500,
		PayerEmail: "farmer@example.com",
	})
	if err == nil {
		t.Fatal("expected error after exhausted retry")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeGatewayUnrecognized {
		t.Fatalf("unexpected error code: %v", err)
	}
	if client.initializeCalls != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", client.initializeCalls)
	}
}

func TestVerifyHostedMapsSettlement(t *testing.T) {
	t.Parallel()

	client := &stubHostedClient{
		verifyResult: &paystack.VerifyResult{
			Status:    "success",
			Reference: "PS-REF-9",
			Amount:    2200,
			Channel:   "card",
		},
	}
	gateway := newTestGateway(t, client)

	settlement, err := gateway.VerifyHosted(context.Background(), "PS-REF-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !settlement.Settled || settlement.Reference != "PS-REF-9" || settlement.Amount != 2200 {
		t.Fatalf("unexpected settlement: %+v", settlement)
	}
}

func TestMockMobileMoneyRequiresPhone(t *testing.T) {
	t.Parallel()

	gateway, err := NewMockMobileMoney(logger.New(logger.Options{}))
	if err != nil {
		t.Fatalf("building gateway: %v", err)
	}

	_, err = gateway.Charge(context.Background(), "  ", 1000)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error code: %v", err)
	}

	settlement, err := gateway.Charge(context.Background(), "254712345678", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !settlement.Settled || settlement.PaidAt == nil || settlement.Reference == "" {
		t.Fatalf("expected immediate settlement, got %+v", settlement)
	}
}

func newTestGateway(t *testing.T, client hostedClient) *PaystackGateway {
	t.Helper()
	gateway, err := NewPaystackGateway(client, "KES", "", logger.New(logger.Options{}), metrics.NewPaymentMetrics(nil))
	if err != nil {
		t.Fatalf("building gateway: %v", err)
	}
	return gateway
}

type stubHostedClient struct {
	initializeCalls  int
	initializeErrs   []error
	initializeResult *paystack.InitializeResult
	verifyResult     *paystack.VerifyResult
	verifyErr        error
	amounts          []int64
}

func (s *stubHostedClient) Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error) {
	idx := s.initializeCalls
	s.initializeCalls++
	s.amounts = append(s.amounts, req.Amount)
	if idx < len(s.initializeErrs) && s.initializeErrs[idx] != nil {
		return nil, s.initializeErrs[idx]
	}
	return s.initializeResult, nil
}

func (s *stubHostedClient) Verify(ctx context.Context, reference string) (*paystack.VerifyResult, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return s.verifyResult, nil
}
