package payments

import (
	"context"
	"time"
)

// AuthorizationTarget is the navigable confirmation target returned by a
// hosted-checkout initialization.
type AuthorizationTarget struct {
	URL        string `json:"authorization_url"`
	AccessCode string `json:"access_code,omitempty"`
	Reference  string `json:"reference"`
}

// Settlement is the outcome of verifying a transaction reference.
type Settlement struct {
	Settled   bool
	Reference string
	Amount    int64
	Channel   string
	PaidAt    *time.Time
	Message   string
}

// InitializeInput carries the fields needed to start a hosted checkout.
type InitializeInput struct {
	Amount     int64
	PayerEmail string
	Reference  string
	Metadata   map[string]any
}

// HostedGateway drives the redirect-based card/bank checkout protocol.
type HostedGateway interface {
	InitializeHosted(ctx context.Context, input InitializeInput) (*AuthorizationTarget, error)
	VerifyHosted(ctx context.Context, reference string) (*Settlement, error)
}

// MobileMoneyGateway drives the synchronous mobile-money protocol. The current
// provider integration is a mock that settles immediately.
type MobileMoneyGateway interface {
	Charge(ctx context.Context, phone string, amount int64) (*Settlement, error)
}
