package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/jkiprotich/mifugo-market-backend/pkg/errors"
	"github.com/jkiprotich/mifugo-market-backend/pkg/logger"
)

// MockMobileMoney settles every charge synchronously. It stands in for the
// STK-push integration until the telco contract lands.
type MockMobileMoney struct {
	logg *logger.Logger
	now  func() time.Time
}

// NewMockMobileMoney builds the synchronous mobile-money gateway.
func NewMockMobileMoney(logg *logger.Logger) (*MockMobileMoney, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &MockMobileMoney{logg: logg, now: time.Now}, nil
}

// Charge validates the payer contact and returns an immediate settlement.
func (g *MockMobileMoney) Charge(ctx context.Context, phone string, amount int64) (*Settlement, error) {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payer phone number is required")
	}
	if amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	paidAt := g.now()
	reference := "MM-" + strings.ToUpper(uuid.NewString()[:12])

	logCtx := g.logg.WithFields(ctx, map[string]any{
		"reference": reference,
		"amount":    amount,
	})
	g.logg.Info(logCtx, "mobile money charge settled (mock)")

	return &Settlement{
		Settled:   true,
		Reference: reference,
		Amount:    amount,
		Channel:   "mobile_money",
		PaidAt:    &paidAt,
		Message:   "success",
	}, nil
}
