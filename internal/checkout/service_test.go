package checkout

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkiprotich/mifugo-market-backend/internal/cart"
	"github.com/jkiprotich/mifugo-market-backend/internal/orders"
	"github.com/jkiprotich/mifugo-market-backend/internal/payments"
	"github.com/jkiprotich/mifugo-market-backend/pkg/db/models"
	"github.com/jkiprotich/mifugo-market-backend/pkg/enums"
	pkgerrors "github.com/jkiprotich/mifugo-market-backend/pkg/errors"
	"github.com/jkiprotich/mifugo-market-backend/pkg/logger"
	"github.com/jkiprotich/mifugo-market-backend/pkg/outbox"
	"github.com/jkiprotich/mifugo-market-backend/pkg/pagination"
)

func TestMobileMoneyCheckoutSettlesImmediately(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	supplierID := uuid.New()
	cartRepo := &stubCartRepo{rows: checkoutCart(buyerID, supplierID)}
	orderRepo := &recordingOrderRepo{}
	emitter := &stubEmitter{}
	svc := newCheckoutService(t, cartRepo, orderRepo, &stubHosted{}, &stubMomo{}, emitter)

	dto, err := svc.MobileMoneyCheckout(context.Background(), Actor{UserID: buyerID}, MobileMoneyInput{Phone: "254712345678"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.PaymentStatus != enums.PaymentStatusCompleted {
		t.Fatalf("expected completed payment, got %s", dto.PaymentStatus)
	}
	if dto.Status != enums.OrderStatusPending {
		t.Fatalf("fulfillment must start pending, got %s", dto.Status)
	}
	if dto.Total != 3200 {
		t.Fatalf("expected total 3200, got %d", dto.Total)
	}
	if len(dto.Items) != 2 {
		t.Fatalf("expected 2 line snapshots, got %d", len(dto.Items))
	}
	if orderRepo.created == nil || orderRepo.created.PaidAt == nil {
		t.Fatal("order must be persisted settled")
	}
	if cartRepo.clearCalls != 1 {
		t.Fatalf("cart must be cleared once, got %d", cartRepo.clearCalls)
	}
	if len(emitter.events) != 2 ||
		emitter.events[0].EventType != enums.EventOrderCreated ||
		emitter.events[1].EventType != enums.EventOrderPaid {
		t.Fatalf("expected created+paid events, got %+v", emitter.events)
	}
}

func TestMobileMoneyCheckoutEmptyCart(t *testing.T) {
	t.Parallel()

	cartRepo := &stubCartRepo{}
	orderRepo := &recordingOrderRepo{}
	svc := newCheckoutService(t, cartRepo, orderRepo, &stubHosted{}, &stubMomo{}, &stubEmitter{})

	_, err := svc.MobileMoneyCheckout(context.Background(), Actor{UserID: uuid.New()}, MobileMoneyInput{Phone: "254712345678"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("expected empty-cart error, got %v", err)
	}
	if orderRepo.created != nil {
		t.Fatal("no order may be created for an empty cart")
	}
}

func TestInitializeHostedCreatesPendingOrderFirst(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	cartRepo := &stubCartRepo{rows: checkoutCart(buyerID, uuid.New())}
	orderRepo := &recordingOrderRepo{}
	hosted := &stubHosted{target: &payments.AuthorizationTarget{URL: "https://checkout.example/abc", AccessCode: "abc"}}
	emitter := &stubEmitter{}
	svc := newCheckoutService(t, cartRepo, orderRepo, hosted, &stubMomo{}, emitter)

	out, err := svc.InitializeHosted(context.Background(), Actor{UserID: buyerID}, HostedInput{Email: "buyer@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AuthorizationURL != "https://checkout.example/abc" {
		t.Fatalf("unexpected redirect target: %+v", out)
	}
	if !strings.HasPrefix(out.Reference, "PS-") {
		t.Fatalf("expected server-generated reference, got %q", out.Reference)
	}
	if orderRepo.created == nil || orderRepo.created.PaidAt != nil {
		t.Fatal("order must be persisted pending before the gateway call")
	}
	if orderRepo.created.PaymentReference == nil || *orderRepo.created.PaymentReference != out.Reference {
		t.Fatal("persisted reference must match the returned one")
	}
	if cartRepo.clearCalls != 1 {
		t.Fatal("cart must be cleared alongside order creation")
	}
	if len(hosted.initCalls) != 1 || hosted.initCalls[0].Amount != 3200 {
		t.Fatalf("gateway must be charged the cart total, got %+v", hosted.initCalls)
	}
	if hosted.initCalls[0].Metadata["order_id"] != orderRepo.created.ID.String() {
		t.Fatal("gateway metadata must carry the order id")
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("expected one created event, got %+v", emitter.events)
	}
}

func TestInitializeHostedRejectsMismatchedAmount(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	cartRepo := &stubCartRepo{rows: checkoutCart(buyerID, uuid.New())}
	orderRepo := &recordingOrderRepo{}
	svc := newCheckoutService(t, cartRepo, orderRepo, &stubHosted{}, &stubMomo{}, &stubEmitter{})

	_, err := svc.InitializeHosted(context.Background(), Actor{UserID: buyerID}, HostedInput{Email: "buyer@example.com", Amount: 999})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if orderRepo.created != nil {
		t.Fatal("no order may be created on an amount mismatch")
	}
}

func TestInitializeHostedGatewayFailureLeavesPendingOrder(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	cartRepo := &stubCartRepo{rows: checkoutCart(buyerID, uuid.New())}
	orderRepo := &recordingOrderRepo{}
	hosted := &stubHosted{initErr: pkgerrors.New(pkgerrors.CodeGatewayUnavailable, "provider down")}
	svc := newCheckoutService(t, cartRepo, orderRepo, hosted, &stubMomo{}, &stubEmitter{})

	_, err := svc.InitializeHosted(context.Background(), Actor{UserID: buyerID}, HostedInput{Email: "buyer@example.com"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeGatewayUnavailable {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if orderRepo.created == nil {
		t.Fatal("pending order must survive the gateway failure for pay-again")
	}
}

func TestVerifyHostedRecordsSettlement(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	reference := "PS-TESTREF"
	order := pendingHostedOrder(buyerID, reference)
	orderRepo := &recordingOrderRepo{byReference: order}
	paidAt := time.Now()
	hosted := &stubHosted{settlement: &payments.Settlement{Settled: true, Reference: reference, PaidAt: &paidAt}}
	emitter := &stubEmitter{}
	svc := newCheckoutService(t, &stubCartRepo{}, orderRepo, hosted, &stubMomo{}, emitter)

	dto, err := svc.VerifyHosted(context.Background(), Actor{UserID: buyerID}, reference)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.PaymentStatus != enums.PaymentStatusCompleted {
		t.Fatalf("expected completed payment, got %s", dto.PaymentStatus)
	}
	if orderRepo.markPaidCalls != 1 {
		t.Fatalf("expected one settlement write, got %d", orderRepo.markPaidCalls)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventOrderPaid {
		t.Fatalf("expected one paid event, got %+v", emitter.events)
	}
}

func TestVerifyHostedIsIdempotentForSettledOrder(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	reference := "PS-TESTREF"
	order := pendingHostedOrder(buyerID, reference)
	paidAt := time.Now()
	order.PaidAt = &paidAt
	orderRepo := &recordingOrderRepo{byReference: order}
	hosted := &stubHosted{}
	svc := newCheckoutService(t, &stubCartRepo{}, orderRepo, hosted, &stubMomo{}, &stubEmitter{})

	dto, err := svc.VerifyHosted(context.Background(), Actor{UserID: buyerID}, reference)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.PaymentStatus != enums.PaymentStatusCompleted {
		t.Fatalf("expected completed payment, got %s", dto.PaymentStatus)
	}
	if hosted.verifyCalls != 0 {
		t.Fatal("settled orders must not hit the gateway again")
	}
	if orderRepo.markPaidCalls != 0 {
		t.Fatal("settled orders must not be rewritten")
	}
}

func TestVerifyHostedUnsettledEmitsFailure(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	reference := "PS-TESTREF"
	order := pendingHostedOrder(buyerID, reference)
	orderRepo := &recordingOrderRepo{byReference: order}
	hosted := &stubHosted{settlement: &payments.Settlement{Settled: false, Message: "abandoned"}}
	emitter := &stubEmitter{}
	svc := newCheckoutService(t, &stubCartRepo{}, orderRepo, hosted, &stubMomo{}, emitter)

	_, err := svc.VerifyHosted(context.Background(), Actor{UserID: buyerID}, reference)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if orderRepo.markPaidCalls != 0 {
		t.Fatal("unsettled verification must not record payment")
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventPaymentFailed {
		t.Fatalf("expected one failure event, got %+v", emitter.events)
	}
}

func TestVerifyHostedScopedToBuyer(t *testing.T) {
	t.Parallel()

	reference := "PS-TESTREF"
	order := pendingHostedOrder(uuid.New(), reference)
	orderRepo := &recordingOrderRepo{byReference: order}
	svc := newCheckoutService(t, &stubCartRepo{}, orderRepo, &stubHosted{}, &stubMomo{}, &stubEmitter{})

	_, err := svc.VerifyHosted(context.Background(), Actor{UserID: uuid.New()}, reference)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found for foreign order, got %v", err)
	}
}

func TestReinitializeHostedIssuesFreshReference(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	order := pendingHostedOrder(buyerID, "PS-OLDREF")
	orderRepo := &recordingOrderRepo{order: order}
	hosted := &stubHosted{target: &payments.AuthorizationTarget{URL: "https://checkout.example/retry"}}
	svc := newCheckoutService(t, &stubCartRepo{}, orderRepo, hosted, &stubMomo{}, &stubEmitter{})

	out, err := svc.ReinitializeHosted(context.Background(), Actor{UserID: buyerID}, order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Reference == "PS-OLDREF" || !strings.HasPrefix(out.Reference, "PS-") {
		t.Fatalf("expected a fresh reference, got %q", out.Reference)
	}
	if orderRepo.statusUpdates != 1 {
		t.Fatal("refreshed reference must be persisted before the gateway call")
	}
	if len(hosted.initCalls) != 1 || hosted.initCalls[0].Amount != order.TotalAmount {
		t.Fatalf("gateway must be charged the order total, got %+v", hosted.initCalls)
	}
}

func TestReinitializeHostedRejectsSettledOrder(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	order := pendingHostedOrder(buyerID, "PS-OLDREF")
	paidAt := time.Now()
	order.PaidAt = &paidAt
	orderRepo := &recordingOrderRepo{order: order}
	svc := newCheckoutService(t, &stubCartRepo{}, orderRepo, &stubHosted{}, &stubMomo{}, &stubEmitter{})

	_, err := svc.ReinitializeHosted(context.Background(), Actor{UserID: buyerID}, order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func checkoutCart(buyerID, supplierID uuid.UUID) []models.CartItem {
	return []models.CartItem{
		{ID: uuid.New(), BuyerID: buyerID, ProductID: uuid.New(), SupplierID: supplierID, ProductName: "Dewormer", UnitPrice: 450, Quantity: 2, AvailableStock: 10},
		{ID: uuid.New(), BuyerID: buyerID, ProductID: uuid.New(), SupplierID: supplierID, ProductName: "Feed", UnitPrice: 2300, Quantity: 1, AvailableStock: 4},
	}
}

func pendingHostedOrder(buyerID uuid.UUID, reference string) *models.Order {
	return &models.Order{
		ID:               uuid.New(),
		OrderNumber:      1042,
		BuyerID:          buyerID,
		SupplierID:       uuid.New(),
		Status:           enums.OrderStatusPending,
		PaymentMethod:    enums.PaymentMethodPaystack,
		PaymentReference: &reference,
		TotalAmount:      3200,
		BuyerEmail:       ptr("buyer@example.com"),
	}
}

func ptr[T any](v T) *T { return &v }

func newCheckoutService(
	t *testing.T,
	cartRepo *stubCartRepo,
	orderRepo *recordingOrderRepo,
	hosted *stubHosted,
	momo *stubMomo,
	emitter *stubEmitter,
) Service {
	t.Helper()
	svc, err := NewService(cartRepo, orderRepo, stubTxRunner{}, hosted, momo, emitter, logger.New(logger.Options{}))
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return svc
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubCartRepo struct {
	rows       []models.CartItem
	clearCalls int
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) cart.CartRepository { return s }

func (s *stubCartRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.CartItem, error) {
	return s.rows, nil
}

func (s *stubCartRepo) FindByIDAndBuyer(ctx context.Context, id, buyerID uuid.UUID) (*models.CartItem, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) FindByBuyerAndProduct(ctx context.Context, buyerID, productID uuid.UUID) (*models.CartItem, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) Create(ctx context.Context, item *models.CartItem) error { return nil }

func (s *stubCartRepo) Save(ctx context.Context, item *models.CartItem) error { return nil }

func (s *stubCartRepo) Delete(ctx context.Context, id, buyerID uuid.UUID) error { return nil }

func (s *stubCartRepo) DeleteByBuyer(ctx context.Context, buyerID uuid.UUID) error {
	s.clearCalls++
	return nil
}

type recordingOrderRepo struct {
	order         *models.Order
	byReference   *models.Order
	created       *models.Order
	statusUpdates int
	markPaidCalls int
}

func (s *recordingOrderRepo) WithTx(tx *gorm.DB) orders.OrderRepository { return s }

func (s *recordingOrderRepo) Create(ctx context.Context, order *models.Order) error {
	s.created = order
	return nil
}

func (s *recordingOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.find(id)
}

func (s *recordingOrderRepo) FindByIDAndBuyer(ctx context.Context, id, buyerID uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.BuyerID != buyerID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.find(id)
}

func (s *recordingOrderRepo) FindByIDAndSupplier(ctx context.Context, id, supplierID uuid.UUID) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *recordingOrderRepo) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	if s.byReference == nil || s.byReference.PaymentReference == nil || *s.byReference.PaymentReference != reference {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *s.byReference
	return &clone, nil
}

func (s *recordingOrderRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	return nil, nil
}

func (s *recordingOrderRepo) ListBySupplier(ctx context.Context, supplierID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	return nil, nil
}

func (s *recordingOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.statusUpdates++
	return nil
}

func (s *recordingOrderRepo) MarkPaid(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.markPaidCalls++
	return nil
}

func (s *recordingOrderRepo) find(id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *s.order
	return &clone, nil
}

type stubHosted struct {
	target      *payments.AuthorizationTarget
	initErr     error
	settlement  *payments.Settlement
	initCalls   []payments.InitializeInput
	verifyCalls int
}

func (s *stubHosted) InitializeHosted(ctx context.Context, input payments.InitializeInput) (*payments.AuthorizationTarget, error) {
	s.initCalls = append(s.initCalls, input)
	if s.initErr != nil {
		return nil, s.initErr
	}
	if s.target != nil {
		return s.target, nil
	}
	return &payments.AuthorizationTarget{URL: "https://checkout.example/session"}, nil
}

func (s *stubHosted) VerifyHosted(ctx context.Context, reference string) (*payments.Settlement, error) {
	s.verifyCalls++
	if s.settlement != nil {
		return s.settlement, nil
	}
	return &payments.Settlement{Settled: false, Message: "pending"}, nil
}

type stubMomo struct{}

func (stubMomo) Charge(ctx context.Context, phone string, amount int64) (*payments.Settlement, error) {
	paidAt := time.Now()
	return &payments.Settlement{
		Settled:   true,
		Reference: "MM-TESTREF",
		PaidAt:    &paidAt,
	}, nil
}
