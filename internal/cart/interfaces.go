package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkiprotich/mifugo-market-backend/pkg/db/models"
)

// CartRepository abstracts cart persistence for the service layer.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.CartItem, error)
	FindByIDAndBuyer(ctx context.Context, id, buyerID uuid.UUID) (*models.CartItem, error)
	FindByBuyerAndProduct(ctx context.Context, buyerID, productID uuid.UUID) (*models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) error
	Save(ctx context.Context, item *models.CartItem) error
	Delete(ctx context.Context, id, buyerID uuid.UUID) error
	DeleteByBuyer(ctx context.Context, buyerID uuid.UUID) error
}
