package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkiprotich/mifugo-market-backend/pkg/db/models"
)

// ProductRepository abstracts catalog persistence for the service layer.
type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	List(ctx context.Context, filter ListFilter) ([]models.Product, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}
