package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"returns-service/internal/models"
)

// SubOrderRepositoryInterface is the contract the return engine needs
// from the order subsystem: read a sub-order with its items, and mirror
// the coarse return status back onto it.
type SubOrderRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.SubOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.SubOrderStatus) error
}

type SubOrderRepository struct {
	db *gorm.DB
}

// NewSubOrderRepository creates a new sub-order repository
func NewSubOrderRepository(db *gorm.DB) *SubOrderRepository {
	return &SubOrderRepository{db: db}
}

// GetByID retrieves a sub-order with its order items
func (r *SubOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SubOrder, error) {
	var subOrder models.SubOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&subOrder, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get sub-order: %w", err)
	}
	return &subOrder, nil
}

// UpdateStatus mirrors a return-driven status onto the sub-order
func (r *SubOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SubOrderStatus) error {
	res := r.db.WithContext(ctx).Model(&models.SubOrder{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update sub-order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
