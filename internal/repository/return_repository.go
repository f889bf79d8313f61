package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"returns-service/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrStatusConflict means the request was no longer in the expected
	// status when the conditional update ran: another actor won the race.
	ErrStatusConflict = errors.New("status conflict - request was modified by another actor")
)

// Cache TTLs. Request detail is read often by both parties while a
// claim is open; lists change too frequently to be worth caching.
const (
	requestCacheTTL    = 10 * time.Minute
	requestCachePrefix = "returns:request:"
)

// ReturnFilters represents filters for querying return requests
type ReturnFilters struct {
	CustomerID *uuid.UUID
	ShopID     *uuid.UUID
	Status     *models.ReturnStatus
	// AdminScope widens the escalation queue to every admin-touched
	// request (currently escalated OR already resolved by an admin).
	AdminScope bool
	Page       int
	Limit      int
}

// StatusUpdate describes one optimistic status transition: the write is
// conditioned on FromStatus and commits atomically with its history row.
type StatusUpdate struct {
	RequestID  uuid.UUID
	FromStatus models.ReturnStatus
	ToStatus   models.ReturnStatus
	Updates    map[string]interface{}
	History    models.ReturnRequestHistory
}

// ReturnRepositoryInterface defines the persistence operations of the
// return request store
type ReturnRepositoryInterface interface {
	Create(ctx context.Context, req *models.ReturnRequest, creation models.ReturnRequestHistory) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error)
	FindActiveBySubOrder(ctx context.Context, subOrderID uuid.UUID) (*models.ReturnRequest, error)
	FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.ReturnRequest, error)
	List(ctx context.Context, filters ReturnFilters) ([]models.ReturnRequest, int64, error)
	UpdateStatus(ctx context.Context, update StatusUpdate) error
	GetShopStats(ctx context.Context, shopID uuid.UUID) (*ShopReturnStats, error)
}

// ShopReturnStats aggregates a shop's return activity
type ShopReturnStats struct {
	Total         int64            `json:"total"`
	ByStatus      map[string]int64 `json:"byStatus"`
	TotalRefunded string           `json:"totalRefunded"`
}

type ReturnRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewReturnRepository creates a new return repository with optional
// Redis read caching
func NewReturnRepository(db *gorm.DB, redisClient *redis.Client) *ReturnRepository {
	return &ReturnRepository{db: db, redis: redisClient}
}

func requestCacheKey(id uuid.UUID) string {
	return requestCachePrefix + id.String()
}

// invalidateRequestCache drops the cached detail after any write
func (r *ReturnRepository) invalidateRequestCache(ctx context.Context, id uuid.UUID) {
	if r.redis == nil {
		return
	}
	_ = r.redis.Del(ctx, requestCacheKey(id)).Err()
}

// Create persists a new return request, its item rows and the creation
// history row in one transaction.
func (r *ReturnRepository) Create(ctx context.Context, req *models.ReturnRequest, creation models.ReturnRequestHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(req).Error; err != nil {
			return fmt.Errorf("failed to create return request: %w", err)
		}

		creation.ReturnRequestID = req.ID
		if err := tx.Create(&creation).Error; err != nil {
			return fmt.Errorf("failed to create history entry: %w", err)
		}

		return nil
	})
}

// GetByID retrieves a return request with all relations (with caching)
func (r *ReturnRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error) {
	if r.redis != nil {
		val, err := r.redis.Get(ctx, requestCacheKey(id)).Result()
		if err == nil {
			var cached models.ReturnRequest
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	var req models.ReturnRequest
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Shop").
		Preload("Customer").
		First(&req, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get return request: %w", err)
	}

	if r.redis != nil {
		if data, marshalErr := json.Marshal(req); marshalErr == nil {
			r.redis.Set(ctx, requestCacheKey(id), data, requestCacheTTL)
		}
	}

	return &req, nil
}

// FindActiveBySubOrder returns the open claim for a sub-order, if any.
// Rejected, cancelled and completed requests do not count as active.
func (r *ReturnRepository) FindActiveBySubOrder(ctx context.Context, subOrderID uuid.UUID) (*models.ReturnRequest, error) {
	var req models.ReturnRequest
	err := r.db.WithContext(ctx).
		Where("sub_order_id = ? AND status IN ?", subOrderID, models.ActiveReturnStatuses).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query active return request: %w", err)
	}
	return &req, nil
}

// FindExpiredPending returns pending requests whose shop response
// deadline has passed, oldest first. Used by the expiry sweep.
func (r *ReturnRepository) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.ReturnRequest, error) {
	var requests []models.ReturnRequest
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", models.ReturnStatusPending, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query expired requests: %w", err)
	}
	return requests, nil
}

// List retrieves return requests with pagination, scoped to a customer,
// a shop, or the admin escalation queue.
func (r *ReturnRepository) List(ctx context.Context, filters ReturnFilters) ([]models.ReturnRequest, int64, error) {
	var requests []models.ReturnRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ReturnRequest{})

	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.ShopID != nil {
		query = query.Where("shop_id = ?", *filters.ShopID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	} else if filters.AdminScope {
		query = query.Where("status = ? OR resolved_by IS NOT NULL", models.ReturnStatusEscalated)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count return requests: %w", err)
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}
	limit := filters.Limit
	if limit < 1 {
		limit = 10
	}

	err := query.
		Preload("Items").
		Preload("Shop").
		Preload("Customer").
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&requests).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list return requests: %w", err)
	}

	return requests, total, nil
}

// UpdateStatus applies one state transition. The update is conditioned
// on the expected from-status so concurrent actors cannot both succeed;
// the history row commits in the same transaction as the state change.
func (r *ReturnRepository) UpdateStatus(ctx context.Context, update StatusUpdate) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": update.ToStatus}
		for k, v := range update.Updates {
			updates[k] = v
		}

		res := tx.Model(&models.ReturnRequest{}).
			Where("id = ? AND status = ?", update.RequestID, update.FromStatus).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update return request status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrStatusConflict
		}

		history := update.History
		history.ReturnRequestID = update.RequestID
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to create history entry: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	r.invalidateRequestCache(ctx, update.RequestID)
	return nil
}

// GetShopStats aggregates return counts and refunded total for a shop
func (r *ReturnRepository) GetShopStats(ctx context.Context, shopID uuid.UUID) (*ShopReturnStats, error) {
	stats := &ShopReturnStats{ByStatus: make(map[string]int64)}

	if err := r.db.WithContext(ctx).Model(&models.ReturnRequest{}).
		Where("shop_id = ?", shopID).
		Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count shop returns: %w", err)
	}

	var statusCounts []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&models.ReturnRequest{}).
		Select("status, count(*) as count").
		Where("shop_id = ?", shopID).
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, fmt.Errorf("failed to count shop returns by status: %w", err)
	}
	for _, sc := range statusCounts {
		stats.ByStatus[sc.Status] = sc.Count
	}

	var totalRefunded string
	if err := r.db.WithContext(ctx).Model(&models.ReturnRequest{}).
		Where("shop_id = ? AND status IN ?", shopID, []models.ReturnStatus{models.ReturnStatusRefunded, models.ReturnStatusCompleted}).
		Select("COALESCE(SUM(refund_amount), 0)").
		Scan(&totalRefunded).Error; err != nil {
		return nil, fmt.Errorf("failed to sum refunded amount: %w", err)
	}
	stats.TotalRefunded = totalRefunded

	return stats, nil
}
