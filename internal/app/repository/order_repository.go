package repository

import (
	"context"
	"time"

	"github.com/spsports/sps-backend/internal/app/model"
	"github.com/spsports/sps-backend/pkg/logger"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error)
	FindAll(ctx context.Context) ([]model.Order, error)
	AppendTracking(ctx context.Context, orderID uint, updates map[string]interface{}, event *model.TrackingEvent) error
	MarkPaid(ctx context.Context, orderID uint, paidAt time.Time) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// withDetails preloads items and the tracking history in chronological order.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items").
		Preload("TrackingHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("recorded_at ASC").Order("id ASC")
		})
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"order_number": order.OrderNumber,
		"items_count":  len(order.Items),
		"total_price":  order.TotalPrice,
	})

	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"order_number": order.OrderNumber,
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	})
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	if err := withDetails(r.db.WithContext(ctx)).First(&order, id).Error; err != nil {
		logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}

	logger.Debug("Order found by ID in database", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	})
	return &order, nil
}

func (r *orderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	logger.Debug("Finding order by number in database", map[string]interface{}{
		"order_number": orderNumber,
	})

	var order model.Order
	err := withDetails(r.db.WithContext(ctx)).
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		logger.Error("Failed to find order by number in database", err, map[string]interface{}{
			"order_number": orderNumber,
		})
		return nil, err
	}

	logger.Debug("Order found by number in database", map[string]interface{}{
		"order_id": order.ID,
	})
	return &order, nil
}

// FindAll returns every order, newest first.
func (r *orderRepository) FindAll(ctx context.Context) ([]model.Order, error) {
	logger.Debug("Finding all orders in database")

	var orders []model.Order
	err := withDetails(r.db.WithContext(ctx)).
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to find orders in database", err)
		return nil, err
	}

	logger.Debug("Orders found in database", map[string]interface{}{
		"count": len(orders),
	})
	return orders, nil
}

// AppendTracking applies the status updates and records the history event
// in one transaction.
func (r *orderRepository) AppendTracking(ctx context.Context, orderID uint, updates map[string]interface{}, event *model.TrackingEvent) error {
	logger.Debug("Appending tracking event in database", map[string]interface{}{
		"order_id": orderID,
		"status":   event.Status,
	})

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Order{}).Where("id = ?", orderID).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		event.OrderID = orderID
		return tx.Create(event).Error
	})
	if err != nil {
		logger.Error("Failed to append tracking event in database", err, map[string]interface{}{
			"order_id": orderID,
		})
		return err
	}

	logger.Debug("Tracking event appended in database", map[string]interface{}{
		"order_id": orderID,
		"event_id": event.ID,
	})
	return nil
}

func (r *orderRepository) MarkPaid(ctx context.Context, orderID uint, paidAt time.Time) error {
	logger.Debug("Marking order paid in database", map[string]interface{}{
		"order_id": orderID,
	})

	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"is_paid": true,
			"paid_at": paidAt,
		})
	if result.Error != nil {
		logger.Error("Failed to mark order paid in database", result.Error, map[string]interface{}{
			"order_id": orderID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.Debug("Order marked paid in database", map[string]interface{}{
		"order_id": orderID,
	})
	return nil
}
