package repository

import (
	"context"
	"time"

	"github.com/spsports/sps-backend/internal/app/model"
	"github.com/spsports/sps-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderCounterRepository keeps one counter row per day and hands out
// sequence values atomically. It satisfies ordernumber.Sequencer.
type OrderCounterRepository interface {
	Next(ctx context.Context, day string) (int64, error)
	PruneBefore(ctx context.Context, day string) (int64, error)
}

type orderCounterRepository struct {
	db *gorm.DB
}

func NewOrderCounterRepository(db *gorm.DB) OrderCounterRepository {
	return &orderCounterRepository{db: db}
}

// Next upserts the day's row with seq = seq + 1 and reads the new value
// inside the same transaction, so concurrent callers never share a value.
func (r *orderCounterRepository) Next(ctx context.Context, day string) (int64, error) {
	var counter model.OrderCounter
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"seq":        gorm.Expr("order_counters.seq + 1"),
				"updated_at": time.Now(),
			}),
		}).Create(&model.OrderCounter{Day: day, Seq: 1}).Error
		if err != nil {
			return err
		}
		return tx.Where("day = ?", day).Take(&counter).Error
	})
	if err != nil {
		logger.Error("Failed to reserve order sequence in database", err, map[string]interface{}{
			"day": day,
		})
		return 0, err
	}

	logger.Debug("Order sequence reserved in database", map[string]interface{}{
		"day": day,
		"seq": counter.Seq,
	})
	return counter.Seq, nil
}

// PruneBefore removes counter rows for days strictly before day.
// YYMMDD keys sort chronologically within a century.
func (r *orderCounterRepository) PruneBefore(ctx context.Context, day string) (int64, error) {
	logger.Debug("Pruning order counters in database", map[string]interface{}{
		"before": day,
	})

	result := r.db.WithContext(ctx).Where("day < ?", day).Delete(&model.OrderCounter{})
	if result.Error != nil {
		logger.Error("Failed to prune order counters in database", result.Error, map[string]interface{}{
			"before": day,
		})
		return 0, result.Error
	}

	logger.Debug("Order counters pruned in database", map[string]interface{}{
		"removed": result.RowsAffected,
	})
	return result.RowsAffected, nil
}
