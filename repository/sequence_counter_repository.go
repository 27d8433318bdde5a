package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceCounterRepositoryImpl implements SequenceCounterRepository interface
type SequenceCounterRepositoryImpl struct {
	*BaseRepository[models.SequenceCounter, struct{}]
}

// NewSequenceCounterRepository creates a new sequence counter repository
func NewSequenceCounterRepository(db *gorm.DB) SequenceCounterRepository {
	return &SequenceCounterRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SequenceCounter, struct{}](db),
	}
}

// Next seeds the counter row if needed, locks it with SELECT ... FOR UPDATE and advances it.
// Concurrent callers for the same name queue on the row lock until the holder commits.
func (r *SequenceCounterRepositoryImpl) Next(ctx context.Context, name string, floor int64) (int64, error) {
	var next int64
	err := r.write(ctx, func(db *gorm.DB) error {
		now := utils.UTCNow()
		seed := models.SequenceCounter{Name: name, LastValue: "0", CreatedAt: now, UpdatedAt: now}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return fmt.Errorf("failed to seed sequence counter %s: %w", name, err)
		}

		var counter models.SequenceCounter
		err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", name).
			Take(&counter).Error
		if err != nil {
			return fmt.Errorf("failed to lock sequence counter %s: %w", name, err)
		}

		last, err := strconv.ParseInt(counter.LastValue, 10, 64)
		if err != nil {
			return fmt.Errorf("sequence counter %s holds non-numeric value %q: %w", name, counter.LastValue, err)
		}
		if floor > last {
			last = floor
		}
		next = last + 1

		err = db.Model(&models.SequenceCounter{}).
			Where("name = ?", name).
			Updates(map[string]any{"last_value": strconv.FormatInt(next, 10), "updated_at": now}).Error
		if err != nil {
			return fmt.Errorf("failed to advance sequence counter %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Current returns the last issued value, or 0 for a counter that was never advanced
func (r *SequenceCounterRepositoryImpl) Current(ctx context.Context, name string) (int64, error) {
	db := r.getDB(ctx)

	var counter models.SequenceCounter
	err := db.Where("name = ?", name).Take(&counter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read sequence counter %s: %w", name, err)
	}

	value, err := strconv.ParseInt(counter.LastValue, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sequence counter %s holds non-numeric value %q: %w", name, counter.LastValue, err)
	}
	return value, nil
}
