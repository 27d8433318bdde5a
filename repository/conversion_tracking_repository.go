package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/webbuilder-crm/models"
	"gorm.io/gorm"
)

// ConversionTrackingRepositoryImpl implements ConversionTrackingRepository interface
type ConversionTrackingRepositoryImpl struct {
	*BaseRepository[models.ConversionTracking, models.ConversionTrackingFilter]
}

// NewConversionTrackingRepository creates a new conversion event repository
func NewConversionTrackingRepository(db *gorm.DB) ConversionTrackingRepository {
	return &ConversionTrackingRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ConversionTracking, models.ConversionTrackingFilter](db),
	}
}

// Append inserts the event. Inside an open transaction gorm issues a SAVEPOINT, so a
// failed insert rolls back to it and leaves the caller's writes intact.
func (r *ConversionTrackingRepositoryImpl) Append(ctx context.Context, event *models.ConversionTracking) error {
	db := r.getDB(ctx)
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("failed to append conversion event: %w", err)
		}
		return nil
	})
}

// CountByAction returns event counts per action inside the optional time window
func (r *ConversionTrackingRepositoryImpl) CountByAction(ctx context.Context, after, before *time.Time) (map[models.ConversionAction]int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ConversionTracking{}), models.ConversionTrackingFilter{After: after, Before: before})

	type row struct {
		Action models.ConversionAction
		Total  int64
	}
	var rows []row
	err := query.Select("action, COUNT(*) AS total").Group("action").Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count conversions by action: %w", err)
	}

	counts := make(map[models.ConversionAction]int64, len(models.ConversionActions))
	for _, a := range models.ConversionActions {
		counts[a] = 0
	}
	for _, rw := range rows {
		counts[rw.Action] = rw.Total
	}
	return counts, nil
}

// DetachLead clears the lead reference of the lead's events; the events themselves are kept
func (r *ConversionTrackingRepositoryImpl) DetachLead(ctx context.Context, leadID uint) (int64, error) {
	var affected int64
	err := r.write(ctx, func(db *gorm.DB) error {
		res := db.Model(&models.ConversionTracking{}).
			Where("lead_id = ?", leadID).
			Update("lead_id", nil)
		if res.Error != nil {
			return fmt.Errorf("failed to detach lead %d from conversions: %w", leadID, res.Error)
		}
		affected = res.RowsAffected
		return nil
	})
	return affected, err
}

func (r *ConversionTrackingRepositoryImpl) applyFilter(query *gorm.DB, filter models.ConversionTrackingFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.LeadID != nil {
		query = query.Where("lead_id = ?", *filter.LeadID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.Source != nil {
		query = query.Where("source = ?", *filter.Source)
	}
	if filter.After != nil {
		query = query.Where("recorded_at >= ?", *filter.After)
	}
	if filter.Before != nil {
		query = query.Where("recorded_at < ?", *filter.Before)
	}
	return query
}

// ByFilter retrieves conversion events, newest first by default
func (r *ConversionTrackingRepositoryImpl) ByFilter(ctx context.Context, filter models.ConversionTrackingFilter, orderBy string, limit, offset int) ([]*models.ConversionTracking, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ConversionTracking{}), filter)
	query = paginate(query, orderBy, "recorded_at DESC, id DESC", limit, offset)

	var events []*models.ConversionTracking
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list conversions: %w", err)
	}
	return events, nil
}

// Count returns the number of conversion events matching the filter
func (r *ConversionTrackingRepositoryImpl) Count(ctx context.Context, filter models.ConversionTrackingFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ConversionTracking{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count conversions: %w", err)
	}
	return count, nil
}
