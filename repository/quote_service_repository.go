package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/webbuilder-crm/models"
	"gorm.io/gorm"
)

// QuoteServiceRepositoryImpl implements QuoteServiceRepository interface
type QuoteServiceRepositoryImpl struct {
	*BaseRepository[models.QuoteService, models.QuoteServiceFilter]
}

// NewQuoteServiceRepository creates a new line item repository
func NewQuoteServiceRepository(db *gorm.DB) QuoteServiceRepository {
	return &QuoteServiceRepositoryImpl{
		BaseRepository: NewBaseRepository[models.QuoteService, models.QuoteServiceFilter](db),
	}
}

// ListByQuote returns the line items of a quote in authoring order
func (r *QuoteServiceRepositoryImpl) ListByQuote(ctx context.Context, quoteID uint) ([]*models.QuoteService, error) {
	return r.ByFilter(ctx, models.QuoteServiceFilter{QuoteID: &quoteID}, "id ASC", 0, 0)
}

// DeleteByQuote removes every line item of a quote
func (r *QuoteServiceRepositoryImpl) DeleteByQuote(ctx context.Context, quoteID uint) error {
	return r.write(ctx, func(db *gorm.DB) error {
		if err := db.Where("quote_id = ?", quoteID).Delete(&models.QuoteService{}).Error; err != nil {
			return fmt.Errorf("failed to delete line items of quote %d: %w", quoteID, err)
		}
		return nil
	})
}

func (r *QuoteServiceRepositoryImpl) applyFilter(query *gorm.DB, filter models.QuoteServiceFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.QuoteID != nil {
		query = query.Where("quote_id = ?", *filter.QuoteID)
	}
	if filter.ServiceID != nil {
		query = query.Where("service_id = ?", *filter.ServiceID)
	}
	return query
}

// ByFilter retrieves line items based on filter criteria
func (r *QuoteServiceRepositoryImpl) ByFilter(ctx context.Context, filter models.QuoteServiceFilter, orderBy string, limit, offset int) ([]*models.QuoteService, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.QuoteService{}), filter)
	query = paginate(query, orderBy, "id ASC", limit, offset)

	var items []*models.QuoteService
	if err := query.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list line items: %w", err)
	}
	return items, nil
}

// Count returns the number of line items matching the filter
func (r *QuoteServiceRepositoryImpl) Count(ctx context.Context, filter models.QuoteServiceFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.QuoteService{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count line items: %w", err)
	}
	return count, nil
}

// Exists checks if any line item matching the filter exists
func (r *QuoteServiceRepositoryImpl) Exists(ctx context.Context, filter models.QuoteServiceFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
