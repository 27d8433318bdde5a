package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QuoteRepositoryImpl implements QuoteRepository interface
type QuoteRepositoryImpl struct {
	*BaseRepository[models.Quote, models.QuoteFilter]
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *gorm.DB) QuoteRepository {
	return &QuoteRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Quote, models.QuoteFilter](db),
	}
}

var openQuoteStatuses = []models.QuoteStatus{models.QuoteStatusDraft, models.QuoteStatusSent}

// ByIDWithItems retrieves a quote with its line items in authoring order
func (r *QuoteRepositoryImpl) ByIDWithItems(ctx context.Context, id uint) (*models.Quote, error) {
	db := r.getDB(ctx)

	var quote models.Quote
	err := db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("id ASC")
	}).Preload("Items.Service").
		Where("id = ?", id).
		Take(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find quote %d: %w", id, err)
	}
	return &quote, nil
}

// ByQuoteNumber retrieves a quote by its assigned number
func (r *QuoteRepositoryImpl) ByQuoteNumber(ctx context.Context, quoteNumber string) (*models.Quote, error) {
	quotes, err := r.ByFilter(ctx, models.QuoteFilter{QuoteNumber: &quoteNumber}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, nil
	}
	return quotes[0], nil
}

// LatestNumberWithPrefix orders by length first so Q20251000 sorts after Q2025999
func (r *QuoteRepositoryImpl) LatestNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	db := r.getDB(ctx)

	var numbers []string
	err := db.Model(&models.Quote{}).
		Where("quote_number LIKE ?", prefix+"%").
		Order("LENGTH(quote_number) DESC, quote_number DESC").
		Limit(1).
		Pluck("quote_number", &numbers).Error
	if err != nil {
		return "", fmt.Errorf("failed to find latest quote number for %s: %w", prefix, err)
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

// UpdateTotals stores the calculator output without touching other columns
func (r *QuoteRepositoryImpl) UpdateTotals(ctx context.Context, quoteID uint, subtotal, taxAmount, total decimal.Decimal) error {
	return r.write(ctx, func(db *gorm.DB) error {
		err := db.Model(&models.Quote{}).
			Where("id = ?", quoteID).
			Updates(map[string]any{
				"subtotal":     subtotal,
				"tax_amount":   taxAmount,
				"total_amount": total,
				"updated_at":   utils.UTCNow(),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to update totals of quote %d: %w", quoteID, err)
		}
		return nil
	})
}

// DetachLead clears the lead reference on every quote of the lead
func (r *QuoteRepositoryImpl) DetachLead(ctx context.Context, leadID uint) (int64, error) {
	var affected int64
	err := r.write(ctx, func(db *gorm.DB) error {
		res := db.Model(&models.Quote{}).
			Where("lead_id = ?", leadID).
			Updates(map[string]any{"lead_id": nil, "updated_at": utils.UTCNow()})
		if res.Error != nil {
			return fmt.Errorf("failed to detach lead %d from quotes: %w", leadID, res.Error)
		}
		affected = res.RowsAffected
		return nil
	})
	return affected, err
}

// MarkExpired persists the expired status for open quotes whose validity ended before today
func (r *QuoteRepositoryImpl) MarkExpired(ctx context.Context, today time.Time) (int64, error) {
	day := utils.TruncateToDate(today)
	var affected int64
	err := r.write(ctx, func(db *gorm.DB) error {
		res := db.Model(&models.Quote{}).
			Where("status IN ? AND valid_until < ?", openQuoteStatuses, day).
			Updates(map[string]any{"status": models.QuoteStatusExpired, "updated_at": utils.UTCNow()})
		if res.Error != nil {
			return fmt.Errorf("failed to mark expired quotes: %w", res.Error)
		}
		affected = res.RowsAffected
		return nil
	})
	return affected, err
}

// CountByEffectiveStatus counts quotes by their read-time status as of asOf
func (r *QuoteRepositoryImpl) CountByEffectiveStatus(ctx context.Context, asOf time.Time) (map[models.QuoteStatus]int64, error) {
	db := r.getDB(ctx)
	day := utils.TruncateToDate(asOf)

	type row struct {
		EffectiveStatus string
		Total           int64
	}
	var rows []row
	err := db.Model(&models.Quote{}).
		Select("CASE WHEN status IN ? AND valid_until < ? THEN ? ELSE status END AS effective_status, COUNT(*) AS total",
			openQuoteStatuses, day, string(models.QuoteStatusExpired)).
		Group("effective_status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count quotes by status: %w", err)
	}

	counts := make(map[models.QuoteStatus]int64, len(models.QuoteStatuses))
	for _, s := range models.QuoteStatuses {
		counts[s] = 0
	}
	for _, rw := range rows {
		counts[models.QuoteStatus(rw.EffectiveStatus)] += rw.Total
	}
	return counts, nil
}

// SumAccepted totals the value of accepted quotes
func (r *QuoteRepositoryImpl) SumAccepted(ctx context.Context) (decimal.Decimal, error) {
	db := r.getDB(ctx)

	var sum decimal.Decimal
	err := db.Model(&models.Quote{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("status = ?", models.QuoteStatusAccepted).
		Row().
		Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum accepted quotes: %w", err)
	}
	return sum.Round(2), nil
}

// applyFilter applies filter criteria to a GORM query
func (r *QuoteRepositoryImpl) applyFilter(query *gorm.DB, filter models.QuoteFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.QuoteNumber != nil {
		query = query.Where("quote_number = ?", *filter.QuoteNumber)
	}
	if filter.LeadID != nil {
		query = query.Where("lead_id = ?", *filter.LeadID)
	}
	if filter.CreatedByID != nil {
		query = query.Where("created_by_id = ?", *filter.CreatedByID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ClientEmail != nil {
		query = query.Where("LOWER(client_email) = ?", strings.ToLower(*filter.ClientEmail))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		like := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		query = query.Where("(LOWER(quote_number) LIKE ? OR LOWER(client_name) LIKE ? OR LOWER(client_email) LIKE ?)", like, like, like)
	}
	if filter.ValidBefore != nil {
		query = query.Where("valid_until < ?", utils.TruncateToDate(*filter.ValidBefore))
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	if filter.EffectiveStatus != nil {
		asOf := utils.UTCNow()
		if filter.AsOf != nil {
			asOf = *filter.AsOf
		}
		day := utils.TruncateToDate(asOf)
		switch *filter.EffectiveStatus {
		case models.QuoteStatusExpired:
			query = query.Where("(status = ? OR (status IN ? AND valid_until < ?))", models.QuoteStatusExpired, openQuoteStatuses, day)
		case models.QuoteStatusDraft, models.QuoteStatusSent:
			query = query.Where("status = ? AND valid_until >= ?", *filter.EffectiveStatus, day)
		default:
			query = query.Where("status = ?", *filter.EffectiveStatus)
		}
	}
	return query
}

// ByFilter retrieves quotes based on filter criteria, newest first by default
func (r *QuoteRepositoryImpl) ByFilter(ctx context.Context, filter models.QuoteFilter, orderBy string, limit, offset int) ([]*models.Quote, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Quote{}), filter)
	query = paginate(query, orderBy, "created_at DESC, id DESC", limit, offset)

	var quotes []*models.Quote
	if err := query.Find(&quotes).Error; err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	return quotes, nil
}

// Count returns the number of quotes matching the filter
func (r *QuoteRepositoryImpl) Count(ctx context.Context, filter models.QuoteFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Quote{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count quotes: %w", err)
	}
	return count, nil
}

// Exists checks if any quote matching the filter exists
func (r *QuoteRepositoryImpl) Exists(ctx context.Context, filter models.QuoteFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
