// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/webbuilder-crm/models"
	"github.com/shopspring/decimal"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// LeadRepository defines operations for leads
type LeadRepository interface {
	Repository[models.Lead, models.LeadFilter]
	Update(ctx context.Context, lead *models.Lead) error
	ByIDs(ctx context.Context, ids []uint) ([]*models.Lead, error)
	CountByStatus(ctx context.Context) (map[models.LeadStatus]int64, error)
	Delete(ctx context.Context, id uint) error
}

// QuoteRepository defines operations for quotes
type QuoteRepository interface {
	Repository[models.Quote, models.QuoteFilter]
	Update(ctx context.Context, quote *models.Quote) error
	ByIDWithItems(ctx context.Context, id uint) (*models.Quote, error)
	ByQuoteNumber(ctx context.Context, quoteNumber string) (*models.Quote, error)
	// LatestNumberWithPrefix returns the highest assigned number starting with prefix, or "" when none exists
	LatestNumberWithPrefix(ctx context.Context, prefix string) (string, error)
	UpdateTotals(ctx context.Context, quoteID uint, subtotal, taxAmount, total decimal.Decimal) error
	DetachLead(ctx context.Context, leadID uint) (int64, error)
	MarkExpired(ctx context.Context, today time.Time) (int64, error)
	CountByEffectiveStatus(ctx context.Context, asOf time.Time) (map[models.QuoteStatus]int64, error)
	SumAccepted(ctx context.Context) (decimal.Decimal, error)
	Delete(ctx context.Context, id uint) error
}

// QuoteServiceRepository defines operations for quote line items
type QuoteServiceRepository interface {
	Repository[models.QuoteService, models.QuoteServiceFilter]
	Update(ctx context.Context, item *models.QuoteService) error
	ListByQuote(ctx context.Context, quoteID uint) ([]*models.QuoteService, error)
	Delete(ctx context.Context, id uint) error
	DeleteByQuote(ctx context.Context, quoteID uint) error
}

// ServiceRepository defines operations for the service catalog
type ServiceRepository interface {
	Repository[models.Service, models.ServiceFilter]
	Update(ctx context.Context, service *models.Service) error
	BySlug(ctx context.Context, slug string) (*models.Service, error)
}

// ConversionTrackingRepository is append-only; it exposes no update or delete
type ConversionTrackingRepository interface {
	ByID(ctx context.Context, id uint) (*models.ConversionTracking, error)
	ByFilter(ctx context.Context, filter models.ConversionTrackingFilter, orderBy string, limit, offset int) ([]*models.ConversionTracking, error)
	Count(ctx context.Context, filter models.ConversionTrackingFilter) (int64, error)
	// Append inserts one event inside a savepoint when a transaction is already active
	Append(ctx context.Context, event *models.ConversionTracking) error
	CountByAction(ctx context.Context, after, before *time.Time) (map[models.ConversionAction]int64, error)
	DetachLead(ctx context.Context, leadID uint) (int64, error)
}

// StaffUserRepository defines operations for staff users
type StaffUserRepository interface {
	Repository[models.StaffUser, models.StaffUserFilter]
	ByUsername(ctx context.Context, username string) (*models.StaffUser, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByTarget(ctx context.Context, targetType string, targetID uint, limit, offset int) ([]*models.AuditLog, error)
}

// SiteSettingRepository reads and writes the settings singleton
type SiteSettingRepository interface {
	// Get returns the settings row, creating it with defaults on first access
	Get(ctx context.Context) (*models.SiteSetting, error)
	Update(ctx context.Context, setting *models.SiteSetting) error
}

// SequenceCounterRepository serializes named counters
type SequenceCounterRepository interface {
	// Next locks the counter row, advances it past max(current, floor) and returns the new value.
	// It must run inside a transaction for the lock to be held until commit.
	Next(ctx context.Context, name string, floor int64) (int64, error)
	Current(ctx context.Context, name string) (int64, error)
}
