package models

import (
	"time"

	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QuoteService is one priced catalog service inside a quote.
// UnitPrice is a snapshot taken when the line is authored; catalog edits never reach it.
type QuoteService struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	QuoteID            uint            `gorm:"not null;index:idx_quote_services_quote_id" json:"quote_id"`
	ServiceID          uint            `gorm:"not null;index:idx_quote_services_service_id" json:"service_id"`
	Description        string          `gorm:"type:text" json:"description"`
	Quantity           int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percentage"`
	TotalPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	CreatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Service *Service `gorm:"foreignKey:ServiceID;references:ID;constraint:OnDelete:RESTRICT" json:"service,omitempty"`
}

func (QuoteService) TableName() string { return "quote_services" }

func (qs *QuoteService) BeforeCreate(tx *gorm.DB) error {
	now := utils.UTCNow()
	if qs.CreatedAt.IsZero() {
		qs.CreatedAt = now
	}
	qs.UpdatedAt = now
	return nil
}

// QuoteServiceFilter represents filter criteria for line item queries
type QuoteServiceFilter struct {
	ID        *uint
	QuoteID   *uint
	ServiceID *uint
}
