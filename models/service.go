package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ServiceCategory groups catalog services on the pricing pages.
type ServiceCategory string

const (
	ServiceCategoryWebDevelopment ServiceCategory = "web_development"
	ServiceCategoryWebDesign      ServiceCategory = "web_design"
	ServiceCategoryEcommerce      ServiceCategory = "ecommerce"
	ServiceCategoryCMS            ServiceCategory = "cms"
	ServiceCategorySEO            ServiceCategory = "seo"
	ServiceCategoryMaintenance    ServiceCategory = "maintenance"
	ServiceCategoryHosting        ServiceCategory = "hosting"
	ServiceCategoryConsultation   ServiceCategory = "consultation"
)

func (c ServiceCategory) Valid() bool {
	switch c {
	case ServiceCategoryWebDevelopment,
		ServiceCategoryWebDesign,
		ServiceCategoryEcommerce,
		ServiceCategoryCMS,
		ServiceCategorySEO,
		ServiceCategoryMaintenance,
		ServiceCategoryHosting,
		ServiceCategoryConsultation:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ServiceCategory.
func (c *ServiceCategory) Scan(value any) error {
	if value == nil {
		*c = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*c = ServiceCategory(v)
	case []byte:
		*c = ServiceCategory(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ServiceCategory", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for ServiceCategory.
func (c ServiceCategory) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid ServiceCategory: %s", c)
	}
	return string(c), nil
}

// Recurring billing periods
const (
	RecurringPeriodMonthly = "monthly"
	RecurringPeriodYearly  = "yearly"
)

// Service is a catalog entry that quote line items are priced from.
type Service struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Name             string          `gorm:"size:200;not null" json:"name"`
	Slug             string          `gorm:"size:200;not null;uniqueIndex:uk_services_slug" json:"slug"`
	Category         ServiceCategory `gorm:"type:varchar(20);not null;index:idx_services_category" json:"category"`
	ShortDescription string          `gorm:"size:300" json:"short_description"`
	Description      string          `gorm:"type:text" json:"description"`
	BasePrice        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"base_price"`
	IsRecurring      bool            `gorm:"not null;default:false" json:"is_recurring"`
	RecurringPeriod  *string         `gorm:"size:20" json:"recurring_period,omitempty"`
	Features         string          `gorm:"type:text" json:"features"`
	IsFeatured       bool            `gorm:"not null;default:false" json:"is_featured"`
	IsActive         bool            `gorm:"not null;index:idx_services_is_active" json:"is_active"`
	DisplayOrder     int             `gorm:"not null;default:0" json:"display_order"`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Service) TableName() string { return "services" }

func (s *Service) BeforeCreate(tx *gorm.DB) error {
	now := utils.UTCNow()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return nil
}

// FeatureList splits the newline separated feature text
func (s *Service) FeatureList() []string {
	var out []string
	for _, line := range strings.Split(s.Features, "\n") {
		if f := strings.TrimSpace(line); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ServiceFilter represents filter criteria for catalog queries
type ServiceFilter struct {
	ID         *uint
	Slug       *string
	Category   *ServiceCategory
	IsActive   *bool
	IsFeatured *bool
}
