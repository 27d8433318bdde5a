package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ConversionAction is the funnel step a conversion event records.
type ConversionAction string

const (
	ConversionActionContactForm    ConversionAction = "contact_form"
	ConversionActionQuoteRequest   ConversionAction = "quote_request"
	ConversionActionPhoneCall      ConversionAction = "phone_call"
	ConversionActionEmailSignup    ConversionAction = "email_signup"
	ConversionActionServiceInquiry ConversionAction = "service_inquiry"
	ConversionActionProjectStart   ConversionAction = "project_start"
)

// ConversionActions lists every action in funnel order
var ConversionActions = []ConversionAction{
	ConversionActionContactForm,
	ConversionActionQuoteRequest,
	ConversionActionPhoneCall,
	ConversionActionEmailSignup,
	ConversionActionServiceInquiry,
	ConversionActionProjectStart,
}

func (a ConversionAction) Valid() bool {
	switch a {
	case ConversionActionContactForm,
		ConversionActionQuoteRequest,
		ConversionActionPhoneCall,
		ConversionActionEmailSignup,
		ConversionActionServiceInquiry,
		ConversionActionProjectStart:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ConversionAction.
func (a *ConversionAction) Scan(value any) error {
	if value == nil {
		*a = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*a = ConversionAction(v)
	case []byte:
		*a = ConversionAction(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ConversionAction", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for ConversionAction.
func (a ConversionAction) Value() (driver.Value, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid ConversionAction: %s", a)
	}
	return string(a), nil
}

// ConversionTracking is an append-only funnel event, optionally correlated to a lead.
type ConversionTracking struct {
	ID        uint                `gorm:"primaryKey" json:"id"`
	Source    string              `gorm:"size:100;not null;index:idx_conversions_source" json:"source"`
	Action    ConversionAction    `gorm:"type:varchar(50);not null;index:idx_conversions_action" json:"action"`
	PageURL   *string             `gorm:"type:text" json:"page_url,omitempty"`
	UserAgent *string             `gorm:"type:text" json:"user_agent,omitempty"`
	IPAddress *string             `gorm:"size:45" json:"ip_address,omitempty"`
	Value     decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"value"`
	LeadID    *uint               `gorm:"index:idx_conversions_lead_id" json:"lead_id,omitempty"`
	Timestamp time.Time           `gorm:"column:recorded_at;not null;index:idx_conversions_recorded_at" json:"timestamp"`

	Lead *Lead `gorm:"foreignKey:LeadID;references:ID;constraint:OnDelete:SET NULL" json:"lead,omitempty"`
}

func (ConversionTracking) TableName() string { return "conversion_trackings" }

// BeforeCreate stamps the event; the timestamp is never rewritten afterwards
func (c *ConversionTracking) BeforeCreate(tx *gorm.DB) error {
	if c.Timestamp.IsZero() {
		c.Timestamp = utils.UTCNow()
	}
	return nil
}

// ConversionTrackingFilter represents filter criteria for conversion event queries
type ConversionTrackingFilter struct {
	ID     *uint
	LeadID *uint
	Action *ConversionAction
	Source *string
	After  *time.Time
	Before *time.Time
}
