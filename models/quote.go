package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QuoteStatus represents the proposal lifecycle of a quote.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusExpired  QuoteStatus = "expired"
)

// QuoteStatuses lists every status in lifecycle order
var QuoteStatuses = []QuoteStatus{
	QuoteStatusDraft,
	QuoteStatusSent,
	QuoteStatusAccepted,
	QuoteStatusRejected,
	QuoteStatusExpired,
}

func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteStatusDraft,
		QuoteStatusSent,
		QuoteStatusAccepted,
		QuoteStatusRejected,
		QuoteStatusExpired:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible
func (s QuoteStatus) IsTerminal() bool {
	return s == QuoteStatusAccepted || s == QuoteStatusRejected || s == QuoteStatusExpired
}

// Scan implements the sql.Scanner interface for QuoteStatus.
func (s *QuoteStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = QuoteStatus(v)
	case []byte:
		*s = QuoteStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into QuoteStatus", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for QuoteStatus.
func (s QuoteStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid QuoteStatus: %s", s)
	}
	return string(s), nil
}

// Quote is a priced proposal composed of catalog line items, optionally tied to a lead.
// Subtotal, TaxAmount and TotalAmount are written only by the pricing calculator.
type Quote struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UUID            uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uk_quotes_uuid" json:"uuid"`
	QuoteNumber     string          `gorm:"size:20;not null;uniqueIndex:uk_quotes_quote_number" json:"quote_number"`
	ClientName      string          `gorm:"size:255;not null" json:"client_name"`
	ClientEmail     string          `gorm:"size:254;not null;index:idx_quotes_client_email" json:"client_email"`
	ClientPhone     *string         `gorm:"size:20" json:"client_phone,omitempty"`
	ClientCompany   *string         `gorm:"size:255" json:"client_company,omitempty"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"subtotal"`
	TaxRate         decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tax_amount"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	Status          QuoteStatus     `gorm:"type:varchar(20);not null;default:'draft';index:idx_quotes_status" json:"status"`
	ValidUntil      time.Time       `gorm:"type:date;not null;index:idx_quotes_valid_until" json:"valid_until"`
	Notes           string          `gorm:"type:text" json:"notes"`
	TermsConditions string          `gorm:"type:text" json:"terms_conditions"`
	CreatedByID     *uint           `gorm:"index:idx_quotes_created_by" json:"created_by_id,omitempty"`
	LeadID          *uint           `gorm:"index:idx_quotes_lead_id" json:"lead_id,omitempty"`
	SentAt          *time.Time      `json:"sent_at,omitempty"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_quotes_created_at" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items     []QuoteService `gorm:"foreignKey:QuoteID;references:ID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Lead      *Lead          `gorm:"foreignKey:LeadID;references:ID;constraint:OnDelete:SET NULL" json:"lead,omitempty"`
	CreatedBy *StaffUser     `gorm:"foreignKey:CreatedByID;references:ID;constraint:OnDelete:SET NULL" json:"created_by,omitempty"`
}

func (Quote) TableName() string { return "quotes" }

// BeforeCreate ensures UUID, default status and UTC timestamps are set
func (q *Quote) BeforeCreate(tx *gorm.DB) error {
	if q.UUID == uuid.Nil {
		q.UUID = uuid.New()
	}
	if q.Status == "" {
		q.Status = QuoteStatusDraft
	}
	now := utils.UTCNow()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	q.UpdatedAt = now
	return nil
}

// EffectiveStatus derives the status a reader should see on the given day.
// A draft or sent quote whose valid_until day has passed reads as expired.
func (q *Quote) EffectiveStatus(now time.Time) QuoteStatus {
	if q.Status != QuoteStatusDraft && q.Status != QuoteStatusSent {
		return q.Status
	}
	if utils.TruncateToDate(now).After(utils.TruncateToDate(q.ValidUntil)) {
		return QuoteStatusExpired
	}
	return q.Status
}

// IsEditable reports whether line items may change on the given day
func (q *Quote) IsEditable(now time.Time) bool {
	return q.EffectiveStatus(now) == QuoteStatusDraft
}

// QuoteFilter represents filter criteria for quote queries
type QuoteFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	QuoteNumber   *string
	LeadID        *uint
	CreatedByID   *uint
	Status        *QuoteStatus
	ClientEmail   *string
	Search        *string
	ValidBefore   *time.Time
	CreatedAfter  *time.Time
	CreatedBefore *time.Time

	// EffectiveStatus matches the read-time status as of AsOf (defaults to now)
	EffectiveStatus *QuoteStatus
	AsOf            *time.Time
}
