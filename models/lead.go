// Package models contains domain entities for the lead and quote conversion workflow
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

// LeadStatus is the position of a lead in the sales pipeline.
type LeadStatus string

const (
	LeadStatusNew        LeadStatus = "new"
	LeadStatusContacted  LeadStatus = "contacted"
	LeadStatusQualified  LeadStatus = "qualified"
	LeadStatusProposal   LeadStatus = "proposal"
	LeadStatusClosedWon  LeadStatus = "closed_won"
	LeadStatusClosedLost LeadStatus = "closed_lost"
)

// LeadStatuses lists every status in pipeline order
var LeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusQualified,
	LeadStatusProposal,
	LeadStatusClosedWon,
	LeadStatusClosedLost,
}

func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew,
		LeadStatusContacted,
		LeadStatusQualified,
		LeadStatusProposal,
		LeadStatusClosedWon,
		LeadStatusClosedLost:
		return true
	default:
		return false
	}
}

// IsClosed reports whether the status ends the pipeline for reporting purposes
func (s LeadStatus) IsClosed() bool {
	return s == LeadStatusClosedWon || s == LeadStatusClosedLost
}

// Scan implements the sql.Scanner interface for LeadStatus.
func (s *LeadStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = LeadStatus(v)
	case []byte:
		*s = LeadStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into LeadStatus", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for LeadStatus.
func (s LeadStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid LeadStatus: %s", s)
	}
	return string(s), nil
}

// LeadSource is the marketing channel a lead arrived through.
type LeadSource string

const (
	LeadSourceWebsite       LeadSource = "website"
	LeadSourceReferral      LeadSource = "referral"
	LeadSourceSocialMedia   LeadSource = "social_media"
	LeadSourceGoogleAds     LeadSource = "google_ads"
	LeadSourceEmailCampaign LeadSource = "email_campaign"
	LeadSourcePhoneCall     LeadSource = "phone_call"
	LeadSourceOther         LeadSource = "other"
)

func (s LeadSource) Valid() bool {
	switch s {
	case LeadSourceWebsite,
		LeadSourceReferral,
		LeadSourceSocialMedia,
		LeadSourceGoogleAds,
		LeadSourceEmailCampaign,
		LeadSourcePhoneCall,
		LeadSourceOther:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for LeadSource.
func (s *LeadSource) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = LeadSource(v)
	case []byte:
		*s = LeadSource(string(v))
	default:
		return fmt.Errorf("cannot scan %T into LeadSource", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for LeadSource.
func (s LeadSource) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid LeadSource: %s", s)
	}
	return string(s), nil
}

// Lead is a prospective customer's inquiry, captured from a public form or entered by staff.
type Lead struct {
	ID           uint                `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:uk_leads_uuid" json:"uuid"`
	Name         string              `gorm:"size:255;not null" json:"name"`
	Email        string              `gorm:"size:254;not null;index:idx_leads_email" json:"email"`
	Phone        *string             `gorm:"size:20" json:"phone,omitempty"`
	Company      *string             `gorm:"size:255" json:"company,omitempty"`
	Budget       decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"budget"`
	Timeline     string              `gorm:"size:100" json:"timeline"`
	Source       LeadSource          `gorm:"type:varchar(20);not null;default:'website';index:idx_leads_source" json:"source"`
	Status       LeadStatus          `gorm:"type:varchar(20);not null;default:'new';index:idx_leads_status" json:"status"`
	AssignedToID *uint               `gorm:"index:idx_leads_assigned_to" json:"assigned_to_id,omitempty"`
	ProjectType  string              `gorm:"size:100" json:"project_type"`
	Message      string              `gorm:"type:text" json:"message"`
	Notes        string              `gorm:"type:text" json:"notes"`
	ContactedAt  *time.Time          `json:"contacted_at,omitempty"`
	CreatedAt    time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_leads_created_at" json:"created_at"`
	UpdatedAt    time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	AssignedTo *StaffUser `gorm:"foreignKey:AssignedToID;references:ID;constraint:OnDelete:SET NULL" json:"assigned_to,omitempty"`
}

func (Lead) TableName() string { return "leads" }

// BeforeCreate fills identity, defaults and UTC timestamps
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.UUID == uuid.Nil {
		l.UUID = uuid.New()
	}
	if l.Status == "" {
		l.Status = LeadStatusNew
	}
	if l.Source == "" {
		l.Source = LeadSourceWebsite
	}
	now := utils.UTCNow()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	return nil
}

// MarkContacted records the first contact; later calls keep the original timestamp
func (l *Lead) MarkContacted(at time.Time) {
	if l.ContactedAt == nil {
		t := at.UTC()
		l.ContactedAt = &t
	}
}

// LeadFilter represents filter criteria for lead queries
type LeadFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	IDs           []uint
	Email         *string
	Status        *LeadStatus
	Source        *LeadSource
	AssignedToID  *uint
	Search        *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
