package models

import (
	"time"

	"github.com/amirphl/webbuilder-crm/utils"
	"gorm.io/gorm"
)

// SiteSettingID is the primary key of the single settings row
const SiteSettingID uint = 1

// DefaultSiteName is used until staff rename the site
const DefaultSiteName = "WebBuilder"

// SiteSetting holds site-wide configuration. Exactly one row exists.
type SiteSetting struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	SiteName        string    `gorm:"size:100;not null;default:'WebBuilder'" json:"site_name"`
	ContactEmail    string    `gorm:"size:254" json:"contact_email"`
	ContactPhone    string    `gorm:"size:20" json:"contact_phone"`
	Address         string    `gorm:"type:text" json:"address"`
	FacebookURL     string    `gorm:"size:500" json:"facebook_url"`
	TwitterURL      string    `gorm:"size:500" json:"twitter_url"`
	LinkedInURL     string    `gorm:"size:500" json:"linkedin_url"`
	InstagramURL    string    `gorm:"size:500" json:"instagram_url"`
	AboutText       string    `gorm:"type:text" json:"about_text"`
	MaintenanceMode bool      `gorm:"not null;default:false" json:"maintenance_mode"`
	UpdatedByID     *uint     `json:"updated_by_id,omitempty"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (SiteSetting) TableName() string { return "site_settings" }

func (s *SiteSetting) BeforeCreate(tx *gorm.DB) error {
	if s.ID == 0 {
		s.ID = SiteSettingID
	}
	if s.SiteName == "" {
		s.SiteName = DefaultSiteName
	}
	now := utils.UTCNow()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return nil
}

// DefaultSiteSetting is the row materialized the first time settings are read
func DefaultSiteSetting() *SiteSetting {
	return &SiteSetting{ID: SiteSettingID, SiteName: DefaultSiteName}
}
