package models

import (
	"time"

	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StaffUser is a member of the team who works leads and authors quotes.
type StaffUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_staff_users_uuid" json:"uuid"`
	Username     string    `gorm:"size:255;not null;uniqueIndex:uk_staff_users_username" json:"username"`
	Email        *string   `gorm:"size:254" json:"email,omitempty"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`

	IsActive    *bool      `gorm:"default:true;index:idx_staff_users_is_active" json:"is_active"`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func (StaffUser) TableName() string {
	return "staff_users"
}

func (s *StaffUser) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	if s.IsActive == nil {
		s.IsActive = utils.ToPtr(true)
	}
	now := utils.UTCNow()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return nil
}

// StaffUserFilter represents filter criteria for staff queries
type StaffUserFilter struct {
	ID       *uint
	UUID     *uuid.UUID
	Username *string
	IsActive *bool
}
