package models

import (
	"time"

	"github.com/amirphl/webbuilder-crm/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog is the activity trail of staff actions on leads, quotes and settings.
type AuditLog struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	StaffUserID  *uint             `gorm:"index:idx_audit_staff_user_id" json:"staff_user_id,omitempty"`
	Action       string            `gorm:"size:64;not null;index:idx_audit_action" json:"action"`
	TargetType   *string           `gorm:"size:32;index:idx_audit_target" json:"target_type,omitempty"`
	TargetID     *uint             `gorm:"index:idx_audit_target" json:"target_id,omitempty"`
	Description  *string           `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string           `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent    *string           `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string           `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty"`
	Success      *bool             `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string           `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`

	StaffUser *StaffUser `gorm:"foreignKey:StaffUserID;references:ID;constraint:OnDelete:SET NULL" json:"staff_user,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = utils.UTCNow()
	}
	return nil
}

// Audit action constants
const (
	AuditActionStaffLoginSuccess    = "staff_login_success"
	AuditActionStaffLoginFailed     = "staff_login_failed"
	AuditActionStaffLogout          = "staff_logout"
	AuditActionLeadCreated          = "lead_created"
	AuditActionLeadUpdated          = "lead_updated"
	AuditActionLeadDeleted          = "lead_deleted"
	AuditActionLeadStatusChanged    = "lead_status_changed"
	AuditActionLeadStatusOverridden = "lead_status_overridden"
	AuditActionLeadBulkAction       = "lead_bulk_action"
	AuditActionQuoteCreated         = "quote_created"
	AuditActionQuoteUpdated         = "quote_updated"
	AuditActionQuoteDeleted         = "quote_deleted"
	AuditActionQuoteStatusChanged   = "quote_status_changed"
	AuditActionQuoteItemsChanged    = "quote_items_changed"
	AuditActionServiceCreated       = "service_created"
	AuditActionServiceUpdated       = "service_updated"
	AuditActionSettingsUpdated      = "settings_updated"
)

// Audit target types
const (
	AuditTargetLead      = "lead"
	AuditTargetQuote     = "quote"
	AuditTargetService   = "service"
	AuditTargetSettings  = "settings"
	AuditTargetStaffUser = "staff_user"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	StaffUserID   *uint
	Action        *string
	TargetType    *string
	TargetID      *uint
	Success       *bool
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}
