package dto

import "github.com/shopspring/decimal"

// CreateLeadRequest is the staff payload for entering a lead by hand
type CreateLeadRequest struct {
	Name         string           `json:"name" validate:"required,max=255" example:"Ada Lovelace"`
	Email        string           `json:"email" validate:"required,email,max=254" example:"ada@example.com"`
	Phone        *string          `json:"phone,omitempty" validate:"omitempty,max=20"`
	Company      *string          `json:"company,omitempty" validate:"omitempty,max=255"`
	Budget       *decimal.Decimal `json:"budget,omitempty" swaggertype:"string" example:"17500.00"`
	Timeline     string           `json:"timeline,omitempty" validate:"omitempty,max=100"`
	Source       string           `json:"source,omitempty" validate:"omitempty,oneof=website referral social_media google_ads email_campaign phone_call other"`
	ProjectType  string           `json:"project_type,omitempty" validate:"omitempty,max=100"`
	Message      string           `json:"message,omitempty"`
	Notes        string           `json:"notes,omitempty"`
	AssignedToID *uint            `json:"assigned_to_id,omitempty"`
}

// UpdateLeadRequest changes contact and working fields; nil fields are left untouched.
// Status has its own endpoint so transitions are always validated.
type UpdateLeadRequest struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Email        *string          `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone        *string          `json:"phone,omitempty" validate:"omitempty,max=20"`
	Company      *string          `json:"company,omitempty" validate:"omitempty,max=255"`
	Budget       *decimal.Decimal `json:"budget,omitempty" swaggertype:"string"`
	ClearBudget  bool             `json:"clear_budget,omitempty"`
	Timeline     *string          `json:"timeline,omitempty" validate:"omitempty,max=100"`
	Source       *string          `json:"source,omitempty" validate:"omitempty,oneof=website referral social_media google_ads email_campaign phone_call other"`
	ProjectType  *string          `json:"project_type,omitempty" validate:"omitempty,max=100"`
	Message      *string          `json:"message,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
	AssignedToID *uint            `json:"assigned_to_id,omitempty"`
	Unassign     bool             `json:"unassign,omitempty"`
}

// ChangeLeadStatusRequest moves a lead through the pipeline
type ChangeLeadStatusRequest struct {
	Status   string `json:"status" validate:"required,oneof=new contacted qualified proposal closed_won closed_lost" example:"contacted"`
	Override bool   `json:"override,omitempty"`
	Reason   string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// LeadDTO is the wire shape of a lead
type LeadDTO struct {
	ID           uint    `json:"id" example:"1"`
	UUID         string  `json:"uuid"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        *string `json:"phone,omitempty"`
	Company      *string `json:"company,omitempty"`
	Budget       *string `json:"budget,omitempty" example:"17500.00"`
	Timeline     string  `json:"timeline"`
	Source       string  `json:"source"`
	Status       string  `json:"status"`
	AssignedToID *uint   `json:"assigned_to_id,omitempty"`
	ProjectType  string  `json:"project_type"`
	Message      string  `json:"message"`
	Notes        string  `json:"notes"`
	ContactedAt  *string `json:"contacted_at,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// ListLeadsRequest carries the list filters parsed from the query string
type ListLeadsRequest struct {
	Status       *string `validate:"omitempty,oneof=new contacted qualified proposal closed_won closed_lost"`
	Source       *string `validate:"omitempty,oneof=website referral social_media google_ads email_campaign phone_call other"`
	AssignedToID *uint
	Search       *string `validate:"omitempty,max=255"`
	Page         int     `validate:"omitempty,min=1"`
	PageSize     int     `validate:"omitempty,min=1,max=200"`
}

type ListLeadsResponse struct {
	Message    string        `json:"message"`
	Items      []LeadDTO     `json:"items"`
	Pagination PaginationDTO `json:"pagination"`
}

// BulkLeadActionRequest applies one named action to many leads
type BulkLeadActionRequest struct {
	Action  string `json:"action" validate:"required" example:"mark_contacted"`
	LeadIDs []uint `json:"lead_ids" validate:"required,min=1,max=500,dive,gt=0"`
}

type BulkLeadActionResponse struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Updated int    `json:"updated"`
	Missing []uint `json:"missing,omitempty"`
}
