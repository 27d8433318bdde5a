package dto

import "github.com/shopspring/decimal"

// ContactFormRequest is the public contact form
type ContactFormRequest struct {
	Name    string  `json:"name" validate:"required,max=255" example:"Ada Lovelace"`
	Email   string  `json:"email" validate:"required,email,max=254" example:"ada@example.com"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Subject string  `json:"subject,omitempty" validate:"omitempty,max=200"`
	Message string  `json:"message" validate:"required,max=5000"`
	PageURL *string `json:"page_url,omitempty" validate:"omitempty,max=2000"`
}

// LeadCaptureRequest is the landing-page lead form
type LeadCaptureRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Email       string  `json:"email" validate:"required,email,max=254"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Company     *string `json:"company,omitempty" validate:"omitempty,max=255"`
	ProjectType string  `json:"project_type,omitempty" validate:"omitempty,max=100"`
	BudgetRange string  `json:"budget_range,omitempty" example:"10000-25000"`
	Timeline    string  `json:"timeline,omitempty" validate:"omitempty,max=100"`
	Message     string  `json:"message,omitempty" validate:"omitempty,max=5000"`
	PageURL     *string `json:"page_url,omitempty" validate:"omitempty,max=2000"`
}

// QuickQuoteRequest is the short quote-request form
type QuickQuoteRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Email       string  `json:"email" validate:"required,email,max=254"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	ProjectType string  `json:"project_type" validate:"required,oneof=school hospital ecommerce marketing portfolio blog custom" example:"ecommerce"`
	BudgetRange string  `json:"budget_range" validate:"required" example:"10000-25000"`
	Timeline    string  `json:"timeline,omitempty" validate:"omitempty,max=100"`
	Message     string  `json:"message,omitempty" validate:"omitempty,max=5000"`
	PageURL     *string `json:"page_url,omitempty" validate:"omitempty,max=2000"`
}

// IntakeResponse acknowledges a public submission
type IntakeResponse struct {
	Message  string `json:"message"`
	LeadUUID string `json:"lead_uuid"`
}

// TrackConversionRequest records a client-side funnel event that creates no lead
type TrackConversionRequest struct {
	Source  string           `json:"source" validate:"required,max=100" example:"pricing_page"`
	Action  string           `json:"action" validate:"required,oneof=contact_form quote_request phone_call email_signup service_inquiry project_start" example:"phone_call"`
	PageURL *string          `json:"page_url,omitempty" validate:"omitempty,max=2000"`
	Value   *decimal.Decimal `json:"value,omitempty" swaggertype:"string"`
}

type TrackConversionResponse struct {
	Message string `json:"message"`
}
