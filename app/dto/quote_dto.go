package dto

import "github.com/shopspring/decimal"

// QuoteItemRequest authors one line item. UnitPrice defaults to the catalog price when omitted.
type QuoteItemRequest struct {
	ServiceID          uint             `json:"service_id" validate:"required,gt=0" example:"3"`
	Quantity           int              `json:"quantity" validate:"required,min=1" example:"2"`
	UnitPrice          *decimal.Decimal `json:"unit_price,omitempty" swaggertype:"string" example:"100.00"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty" swaggertype:"string" example:"10"`
	Description        string           `json:"description,omitempty"`
}

// UpdateQuoteItemRequest edits a line item; nil fields are left untouched
type UpdateQuoteItemRequest struct {
	Quantity           *int             `json:"quantity,omitempty" validate:"omitempty,min=1"`
	UnitPrice          *decimal.Decimal `json:"unit_price,omitempty" swaggertype:"string"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty" swaggertype:"string"`
	Description        *string          `json:"description,omitempty"`
}

// CreateQuoteRequest authors a quote. Totals are never accepted from the client.
type CreateQuoteRequest struct {
	LeadID          *uint              `json:"lead_id,omitempty"`
	ClientName      string             `json:"client_name" validate:"required,max=255" example:"Ada Lovelace"`
	ClientEmail     string             `json:"client_email" validate:"required,email,max=254" example:"ada@example.com"`
	ClientPhone     *string            `json:"client_phone,omitempty" validate:"omitempty,max=20"`
	ClientCompany   *string            `json:"client_company,omitempty" validate:"omitempty,max=255"`
	TaxRate         *decimal.Decimal   `json:"tax_rate,omitempty" swaggertype:"string" example:"10"`
	ValidUntil      *string            `json:"valid_until,omitempty" validate:"omitempty,datetime=2006-01-02" example:"2025-12-31"`
	Notes           string             `json:"notes,omitempty"`
	TermsConditions string             `json:"terms_conditions,omitempty"`
	Items           []QuoteItemRequest `json:"items" validate:"omitempty,max=100,dive"`
}

// UpdateQuoteRequest edits quote header fields; nil fields are left untouched
type UpdateQuoteRequest struct {
	LeadID          *uint            `json:"lead_id,omitempty"`
	DetachLead      bool             `json:"detach_lead,omitempty"`
	ClientName      *string          `json:"client_name,omitempty" validate:"omitempty,min=1,max=255"`
	ClientEmail     *string          `json:"client_email,omitempty" validate:"omitempty,email,max=254"`
	ClientPhone     *string          `json:"client_phone,omitempty" validate:"omitempty,max=20"`
	ClientCompany   *string          `json:"client_company,omitempty" validate:"omitempty,max=255"`
	TaxRate         *decimal.Decimal `json:"tax_rate,omitempty" swaggertype:"string"`
	ValidUntil      *string          `json:"valid_until,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes           *string          `json:"notes,omitempty"`
	TermsConditions *string          `json:"terms_conditions,omitempty"`
}

// ChangeQuoteStatusRequest moves a quote through its lifecycle
type ChangeQuoteStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft sent accepted rejected" example:"sent"`
}

type QuoteItemDTO struct {
	ID                 uint   `json:"id"`
	ServiceID          uint   `json:"service_id"`
	ServiceName        string `json:"service_name,omitempty"`
	Description        string `json:"description"`
	Quantity           int    `json:"quantity"`
	UnitPrice          string `json:"unit_price" example:"100.00"`
	DiscountPercentage string `json:"discount_percentage" example:"10.00"`
	TotalPrice         string `json:"total_price" example:"180.00"`
}

type QuoteDTO struct {
	ID              uint           `json:"id"`
	UUID            string         `json:"uuid"`
	QuoteNumber     string         `json:"quote_number" example:"Q2025001"`
	ClientName      string         `json:"client_name"`
	ClientEmail     string         `json:"client_email"`
	ClientPhone     *string        `json:"client_phone,omitempty"`
	ClientCompany   *string        `json:"client_company,omitempty"`
	Subtotal        string         `json:"subtotal" example:"230.00"`
	TaxRate         string         `json:"tax_rate" example:"10.00"`
	TaxAmount       string         `json:"tax_amount" example:"23.00"`
	TotalAmount     string         `json:"total_amount" example:"253.00"`
	Status          string         `json:"status" example:"draft"`
	StoredStatus    string         `json:"stored_status" example:"draft"`
	Editable        bool           `json:"editable"`
	ValidUntil      string         `json:"valid_until" example:"2025-12-31"`
	Notes           string         `json:"notes"`
	TermsConditions string         `json:"terms_conditions"`
	LeadID          *uint          `json:"lead_id,omitempty"`
	CreatedByID     *uint          `json:"created_by_id,omitempty"`
	SentAt          *string        `json:"sent_at,omitempty"`
	Items           []QuoteItemDTO `json:"items,omitempty"`
	CreatedAt       string         `json:"created_at"`
	UpdatedAt       string         `json:"updated_at"`
}

// ListQuotesRequest carries the list filters parsed from the query string
type ListQuotesRequest struct {
	Status   *string `validate:"omitempty,oneof=draft sent accepted rejected expired"`
	LeadID   *uint
	Search   *string `validate:"omitempty,max=255"`
	Page     int     `validate:"omitempty,min=1"`
	PageSize int     `validate:"omitempty,min=1,max=200"`
}

type ListQuotesResponse struct {
	Message    string        `json:"message"`
	Items      []QuoteDTO    `json:"items"`
	Pagination PaginationDTO `json:"pagination"`
}
