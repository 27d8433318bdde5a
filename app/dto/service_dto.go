package dto

import "github.com/shopspring/decimal"

type CreateServiceRequest struct {
	Name             string          `json:"name" validate:"required,max=200" example:"Business Website"`
	Slug             string          `json:"slug" validate:"required,max=200" example:"business-website"`
	Category         string          `json:"category" validate:"required,oneof=web_development web_design ecommerce cms seo maintenance hosting consultation"`
	ShortDescription string          `json:"short_description,omitempty" validate:"omitempty,max=300"`
	Description      string          `json:"description,omitempty"`
	BasePrice        decimal.Decimal `json:"base_price" swaggertype:"string" example:"1500.00"`
	IsRecurring      bool            `json:"is_recurring,omitempty"`
	RecurringPeriod  *string         `json:"recurring_period,omitempty" validate:"omitempty,oneof=monthly yearly"`
	Features         []string        `json:"features,omitempty" validate:"omitempty,max=50,dive,max=200"`
	IsFeatured       bool            `json:"is_featured,omitempty"`
	IsActive         *bool           `json:"is_active,omitempty"`
	DisplayOrder     int             `json:"display_order,omitempty"`
}

// UpdateServiceRequest edits a catalog entry; existing quote lines keep their copied price
type UpdateServiceRequest struct {
	Name             *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Category         *string          `json:"category,omitempty" validate:"omitempty,oneof=web_development web_design ecommerce cms seo maintenance hosting consultation"`
	ShortDescription *string          `json:"short_description,omitempty" validate:"omitempty,max=300"`
	Description      *string          `json:"description,omitempty"`
	BasePrice        *decimal.Decimal `json:"base_price,omitempty" swaggertype:"string"`
	IsRecurring      *bool            `json:"is_recurring,omitempty"`
	RecurringPeriod  *string          `json:"recurring_period,omitempty" validate:"omitempty,oneof=monthly yearly"`
	Features         []string         `json:"features,omitempty" validate:"omitempty,max=50,dive,max=200"`
	IsFeatured       *bool            `json:"is_featured,omitempty"`
	IsActive         *bool            `json:"is_active,omitempty"`
	DisplayOrder     *int             `json:"display_order,omitempty"`
}

type ServiceDTO struct {
	ID               uint     `json:"id"`
	Name             string   `json:"name"`
	Slug             string   `json:"slug"`
	Category         string   `json:"category"`
	ShortDescription string   `json:"short_description"`
	Description      string   `json:"description"`
	BasePrice        string   `json:"base_price" example:"1500.00"`
	IsRecurring      bool     `json:"is_recurring"`
	RecurringPeriod  *string  `json:"recurring_period,omitempty"`
	Features         []string `json:"features"`
	IsFeatured       bool     `json:"is_featured"`
	IsActive         bool     `json:"is_active"`
	DisplayOrder     int      `json:"display_order"`
}

type ListServicesResponse struct {
	Message string       `json:"message"`
	Items   []ServiceDTO `json:"items"`
}
