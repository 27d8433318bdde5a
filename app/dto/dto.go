package dto

// APIResponse represents the standard API response structure
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty" validate:"omitempty"`
	Error   any    `json:"error,omitempty" validate:"omitempty"`
}

// ErrorDetail represents error details in API responses
type ErrorDetail struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty" validate:"omitempty"`
}

// PaginationDTO describes one page of a list response
type PaginationDTO struct {
	Page       int   `json:"page" example:"1"`
	PageSize   int   `json:"page_size" example:"25"`
	Total      int64 `json:"total" example:"120"`
	TotalPages int   `json:"total_pages" example:"5"`
}
