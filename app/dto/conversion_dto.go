package dto

type ConversionDTO struct {
	ID        uint    `json:"id"`
	Source    string  `json:"source"`
	Action    string  `json:"action"`
	PageURL   *string `json:"page_url,omitempty"`
	UserAgent *string `json:"user_agent,omitempty"`
	IPAddress *string `json:"ip_address,omitempty"`
	Value     *string `json:"value,omitempty"`
	LeadID    *uint   `json:"lead_id,omitempty"`
	Timestamp string  `json:"timestamp"`
}

// ListConversionsRequest carries the list filters parsed from the query string
type ListConversionsRequest struct {
	Action   *string `validate:"omitempty,oneof=contact_form quote_request phone_call email_signup service_inquiry project_start"`
	Source   *string `validate:"omitempty,max=100"`
	LeadID   *uint
	From     *string `validate:"omitempty,datetime=2006-01-02"`
	To       *string `validate:"omitempty,datetime=2006-01-02"`
	Page     int     `validate:"omitempty,min=1"`
	PageSize int     `validate:"omitempty,min=1,max=200"`
}

type ListConversionsResponse struct {
	Message    string          `json:"message"`
	Items      []ConversionDTO `json:"items"`
	Pagination PaginationDTO   `json:"pagination"`
}
