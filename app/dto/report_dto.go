package dto

type LeadStatsDTO struct {
	Total          int64            `json:"total" example:"10"`
	New            int64            `json:"new" example:"4"`
	Qualified      int64            `json:"qualified" example:"2"`
	ClosedWon      int64            `json:"closed_won" example:"3"`
	ConversionRate float64          `json:"conversion_rate" example:"30"`
	ByStatus       map[string]int64 `json:"by_status"`
}

type QuoteStatsDTO struct {
	Total         int64            `json:"total"`
	ByStatus      map[string]int64 `json:"by_status"`
	AcceptedValue string           `json:"accepted_value" example:"253.00"`
}

type ConversionStatsDTO struct {
	Total    int64            `json:"total"`
	ByAction map[string]int64 `json:"by_action"`
	From     *string          `json:"from,omitempty"`
	To       *string          `json:"to,omitempty"`
}

// DashboardRequest bounds the conversion window; lead and quote stats are all-time
type DashboardRequest struct {
	From *string `validate:"omitempty,datetime=2006-01-02"`
	To   *string `validate:"omitempty,datetime=2006-01-02"`
}

type DashboardResponse struct {
	Message     string             `json:"message"`
	Leads       LeadStatsDTO       `json:"leads"`
	Quotes      QuoteStatsDTO      `json:"quotes"`
	Conversions ConversionStatsDTO `json:"conversions"`
	RecentLeads []LeadDTO          `json:"recent_leads"`
	GeneratedAt string             `json:"generated_at"`
}
