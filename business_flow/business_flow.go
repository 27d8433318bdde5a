// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"math"
	"time"

	"github.com/amirphl/webbuilder-crm/app/dto"
	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/shopspring/decimal"
)

// ClientMetadata holds all client-related information for audit logging and conversion tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	Referer    string            `json:"referer,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetReferer records the page the request was submitted from
func (cm *ClientMetadata) SetReferer(referer string) {
	cm.Referer = referer
}

// Clock supplies the current time to flows
type Clock func() time.Time

func defaultClock(c Clock) Clock {
	if c == nil {
		return utils.UTCNow
	}
	return c
}

// staffIDFromContext returns the authenticated staff user, if the request carries one
func staffIDFromContext(ctx context.Context) *uint {
	id, ok := ctx.Value(utils.StaffIDKey).(uint)
	if !ok || id == 0 {
		return nil
	}
	return &id
}

// normalizePage clamps page and page size and returns limit and offset
func normalizePage(page, pageSize int) (int, int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = utils.DefaultPageSize
	}
	if pageSize > utils.MaxPageSize {
		pageSize = utils.MaxPageSize
	}
	return page, pageSize, pageSize, (page - 1) * pageSize
}

func toPagination(page, pageSize int, total int64) dto.PaginationDTO {
	pages := 0
	if total > 0 {
		pages = int(math.Ceil(float64(total) / float64(pageSize)))
	}
	return dto.PaginationDTO{Page: page, PageSize: pageSize, Total: total, TotalPages: pages}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(moneyPlaces)
}

func formatNullMoney(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := formatMoney(d.Decimal)
	return &s
}

// ToLeadDTO converts a lead model to its wire shape
func ToLeadDTO(lead models.Lead) dto.LeadDTO {
	return dto.LeadDTO{
		ID:           lead.ID,
		UUID:         lead.UUID.String(),
		Name:         lead.Name,
		Email:        lead.Email,
		Phone:        lead.Phone,
		Company:      lead.Company,
		Budget:       formatNullMoney(lead.Budget),
		Timeline:     lead.Timeline,
		Source:       string(lead.Source),
		Status:       string(lead.Status),
		AssignedToID: lead.AssignedToID,
		ProjectType:  lead.ProjectType,
		Message:      lead.Message,
		Notes:        lead.Notes,
		ContactedAt:  formatTimePtr(lead.ContactedAt),
		CreatedAt:    formatTime(lead.CreatedAt),
		UpdatedAt:    formatTime(lead.UpdatedAt),
	}
}

// ToQuoteItemDTO converts a line item model to its wire shape
func ToQuoteItemDTO(item models.QuoteService) dto.QuoteItemDTO {
	out := dto.QuoteItemDTO{
		ID:                 item.ID,
		ServiceID:          item.ServiceID,
		Description:        item.Description,
		Quantity:           item.Quantity,
		UnitPrice:          formatMoney(item.UnitPrice),
		DiscountPercentage: item.DiscountPercentage.StringFixed(2),
		TotalPrice:         formatMoney(item.TotalPrice),
	}
	if item.Service != nil {
		out.ServiceName = item.Service.Name
	}
	return out
}

// ToQuoteDTO converts a quote model to its wire shape, deriving the read-time status at now
func ToQuoteDTO(quote models.Quote, now time.Time) dto.QuoteDTO {
	out := dto.QuoteDTO{
		ID:              quote.ID,
		UUID:            quote.UUID.String(),
		QuoteNumber:     quote.QuoteNumber,
		ClientName:      quote.ClientName,
		ClientEmail:     quote.ClientEmail,
		ClientPhone:     quote.ClientPhone,
		ClientCompany:   quote.ClientCompany,
		Subtotal:        formatMoney(quote.Subtotal),
		TaxRate:         quote.TaxRate.StringFixed(2),
		TaxAmount:       formatMoney(quote.TaxAmount),
		TotalAmount:     formatMoney(quote.TotalAmount),
		Status:          string(quote.EffectiveStatus(now)),
		StoredStatus:    string(quote.Status),
		Editable:        quote.IsEditable(now),
		ValidUntil:      quote.ValidUntil.UTC().Format(utils.DateLayout),
		Notes:           quote.Notes,
		TermsConditions: quote.TermsConditions,
		LeadID:          quote.LeadID,
		CreatedByID:     quote.CreatedByID,
		SentAt:          formatTimePtr(quote.SentAt),
		CreatedAt:       formatTime(quote.CreatedAt),
		UpdatedAt:       formatTime(quote.UpdatedAt),
	}
	for _, it := range quote.Items {
		out.Items = append(out.Items, ToQuoteItemDTO(it))
	}
	return out
}

// ToServiceDTO converts a catalog model to its wire shape
func ToServiceDTO(s models.Service) dto.ServiceDTO {
	features := s.FeatureList()
	if features == nil {
		features = []string{}
	}
	return dto.ServiceDTO{
		ID:               s.ID,
		Name:             s.Name,
		Slug:             s.Slug,
		Category:         string(s.Category),
		ShortDescription: s.ShortDescription,
		Description:      s.Description,
		BasePrice:        formatMoney(s.BasePrice),
		IsRecurring:      s.IsRecurring,
		RecurringPeriod:  s.RecurringPeriod,
		Features:         features,
		IsFeatured:       s.IsFeatured,
		IsActive:         s.IsActive,
		DisplayOrder:     s.DisplayOrder,
	}
}

// ToConversionDTO converts a conversion event to its wire shape
func ToConversionDTO(c models.ConversionTracking) dto.ConversionDTO {
	return dto.ConversionDTO{
		ID:        c.ID,
		Source:    c.Source,
		Action:    string(c.Action),
		PageURL:   c.PageURL,
		UserAgent: c.UserAgent,
		IPAddress: c.IPAddress,
		Value:     formatNullMoney(c.Value),
		LeadID:    c.LeadID,
		Timestamp: formatTime(c.Timestamp),
	}
}

// ToStaffDTO converts a staff user to its wire shape
func ToStaffDTO(s models.StaffUser) dto.StaffDTO {
	return dto.StaffDTO{
		ID:          s.ID,
		UUID:        s.UUID.String(),
		Username:    s.Username,
		Email:       s.Email,
		IsActive:    s.IsActive,
		LastLoginAt: formatTimePtr(s.LastLoginAt),
		CreatedAt:   formatTime(s.CreatedAt),
	}
}

// ToStaffSessionDTO wraps issued tokens
func ToStaffSessionDTO(accessToken, refreshToken string) dto.StaffSessionDTO {
	return dto.StaffSessionDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(utils.AccessTokenTTL.Seconds()),
		TokenType:    "Bearer",
		CreatedAt:    utils.UTCNowRFC3339(),
	}
}

// ToSiteSettingsDTO converts the settings row to its wire shape
func ToSiteSettingsDTO(s models.SiteSetting) dto.SiteSettingsDTO {
	return dto.SiteSettingsDTO{
		SiteName:        s.SiteName,
		ContactEmail:    s.ContactEmail,
		ContactPhone:    s.ContactPhone,
		Address:         s.Address,
		FacebookURL:     s.FacebookURL,
		TwitterURL:      s.TwitterURL,
		LinkedInURL:     s.LinkedInURL,
		InstagramURL:    s.InstagramURL,
		AboutText:       s.AboutText,
		MaintenanceMode: s.MaintenanceMode,
		UpdatedAt:       formatTime(s.UpdatedAt),
	}
}
