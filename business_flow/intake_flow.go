package businessflow

import (
	"context"
	"strings"

	"github.com/amirphl/webbuilder-crm/app/dto"
	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/repository"
	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// quickQuoteBudgets maps a form budget range to the representative budget stored on the lead
var quickQuoteBudgets = map[string]decimal.Decimal{
	"5000-10000":  decimal.NewFromInt(7500),
	"10000-25000": decimal.NewFromInt(17500),
	"25000-50000": decimal.NewFromInt(37500),
	"50000+":      decimal.NewFromInt(75000),
}

// BudgetForRange returns the representative budget of a form range
func BudgetForRange(budgetRange string) (decimal.Decimal, error) {
	budget, ok := quickQuoteBudgets[strings.TrimSpace(budgetRange)]
	if !ok {
		return decimal.Zero, ErrInvalidBudgetRange
	}
	return budget, nil
}

// Public forms all report the website channel; the form name only labels metrics
const (
	conversionSourceWebsite = string(models.LeadSourceWebsite)

	intakeFormContact     = "contact_form"
	intakeFormLeadCapture = "lead_capture"
	intakeFormQuickQuote  = "quick_quote"
)

// IntakeFlow turns public form submissions into leads
type IntakeFlow interface {
	SubmitContact(ctx context.Context, req *dto.ContactFormRequest, metadata *ClientMetadata) (*dto.IntakeResponse, error)
	SubmitLeadCapture(ctx context.Context, req *dto.LeadCaptureRequest, metadata *ClientMetadata) (*dto.IntakeResponse, error)
	SubmitQuickQuote(ctx context.Context, req *dto.QuickQuoteRequest, metadata *ClientMetadata) (*dto.IntakeResponse, error)
	TrackConversion(ctx context.Context, req *dto.TrackConversionRequest, metadata *ClientMetadata) (*dto.TrackConversionResponse, error)
}

type IntakeFlowImpl struct {
	leadRepo repository.LeadRepository
	tracker  ConversionTracker
	db       *gorm.DB
}

func NewIntakeFlow(leadRepo repository.LeadRepository, tracker ConversionTracker, db *gorm.DB) IntakeFlow {
	return &IntakeFlowImpl{
		leadRepo: leadRepo,
		tracker:  tracker,
		db:       db,
	}
}

func (f *IntakeFlowImpl) SubmitContact(ctx context.Context, req *dto.ContactFormRequest, metadata *ClientMetadata) (*dto.IntakeResponse, error) {
	if req == nil {
		return nil, NewBusinessError("CONTACT_VALIDATION_FAILED", "Contact form validation failed", ErrNameRequired)
	}

	message := strings.TrimSpace(req.Message)
	if subject := strings.TrimSpace(req.Subject); subject != "" {
		message = subject + "\n\n" + message
	}
	lead := &models.Lead{
		Name:    strings.TrimSpace(req.Name),
		Email:   normalizeEmail(req.Email),
		Phone:   trimmedPtr(req.Phone),
		Source:  models.LeadSourceWebsite,
		Message: message,
	}
	if err := validateLeadContact(lead); err != nil {
		return nil, NewBusinessError("CONTACT_VALIDATION_FAILED", "Contact form validation failed", err)
	}

	event := ConversionEvent{Source: conversionSourceWebsite, Action: models.ConversionActionContactForm, PageURL: utils.Deref(req.PageURL)}
	if err := f.createLead(ctx, lead, event, metadata); err != nil {
		return nil, NewBusinessError("CONTACT_SUBMIT_FAILED", "Failed to submit contact form", err)
	}

	leadsCreatedTotal.WithLabelValues(intakeFormContact).Inc()
	return &dto.IntakeResponse{
		Message:  "Thank you for your message. We will get back to you soon.",
		LeadUUID: lead.UUID.String(),
	}, nil
}

func (f *IntakeFlowImpl) SubmitLeadCapture(ctx context.Context, req *dto.LeadCaptureRequest, metadata *ClientMetadata) (*dto.IntakeResponse, error) {
	if req == nil {
		return nil, NewBusinessError("LEAD_CAPTURE_VALIDATION_FAILED", "Lead form validation failed", ErrNameRequired)
	}

	lead := &models.Lead{
		Name:        strings.TrimSpace(req.Name),
		Email:       normalizeEmail(req.Email),
		Phone:       trimmedPtr(req.Phone),
		Company:     trimmedPtr(req.Company),
		Timeline:    strings.TrimSpace(req.Timeline),
		Source:      models.LeadSourceWebsite,
		ProjectType: strings.TrimSpace(req.ProjectType),
		Message:     strings.TrimSpace(req.Message),
	}
	if req.BudgetRange != "" {
		budget, err := BudgetForRange(req.BudgetRange)
		if err != nil {
			return nil, NewBusinessError("LEAD_CAPTURE_VALIDATION_FAILED", "Lead form validation failed", err)
		}
		lead.Budget = decimal.NewNullDecimal(budget)
	}
	if err := validateLeadContact(lead); err != nil {
		return nil, NewBusinessError("LEAD_CAPTURE_VALIDATION_FAILED", "Lead form validation failed", err)
	}

	event := ConversionEvent{Source: conversionSourceWebsite, Action: models.ConversionActionContactForm, PageURL: utils.Deref(req.PageURL)}
	if err := f.createLead(ctx, lead, event, metadata); err != nil {
		return nil, NewBusinessError("LEAD_CAPTURE_SUBMIT_FAILED", "Failed to submit lead form", err)
	}

	leadsCreatedTotal.WithLabelValues(intakeFormLeadCapture).Inc()
	return &dto.IntakeResponse{
		Message:  "Thank you for your interest. Our team will contact you shortly.",
		LeadUUID: lead.UUID.String(),
	}, nil
}

func (f *IntakeFlowImpl) SubmitQuickQuote(ctx context.Context, req *dto.QuickQuoteRequest, metadata *ClientMetadata) (*dto.IntakeResponse, error) {
	if req == nil {
		return nil, NewBusinessError("QUICK_QUOTE_VALIDATION_FAILED", "Quote request validation failed", ErrNameRequired)
	}

	budget, err := BudgetForRange(req.BudgetRange)
	if err != nil {
		return nil, NewBusinessError("QUICK_QUOTE_VALIDATION_FAILED", "Quote request validation failed", err)
	}
	projectType := strings.TrimSpace(req.ProjectType)
	if !quickQuoteProjectTypes[projectType] {
		return nil, NewBusinessError("QUICK_QUOTE_VALIDATION_FAILED", "Quote request validation failed", ErrInvalidProjectType)
	}

	lead := &models.Lead{
		Name:        strings.TrimSpace(req.Name),
		Email:       normalizeEmail(req.Email),
		Phone:       trimmedPtr(req.Phone),
		Budget:      decimal.NewNullDecimal(budget),
		Timeline:    strings.TrimSpace(req.Timeline),
		Source:      models.LeadSourceWebsite,
		ProjectType: projectType,
		Message:     strings.TrimSpace(req.Message),
	}
	if err := validateLeadContact(lead); err != nil {
		return nil, NewBusinessError("QUICK_QUOTE_VALIDATION_FAILED", "Quote request validation failed", err)
	}

	event := ConversionEvent{Source: conversionSourceWebsite, Action: models.ConversionActionQuoteRequest, PageURL: utils.Deref(req.PageURL)}
	if err := f.createLead(ctx, lead, event, metadata); err != nil {
		return nil, NewBusinessError("QUICK_QUOTE_SUBMIT_FAILED", "Failed to submit quote request", err)
	}

	leadsCreatedTotal.WithLabelValues(intakeFormQuickQuote).Inc()
	return &dto.IntakeResponse{
		Message:  "Thank you for your quote request. We will prepare a proposal for you.",
		LeadUUID: lead.UUID.String(),
	}, nil
}

// TrackConversion records a funnel event reported by the site itself. No lead is created.
func (f *IntakeFlowImpl) TrackConversion(ctx context.Context, req *dto.TrackConversionRequest, metadata *ClientMetadata) (*dto.TrackConversionResponse, error) {
	if req == nil || strings.TrimSpace(req.Source) == "" {
		return nil, NewBusinessError("CONVERSION_VALIDATION_FAILED", "Conversion validation failed", ErrConversionSourceReq)
	}
	action := models.ConversionAction(req.Action)
	if !action.Valid() {
		return nil, NewBusinessError("CONVERSION_VALIDATION_FAILED", "Conversion validation failed", ErrInvalidConversion)
	}

	event := ConversionEvent{Source: req.Source, Action: action, PageURL: utils.Deref(req.PageURL)}
	if req.Value != nil {
		if req.Value.IsNegative() {
			return nil, NewBusinessError("CONVERSION_VALIDATION_FAILED", "Conversion validation failed", ErrInvalidConversion)
		}
		event.Value = decimal.NewNullDecimal(roundMoney(*req.Value))
	}

	// A dropped event is already logged and counted by the tracker
	_ = f.tracker.Record(ctx, event, metadata)

	return &dto.TrackConversionResponse{Message: "Conversion recorded"}, nil
}

// createLead inserts the lead and its conversion event in one transaction.
// Only the lead insert can fail the submission.
func (f *IntakeFlowImpl) createLead(ctx context.Context, lead *models.Lead, event ConversionEvent, metadata *ClientMetadata) error {
	return repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.leadRepo.Save(txCtx, lead); err != nil {
			return err
		}

		event.LeadID = &lead.ID
		_ = f.tracker.Record(txCtx, event, metadata)
		return nil
	})
}

var quickQuoteProjectTypes = map[string]bool{
	"school":    true,
	"hospital":  true,
	"ecommerce": true,
	"marketing": true,
	"portfolio": true,
	"blog":      true,
	"custom":    true,
}
