package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/amirphl/webbuilder-crm/app/dto"
	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/repository"
	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingConversionRepo drops every append
type failingConversionRepo struct {
	repository.ConversionTrackingRepository
	appends int
}

func (r *failingConversionRepo) Append(ctx context.Context, event *models.ConversionTracking) error {
	r.appends++
	return errors.New("disk full")
}

func TestBudgetForRange(t *testing.T) {
	tests := []struct {
		budgetRange string
		want        string
		wantErr     bool
	}{
		{"5000-10000", "7500", false},
		{"10000-25000", "17500", false},
		{"25000-50000", "37500", false},
		{"50000+", "75000", false},
		{" 10000-25000 ", "17500", false},
		{"1-2", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.budgetRange, func(t *testing.T) {
			got, err := BudgetForRange(tt.budgetRange)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBudgetRange)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(dec(tt.want)), "got %s", got)
		})
	}
}

func findLeadByUUID(t *testing.T, env *flowEnv, uuid string) *models.Lead {
	t.Helper()
	var lead models.Lead
	require.NoError(t, env.db.Where("uuid = ?", uuid).Take(&lead).Error)
	return &lead
}

func conversionsOf(t *testing.T, env *flowEnv, leadID uint) []*models.ConversionTracking {
	t.Helper()
	events, err := env.conversionRepo.ByFilter(context.Background(), models.ConversionTrackingFilter{LeadID: &leadID}, "", 0, 0)
	require.NoError(t, err)
	return events
}

func TestIntakeFlow_QuickQuote(t *testing.T) {
	env := newFlowEnv(t)
	flow := env.intakeFlow(nil)
	metadata := NewClientMetadata("203.0.113.9", "Mozilla/5.0")
	metadata.SetReferer("https://example.com/pricing")

	resp, err := flow.SubmitQuickQuote(context.Background(), &dto.QuickQuoteRequest{
		Name:        "Katherine Johnson",
		Email:       "kj@example.com",
		ProjectType: "ecommerce",
		BudgetRange: "10000-25000",
	}, metadata)
	require.NoError(t, err)

	lead := findLeadByUUID(t, env, resp.LeadUUID)
	assert.Equal(t, models.LeadStatusNew, lead.Status)
	assert.Equal(t, models.LeadSourceWebsite, lead.Source)
	assert.Equal(t, "ecommerce", lead.ProjectType)
	require.True(t, lead.Budget.Valid)
	assert.Equal(t, "17500.00", lead.Budget.Decimal.StringFixed(2))

	events := conversionsOf(t, env, lead.ID)
	require.Len(t, events, 1)
	assert.Equal(t, models.ConversionActionQuoteRequest, events[0].Action)
	assert.Equal(t, "website", events[0].Source)
	require.NotNil(t, events[0].PageURL)
	assert.Equal(t, "https://example.com/pricing", *events[0].PageURL)
	require.NotNil(t, events[0].IPAddress)
	assert.Equal(t, "203.0.113.9", *events[0].IPAddress)
}

func TestIntakeFlow_QuickQuoteValidation(t *testing.T) {
	env := newFlowEnv(t)
	flow := env.intakeFlow(nil)

	tests := []struct {
		name    string
		req     *dto.QuickQuoteRequest
		wantErr error
	}{
		{"unknown budget", &dto.QuickQuoteRequest{Name: "A", Email: "a@example.com", ProjectType: "blog", BudgetRange: "1-2"}, ErrInvalidBudgetRange},
		{"unknown project type", &dto.QuickQuoteRequest{Name: "A", Email: "a@example.com", ProjectType: "game", BudgetRange: "50000+"}, ErrInvalidProjectType},
		{"missing email", &dto.QuickQuoteRequest{Name: "A", ProjectType: "blog", BudgetRange: "50000+"}, ErrEmailRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := flow.SubmitQuickQuote(context.Background(), tt.req, nil)
			require.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}

	count, err := env.leadRepo.Count(context.Background(), models.LeadFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIntakeFlow_ContactForm(t *testing.T) {
	env := newFlowEnv(t)
	flow := env.intakeFlow(nil)

	resp, err := flow.SubmitContact(context.Background(), &dto.ContactFormRequest{
		Name:    "Alan Turing",
		Email:   "alan@example.com",
		Subject: "Redesign",
		Message: "Our site needs a refresh.",
		PageURL: utils.ToPtr("https://example.com/contact"),
	}, nil)
	require.NoError(t, err)

	lead := findLeadByUUID(t, env, resp.LeadUUID)
	assert.Equal(t, "Redesign\n\nOur site needs a refresh.", lead.Message)
	assert.False(t, lead.Budget.Valid)

	events := conversionsOf(t, env, lead.ID)
	require.Len(t, events, 1)
	assert.Equal(t, models.ConversionActionContactForm, events[0].Action)
	assert.Equal(t, "website", events[0].Source)
	assert.Equal(t, "https://example.com/contact", *events[0].PageURL)
}

func TestIntakeFlow_LeadCapture(t *testing.T) {
	env := newFlowEnv(t)
	flow := env.intakeFlow(nil)

	resp, err := flow.SubmitLeadCapture(context.Background(), &dto.LeadCaptureRequest{
		Name:        "Hedy Lamarr",
		Email:       "hedy@example.com",
		BudgetRange: "50000+",
		PageURL:     utils.ToPtr("https://example.com/landing"),
	}, nil)
	require.NoError(t, err)

	lead := findLeadByUUID(t, env, resp.LeadUUID)
	assert.Equal(t, models.LeadSourceWebsite, lead.Source)
	assert.Equal(t, "75000.00", lead.Budget.Decimal.StringFixed(2))

	events := conversionsOf(t, env, lead.ID)
	require.Len(t, events, 1)
	assert.Equal(t, "website", events[0].Source)
	assert.Equal(t, models.ConversionActionContactForm, events[0].Action)
	assert.Equal(t, "https://example.com/landing", *events[0].PageURL)
}

func TestIntakeFlow_TrackingFailureNeverFailsSubmission(t *testing.T) {
	env := newFlowEnv(t)
	failing := &failingConversionRepo{ConversionTrackingRepository: env.conversionRepo}
	flow := env.intakeFlow(failing)

	resp, err := flow.SubmitQuickQuote(context.Background(), &dto.QuickQuoteRequest{
		Name:        "Margaret Hamilton",
		Email:       "mh@example.com",
		ProjectType: "custom",
		BudgetRange: "25000-50000",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, failing.appends)

	lead := findLeadByUUID(t, env, resp.LeadUUID)
	assert.Equal(t, "37500.00", lead.Budget.Decimal.StringFixed(2))
	assert.Empty(t, conversionsOf(t, env, lead.ID))
	assert.Contains(t, env.logs.String(), "dropped quote_request event")

	_, err = flow.TrackConversion(context.Background(), &dto.TrackConversionRequest{Source: "pricing_page", Action: "phone_call"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, failing.appends)
}

func TestIntakeFlow_TrackConversion(t *testing.T) {
	env := newFlowEnv(t)
	flow := env.intakeFlow(nil)
	ctx := context.Background()

	_, err := flow.TrackConversion(ctx, &dto.TrackConversionRequest{
		Source: "pricing_page",
		Action: "phone_call",
		Value:  utils.ToPtr(dec("99.999")),
	}, nil)
	require.NoError(t, err)

	events, err := env.conversionRepo.ByFilter(ctx, models.ConversionTrackingFilter{}, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].LeadID)
	assert.Equal(t, "100.00", events[0].Value.Decimal.StringFixed(2))

	leads, err := env.leadRepo.Count(ctx, models.LeadFilter{})
	require.NoError(t, err)
	assert.Zero(t, leads)

	_, err = flow.TrackConversion(ctx, &dto.TrackConversionRequest{Source: "x", Action: "signup"}, nil)
	assert.ErrorIs(t, err, ErrInvalidConversion)
	_, err = flow.TrackConversion(ctx, &dto.TrackConversionRequest{Action: "phone_call"}, nil)
	assert.ErrorIs(t, err, ErrConversionSourceReq)
}
