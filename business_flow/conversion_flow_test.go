package businessflow

import (
	"context"
	"testing"

	"github.com/amirphl/webbuilder-crm/app/dto"
	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversionFlow_ListConversions(t *testing.T) {
	env := newFlowEnv(t)
	flow := NewConversionFlow(env.conversionRepo)
	ctx := context.Background()
	lead := env.lead(t, models.LeadStatusNew)

	_, err := env.fixtures.CreateConversion(models.ConversionActionContactForm, &lead.ID, testNow.AddDate(0, 0, -10))
	require.NoError(t, err)
	_, err = env.fixtures.CreateConversion(models.ConversionActionPhoneCall, nil, testNow.AddDate(0, 0, -1))
	require.NoError(t, err)
	latest, err := env.fixtures.CreateConversion(models.ConversionActionPhoneCall, nil, testNow)
	require.NoError(t, err)

	all, err := flow.ListConversions(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all.Items, 3)
	assert.Equal(t, latest.ID, all.Items[0].ID, "newest first")

	action := "phone_call"
	calls, err := flow.ListConversions(ctx, &dto.ListConversionsRequest{Action: &action})
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Pagination.Total)

	window, err := flow.ListConversions(ctx, &dto.ListConversionsRequest{From: utils.ToPtr("2025-06-14"), To: utils.ToPtr("2025-06-14")})
	require.NoError(t, err)
	require.Len(t, window.Items, 1)
	assert.Equal(t, "phone_call", window.Items[0].Action)

	byLead, err := flow.ListConversions(ctx, &dto.ListConversionsRequest{LeadID: &lead.ID})
	require.NoError(t, err)
	require.Len(t, byLead.Items, 1)
	assert.Equal(t, "contact_form", byLead.Items[0].Action)

	bad := "signup"
	_, err = flow.ListConversions(ctx, &dto.ListConversionsRequest{Action: &bad})
	assert.ErrorIs(t, err, ErrInvalidConversion)
}
