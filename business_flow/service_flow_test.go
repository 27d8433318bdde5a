package businessflow

import (
	"context"
	"testing"

	"github.com/amirphl/webbuilder-crm/app/dto"
	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceFlow_CreateAndList(t *testing.T) {
	env := newFlowEnv(t)
	flow := NewServiceFlow(env.serviceRepo, env.auditRepo)
	ctx := context.Background()

	created, err := flow.CreateService(ctx, &dto.CreateServiceRequest{
		Name:         "Business Website",
		Slug:         "Business-Website",
		Category:     "web_development",
		BasePrice:    dec("1499.995"),
		Features:     []string{"5 pages", " ", "CMS"},
		DisplayOrder: 2,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "business-website", created.Slug)
	assert.Equal(t, "1500.00", created.BasePrice)
	assert.Equal(t, []string{"5 pages", "CMS"}, created.Features)
	assert.True(t, created.IsActive)

	_, err = flow.CreateService(ctx, &dto.CreateServiceRequest{
		Name: "Hidden", Slug: "hidden", Category: "hosting", BasePrice: dec("10"), IsActive: utils.ToPtr(false),
	}, nil)
	require.NoError(t, err)

	active, err := flow.ListServices(ctx, true)
	require.NoError(t, err)
	require.Len(t, active.Items, 1)
	assert.Equal(t, "business-website", active.Items[0].Slug)

	all, err := flow.ListServices(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
}

func TestServiceFlow_Validation(t *testing.T) {
	env := newFlowEnv(t)
	flow := NewServiceFlow(env.serviceRepo, env.auditRepo)
	ctx := context.Background()
	env.service(t, "seo-audit", "300")

	tests := []struct {
		name    string
		req     *dto.CreateServiceRequest
		wantErr error
	}{
		{"duplicate slug", &dto.CreateServiceRequest{Name: "SEO", Slug: "seo-audit", Category: "seo", BasePrice: dec("1")}, ErrDuplicateSlug},
		{"bad slug", &dto.CreateServiceRequest{Name: "SEO", Slug: "seo audit!", Category: "seo", BasePrice: dec("1")}, ErrInvalidServiceInput},
		{"bad category", &dto.CreateServiceRequest{Name: "SEO", Slug: "seo-2", Category: "astrology", BasePrice: dec("1")}, ErrInvalidServiceInput},
		{"negative price", &dto.CreateServiceRequest{Name: "SEO", Slug: "seo-3", Category: "seo", BasePrice: dec("-1")}, ErrNegativeServicePrice},
		{"recurring without period", &dto.CreateServiceRequest{Name: "Care", Slug: "care", Category: "maintenance", BasePrice: dec("1"), IsRecurring: true}, ErrInvalidServiceInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := flow.CreateService(ctx, tt.req, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestServiceFlow_PriceChangeLeavesQuoteLinesAlone(t *testing.T) {
	f := newQuoteFixture(t)
	serviceFlow := NewServiceFlow(f.env.serviceRepo, f.env.auditRepo)
	ctx := context.Background()
	q := f.standardQuote(t)

	updated, err := serviceFlow.UpdateService(ctx, f.design.ID, &dto.UpdateServiceRequest{BasePrice: utils.ToPtr(dec("400"))}, nil)
	require.NoError(t, err)
	assert.Equal(t, "400.00", updated.BasePrice)

	again, err := f.flow.Recalculate(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "253.00", again.TotalAmount)

	_, err = serviceFlow.UpdateService(ctx, 9999, &dto.UpdateServiceRequest{}, nil)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}
