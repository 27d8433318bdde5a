package models_test

import (
	"testing"
	"time"

	"github.com/amirphl/webbuilder-crm/models"
	testingutil "github.com/amirphl/webbuilder-crm/testing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteEffectiveStatus(t *testing.T) {
	validUntil := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	lastDay := time.Date(2025, 7, 15, 23, 59, 0, 0, time.UTC)
	dayAfter := time.Date(2025, 7, 16, 0, 0, 1, 0, time.UTC)

	tests := []struct {
		name   string
		status models.QuoteStatus
		now    time.Time
		want   models.QuoteStatus
	}{
		{"draft on last day", models.QuoteStatusDraft, lastDay, models.QuoteStatusDraft},
		{"draft day after", models.QuoteStatusDraft, dayAfter, models.QuoteStatusExpired},
		{"sent day after", models.QuoteStatusSent, dayAfter, models.QuoteStatusExpired},
		{"accepted day after", models.QuoteStatusAccepted, dayAfter, models.QuoteStatusAccepted},
		{"rejected day after", models.QuoteStatusRejected, dayAfter, models.QuoteStatusRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &models.Quote{Status: tt.status, ValidUntil: validUntil}
			assert.Equal(t, tt.want, q.EffectiveStatus(tt.now))
		})
	}

	q := &models.Quote{Status: models.QuoteStatusDraft, ValidUntil: validUntil}
	assert.True(t, q.IsEditable(lastDay))
	assert.False(t, q.IsEditable(dayAfter))
	q.Status = models.QuoteStatusSent
	assert.False(t, q.IsEditable(lastDay))
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, models.LeadStatusProposal.Valid())
	assert.False(t, models.LeadStatus("archived").Valid())
	assert.True(t, models.LeadStatusClosedLost.IsClosed())
	assert.False(t, models.LeadStatusQualified.IsClosed())

	assert.True(t, models.QuoteStatusExpired.IsTerminal())
	assert.False(t, models.QuoteStatusSent.IsTerminal())
	assert.False(t, models.QuoteStatus("void").Valid())

	assert.Equal(t, "quote:2025", models.QuoteCounterName(2025))
}

func TestLeadMarkContacted(t *testing.T) {
	first := time.Date(2025, 6, 1, 9, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	lead := &models.Lead{}

	lead.MarkContacted(first)
	require.NotNil(t, lead.ContactedAt)
	assert.Equal(t, time.UTC, lead.ContactedAt.Location())

	lead.MarkContacted(first.Add(48 * time.Hour))
	assert.True(t, lead.ContactedAt.Equal(first), "first contact time is kept")
}

func TestBeforeCreateDefaults(t *testing.T) {
	tdb := testingutil.NewTestDB(t)

	lead := &models.Lead{Name: "Grace", Email: "grace@example.com"}
	require.NoError(t, tdb.DB.Create(lead).Error)
	assert.NotEqual(t, uuid.Nil, lead.UUID)
	assert.Equal(t, models.LeadStatusNew, lead.Status)
	assert.Equal(t, models.LeadSourceWebsite, lead.Source)
	assert.False(t, lead.CreatedAt.IsZero())

	quote := &models.Quote{QuoteNumber: "Q2025001", ClientName: "Grace", ClientEmail: "grace@example.com"}
	require.NoError(t, tdb.DB.Create(quote).Error)
	assert.Equal(t, models.QuoteStatusDraft, quote.Status)

	var stored models.Lead
	require.NoError(t, tdb.DB.First(&stored, lead.ID).Error)
	assert.Equal(t, lead.UUID, stored.UUID)
}
