package businessflow

import (
	"testing"
	"time"

	"github.com/amirphl/webbuilder-crm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyLeadTransition(t *testing.T) {
	tests := []struct {
		name     string
		from, to models.LeadStatus
		override bool
		want     LeadTransitionKind
		wantErr  error
	}{
		{name: "new to contacted", from: models.LeadStatusNew, to: models.LeadStatusContacted, want: LeadTransitionForward},
		{name: "contacted to qualified", from: models.LeadStatusContacted, to: models.LeadStatusQualified, want: LeadTransitionForward},
		{name: "qualified to proposal", from: models.LeadStatusQualified, to: models.LeadStatusProposal, want: LeadTransitionForward},
		{name: "proposal to won", from: models.LeadStatusProposal, to: models.LeadStatusClosedWon, want: LeadTransitionForward},
		{name: "any open to lost", from: models.LeadStatusQualified, to: models.LeadStatusClosedLost, want: LeadTransitionForward},
		{name: "same status", from: models.LeadStatusProposal, to: models.LeadStatusProposal, want: LeadTransitionNone},
		{name: "skip ahead rejected", from: models.LeadStatusNew, to: models.LeadStatusClosedWon, wantErr: ErrInvalidTransition},
		{name: "backwards rejected", from: models.LeadStatusQualified, to: models.LeadStatusNew, wantErr: ErrInvalidTransition},
		{name: "reopen lost rejected", from: models.LeadStatusClosedLost, to: models.LeadStatusContacted, wantErr: ErrInvalidTransition},
		{name: "skip ahead with override", from: models.LeadStatusNew, to: models.LeadStatusClosedWon, override: true, want: LeadTransitionOverride},
		{name: "reopen with override", from: models.LeadStatusClosedLost, to: models.LeadStatusContacted, override: true, want: LeadTransitionOverride},
		{name: "unknown target", from: models.LeadStatusNew, to: "archived", override: true, wantErr: ErrInvalidLeadStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := ClassifyLeadTransition(tt.from, tt.to, tt.override)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestAllowedLeadTransitions(t *testing.T) {
	assert.Equal(t, []models.LeadStatus{models.LeadStatusContacted, models.LeadStatusClosedLost}, AllowedLeadTransitions(models.LeadStatusNew))
	assert.Empty(t, AllowedLeadTransitions(models.LeadStatusClosedWon))
}

func TestCanTransitionQuote(t *testing.T) {
	tests := []struct {
		from, to models.QuoteStatus
		want     bool
	}{
		{models.QuoteStatusDraft, models.QuoteStatusSent, true},
		{models.QuoteStatusDraft, models.QuoteStatusAccepted, false},
		{models.QuoteStatusSent, models.QuoteStatusAccepted, true},
		{models.QuoteStatusSent, models.QuoteStatusRejected, true},
		{models.QuoteStatusSent, models.QuoteStatusDraft, true},
		{models.QuoteStatusAccepted, models.QuoteStatusDraft, false},
		{models.QuoteStatusRejected, models.QuoteStatusSent, false},
		{models.QuoteStatusExpired, models.QuoteStatusAccepted, false},
		{models.QuoteStatusExpired, models.QuoteStatusDraft, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionQuote(tt.from, tt.to))
		})
	}
}

func TestQuoteEffectiveStatus(t *testing.T) {
	validUntil := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	onDay := time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)
	dayAfter := time.Date(2025, 3, 11, 0, 0, 1, 0, time.UTC)

	for _, status := range []models.QuoteStatus{models.QuoteStatusDraft, models.QuoteStatusSent} {
		q := &models.Quote{Status: status, ValidUntil: validUntil}
		assert.Equal(t, status, q.EffectiveStatus(onDay), "valid through the whole last day")
		assert.Equal(t, models.QuoteStatusExpired, q.EffectiveStatus(dayAfter))
	}

	accepted := &models.Quote{Status: models.QuoteStatusAccepted, ValidUntil: validUntil}
	assert.Equal(t, models.QuoteStatusAccepted, accepted.EffectiveStatus(dayAfter))

	draft := &models.Quote{Status: models.QuoteStatusDraft, ValidUntil: validUntil}
	assert.True(t, draft.IsEditable(onDay))
	assert.False(t, draft.IsEditable(dayAfter))
	sent := &models.Quote{Status: models.QuoteStatusSent, ValidUntil: validUntil}
	assert.False(t, sent.IsEditable(onDay))
}
