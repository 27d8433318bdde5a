package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/repository"
	testingutil "github.com/amirphl/webbuilder-crm/testing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*testingutil.TestDB, *testingutil.TestFixtures, context.Context) {
	t.Helper()
	tdb := testingutil.NewTestDB(t)
	return tdb, testingutil.NewTestFixtures(tdb), testingutil.CreateTestContext()
}

func TestSequenceCounterRepository(t *testing.T) {
	tdb, _, ctx := setup(t)
	repo := repository.NewSequenceCounterRepository(tdb.DB)
	name := models.QuoteCounterName(2025)

	current, err := repo.Current(ctx, name)
	require.NoError(t, err)
	assert.Zero(t, current)

	for want := int64(1); want <= 3; want++ {
		var got int64
		err := repository.WithTransaction(ctx, tdb.DB, func(txCtx context.Context) error {
			var err error
			got, err = repo.Next(txCtx, name, 0)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	t.Run("FloorSkipsAhead", func(t *testing.T) {
		next, err := repo.Next(ctx, name, 41)
		require.NoError(t, err)
		assert.Equal(t, int64(42), next)

		next, err = repo.Next(ctx, name, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(43), next, "a lower floor never moves the counter back")
	})

	t.Run("RollbackDiscardsAdvance", func(t *testing.T) {
		err := repository.WithTransaction(ctx, tdb.DB, func(txCtx context.Context) error {
			if _, err := repo.Next(txCtx, name, 0); err != nil {
				return err
			}
			return errors.New("abort")
		})
		require.Error(t, err)
		current, err := repo.Current(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, int64(43), current)
	})

	t.Run("CountersAreIndependent", func(t *testing.T) {
		next, err := repo.Next(ctx, models.QuoteCounterName(2026), 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), next)
	})
}

func TestQuoteRepository(t *testing.T) {
	tdb, fixtures, ctx := setup(t)
	repo := repository.NewQuoteRepository(tdb.DB)
	lead, err := fixtures.CreateLead(models.LeadStatusProposal)
	require.NoError(t, err)

	_, err = fixtures.CreateQuote("Q2025999", models.QuoteStatusAccepted, today.AddDate(0, 1, 0), &lead.ID)
	require.NoError(t, err)
	_, err = fixtures.CreateQuote("Q20251000", models.QuoteStatusSent, today.AddDate(0, 0, -1), &lead.ID)
	require.NoError(t, err)
	_, err = fixtures.CreateQuote("Q2025002", models.QuoteStatusDraft, today, nil)
	require.NoError(t, err)
	_, err = fixtures.CreateQuote("Q2024050", models.QuoteStatusDraft, today.AddDate(-1, 0, 0), nil)
	require.NoError(t, err)

	t.Run("LatestNumberWithPrefix", func(t *testing.T) {
		latest, err := repo.LatestNumberWithPrefix(ctx, "Q2025")
		require.NoError(t, err)
		assert.Equal(t, "Q20251000", latest, "longer numbers sort after shorter ones")

		none, err := repo.LatestNumberWithPrefix(ctx, "Q2030")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("ByQuoteNumberNotFound", func(t *testing.T) {
		q, err := repo.ByQuoteNumber(ctx, "Q1999001")
		assert.NoError(t, err)
		assert.Nil(t, q)
	})

	t.Run("CountByEffectiveStatus", func(t *testing.T) {
		counts, err := repo.CountByEffectiveStatus(ctx, today)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts[models.QuoteStatusAccepted])
		assert.Equal(t, int64(2), counts[models.QuoteStatusExpired])
		assert.Equal(t, int64(1), counts[models.QuoteStatusDraft])
		assert.Zero(t, counts[models.QuoteStatusSent])
	})

	t.Run("SumAccepted", func(t *testing.T) {
		accepted, err := repo.ByQuoteNumber(ctx, "Q2025999")
		require.NoError(t, err)
		require.NoError(t, repo.UpdateTotals(ctx, accepted.ID, dec(t, "100"), dec(t, "10"), dec(t, "110.50")))

		sum, err := repo.SumAccepted(ctx)
		require.NoError(t, err)
		assert.Equal(t, "110.50", sum.StringFixed(2))
	})

	t.Run("MarkExpired", func(t *testing.T) {
		n, err := repo.MarkExpired(ctx, today)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		draft, err := repo.ByQuoteNumber(ctx, "Q2025002")
		require.NoError(t, err)
		assert.Equal(t, models.QuoteStatusDraft, draft.Status, "valid through today")

		n, err = repo.MarkExpired(ctx, today)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("DetachLead", func(t *testing.T) {
		n, err := repo.DetachLead(ctx, lead.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		count, err := repo.Count(ctx, models.QuoteFilter{LeadID: &lead.ID})
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestConversionTrackingRepository(t *testing.T) {
	tdb, fixtures, ctx := setup(t)
	repo := repository.NewConversionTrackingRepository(tdb.DB)
	lead, err := fixtures.CreateLead(models.LeadStatusNew)
	require.NoError(t, err)

	t.Run("AppendJoinsOuterTransaction", func(t *testing.T) {
		err := repository.WithTransaction(ctx, tdb.DB, func(txCtx context.Context) error {
			event := &models.ConversionTracking{Source: "quick_quote", Action: models.ConversionActionQuoteRequest, LeadID: &lead.ID}
			require.NoError(t, repo.Append(txCtx, event))
			assert.NotZero(t, event.ID)
			return errors.New("abort")
		})
		require.Error(t, err)

		count, err := repo.Count(ctx, models.ConversionTrackingFilter{})
		require.NoError(t, err)
		assert.Zero(t, count, "the event rolls back with the outer transaction")
	})

	t.Run("CountByActionWindow", func(t *testing.T) {
		_, err := fixtures.CreateConversion(models.ConversionActionContactForm, &lead.ID, today.Add(2*time.Hour))
		require.NoError(t, err)
		_, err = fixtures.CreateConversion(models.ConversionActionContactForm, nil, today.AddDate(0, 0, -3))
		require.NoError(t, err)

		after := today
		counts, err := repo.CountByAction(ctx, &after, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts[models.ConversionActionContactForm])
		assert.Zero(t, counts[models.ConversionActionPhoneCall])
	})

	t.Run("DetachLeadKeepsEvents", func(t *testing.T) {
		n, err := repo.DetachLead(ctx, lead.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		count, err := repo.Count(ctx, models.ConversionTrackingFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}

func TestLeadRepository(t *testing.T) {
	tdb, fixtures, ctx := setup(t)
	repo := repository.NewLeadRepository(tdb.DB)
	for _, s := range []models.LeadStatus{models.LeadStatusNew, models.LeadStatusNew, models.LeadStatusClosedWon} {
		_, err := fixtures.CreateLead(s)
		require.NoError(t, err)
	}

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[models.LeadStatusNew])
	assert.Equal(t, int64(1), counts[models.LeadStatusClosedWon])
	assert.Zero(t, counts[models.LeadStatusProposal])

	missing, err := repo.ByID(ctx, 999)
	assert.NoError(t, err)
	assert.Nil(t, missing)

	leads, err := repo.ByIDs(ctx, []uint{1, 3, 999})
	require.NoError(t, err)
	assert.Len(t, leads, 2)
}

func TestStaffUserRepository(t *testing.T) {
	tdb, fixtures, ctx := setup(t)
	repo := repository.NewStaffUserRepository(tdb.DB)
	staff, err := fixtures.CreateStaffUser("sales")
	require.NoError(t, err)

	found, err := repo.ByUsername(ctx, "sales")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, staff.ID, found.ID)
	assert.Nil(t, found.LastLoginAt)

	none, err := repo.ByUsername(ctx, "nobody")
	assert.NoError(t, err)
	assert.Nil(t, none)

	at := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, staff.ID, at))
	found, err = repo.ByID(ctx, staff.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastLoginAt)
	assert.True(t, found.LastLoginAt.Equal(at))
}

func TestSiteSettingRepository(t *testing.T) {
	tdb, _, ctx := setup(t)
	repo := repository.NewSiteSettingRepository(tdb.DB)

	first, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SiteSettingID, first.ID)

	first.MaintenanceMode = true
	first.ContactEmail = "hello@example.com"
	require.NoError(t, repo.Update(ctx, first))

	again, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.True(t, again.MaintenanceMode)
	assert.Equal(t, "hello@example.com", again.ContactEmail)
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
