package businessflow

import (
	"context"
	"testing"

	"github.com/amirphl/webbuilder-crm/app/dto"
	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quoteFixture struct {
	env     *flowEnv
	flow    QuoteFlow
	design  *models.Service
	hosting *models.Service
}

func newQuoteFixture(t *testing.T) *quoteFixture {
	env := newFlowEnv(t)
	return &quoteFixture{
		env:     env,
		flow:    env.quoteFlow(nil),
		design:  env.service(t, "web-design", "100.00"),
		hosting: env.service(t, "hosting", "50.00"),
	}
}

// standardQuote prices 2 × 100 at 10% off plus 1 × 50, at the default 10% tax
func (f *quoteFixture) standardQuote(t *testing.T) *dto.QuoteDTO {
	t.Helper()
	q, err := f.flow.CreateQuote(context.Background(), &dto.CreateQuoteRequest{
		ClientName:  "  Ada Lovelace ",
		ClientEmail: "Ada@Example.com",
		Items: []dto.QuoteItemRequest{
			{ServiceID: f.design.ID, Quantity: 2, DiscountPercentage: utils.ToPtr(dec("10"))},
			{ServiceID: f.hosting.ID, Quantity: 1},
		},
	}, nil)
	require.NoError(t, err)
	return q
}

func TestQuoteFlow_CreateQuotePricesLines(t *testing.T) {
	f := newQuoteFixture(t)
	q := f.standardQuote(t)

	assert.Equal(t, "Q2025001", q.QuoteNumber)
	assert.Equal(t, "Ada Lovelace", q.ClientName)
	assert.Equal(t, "ada@example.com", q.ClientEmail)
	assert.Equal(t, "230.00", q.Subtotal)
	assert.Equal(t, "10.00", q.TaxRate)
	assert.Equal(t, "23.00", q.TaxAmount)
	assert.Equal(t, "253.00", q.TotalAmount)
	assert.Equal(t, "draft", q.Status)
	assert.True(t, q.Editable)
	assert.Equal(t, "2025-07-15", q.ValidUntil)
	require.Len(t, q.Items, 2)

	totals := map[uint]string{}
	for _, it := range q.Items {
		totals[it.ServiceID] = it.TotalPrice
	}
	assert.Equal(t, "180.00", totals[f.design.ID])
	assert.Equal(t, "50.00", totals[f.hosting.ID])

	assert.Contains(t, f.env.auditActions(t, models.AuditTargetQuote, q.ID), models.AuditActionQuoteCreated)
}

func TestQuoteFlow_CreateQuoteValidation(t *testing.T) {
	f := newQuoteFixture(t)
	inactive := f.env.service(t, "retired", "10.00")
	require.NoError(t, f.env.db.Model(inactive).Update("is_active", false).Error)

	tests := []struct {
		name    string
		req     *dto.CreateQuoteRequest
		wantErr error
	}{
		{
			name:    "missing client name",
			req:     &dto.CreateQuoteRequest{ClientEmail: "a@example.com"},
			wantErr: ErrClientNameRequired,
		},
		{
			name:    "bad email",
			req:     &dto.CreateQuoteRequest{ClientName: "A", ClientEmail: "nope"},
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "tax above 100",
			req:     &dto.CreateQuoteRequest{ClientName: "A", ClientEmail: "a@example.com", TaxRate: utils.ToPtr(dec("101"))},
			wantErr: ErrTaxRateOutOfRange,
		},
		{
			name:    "bad valid_until",
			req:     &dto.CreateQuoteRequest{ClientName: "A", ClientEmail: "a@example.com", ValidUntil: utils.ToPtr("15/07/2025")},
			wantErr: ErrInvalidValidUntil,
		},
		{
			name:    "valid_until yesterday",
			req:     &dto.CreateQuoteRequest{ClientName: "A", ClientEmail: "a@example.com", ValidUntil: utils.ToPtr("2025-06-14")},
			wantErr: ErrValidUntilInPast,
		},
		{
			name: "zero quantity",
			req: &dto.CreateQuoteRequest{ClientName: "A", ClientEmail: "a@example.com", Items: []dto.QuoteItemRequest{
				{ServiceID: f.design.ID, Quantity: 0},
			}},
			wantErr: ErrInvalidQuantity,
		},
		{
			name: "inactive service",
			req: &dto.CreateQuoteRequest{ClientName: "A", ClientEmail: "a@example.com", Items: []dto.QuoteItemRequest{
				{ServiceID: inactive.ID, Quantity: 1},
			}},
			wantErr: ErrInactiveService,
		},
		{
			name: "unknown service",
			req: &dto.CreateQuoteRequest{ClientName: "A", ClientEmail: "a@example.com", Items: []dto.QuoteItemRequest{
				{ServiceID: 9999, Quantity: 1},
			}},
			wantErr: ErrServiceNotFound,
		},
		{
			name:    "unknown lead",
			req:     &dto.CreateQuoteRequest{ClientName: "A", ClientEmail: "a@example.com", LeadID: utils.ToPtr(uint(9999))},
			wantErr: ErrLeadNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.flow.CreateQuote(context.Background(), tt.req, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	count, err := f.env.quoteRepo.Count(context.Background(), models.QuoteFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestQuoteFlow_SendRequiresItems(t *testing.T) {
	f := newQuoteFixture(t)
	q := createBareQuote(t, f.flow)

	_, err := f.flow.ChangeStatus(context.Background(), q.ID, &dto.ChangeQuoteStatusRequest{Status: "sent"}, nil)
	require.ErrorIs(t, err, ErrQuoteEmpty)
	assert.Equal(t, "QUOTE_EMPTY", ErrorCode(err))
}

func TestQuoteFlow_LineItemsLockAfterSend(t *testing.T) {
	f := newQuoteFixture(t)
	ctx := context.Background()
	q := f.standardQuote(t)

	sent, err := f.flow.ChangeStatus(ctx, q.ID, &dto.ChangeQuoteStatusRequest{Status: "sent"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "sent", sent.Status)
	assert.False(t, sent.Editable)
	require.NotNil(t, sent.SentAt)

	_, err = f.flow.AddItem(ctx, q.ID, &dto.QuoteItemRequest{ServiceID: f.hosting.ID, Quantity: 1}, nil)
	assert.ErrorIs(t, err, ErrQuoteLocked)
	assert.True(t, IsConflict(err))

	_, err = f.flow.UpdateItem(ctx, q.ID, q.Items[0].ID, &dto.UpdateQuoteItemRequest{Quantity: utils.ToPtr(5)}, nil)
	assert.ErrorIs(t, err, ErrQuoteLocked)

	_, err = f.flow.RemoveItem(ctx, q.ID, q.Items[0].ID, nil)
	assert.ErrorIs(t, err, ErrQuoteLocked)

	_, err = f.flow.UpdateQuote(ctx, q.ID, &dto.UpdateQuoteRequest{TaxRate: utils.ToPtr(dec("20"))}, nil)
	assert.ErrorIs(t, err, ErrQuoteLocked)

	// non-pricing header fields stay editable
	updated, err := f.flow.UpdateQuote(ctx, q.ID, &dto.UpdateQuoteRequest{Notes: utils.ToPtr("call on Monday")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "call on Monday", updated.Notes)
	assert.Equal(t, "253.00", updated.TotalAmount)
}

func TestQuoteFlow_ReopenToDraft(t *testing.T) {
	f := newQuoteFixture(t)
	ctx := context.Background()
	q := f.standardQuote(t)

	_, err := f.flow.ChangeStatus(ctx, q.ID, &dto.ChangeQuoteStatusRequest{Status: "sent"}, nil)
	require.NoError(t, err)

	reopened, err := f.flow.ChangeStatus(ctx, q.ID, &dto.ChangeQuoteStatusRequest{Status: "draft"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "draft", reopened.Status)
	assert.True(t, reopened.Editable)
	assert.Nil(t, reopened.SentAt)

	withItem, err := f.flow.AddItem(ctx, q.ID, &dto.QuoteItemRequest{
		ServiceID: f.hosting.ID,
		Quantity:  2,
		UnitPrice: utils.ToPtr(dec("25.00")),
	}, nil)
	require.NoError(t, err)
	assert.Len(t, withItem.Items, 3)
	assert.Equal(t, "280.00", withItem.Subtotal)
	assert.Equal(t, "28.00", withItem.TaxAmount)
	assert.Equal(t, "308.00", withItem.TotalAmount)
}

func TestQuoteFlow_StatusTransitions(t *testing.T) {
	f := newQuoteFixture(t)
	ctx := context.Background()
	q := f.standardQuote(t)

	_, err := f.flow.ChangeStatus(ctx, q.ID, &dto.ChangeQuoteStatusRequest{Status: "accepted"}, nil)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.True(t, IsConflict(err))

	_, err = f.flow.ChangeStatus(ctx, q.ID, &dto.ChangeQuoteStatusRequest{Status: "expired"}, nil)
	assert.ErrorIs(t, err, ErrInvalidQuoteStatus)

	_, err = f.flow.ChangeStatus(ctx, q.ID, &dto.ChangeQuoteStatusRequest{Status: "sent"}, nil)
	require.NoError(t, err)
	accepted, err := f.flow.ChangeStatus(ctx, q.ID, &dto.ChangeQuoteStatusRequest{Status: "accepted"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "accepted", accepted.Status)

	_, err = f.flow.ChangeStatus(ctx, q.ID, &dto.ChangeQuoteStatusRequest{Status: "draft"}, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	actions := f.env.auditActions(t, models.AuditTargetQuote, q.ID)
	assert.Contains(t, actions, models.AuditActionQuoteStatusChanged)
}

func TestQuoteFlow_ExpiryIsDerivedAtReadTime(t *testing.T) {
	f := newQuoteFixture(t)
	ctx := context.Background()
	q := f.standardQuote(t)
	_, err := f.flow.ChangeStatus(ctx, q.ID, &dto.ChangeQuoteStatusRequest{Status: "sent"}, nil)
	require.NoError(t, err)

	// still valid on the last day
	f.env.clock.Set(testNow.AddDate(0, 1, 0))
	got, err := f.flow.GetQuote(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "sent", got.Status)

	f.env.clock.Set(testNow.AddDate(0, 1, 1))
	got, err = f.flow.GetQuote(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "expired", got.Status)
	assert.Equal(t, "sent", got.StoredStatus)

	_, err = f.flow.ChangeStatus(ctx, q.ID, &dto.ChangeQuoteStatusRequest{Status: "accepted"}, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	expired := "expired"
	list, err := f.flow.ListQuotes(ctx, &dto.ListQuotesRequest{Status: &expired})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, q.ID, list.Items[0].ID)

	n, err := f.flow.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err = f.flow.GetQuote(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "expired", got.StoredStatus)

	n, err = f.flow.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestQuoteFlow_ValidUntilEdits(t *testing.T) {
	f := newQuoteFixture(t)
	ctx := context.Background()

	today, err := f.flow.CreateQuote(ctx, &dto.CreateQuoteRequest{
		ClientName:  "Ada Lovelace",
		ClientEmail: "ada@example.com",
		ValidUntil:  utils.ToPtr("2025-06-15"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-15", today.ValidUntil)
	assert.Equal(t, "draft", today.Status)

	q := f.standardQuote(t)
	_, err = f.flow.UpdateQuote(ctx, q.ID, &dto.UpdateQuoteRequest{ValidUntil: utils.ToPtr("2025-06-01")}, nil)
	require.ErrorIs(t, err, ErrValidUntilInPast)
	assert.True(t, IsValidationError(err))

	_, err = f.flow.ChangeStatus(ctx, q.ID, &dto.ChangeQuoteStatusRequest{Status: "sent"}, nil)
	require.NoError(t, err)
	got, err := f.flow.UpdateQuote(ctx, q.ID, &dto.UpdateQuoteRequest{ValidUntil: utils.ToPtr("2025-08-01")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "2025-08-01", got.ValidUntil)
	assert.Equal(t, "sent", got.Status)

	f.env.clock.Set(testNow.AddDate(0, 2, 0))
	got, err = f.flow.GetQuote(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, "expired", got.Status)

	_, err = f.flow.UpdateQuote(ctx, q.ID, &dto.UpdateQuoteRequest{ValidUntil: utils.ToPtr("2026-08-15")}, nil)
	require.ErrorIs(t, err, ErrQuoteLocked)
	assert.True(t, IsConflict(err))

	got, err = f.flow.GetQuote(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "expired", got.Status)
	assert.Equal(t, "2025-08-01", got.ValidUntil)

	_, err = f.flow.ChangeStatus(ctx, q.ID, &dto.ChangeQuoteStatusRequest{Status: "accepted"}, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// same answer once the sweep has stored the expiry
	_, err = f.flow.ExpireOverdue(ctx)
	require.NoError(t, err)
	got, err = f.flow.GetQuote(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, "expired", got.StoredStatus)
	_, err = f.flow.UpdateQuote(ctx, q.ID, &dto.UpdateQuoteRequest{ValidUntil: utils.ToPtr("2026-08-15")}, nil)
	assert.ErrorIs(t, err, ErrQuoteLocked)

	// header edits that leave the date alone still go through
	got, err = f.flow.UpdateQuote(ctx, q.ID, &dto.UpdateQuoteRequest{
		ValidUntil: utils.ToPtr("2025-08-01"),
		Notes:      utils.ToPtr("Superseded by a new proposal"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Superseded by a new proposal", got.Notes)
	assert.Equal(t, "expired", got.Status)
}

func TestQuoteFlow_ItemEditsReprice(t *testing.T) {
	f := newQuoteFixture(t)
	ctx := context.Background()
	q := f.standardQuote(t)

	var designItem uint
	for _, it := range q.Items {
		if it.ServiceID == f.design.ID {
			designItem = it.ID
		}
	}

	updated, err := f.flow.UpdateItem(ctx, q.ID, designItem, &dto.UpdateQuoteItemRequest{
		DiscountPercentage: utils.ToPtr(decimal.NewFromInt(100)),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "50.00", updated.Subtotal)
	assert.Equal(t, "55.00", updated.TotalAmount)

	removed, err := f.flow.RemoveItem(ctx, q.ID, designItem, nil)
	require.NoError(t, err)
	assert.Len(t, removed.Items, 1)
	assert.Equal(t, "55.00", removed.TotalAmount)

	_, err = f.flow.RemoveItem(ctx, q.ID, designItem, nil)
	assert.ErrorIs(t, err, ErrLineItemNotFound)

	retaxed, err := f.flow.UpdateQuote(ctx, q.ID, &dto.UpdateQuoteRequest{TaxRate: utils.ToPtr(dec("0"))}, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.00", retaxed.TaxAmount)
	assert.Equal(t, "50.00", retaxed.TotalAmount)
}

func TestQuoteFlow_RecalculateIsIdempotent(t *testing.T) {
	f := newQuoteFixture(t)
	ctx := context.Background()
	q := f.standardQuote(t)

	require.NoError(t, f.env.db.Model(&models.Quote{}).Where("id = ?", q.ID).
		Updates(map[string]any{"subtotal": "1.00", "tax_amount": "1.00", "total_amount": "2.00"}).Error)

	first, err := f.flow.Recalculate(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "253.00", first.TotalAmount)

	second, err := f.flow.Recalculate(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Subtotal, second.Subtotal)
	assert.Equal(t, first.TaxAmount, second.TaxAmount)
	assert.Equal(t, first.TotalAmount, second.TotalAmount)
}

func TestQuoteFlow_DeleteQuote(t *testing.T) {
	f := newQuoteFixture(t)
	ctx := context.Background()
	q := f.standardQuote(t)
	_, err := f.flow.ChangeStatus(ctx, q.ID, &dto.ChangeQuoteStatusRequest{Status: "sent"}, nil)
	require.NoError(t, err)

	require.NoError(t, f.flow.DeleteQuote(ctx, q.ID, nil))

	_, err = f.flow.GetQuote(ctx, q.ID)
	assert.True(t, IsNotFound(err))
	items, err := f.env.itemRepo.ListByQuote(ctx, q.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.ErrorIs(t, f.flow.DeleteQuote(ctx, q.ID, nil), ErrQuoteNotFound)
}
