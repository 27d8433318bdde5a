package businessflow

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/amirphl/webbuilder-crm/app/dto"
	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/repository"
	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QuoteSettings are the configurable quote defaults
type QuoteSettings struct {
	DefaultTaxRate    decimal.Decimal
	ValidityDays      int
	NumberingAttempts int
}

// DefaultQuoteSettings returns the built-in quote defaults
func DefaultQuoteSettings() QuoteSettings {
	return QuoteSettings{
		DefaultTaxRate:    decimal.NewFromInt(utils.DefaultTaxRatePercent),
		ValidityDays:      utils.DefaultQuoteValidityDays,
		NumberingAttempts: 5,
	}
}

// QuoteFlow authors, prices and moves quotes through their lifecycle
type QuoteFlow interface {
	CreateQuote(ctx context.Context, req *dto.CreateQuoteRequest, metadata *ClientMetadata) (*dto.QuoteDTO, error)
	GetQuote(ctx context.Context, id uint) (*dto.QuoteDTO, error)
	ListQuotes(ctx context.Context, req *dto.ListQuotesRequest) (*dto.ListQuotesResponse, error)
	UpdateQuote(ctx context.Context, id uint, req *dto.UpdateQuoteRequest, metadata *ClientMetadata) (*dto.QuoteDTO, error)
	DeleteQuote(ctx context.Context, id uint, metadata *ClientMetadata) error
	ChangeStatus(ctx context.Context, id uint, req *dto.ChangeQuoteStatusRequest, metadata *ClientMetadata) (*dto.QuoteDTO, error)
	AddItem(ctx context.Context, quoteID uint, req *dto.QuoteItemRequest, metadata *ClientMetadata) (*dto.QuoteDTO, error)
	UpdateItem(ctx context.Context, quoteID, itemID uint, req *dto.UpdateQuoteItemRequest, metadata *ClientMetadata) (*dto.QuoteDTO, error)
	RemoveItem(ctx context.Context, quoteID, itemID uint, metadata *ClientMetadata) (*dto.QuoteDTO, error)
	Recalculate(ctx context.Context, id uint) (*dto.QuoteDTO, error)
	ExpireOverdue(ctx context.Context) (int64, error)
}

type QuoteFlowImpl struct {
	quoteRepo   repository.QuoteRepository
	itemRepo    repository.QuoteServiceRepository
	serviceRepo repository.ServiceRepository
	leadRepo    repository.LeadRepository
	auditRepo   repository.AuditLogRepository
	numberer    QuoteNumberer
	db          *gorm.DB
	settings    QuoteSettings
	now         Clock
	logger      *log.Logger
}

func NewQuoteFlow(
	quoteRepo repository.QuoteRepository,
	itemRepo repository.QuoteServiceRepository,
	serviceRepo repository.ServiceRepository,
	leadRepo repository.LeadRepository,
	auditRepo repository.AuditLogRepository,
	numberer QuoteNumberer,
	db *gorm.DB,
	settings QuoteSettings,
	clock Clock,
	logger *log.Logger,
) QuoteFlow {
	if settings.NumberingAttempts < 1 {
		settings.NumberingAttempts = 1
	}
	if settings.ValidityDays < 1 {
		settings.ValidityDays = utils.DefaultQuoteValidityDays
	}
	if logger == nil {
		logger = log.Default()
	}
	return &QuoteFlowImpl{
		quoteRepo:   quoteRepo,
		itemRepo:    itemRepo,
		serviceRepo: serviceRepo,
		leadRepo:    leadRepo,
		auditRepo:   auditRepo,
		numberer:    numberer,
		db:          db,
		settings:    settings,
		now:         defaultClock(clock),
		logger:      logger,
	}
}

// CreateQuote prices the requested lines and inserts the quote under a fresh number.
// A number collision rolls the attempt back and retries with a new number; when every
// attempt collides the caller gets ErrNumberingConflict and nothing is stored.
func (f *QuoteFlowImpl) CreateQuote(ctx context.Context, req *dto.CreateQuoteRequest, metadata *ClientMetadata) (*dto.QuoteDTO, error) {
	if req == nil {
		return nil, NewBusinessError("QUOTE_VALIDATION_FAILED", "Quote validation failed", ErrClientNameRequired)
	}
	now := f.now()

	quote := &models.Quote{
		ClientName:      strings.TrimSpace(req.ClientName),
		ClientEmail:     normalizeEmail(req.ClientEmail),
		ClientPhone:     trimmedPtr(req.ClientPhone),
		ClientCompany:   trimmedPtr(req.ClientCompany),
		TaxRate:         f.settings.DefaultTaxRate,
		Status:          models.QuoteStatusDraft,
		ValidUntil:      utils.TruncateToDate(now).AddDate(0, 0, f.settings.ValidityDays),
		Notes:           strings.TrimSpace(req.Notes),
		TermsConditions: strings.TrimSpace(req.TermsConditions),
		CreatedByID:     staffIDFromContext(ctx),
		LeadID:          req.LeadID,
	}
	if req.TaxRate != nil {
		quote.TaxRate = *req.TaxRate
	}
	if req.ValidUntil != nil {
		validUntil, err := parseValidUntil(*req.ValidUntil)
		if err == nil && validUntil.Before(utils.TruncateToDate(now)) {
			err = ErrValidUntilInPast
		}
		if err != nil {
			return nil, NewBusinessError("QUOTE_VALIDATION_FAILED", "Quote validation failed", err)
		}
		quote.ValidUntil = validUntil
	}
	if err := validateQuoteHeader(quote); err != nil {
		return nil, NewBusinessError("QUOTE_VALIDATION_FAILED", "Quote validation failed", err)
	}
	if err := f.checkLead(ctx, quote.LeadID); err != nil {
		return nil, err
	}

	items := make([]*models.QuoteService, 0, len(req.Items))
	for i := range req.Items {
		item, err := f.buildItem(ctx, &req.Items[i])
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := ApplyTotals(quote, items); err != nil {
		return nil, NewBusinessError("QUOTE_VALIDATION_FAILED", "Quote validation failed", err)
	}

	for attempt := 1; ; attempt++ {
		err := f.insertQuote(ctx, quote, items, now)
		if err == nil {
			break
		}
		if !repository.IsDuplicateKey(err) {
			return nil, NewBusinessError("QUOTE_CREATE_FAILED", "Failed to create quote", err)
		}
		if attempt >= f.settings.NumberingAttempts {
			quoteNumberConflictsTotal.Inc()
			f.logger.Printf("quote numbering: giving up after %d attempts: %v", attempt, err)
			return nil, NewBusinessError("QUOTE_NUMBER_CONFLICT", "Could not assign a quote number", ErrNumberingConflict)
		}
		quoteNumberRetriesTotal.Inc()
		f.logger.Printf("quote numbering: %s collided on attempt %d, retrying", quote.QuoteNumber, attempt)
	}
	quotesCreatedTotal.Inc()

	_ = createAuditLog(ctx, f.auditRepo, auditEntry{
		Action:      models.AuditActionQuoteCreated,
		TargetType:  models.AuditTargetQuote,
		TargetID:    quote.ID,
		Description: "Quote created",
		Success:     true,
		Data:        map[string]any{"quote_number": quote.QuoteNumber, "total_amount": formatMoney(quote.TotalAmount)},
	}, metadata)

	return f.quoteDTO(ctx, quote.ID)
}

// insertQuote runs one numbering attempt: lock the counter, insert the quote and its lines
func (f *QuoteFlowImpl) insertQuote(ctx context.Context, quote *models.Quote, items []*models.QuoteService, now time.Time) error {
	return repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		number, err := f.numberer.Next(txCtx, now)
		if err != nil {
			return err
		}
		quote.ID = 0
		quote.QuoteNumber = number
		if err := f.quoteRepo.Save(txCtx, quote); err != nil {
			return err
		}

		for _, it := range items {
			it.ID = 0
			it.QuoteID = quote.ID
		}
		return f.itemRepo.SaveBatch(txCtx, items)
	})
}

func (f *QuoteFlowImpl) GetQuote(ctx context.Context, id uint) (*dto.QuoteDTO, error) {
	return f.quoteDTO(ctx, id)
}

func (f *QuoteFlowImpl) ListQuotes(ctx context.Context, req *dto.ListQuotesRequest) (*dto.ListQuotesResponse, error) {
	if req == nil {
		req = &dto.ListQuotesRequest{}
	}
	now := f.now()

	filter := models.QuoteFilter{
		LeadID: req.LeadID,
		Search: trimmedPtr(req.Search),
		AsOf:   &now,
	}
	if req.Status != nil {
		status := models.QuoteStatus(*req.Status)
		if !status.Valid() {
			return nil, NewBusinessError("QUOTE_LIST_VALIDATION_FAILED", "Invalid quote filter", ErrInvalidQuoteStatus)
		}
		filter.EffectiveStatus = &status
	}

	page, pageSize, limit, offset := normalizePage(req.Page, req.PageSize)
	total, err := f.quoteRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("QUOTE_LIST_FAILED", "Failed to list quotes", err)
	}
	quotes, err := f.quoteRepo.ByFilter(ctx, filter, "created_at DESC, id DESC", limit, offset)
	if err != nil {
		return nil, NewBusinessError("QUOTE_LIST_FAILED", "Failed to list quotes", err)
	}

	items := make([]dto.QuoteDTO, 0, len(quotes))
	for _, q := range quotes {
		items = append(items, ToQuoteDTO(*q, now))
	}
	return &dto.ListQuotesResponse{
		Message:    "Quotes retrieved successfully",
		Items:      items,
		Pagination: toPagination(page, pageSize, total),
	}, nil
}

// UpdateQuote edits header fields. The tax rate feeds the totals and is locked with the line items.
func (f *QuoteFlowImpl) UpdateQuote(ctx context.Context, id uint, req *dto.UpdateQuoteRequest, metadata *ClientMetadata) (*dto.QuoteDTO, error) {
	if req == nil {
		return nil, NewBusinessError("QUOTE_VALIDATION_FAILED", "Quote validation failed", ErrClientNameRequired)
	}
	now := f.now()

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		quote, err := f.loadQuote(txCtx, id)
		if err != nil {
			return err
		}

		taxChanged := req.TaxRate != nil && !req.TaxRate.Equal(quote.TaxRate)
		if taxChanged {
			if !quote.IsEditable(now) {
				return NewBusinessError("QUOTE_LOCKED", "Quote pricing is locked", ErrQuoteLocked)
			}
			quote.TaxRate = *req.TaxRate
		}
		if req.ClientName != nil {
			quote.ClientName = strings.TrimSpace(*req.ClientName)
		}
		if req.ClientEmail != nil {
			quote.ClientEmail = normalizeEmail(*req.ClientEmail)
		}
		if req.ClientPhone != nil {
			quote.ClientPhone = trimmedPtr(req.ClientPhone)
		}
		if req.ClientCompany != nil {
			quote.ClientCompany = trimmedPtr(req.ClientCompany)
		}
		if req.ValidUntil != nil {
			validUntil, err := parseValidUntil(*req.ValidUntil)
			if err != nil {
				return NewBusinessError("QUOTE_VALIDATION_FAILED", "Quote validation failed", err)
			}
			if !validUntil.Equal(utils.TruncateToDate(quote.ValidUntil)) {
				// terminal quotes keep their validity window
				if status := quote.EffectiveStatus(now); status.IsTerminal() {
					return NewBusinessErrorf("QUOTE_LOCKED", "Validity cannot change once a quote is %s", ErrQuoteLocked, status)
				}
				if validUntil.Before(utils.TruncateToDate(now)) {
					return NewBusinessError("QUOTE_VALIDATION_FAILED", "Quote validation failed", ErrValidUntilInPast)
				}
				quote.ValidUntil = validUntil
			}
		}
		if req.Notes != nil {
			quote.Notes = strings.TrimSpace(*req.Notes)
		}
		if req.TermsConditions != nil {
			quote.TermsConditions = strings.TrimSpace(*req.TermsConditions)
		}
		if req.DetachLead {
			quote.LeadID = nil
		} else if req.LeadID != nil {
			if err := f.checkLead(txCtx, req.LeadID); err != nil {
				return err
			}
			quote.LeadID = req.LeadID
		}

		if err := validateQuoteHeader(quote); err != nil {
			return NewBusinessError("QUOTE_VALIDATION_FAILED", "Quote validation failed", err)
		}
		if err := f.quoteRepo.Update(txCtx, quote); err != nil {
			return err
		}
		if taxChanged {
			return f.recalculate(txCtx, quote)
		}
		return nil
	})
	if err != nil {
		return nil, asBusinessError(err, "QUOTE_UPDATE_FAILED", "Failed to update quote")
	}

	_ = createAuditLog(ctx, f.auditRepo, auditEntry{
		Action:      models.AuditActionQuoteUpdated,
		TargetType:  models.AuditTargetQuote,
		TargetID:    id,
		Description: "Quote updated",
		Success:     true,
	}, metadata)

	return f.quoteDTO(ctx, id)
}

func (f *QuoteFlowImpl) DeleteQuote(ctx context.Context, id uint, metadata *ClientMetadata) error {
	var number string
	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		quote, err := f.loadQuote(txCtx, id)
		if err != nil {
			return err
		}
		number = quote.QuoteNumber
		if err := f.itemRepo.DeleteByQuote(txCtx, id); err != nil {
			return err
		}
		return f.quoteRepo.Delete(txCtx, id)
	})
	if err != nil {
		return asBusinessError(err, "QUOTE_DELETE_FAILED", "Failed to delete quote")
	}

	_ = createAuditLog(ctx, f.auditRepo, auditEntry{
		Action:      models.AuditActionQuoteDeleted,
		TargetType:  models.AuditTargetQuote,
		TargetID:    id,
		Description: "Quote deleted",
		Success:     true,
		Data:        map[string]any{"quote_number": number},
	}, metadata)
	return nil
}

// ChangeStatus validates the request against the status a reader sees now, so an
// overdue quote can no longer be sent or accepted. Moving back to draft reopens it.
func (f *QuoteFlowImpl) ChangeStatus(ctx context.Context, id uint, req *dto.ChangeQuoteStatusRequest, metadata *ClientMetadata) (*dto.QuoteDTO, error) {
	if req == nil {
		return nil, NewBusinessError("QUOTE_STATUS_VALIDATION_FAILED", "Quote status validation failed", ErrInvalidQuoteStatus)
	}
	target := models.QuoteStatus(req.Status)
	if !target.Valid() || target == models.QuoteStatusExpired {
		return nil, NewBusinessError("QUOTE_STATUS_VALIDATION_FAILED", "Quote status validation failed", ErrInvalidQuoteStatus)
	}
	now := f.now()

	var from models.QuoteStatus
	changed := false
	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		quote, err := f.loadQuote(txCtx, id)
		if err != nil {
			return err
		}
		from = quote.EffectiveStatus(now)
		if from == target {
			return nil
		}
		if !CanTransitionQuote(from, target) {
			return NewBusinessErrorf("QUOTE_STATUS_TRANSITION_INVALID", "Cannot move quote from %s to %s", ErrInvalidTransition, from, target)
		}

		switch target {
		case models.QuoteStatusSent:
			n, err := f.itemRepo.Count(txCtx, models.QuoteServiceFilter{QuoteID: &quote.ID})
			if err != nil {
				return err
			}
			if n == 0 {
				return NewBusinessError("QUOTE_EMPTY", "Quote has no line items", ErrQuoteEmpty)
			}
			sentAt := now.UTC()
			quote.SentAt = &sentAt
		case models.QuoteStatusDraft:
			quote.SentAt = nil
		}

		quote.Status = target
		changed = true
		return f.quoteRepo.Update(txCtx, quote)
	})
	if err != nil {
		return nil, asBusinessError(err, "QUOTE_STATUS_CHANGE_FAILED", "Failed to change quote status")
	}

	if changed {
		statusTransitionsTotal.WithLabelValues("quote", string(target), "forward").Inc()
		_ = createAuditLog(ctx, f.auditRepo, auditEntry{
			Action:      models.AuditActionQuoteStatusChanged,
			TargetType:  models.AuditTargetQuote,
			TargetID:    id,
			Description: "Quote status changed",
			Success:     true,
			Data:        map[string]any{"from": string(from), "to": string(target)},
		}, metadata)
	}

	return f.quoteDTO(ctx, id)
}

func (f *QuoteFlowImpl) AddItem(ctx context.Context, quoteID uint, req *dto.QuoteItemRequest, metadata *ClientMetadata) (*dto.QuoteDTO, error) {
	if req == nil {
		return nil, NewBusinessError("QUOTE_ITEM_VALIDATION_FAILED", "Line item validation failed", ErrInvalidQuantity)
	}

	err := f.editItems(ctx, quoteID, func(txCtx context.Context, quote *models.Quote) error {
		item, err := f.buildItem(txCtx, req)
		if err != nil {
			return err
		}
		item.QuoteID = quote.ID
		return f.itemRepo.Save(txCtx, item)
	})
	if err != nil {
		return nil, asBusinessError(err, "QUOTE_ITEM_ADD_FAILED", "Failed to add line item")
	}

	f.auditItems(ctx, quoteID, "added", metadata)
	return f.quoteDTO(ctx, quoteID)
}

func (f *QuoteFlowImpl) UpdateItem(ctx context.Context, quoteID, itemID uint, req *dto.UpdateQuoteItemRequest, metadata *ClientMetadata) (*dto.QuoteDTO, error) {
	if req == nil {
		return nil, NewBusinessError("QUOTE_ITEM_VALIDATION_FAILED", "Line item validation failed", ErrInvalidQuantity)
	}

	err := f.editItems(ctx, quoteID, func(txCtx context.Context, quote *models.Quote) error {
		item, err := f.loadItem(txCtx, quote.ID, itemID)
		if err != nil {
			return err
		}
		if req.Quantity != nil {
			item.Quantity = *req.Quantity
		}
		if req.UnitPrice != nil {
			item.UnitPrice = *req.UnitPrice
		}
		if req.DiscountPercentage != nil {
			item.DiscountPercentage = *req.DiscountPercentage
		}
		if req.Description != nil {
			item.Description = strings.TrimSpace(*req.Description)
		}
		if err := ValidateLine(item.Quantity, item.UnitPrice, item.DiscountPercentage); err != nil {
			return NewBusinessError("QUOTE_ITEM_VALIDATION_FAILED", "Line item validation failed", err)
		}
		item.Service = nil
		return f.itemRepo.Update(txCtx, item)
	})
	if err != nil {
		return nil, asBusinessError(err, "QUOTE_ITEM_UPDATE_FAILED", "Failed to update line item")
	}

	f.auditItems(ctx, quoteID, "updated", metadata)
	return f.quoteDTO(ctx, quoteID)
}

func (f *QuoteFlowImpl) RemoveItem(ctx context.Context, quoteID, itemID uint, metadata *ClientMetadata) (*dto.QuoteDTO, error) {
	err := f.editItems(ctx, quoteID, func(txCtx context.Context, quote *models.Quote) error {
		if _, err := f.loadItem(txCtx, quote.ID, itemID); err != nil {
			return err
		}
		return f.itemRepo.Delete(txCtx, itemID)
	})
	if err != nil {
		return nil, asBusinessError(err, "QUOTE_ITEM_REMOVE_FAILED", "Failed to remove line item")
	}

	f.auditItems(ctx, quoteID, "removed", metadata)
	return f.quoteDTO(ctx, quoteID)
}

// Recalculate reprices a quote from its stored lines. Running it twice changes nothing.
func (f *QuoteFlowImpl) Recalculate(ctx context.Context, id uint) (*dto.QuoteDTO, error) {
	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		quote, err := f.loadQuote(txCtx, id)
		if err != nil {
			return err
		}
		return f.recalculate(txCtx, quote)
	})
	if err != nil {
		return nil, asBusinessError(err, "QUOTE_RECALCULATE_FAILED", "Failed to recalculate quote")
	}
	return f.quoteDTO(ctx, id)
}

// ExpireOverdue persists the expired status that readers already derive for overdue quotes
func (f *QuoteFlowImpl) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := f.quoteRepo.MarkExpired(ctx, f.now())
	if err != nil {
		return 0, NewBusinessError("QUOTE_EXPIRE_FAILED", "Failed to expire quotes", err)
	}
	return n, nil
}

// editItems runs fn on an editable quote and reprices it, all in one transaction
func (f *QuoteFlowImpl) editItems(ctx context.Context, quoteID uint, fn func(context.Context, *models.Quote) error) error {
	now := f.now()
	return repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		quote, err := f.loadQuote(txCtx, quoteID)
		if err != nil {
			return err
		}
		if !quote.IsEditable(now) {
			return NewBusinessErrorf("QUOTE_LOCKED", "Line items of a %s quote cannot change", ErrQuoteLocked, quote.EffectiveStatus(now))
		}
		if err := fn(txCtx, quote); err != nil {
			return err
		}
		return f.recalculate(txCtx, quote)
	})
}

// recalculate reloads every line and recomputes all totals from scratch
func (f *QuoteFlowImpl) recalculate(ctx context.Context, quote *models.Quote) error {
	items, err := f.itemRepo.ListByQuote(ctx, quote.ID)
	if err != nil {
		return err
	}

	before := make([]decimal.Decimal, len(items))
	for i, it := range items {
		before[i] = it.TotalPrice
	}
	if err := ApplyTotals(quote, items); err != nil {
		return NewBusinessError("QUOTE_PRICING_FAILED", "Quote pricing failed", err)
	}
	for i, it := range items {
		if it.TotalPrice.Equal(before[i]) {
			continue
		}
		it.Service = nil
		if err := f.itemRepo.Update(ctx, it); err != nil {
			return err
		}
	}
	return f.quoteRepo.UpdateTotals(ctx, quote.ID, quote.Subtotal, quote.TaxAmount, quote.TotalAmount)
}

// buildItem resolves the catalog service and snapshots its price unless one is given
func (f *QuoteFlowImpl) buildItem(ctx context.Context, req *dto.QuoteItemRequest) (*models.QuoteService, error) {
	service, err := f.serviceRepo.ByID(ctx, req.ServiceID)
	if err != nil {
		return nil, NewBusinessError("SERVICE_LOOKUP_FAILED", "Failed to load service", err)
	}
	if service == nil {
		return nil, NewBusinessErrorf("SERVICE_NOT_FOUND", "Service %d not found", ErrServiceNotFound, req.ServiceID)
	}
	if !service.IsActive {
		return nil, NewBusinessErrorf("QUOTE_ITEM_VALIDATION_FAILED", "Service %s is not active", ErrInactiveService, service.Slug)
	}

	item := &models.QuoteService{
		ServiceID:   service.ID,
		Description: strings.TrimSpace(req.Description),
		Quantity:    req.Quantity,
		UnitPrice:   service.BasePrice,
	}
	if item.Description == "" {
		item.Description = service.Name
	}
	if req.UnitPrice != nil {
		item.UnitPrice = *req.UnitPrice
	}
	if req.DiscountPercentage != nil {
		item.DiscountPercentage = *req.DiscountPercentage
	}

	total, err := LineTotal(item.Quantity, item.UnitPrice, item.DiscountPercentage)
	if err != nil {
		return nil, NewBusinessError("QUOTE_ITEM_VALIDATION_FAILED", "Line item validation failed", err)
	}
	item.TotalPrice = total
	return item, nil
}

func (f *QuoteFlowImpl) auditItems(ctx context.Context, quoteID uint, change string, metadata *ClientMetadata) {
	_ = createAuditLog(ctx, f.auditRepo, auditEntry{
		Action:      models.AuditActionQuoteItemsChanged,
		TargetType:  models.AuditTargetQuote,
		TargetID:    quoteID,
		Description: "Line item " + change,
		Success:     true,
	}, metadata)
}

func (f *QuoteFlowImpl) quoteDTO(ctx context.Context, id uint) (*dto.QuoteDTO, error) {
	quote, err := f.quoteRepo.ByIDWithItems(ctx, id)
	if err != nil {
		return nil, NewBusinessError("QUOTE_LOOKUP_FAILED", "Failed to load quote", err)
	}
	if quote == nil {
		return nil, NewBusinessError("QUOTE_NOT_FOUND", "Quote not found", ErrQuoteNotFound)
	}
	out := ToQuoteDTO(*quote, f.now())
	return &out, nil
}

func (f *QuoteFlowImpl) loadQuote(ctx context.Context, id uint) (*models.Quote, error) {
	quote, err := f.quoteRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("QUOTE_LOOKUP_FAILED", "Failed to load quote", err)
	}
	if quote == nil {
		return nil, NewBusinessError("QUOTE_NOT_FOUND", "Quote not found", ErrQuoteNotFound)
	}
	return quote, nil
}

func (f *QuoteFlowImpl) loadItem(ctx context.Context, quoteID, itemID uint) (*models.QuoteService, error) {
	item, err := f.itemRepo.ByID(ctx, itemID)
	if err != nil {
		return nil, NewBusinessError("QUOTE_ITEM_LOOKUP_FAILED", "Failed to load line item", err)
	}
	if item == nil || item.QuoteID != quoteID {
		return nil, NewBusinessError("QUOTE_ITEM_NOT_FOUND", "Line item not found", ErrLineItemNotFound)
	}
	return item, nil
}

func (f *QuoteFlowImpl) checkLead(ctx context.Context, leadID *uint) error {
	if leadID == nil {
		return nil
	}
	lead, err := f.leadRepo.ByID(ctx, *leadID)
	if err != nil {
		return NewBusinessError("LEAD_LOOKUP_FAILED", "Failed to load lead", err)
	}
	if lead == nil {
		return NewBusinessError("LEAD_NOT_FOUND", "Lead not found", ErrLeadNotFound)
	}
	return nil
}

func validateQuoteHeader(quote *models.Quote) error {
	if quote.ClientName == "" {
		return ErrClientNameRequired
	}
	if quote.ClientEmail == "" {
		return ErrClientEmailRequired
	}
	if err := fieldValidator.Var(quote.ClientEmail, "email"); err != nil {
		return ErrInvalidEmail
	}
	return ValidateTaxRate(quote.TaxRate)
}

// asBusinessError keeps errors that already carry a code and wraps the rest
func asBusinessError(err error, code, message string) error {
	var be *BusinessError
	if errors.As(err, &be) {
		return err
	}
	return NewBusinessError(code, message, err)
}

func parseValidUntil(raw string) (time.Time, error) {
	validUntil, err := utils.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, ErrInvalidValidUntil
	}
	return validUntil, nil
}
