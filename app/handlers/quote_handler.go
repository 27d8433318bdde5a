package handlers

import (
	"github.com/amirphl/webbuilder-crm/app/dto"
	businessflow "github.com/amirphl/webbuilder-crm/business_flow"
	"github.com/gofiber/fiber/v3"
)

// QuoteHandlerInterface defines the contract for staff quote handlers
type QuoteHandlerInterface interface {
	ListQuotes(c fiber.Ctx) error
	CreateQuote(c fiber.Ctx) error
	GetQuote(c fiber.Ctx) error
	UpdateQuote(c fiber.Ctx) error
	DeleteQuote(c fiber.Ctx) error
	ChangeStatus(c fiber.Ctx) error
	AddItem(c fiber.Ctx) error
	UpdateItem(c fiber.Ctx) error
	RemoveItem(c fiber.Ctx) error
	Recalculate(c fiber.Ctx) error
}

type QuoteHandler struct {
	baseHandler
	flow businessflow.QuoteFlow
}

func NewQuoteHandler(flow businessflow.QuoteFlow) QuoteHandlerInterface {
	return &QuoteHandler{
		baseHandler: newBaseHandler(),
		flow:        flow,
	}
}

// ListQuotes lists quotes newest first; the status filter matches the derived status
// @Summary List quotes
// @Tags Staff Quotes
// @Produce json
// @Security BearerAuth
// @Param status query string false "draft, sent, accepted, rejected or expired"
// @Param lead_id query int false "Lead id"
// @Param search query string false "Matches quote number, client name or email"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 25)"
// @Success 200 {object} dto.APIResponse{data=dto.ListQuotesResponse} "Quotes retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid filters"
// @Router /api/v1/staff/quotes [get]
func (h *QuoteHandler) ListQuotes(c fiber.Ctx) error {
	leadID, err := queryUint(c, "lead_id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid filters", "VALIDATION_ERROR", err.Error())
	}
	req := dto.ListQuotesRequest{
		Status:   queryString(c, "status"),
		LeadID:   leadID,
		Search:   queryString(c, "search"),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "page_size"),
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/quotes")
	defer cancel()

	result, err := h.flow.ListQuotes(ctx, &req)
	if err != nil {
		return h.flowError(c, err, "Failed to list quotes")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// CreateQuote authors a draft quote with a freshly assigned number
// @Summary Create quote
// @Description Totals are always computed on the server; client-supplied totals are ignored
// @Tags Staff Quotes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateQuoteRequest true "Quote"
// @Success 201 {object} dto.APIResponse{data=dto.QuoteDTO} "Quote created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Lead or service not found"
// @Failure 409 {object} dto.APIResponse "Quote number conflict, please try again"
// @Router /api/v1/staff/quotes [post]
func (h *QuoteHandler) CreateQuote(c fiber.Ctx) error {
	var req dto.CreateQuoteRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/quotes")
	defer cancel()

	quote, err := h.flow.CreateQuote(ctx, &req, h.metadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to create quote")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Quote created", quote)
}

// GetQuote returns one quote with its line items
// @Summary Get quote
// @Tags Staff Quotes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quote id"
// @Success 200 {object} dto.APIResponse{data=dto.QuoteDTO} "Quote retrieved"
// @Failure 404 {object} dto.APIResponse "Quote not found"
// @Router /api/v1/staff/quotes/{id} [get]
func (h *QuoteHandler) GetQuote(c fiber.Ctx) error {
	id, ok, err := h.paramID(c, "id")
	if !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/quotes/:id")
	defer cancel()

	quote, err := h.flow.GetQuote(ctx, id)
	if err != nil {
		return h.flowError(c, err, "Failed to get quote")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Quote retrieved", quote)
}

// UpdateQuote edits header fields
// @Summary Update quote
// @Tags Staff Quotes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quote id"
// @Param request body dto.UpdateQuoteRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.QuoteDTO} "Quote updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Quote not found"
// @Failure 409 {object} dto.APIResponse "Tax rate is locked"
// @Router /api/v1/staff/quotes/{id} [put]
func (h *QuoteHandler) UpdateQuote(c fiber.Ctx) error {
	id, ok, err := h.paramID(c, "id")
	if !ok {
		return err
	}
	var req dto.UpdateQuoteRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/quotes/:id")
	defer cancel()

	quote, err := h.flow.UpdateQuote(ctx, id, &req, h.metadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to update quote")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Quote updated", quote)
}

// DeleteQuote removes a quote and its line items
// @Summary Delete quote
// @Tags Staff Quotes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quote id"
// @Success 200 {object} dto.APIResponse "Quote deleted"
// @Failure 404 {object} dto.APIResponse "Quote not found"
// @Router /api/v1/staff/quotes/{id} [delete]
func (h *QuoteHandler) DeleteQuote(c fiber.Ctx) error {
	id, ok, err := h.paramID(c, "id")
	if !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/quotes/:id")
	defer cancel()

	if err := h.flow.DeleteQuote(ctx, id, h.metadata(c)); err != nil {
		return h.flowError(c, err, "Failed to delete quote")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Quote deleted", nil)
}

// ChangeStatus moves a quote through draft, sent, accepted and rejected
// @Summary Change quote status
// @Tags Staff Quotes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quote id"
// @Param request body dto.ChangeQuoteStatusRequest true "Target status"
// @Success 200 {object} dto.APIResponse{data=dto.QuoteDTO} "Status changed"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Quote not found"
// @Failure 409 {object} dto.APIResponse "Transition not allowed"
// @Router /api/v1/staff/quotes/{id}/status [post]
func (h *QuoteHandler) ChangeStatus(c fiber.Ctx) error {
	id, ok, err := h.paramID(c, "id")
	if !ok {
		return err
	}
	var req dto.ChangeQuoteStatusRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/quotes/:id/status")
	defer cancel()

	quote, err := h.flow.ChangeStatus(ctx, id, &req, h.metadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to change quote status")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Quote status changed", quote)
}

// AddItem appends a line item to a draft quote
// @Summary Add line item
// @Tags Staff Quotes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quote id"
// @Param request body dto.QuoteItemRequest true "Line item"
// @Success 201 {object} dto.APIResponse{data=dto.QuoteDTO} "Line item added"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Quote or service not found"
// @Failure 409 {object} dto.APIResponse "Quote is locked"
// @Router /api/v1/staff/quotes/{id}/items [post]
func (h *QuoteHandler) AddItem(c fiber.Ctx) error {
	id, ok, err := h.paramID(c, "id")
	if !ok {
		return err
	}
	var req dto.QuoteItemRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/quotes/:id/items")
	defer cancel()

	quote, err := h.flow.AddItem(ctx, id, &req, h.metadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to add line item")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Line item added", quote)
}

// UpdateItem edits a line item on a draft quote
// @Summary Update line item
// @Tags Staff Quotes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quote id"
// @Param item_id path int true "Line item id"
// @Param request body dto.UpdateQuoteItemRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.QuoteDTO} "Line item updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Quote or line item not found"
// @Failure 409 {object} dto.APIResponse "Quote is locked"
// @Router /api/v1/staff/quotes/{id}/items/{item_id} [put]
func (h *QuoteHandler) UpdateItem(c fiber.Ctx) error {
	id, ok, err := h.paramID(c, "id")
	if !ok {
		return err
	}
	itemID, ok, err := h.paramID(c, "item_id")
	if !ok {
		return err
	}
	var req dto.UpdateQuoteItemRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/quotes/:id/items/:item_id")
	defer cancel()

	quote, err := h.flow.UpdateItem(ctx, id, itemID, &req, h.metadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to update line item")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Line item updated", quote)
}

// RemoveItem deletes a line item from a draft quote
// @Summary Remove line item
// @Tags Staff Quotes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quote id"
// @Param item_id path int true "Line item id"
// @Success 200 {object} dto.APIResponse{data=dto.QuoteDTO} "Line item removed"
// @Failure 404 {object} dto.APIResponse "Quote or line item not found"
// @Failure 409 {object} dto.APIResponse "Quote is locked"
// @Router /api/v1/staff/quotes/{id}/items/{item_id} [delete]
func (h *QuoteHandler) RemoveItem(c fiber.Ctx) error {
	id, ok, err := h.paramID(c, "id")
	if !ok {
		return err
	}
	itemID, ok, err := h.paramID(c, "item_id")
	if !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/quotes/:id/items/:item_id")
	defer cancel()

	quote, err := h.flow.RemoveItem(ctx, id, itemID, h.metadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to remove line item")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Line item removed", quote)
}

// Recalculate recomputes line and quote totals from the stored items
// @Summary Recalculate quote totals
// @Tags Staff Quotes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quote id"
// @Success 200 {object} dto.APIResponse{data=dto.QuoteDTO} "Totals recalculated"
// @Failure 404 {object} dto.APIResponse "Quote not found"
// @Router /api/v1/staff/quotes/{id}/recalculate [post]
func (h *QuoteHandler) Recalculate(c fiber.Ctx) error {
	id, ok, err := h.paramID(c, "id")
	if !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/quotes/:id/recalculate")
	defer cancel()

	quote, err := h.flow.Recalculate(ctx, id)
	if err != nil {
		return h.flowError(c, err, "Failed to recalculate quote")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Totals recalculated", quote)
}
