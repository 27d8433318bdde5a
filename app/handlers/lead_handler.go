package handlers

import (
	"github.com/amirphl/webbuilder-crm/app/dto"
	businessflow "github.com/amirphl/webbuilder-crm/business_flow"
	"github.com/gofiber/fiber/v3"
)

// LeadHandlerInterface defines the contract for staff lead handlers
type LeadHandlerInterface interface {
	ListLeads(c fiber.Ctx) error
	CreateLead(c fiber.Ctx) error
	GetLead(c fiber.Ctx) error
	UpdateLead(c fiber.Ctx) error
	DeleteLead(c fiber.Ctx) error
	ChangeStatus(c fiber.Ctx) error
	BulkAction(c fiber.Ctx) error
}

type LeadHandler struct {
	baseHandler
	flow businessflow.LeadFlow
}

func NewLeadHandler(flow businessflow.LeadFlow) LeadHandlerInterface {
	return &LeadHandler{
		baseHandler: newBaseHandler(),
		flow:        flow,
	}
}

// ListLeads lists leads newest first
// @Summary List leads
// @Tags Staff Leads
// @Produce json
// @Security BearerAuth
// @Param status query string false "Lead status"
// @Param source query string false "Lead source"
// @Param assigned_to query int false "Assigned staff id"
// @Param search query string false "Matches name, email or company"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 25)"
// @Success 200 {object} dto.APIResponse{data=dto.ListLeadsResponse} "Leads retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid filters"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/staff/leads [get]
func (h *LeadHandler) ListLeads(c fiber.Ctx) error {
	assignedTo, err := queryUint(c, "assigned_to")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid filters", "VALIDATION_ERROR", err.Error())
	}
	req := dto.ListLeadsRequest{
		Status:       queryString(c, "status"),
		Source:       queryString(c, "source"),
		AssignedToID: assignedTo,
		Search:       queryString(c, "search"),
		Page:         queryInt(c, "page"),
		PageSize:     queryInt(c, "page_size"),
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/leads")
	defer cancel()

	result, err := h.flow.ListLeads(ctx, &req)
	if err != nil {
		return h.flowError(c, err, "Failed to list leads")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// CreateLead enters a lead by hand
// @Summary Create lead
// @Tags Staff Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateLeadRequest true "Lead"
// @Success 201 {object} dto.APIResponse{data=dto.LeadDTO} "Lead created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Assigned staff user not found"
// @Router /api/v1/staff/leads [post]
func (h *LeadHandler) CreateLead(c fiber.Ctx) error {
	var req dto.CreateLeadRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/leads")
	defer cancel()

	lead, err := h.flow.CreateLead(ctx, &req, h.metadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to create lead")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Lead created", lead)
}

// GetLead returns one lead
// @Summary Get lead
// @Tags Staff Leads
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lead id"
// @Success 200 {object} dto.APIResponse{data=dto.LeadDTO} "Lead retrieved"
// @Failure 404 {object} dto.APIResponse "Lead not found"
// @Router /api/v1/staff/leads/{id} [get]
func (h *LeadHandler) GetLead(c fiber.Ctx) error {
	id, ok, err := h.paramID(c, "id")
	if !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/leads/:id")
	defer cancel()

	lead, err := h.flow.GetLead(ctx, id)
	if err != nil {
		return h.flowError(c, err, "Failed to get lead")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Lead retrieved", lead)
}

// UpdateLead edits contact and working fields
// @Summary Update lead
// @Tags Staff Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lead id"
// @Param request body dto.UpdateLeadRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.LeadDTO} "Lead updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Lead not found"
// @Router /api/v1/staff/leads/{id} [put]
func (h *LeadHandler) UpdateLead(c fiber.Ctx) error {
	id, ok, err := h.paramID(c, "id")
	if !ok {
		return err
	}
	var req dto.UpdateLeadRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/leads/:id")
	defer cancel()

	lead, err := h.flow.UpdateLead(ctx, id, &req, h.metadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to update lead")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Lead updated", lead)
}

// DeleteLead removes a lead; its quotes and conversion events are kept with the link cleared
// @Summary Delete lead
// @Tags Staff Leads
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lead id"
// @Success 200 {object} dto.APIResponse "Lead deleted"
// @Failure 404 {object} dto.APIResponse "Lead not found"
// @Router /api/v1/staff/leads/{id} [delete]
func (h *LeadHandler) DeleteLead(c fiber.Ctx) error {
	id, ok, err := h.paramID(c, "id")
	if !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/leads/:id")
	defer cancel()

	if err := h.flow.DeleteLead(ctx, id, h.metadata(c)); err != nil {
		return h.flowError(c, err, "Failed to delete lead")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Lead deleted", nil)
}

// ChangeStatus moves a lead through the pipeline
// @Summary Change lead status
// @Description Forward moves are always allowed; backward moves and leaving a closed status need override with a reason
// @Tags Staff Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lead id"
// @Param request body dto.ChangeLeadStatusRequest true "Target status"
// @Success 200 {object} dto.APIResponse{data=dto.LeadDTO} "Status changed"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Lead not found"
// @Failure 409 {object} dto.APIResponse "Transition not allowed without override"
// @Router /api/v1/staff/leads/{id}/status [post]
func (h *LeadHandler) ChangeStatus(c fiber.Ctx) error {
	id, ok, err := h.paramID(c, "id")
	if !ok {
		return err
	}
	var req dto.ChangeLeadStatusRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/leads/:id/status")
	defer cancel()

	lead, err := h.flow.ChangeStatus(ctx, id, &req, h.metadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to change lead status")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Lead status changed", lead)
}

// BulkAction applies one action to many leads
// @Summary Bulk lead action
// @Tags Staff Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BulkLeadActionRequest true "Action and lead ids"
// @Success 200 {object} dto.APIResponse{data=dto.BulkLeadActionResponse} "Action applied"
// @Failure 400 {object} dto.APIResponse "Unknown action or empty selection"
// @Router /api/v1/staff/leads/bulk [post]
func (h *LeadHandler) BulkAction(c fiber.Ctx) error {
	var req dto.BulkLeadActionRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/leads/bulk")
	defer cancel()

	result, err := h.flow.BulkAction(ctx, &req, h.metadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to apply bulk action")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}
