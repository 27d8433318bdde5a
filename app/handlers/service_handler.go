package handlers

import (
	"github.com/amirphl/webbuilder-crm/app/dto"
	businessflow "github.com/amirphl/webbuilder-crm/business_flow"
	"github.com/gofiber/fiber/v3"
)

// ServiceHandlerInterface defines the contract for catalog management handlers
type ServiceHandlerInterface interface {
	ListServices(c fiber.Ctx) error
	CreateService(c fiber.Ctx) error
	UpdateService(c fiber.Ctx) error
}

type ServiceHandler struct {
	baseHandler
	flow businessflow.ServiceFlow
}

func NewServiceHandler(flow businessflow.ServiceFlow) ServiceHandlerInterface {
	return &ServiceHandler{
		baseHandler: newBaseHandler(),
		flow:        flow,
	}
}

// ListServices lists the whole catalog, inactive entries included
// @Summary List catalog
// @Tags Staff Catalog
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only active services"
// @Success 200 {object} dto.APIResponse{data=dto.ListServicesResponse} "Services retrieved"
// @Router /api/v1/staff/services [get]
func (h *ServiceHandler) ListServices(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/services")
	defer cancel()

	result, err := h.flow.ListServices(ctx, c.Query("active") == "true")
	if err != nil {
		return h.flowError(c, err, "Failed to list services")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// CreateService adds a catalog entry
// @Summary Create service
// @Tags Staff Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateServiceRequest true "Service"
// @Success 201 {object} dto.APIResponse{data=dto.ServiceDTO} "Service created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Slug already exists"
// @Router /api/v1/staff/services [post]
func (h *ServiceHandler) CreateService(c fiber.Ctx) error {
	var req dto.CreateServiceRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/services")
	defer cancel()

	service, err := h.flow.CreateService(ctx, &req, h.metadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to create service")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Service created", service)
}

// UpdateService edits a catalog entry; quotes keep the prices they copied
// @Summary Update service
// @Tags Staff Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Service id"
// @Param request body dto.UpdateServiceRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.ServiceDTO} "Service updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Service not found"
// @Router /api/v1/staff/services/{id} [put]
func (h *ServiceHandler) UpdateService(c fiber.Ctx) error {
	id, ok, err := h.paramID(c, "id")
	if !ok {
		return err
	}
	var req dto.UpdateServiceRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/services/:id")
	defer cancel()

	service, err := h.flow.UpdateService(ctx, id, &req, h.metadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to update service")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Service updated", service)
}
