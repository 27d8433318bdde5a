package handlers

import (
	"github.com/amirphl/webbuilder-crm/app/dto"
	businessflow "github.com/amirphl/webbuilder-crm/business_flow"
	"github.com/gofiber/fiber/v3"
)

// SettingsHandlerInterface defines the contract for the staff settings handlers
type SettingsHandlerInterface interface {
	GetSettings(c fiber.Ctx) error
	UpdateSettings(c fiber.Ctx) error
}

type SettingsHandler struct {
	baseHandler
	flow businessflow.SettingsFlow
}

func NewSettingsHandler(flow businessflow.SettingsFlow) SettingsHandlerInterface {
	return &SettingsHandler{
		baseHandler: newBaseHandler(),
		flow:        flow,
	}
}

// GetSettings returns the site settings straight from the database
// @Summary Get site settings
// @Tags Staff Settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SiteSettingsDTO} "Settings retrieved"
// @Router /api/v1/staff/settings [get]
func (h *SettingsHandler) GetSettings(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/settings")
	defer cancel()

	result, err := h.flow.Refresh(ctx)
	if err != nil {
		return h.flowError(c, err, "Failed to load settings")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Settings retrieved", result)
}

// UpdateSettings edits the settings singleton and invalidates every cached copy
// @Summary Update site settings
// @Tags Staff Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateSiteSettingsRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.SiteSettingsDTO} "Settings updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/staff/settings [put]
func (h *SettingsHandler) UpdateSettings(c fiber.Ctx) error {
	var req dto.UpdateSiteSettingsRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/settings")
	defer cancel()

	result, err := h.flow.UpdateSettings(ctx, &req, h.metadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to update settings")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Settings updated", result)
}
