package handlers

import (
	"github.com/amirphl/webbuilder-crm/app/dto"
	businessflow "github.com/amirphl/webbuilder-crm/business_flow"
	"github.com/gofiber/fiber/v3"
)

// PublicHandlerInterface defines the contract for the public website endpoints
type PublicHandlerInterface interface {
	SubmitContact(c fiber.Ctx) error
	SubmitLeadCapture(c fiber.Ctx) error
	SubmitQuickQuote(c fiber.Ctx) error
	TrackConversion(c fiber.Ctx) error
	ListServices(c fiber.Ctx) error
	GetSettings(c fiber.Ctx) error
}

// PublicHandler serves the intake forms and public catalog reads
type PublicHandler struct {
	baseHandler
	intakeFlow   businessflow.IntakeFlow
	serviceFlow  businessflow.ServiceFlow
	settingsFlow businessflow.SettingsFlow
}

func NewPublicHandler(intakeFlow businessflow.IntakeFlow, serviceFlow businessflow.ServiceFlow, settingsFlow businessflow.SettingsFlow) PublicHandlerInterface {
	return &PublicHandler{
		baseHandler:  newBaseHandler(),
		intakeFlow:   intakeFlow,
		serviceFlow:  serviceFlow,
		settingsFlow: settingsFlow,
	}
}

// SubmitContact handles the contact form
// @Summary Submit contact form
// @Description Creates a lead from the contact form and records a contact_form conversion
// @Tags Public
// @Accept json
// @Produce json
// @Param request body dto.ContactFormRequest true "Contact form"
// @Success 201 {object} dto.APIResponse{data=dto.IntakeResponse} "Message received"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/public/contact [post]
func (h *PublicHandler) SubmitContact(c fiber.Ctx) error {
	var req dto.ContactFormRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/public/contact")
	defer cancel()

	result, err := h.intakeFlow.SubmitContact(ctx, &req, h.metadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to submit contact form")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// SubmitLeadCapture handles the landing-page lead form
// @Summary Submit lead capture form
// @Description Creates a lead from a landing page and records a contact_form conversion
// @Tags Public
// @Accept json
// @Produce json
// @Param request body dto.LeadCaptureRequest true "Lead capture form"
// @Success 201 {object} dto.APIResponse{data=dto.IntakeResponse} "Lead captured"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/public/lead-capture [post]
func (h *PublicHandler) SubmitLeadCapture(c fiber.Ctx) error {
	var req dto.LeadCaptureRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/public/lead-capture")
	defer cancel()

	result, err := h.intakeFlow.SubmitLeadCapture(ctx, &req, h.metadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to submit lead form")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// SubmitQuickQuote handles the quick quote form
// @Summary Request a quick quote
// @Description Creates a lead whose budget is derived from the selected range and records a quote_request conversion
// @Tags Public
// @Accept json
// @Produce json
// @Param request body dto.QuickQuoteRequest true "Quick quote form"
// @Success 201 {object} dto.APIResponse{data=dto.IntakeResponse} "Quote request received"
// @Failure 400 {object} dto.APIResponse "Validation error or unknown budget range"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/public/quick-quote [post]
func (h *PublicHandler) SubmitQuickQuote(c fiber.Ctx) error {
	var req dto.QuickQuoteRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/public/quick-quote")
	defer cancel()

	result, err := h.intakeFlow.SubmitQuickQuote(ctx, &req, h.metadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to submit quote request")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// TrackConversion records a client-side funnel event
// @Summary Track a conversion
// @Description Records a conversion event that does not create a lead, such as a phone call click
// @Tags Public
// @Accept json
// @Produce json
// @Param request body dto.TrackConversionRequest true "Conversion event"
// @Success 202 {object} dto.APIResponse{data=dto.TrackConversionResponse} "Event accepted"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/public/conversions [post]
func (h *PublicHandler) TrackConversion(c fiber.Ctx) error {
	var req dto.TrackConversionRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/public/conversions")
	defer cancel()

	result, err := h.intakeFlow.TrackConversion(ctx, &req, h.metadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to track conversion")
	}
	return h.SuccessResponse(c, fiber.StatusAccepted, result.Message, result)
}

// ListServices returns the active catalog
// @Summary List services
// @Description Lists active catalog services in display order
// @Tags Public
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListServicesResponse} "Services retrieved"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/public/services [get]
func (h *PublicHandler) ListServices(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/public/services")
	defer cancel()

	result, err := h.serviceFlow.ListServices(ctx, true)
	if err != nil {
		return h.flowError(c, err, "Failed to list services")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// GetSettings returns the public site settings
// @Summary Get site settings
// @Tags Public
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.SiteSettingsDTO} "Settings retrieved"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/public/settings [get]
func (h *PublicHandler) GetSettings(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/public/settings")
	defer cancel()

	result, err := h.settingsFlow.GetSettings(ctx)
	if err != nil {
		return h.flowError(c, err, "Failed to load settings")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Settings retrieved", result)
}
