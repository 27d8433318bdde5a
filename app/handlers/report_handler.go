package handlers

import (
	"fmt"

	"github.com/amirphl/webbuilder-crm/app/dto"
	businessflow "github.com/amirphl/webbuilder-crm/business_flow"
	"github.com/gofiber/fiber/v3"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandlerInterface covers conversion listing, the dashboard and the export
type ReportHandlerInterface interface {
	ListConversions(c fiber.Ctx) error
	Dashboard(c fiber.Ctx) error
	Export(c fiber.Ctx) error
}

type ReportHandler struct {
	baseHandler
	conversionFlow businessflow.ConversionFlow
	reportFlow     businessflow.ReportFlow
}

func NewReportHandler(conversionFlow businessflow.ConversionFlow, reportFlow businessflow.ReportFlow) ReportHandlerInterface {
	return &ReportHandler{
		baseHandler:    newBaseHandler(),
		conversionFlow: conversionFlow,
		reportFlow:     reportFlow,
	}
}

// ListConversions lists conversion events, newest first
// @Summary List conversions
// @Tags Staff Reports
// @Produce json
// @Security BearerAuth
// @Param action query string false "Conversion action"
// @Param source query string false "Source"
// @Param lead_id query int false "Lead id"
// @Param from query string false "From date (YYYY-MM-DD, inclusive)"
// @Param to query string false "To date (YYYY-MM-DD, inclusive)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 25)"
// @Success 200 {object} dto.APIResponse{data=dto.ListConversionsResponse} "Conversions retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid filters"
// @Router /api/v1/staff/conversions [get]
func (h *ReportHandler) ListConversions(c fiber.Ctx) error {
	leadID, err := queryUint(c, "lead_id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid filters", "VALIDATION_ERROR", err.Error())
	}
	req := dto.ListConversionsRequest{
		Action:   queryString(c, "action"),
		Source:   queryString(c, "source"),
		LeadID:   leadID,
		From:     queryString(c, "from"),
		To:       queryString(c, "to"),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "page_size"),
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/conversions")
	defer cancel()

	result, err := h.conversionFlow.ListConversions(ctx, &req)
	if err != nil {
		return h.flowError(c, err, "Failed to list conversions")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Dashboard returns lead, quote and conversion statistics
// @Summary Dashboard
// @Tags Staff Reports
// @Produce json
// @Security BearerAuth
// @Param from query string false "Conversion window start (YYYY-MM-DD)"
// @Param to query string false "Conversion window end (YYYY-MM-DD)"
// @Success 200 {object} dto.APIResponse{data=dto.DashboardResponse} "Dashboard retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid dates"
// @Router /api/v1/staff/reports/dashboard [get]
func (h *ReportHandler) Dashboard(c fiber.Ctx) error {
	req := dto.DashboardRequest{
		From: queryString(c, "from"),
		To:   queryString(c, "to"),
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/reports/dashboard")
	defer cancel()

	result, err := h.reportFlow.Dashboard(ctx, &req)
	if err != nil {
		return h.flowError(c, err, "Failed to build dashboard")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Export downloads leads, quotes and conversions as an xlsx workbook
// @Summary Export workbook
// @Tags Staff Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file "Workbook"
// @Failure 500 {object} dto.APIResponse "Export failed"
// @Router /api/v1/staff/reports/export [get]
func (h *ReportHandler) Export(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/reports/export")
	defer cancel()

	filename, content, err := h.reportFlow.ExportWorkbook(ctx)
	if err != nil {
		return h.flowError(c, err, "Failed to export workbook")
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Status(fiber.StatusOK).Send(content)
}
