package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/amirphl/webbuilder-crm/app/dto"
	businessflow "github.com/amirphl/webbuilder-crm/business_flow"
	"github.com/gofiber/fiber/v3"
)

// StaffAuthHandlerInterface defines the contract for staff auth handlers
type StaffAuthHandlerInterface interface {
	InitCaptcha(c fiber.Ctx) error
	Login(c fiber.Ctx) error
	Refresh(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
}

// StaffAuthHandler implements StaffAuthHandlerInterface
type StaffAuthHandler struct {
	baseHandler
	flow businessflow.StaffAuthFlow
}

func NewStaffAuthHandler(flow businessflow.StaffAuthFlow) StaffAuthHandlerInterface {
	return &StaffAuthHandler{
		baseHandler: newBaseHandler(),
		flow:        flow,
	}
}

// InitCaptcha starts the staff login by returning a rotate captcha challenge
// @Summary Staff captcha init
// @Description Initialize rotate captcha for staff login (returns base64 images and challenge ID)
// @Tags Staff Authentication
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.StaffCaptchaInitResponse} "Captcha initialized"
// @Failure 500 {object} dto.APIResponse "Failed to initialize captcha"
// @Router /api/v1/staff/auth/captcha/init [post]
func (h *StaffAuthHandler) InitCaptcha(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/auth/captcha/init")
	defer cancel()

	resp, err := h.flow.InitCaptcha(ctx)
	if err != nil {
		if errors.Is(err, businessflow.ErrCaptchaNotReady) {
			return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Captcha is not available", "CAPTCHA_NOT_AVAILABLE", nil)
		}
		log.Println("Staff captcha init failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Captcha init failed", "CAPTCHA_INIT_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Captcha initialized", resp)
}

// Login verifies captcha and credentials
// @Summary Staff login
// @Description Verify captcha and authenticate a staff user with username and password
// @Tags Staff Authentication
// @Accept json
// @Produce json
// @Param request body dto.StaffLoginRequest true "Staff login data"
// @Success 200 {object} dto.APIResponse{data=dto.StaffLoginResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse "Invalid request or captcha"
// @Failure 401 {object} dto.APIResponse "Incorrect credentials"
// @Failure 403 {object} dto.APIResponse "Staff user inactive"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/staff/auth/login [post]
func (h *StaffAuthHandler) Login(c fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/auth/login")
	defer cancel()

	result, err := h.flow.Login(ctx, &req, h.metadata(c))
	if err != nil {
		switch {
		case businessflow.IsInvalidCaptcha(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid captcha", "INVALID_CAPTCHA", nil)
		case businessflow.IsStaffInactive(err):
			return h.ErrorResponse(c, fiber.StatusForbidden, "Staff account is inactive", "STAFF_INACTIVE", nil)
		case businessflow.IsIncorrectPassword(err):
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Incorrect username or password", "INCORRECT_CREDENTIALS", nil)
		}
		log.Println("Staff login failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", "LOGIN_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Login successful", result)
}

// Refresh exchanges a refresh token for a new pair
// @Summary Refresh staff session
// @Tags Staff Authentication
// @Accept json
// @Produce json
// @Param request body dto.StaffRefreshRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.StaffSessionDTO} "Session refreshed"
// @Failure 401 {object} dto.APIResponse "Invalid refresh token"
// @Router /api/v1/staff/auth/refresh [post]
func (h *StaffAuthHandler) Refresh(c fiber.Ctx) error {
	var req dto.StaffRefreshRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}
	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/auth/refresh")
	defer cancel()

	session, err := h.flow.Refresh(ctx, &req)
	if err != nil {
		if businessflow.IsInvalidToken(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Refresh token is invalid", "REFRESH_TOKEN_INVALID", nil)
		}
		return h.flowError(c, err, "Failed to refresh session")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Session refreshed", session)
}

// Logout revokes the current access token
// @Summary Staff logout
// @Tags Staff Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.StaffLogoutRequest false "Optional refresh token to revoke"
// @Success 200 {object} dto.APIResponse "Logged out"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/staff/auth/logout [post]
func (h *StaffAuthHandler) Logout(c fiber.Ctx) error {
	var req dto.StaffLogoutRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
	}
	token := strings.TrimSpace(strings.TrimPrefix(c.Get("Authorization"), "Bearer "))

	ctx, cancel := h.createRequestContext(c, "/api/v1/staff/auth/logout")
	defer cancel()

	if err := h.flow.Logout(ctx, token, &req, h.metadata(c)); err != nil {
		if businessflow.IsInvalidToken(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Token is invalid", "TOKEN_INVALID", nil)
		}
		return h.flowError(c, err, "Failed to log out")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Logged out", nil)
}
