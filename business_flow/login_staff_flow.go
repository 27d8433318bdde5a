package businessflow

import (
	"context"
	"errors"
	"strings"

	"github.com/amirphl/webbuilder-crm/app/dto"
	"github.com/amirphl/webbuilder-crm/app/services"
	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/repository"
	"github.com/amirphl/webbuilder-crm/utils"
	"golang.org/x/crypto/bcrypt"
)

// StaffAuthFlow represents the staff authentication flow used by handlers
type StaffAuthFlow interface {
	InitCaptcha(ctx context.Context) (*dto.StaffCaptchaInitResponse, error)
	Login(ctx context.Context, req *dto.StaffLoginRequest, metadata *ClientMetadata) (*dto.StaffLoginResponse, error)
	Refresh(ctx context.Context, req *dto.StaffRefreshRequest) (*dto.StaffSessionDTO, error)
	Logout(ctx context.Context, accessToken string, req *dto.StaffLogoutRequest, metadata *ClientMetadata) error
}

// StaffAuthFlowImpl provides captcha-init and staff credential verification
type StaffAuthFlowImpl struct {
	staffRepo    repository.StaffUserRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
	captchaSvc   services.CaptchaService
	now          Clock
}

func NewStaffAuthFlow(
	staffRepo repository.StaffUserRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	captchaSvc services.CaptchaService,
	clock Clock,
) StaffAuthFlow {
	return &StaffAuthFlowImpl{
		staffRepo:    staffRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
		captchaSvc:   captchaSvc,
		now:          defaultClock(clock),
	}
}

func (af *StaffAuthFlowImpl) InitCaptcha(ctx context.Context) (*dto.StaffCaptchaInitResponse, error) {
	if af.captchaSvc == nil {
		return nil, NewBusinessError("CAPTCHA_NOT_AVAILABLE", "Captcha service not available", ErrCaptchaNotReady)
	}
	ch, err := af.captchaSvc.GenerateRotate(ctx)
	if err != nil {
		return nil, NewBusinessError("CAPTCHA_INIT_FAILED", "Failed to initialize captcha", err)
	}
	return &dto.StaffCaptchaInitResponse{
		ChallengeID:       ch.ID,
		MasterImageBase64: ch.MasterImageBase64,
		ThumbImageBase64:  ch.ThumbImageBase64,
	}, nil
}

func (af *StaffAuthFlowImpl) Login(ctx context.Context, req *dto.StaffLoginRequest, metadata *ClientMetadata) (*dto.StaffLoginResponse, error) {
	if req == nil || len(req.Username) == 0 || len(req.Password) == 0 {
		return nil, NewBusinessError("STAFF_LOGIN_VALIDATION_FAILED", "Staff login validation failed", ErrIncorrectPassword)
	}
	if len(req.ChallengeID) == 0 {
		return nil, NewBusinessError("CAPTCHA_INVALID", "Captcha challenge missing", ErrInvalidCaptcha)
	}

	// Verify captcha first
	if af.captchaSvc == nil || !af.captchaSvc.VerifyRotate(ctx, req.ChallengeID, req.UserAngle) {
		return nil, NewBusinessError("CAPTCHA_INVALID", "Captcha validation failed", ErrInvalidCaptcha)
	}

	username := strings.TrimSpace(req.Username)
	staff, err := af.staffRepo.ByUsername(ctx, username)
	if err != nil {
		return nil, NewBusinessError("STAFF_LOOKUP_FAILED", "Failed to lookup staff user", err)
	}
	if staff == nil {
		af.auditFailure(ctx, 0, username, "unknown username", metadata)
		return nil, NewBusinessError("STAFF_INCORRECT_CREDENTIALS", "Incorrect username or password", ErrIncorrectPassword)
	}
	if !utils.IsTrue(staff.IsActive) {
		af.auditFailure(ctx, staff.ID, username, "inactive account", metadata)
		return nil, NewBusinessError("STAFF_INACTIVE", "Staff account is inactive", ErrStaffInactive)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(req.Password)); err != nil {
		af.auditFailure(ctx, staff.ID, username, "incorrect password", metadata)
		return nil, NewBusinessError("STAFF_INCORRECT_CREDENTIALS", "Incorrect username or password", ErrIncorrectPassword)
	}

	accessToken, refreshToken, err := af.tokenService.GenerateStaffTokens(staff.ID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate tokens", err)
	}

	loginAt := af.now().UTC()
	if err := af.staffRepo.UpdateLastLogin(ctx, staff.ID, loginAt); err == nil {
		staff.LastLoginAt = &loginAt
	}
	_ = createAuditLog(context.WithValue(ctx, utils.StaffIDKey, staff.ID), af.auditRepo, auditEntry{
		Action:      models.AuditActionStaffLoginSuccess,
		TargetType:  models.AuditTargetStaffUser,
		TargetID:    staff.ID,
		Description: "Staff login succeeded",
		Success:     true,
	}, metadata)

	return &dto.StaffLoginResponse{
		Staff:   ToStaffDTO(*staff),
		Session: ToStaffSessionDTO(accessToken, refreshToken),
	}, nil
}

// Refresh rotates the token pair; the presented refresh token cannot be used again
func (af *StaffAuthFlowImpl) Refresh(ctx context.Context, req *dto.StaffRefreshRequest) (*dto.StaffSessionDTO, error) {
	if req == nil || strings.TrimSpace(req.RefreshToken) == "" {
		return nil, NewBusinessError("REFRESH_TOKEN_REQUIRED", "Refresh token is required", ErrInvalidToken)
	}
	accessToken, refreshToken, err := af.tokenService.RefreshStaffTokens(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("REFRESH_TOKEN_INVALID", "Refresh token is invalid", errors.Join(ErrInvalidToken, err))
	}
	session := ToStaffSessionDTO(accessToken, refreshToken)
	return &session, nil
}

// Logout revokes the access token and, when given, the refresh token
func (af *StaffAuthFlowImpl) Logout(ctx context.Context, accessToken string, req *dto.StaffLogoutRequest, metadata *ClientMetadata) error {
	if err := af.tokenService.RevokeToken(accessToken); err != nil {
		return NewBusinessError("LOGOUT_FAILED", "Failed to revoke access token", errors.Join(ErrInvalidToken, err))
	}
	if req != nil && req.RefreshToken != "" {
		if err := af.tokenService.RevokeToken(req.RefreshToken); err != nil {
			return NewBusinessError("LOGOUT_FAILED", "Failed to revoke refresh token", errors.Join(ErrInvalidToken, err))
		}
	}

	staffID := uint(0)
	if id := staffIDFromContext(ctx); id != nil {
		staffID = *id
	}
	_ = createAuditLog(ctx, af.auditRepo, auditEntry{
		Action:      models.AuditActionStaffLogout,
		TargetType:  models.AuditTargetStaffUser,
		TargetID:    staffID,
		Description: "Staff logged out",
		Success:     true,
	}, metadata)
	return nil
}

func (af *StaffAuthFlowImpl) auditFailure(ctx context.Context, staffID uint, username, reason string, metadata *ClientMetadata) {
	msg := reason
	_ = createAuditLog(ctx, af.auditRepo, auditEntry{
		Action:      models.AuditActionStaffLoginFailed,
		TargetType:  models.AuditTargetStaffUser,
		TargetID:    staffID,
		Description: "Staff login failed",
		Success:     false,
		ErrorMsg:    &msg,
		Data:        map[string]any{"username": username},
	}, metadata)
}
