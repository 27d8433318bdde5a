package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/webbuilder-crm/app/dto"
	"github.com/amirphl/webbuilder-crm/app/services"
	"github.com/amirphl/webbuilder-crm/models"
	testingutil "github.com/amirphl/webbuilder-crm/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCaptcha accepts a single angle for every challenge
type stubCaptcha struct {
	angle float64
}

func (s *stubCaptcha) GenerateRotate(ctx context.Context) (*services.RotateChallenge, error) {
	return &services.RotateChallenge{ID: "challenge-1", MasterImageBase64: "master", ThumbImageBase64: "thumb"}, nil
}

func (s *stubCaptcha) VerifyRotate(ctx context.Context, challengeID string, userAngle float64) bool {
	return challengeID != "" && userAngle == s.angle
}

func newStaffAuthFlow(t *testing.T, env *flowEnv) (StaffAuthFlow, services.TokenService) {
	t.Helper()
	tokens, err := services.NewTokenService(time.Hour, 24*time.Hour, "webbuilder-crm", "staff", false, "", "", "test-secret")
	require.NoError(t, err)
	return NewStaffAuthFlow(env.staffRepo, env.auditRepo, tokens, &stubCaptcha{angle: 90}, env.clock.Now), tokens
}

func TestStaffAuthFlow_Login(t *testing.T) {
	env := newFlowEnv(t)
	flow, tokens := newStaffAuthFlow(t, env)
	staff, err := env.fixtures.CreateStaffUser("sales")
	require.NoError(t, err)

	resp, err := flow.Login(context.Background(), &dto.StaffLoginRequest{
		ChallengeID: "challenge-1",
		Username:    "sales",
		Password:    testingutil.TestStaffPassword,
		UserAngle:   90,
	}, NewClientMetadata("127.0.0.1", "test"))
	require.NoError(t, err)

	assert.Equal(t, staff.ID, resp.Staff.ID)
	assert.Equal(t, "Bearer", resp.Session.TokenType)
	require.NotNil(t, resp.Staff.LastLoginAt)
	assert.Equal(t, "2025-06-15T10:30:00Z", *resp.Staff.LastLoginAt)

	claims, err := tokens.ValidateStaffToken(resp.Session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, staff.ID, claims.StaffID)

	assert.Contains(t, env.auditActions(t, models.AuditTargetStaffUser, staff.ID), models.AuditActionStaffLoginSuccess)
}

func TestStaffAuthFlow_LoginFailures(t *testing.T) {
	env := newFlowEnv(t)
	flow, _ := newStaffAuthFlow(t, env)
	_, err := env.fixtures.CreateStaffUser("sales")
	require.NoError(t, err)
	inactive, err := env.fixtures.CreateStaffUser("retired")
	require.NoError(t, err)
	require.NoError(t, env.db.Model(inactive).Update("is_active", false).Error)

	tests := []struct {
		name  string
		req   *dto.StaffLoginRequest
		check func(error) bool
	}{
		{"wrong captcha", &dto.StaffLoginRequest{ChallengeID: "c", Username: "sales", Password: testingutil.TestStaffPassword, UserAngle: 10}, IsInvalidCaptcha},
		{"missing challenge", &dto.StaffLoginRequest{Username: "sales", Password: testingutil.TestStaffPassword, UserAngle: 90}, IsInvalidCaptcha},
		{"unknown user", &dto.StaffLoginRequest{ChallengeID: "c", Username: "nobody", Password: testingutil.TestStaffPassword, UserAngle: 90}, IsIncorrectPassword},
		{"wrong password", &dto.StaffLoginRequest{ChallengeID: "c", Username: "sales", Password: "WrongPass1!", UserAngle: 90}, IsIncorrectPassword},
		{"inactive account", &dto.StaffLoginRequest{ChallengeID: "c", Username: "retired", Password: testingutil.TestStaffPassword, UserAngle: 90}, IsStaffInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := flow.Login(context.Background(), tt.req, nil)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestStaffAuthFlow_RefreshAndLogout(t *testing.T) {
	env := newFlowEnv(t)
	flow, tokens := newStaffAuthFlow(t, env)
	staff, err := env.fixtures.CreateStaffUser("sales")
	require.NoError(t, err)
	access, refresh, err := tokens.GenerateStaffTokens(staff.ID)
	require.NoError(t, err)
	ctx := context.Background()

	session, err := flow.Refresh(ctx, &dto.StaffRefreshRequest{RefreshToken: refresh})
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)

	_, err = flow.Refresh(ctx, &dto.StaffRefreshRequest{RefreshToken: refresh})
	assert.True(t, IsInvalidToken(err), "a used refresh token is rejected")

	require.NoError(t, flow.Logout(ctx, access, &dto.StaffLogoutRequest{RefreshToken: session.RefreshToken}, nil))
	_, err = tokens.ValidateStaffToken(access)
	assert.Error(t, err)
	_, err = flow.Refresh(ctx, &dto.StaffRefreshRequest{RefreshToken: session.RefreshToken})
	assert.True(t, IsInvalidToken(err))
}

func TestStaffAuthFlow_InitCaptcha(t *testing.T) {
	env := newFlowEnv(t)
	flow, _ := newStaffAuthFlow(t, env)

	resp, err := flow.InitCaptcha(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "challenge-1", resp.ChallengeID)

	noCaptcha := NewStaffAuthFlow(env.staffRepo, env.auditRepo, nil, nil, nil)
	_, err = noCaptcha.InitCaptcha(context.Background())
	assert.ErrorIs(t, err, ErrCaptchaNotReady)
}
