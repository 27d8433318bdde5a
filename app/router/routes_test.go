package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirphl/webbuilder-crm/app/handlers"
	"github.com/amirphl/webbuilder-crm/app/middleware"
	"github.com/amirphl/webbuilder-crm/app/services"
	businessflow "github.com/amirphl/webbuilder-crm/business_flow"
	"github.com/amirphl/webbuilder-crm/config"
	"github.com/amirphl/webbuilder-crm/repository"
	testingutil "github.com/amirphl/webbuilder-crm/testing"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toggleMaintenance struct {
	on atomic.Bool
}

func (m *toggleMaintenance) MaintenanceMode(ctx context.Context) bool {
	return m.on.Load()
}

type testServer struct {
	app         *fiber.App
	fixtures    *testingutil.TestFixtures
	tokens      services.TokenService
	maintenance *toggleMaintenance
	dbErr       error
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	tdb := testingutil.NewTestDB(t)
	db := tdb.DB
	quiet := log.New(io.Discard, "", 0)

	leadRepo := repository.NewLeadRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	itemRepo := repository.NewQuoteServiceRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	conversionRepo := repository.NewConversionTrackingRepository(db)
	counterRepo := repository.NewSequenceCounterRepository(db)
	staffRepo := repository.NewStaffUserRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	settingRepo := repository.NewSiteSettingRepository(db)

	tokens, err := services.NewTokenService(time.Hour, 24*time.Hour, "webbuilder-crm", "staff", false, "", "", "router-test-secret")
	require.NoError(t, err)

	tracker := businessflow.NewConversionTracker(conversionRepo, quiet)
	quoteFlow := businessflow.NewQuoteFlow(quoteRepo, itemRepo, serviceRepo, leadRepo, auditRepo,
		businessflow.NewQuoteNumberer(quoteRepo, counterRepo), db, businessflow.DefaultQuoteSettings(), nil, quiet)
	serviceFlow := businessflow.NewServiceFlow(serviceRepo, auditRepo)
	settingsFlow := businessflow.NewSettingsFlow(settingRepo, auditRepo, nil, time.Hour, time.Minute, nil, quiet)

	h := Handlers{
		Public:    handlers.NewPublicHandler(businessflow.NewIntakeFlow(leadRepo, tracker, db), serviceFlow, settingsFlow),
		StaffAuth: handlers.NewStaffAuthHandler(businessflow.NewStaffAuthFlow(staffRepo, auditRepo, tokens, nil, nil)),
		Leads:     handlers.NewLeadHandler(businessflow.NewLeadFlow(leadRepo, quoteRepo, conversionRepo, staffRepo, auditRepo, db, nil)),
		Quotes:    handlers.NewQuoteHandler(quoteFlow),
		Services:  handlers.NewServiceHandler(serviceFlow),
		Reports:   handlers.NewReportHandler(businessflow.NewConversionFlow(conversionRepo), businessflow.NewReportFlow(leadRepo, quoteRepo, conversionRepo, nil)),
		Settings:  handlers.NewSettingsHandler(settingsFlow),
	}

	cfg := &config.ProductionConfig{
		Server: config.ServerConfig{BodyLimit: 1 << 20},
		Security: config.SecurityConfig{
			AllowedOrigins:  []string{"*"},
			GlobalRateLimit: 1000,
			PublicRateLimit: 1000,
			AuthRateLimit:   1000,
			RateLimitWindow: time.Minute,
		},
		Metrics:    config.MetricsConfig{Path: "/metrics"},
		Deployment: config.DeploymentConfig{Version: "test"},
	}

	s := &testServer{
		fixtures:    testingutil.NewTestFixtures(tdb),
		tokens:      tokens,
		maintenance: &toggleMaintenance{},
	}
	r := NewFiberRouter(cfg, h, middleware.NewAuthMiddleware(tokens), s.maintenance, func() error { return s.dbErr })
	r.SetupRoutes()
	s.app = r.GetApp()
	return s
}

func (s *testServer) staffToken(t *testing.T) string {
	t.Helper()
	staff, err := s.fixtures.CreateStaffUser("")
	require.NoError(t, err)
	access, _, err := s.tokens.GenerateStaffTokens(staff.ID)
	require.NoError(t, err)
	return access
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func errorCode(body map[string]any) string {
	detail, _ := body["error"].(map[string]any)
	code, _ := detail["code"].(string)
	return code
}

func data(body map[string]any) map[string]any {
	d, _ := body["data"].(map[string]any)
	return d
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", data(body)["database"])

	s.dbErr = errors.New("connection refused")
	status, body = s.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "DATABASE_UNAVAILABLE", errorCode(body))
}

func TestPublicQuickQuote(t *testing.T) {
	s := newTestServer(t)
	valid := map[string]any{
		"name":         "Ada Lovelace",
		"email":        "ada@example.com",
		"project_type": "ecommerce",
		"budget_range": "10000-25000",
	}

	status, body := s.do(t, http.MethodPost, "/api/v1/public/quick-quote", "", valid)
	require.Equal(t, http.StatusCreated, status, body)
	assert.NotEmpty(t, data(body)["lead_uuid"])

	tests := []struct {
		name   string
		mutate func(map[string]any)
		code   string
	}{
		{"bad email", func(m map[string]any) { m["email"] = "not-an-email" }, "VALIDATION_ERROR"},
		{"unknown project type", func(m map[string]any) { m["project_type"] = "spaceship" }, "VALIDATION_ERROR"},
		{"unknown budget range", func(m map[string]any) { m["budget_range"] = "1-2" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := map[string]any{}
			for k, v := range valid {
				req[k] = v
			}
			tt.mutate(req)
			status, body := s.do(t, http.MethodPost, "/api/v1/public/quick-quote", "", req)
			assert.Equal(t, http.StatusBadRequest, status)
			if tt.code != "" {
				assert.Equal(t, tt.code, errorCode(body))
			}
		})
	}
}

func TestMaintenanceBlocksPublicWrites(t *testing.T) {
	s := newTestServer(t)
	s.maintenance.on.Store(true)

	status, body := s.do(t, http.MethodPost, "/api/v1/public/contact", "", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "MAINTENANCE_MODE", errorCode(body))

	status, _ = s.do(t, http.MethodGet, "/api/v1/public/services", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestStaffRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/v1/staff/leads", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "MISSING_AUTHORIZATION_HEADER", errorCode(body))

	status, _ = s.do(t, http.MethodGet, "/api/v1/staff/leads", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = s.do(t, http.MethodPost, "/api/v1/staff/auth/captcha/init", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status, body)
}

func TestStaffLeadRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.staffToken(t)

	status, body := s.do(t, http.MethodPost, "/api/v1/staff/leads", token, map[string]any{
		"name": "Grace Hopper", "email": "grace@example.com", "budget": "5000",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "new", data(body)["status"])

	status, body = s.do(t, http.MethodGet, "/api/v1/staff/leads/999", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "LEAD_NOT_FOUND", errorCode(body))

	status, body = s.do(t, http.MethodGet, "/api/v1/staff/leads/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_ID", errorCode(body))
}

func TestStaffQuoteLocking(t *testing.T) {
	s := newTestServer(t)
	token := s.staffToken(t)
	service, err := s.fixtures.CreateService("landing-page", "100")
	require.NoError(t, err)

	status, body := s.do(t, http.MethodPost, "/api/v1/staff/quotes", token, map[string]any{
		"client_name":  "Ada Lovelace",
		"client_email": "ada@example.com",
		"items":        []map[string]any{{"service_id": service.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, status, body)
	quote := data(body)
	assert.Equal(t, "220.00", quote["total_amount"])

	status, body = s.do(t, http.MethodPost, "/api/v1/staff/quotes/1/status", token, map[string]any{"status": "sent"})
	require.Equal(t, http.StatusOK, status, body)

	status, body = s.do(t, http.MethodPost, "/api/v1/staff/quotes/1/items", token, map[string]any{"service_id": service.ID, "quantity": 1})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "QUOTE_LOCKED", errorCode(body))

	status, body = s.do(t, http.MethodPost, "/api/v1/staff/quotes/1/status", token, map[string]any{"status": "draft"})
	require.Equal(t, http.StatusOK, status, body)
	status, _ = s.do(t, http.MethodPost, "/api/v1/staff/quotes/1/items", token, map[string]any{"service_id": service.ID, "quantity": 1})
	assert.Equal(t, http.StatusCreated, status)
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodGet, "/api/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}
