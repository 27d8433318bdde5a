package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/amirphl/webbuilder-crm/app/dto"
	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/repository"
	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/redis/go-redis/v9"
)

// SettingsFlow serves the site settings singleton through a two level cache:
// a short-lived copy in process and a shared copy in Redis when one is configured.
// Every write invalidates both, and Refresh reloads them from the database.
type SettingsFlow interface {
	GetSettings(ctx context.Context) (*dto.SiteSettingsDTO, error)
	UpdateSettings(ctx context.Context, req *dto.UpdateSiteSettingsRequest, metadata *ClientMetadata) (*dto.SiteSettingsDTO, error)
	Refresh(ctx context.Context) (*dto.SiteSettingsDTO, error)
	Invalidate(ctx context.Context) error
	MaintenanceMode(ctx context.Context) bool
}

type SettingsFlowImpl struct {
	settingRepo repository.SiteSettingRepository
	auditRepo   repository.AuditLogRepository
	rc          *redis.Client
	redisTTL    time.Duration
	localTTL    time.Duration
	now         Clock
	logger      *log.Logger

	mu        sync.RWMutex
	cached    *models.SiteSetting
	expiresAt time.Time
}

func NewSettingsFlow(
	settingRepo repository.SiteSettingRepository,
	auditRepo repository.AuditLogRepository,
	rc *redis.Client,
	redisTTL, localTTL time.Duration,
	clock Clock,
	logger *log.Logger,
) SettingsFlow {
	if logger == nil {
		logger = log.Default()
	}
	return &SettingsFlowImpl{
		settingRepo: settingRepo,
		auditRepo:   auditRepo,
		rc:          rc,
		redisTTL:    redisTTL,
		localTTL:    localTTL,
		now:         defaultClock(clock),
		logger:      logger,
	}
}

func (f *SettingsFlowImpl) GetSettings(ctx context.Context) (*dto.SiteSettingsDTO, error) {
	setting, err := f.load(ctx)
	if err != nil {
		return nil, NewBusinessError("SETTINGS_LOAD_FAILED", "Failed to load site settings", err)
	}
	out := ToSiteSettingsDTO(*setting)
	return &out, nil
}

func (f *SettingsFlowImpl) UpdateSettings(ctx context.Context, req *dto.UpdateSiteSettingsRequest, metadata *ClientMetadata) (*dto.SiteSettingsDTO, error) {
	if req == nil {
		return nil, NewBusinessError("SETTINGS_VALIDATION_FAILED", "Settings validation failed", ErrValidation)
	}
	setting, err := f.settingRepo.Get(ctx)
	if err != nil {
		return nil, NewBusinessError("SETTINGS_LOAD_FAILED", "Failed to load site settings", err)
	}

	if req.SiteName != nil {
		setting.SiteName = strings.TrimSpace(*req.SiteName)
	}
	if req.ContactEmail != nil {
		setting.ContactEmail = normalizeEmail(*req.ContactEmail)
	}
	if req.ContactPhone != nil {
		setting.ContactPhone = strings.TrimSpace(*req.ContactPhone)
	}
	if req.Address != nil {
		setting.Address = strings.TrimSpace(*req.Address)
	}
	if req.FacebookURL != nil {
		setting.FacebookURL = strings.TrimSpace(*req.FacebookURL)
	}
	if req.TwitterURL != nil {
		setting.TwitterURL = strings.TrimSpace(*req.TwitterURL)
	}
	if req.LinkedInURL != nil {
		setting.LinkedInURL = strings.TrimSpace(*req.LinkedInURL)
	}
	if req.InstagramURL != nil {
		setting.InstagramURL = strings.TrimSpace(*req.InstagramURL)
	}
	if req.AboutText != nil {
		setting.AboutText = strings.TrimSpace(*req.AboutText)
	}
	if req.MaintenanceMode != nil {
		setting.MaintenanceMode = *req.MaintenanceMode
	}
	if setting.SiteName == "" {
		setting.SiteName = models.DefaultSiteName
	}
	setting.UpdatedByID = staffIDFromContext(ctx)

	if err := f.settingRepo.Update(ctx, setting); err != nil {
		return nil, NewBusinessError("SETTINGS_UPDATE_FAILED", "Failed to update site settings", err)
	}
	if err := f.Invalidate(ctx); err != nil {
		f.logger.Printf("site settings: cache invalidation failed: %v", err)
	}

	_ = createAuditLog(ctx, f.auditRepo, auditEntry{
		Action:      models.AuditActionSettingsUpdated,
		TargetType:  models.AuditTargetSettings,
		TargetID:    setting.ID,
		Description: "Site settings updated",
		Success:     true,
		Data:        map[string]any{"maintenance_mode": setting.MaintenanceMode},
	}, metadata)

	return f.Refresh(ctx)
}

// Refresh drops every cached copy and reloads the settings from the database
func (f *SettingsFlowImpl) Refresh(ctx context.Context) (*dto.SiteSettingsDTO, error) {
	if err := f.Invalidate(ctx); err != nil {
		f.logger.Printf("site settings: cache invalidation failed: %v", err)
	}
	return f.GetSettings(ctx)
}

// Invalidate drops the in-process copy and the shared Redis keys
func (f *SettingsFlowImpl) Invalidate(ctx context.Context) error {
	f.mu.Lock()
	f.cached = nil
	f.expiresAt = time.Time{}
	f.mu.Unlock()

	if f.rc == nil {
		return nil
	}
	return f.rc.Del(ctx, utils.SiteSettingsCacheKey, utils.MaintenanceModeCacheKey).Err()
}

// MaintenanceMode reports the maintenance flag, treating lookup failures as "not in maintenance"
func (f *SettingsFlowImpl) MaintenanceMode(ctx context.Context) bool {
	if f.rc != nil {
		if v, err := f.rc.Get(ctx, utils.MaintenanceModeCacheKey).Result(); err == nil {
			return v == "1"
		}
	}
	setting, err := f.load(ctx)
	if err != nil {
		f.logger.Printf("site settings: maintenance lookup failed: %v", err)
		return false
	}
	return setting.MaintenanceMode
}

func (f *SettingsFlowImpl) load(ctx context.Context) (*models.SiteSetting, error) {
	now := f.now()

	f.mu.RLock()
	if f.cached != nil && now.Before(f.expiresAt) {
		s := *f.cached
		f.mu.RUnlock()
		return &s, nil
	}
	f.mu.RUnlock()

	if setting, ok := f.loadShared(ctx); ok {
		f.keep(setting, now)
		return setting, nil
	}

	setting, err := f.settingRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	f.keep(setting, now)
	f.storeShared(ctx, setting)
	return setting, nil
}

func (f *SettingsFlowImpl) keep(setting *models.SiteSetting, now time.Time) {
	s := *setting
	f.mu.Lock()
	f.cached = &s
	f.expiresAt = now.Add(f.localTTL)
	f.mu.Unlock()
}

func (f *SettingsFlowImpl) loadShared(ctx context.Context) (*models.SiteSetting, bool) {
	if f.rc == nil {
		return nil, false
	}
	bs, err := f.rc.Get(ctx, utils.SiteSettingsCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			f.logger.Printf("site settings: redis read failed: %v", err)
		}
		return nil, false
	}
	var setting models.SiteSetting
	if err := json.Unmarshal(bs, &setting); err != nil {
		return nil, false
	}
	return &setting, true
}

func (f *SettingsFlowImpl) storeShared(ctx context.Context, setting *models.SiteSetting) {
	if f.rc == nil {
		return
	}
	bs, err := json.Marshal(setting)
	if err != nil {
		return
	}
	maintenance := "0"
	if setting.MaintenanceMode {
		maintenance = "1"
	}
	pipe := f.rc.TxPipeline()
	pipe.Set(ctx, utils.SiteSettingsCacheKey, bs, f.redisTTL)
	pipe.Set(ctx, utils.MaintenanceModeCacheKey, maintenance, f.redisTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		f.logger.Printf("site settings: redis write failed: %v", err)
	}
}
