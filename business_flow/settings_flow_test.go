package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/webbuilder-crm/app/dto"
	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettingsFlow(env *flowEnv, rc *redis.Client) SettingsFlow {
	return NewSettingsFlow(env.settingRepo, env.auditRepo, rc, time.Hour, 5*time.Minute, env.clock.Now, env.logger)
}

func renameSiteDirectly(t *testing.T, env *flowEnv, name string) {
	t.Helper()
	require.NoError(t, env.db.Model(&models.SiteSetting{}).
		Where("id = ?", models.SiteSettingID).
		Update("site_name", name).Error)
}

func TestSettingsFlow_DefaultsOnFirstRead(t *testing.T) {
	env := newFlowEnv(t)
	flow := newSettingsFlow(env, nil)

	s, err := flow.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSiteName, s.SiteName)
	assert.False(t, s.MaintenanceMode)
}

func TestSettingsFlow_CacheAndRefresh(t *testing.T) {
	env := newFlowEnv(t)
	flow := newSettingsFlow(env, nil)
	ctx := context.Background()

	_, err := flow.GetSettings(ctx)
	require.NoError(t, err)
	renameSiteDirectly(t, env, "Studio North")

	cached, err := flow.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSiteName, cached.SiteName)

	refreshed, err := flow.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Studio North", refreshed.SiteName)
}

func TestSettingsFlow_LocalCacheExpires(t *testing.T) {
	env := newFlowEnv(t)
	flow := newSettingsFlow(env, nil)
	ctx := context.Background()

	_, err := flow.GetSettings(ctx)
	require.NoError(t, err)
	renameSiteDirectly(t, env, "Studio South")

	env.clock.Set(testNow.Add(5*time.Minute + time.Second))
	s, err := flow.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Studio South", s.SiteName)
}

func TestSettingsFlow_UpdateInvalidates(t *testing.T) {
	env := newFlowEnv(t)
	flow := newSettingsFlow(env, nil)
	ctx := context.Background()

	assert.False(t, flow.MaintenanceMode(ctx))

	updated, err := flow.UpdateSettings(ctx, &dto.UpdateSiteSettingsRequest{
		SiteName:        utils.ToPtr("  Pixel Works "),
		ContactEmail:    utils.ToPtr("Hello@Pixel.example"),
		MaintenanceMode: utils.ToPtr(true),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Pixel Works", updated.SiteName)
	assert.Equal(t, "hello@pixel.example", updated.ContactEmail)
	assert.True(t, updated.MaintenanceMode)
	assert.True(t, flow.MaintenanceMode(ctx))

	// a blank name falls back to the default
	reset, err := flow.UpdateSettings(ctx, &dto.UpdateSiteSettingsRequest{SiteName: utils.ToPtr(" ")}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSiteName, reset.SiteName)

	assert.Contains(t, env.auditActions(t, models.AuditTargetSettings, models.SiteSettingID), models.AuditActionSettingsUpdated)
}

func TestSettingsFlow_UnreachableRedisFallsBackToDatabase(t *testing.T) {
	env := newFlowEnv(t)
	rc := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rc.Close() })
	flow := newSettingsFlow(env, rc)
	ctx := context.Background()

	s, err := flow.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSiteName, s.SiteName)
	assert.False(t, flow.MaintenanceMode(ctx))
	assert.Contains(t, env.logs.String(), "redis read failed")
}
