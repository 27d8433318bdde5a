package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/webbuilder-crm/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SiteSettingRepositoryImpl implements SiteSettingRepository interface
type SiteSettingRepositoryImpl struct {
	*BaseRepository[models.SiteSetting, struct{}]
}

// NewSiteSettingRepository creates a new settings repository
func NewSiteSettingRepository(db *gorm.DB) SiteSettingRepository {
	return &SiteSettingRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SiteSetting, struct{}](db),
	}
}

// Get returns the singleton row, inserting the defaults the first time
func (r *SiteSettingRepositoryImpl) Get(ctx context.Context) (*models.SiteSetting, error) {
	db := r.getDB(ctx)

	var setting models.SiteSetting
	err := db.Where("id = ?", models.SiteSettingID).Take(&setting).Error
	if err == nil {
		return &setting, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load site settings: %w", err)
	}

	defaults := models.DefaultSiteSetting()
	err = r.write(ctx, func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{DoNothing: true}).Create(defaults).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize site settings: %w", err)
	}

	if err := r.getDB(ctx).Where("id = ?", models.SiteSettingID).Take(&setting).Error; err != nil {
		return nil, fmt.Errorf("failed to load site settings: %w", err)
	}
	return &setting, nil
}
