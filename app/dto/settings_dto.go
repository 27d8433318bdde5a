package dto

type SiteSettingsDTO struct {
	SiteName        string `json:"site_name" example:"WebBuilder"`
	ContactEmail    string `json:"contact_email"`
	ContactPhone    string `json:"contact_phone"`
	Address         string `json:"address"`
	FacebookURL     string `json:"facebook_url"`
	TwitterURL      string `json:"twitter_url"`
	LinkedInURL     string `json:"linkedin_url"`
	InstagramURL    string `json:"instagram_url"`
	AboutText       string `json:"about_text"`
	MaintenanceMode bool   `json:"maintenance_mode"`
	UpdatedAt       string `json:"updated_at"`
}

// UpdateSiteSettingsRequest edits the settings singleton; nil fields are left untouched
type UpdateSiteSettingsRequest struct {
	SiteName        *string `json:"site_name,omitempty" validate:"omitempty,min=1,max=100"`
	ContactEmail    *string `json:"contact_email,omitempty" validate:"omitempty,email,max=254"`
	ContactPhone    *string `json:"contact_phone,omitempty" validate:"omitempty,max=20"`
	Address         *string `json:"address,omitempty"`
	FacebookURL     *string `json:"facebook_url,omitempty" validate:"omitempty,url,max=500"`
	TwitterURL      *string `json:"twitter_url,omitempty" validate:"omitempty,url,max=500"`
	LinkedInURL     *string `json:"linkedin_url,omitempty" validate:"omitempty,url,max=500"`
	InstagramURL    *string `json:"instagram_url,omitempty" validate:"omitempty,url,max=500"`
	AboutText       *string `json:"about_text,omitempty"`
	MaintenanceMode *bool   `json:"maintenance_mode,omitempty"`
}
