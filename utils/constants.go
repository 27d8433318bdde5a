package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for staff access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for staff refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// CaptchaTTL is how long an issued login captcha stays solvable
	CaptchaTTL = 2 * time.Minute
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Quote defaults
const (
	// DefaultTaxRatePercent is applied when a quote is created without an explicit tax rate
	DefaultTaxRatePercent = 10

	// DefaultQuoteValidityDays is used when a quote is created without valid_until
	DefaultQuoteValidityDays = 30

	// QuoteNumberPrefix starts every quote number, followed by the year and the sequence
	QuoteNumberPrefix = "Q"

	// DefaultPageSize mirrors the admin list page size
	DefaultPageSize = 25

	// MaxPageSize caps list endpoints
	MaxPageSize = 200
)

// Cache keys
const (
	SiteSettingsCacheKey    = "site_settings"
	MaintenanceModeCacheKey = "maintenance_mode"
)

// DateLayout is the wire format of calendar dates such as valid_until
const DateLayout = "2006-01-02"
