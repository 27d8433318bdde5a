package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// TestStaffPassword is the password of every fixture staff user
const TestStaffPassword = "TestPass123!"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateStaffUser inserts an active staff user with TestStaffPassword
func (tf *TestFixtures) CreateStaffUser(username string) (*models.StaffUser, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(TestStaffPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if username == "" {
		username = fmt.Sprintf("staff_%06d", rand.Intn(1000000))
	}
	staff := &models.StaffUser{
		Username:     username,
		Email:        utils.ToPtr(username + "@example.com"),
		PasswordHash: string(hashed),
		IsActive:     utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(staff).Error; err != nil {
		return nil, fmt.Errorf("failed to create staff user %s: %w", username, err)
	}
	return staff, nil
}

// CreateLead inserts a website lead in the given status
func (tf *TestFixtures) CreateLead(status models.LeadStatus) (*models.Lead, error) {
	suffix := rand.Intn(1000000)
	lead := &models.Lead{
		Name:    fmt.Sprintf("Lead %06d", suffix),
		Email:   fmt.Sprintf("lead.%06d@example.com", suffix),
		Source:  models.LeadSourceWebsite,
		Status:  status,
		Message: "Looking for a new website",
	}
	if err := tf.DB.DB.Create(lead).Error; err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}
	return lead, nil
}

// CreateService inserts an active catalog service priced at basePrice
func (tf *TestFixtures) CreateService(slug string, basePrice string) (*models.Service, error) {
	price, err := decimal.NewFromString(basePrice)
	if err != nil {
		return nil, fmt.Errorf("invalid base price %q: %w", basePrice, err)
	}
	service := &models.Service{
		Name:      slug,
		Slug:      slug,
		Category:  models.ServiceCategoryWebDevelopment,
		BasePrice: price,
		IsActive:  true,
	}
	if err := tf.DB.DB.Create(service).Error; err != nil {
		return nil, fmt.Errorf("failed to create service %s: %w", slug, err)
	}
	return service, nil
}

// CreateQuote inserts a quote row directly, bypassing numbering and pricing
func (tf *TestFixtures) CreateQuote(number string, status models.QuoteStatus, validUntil time.Time, leadID *uint) (*models.Quote, error) {
	quote := &models.Quote{
		QuoteNumber: number,
		ClientName:  "Client " + number,
		ClientEmail: "client@example.com",
		TaxRate:     decimal.NewFromInt(10),
		Status:      status,
		ValidUntil:  utils.TruncateToDate(validUntil),
		LeadID:      leadID,
	}
	if err := tf.DB.DB.Create(quote).Error; err != nil {
		return nil, fmt.Errorf("failed to create quote %s: %w", number, err)
	}
	return quote, nil
}

// CreateConversion appends a conversion event recorded at the given time
func (tf *TestFixtures) CreateConversion(action models.ConversionAction, leadID *uint, at time.Time) (*models.ConversionTracking, error) {
	event := &models.ConversionTracking{
		Source:    "test",
		Action:    action,
		LeadID:    leadID,
		Timestamp: at.UTC(),
	}
	if err := tf.DB.DB.Create(event).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversion: %w", err)
	}
	return event, nil
}
