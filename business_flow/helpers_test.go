package businessflow

import (
	"bytes"
	"context"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/repository"
	testingutil "github.com/amirphl/webbuilder-crm/testing"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

// testClock is a movable clock shared by the flows of one test
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type flowEnv struct {
	db       *gorm.DB
	fixtures *testingutil.TestFixtures
	clock    *testClock
	logs     *bytes.Buffer
	logger   *log.Logger

	leadRepo       repository.LeadRepository
	quoteRepo      repository.QuoteRepository
	itemRepo       repository.QuoteServiceRepository
	serviceRepo    repository.ServiceRepository
	conversionRepo repository.ConversionTrackingRepository
	counterRepo    repository.SequenceCounterRepository
	staffRepo      repository.StaffUserRepository
	auditRepo      repository.AuditLogRepository
	settingRepo    repository.SiteSettingRepository
}

func newFlowEnv(t *testing.T) *flowEnv {
	t.Helper()
	tdb := testingutil.NewTestDB(t)
	logs := &bytes.Buffer{}
	return &flowEnv{
		db:             tdb.DB,
		fixtures:       testingutil.NewTestFixtures(tdb),
		clock:          &testClock{now: testNow},
		logs:           logs,
		logger:         log.New(logs, "", 0),
		leadRepo:       repository.NewLeadRepository(tdb.DB),
		quoteRepo:      repository.NewQuoteRepository(tdb.DB),
		itemRepo:       repository.NewQuoteServiceRepository(tdb.DB),
		serviceRepo:    repository.NewServiceRepository(tdb.DB),
		conversionRepo: repository.NewConversionTrackingRepository(tdb.DB),
		counterRepo:    repository.NewSequenceCounterRepository(tdb.DB),
		staffRepo:      repository.NewStaffUserRepository(tdb.DB),
		auditRepo:      repository.NewAuditLogRepository(tdb.DB),
		settingRepo:    repository.NewSiteSettingRepository(tdb.DB),
	}
}

func (e *flowEnv) quoteFlow(quoteRepo repository.QuoteRepository) QuoteFlow {
	if quoteRepo == nil {
		quoteRepo = e.quoteRepo
	}
	return NewQuoteFlow(
		quoteRepo, e.itemRepo, e.serviceRepo, e.leadRepo, e.auditRepo,
		NewQuoteNumberer(quoteRepo, e.counterRepo),
		e.db, DefaultQuoteSettings(), e.clock.Now, e.logger,
	)
}

func (e *flowEnv) leadFlow() LeadFlow {
	return NewLeadFlow(e.leadRepo, e.quoteRepo, e.conversionRepo, e.staffRepo, e.auditRepo, e.db, e.clock.Now)
}

func (e *flowEnv) intakeFlow(conversionRepo repository.ConversionTrackingRepository) IntakeFlow {
	if conversionRepo == nil {
		conversionRepo = e.conversionRepo
	}
	return NewIntakeFlow(e.leadRepo, NewConversionTracker(conversionRepo, e.logger), e.db)
}

func (e *flowEnv) reportFlow() ReportFlow {
	return NewReportFlow(e.leadRepo, e.quoteRepo, e.conversionRepo, e.clock.Now)
}

func (e *flowEnv) service(t *testing.T, slug, price string) *models.Service {
	t.Helper()
	s, err := e.fixtures.CreateService(slug, price)
	require.NoError(t, err)
	return s
}

func (e *flowEnv) lead(t *testing.T, status models.LeadStatus) *models.Lead {
	t.Helper()
	l, err := e.fixtures.CreateLead(status)
	require.NoError(t, err)
	return l
}

func (e *flowEnv) auditActions(t *testing.T, targetType string, targetID uint) []string {
	t.Helper()
	logs, err := e.auditRepo.ListByTarget(context.Background(), targetType, targetID, 0, 0)
	require.NoError(t, err)
	actions := make([]string, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	return actions
}
