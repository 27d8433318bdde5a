package businessflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/repository"
	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/shopspring/decimal"
)

// ConversionEvent is one funnel step to record
type ConversionEvent struct {
	Source  string
	Action  models.ConversionAction
	LeadID  *uint
	PageURL string
	Value   decimal.NullDecimal
}

// ConversionTracker appends funnel events. A failed write never fails the caller:
// Record logs it, counts it and hands back an error wrapping ErrTrackingWriteFailure
// that callers are free to drop.
type ConversionTracker interface {
	Record(ctx context.Context, event ConversionEvent, metadata *ClientMetadata) error
}

type ConversionTrackerImpl struct {
	conversionRepo repository.ConversionTrackingRepository
	logger         *log.Logger
}

func NewConversionTracker(conversionRepo repository.ConversionTrackingRepository, logger *log.Logger) ConversionTracker {
	if logger == nil {
		logger = log.Default()
	}
	return &ConversionTrackerImpl{
		conversionRepo: conversionRepo,
		logger:         logger,
	}
}

func (t *ConversionTrackerImpl) Record(ctx context.Context, event ConversionEvent, metadata *ClientMetadata) error {
	row := &models.ConversionTracking{
		Source: strings.TrimSpace(event.Source),
		Action: event.Action,
		LeadID: event.LeadID,
		Value:  event.Value,
	}

	pageURL := strings.TrimSpace(event.PageURL)
	if metadata != nil {
		if pageURL == "" {
			pageURL = metadata.Referer
		}
		if metadata.UserAgent != "" {
			row.UserAgent = utils.ToPtr(metadata.UserAgent)
		}
		if metadata.IPAddress != "" {
			row.IPAddress = utils.ToPtr(metadata.IPAddress)
		}
	}
	if pageURL != "" {
		row.PageURL = &pageURL
	}

	if err := t.conversionRepo.Append(ctx, row); err != nil {
		conversionFailuresTotal.WithLabelValues(string(event.Action)).Inc()
		t.logger.Printf("conversion tracking: dropped %s event from %q: %v", event.Action, row.Source, err)
		return fmt.Errorf("%w: %v", ErrTrackingWriteFailure, err)
	}

	conversionEventsTotal.WithLabelValues(string(event.Action)).Inc()
	return nil
}
