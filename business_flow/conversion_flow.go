package businessflow

import (
	"context"
	"strings"
	"time"

	"github.com/amirphl/webbuilder-crm/app/dto"
	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/repository"
	"github.com/amirphl/webbuilder-crm/utils"
)

// ConversionFlow is the read side of the conversion log
type ConversionFlow interface {
	ListConversions(ctx context.Context, req *dto.ListConversionsRequest) (*dto.ListConversionsResponse, error)
}

type ConversionFlowImpl struct {
	conversionRepo repository.ConversionTrackingRepository
}

func NewConversionFlow(conversionRepo repository.ConversionTrackingRepository) ConversionFlow {
	return &ConversionFlowImpl{conversionRepo: conversionRepo}
}

func (f *ConversionFlowImpl) ListConversions(ctx context.Context, req *dto.ListConversionsRequest) (*dto.ListConversionsResponse, error) {
	if req == nil {
		req = &dto.ListConversionsRequest{}
	}

	filter := models.ConversionTrackingFilter{
		LeadID: req.LeadID,
		Source: trimmedPtr(req.Source),
	}
	if req.Action != nil {
		action := models.ConversionAction(*req.Action)
		if !action.Valid() {
			return nil, NewBusinessError("CONVERSION_LIST_VALIDATION_FAILED", "Invalid conversion filter", ErrInvalidConversion)
		}
		filter.Action = &action
	}
	after, before, err := dateWindow(req.From, req.To)
	if err != nil {
		return nil, NewBusinessError("CONVERSION_LIST_VALIDATION_FAILED", "Invalid conversion filter", err)
	}
	filter.After, filter.Before = after, before

	page, pageSize, limit, offset := normalizePage(req.Page, req.PageSize)
	total, err := f.conversionRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("CONVERSION_LIST_FAILED", "Failed to list conversions", err)
	}
	events, err := f.conversionRepo.ByFilter(ctx, filter, "recorded_at DESC, id DESC", limit, offset)
	if err != nil {
		return nil, NewBusinessError("CONVERSION_LIST_FAILED", "Failed to list conversions", err)
	}

	items := make([]dto.ConversionDTO, 0, len(events))
	for _, e := range events {
		items = append(items, ToConversionDTO(*e))
	}
	return &dto.ListConversionsResponse{
		Message:    "Conversions retrieved successfully",
		Items:      items,
		Pagination: toPagination(page, pageSize, total),
	}, nil
}

// dateWindow turns inclusive YYYY-MM-DD bounds into [after, before) instants
func dateWindow(from, to *string) (*time.Time, *time.Time, error) {
	var after, before *time.Time
	if from != nil && strings.TrimSpace(*from) != "" {
		t, err := utils.ParseDate(*from)
		if err != nil {
			return nil, nil, ErrInvalidDate
		}
		after = &t
	}
	if to != nil && strings.TrimSpace(*to) != "" {
		t, err := utils.ParseDate(*to)
		if err != nil {
			return nil, nil, ErrInvalidDate
		}
		end := t.AddDate(0, 0, 1)
		before = &end
	}
	return after, before, nil
}
