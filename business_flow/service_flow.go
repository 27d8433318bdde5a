package businessflow

import (
	"context"
	"regexp"
	"strings"

	"github.com/amirphl/webbuilder-crm/app/dto"
	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/repository"
	"github.com/amirphl/webbuilder-crm/utils"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ServiceFlow manages the service catalog quote lines are priced from
type ServiceFlow interface {
	ListServices(ctx context.Context, activeOnly bool) (*dto.ListServicesResponse, error)
	GetService(ctx context.Context, id uint) (*dto.ServiceDTO, error)
	CreateService(ctx context.Context, req *dto.CreateServiceRequest, metadata *ClientMetadata) (*dto.ServiceDTO, error)
	UpdateService(ctx context.Context, id uint, req *dto.UpdateServiceRequest, metadata *ClientMetadata) (*dto.ServiceDTO, error)
}

type ServiceFlowImpl struct {
	serviceRepo repository.ServiceRepository
	auditRepo   repository.AuditLogRepository
}

func NewServiceFlow(serviceRepo repository.ServiceRepository, auditRepo repository.AuditLogRepository) ServiceFlow {
	return &ServiceFlowImpl{
		serviceRepo: serviceRepo,
		auditRepo:   auditRepo,
	}
}

func (f *ServiceFlowImpl) ListServices(ctx context.Context, activeOnly bool) (*dto.ListServicesResponse, error) {
	filter := models.ServiceFilter{}
	if activeOnly {
		filter.IsActive = utils.ToPtr(true)
	}
	services, err := f.serviceRepo.ByFilter(ctx, filter, "display_order ASC, name ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("SERVICE_LIST_FAILED", "Failed to list services", err)
	}

	items := make([]dto.ServiceDTO, 0, len(services))
	for _, s := range services {
		items = append(items, ToServiceDTO(*s))
	}
	return &dto.ListServicesResponse{
		Message: "Services retrieved successfully",
		Items:   items,
	}, nil
}

func (f *ServiceFlowImpl) GetService(ctx context.Context, id uint) (*dto.ServiceDTO, error) {
	service, err := f.loadService(ctx, id)
	if err != nil {
		return nil, err
	}
	out := ToServiceDTO(*service)
	return &out, nil
}

func (f *ServiceFlowImpl) CreateService(ctx context.Context, req *dto.CreateServiceRequest, metadata *ClientMetadata) (*dto.ServiceDTO, error) {
	if req == nil {
		return nil, NewBusinessError("SERVICE_VALIDATION_FAILED", "Service validation failed", ErrInvalidServiceInput)
	}

	service := &models.Service{
		Name:             strings.TrimSpace(req.Name),
		Slug:             strings.ToLower(strings.TrimSpace(req.Slug)),
		Category:         models.ServiceCategory(req.Category),
		ShortDescription: strings.TrimSpace(req.ShortDescription),
		Description:      strings.TrimSpace(req.Description),
		BasePrice:        roundMoney(req.BasePrice),
		IsRecurring:      req.IsRecurring,
		RecurringPeriod:  req.RecurringPeriod,
		Features:         joinFeatures(req.Features),
		IsFeatured:       req.IsFeatured,
		IsActive:         true,
		DisplayOrder:     req.DisplayOrder,
	}
	if req.IsActive != nil {
		service.IsActive = *req.IsActive
	}
	if err := validateService(service); err != nil {
		return nil, NewBusinessError("SERVICE_VALIDATION_FAILED", "Service validation failed", err)
	}

	existing, err := f.serviceRepo.BySlug(ctx, service.Slug)
	if err != nil {
		return nil, NewBusinessError("SERVICE_LOOKUP_FAILED", "Failed to check slug", err)
	}
	if existing != nil {
		return nil, NewBusinessError("SERVICE_SLUG_TAKEN", "Slug already exists", ErrDuplicateSlug)
	}

	if err := f.serviceRepo.Save(ctx, service); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, NewBusinessError("SERVICE_SLUG_TAKEN", "Slug already exists", ErrDuplicateSlug)
		}
		return nil, NewBusinessError("SERVICE_CREATE_FAILED", "Failed to create service", err)
	}

	_ = createAuditLog(ctx, f.auditRepo, auditEntry{
		Action:      models.AuditActionServiceCreated,
		TargetType:  models.AuditTargetService,
		TargetID:    service.ID,
		Description: "Service created",
		Success:     true,
		Data:        map[string]any{"slug": service.Slug, "base_price": formatMoney(service.BasePrice)},
	}, metadata)

	out := ToServiceDTO(*service)
	return &out, nil
}

// UpdateService edits a catalog entry. Line items already on quotes keep the price they were authored with.
func (f *ServiceFlowImpl) UpdateService(ctx context.Context, id uint, req *dto.UpdateServiceRequest, metadata *ClientMetadata) (*dto.ServiceDTO, error) {
	if req == nil {
		return nil, NewBusinessError("SERVICE_VALIDATION_FAILED", "Service validation failed", ErrInvalidServiceInput)
	}
	service, err := f.loadService(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		service.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		service.Category = models.ServiceCategory(*req.Category)
	}
	if req.ShortDescription != nil {
		service.ShortDescription = strings.TrimSpace(*req.ShortDescription)
	}
	if req.Description != nil {
		service.Description = strings.TrimSpace(*req.Description)
	}
	if req.BasePrice != nil {
		service.BasePrice = roundMoney(*req.BasePrice)
	}
	if req.IsRecurring != nil {
		service.IsRecurring = *req.IsRecurring
		if !service.IsRecurring {
			service.RecurringPeriod = nil
		}
	}
	if req.RecurringPeriod != nil {
		service.RecurringPeriod = req.RecurringPeriod
	}
	if req.Features != nil {
		service.Features = joinFeatures(req.Features)
	}
	if req.IsFeatured != nil {
		service.IsFeatured = *req.IsFeatured
	}
	if req.IsActive != nil {
		service.IsActive = *req.IsActive
	}
	if req.DisplayOrder != nil {
		service.DisplayOrder = *req.DisplayOrder
	}
	if err := validateService(service); err != nil {
		return nil, NewBusinessError("SERVICE_VALIDATION_FAILED", "Service validation failed", err)
	}

	if err := f.serviceRepo.Update(ctx, service); err != nil {
		return nil, NewBusinessError("SERVICE_UPDATE_FAILED", "Failed to update service", err)
	}

	_ = createAuditLog(ctx, f.auditRepo, auditEntry{
		Action:      models.AuditActionServiceUpdated,
		TargetType:  models.AuditTargetService,
		TargetID:    service.ID,
		Description: "Service updated",
		Success:     true,
	}, metadata)

	out := ToServiceDTO(*service)
	return &out, nil
}

func (f *ServiceFlowImpl) loadService(ctx context.Context, id uint) (*models.Service, error) {
	service, err := f.serviceRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("SERVICE_LOOKUP_FAILED", "Failed to load service", err)
	}
	if service == nil {
		return nil, NewBusinessError("SERVICE_NOT_FOUND", "Service not found", ErrServiceNotFound)
	}
	return service, nil
}

func validateService(s *models.Service) error {
	if s.Name == "" || !slugPattern.MatchString(s.Slug) || !s.Category.Valid() {
		return ErrInvalidServiceInput
	}
	if s.BasePrice.IsNegative() {
		return ErrNegativeServicePrice
	}
	if s.IsRecurring {
		p := utils.Deref(s.RecurringPeriod)
		if p != models.RecurringPeriodMonthly && p != models.RecurringPeriodYearly {
			return ErrInvalidServiceInput
		}
	}
	return nil
}

func joinFeatures(features []string) string {
	out := make([]string, 0, len(features))
	for _, f := range features {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, "\n")
}
