package businessflow

import (
	"context"
	"strings"

	"github.com/amirphl/webbuilder-crm/app/dto"
	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/repository"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var fieldValidator = validator.New()

// LeadFlow is the staff-facing lead pipeline
type LeadFlow interface {
	CreateLead(ctx context.Context, req *dto.CreateLeadRequest, metadata *ClientMetadata) (*dto.LeadDTO, error)
	GetLead(ctx context.Context, id uint) (*dto.LeadDTO, error)
	ListLeads(ctx context.Context, req *dto.ListLeadsRequest) (*dto.ListLeadsResponse, error)
	UpdateLead(ctx context.Context, id uint, req *dto.UpdateLeadRequest, metadata *ClientMetadata) (*dto.LeadDTO, error)
	ChangeStatus(ctx context.Context, id uint, req *dto.ChangeLeadStatusRequest, metadata *ClientMetadata) (*dto.LeadDTO, error)
	DeleteLead(ctx context.Context, id uint, metadata *ClientMetadata) error
	BulkAction(ctx context.Context, req *dto.BulkLeadActionRequest, metadata *ClientMetadata) (*dto.BulkLeadActionResponse, error)
}

type LeadFlowImpl struct {
	leadRepo       repository.LeadRepository
	quoteRepo      repository.QuoteRepository
	conversionRepo repository.ConversionTrackingRepository
	staffRepo      repository.StaffUserRepository
	auditRepo      repository.AuditLogRepository
	db             *gorm.DB
	now            Clock
}

func NewLeadFlow(
	leadRepo repository.LeadRepository,
	quoteRepo repository.QuoteRepository,
	conversionRepo repository.ConversionTrackingRepository,
	staffRepo repository.StaffUserRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
	clock Clock,
) LeadFlow {
	return &LeadFlowImpl{
		leadRepo:       leadRepo,
		quoteRepo:      quoteRepo,
		conversionRepo: conversionRepo,
		staffRepo:      staffRepo,
		auditRepo:      auditRepo,
		db:             db,
		now:            defaultClock(clock),
	}
}

func (f *LeadFlowImpl) CreateLead(ctx context.Context, req *dto.CreateLeadRequest, metadata *ClientMetadata) (*dto.LeadDTO, error) {
	if req == nil {
		return nil, NewBusinessError("LEAD_VALIDATION_FAILED", "Lead validation failed", ErrNameRequired)
	}

	lead := &models.Lead{
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		Phone:        trimmedPtr(req.Phone),
		Company:      trimmedPtr(req.Company),
		Timeline:     strings.TrimSpace(req.Timeline),
		Source:       models.LeadSourceWebsite,
		ProjectType:  strings.TrimSpace(req.ProjectType),
		Message:      strings.TrimSpace(req.Message),
		Notes:        strings.TrimSpace(req.Notes),
		AssignedToID: req.AssignedToID,
	}
	if req.Source != "" {
		lead.Source = models.LeadSource(req.Source)
	}
	if req.Budget != nil {
		lead.Budget = decimal.NewNullDecimal(roundMoney(*req.Budget))
	}
	if err := validateLead(lead); err != nil {
		return nil, NewBusinessError("LEAD_VALIDATION_FAILED", "Lead validation failed", err)
	}
	if err := f.checkAssignee(ctx, lead.AssignedToID); err != nil {
		return nil, err
	}

	if err := f.leadRepo.Save(ctx, lead); err != nil {
		return nil, NewBusinessError("LEAD_CREATE_FAILED", "Failed to create lead", err)
	}
	leadsCreatedTotal.WithLabelValues("staff").Inc()

	_ = createAuditLog(ctx, f.auditRepo, auditEntry{
		Action:      models.AuditActionLeadCreated,
		TargetType:  models.AuditTargetLead,
		TargetID:    lead.ID,
		Description: "Lead entered by staff",
		Success:     true,
		Data:        map[string]any{"email": lead.Email, "source": string(lead.Source)},
	}, metadata)

	out := ToLeadDTO(*lead)
	return &out, nil
}

func (f *LeadFlowImpl) GetLead(ctx context.Context, id uint) (*dto.LeadDTO, error) {
	lead, err := f.loadLead(ctx, id)
	if err != nil {
		return nil, err
	}
	out := ToLeadDTO(*lead)
	return &out, nil
}

func (f *LeadFlowImpl) ListLeads(ctx context.Context, req *dto.ListLeadsRequest) (*dto.ListLeadsResponse, error) {
	if req == nil {
		req = &dto.ListLeadsRequest{}
	}

	filter := models.LeadFilter{
		AssignedToID: req.AssignedToID,
		Search:       trimmedPtr(req.Search),
	}
	if req.Status != nil {
		status := models.LeadStatus(*req.Status)
		if !status.Valid() {
			return nil, NewBusinessError("LEAD_LIST_VALIDATION_FAILED", "Invalid lead filter", ErrInvalidLeadStatus)
		}
		filter.Status = &status
	}
	if req.Source != nil {
		source := models.LeadSource(*req.Source)
		if !source.Valid() {
			return nil, NewBusinessError("LEAD_LIST_VALIDATION_FAILED", "Invalid lead filter", ErrInvalidLeadSource)
		}
		filter.Source = &source
	}

	page, pageSize, limit, offset := normalizePage(req.Page, req.PageSize)
	total, err := f.leadRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LEAD_LIST_FAILED", "Failed to list leads", err)
	}
	leads, err := f.leadRepo.ByFilter(ctx, filter, "created_at DESC, id DESC", limit, offset)
	if err != nil {
		return nil, NewBusinessError("LEAD_LIST_FAILED", "Failed to list leads", err)
	}

	items := make([]dto.LeadDTO, 0, len(leads))
	for _, l := range leads {
		items = append(items, ToLeadDTO(*l))
	}
	return &dto.ListLeadsResponse{
		Message:    "Leads retrieved successfully",
		Items:      items,
		Pagination: toPagination(page, pageSize, total),
	}, nil
}

func (f *LeadFlowImpl) UpdateLead(ctx context.Context, id uint, req *dto.UpdateLeadRequest, metadata *ClientMetadata) (*dto.LeadDTO, error) {
	if req == nil {
		return nil, NewBusinessError("LEAD_VALIDATION_FAILED", "Lead validation failed", ErrNameRequired)
	}
	lead, err := f.loadLead(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		lead.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		lead.Email = normalizeEmail(*req.Email)
	}
	if req.Phone != nil {
		lead.Phone = trimmedPtr(req.Phone)
	}
	if req.Company != nil {
		lead.Company = trimmedPtr(req.Company)
	}
	if req.ClearBudget {
		lead.Budget = decimal.NullDecimal{}
	} else if req.Budget != nil {
		lead.Budget = decimal.NewNullDecimal(roundMoney(*req.Budget))
	}
	if req.Timeline != nil {
		lead.Timeline = strings.TrimSpace(*req.Timeline)
	}
	if req.Source != nil {
		lead.Source = models.LeadSource(*req.Source)
	}
	if req.ProjectType != nil {
		lead.ProjectType = strings.TrimSpace(*req.ProjectType)
	}
	if req.Message != nil {
		lead.Message = strings.TrimSpace(*req.Message)
	}
	if req.Notes != nil {
		lead.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.Unassign {
		lead.AssignedToID = nil
	} else if req.AssignedToID != nil {
		lead.AssignedToID = req.AssignedToID
		if err := f.checkAssignee(ctx, lead.AssignedToID); err != nil {
			return nil, err
		}
	}

	if err := validateLead(lead); err != nil {
		return nil, NewBusinessError("LEAD_VALIDATION_FAILED", "Lead validation failed", err)
	}
	lead.AssignedTo = nil
	if err := f.leadRepo.Update(ctx, lead); err != nil {
		return nil, NewBusinessError("LEAD_UPDATE_FAILED", "Failed to update lead", err)
	}

	_ = createAuditLog(ctx, f.auditRepo, auditEntry{
		Action:      models.AuditActionLeadUpdated,
		TargetType:  models.AuditTargetLead,
		TargetID:    lead.ID,
		Description: "Lead updated",
		Success:     true,
	}, metadata)

	out := ToLeadDTO(*lead)
	return &out, nil
}

// ChangeStatus moves a lead along the pipeline. Moves outside it need req.Override
// and are written to the audit log in the same transaction as the change.
func (f *LeadFlowImpl) ChangeStatus(ctx context.Context, id uint, req *dto.ChangeLeadStatusRequest, metadata *ClientMetadata) (*dto.LeadDTO, error) {
	if req == nil {
		return nil, NewBusinessError("LEAD_STATUS_VALIDATION_FAILED", "Lead status validation failed", ErrInvalidLeadStatus)
	}
	target := models.LeadStatus(req.Status)

	var lead *models.Lead
	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		var err error
		lead, err = f.loadLead(txCtx, id)
		if err != nil {
			return err
		}
		_, err = f.applyStatus(txCtx, lead, target, req.Override, req.Reason, metadata)
		return err
	})
	if err != nil {
		return nil, asBusinessError(err, "LEAD_STATUS_CHANGE_FAILED", "Failed to change lead status")
	}

	out := ToLeadDTO(*lead)
	return &out, nil
}

// applyStatus validates and persists one status change inside the caller's transaction
func (f *LeadFlowImpl) applyStatus(ctx context.Context, lead *models.Lead, target models.LeadStatus, override bool, reason string, metadata *ClientMetadata) (LeadTransitionKind, error) {
	from := lead.Status
	kind, err := ClassifyLeadTransition(from, target, override)
	if err != nil {
		return kind, NewBusinessErrorf("LEAD_STATUS_TRANSITION_INVALID", "Cannot move lead from %s to %s", err, from, target)
	}
	if kind == LeadTransitionNone {
		return kind, nil
	}

	lead.Status = target
	if target != models.LeadStatusNew && target != models.LeadStatusClosedLost {
		lead.MarkContacted(f.now())
	}
	lead.AssignedTo = nil
	if err := f.leadRepo.Update(ctx, lead); err != nil {
		return kind, err
	}

	entry := auditEntry{
		Action:     models.AuditActionLeadStatusChanged,
		TargetType: models.AuditTargetLead,
		TargetID:   lead.ID,
		Success:    true,
		Data:       map[string]any{"from": string(from), "to": string(target)},
	}
	if kind == LeadTransitionOverride {
		entry.Action = models.AuditActionLeadStatusOverridden
		entry.Description = "Lead status overridden by staff"
		if reason = strings.TrimSpace(reason); reason != "" {
			entry.Data["reason"] = reason
		}
		if err := createAuditLog(ctx, f.auditRepo, entry, metadata); err != nil {
			return kind, err
		}
		statusTransitionsTotal.WithLabelValues("lead", string(target), "override").Inc()
		return kind, nil
	}

	entry.Description = "Lead status changed"
	_ = createAuditLog(ctx, f.auditRepo, entry, metadata)
	statusTransitionsTotal.WithLabelValues("lead", string(target), "forward").Inc()
	return kind, nil
}

// DeleteLead removes the lead. Its quotes and conversion events survive with the reference cleared.
func (f *LeadFlowImpl) DeleteLead(ctx context.Context, id uint, metadata *ClientMetadata) error {
	var detachedQuotes, detachedEvents int64
	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if _, err := f.loadLead(txCtx, id); err != nil {
			return err
		}

		var err error
		if detachedQuotes, err = f.quoteRepo.DetachLead(txCtx, id); err != nil {
			return err
		}
		if detachedEvents, err = f.conversionRepo.DetachLead(txCtx, id); err != nil {
			return err
		}
		return f.leadRepo.Delete(txCtx, id)
	})
	if err != nil {
		return asBusinessError(err, "LEAD_DELETE_FAILED", "Failed to delete lead")
	}

	_ = createAuditLog(ctx, f.auditRepo, auditEntry{
		Action:      models.AuditActionLeadDeleted,
		TargetType:  models.AuditTargetLead,
		TargetID:    id,
		Description: "Lead deleted",
		Success:     true,
		Data:        map[string]any{"detached_quotes": detachedQuotes, "detached_conversions": detachedEvents},
	}, metadata)
	return nil
}

func (f *LeadFlowImpl) loadLead(ctx context.Context, id uint) (*models.Lead, error) {
	lead, err := f.leadRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("LEAD_LOOKUP_FAILED", "Failed to load lead", err)
	}
	if lead == nil {
		return nil, NewBusinessError("LEAD_NOT_FOUND", "Lead not found", ErrLeadNotFound)
	}
	return lead, nil
}

func (f *LeadFlowImpl) checkAssignee(ctx context.Context, staffID *uint) error {
	if staffID == nil {
		return nil
	}
	staff, err := f.staffRepo.ByID(ctx, *staffID)
	if err != nil {
		return NewBusinessError("STAFF_LOOKUP_FAILED", "Failed to load assignee", err)
	}
	if staff == nil {
		return NewBusinessError("STAFF_NOT_FOUND", "Assignee not found", ErrStaffUserNotFound)
	}
	return nil
}

func validateLeadContact(lead *models.Lead) error {
	if lead.Name == "" {
		return ErrNameRequired
	}
	if lead.Email == "" {
		return ErrEmailRequired
	}
	if err := fieldValidator.Var(lead.Email, "email"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

func validateLead(lead *models.Lead) error {
	if err := validateLeadContact(lead); err != nil {
		return err
	}
	if !lead.Source.Valid() {
		return ErrInvalidLeadSource
	}
	if lead.Budget.Valid && lead.Budget.Decimal.IsNegative() {
		return ErrNegativeBudget
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// trimmedPtr trims the pointed string and maps blanks to nil
func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
