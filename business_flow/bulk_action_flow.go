package businessflow

import (
	"context"
	"fmt"

	"github.com/amirphl/webbuilder-crm/app/dto"
	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/repository"
)

// LeadBulkAction names an operation applied to a selection of leads
type LeadBulkAction string

const (
	BulkMarkContacted  LeadBulkAction = "mark_contacted"
	BulkMarkQualified  LeadBulkAction = "mark_qualified"
	BulkMarkProposal   LeadBulkAction = "mark_proposal"
	BulkMarkClosedWon  LeadBulkAction = "mark_closed_won"
	BulkMarkClosedLost LeadBulkAction = "mark_closed_lost"
	BulkUnassign       LeadBulkAction = "unassign"
)

// leadBulkUpdate applies an action to one lead and reports whether the lead changed
type leadBulkUpdate func(ctx context.Context, f *LeadFlowImpl, lead *models.Lead, metadata *ClientMetadata) (bool, error)

func setStatus(target models.LeadStatus) leadBulkUpdate {
	return func(ctx context.Context, f *LeadFlowImpl, lead *models.Lead, metadata *ClientMetadata) (bool, error) {
		kind, err := f.applyStatus(ctx, lead, target, true, "bulk action", metadata)
		return kind != LeadTransitionNone, err
	}
}

func unassign(ctx context.Context, f *LeadFlowImpl, lead *models.Lead, _ *ClientMetadata) (bool, error) {
	if lead.AssignedToID == nil {
		return false, nil
	}
	lead.AssignedToID = nil
	lead.AssignedTo = nil
	return true, f.leadRepo.Update(ctx, lead)
}

var leadBulkActions = map[LeadBulkAction]leadBulkUpdate{
	BulkMarkContacted:  setStatus(models.LeadStatusContacted),
	BulkMarkQualified:  setStatus(models.LeadStatusQualified),
	BulkMarkProposal:   setStatus(models.LeadStatusProposal),
	BulkMarkClosedWon:  setStatus(models.LeadStatusClosedWon),
	BulkMarkClosedLost: setStatus(models.LeadStatusClosedLost),
	BulkUnassign:       unassign,
}

// BulkAction applies one named action to every selected lead in a single transaction.
// Status actions are staff decisions and go through the audited override path.
// Unknown ids are reported back instead of failing the batch.
func (f *LeadFlowImpl) BulkAction(ctx context.Context, req *dto.BulkLeadActionRequest, metadata *ClientMetadata) (*dto.BulkLeadActionResponse, error) {
	if req == nil || len(req.LeadIDs) == 0 {
		return nil, NewBusinessError("LEAD_BULK_VALIDATION_FAILED", "Bulk action validation failed", ErrEmptySelection)
	}
	action := LeadBulkAction(req.Action)
	update, ok := leadBulkActions[action]
	if !ok {
		return nil, NewBusinessErrorf("LEAD_BULK_VALIDATION_FAILED", "Unknown bulk action %q", ErrInvalidBulkAction, req.Action)
	}

	ids := uniqueIDs(req.LeadIDs)
	var updated int
	var missing []uint
	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		leads, err := f.leadRepo.ByIDs(txCtx, ids)
		if err != nil {
			return err
		}

		found := make(map[uint]*models.Lead, len(leads))
		for _, l := range leads {
			found[l.ID] = l
		}
		for _, id := range ids {
			lead, ok := found[id]
			if !ok {
				missing = append(missing, id)
				continue
			}
			changed, err := update(txCtx, f, lead, metadata)
			if err != nil {
				return fmt.Errorf("lead %d: %w", id, err)
			}
			if changed {
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, asBusinessError(err, "LEAD_BULK_ACTION_FAILED", "Failed to apply bulk action")
	}

	_ = createAuditLog(ctx, f.auditRepo, auditEntry{
		Action:      models.AuditActionLeadBulkAction,
		TargetType:  models.AuditTargetLead,
		Description: fmt.Sprintf("Bulk action %s", action),
		Success:     true,
		Data:        map[string]any{"action": string(action), "lead_ids": ids, "updated": updated},
	}, metadata)

	return &dto.BulkLeadActionResponse{
		Message: fmt.Sprintf("%d lead(s) updated", updated),
		Action:  string(action),
		Updated: updated,
		Missing: missing,
	}, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
