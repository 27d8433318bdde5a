package businessflow

import (
	"context"

	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/repository"
	"github.com/amirphl/webbuilder-crm/utils"
	"gorm.io/datatypes"
)

// auditEntry describes one audit record; the actor comes from the request context
type auditEntry struct {
	Action      string
	TargetType  string
	TargetID    uint
	Description string
	Success     bool
	ErrorMsg    *string
	Data        map[string]any
}

func createAuditLog(ctx context.Context, auditRepo repository.AuditLogRepository, entry auditEntry, metadata *ClientMetadata) error {
	audit := &models.AuditLog{
		StaffUserID:  staffIDFromContext(ctx),
		Action:       entry.Action,
		Description:  &entry.Description,
		Success:      utils.ToPtr(entry.Success),
		ErrorMessage: entry.ErrorMsg,
	}
	if entry.TargetType != "" {
		audit.TargetType = utils.ToPtr(entry.TargetType)
	}
	if entry.TargetID != 0 {
		audit.TargetID = utils.ToPtr(entry.TargetID)
	}
	if len(entry.Data) > 0 {
		audit.Metadata = datatypes.JSONMap(entry.Data)
	}

	if metadata != nil {
		if metadata.IPAddress != "" {
			audit.IPAddress = utils.ToPtr(metadata.IPAddress)
		}
		if metadata.UserAgent != "" {
			audit.UserAgent = utils.ToPtr(metadata.UserAgent)
		}
	}

	// Extract request ID from context if available
	requestID := ctx.Value(utils.RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	if err := auditRepo.Save(ctx, audit); err != nil {
		return err
	}

	return nil
}
