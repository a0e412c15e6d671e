package services

import (
	"context"

	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/internal/domain/ports"
	"github.com/docuflow/backend/pkg/constants"
)

// DelegationLogService serves the read side of the handoff ledger.
// Writes happen inside TaskService and EscalationService transactions.
type DelegationLogService struct {
	ledger ports.DelegationLogRepository
}

// NewDelegationLogService creates a new DelegationLogService
func NewDelegationLogService(ledger ports.DelegationLogRepository) *DelegationLogService {
	return &DelegationLogService{ledger: ledger}
}

// GetLogs returns ledger entries newest first, paginated. taskID may be
// empty to list across all tasks. Page numbering starts at 1.
func (s *DelegationLogService) GetLogs(ctx context.Context, taskID string, page, limit int) ([]*models.DelegationLogEntry, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = constants.DefaultPageLimit
	}
	if limit > constants.MaxPageLimit {
		limit = constants.MaxPageLimit
	}
	offset := (page - 1) * limit
	return s.ledger.List(ctx, taskID, offset, limit)
}
