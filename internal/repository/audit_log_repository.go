package repository

import (
	"context"
	"time"

	"agritech/internal/domain/model"
)

// Zero values match everything. ActorUserID is a pointer because
// model.SystemActorID is 0.
type AuditLogFilter struct {
	Action       model.AuditAction
	ResourceType model.AuditResourceType
	ResourceID   int64
	ActorUserID  *int64
	Since        time.Time
	Until        time.Time
	Limit        int
	Offset       int
}

type AuditLogRepository interface {
	Create(ctx context.Context, entry model.AuditLog) error
	// newest first
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
