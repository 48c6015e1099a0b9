package usecase

import (
	"context"
	"strings"
	"time"

	"agritech/internal/domain/model"
	repo "agritech/internal/repository"
)

type AuditUsecase struct {
	audit repo.AuditLogRepository
}

func NewAuditUsecase(audit repo.AuditLogRepository) *AuditUsecase {
	return &AuditUsecase{audit: audit}
}

type ListAuditLogsInput struct {
	Action       string
	ResourceType string
	ResourceID   int64
	ActorUserID  *int64
	Since        time.Time
	Until        time.Time
	Limit        int
	Offset       int
}

func (u *AuditUsecase) List(ctx context.Context, in ListAuditLogsInput) ([]model.AuditLog, error) {
	if in.Limit < 0 || in.Limit > 200 {
		return nil, NewValidationError("limit must be between 1 and 200")
	}
	if in.Offset < 0 {
		return nil, NewValidationError("offset must be >= 0")
	}
	if !in.Since.IsZero() && !in.Until.IsZero() && !in.Since.Before(in.Until) {
		return nil, NewValidationError("from must be before to")
	}

	logs, err := u.audit.List(ctx, repo.AuditLogFilter{
		Action:       model.AuditAction(strings.ToUpper(strings.TrimSpace(in.Action))),
		ResourceType: model.AuditResourceType(strings.ToLower(strings.TrimSpace(in.ResourceType))),
		ResourceID:   in.ResourceID,
		ActorUserID:  in.ActorUserID,
		Since:        in.Since.UTC(),
		Until:        in.Until.UTC(),
		Limit:        in.Limit,
		Offset:       in.Offset,
	})
	if err != nil {
		return nil, NewInternal(err)
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}
