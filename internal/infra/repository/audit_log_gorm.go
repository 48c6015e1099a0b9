package repository

import (
	"context"
	"time"

	"agritech/internal/domain/model"
	repo "agritech/internal/repository"

	"gorm.io/gorm"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

type auditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &auditLogGormRepository{db: db}
}

func (r *auditLogGormRepository) Create(ctx context.Context, entry model.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(&entry).Error
}

func (r *auditLogGormRepository) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	q := r.db.WithContext(ctx).Model(&model.AuditLog{})

	conds := map[string]interface{}{}
	if f.Action != "" {
		conds["action"] = f.Action
	}
	if f.ResourceType != "" {
		conds["resource_type"] = f.ResourceType
	}
	if f.ResourceID > 0 {
		conds["resource_id"] = f.ResourceID
	}
	if f.ActorUserID != nil {
		conds["actor_user_id"] = *f.ActorUserID
	}
	if len(conds) > 0 {
		q = q.Where(conds)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since)
	}
	if !f.Until.IsZero() {
		q = q.Where("created_at < ?", f.Until)
	}

	limit := f.Limit
	if limit <= 0 || limit > maxAuditLimit {
		limit = defaultAuditLimit
	}

	logs := []model.AuditLog{}
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Offset(max(f.Offset, 0)).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
