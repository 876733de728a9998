package repository

import (
	"context"

	"github.com/jhoicas/rebate-api/internal/domain/entity"
)

// AuditFilter filtros del log de auditoría.
type AuditFilter struct {
	EntityType string
	EntityID   string
	Limit      int
	Offset     int
}

// AuditRepository log append-only.
type AuditRepository interface {
	Create(ctx context.Context, entry *entity.AuditLog) error
	List(ctx context.Context, f AuditFilter) ([]*entity.AuditLog, int, error)
}
