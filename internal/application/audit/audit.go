// Package audit registro y consulta del log de auditoría.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/rebate-api/internal/application/dto"
	"github.com/jhoicas/rebate-api/internal/domain/access"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
	"github.com/jhoicas/rebate-api/internal/domain/repository"
)

// Record agrega una entrada al log usando el repo de la transacción en curso.
func Record(ctx context.Context, repo repository.AuditRepository, p access.Principal, action, entityType, entityID string, details any) error {
	var raw json.RawMessage
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("audit: serializar detalles: %w", err)
		}
		raw = b
	}
	entry := &entity.AuditLog{
		ID:         uuid.New().String(),
		UserID:     p.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    raw,
		IPAddress:  p.IP,
		CreatedAt:  time.Now(),
	}
	if err := repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("audit: %s: %w", action, err)
	}
	return nil
}

// UseCase consulta del log (solo admin).
type UseCase struct {
	repo repository.AuditRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(repo repository.AuditRepository) *UseCase {
	return &UseCase{repo: repo}
}

// List devuelve el log paginado, más reciente primero.
func (uc *UseCase) List(ctx context.Context, p access.Principal, in dto.AuditListRequest) (*dto.Page[dto.AuditLogResponse], error) {
	if _, err := access.ListScope(p, access.AuditView); err != nil {
		return nil, err
	}
	in.Normalize()
	rows, total, err := uc.repo.List(ctx, repository.AuditFilter{
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		Limit:      in.PageSize,
		Offset:     in.Offset(),
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.AuditLogResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.AuditLogResponse{
			ID:         r.ID,
			UserID:     r.UserID,
			Action:     r.Action,
			EntityType: r.EntityType,
			EntityID:   r.EntityID,
			Details:    r.Details,
			IPAddress:  r.IPAddress,
			CreatedAt:  r.CreatedAt,
		})
	}
	page := dto.NewPage(out, in.PageRequest, total)
	return &page, nil
}
