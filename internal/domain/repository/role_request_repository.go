package repository

import (
	"context"

	"github.com/jhoicas/rebate-api/internal/domain/entity"
)

// RoleRequestRepository solicitudes de cambio de rol.
type RoleRequestRepository interface {
	Create(ctx context.Context, r *entity.RoleRequest) error
	GetByID(ctx context.Context, id string) (*entity.RoleRequest, error)
	// GetPendingByUser solicitud pendiente del usuario, o nil.
	GetPendingByUser(ctx context.Context, userID string) (*entity.RoleRequest, error)
	// List userID vacío = todas.
	List(ctx context.Context, userID, status string, limit, offset int) ([]*entity.RoleRequest, int, error)
	Update(ctx context.Context, r *entity.RoleRequest) error
}
