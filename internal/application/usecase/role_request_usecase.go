package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/rebate-api/internal/application/audit"
	"github.com/jhoicas/rebate-api/internal/application/dto"
	"github.com/jhoicas/rebate-api/internal/application/ports"
	"github.com/jhoicas/rebate-api/internal/domain"
	"github.com/jhoicas/rebate-api/internal/domain/access"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
	"github.com/jhoicas/rebate-api/internal/domain/repository"
	"github.com/jhoicas/rebate-api/pkg/sanitize"
)

const maxReasonLen = 1000

// requestableRoles roles que se pueden solicitar.
var requestableRoles = map[string]bool{
	entity.RoleStaff:   true,
	entity.RoleManager: true,
}

// RoleRequestUseCase solicitudes de elevación de rol.
type RoleRequestUseCase struct {
	repo repository.RoleRequestRepository
	tx   ports.TxRunner
}

// NewRoleRequestUseCase construye el caso de uso.
func NewRoleRequestUseCase(repo repository.RoleRequestRepository, tx ports.TxRunner) *RoleRequestUseCase {
	return &RoleRequestUseCase{repo: repo, tx: tx}
}

// Create registra una solicitud pendiente. Solo una pendiente por usuario.
func (uc *RoleRequestUseCase) Create(ctx context.Context, p access.Principal, in dto.CreateRoleRequest) (*dto.RoleRequestResponse, error) {
	if !requestableRoles[in.RequestedRole] {
		return nil, fmt.Errorf("%w: requested_role debe ser staff o manager", domain.ErrInvalidInput)
	}
	if in.RequestedRole == p.Role {
		return nil, fmt.Errorf("%w: ya tiene el rol %s", domain.ErrConflict, p.Role)
	}
	pending, err := uc.repo.GetPendingByUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, fmt.Errorf("%w: ya existe una solicitud pendiente", domain.ErrDuplicate)
	}
	rr := &entity.RoleRequest{
		ID:            uuid.New().String(),
		UserID:        p.UserID,
		RequestedRole: in.RequestedRole,
		Reason:        sanitize.Text(in.Reason, maxReasonLen),
		Status:        entity.RoleRequestPending,
		CreatedAt:     time.Now(),
	}
	if err := uc.repo.Create(ctx, rr); err != nil {
		return nil, err
	}
	return toRoleRequestResponse(rr), nil
}

// List el admin ve todas (filtrables por status); el resto solo las propias.
func (uc *RoleRequestUseCase) List(ctx context.Context, p access.Principal, status string, page dto.PageRequest) (*dto.Page[dto.RoleRequestResponse], error) {
	page.Normalize()
	userID := p.UserID
	if access.Can(p, access.RoleRequestReview) {
		userID = ""
	}
	rows, total, err := uc.repo.List(ctx, userID, status, page.PageSize, page.Offset())
	if err != nil {
		return nil, err
	}
	out := make([]dto.RoleRequestResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, *toRoleRequestResponse(r))
	}
	res := dto.NewPage(out, page, total)
	return &res, nil
}

// Review aprueba o rechaza. La aprobación actualiza el rol del usuario en la misma transacción.
func (uc *RoleRequestUseCase) Review(ctx context.Context, p access.Principal, id string, in dto.ReviewRoleRequest) (*dto.RoleRequestResponse, error) {
	if !access.Can(p, access.RoleRequestReview) {
		return nil, domain.ErrForbidden
	}
	if in.Status != entity.RoleRequestApproved && in.Status != entity.RoleRequestRejected {
		return nil, fmt.Errorf("%w: status debe ser approved o rejected", domain.ErrInvalidInput)
	}
	if !entity.IsValidID(id) {
		return nil, domain.ErrNotFound
	}
	var out *entity.RoleRequest
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		rr, err := r.RoleRequests.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if rr == nil {
			return domain.ErrNotFound
		}
		if rr.Status != entity.RoleRequestPending {
			return fmt.Errorf("%w: la solicitud ya fue revisada", domain.ErrConflict)
		}
		now := time.Now()
		rr.Status = in.Status
		rr.ReviewedBy = p.UserID
		rr.ReviewedAt = &now
		if err := r.RoleRequests.Update(ctx, rr); err != nil {
			return err
		}
		if in.Status == entity.RoleRequestApproved {
			user, err := r.Users.GetByID(ctx, rr.UserID)
			if err != nil {
				return err
			}
			if user == nil {
				return domain.ErrUserNotFound
			}
			user.Role = rr.RequestedRole
			user.UpdatedAt = now
			if err := r.Users.Update(ctx, user); err != nil {
				return err
			}
		}
		out = rr
		return audit.Record(ctx, r.Audit, p, entity.AuditReviewRoleRequest, entity.EntityRoleRequest, rr.ID, map[string]any{
			"user_id":        rr.UserID,
			"requested_role": rr.RequestedRole,
			"status":         rr.Status,
		})
	})
	if err != nil {
		return nil, err
	}
	return toRoleRequestResponse(out), nil
}

func toRoleRequestResponse(r *entity.RoleRequest) *dto.RoleRequestResponse {
	return &dto.RoleRequestResponse{
		ID:            r.ID,
		UserID:        r.UserID,
		RequestedRole: r.RequestedRole,
		Reason:        r.Reason,
		Status:        r.Status,
		ReviewedBy:    r.ReviewedBy,
		ReviewedAt:    r.ReviewedAt,
		CreatedAt:     r.CreatedAt,
	}
}
