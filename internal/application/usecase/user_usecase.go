package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/rebate-api/internal/application/audit"
	"github.com/jhoicas/rebate-api/internal/application/auth"
	"github.com/jhoicas/rebate-api/internal/application/dto"
	"github.com/jhoicas/rebate-api/internal/application/ports"
	"github.com/jhoicas/rebate-api/internal/domain"
	"github.com/jhoicas/rebate-api/internal/domain/access"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
	"github.com/jhoicas/rebate-api/internal/domain/repository"
	"github.com/jhoicas/rebate-api/pkg/sanitize"
)

// UserUseCase administración de usuarios (solo admin).
type UserUseCase struct {
	repo repository.UserRepository
	tx   ports.TxRunner
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository, tx ports.TxRunner) *UserUseCase {
	return &UserUseCase{repo: repo, tx: tx}
}

// List usuarios paginados.
func (uc *UserUseCase) List(ctx context.Context, p access.Principal, in dto.PageRequest) (*dto.Page[dto.UserResponse], error) {
	if !access.Can(p, access.UserManage) {
		return nil, domain.ErrForbidden
	}
	in.Normalize()
	users, total, err := uc.repo.List(ctx, in.PageSize, in.Offset())
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, *auth.ToUserResponse(u))
	}
	page := dto.NewPage(out, in, total)
	return &page, nil
}

// Update cambia rol, estado, capacidad de aprobador, nombre o teléfono.
// Un admin no puede quitarse a sí mismo el rol admin ni desactivarse.
func (uc *UserUseCase) Update(ctx context.Context, p access.Principal, id string, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if !access.Can(p, access.UserManage) {
		return nil, domain.ErrForbidden
	}
	if !entity.IsValidID(id) {
		return nil, domain.ErrUserNotFound
	}
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	changed := map[string]any{}
	if in.Role != nil {
		if !entity.IsValidRole(*in.Role) {
			return nil, fmt.Errorf("%w: rol inválido: %s", domain.ErrInvalidInput, *in.Role)
		}
		if user.ID == p.UserID && *in.Role != entity.RoleAdmin {
			return nil, fmt.Errorf("%w: no puede quitarse el rol admin", domain.ErrConflict)
		}
		user.Role = *in.Role
		changed["role"] = user.Role
	}
	if in.IsActive != nil {
		if user.ID == p.UserID && !*in.IsActive {
			return nil, fmt.Errorf("%w: no puede desactivarse a sí mismo", domain.ErrConflict)
		}
		user.IsActive = *in.IsActive
		changed["is_active"] = user.IsActive
	}
	if in.CanApproveContracts != nil {
		user.CanApproveContracts = *in.CanApproveContracts
		changed["can_approve_contracts"] = user.CanApproveContracts
	}
	if in.Name != nil {
		if sanitize.IsBlank(*in.Name) {
			return nil, fmt.Errorf("%w: name no puede estar vacío", domain.ErrInvalidInput)
		}
		user.Name = sanitize.Text(*in.Name, 200)
		changed["name"] = user.Name
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
		changed["phone"] = user.Phone
	}
	if len(changed) == 0 {
		return nil, fmt.Errorf("%w: no hay campos para actualizar", domain.ErrInvalidInput)
	}
	user.UpdatedAt = time.Now()

	err = uc.tx.Run(ctx, func(r repository.Repos) error {
		if err := r.Users.Update(ctx, user); err != nil {
			return err
		}
		return audit.Record(ctx, r.Audit, p, entity.AuditUpdateUser, entity.EntityUser, user.ID, changed)
	})
	if err != nil {
		return nil, err
	}
	return auth.ToUserResponse(user), nil
}

// Delete borrado definitivo (solo admin, nunca a sí mismo).
func (uc *UserUseCase) Delete(ctx context.Context, p access.Principal, id string) error {
	if !access.Can(p, access.UserManage) {
		return domain.ErrForbidden
	}
	if id == p.UserID {
		return fmt.Errorf("%w: no puede eliminarse a sí mismo", domain.ErrConflict)
	}
	if !entity.IsValidID(id) {
		return domain.ErrUserNotFound
	}
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	return uc.tx.Run(ctx, func(r repository.Repos) error {
		if err := r.Users.Delete(ctx, id); err != nil {
			return err
		}
		return audit.Record(ctx, r.Audit, p, entity.AuditDeleteUser, entity.EntityUser, id, map[string]any{
			"email": user.Email,
		})
	})
}
