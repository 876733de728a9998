// Package settings configuración global mutable (auto_lock_days, default_rebate_percentage).
// Se resuelve una vez por operación desde caché, luego PostgreSQL, luego los valores por defecto.
package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/rebate-api/internal/application/audit"
	"github.com/jhoicas/rebate-api/internal/application/dto"
	"github.com/jhoicas/rebate-api/internal/application/ports"
	"github.com/jhoicas/rebate-api/internal/domain"
	"github.com/jhoicas/rebate-api/internal/domain/access"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
	"github.com/jhoicas/rebate-api/internal/domain/rebate"
	"github.com/jhoicas/rebate-api/internal/domain/repository"
	"github.com/jhoicas/rebate-api/pkg/logger"
)

// Cache puerto de caché para la fila de configuración. found=false si no hay entrada.
type Cache interface {
	Get(ctx context.Context) (s *entity.Settings, found bool, err error)
	Set(ctx context.Context, s *entity.Settings) error
	Invalidate(ctx context.Context) error
}

// Service lectura cacheada y edición de la configuración.
type Service struct {
	repo     repository.SettingsRepository
	tx       ports.TxRunner
	cache    Cache
	defaults entity.Settings
	log      *logger.Logger
}

// NewService construye el servicio. defaults se usa mientras no exista la fila.
func NewService(repo repository.SettingsRepository, tx ports.TxRunner, cache Cache, defaults entity.Settings, log *logger.Logger) *Service {
	return &Service{repo: repo, tx: tx, cache: cache, defaults: defaults, log: log.Named("settings")}
}

// Current configuración vigente. Los fallos de caché se registran y se lee de la DB.
func (s *Service) Current(ctx context.Context) (entity.Settings, error) {
	if cached, ok, err := s.cache.Get(ctx); err != nil {
		s.log.Warn().Err(err).Msg("lectura de caché fallida")
	} else if ok && cached != nil {
		return *cached, nil
	}

	row, err := s.repo.Get(ctx)
	if err != nil {
		return entity.Settings{}, fmt.Errorf("settings: leer: %w", err)
	}
	if row == nil {
		return s.defaults, nil
	}
	if err := s.cache.Set(ctx, row); err != nil {
		s.log.Warn().Err(err).Msg("escritura de caché fallida")
	}
	return *row, nil
}

// Get configuración vigente como DTO (cualquier usuario autenticado).
func (s *Service) Get(ctx context.Context) (*dto.SettingsResponse, error) {
	cur, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return toResponse(cur), nil
}

// Update modifica la configuración (solo admin), audita e invalida la caché.
func (s *Service) Update(ctx context.Context, p access.Principal, in dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	if !access.Can(p, access.SettingsManage) {
		return nil, domain.ErrForbidden
	}
	if in.AutoLockDays == nil && in.DefaultRebatePercentage == nil {
		return nil, fmt.Errorf("%w: no hay campos para actualizar", domain.ErrInvalidInput)
	}
	if in.AutoLockDays != nil && *in.AutoLockDays < 1 {
		return nil, fmt.Errorf("%w: auto_lock_days debe ser >= 1", domain.ErrInvalidInput)
	}
	if in.DefaultRebatePercentage != nil && !rebate.ValidPercentage(*in.DefaultRebatePercentage) {
		return nil, fmt.Errorf("%w: default_rebate_percentage debe estar entre 0 y 100", domain.ErrInvalidInput)
	}

	cur, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	next := cur
	if in.AutoLockDays != nil {
		next.AutoLockDays = *in.AutoLockDays
	}
	if in.DefaultRebatePercentage != nil {
		next.DefaultRebatePercentage = *in.DefaultRebatePercentage
	}
	next.UpdatedBy = p.UserID
	next.UpdatedAt = time.Now()

	err = s.tx.Run(ctx, func(r repository.Repos) error {
		if err := r.Settings.Upsert(ctx, &next); err != nil {
			return err
		}
		return audit.Record(ctx, r.Audit, p, entity.AuditUpdateSettings, entity.EntitySettings, "system", map[string]any{
			"auto_lock_days":            next.AutoLockDays,
			"default_rebate_percentage": next.DefaultRebatePercentage.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("invalidación de caché fallida")
	}
	return toResponse(next), nil
}

func toResponse(s entity.Settings) *dto.SettingsResponse {
	out := &dto.SettingsResponse{
		AutoLockDays:            s.AutoLockDays,
		DefaultRebatePercentage: s.DefaultRebatePercentage,
		UpdatedBy:               s.UpdatedBy,
	}
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}
