package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/rebate-api/internal/domain/entity"
	"github.com/jhoicas/rebate-api/internal/domain/repository"
)

var _ repository.SettingsRepository = (*SettingsRepo)(nil)

// SettingsRepo fila única (id = 1) de system_settings.
type SettingsRepo struct {
	q Querier
}

// NewSettingsRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSettingsRepository(q Querier) *SettingsRepo {
	return &SettingsRepo{q: q}
}

// Get devuelve (nil, nil) si aún no hay fila.
func (r *SettingsRepo) Get(ctx context.Context) (*entity.Settings, error) {
	var s entity.Settings
	err := r.q.QueryRow(ctx, `
		SELECT auto_lock_days, default_rebate_percentage, COALESCE(updated_by::text, ''), updated_at
		FROM system_settings WHERE id = 1`,
	).Scan(&s.AutoLockDays, &s.DefaultRebatePercentage, &s.UpdatedBy, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &s, nil
}

// Upsert crea o reemplaza la fila.
func (r *SettingsRepo) Upsert(ctx context.Context, s *entity.Settings) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO system_settings (id, auto_lock_days, default_rebate_percentage, updated_by, updated_at)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET auto_lock_days = EXCLUDED.auto_lock_days,
		    default_rebate_percentage = EXCLUDED.default_rebate_percentage,
		    updated_by = EXCLUDED.updated_by,
		    updated_at = EXCLUDED.updated_at`,
		s.AutoLockDays, s.DefaultRebatePercentage, nullIfEmpty(s.UpdatedBy), s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
