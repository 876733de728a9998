package repository

import (
	"context"

	"github.com/jhoicas/rebate-api/internal/domain/entity"
)

// SettingsRepository fila única de configuración del sistema.
type SettingsRepository interface {
	// Get devuelve (nil, nil) si la fila aún no existe.
	Get(ctx context.Context) (*entity.Settings, error)
	Upsert(ctx context.Context, s *entity.Settings) error
}
