package settings

import (
	"context"

	"github.com/jhoicas/rebate-api/internal/domain/entity"
)

// NopCache caché deshabilitada (sin REDIS_URL y en tests).
type NopCache struct{}

func (NopCache) Get(context.Context) (*entity.Settings, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, *entity.Settings) error         { return nil }
func (NopCache) Invalidate(context.Context) error                    { return nil }
