package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/rebate-api/internal/application/settings"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
)

var _ settings.Cache = (*SettingsCache)(nil)

// New abre el cliente desde una URL redis:// y verifica la conexión.
func New(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: url inválida: %w", err)
	}
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return rdb, nil
}

// SettingsCache implementa settings.Cache sobre Redis.
type SettingsCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewSettingsCache ttl <= 0 usa TTLSettings.
func NewSettingsCache(rdb redis.Cmdable, ttl time.Duration) *SettingsCache {
	if ttl <= 0 {
		ttl = TTLSettings
	}
	return &SettingsCache{rdb: rdb, ttl: ttl}
}

type cachedSettings struct {
	AutoLockDays            int             `json:"auto_lock_days"`
	DefaultRebatePercentage decimal.Decimal `json:"default_rebate_percentage"`
	UpdatedBy               string          `json:"updated_by,omitempty"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

// Get found=false si la clave no existe.
func (c *SettingsCache) Get(ctx context.Context) (*entity.Settings, bool, error) {
	raw, err := c.rdb.Get(ctx, KeySettings).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var cs cachedSettings
	if err := json.Unmarshal(raw, &cs); err != nil {
		return nil, false, fmt.Errorf("redis: entrada corrupta: %w", err)
	}
	return &entity.Settings{
		AutoLockDays:            cs.AutoLockDays,
		DefaultRebatePercentage: cs.DefaultRebatePercentage,
		UpdatedBy:               cs.UpdatedBy,
		UpdatedAt:               cs.UpdatedAt,
	}, true, nil
}

// Set guarda la fila con TTL.
func (c *SettingsCache) Set(ctx context.Context, s *entity.Settings) error {
	raw, err := json.Marshal(cachedSettings{
		AutoLockDays:            s.AutoLockDays,
		DefaultRebatePercentage: s.DefaultRebatePercentage,
		UpdatedBy:               s.UpdatedBy,
		UpdatedAt:               s.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, KeySettings, raw, c.ttl).Err()
}

// Invalidate borra la entrada tras una edición.
func (c *SettingsCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, KeySettings).Err()
}
