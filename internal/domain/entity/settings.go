package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settings configuración global mutable del sistema (fila única).
type Settings struct {
	AutoLockDays            int
	DefaultRebatePercentage decimal.Decimal
	UpdatedBy               string
	UpdatedAt               time.Time
}
