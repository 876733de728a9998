package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// SettingsResponse configuración vigente del sistema.
type SettingsResponse struct {
	AutoLockDays            int             `json:"auto_lock_days"`
	DefaultRebatePercentage decimal.Decimal `json:"default_rebate_percentage"`
	UpdatedBy               string          `json:"updated_by,omitempty"`
	UpdatedAt               *time.Time      `json:"updated_at,omitempty"`
}

// UpdateSettingsRequest edición parcial de la configuración.
type UpdateSettingsRequest struct {
	AutoLockDays            *int             `json:"auto_lock_days,omitempty"`
	DefaultRebatePercentage *decimal.Decimal `json:"default_rebate_percentage,omitempty"`
}

// AuditListRequest filtros de GET /api/audit-logs.
type AuditListRequest struct {
	PageRequest
	EntityType string `query:"entity_type"`
	EntityID   string `query:"entity_id"`
}

// AuditLogResponse entrada del log de auditoría.
type AuditLogResponse struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Details    json.RawMessage `json:"details,omitempty"`
	IPAddress  string          `json:"ip_address"`
	CreatedAt  time.Time       `json:"created_at"`
}

// SendCodeRequest entrada de POST /api/verification/send.
type SendCodeRequest struct {
	Destination string `json:"destination"`
	Purpose     string `json:"purpose"`
}

// VerifyCodeRequest entrada de POST /api/verification/verify.
type VerifyCodeRequest struct {
	Destination string `json:"destination"`
	Code        string `json:"code"`
	Purpose     string `json:"purpose"`
}

// VerificationResponse resultado de envío/verificación.
type VerificationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
