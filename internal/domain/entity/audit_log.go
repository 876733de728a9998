package entity

import (
	"encoding/json"
	"time"
)

// Acciones registradas en el log de auditoría.
const (
	AuditCreateOrder       = "create_order"
	AuditUpdateOrder       = "update_order"
	AuditDeleteOrder       = "delete_order"
	AuditLockOrder         = "lock_order"
	AuditUnlockOrder       = "unlock_order"
	AuditCreateContract    = "create_contract"
	AuditUpdateContract    = "update_contract"
	AuditApproveContract   = "approve_contract"
	AuditSignContract      = "sign_contract"
	AuditActivateContract  = "activate_contract"
	AuditDeleteContract    = "delete_contract"
	AuditUpdateUser        = "update_user"
	AuditDeleteUser        = "delete_user"
	AuditReviewRoleRequest = "review_role_request"
	AuditUpdateSettings    = "update_settings"
)

// Tipos de entidad auditados.
const (
	EntityOrder       = "order"
	EntityContract    = "contract"
	EntityUser        = "user"
	EntityRoleRequest = "role_request"
	EntitySettings    = "settings"
)

// AuditLog entrada append-only.
type AuditLog struct {
	ID         string
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	Details    json.RawMessage
	IPAddress  string
	CreatedAt  time.Time
}
