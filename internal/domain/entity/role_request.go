package entity

import "time"

// Estados de una solicitud de cambio de rol.
const (
	RoleRequestPending  = "pending"
	RoleRequestApproved = "approved"
	RoleRequestRejected = "rejected"
)

// RoleRequest solicitud de elevación de rol; solo un admin la revisa.
type RoleRequest struct {
	ID            string
	UserID        string
	RequestedRole string
	Reason        string
	Status        string
	ReviewedBy    string
	ReviewedAt    *time.Time
	CreatedAt     time.Time
}
