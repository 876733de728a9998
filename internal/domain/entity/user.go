package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
	RoleUser    = "user"
)

// IsValidRole informa si r es uno de los roles conocidos.
func IsValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff, RoleUser:
		return true
	}
	return false
}

// User representa un usuario del sistema. Los clientes (titulares de contratos y pedidos) tienen role=user.
type User struct {
	ID                  string
	Email               string
	PasswordHash        string // bcrypt hash
	Name                string
	Phone               string
	Role                string
	IsActive            bool
	CanApproveContracts bool // capacidad de aprobador para staff
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
