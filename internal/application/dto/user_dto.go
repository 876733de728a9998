package dto

import "time"

// RegisterRequest entrada para registro (auth). El rol inicial siempre es user.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"omitempty,max=200"`
	Phone    string `json:"phone,omitempty"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse token JWT + usuario.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	Name                string    `json:"name"`
	Phone               string    `json:"phone"`
	Role                string    `json:"role"`
	IsActive            bool      `json:"is_active"`
	CanApproveContracts bool      `json:"can_approve_contracts"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// UpdateUserRequest edición administrativa de un usuario.
type UpdateUserRequest struct {
	Name                *string `json:"name,omitempty"`
	Phone               *string `json:"phone,omitempty"`
	Role                *string `json:"role,omitempty"`
	IsActive            *bool   `json:"is_active,omitempty"`
	CanApproveContracts *bool   `json:"can_approve_contracts,omitempty"`
}

// CreateRoleRequest solicitud de elevación de rol.
type CreateRoleRequest struct {
	RequestedRole string `json:"requested_role"`
	Reason        string `json:"reason"`
}

// ReviewRoleRequest decisión del admin: approved | rejected.
type ReviewRoleRequest struct {
	Status string `json:"status"`
}

// RoleRequestResponse salida de una solicitud de rol.
type RoleRequestResponse struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	RequestedRole string     `json:"requested_role"`
	Reason        string     `json:"reason"`
	Status        string     `json:"status"`
	ReviewedBy    string     `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
