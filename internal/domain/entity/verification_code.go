package entity

import "time"

// Propósitos aceptados para códigos de verificación.
const (
	PurposeRegister      = "register"
	PurposeResetPassword = "reset_password"
	PurposePhoneChange   = "phone_change"
)

// VerificationCode código de un solo uso; solo se guarda su hash.
type VerificationCode struct {
	ID          string
	Destination string
	Purpose     string
	CodeHash    string
	ExpiresAt   time.Time
	Attempts    int
	ConsumedAt  *time.Time
	CreatedAt   time.Time
}
