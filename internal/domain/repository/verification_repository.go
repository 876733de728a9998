package repository

import (
	"context"
	"time"

	"github.com/jhoicas/rebate-api/internal/domain/entity"
)

// VerificationCodeRepository códigos de verificación (solo hash).
type VerificationCodeRepository interface {
	Create(ctx context.Context, c *entity.VerificationCode) error
	// GetLatestActive último código no consumido para destino y propósito, o nil.
	GetLatestActive(ctx context.Context, destination, purpose string) (*entity.VerificationCode, error)
	// IncrementAttempts suma un intento fallido de forma atómica y devuelve el total.
	IncrementAttempts(ctx context.Context, id string) (int, error)
	// Consume marca el código como usado si sigue sin consumir y con menos de maxAttempts
	// intentos. Devuelve false si otro request lo consumió o agotó antes.
	Consume(ctx context.Context, id string, at time.Time, maxAttempts int) (bool, error)
}
