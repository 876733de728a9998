package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/rebate-api/internal/domain"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
	"github.com/jhoicas/rebate-api/internal/domain/repository"
)

var _ repository.VerificationCodeRepository = (*VerificationRepo)(nil)

// VerificationRepo códigos de verificación.
type VerificationRepo struct {
	q Querier
}

// NewVerificationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewVerificationRepository(q Querier) *VerificationRepo {
	return &VerificationRepo{q: q}
}

// Create inserta un código (solo hash).
func (r *VerificationRepo) Create(ctx context.Context, c *entity.VerificationCode) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO verification_codes (id, destination, purpose, code_hash, expires_at, attempts, consumed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Destination, c.Purpose, c.CodeHash, c.ExpiresAt, c.Attempts, c.ConsumedAt, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification code: %w", err)
	}
	return nil
}

// GetLatestActive último código sin consumir.
func (r *VerificationRepo) GetLatestActive(ctx context.Context, destination, purpose string) (*entity.VerificationCode, error) {
	var c entity.VerificationCode
	err := r.q.QueryRow(ctx, `
		SELECT id, destination, purpose, code_hash, expires_at, attempts, consumed_at, created_at
		FROM verification_codes
		WHERE destination = $1 AND purpose = $2 AND consumed_at IS NULL
		ORDER BY created_at DESC LIMIT 1`, destination, purpose,
	).Scan(&c.ID, &c.Destination, &c.Purpose, &c.CodeHash, &c.ExpiresAt, &c.Attempts, &c.ConsumedAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get verification code: %w", err)
	}
	return &c, nil
}

// IncrementAttempts suma el intento en la misma sentencia para no perder fallos concurrentes.
func (r *VerificationRepo) IncrementAttempts(ctx context.Context, id string) (int, error) {
	var attempts int
	err := r.q.QueryRow(ctx, `
		UPDATE verification_codes SET attempts = attempts + 1
		WHERE id = $1
		RETURNING attempts`, id,
	).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("increment verification attempts: %w", err)
	}
	return attempts, nil
}

// Consume UPDATE condicional: solo una petición puede consumir el código.
func (r *VerificationRepo) Consume(ctx context.Context, id string, at time.Time, maxAttempts int) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE verification_codes SET consumed_at = $2
		WHERE id = $1 AND consumed_at IS NULL AND attempts < $3`,
		id, at, maxAttempts)
	if err != nil {
		return false, fmt.Errorf("consume verification code: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
