// Package verification códigos de un solo uso para email/SMS. Solo se guarda el hash bcrypt.
package verification

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/rebate-api/internal/application/dto"
	"github.com/jhoicas/rebate-api/internal/application/ports"
	"github.com/jhoicas/rebate-api/internal/domain"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
	"github.com/jhoicas/rebate-api/internal/domain/repository"
)

const (
	CodeTTL     = 10 * time.Minute
	MaxAttempts = 5
	codeDigits  = 6
)

var purposes = map[string]bool{
	entity.PurposeRegister:      true,
	entity.PurposeResetPassword: true,
	entity.PurposePhoneChange:   true,
}

// UseCase envío y verificación de códigos.
type UseCase struct {
	repo   repository.VerificationCodeRepository
	sender ports.CodeSender
	now    func() time.Time
	gen    func() (string, error)
}

// NewUseCase construye el caso de uso.
func NewUseCase(repo repository.VerificationCodeRepository, sender ports.CodeSender) *UseCase {
	return &UseCase{repo: repo, sender: sender, now: time.Now, gen: randomCode}
}

// WithGenerator reemplaza el generador de códigos (tests).
func (uc *UseCase) WithGenerator(gen func() (string, error)) *UseCase {
	uc.gen = gen
	return uc
}

// WithClock reemplaza el reloj (tests).
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// Send genera un código, guarda su hash y lo entrega por el CodeSender.
func (uc *UseCase) Send(ctx context.Context, in dto.SendCodeRequest) (*dto.VerificationResponse, error) {
	dest, err := validate(in.Destination, in.Purpose)
	if err != nil {
		return nil, err
	}
	code, err := uc.gen()
	if err != nil {
		return nil, fmt.Errorf("verification: generar código: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	vc := &entity.VerificationCode{
		ID:          uuid.New().String(),
		Destination: dest,
		Purpose:     in.Purpose,
		CodeHash:    string(hash),
		ExpiresAt:   now.Add(CodeTTL),
		CreatedAt:   now,
	}
	if err := uc.repo.Create(ctx, vc); err != nil {
		return nil, err
	}
	if err := uc.sender.SendCode(ctx, dest, in.Purpose, code); err != nil {
		return nil, fmt.Errorf("verification: enviar código: %w", err)
	}
	return &dto.VerificationResponse{Success: true, Message: "código enviado"}, nil
}

// Verify compara el código con el último activo. Cada fallo suma un intento; tras
// MaxAttempts o vencido el código deja de aceptarse.
func (uc *UseCase) Verify(ctx context.Context, in dto.VerifyCodeRequest) (*dto.VerificationResponse, error) {
	dest, err := validate(in.Destination, in.Purpose)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Code) == "" {
		return nil, fmt.Errorf("%w: code es obligatorio", domain.ErrInvalidInput)
	}
	vc, err := uc.repo.GetLatestActive(ctx, dest, in.Purpose)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	if vc == nil || now.After(vc.ExpiresAt) || vc.Attempts >= MaxAttempts {
		return &dto.VerificationResponse{Success: false, Message: "código vencido o inexistente"}, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(vc.CodeHash), []byte(strings.TrimSpace(in.Code))) != nil {
		if _, err := uc.repo.IncrementAttempts(ctx, vc.ID); err != nil {
			return nil, err
		}
		return &dto.VerificationResponse{Success: false, Message: "código incorrecto"}, nil
	}
	ok, err := uc.repo.Consume(ctx, vc.ID, now, MaxAttempts)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &dto.VerificationResponse{Success: false, Message: "código vencido o inexistente"}, nil
	}
	return &dto.VerificationResponse{Success: true}, nil
}

func validate(destination, purpose string) (string, error) {
	dest := strings.ToLower(strings.TrimSpace(destination))
	if dest == "" {
		return "", fmt.Errorf("%w: destination es obligatorio", domain.ErrInvalidInput)
	}
	if !purposes[purpose] {
		return "", fmt.Errorf("%w: purpose inválido: %s", domain.ErrInvalidInput, purpose)
	}
	return dest, nil
}

func randomCode() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
