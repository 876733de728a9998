package verification_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/rebate-api/internal/application/dto"
	"github.com/jhoicas/rebate-api/internal/application/verification"
	"github.com/jhoicas/rebate-api/internal/domain"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
	"github.com/jhoicas/rebate-api/internal/testutil/memstore"
)

func newUseCase(now *time.Time) (*verification.UseCase, *memstore.Sender) {
	st := memstore.New()
	sender := &memstore.Sender{}
	uc := verification.NewUseCase(st.Repos().Verifications, sender).
		WithGenerator(func() (string, error) { return "123456", nil }).
		WithClock(func() time.Time { return *now })
	return uc, sender
}

func TestSendYVerify(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	uc, sender := newUseCase(&now)
	ctx := context.Background()

	res, err := uc.Send(ctx, dto.SendCodeRequest{Destination: " Ana@X.co ", Purpose: entity.PurposeRegister})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "123456", sender.Codes["ana@x.co"])

	res, err = uc.Verify(ctx, dto.VerifyCodeRequest{Destination: "ana@x.co", Purpose: entity.PurposeRegister, Code: "123456"})
	require.NoError(t, err)
	assert.True(t, res.Success)

	// consumido: no se puede reutilizar
	res, err = uc.Verify(ctx, dto.VerifyCodeRequest{Destination: "ana@x.co", Purpose: entity.PurposeRegister, Code: "123456"})
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestVerify_Vencido(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	uc, _ := newUseCase(&now)
	ctx := context.Background()

	_, err := uc.Send(ctx, dto.SendCodeRequest{Destination: "3001234567", Purpose: entity.PurposePhoneChange})
	require.NoError(t, err)

	now = now.Add(verification.CodeTTL + time.Second)
	res, err := uc.Verify(ctx, dto.VerifyCodeRequest{Destination: "3001234567", Purpose: entity.PurposePhoneChange, Code: "123456"})
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestVerify_LimiteDeIntentos(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	uc, _ := newUseCase(&now)
	ctx := context.Background()

	_, err := uc.Send(ctx, dto.SendCodeRequest{Destination: "ana@x.co", Purpose: entity.PurposeResetPassword})
	require.NoError(t, err)

	for i := 0; i < verification.MaxAttempts; i++ {
		res, err := uc.Verify(ctx, dto.VerifyCodeRequest{Destination: "ana@x.co", Purpose: entity.PurposeResetPassword, Code: "000000"})
		require.NoError(t, err)
		assert.False(t, res.Success)
	}
	res, err := uc.Verify(ctx, dto.VerifyCodeRequest{Destination: "ana@x.co", Purpose: entity.PurposeResetPassword, Code: "123456"})
	require.NoError(t, err)
	assert.False(t, res.Success, "bloqueado tras agotar intentos")
}

func TestVerify_FallosConcurrentesSeCuentanTodos(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	st := memstore.New()
	uc := verification.NewUseCase(st.Repos().Verifications, &memstore.Sender{}).
		WithGenerator(func() (string, error) { return "123456", nil }).
		WithClock(func() time.Time { return now })
	ctx := context.Background()

	_, err := uc.Send(ctx, dto.SendCodeRequest{Destination: "ana@x.co", Purpose: entity.PurposeRegister})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < verification.MaxAttempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := uc.Verify(ctx, dto.VerifyCodeRequest{Destination: "ana@x.co", Purpose: entity.PurposeRegister, Code: "000000"})
			assert.NoError(t, err)
			assert.False(t, res.Success)
		}()
	}
	wg.Wait()

	vc, err := st.Repos().Verifications.GetLatestActive(ctx, "ana@x.co", entity.PurposeRegister)
	require.NoError(t, err)
	require.NotNil(t, vc)
	assert.Equal(t, verification.MaxAttempts, vc.Attempts)

	res, err := uc.Verify(ctx, dto.VerifyCodeRequest{Destination: "ana@x.co", Purpose: entity.PurposeRegister, Code: "123456"})
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestVerify_CodigoSeConsumeUnaSolaVez(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	uc, _ := newUseCase(&now)
	ctx := context.Background()

	_, err := uc.Send(ctx, dto.SendCodeRequest{Destination: "ana@x.co", Purpose: entity.PurposeResetPassword})
	require.NoError(t, err)

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := uc.Verify(ctx, dto.VerifyCodeRequest{Destination: "ana@x.co", Purpose: entity.PurposeResetPassword, Code: "123456"})
			assert.NoError(t, err)
			if res != nil && res.Success {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), ok.Load())
}

func TestValidaciones(t *testing.T) {
	now := time.Now()
	uc, _ := newUseCase(&now)
	ctx := context.Background()

	_, err := uc.Send(ctx, dto.SendCodeRequest{Destination: "ana@x.co", Purpose: "otro"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.Send(ctx, dto.SendCodeRequest{Destination: "  ", Purpose: entity.PurposeRegister})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.Verify(ctx, dto.VerifyCodeRequest{Destination: "ana@x.co", Purpose: entity.PurposeRegister})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
