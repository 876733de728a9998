package orders

import (
	"context"
	"time"

	"github.com/jhoicas/rebate-api/pkg/logger"
)

// Sweeper ejecuta SweepAutoLock cada interval hasta que ctx se cancela.
// Acota la latencia del auto-bloqueo para pedidos que nadie consulta.
type Sweeper struct {
	uc       *UseCase
	interval time.Duration
	log      *logger.Logger
}

// NewSweeper construye el barrido periódico.
func NewSweeper(uc *UseCase, interval time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{uc: uc, interval: interval, log: log.Named("autolock-sweeper")}
}

// Run bloquea hasta la cancelación de ctx.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	t := time.NewTicker(s.interval)
	defer t.Stop()
	s.log.Info().Dur("interval", s.interval).Msg("barrido de auto-bloqueo iniciado")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("barrido de auto-bloqueo detenido")
			return
		case <-t.C:
			n, err := s.uc.SweepAutoLock(ctx)
			if err != nil {
				s.log.Error().Err(err).Msg("barrido de auto-bloqueo fallido")
				continue
			}
			if n > 0 {
				s.log.Info().Int64("locked", n).Msg("pedidos bloqueados automáticamente")
			}
		}
	}
}
