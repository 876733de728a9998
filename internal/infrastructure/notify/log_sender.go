// Package notify entrega códigos de verificación.
package notify

import (
	"context"

	"github.com/jhoicas/rebate-api/internal/application/ports"
	"github.com/jhoicas/rebate-api/pkg/logger"
)

var _ ports.CodeSender = (*LogSender)(nil)

// LogSender escribe el código en el log. Solo para development; en producción se
// reemplaza por un proveedor de email/SMS.
type LogSender struct {
	log *logger.Logger
}

// NewLogSender construye el sender.
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log.Named("notify")}
}

// SendCode registra destino, propósito y código.
func (s *LogSender) SendCode(_ context.Context, destination, purpose, code string) error {
	s.log.Info().
		Str("destination", destination).
		Str("purpose", purpose).
		Str("code", code).
		Msg("código de verificación")
	return nil
}
