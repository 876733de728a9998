package ports

import (
	"context"
	"io"

	"github.com/jhoicas/rebate-api/internal/application/events"
	"github.com/jhoicas/rebate-api/internal/domain/repository"
)

// TxRunner ejecuta fn con repositorios atados a una misma transacción.
// Cualquier error devuelto por fn provoca rollback.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repos) error) error
}

// EventPublisher publica eventos de ciclo de vida después del commit.
// Los adaptadores no deben fallar la operación de negocio: registran el error y siguen.
type EventPublisher interface {
	Publish(ctx context.Context, stream events.Stream, env events.Envelope)
}

// FileStorage guarda un archivo y devuelve la URL pública.
type FileStorage interface {
	Save(ctx context.Context, name string, content io.Reader) (string, error)
	// Delete borra name; no falla si ya no existe.
	Delete(ctx context.Context, name string) error
}

// CodeSender entrega un código de verificación (email / SMS).
type CodeSender interface {
	SendCode(ctx context.Context, destination, purpose, code string) error
}
