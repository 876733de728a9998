package repository

import (
	"context"

	"github.com/jhoicas/rebate-api/internal/domain/entity"
)

// ContractFilter filtros de listado; CustomerID vacío = todos.
type ContractFilter struct {
	CustomerID string
	Status     string
	Limit      int
	Offset     int
}

// ContractRepository puerto de persistencia para Contract.
type ContractRepository interface {
	// Create devuelve domain.ErrConflict si el cliente ya tiene un contrato vivo (índice parcial único).
	Create(ctx context.Context, c *entity.Contract) error
	GetByID(ctx context.Context, id string) (*entity.Contract, error)
	// GetByIDForUpdate bloquea la fila hasta el fin de la transacción.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Contract, error)
	// GetLiveByCustomer contrato no rechazado ni vencido del cliente, o nil.
	GetLiveByCustomer(ctx context.Context, customerID string) (*entity.Contract, error)
	List(ctx context.Context, f ContractFilter) ([]*entity.Contract, int, error)
	Update(ctx context.Context, c *entity.Contract) error
	Delete(ctx context.Context, id string) error
}
