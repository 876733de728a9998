package repository

import (
	"context"
	"time"

	"github.com/jhoicas/rebate-api/internal/domain/entity"
)

// OrderFilter filtros de listado. StaffID limita a pedidos creados por ese usuario o en disputa.
type OrderFilter struct {
	CustomerID string
	StaffID    string
	Status     string
	SortBy     string // order_date, created_at, total_amount, order_number
	SortDesc   bool
	Limit      int
	Offset     int
}

// OrderRepository puerto de persistencia para Order y sus líneas.
type OrderRepository interface {
	Create(ctx context.Context, o *entity.Order) error
	CreateItem(ctx context.Context, item *entity.OrderItem) error
	DeleteItems(ctx context.Context, orderID string) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	GetItems(ctx context.Context, orderID string) ([]*entity.OrderItem, error)
	// ItemsByOrderIDs agrupa las líneas por order_id (una sola consulta para listados).
	ItemsByOrderIDs(ctx context.Context, ids []string) (map[string][]*entity.OrderItem, error)
	List(ctx context.Context, f OrderFilter) ([]*entity.Order, int, error)
	Update(ctx context.Context, o *entity.Order) error
	Delete(ctx context.Context, id string) error
	CountByCustomer(ctx context.Context, customerID string) (int, error)
	// LockExpired aplica el auto-bloqueo a pedidos pendientes con order_date < cutoff.
	// orderID vacío = toda la tabla. Devuelve las filas afectadas.
	LockExpired(ctx context.Context, cutoff, now time.Time, orderID string) (int64, error)
}
