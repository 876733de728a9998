package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del pedido desde el punto de vista del cliente.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusDisputed  = "disputed"
)

// Order cabecera de un pedido. TotalAmount = Σ items salvo override explícito;
// RebateAmount = TotalAmount × RebatePercentage / 100.
type Order struct {
	ID                    string
	CustomerID            string
	ContractID            *string
	CreatedBy             *string // nil en pedidos de autoservicio
	OrderNumber           string
	OrderDate             time.Time
	TotalAmount           decimal.Decimal
	RebatePercentage      decimal.Decimal
	RebateAmount          decimal.Decimal
	CustomerStatus        string
	CustomerComment       string
	CustomerConfirmedDate *time.Time
	IsLocked              bool
	LockedDate            *time.Time
	ManuallyUnlocked      bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// CreatorID devuelve created_by o "" si es autoservicio.
func (o *Order) CreatorID() string {
	if o.CreatedBy == nil {
		return ""
	}
	return *o.CreatedBy
}
