package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemRequest línea de pedido en creación/edición.
type OrderItemRequest struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateOrderRequest entrada de POST /api/orders.
type CreateOrderRequest struct {
	CustomerID       string             `json:"customer_id"`
	ContractID       *string            `json:"contract_id,omitempty"`
	OrderDate        *Date              `json:"order_date,omitempty"`
	Items            []OrderItemRequest `json:"items"`
	TotalAmount      *decimal.Decimal   `json:"total_amount,omitempty"`
	RebatePercentage *decimal.Decimal   `json:"rebate_percentage,omitempty"`
}

// UpdateOrderRequest edición parcial. Campo nil = no enviado (o null).
// Items nil no toca las líneas; Items vacío es inválido.
type UpdateOrderRequest struct {
	OrderDate       *Date              `json:"order_date,omitempty"`
	Items           []OrderItemRequest `json:"items,omitempty"`
	TotalAmount     *decimal.Decimal   `json:"total_amount,omitempty"`
	ContractID      *string            `json:"contract_id,omitempty"`
	CustomerStatus  *string            `json:"customer_status,omitempty"`
	CustomerComment *string            `json:"customer_comment,omitempty"`
}

// HasFieldEdits informa si la petición toca campos distintos de status/comentario.
func (r UpdateOrderRequest) HasFieldEdits() bool {
	return r.OrderDate != nil || r.Items != nil || r.TotalAmount != nil || r.ContractID != nil
}

// RespondRequest cuerpo de confirm/dispute.
type RespondRequest struct {
	Comment string `json:"comment"`
}

// OrderListRequest filtros de GET /api/orders.
type OrderListRequest struct {
	PageRequest
	SortBy     string `query:"sortBy"`
	SortOrder  string `query:"sortOrder"`
	Status     string `query:"status"`
	CustomerID string `query:"customer_id"`
}

// OrderItemResponse salida de una línea.
type OrderItemResponse struct {
	ID          string          `json:"id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// OrderResponse pedido con sus líneas.
type OrderResponse struct {
	ID                    string              `json:"id"`
	CustomerID            string              `json:"customer_id"`
	ContractID            *string             `json:"contract_id"`
	CreatedBy             *string             `json:"created_by"`
	OrderNumber           string              `json:"order_number"`
	OrderDate             time.Time           `json:"order_date"`
	TotalAmount           decimal.Decimal     `json:"total_amount"`
	RebatePercentage      decimal.Decimal     `json:"rebate_percentage"`
	RebateAmount          decimal.Decimal     `json:"rebate_amount"`
	CustomerStatus        string              `json:"customer_status"`
	CustomerComment       string              `json:"customer_comment"`
	CustomerConfirmedDate *time.Time          `json:"customer_confirmed_date"`
	IsLocked              bool                `json:"is_locked"`
	LockedDate            *time.Time          `json:"locked_date"`
	ManuallyUnlocked      bool                `json:"manually_unlocked"`
	Items                 []OrderItemResponse `json:"items"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}
