package entity

import "github.com/shopspring/decimal"

// OrderItem línea de un pedido. TotalPrice = Quantity × UnitPrice.
type OrderItem struct {
	ID          string
	OrderID     string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
}
