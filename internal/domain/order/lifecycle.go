// Package order reglas del ciclo de vida de un pedido: respuesta del cliente,
// bloqueo automático y validación de líneas.
package order

import (
	"fmt"
	"time"

	"github.com/jhoicas/rebate-api/internal/domain"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
	"github.com/jhoicas/rebate-api/internal/domain/rebate"
	"github.com/shopspring/decimal"
)

// Límites de validación de pedidos.
const (
	MinItems          = 1
	MaxItems          = 100
	MinQuantity       = 1
	MaxQuantity       = 10000
	MaxProductNameLen = 255
	MaxCommentLen     = 2000
)

// MaxUnitPrice precio unitario máximo aceptado.
var MaxUnitPrice = decimal.NewFromInt(20_000_000)

// MaxTotalAmount total máximo de un pedido: MaxItems líneas de MaxQuantity a MaxUnitPrice.
var MaxTotalAmount = MaxUnitPrice.Mul(decimal.NewFromInt(MaxQuantity * MaxItems))

// IsValidStatus informa si s es un customer_status válido.
func IsValidStatus(s string) bool {
	switch s {
	case entity.OrderStatusPending, entity.OrderStatusConfirmed, entity.OrderStatusDisputed:
		return true
	}
	return false
}

// responses transiciones que el cliente puede aplicar sobre su propio pedido.
var responses = map[string]map[string]bool{
	entity.OrderStatusPending:   {entity.OrderStatusConfirmed: true, entity.OrderStatusDisputed: true},
	entity.OrderStatusConfirmed: {},
	entity.OrderStatusDisputed:  {},
}

// CanRespond valida que el cliente pueda llevar o a la respuesta to.
// Un pedido bloqueado devuelve ErrOrderLocked; un estado ya respondido, ErrConflict.
func CanRespond(o *entity.Order, to string) error {
	if o.IsLocked {
		return domain.ErrOrderLocked
	}
	if !responses[o.CustomerStatus][to] {
		return fmt.Errorf("%w: el pedido ya fue respondido (%s)", domain.ErrConflict, o.CustomerStatus)
	}
	return nil
}

// CheckEditable aplica la regla de estado confirmado: un pedido confirmado solo se edita
// si la misma petición fija customer_status=confirmed.
func CheckEditable(current string, requested *string) error {
	if current != entity.OrderStatusConfirmed {
		return nil
	}
	if requested != nil && *requested == entity.OrderStatusConfirmed {
		return nil
	}
	return fmt.Errorf("%w: el pedido está confirmado", domain.ErrConflict)
}

// LockCutoff fecha límite: pedidos con order_date anterior quedan sujetos a bloqueo.
func LockCutoff(now time.Time, autoLockDays int) time.Time {
	return now.AddDate(0, 0, -autoLockDays)
}

// ShouldAutoLock reproduce en memoria el predicado del UPDATE condicional de auto-bloqueo.
func ShouldAutoLock(o *entity.Order, now time.Time, autoLockDays int) bool {
	return !o.IsLocked &&
		!o.ManuallyUnlocked &&
		o.CustomerStatus == entity.OrderStatusPending &&
		o.OrderDate.Before(LockCutoff(now, autoLockDays))
}

// ValidateItem valida una línea de pedido ya sanitizada.
func ValidateItem(name string, quantity int, unitPrice decimal.Decimal) error {
	n := len([]rune(name))
	if n == 0 || n > MaxProductNameLen {
		return fmt.Errorf("%w: product_name debe tener entre 1 y %d caracteres", domain.ErrInvalidInput, MaxProductNameLen)
	}
	if quantity < MinQuantity || quantity > MaxQuantity {
		return fmt.Errorf("%w: quantity debe estar entre %d y %d", domain.ErrInvalidInput, MinQuantity, MaxQuantity)
	}
	if unitPrice.IsNegative() || unitPrice.GreaterThan(MaxUnitPrice) {
		return fmt.Errorf("%w: unit_price debe estar entre 0 y %s", domain.ErrInvalidInput, MaxUnitPrice)
	}
	if !rebate.WithinScale(unitPrice) {
		return fmt.Errorf("%w: unit_price admite como máximo %d decimales", domain.ErrInvalidInput, rebate.Scale)
	}
	return nil
}

// ValidateTotal valida un total_amount explícito.
func ValidateTotal(total decimal.Decimal) error {
	if total.IsNegative() || total.GreaterThan(MaxTotalAmount) {
		return fmt.Errorf("%w: total_amount debe estar entre 0 y %s", domain.ErrInvalidInput, MaxTotalAmount)
	}
	if !rebate.WithinScale(total) {
		return fmt.Errorf("%w: total_amount admite como máximo %d decimales", domain.ErrInvalidInput, rebate.Scale)
	}
	return nil
}

// ValidateItemCount valida la cantidad de líneas.
func ValidateItemCount(n int) error {
	if n < MinItems || n > MaxItems {
		return fmt.Errorf("%w: items debe tener entre %d y %d elementos", domain.ErrInvalidInput, MinItems, MaxItems)
	}
	return nil
}

// NewNumber genera un número de pedido basado en tiempo.
func NewNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d", now.UnixNano())
}
