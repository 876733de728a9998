package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Los casos de uso los envuelven con %w para agregar detalle; la capa HTTP los traduce con errors.Is.
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("permisos insuficientes")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrOrderLocked        = errors.New("el pedido está bloqueado")
)
