// Package contract reglas del flujo de aprobación de contratos.
package contract

import (
	"fmt"
	"time"

	"github.com/jhoicas/rebate-api/internal/domain"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
)

// IsValidStatus informa si s es un estado de contrato conocido.
func IsValidStatus(s string) bool {
	switch s {
	case entity.ContractPending, entity.ContractPendingApproval, entity.ContractApproved,
		entity.ContractActive, entity.ContractRejected, entity.ContractExpired:
		return true
	}
	return false
}

// IsLive un contrato vivo cuenta para la regla de un contrato por cliente.
func IsLive(status string) bool {
	return status != entity.ContractRejected && status != entity.ContractExpired
}

// approvalTargets estados a los que puede mover un aprobador (manager o staff aprobador).
var approvalTargets = map[string]bool{
	entity.ContractApproved: true,
	entity.ContractActive:   true,
	entity.ContractRejected: true,
}

// ApproverFields campos que un aprobador puede enviar con valor no nulo.
var ApproverFields = map[string]bool{
	"status":                     true,
	"manager_signature_data_url": true,
	"manager_name":               true,
	"manager_position":           true,
	"approved_by":                true,
}

// CanApproverSet valida una transición hecha por un aprobador.
func CanApproverSet(from, to string) error {
	if !approvalTargets[to] {
		return fmt.Errorf("%w: estado %q no permitido para aprobación", domain.ErrForbidden, to)
	}
	if from != entity.ContractPendingApproval {
		return fmt.Errorf("%w: el contrato no está pendiente de aprobación", domain.ErrConflict)
	}
	return nil
}

// IsApproval informa si el estado destino registra aprobación (approved_by / approved_date).
func IsApproval(to string) bool {
	return to == entity.ContractApproved || to == entity.ContractActive
}

// ValidateDates exige end > start.
func ValidateDates(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start_date y end_date son obligatorios", domain.ErrInvalidInput)
	}
	if !end.After(start) {
		return fmt.Errorf("%w: end_date debe ser posterior a start_date", domain.ErrInvalidInput)
	}
	return nil
}

// InitialStatus pending, o pending_approval si ya trae firma del cliente.
func InitialStatus(customerSignature string) string {
	if customerSignature != "" {
		return entity.ContractPendingApproval
	}
	return entity.ContractPending
}

// ShouldActivateOnFirstOrder primer pedido del cliente contra un contrato pending.
func ShouldActivateOnFirstOrder(c *entity.Contract, priorOrders int) bool {
	return c != nil && priorOrders == 0 && c.Status == entity.ContractPending
}

// AcceptsOrders contratos rechazados o vencidos no admiten pedidos.
func AcceptsOrders(status string) bool {
	return IsLive(status)
}

// NewNumber genera un número de contrato basado en tiempo.
func NewNumber(now time.Time) string {
	return fmt.Sprintf("CTR-%d", now.UnixNano())
}
