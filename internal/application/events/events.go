// Package events sobres versionados para eventos de ciclo de vida de pedidos y contratos.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Stream agrupa eventos por tópico.
type Stream string

const (
	StreamOrders    Stream = "orders"
	StreamContracts Stream = "contracts"
)

const (
	OrderCreated      = "OrderCreated"
	OrderUpdated      = "OrderUpdated"
	OrderDeleted      = "OrderDeleted"
	OrderLocked       = "OrderLocked"
	OrderUnlocked     = "OrderUnlocked"
	OrderConfirmed    = "OrderConfirmed"
	OrderDisputed     = "OrderDisputed"
	OrdersAutoLocked  = "OrdersAutoLocked"
	ContractCreated   = "ContractCreated"
	ContractUpdated   = "ContractUpdated"
	ContractSigned    = "ContractSigned"
	ContractActivated = "ContractActivated"
	ContractDeleted   = "ContractDeleted"
)

// Version versión actual del sobre.
const Version = 1

// Producer identificador del emisor.
const Producer = "rebate-api"

// Envelope sobre común de todos los eventos.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	ActorID       string          `json:"actor_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // id del pedido o contrato
	Payload       json.RawMessage `json:"payload"`
}

// New arma un sobre. Si payload no se puede serializar, Payload queda null.
func New(eventType, actorID, correlationID string, payload any) Envelope {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = json.RawMessage("null")
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  Version,
		OccurredAt:    time.Now().UTC(),
		Producer:      Producer,
		ActorID:       actorID,
		CorrelationID: correlationID,
		Payload:       raw,
	}
}

// OrderPayload estado de un pedido tras el cambio.
type OrderPayload struct {
	OrderID        string `json:"order_id"`
	CustomerID     string `json:"customer_id"`
	OrderNumber    string `json:"order_number,omitempty"`
	CustomerStatus string `json:"customer_status,omitempty"`
	IsLocked       bool   `json:"is_locked"`
	TotalAmount    string `json:"total_amount,omitempty"`
	RebateAmount   string `json:"rebate_amount,omitempty"`
}

// AutoLockPayload resultado de un barrido de auto-bloqueo.
type AutoLockPayload struct {
	Locked int64     `json:"locked"`
	Cutoff time.Time `json:"cutoff"`
}

// ContractPayload estado de un contrato tras el cambio.
type ContractPayload struct {
	ContractID     string `json:"contract_id"`
	CustomerID     string `json:"customer_id"`
	ContractNumber string `json:"contract_number,omitempty"`
	Status         string `json:"status"`
}
