// Package access tabla de capacidades (rol × acción × pertenencia) consultada por todos los casos de uso.
package access

import (
	"github.com/jhoicas/rebate-api/internal/domain"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
)

// Action operación sujeta a autorización.
type Action string

const (
	OrderView         Action = "order:view"
	OrderCreate       Action = "order:create"
	OrderEdit         Action = "order:edit"
	OrderRespond      Action = "order:respond" // confirmar / disputar como cliente
	OrderLock         Action = "order:lock"
	OrderDelete       Action = "order:delete"
	ContractView      Action = "contract:view"
	ContractCreate    Action = "contract:create"
	ContractApprove   Action = "contract:approve"
	ContractEdit      Action = "contract:edit"
	ContractDelete    Action = "contract:delete"
	ContractSign      Action = "contract:sign"
	UserManage        Action = "user:manage"
	SettingsManage    Action = "settings:manage"
	AuditView         Action = "audit:view"
	RoleRequestReview Action = "role_request:review"
)

// Principal identidad autenticada, resuelta contra la DB en cada request.
type Principal struct {
	UserID              string
	Email               string
	Role                string
	CanApproveContracts bool
	IP                  string
}

// Resource datos de pertenencia del recurso evaluado.
type Resource struct {
	CustomerID string
	CreatedBy  string
	Disputed   bool
}

type grant uint8

const (
	deny grant = iota
	anyRecord
	ownRecord         // customer_id = principal
	createdOrDisputed // created_by = principal, o pedido en disputa
	approverOnly      // requiere can_approve_contracts
)

var table = map[string]map[Action]grant{
	entity.RoleAdmin: {
		OrderView: anyRecord, OrderCreate: anyRecord, OrderEdit: anyRecord, OrderLock: anyRecord, OrderDelete: anyRecord,
		ContractView: anyRecord, ContractCreate: anyRecord, ContractApprove: anyRecord, ContractEdit: anyRecord,
		ContractDelete: anyRecord, ContractSign: anyRecord,
		UserManage: anyRecord, SettingsManage: anyRecord, AuditView: anyRecord, RoleRequestReview: anyRecord,
	},
	entity.RoleManager: {
		OrderView: anyRecord, OrderCreate: anyRecord, OrderEdit: anyRecord, OrderLock: anyRecord,
		ContractView: anyRecord, ContractCreate: anyRecord, ContractApprove: anyRecord, ContractSign: anyRecord,
	},
	entity.RoleStaff: {
		OrderView: createdOrDisputed, OrderCreate: anyRecord, OrderEdit: createdOrDisputed,
		ContractView: anyRecord, ContractCreate: anyRecord, ContractApprove: approverOnly, ContractSign: anyRecord,
	},
	entity.RoleUser: {
		OrderView: ownRecord, OrderCreate: ownRecord, OrderRespond: ownRecord,
		ContractView: ownRecord, ContractCreate: ownRecord, ContractSign: ownRecord,
	},
}

func grantFor(role string, a Action) grant {
	return table[role][a]
}

// Can informa si el rol tiene la acción sobre algún registro (sin evaluar pertenencia).
func Can(p Principal, a Action) bool {
	switch grantFor(p.Role, a) {
	case deny:
		return false
	case approverOnly:
		return p.CanApproveContracts
	default:
		return true
	}
}

// Check evalúa la acción sobre un recurso concreto. Devuelve domain.ErrForbidden si no está permitida.
func Check(p Principal, a Action, r Resource) error {
	ok := false
	switch grantFor(p.Role, a) {
	case anyRecord:
		ok = true
	case ownRecord:
		ok = r.CustomerID != "" && r.CustomerID == p.UserID
	case createdOrDisputed:
		ok = (r.CreatedBy != "" && r.CreatedBy == p.UserID) || r.Disputed
	case approverOnly:
		ok = p.CanApproveContracts
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}

// Scope filtro de listado derivado de la tabla.
type Scope struct {
	// CustomerID restringe a registros del cliente.
	CustomerID string
	// StaffID restringe a registros creados por el staff o en disputa.
	StaffID string
}

// ListScope devuelve el filtro a aplicar en listados. ErrForbidden si el rol no puede listar.
func ListScope(p Principal, a Action) (Scope, error) {
	switch grantFor(p.Role, a) {
	case anyRecord:
		return Scope{}, nil
	case ownRecord:
		return Scope{CustomerID: p.UserID}, nil
	case createdOrDisputed:
		return Scope{StaffID: p.UserID}, nil
	}
	return Scope{}, domain.ErrForbidden
}

// IsPrivileged admin o manager.
func IsPrivileged(p Principal) bool {
	return p.Role == entity.RoleAdmin || p.Role == entity.RoleManager
}
