package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del contrato.
const (
	ContractPending         = "pending"
	ContractPendingApproval = "pending_approval"
	ContractApproved        = "approved"
	ContractActive          = "active"
	ContractRejected        = "rejected"
	ContractExpired         = "expired"
)

// Contract contrato de rebate firmado por un cliente.
type Contract struct {
	ID                       string
	CustomerID               string
	ContractNumber           string
	StartDate                time.Time
	EndDate                  time.Time
	RebatePercentage         decimal.Decimal
	Status                   string
	SignedContractURL        string
	CustomerSignatureDataURL string
	ManagerSignatureDataURL  string
	ManagerName              string
	ManagerPosition          string
	ApprovedBy               string
	ApprovedDate             *time.Time
	CreatedBy                string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}
