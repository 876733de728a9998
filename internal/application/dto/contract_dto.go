package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateContractRequest entrada de POST /api/contracts.
type CreateContractRequest struct {
	CustomerID               string          `json:"customer_id"`
	StartDate                Date            `json:"start_date"`
	EndDate                  Date            `json:"end_date"`
	RebatePercentage         decimal.Decimal `json:"rebate_percentage"`
	CustomerSignatureDataURL string          `json:"customer_signature_data_url,omitempty"`
}

// UpdateContractRequest edición parcial. Campo nil = ausente o null; solo los no nulos cuentan
// para la restricción de campos del aprobador.
type UpdateContractRequest struct {
	StartDate                *Date            `json:"start_date,omitempty"`
	EndDate                  *Date            `json:"end_date,omitempty"`
	RebatePercentage         *decimal.Decimal `json:"rebate_percentage,omitempty"`
	Status                   *string          `json:"status,omitempty"`
	SignedContractURL        *string          `json:"signed_contract_url,omitempty"`
	CustomerSignatureDataURL *string          `json:"customer_signature_data_url,omitempty"`
	ManagerSignatureDataURL  *string          `json:"manager_signature_data_url,omitempty"`
	ManagerName              *string          `json:"manager_name,omitempty"`
	ManagerPosition          *string          `json:"manager_position,omitempty"`
	ApprovedBy               *string          `json:"approved_by,omitempty"`
	CustomerID               *string          `json:"customer_id,omitempty"`
}

// PresentFields nombres JSON de los campos enviados con valor no nulo.
func (r UpdateContractRequest) PresentFields() []string {
	var out []string
	add := func(ok bool, name string) {
		if ok {
			out = append(out, name)
		}
	}
	add(r.StartDate != nil, "start_date")
	add(r.EndDate != nil, "end_date")
	add(r.RebatePercentage != nil, "rebate_percentage")
	add(r.Status != nil, "status")
	add(r.SignedContractURL != nil, "signed_contract_url")
	add(r.CustomerSignatureDataURL != nil, "customer_signature_data_url")
	add(r.ManagerSignatureDataURL != nil, "manager_signature_data_url")
	add(r.ManagerName != nil, "manager_name")
	add(r.ManagerPosition != nil, "manager_position")
	add(r.ApprovedBy != nil, "approved_by")
	add(r.CustomerID != nil, "customer_id")
	return out
}

// SignContractRequest firma del cliente.
type SignContractRequest struct {
	SignatureDataURL string `json:"signature_data_url"`
}

// ContractListRequest filtros de GET /api/contracts.
type ContractListRequest struct {
	PageRequest
	Status     string `query:"status"`
	CustomerID string `query:"customer_id"`
}

// ContractResponse salida de un contrato.
type ContractResponse struct {
	ID                       string          `json:"id"`
	CustomerID               string          `json:"customer_id"`
	ContractNumber           string          `json:"contract_number"`
	StartDate                time.Time       `json:"start_date"`
	EndDate                  time.Time       `json:"end_date"`
	RebatePercentage         decimal.Decimal `json:"rebate_percentage"`
	Status                   string          `json:"status"`
	SignedContractURL        string          `json:"signed_contract_url"`
	CustomerSignatureDataURL string          `json:"customer_signature_data_url"`
	ManagerSignatureDataURL  string          `json:"manager_signature_data_url"`
	ManagerName              string          `json:"manager_name"`
	ManagerPosition          string          `json:"manager_position"`
	ApprovedBy               string          `json:"approved_by"`
	ApprovedDate             *time.Time      `json:"approved_date"`
	CreatedBy                string          `json:"created_by"`
	CreatedAt                time.Time       `json:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at"`
}
