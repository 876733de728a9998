// Package contracts flujo de contratos: creación (un contrato vivo por cliente),
// aprobación, firma y documento firmado.
package contracts

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/rebate-api/internal/application/audit"
	"github.com/jhoicas/rebate-api/internal/application/dto"
	"github.com/jhoicas/rebate-api/internal/application/events"
	"github.com/jhoicas/rebate-api/internal/application/ports"
	"github.com/jhoicas/rebate-api/internal/domain"
	"github.com/jhoicas/rebate-api/internal/domain/access"
	"github.com/jhoicas/rebate-api/internal/domain/contract"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
	"github.com/jhoicas/rebate-api/internal/domain/rebate"
	"github.com/jhoicas/rebate-api/internal/domain/repository"
	"github.com/jhoicas/rebate-api/pkg/sanitize"
)

// Límites de firma y documento firmado.
const (
	MaxSignatureBytes = 2 << 20
	MaxDocumentBytes  = 10 << 20
	maxNameLen        = 200
)

var pdfMagic = []byte("%PDF-")

// UseCase casos de uso de contratos.
type UseCase struct {
	repos   repository.Repos
	tx      ports.TxRunner
	storage ports.FileStorage
	events  ports.EventPublisher
	now     func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(repos repository.Repos, tx ports.TxRunner, storage ports.FileStorage, publisher ports.EventPublisher) *UseCase {
	return &UseCase{repos: repos, tx: tx, storage: storage, events: publisher, now: time.Now}
}

// List contratos visibles: todos para admin/manager/staff, solo los propios para user.
func (uc *UseCase) List(ctx context.Context, p access.Principal, in dto.ContractListRequest) (*dto.Page[dto.ContractResponse], error) {
	scope, err := access.ListScope(p, access.ContractView)
	if err != nil {
		return nil, err
	}
	in.Normalize()
	if in.Status != "" && !contract.IsValidStatus(in.Status) {
		return nil, fmt.Errorf("%w: status inválido: %s", domain.ErrInvalidInput, in.Status)
	}
	customerID := in.CustomerID
	if scope.CustomerID != "" {
		customerID = scope.CustomerID
	} else if customerID != "" && !entity.IsValidID(customerID) {
		return nil, fmt.Errorf("%w: customer_id no es un UUID", domain.ErrInvalidInput)
	}
	rows, total, err := uc.repos.Contracts.List(ctx, repository.ContractFilter{
		CustomerID: customerID,
		Status:     in.Status,
		Limit:      in.PageSize,
		Offset:     in.Offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("contracts: listar: %w", err)
	}
	out := make([]dto.ContractResponse, 0, len(rows))
	for _, c := range rows {
		out = append(out, *toResponse(c))
	}
	page := dto.NewPage(out, in.PageRequest, total)
	return &page, nil
}

// Get existencia primero (404), luego pertenencia (403).
func (uc *UseCase) Get(ctx context.Context, p access.Principal, id string) (*dto.ContractResponse, error) {
	c, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Check(p, access.ContractView, access.Resource{CustomerID: c.CustomerID}); err != nil {
		return nil, err
	}
	return toResponse(c), nil
}

// Create crea el contrato si el cliente no tiene otro vivo. El índice parcial único
// de la DB es la garantía final ante carreras.
func (uc *UseCase) Create(ctx context.Context, p access.Principal, in dto.CreateContractRequest) (*dto.ContractResponse, error) {
	if !access.Can(p, access.ContractCreate) {
		return nil, domain.ErrForbidden
	}
	customerID := strings.TrimSpace(in.CustomerID)
	if customerID == "" && p.Role == entity.RoleUser {
		customerID = p.UserID
	}
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer_id es obligatorio", domain.ErrInvalidInput)
	}
	if !entity.IsValidID(customerID) {
		return nil, fmt.Errorf("%w: customer_id no es un UUID", domain.ErrInvalidInput)
	}
	if err := access.Check(p, access.ContractCreate, access.Resource{CustomerID: customerID}); err != nil {
		return nil, err
	}
	if err := contract.ValidateDates(in.StartDate.Time, in.EndDate.Time); err != nil {
		return nil, err
	}
	if !rebate.ValidPercentage(in.RebatePercentage) {
		return nil, fmt.Errorf("%w: rebate_percentage debe estar entre 0 y 100", domain.ErrInvalidInput)
	}
	if err := validateSignature(in.CustomerSignatureDataURL, false); err != nil {
		return nil, err
	}
	customer, err := uc.repos.Users.GetByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("contracts: cliente: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("%w: cliente %s", domain.ErrNotFound, customerID)
	}

	now := uc.now()
	c := &entity.Contract{
		ID:                       uuid.New().String(),
		CustomerID:               customerID,
		ContractNumber:           contract.NewNumber(now),
		StartDate:                in.StartDate.Time,
		EndDate:                  in.EndDate.Time,
		RebatePercentage:         in.RebatePercentage,
		Status:                   contract.InitialStatus(in.CustomerSignatureDataURL),
		CustomerSignatureDataURL: in.CustomerSignatureDataURL,
		CreatedBy:                p.UserID,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	err = uc.tx.Run(ctx, func(r repository.Repos) error {
		live, err := r.Contracts.GetLiveByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		if live != nil {
			return fmt.Errorf("%w: el cliente ya tiene un contrato vigente (%s)", domain.ErrConflict, live.ContractNumber)
		}
		if err := r.Contracts.Create(ctx, c); err != nil {
			return err
		}
		return audit.Record(ctx, r.Audit, p, entity.AuditCreateContract, entity.EntityContract, c.ID, map[string]any{
			"contract_number": c.ContractNumber,
			"customer_id":     c.CustomerID,
		})
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, p, events.ContractCreated, c)
	return toResponse(c), nil
}

// Update edición parcial. El admin edita cualquier campo; un aprobador (manager o staff con
// can_approve_contracts) solo los campos de aprobación, y el estado solo desde pending_approval.
func (uc *UseCase) Update(ctx context.Context, p access.Principal, id string, in dto.UpdateContractRequest) (*dto.ContractResponse, error) {
	c, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	fields := in.PresentFields()
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no hay campos para actualizar", domain.ErrInvalidInput)
	}

	res := access.Resource{CustomerID: c.CustomerID}
	prevStatus := c.Status
	now := uc.now()

	switch {
	case access.Check(p, access.ContractEdit, res) == nil:
		if err := uc.applyAdmin(ctx, c, in); err != nil {
			return nil, err
		}
	case access.Check(p, access.ContractApprove, res) == nil:
		for _, f := range fields {
			if !contract.ApproverFields[f] {
				return nil, fmt.Errorf("%w: campo %s no editable", domain.ErrForbidden, f)
			}
		}
		if in.Status != nil {
			if err := contract.CanApproverSet(c.Status, *in.Status); err != nil {
				return nil, err
			}
			c.Status = *in.Status
		}
		if err := applyApproval(c, in); err != nil {
			return nil, err
		}
	default:
		return nil, domain.ErrForbidden
	}

	action := entity.AuditUpdateContract
	if c.Status != prevStatus && contract.IsApproval(c.Status) {
		approvedBy := p.UserID
		if in.ApprovedBy != nil && strings.TrimSpace(*in.ApprovedBy) != "" {
			approvedBy = strings.TrimSpace(*in.ApprovedBy)
		}
		c.ApprovedBy = approvedBy
		c.ApprovedDate = &now
		action = entity.AuditApproveContract
	}
	c.UpdatedAt = now

	err = uc.tx.Run(ctx, func(r repository.Repos) error {
		if c.Status != prevStatus || in.CustomerID != nil {
			if contract.IsLive(c.Status) {
				live, err := r.Contracts.GetLiveByCustomer(ctx, c.CustomerID)
				if err != nil {
					return err
				}
				if live != nil && live.ID != c.ID {
					return fmt.Errorf("%w: el cliente ya tiene un contrato vigente (%s)", domain.ErrConflict, live.ContractNumber)
				}
			}
		}
		if err := r.Contracts.Update(ctx, c); err != nil {
			return err
		}
		return audit.Record(ctx, r.Audit, p, action, entity.EntityContract, c.ID, map[string]any{
			"fields":      fields,
			"from_status": prevStatus,
			"to_status":   c.Status,
		})
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, p, events.ContractUpdated, c)
	return toResponse(c), nil
}

// applyAdmin aplica la edición completa del admin.
func (uc *UseCase) applyAdmin(ctx context.Context, c *entity.Contract, in dto.UpdateContractRequest) error {
	start, end := c.StartDate, c.EndDate
	if in.StartDate != nil {
		start = in.StartDate.Time
	}
	if in.EndDate != nil {
		end = in.EndDate.Time
	}
	if err := contract.ValidateDates(start, end); err != nil {
		return err
	}
	c.StartDate, c.EndDate = start, end

	if in.RebatePercentage != nil {
		if !rebate.ValidPercentage(*in.RebatePercentage) {
			return fmt.Errorf("%w: rebate_percentage debe estar entre 0 y 100", domain.ErrInvalidInput)
		}
		c.RebatePercentage = *in.RebatePercentage
	}
	if in.Status != nil {
		if !contract.IsValidStatus(*in.Status) {
			return fmt.Errorf("%w: status inválido: %s", domain.ErrInvalidInput, *in.Status)
		}
		c.Status = *in.Status
	}
	if in.CustomerID != nil {
		id := strings.TrimSpace(*in.CustomerID)
		if !entity.IsValidID(id) {
			return fmt.Errorf("%w: customer_id no es un UUID", domain.ErrInvalidInput)
		}
		u, err := uc.repos.Users.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("contracts: cliente: %w", err)
		}
		if u == nil {
			return fmt.Errorf("%w: cliente %s", domain.ErrNotFound, id)
		}
		c.CustomerID = id
	}
	if in.SignedContractURL != nil {
		c.SignedContractURL = strings.TrimSpace(*in.SignedContractURL)
	}
	if in.CustomerSignatureDataURL != nil {
		if err := validateSignature(*in.CustomerSignatureDataURL, false); err != nil {
			return err
		}
		c.CustomerSignatureDataURL = *in.CustomerSignatureDataURL
	}
	return applyApproval(c, in)
}

// applyApproval campos de aprobación comunes a admin y aprobadores.
func applyApproval(c *entity.Contract, in dto.UpdateContractRequest) error {
	if in.ManagerSignatureDataURL != nil {
		if err := validateSignature(*in.ManagerSignatureDataURL, false); err != nil {
			return err
		}
		c.ManagerSignatureDataURL = *in.ManagerSignatureDataURL
	}
	if in.ManagerName != nil {
		c.ManagerName = sanitize.Text(*in.ManagerName, maxNameLen)
	}
	if in.ManagerPosition != nil {
		c.ManagerPosition = sanitize.Text(*in.ManagerPosition, maxNameLen)
	}
	if in.ApprovedBy != nil {
		c.ApprovedBy = strings.TrimSpace(*in.ApprovedBy)
	}
	return nil
}

// Sign registra la firma del cliente; un contrato pending pasa a pending_approval.
func (uc *UseCase) Sign(ctx context.Context, p access.Principal, id string, in dto.SignContractRequest) (*dto.ContractResponse, error) {
	c, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Check(p, access.ContractSign, access.Resource{CustomerID: c.CustomerID}); err != nil {
		return nil, err
	}
	if err := validateSignature(in.SignatureDataURL, true); err != nil {
		return nil, err
	}
	if c.Status != entity.ContractPending && c.Status != entity.ContractPendingApproval {
		return nil, fmt.Errorf("%w: el contrato está %s", domain.ErrConflict, c.Status)
	}
	prev := c.Status
	c.CustomerSignatureDataURL = in.SignatureDataURL
	c.Status = entity.ContractPendingApproval
	c.UpdatedAt = uc.now()

	err = uc.tx.Run(ctx, func(r repository.Repos) error {
		if err := r.Contracts.Update(ctx, c); err != nil {
			return err
		}
		return audit.Record(ctx, r.Audit, p, entity.AuditSignContract, entity.EntityContract, c.ID, map[string]any{
			"from_status": prev,
		})
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, p, events.ContractSigned, c)
	return toResponse(c), nil
}

// UploadSignedDocument guarda el PDF firmado y escribe su URL en signed_contract_url.
func (uc *UseCase) UploadSignedDocument(ctx context.Context, p access.Principal, id, contentType string, size int64, content io.Reader) (*dto.ContractResponse, error) {
	c, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Check(p, access.ContractSign, access.Resource{CustomerID: c.CustomerID}); err != nil {
		return nil, err
	}
	if size <= 0 || size > MaxDocumentBytes {
		return nil, fmt.Errorf("%w: el documento debe pesar entre 1 byte y %d MiB", domain.ErrInvalidInput, MaxDocumentBytes>>20)
	}
	if ct := strings.ToLower(strings.TrimSpace(contentType)); ct != "" && !strings.HasPrefix(ct, "application/pdf") {
		return nil, fmt.Errorf("%w: solo se aceptan documentos PDF", domain.ErrInvalidInput)
	}
	br := bufio.NewReader(io.LimitReader(content, MaxDocumentBytes))
	head, err := br.Peek(len(pdfMagic))
	if err != nil || !bytes.Equal(head, pdfMagic) {
		return nil, fmt.Errorf("%w: el archivo no es un PDF", domain.ErrInvalidInput)
	}

	name := fmt.Sprintf("contracts/%s/%s.pdf", c.ID, uuid.New().String())
	url, err := uc.storage.Save(ctx, name, br)
	if err != nil {
		return nil, fmt.Errorf("contracts: guardar documento: %w", err)
	}
	c.SignedContractURL = url
	c.UpdatedAt = uc.now()

	err = uc.tx.Run(ctx, func(r repository.Repos) error {
		if err := r.Contracts.Update(ctx, c); err != nil {
			return err
		}
		return audit.Record(ctx, r.Audit, p, entity.AuditUpdateContract, entity.EntityContract, c.ID, map[string]any{
			"fields": []string{"signed_contract_url"},
		})
	})
	if err != nil {
		if derr := uc.storage.Delete(ctx, name); derr != nil {
			return nil, errors.Join(err, fmt.Errorf("contracts: borrar documento huérfano %s: %w", name, derr))
		}
		return nil, err
	}
	uc.publish(ctx, p, events.ContractUpdated, c)
	return toResponse(c), nil
}

// Delete elimina el contrato (solo admin). Los pedidos asociados conservan su historial sin contrato.
func (uc *UseCase) Delete(ctx context.Context, p access.Principal, id string) error {
	c, err := uc.load(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Check(p, access.ContractDelete, access.Resource{CustomerID: c.CustomerID}); err != nil {
		return err
	}
	err = uc.tx.Run(ctx, func(r repository.Repos) error {
		if err := r.Contracts.Delete(ctx, c.ID); err != nil {
			return err
		}
		return audit.Record(ctx, r.Audit, p, entity.AuditDeleteContract, entity.EntityContract, c.ID, map[string]any{
			"contract_number": c.ContractNumber,
			"customer_id":     c.CustomerID,
		})
	})
	if err != nil {
		return err
	}
	uc.publish(ctx, p, events.ContractDeleted, c)
	return nil
}

func (uc *UseCase) load(ctx context.Context, id string) (*entity.Contract, error) {
	if !entity.IsValidID(id) {
		return nil, domain.ErrNotFound
	}
	c, err := uc.repos.Contracts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("contracts: obtener: %w", err)
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (uc *UseCase) publish(ctx context.Context, p access.Principal, eventType string, c *entity.Contract) {
	uc.events.Publish(ctx, events.StreamContracts, events.New(eventType, p.UserID, c.ID, events.ContractPayload{
		ContractID:     c.ID,
		CustomerID:     c.CustomerID,
		ContractNumber: c.ContractNumber,
		Status:         c.Status,
	}))
}

// validateSignature exige un data URL de imagen. Vacío solo si required=false.
func validateSignature(s string, required bool) error {
	if s == "" {
		if required {
			return fmt.Errorf("%w: la firma es obligatoria", domain.ErrInvalidInput)
		}
		return nil
	}
	if !strings.HasPrefix(s, "data:image/") {
		return fmt.Errorf("%w: la firma debe ser un data URL de imagen", domain.ErrInvalidInput)
	}
	if len(s) > MaxSignatureBytes {
		return fmt.Errorf("%w: la firma excede %d MiB", domain.ErrInvalidInput, MaxSignatureBytes>>20)
	}
	return nil
}

func toResponse(c *entity.Contract) *dto.ContractResponse {
	return &dto.ContractResponse{
		ID:                       c.ID,
		CustomerID:               c.CustomerID,
		ContractNumber:           c.ContractNumber,
		StartDate:                c.StartDate,
		EndDate:                  c.EndDate,
		RebatePercentage:         c.RebatePercentage,
		Status:                   c.Status,
		SignedContractURL:        c.SignedContractURL,
		CustomerSignatureDataURL: c.CustomerSignatureDataURL,
		ManagerSignatureDataURL:  c.ManagerSignatureDataURL,
		ManagerName:              c.ManagerName,
		ManagerPosition:          c.ManagerPosition,
		ApprovedBy:               c.ApprovedBy,
		ApprovedDate:             c.ApprovedDate,
		CreatedBy:                c.CreatedBy,
		CreatedAt:                c.CreatedAt,
		UpdatedAt:                c.UpdatedAt,
	}
}
