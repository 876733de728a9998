package contracts_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/rebate-api/internal/application/contracts"
	"github.com/jhoicas/rebate-api/internal/application/dto"
	"github.com/jhoicas/rebate-api/internal/domain"
	"github.com/jhoicas/rebate-api/internal/domain/access"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
	"github.com/jhoicas/rebate-api/internal/domain/repository"
	"github.com/jhoicas/rebate-api/internal/testutil/memstore"
)

var (
	admin    = access.Principal{UserID: "00000000-0000-0000-0000-0000000000a1", Role: entity.RoleAdmin}
	manager  = access.Principal{UserID: "00000000-0000-0000-0000-0000000000b1", Role: entity.RoleManager}
	staff    = access.Principal{UserID: "00000000-0000-0000-0000-0000000000c1", Role: entity.RoleStaff}
	approver = access.Principal{UserID: "00000000-0000-0000-0000-0000000000c2", Role: entity.RoleStaff, CanApproveContracts: true}
	customer = access.Principal{UserID: "00000000-0000-0000-0000-0000000000d1", Role: entity.RoleUser}
	other    = access.Principal{UserID: "00000000-0000-0000-0000-0000000000d2", Role: entity.RoleUser}

	start = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
)

const (
	signature = "data:image/png;base64,iVBORw0KGgo="

	c1    = "00000000-0000-0000-0000-0000000000e1"
	c2    = "00000000-0000-0000-0000-0000000000e2"
	oldID = "00000000-0000-0000-0000-0000000000e3"
)

func strPtr(s string) *string { return &s }

func newUseCase(t *testing.T) (*contracts.UseCase, *memstore.Store, *memstore.Storage) {
	t.Helper()
	st := memstore.New()
	st.PutUser(entity.User{ID: customer.UserID, Email: "c1@x.co", Role: entity.RoleUser, IsActive: true})
	st.PutUser(entity.User{ID: other.UserID, Email: "c2@x.co", Role: entity.RoleUser, IsActive: true})
	storage := &memstore.Storage{}
	return contracts.NewUseCase(st.Repos(), st, storage, &memstore.Publisher{}), st, storage
}

func createReq(customerID string) dto.CreateContractRequest {
	return dto.CreateContractRequest{
		CustomerID:       customerID,
		StartDate:        dto.Date{Time: start},
		EndDate:          dto.Date{Time: end},
		RebatePercentage: decimal.NewFromInt(7),
	}
}

func seedPendingApproval(st *memstore.Store, id string) {
	st.PutContract(entity.Contract{
		ID: id, CustomerID: customer.UserID, ContractNumber: "CTR-" + id[len(id)-4:],
		StartDate: start, EndDate: end, RebatePercentage: decimal.NewFromInt(5),
		Status: entity.ContractPendingApproval,
	})
}

func TestCreate_UnContratoVivoPorCliente(t *testing.T) {
	uc, st, _ := newUseCase(t)
	res, err := uc.Create(context.Background(), customer, createReq(""))
	require.NoError(t, err)
	assert.Equal(t, customer.UserID, res.CustomerID)
	assert.Equal(t, entity.ContractPending, res.Status)
	assert.True(t, strings.HasPrefix(res.ContractNumber, "CTR-"))

	_, err = uc.Create(context.Background(), staff, createReq(customer.UserID))
	assert.ErrorIs(t, err, domain.ErrConflict)

	assert.Equal(t, []string{entity.AuditCreateContract}, st.AuditActions())
}

func TestCreate_ConRechazadoPrevioSePermite(t *testing.T) {
	uc, st, _ := newUseCase(t)
	st.PutContract(entity.Contract{ID: oldID, CustomerID: customer.UserID, Status: entity.ContractRejected})
	_, err := uc.Create(context.Background(), customer, createReq(""))
	require.NoError(t, err)
}

func TestCreate_FirmaInicialPasaAPendienteDeAprobacion(t *testing.T) {
	uc, _, _ := newUseCase(t)
	req := createReq("")
	req.CustomerSignatureDataURL = signature
	res, err := uc.Create(context.Background(), customer, req)
	require.NoError(t, err)
	assert.Equal(t, entity.ContractPendingApproval, res.Status)
}

func TestCreate_Validaciones(t *testing.T) {
	uc, _, _ := newUseCase(t)

	req := createReq("")
	req.EndDate = dto.Date{Time: start}
	_, err := uc.Create(context.Background(), customer, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	req = createReq("")
	req.RebatePercentage = decimal.NewFromInt(150)
	_, err = uc.Create(context.Background(), customer, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(context.Background(), customer, createReq(other.UserID))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	req = createReq("")
	req.RebatePercentage = decimal.RequireFromString("7.125")
	_, err = uc.Create(context.Background(), customer, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "más de 2 decimales")

	_, err = uc.Create(context.Background(), admin, createReq("cust-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.List(context.Background(), admin, dto.ContractListRequest{CustomerID: "cust-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGet_PertenenciaDespuesDeExistencia(t *testing.T) {
	uc, st, _ := newUseCase(t)
	seedPendingApproval(st, c1)

	_, err := uc.Get(context.Background(), other, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.Get(context.Background(), other, "00000000-0000-0000-0000-00000000dead")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.Get(context.Background(), other, c1)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = uc.Get(context.Background(), customer, c1)
	require.NoError(t, err)
	_, err = uc.Get(context.Background(), staff, c1)
	require.NoError(t, err)
}

func TestList_UsuarioSoloLosPropios(t *testing.T) {
	uc, st, _ := newUseCase(t)
	seedPendingApproval(st, c1)
	st.PutContract(entity.Contract{ID: c2, CustomerID: other.UserID, Status: entity.ContractActive})

	page, err := uc.List(context.Background(), customer, dto.ContractListRequest{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, c1, page.Data[0].ID)

	page, err = uc.List(context.Background(), manager, dto.ContractListRequest{})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
}

func TestUpdate_ManagerNoPuedeCambiarFechas(t *testing.T) {
	for _, status := range []string{entity.ContractPending, entity.ContractPendingApproval, entity.ContractActive} {
		t.Run(status, func(t *testing.T) {
			uc, st, _ := newUseCase(t)
			st.PutContract(entity.Contract{ID: c1, CustomerID: customer.UserID, Status: status, StartDate: start, EndDate: end})
			newStart := dto.Date{Time: start.AddDate(0, 1, 0)}
			_, err := uc.Update(context.Background(), manager, c1, dto.UpdateContractRequest{StartDate: &newStart})
			assert.ErrorIs(t, err, domain.ErrForbidden)
		})
	}
}

func TestUpdate_ManagerConCampoNuloNoSeRechaza(t *testing.T) {
	uc, st, _ := newUseCase(t)
	seedPendingApproval(st, c1)

	// {"status":"approved","start_date":null}: start_date nulo no cuenta como campo presente.
	var req dto.UpdateContractRequest
	require.NoError(t, json.Unmarshal([]byte(`{"status":"approved","start_date":null,"manager_name":"Ana"}`), &req))
	require.Nil(t, req.StartDate)

	res, err := uc.Update(context.Background(), manager, c1, req)
	require.NoError(t, err)
	assert.Equal(t, entity.ContractApproved, res.Status)
	assert.Equal(t, "Ana", res.ManagerName)
	assert.Equal(t, manager.UserID, res.ApprovedBy)
	assert.NotNil(t, res.ApprovedDate)
	assert.Contains(t, st.AuditActions(), entity.AuditApproveContract)
}

func TestUpdate_AprobacionSoloDesdePendienteDeAprobacion(t *testing.T) {
	uc, st, _ := newUseCase(t)
	st.PutContract(entity.Contract{ID: c1, CustomerID: customer.UserID, Status: entity.ContractPending, StartDate: start, EndDate: end})

	_, err := uc.Update(context.Background(), manager, c1, dto.UpdateContractRequest{Status: strPtr(entity.ContractApproved)})
	assert.ErrorIs(t, err, domain.ErrConflict)

	seedPendingApproval(st, c2)
	_, err = uc.Update(context.Background(), manager, c2, dto.UpdateContractRequest{Status: strPtr(entity.ContractExpired)})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdate_StaffAprobador(t *testing.T) {
	uc, st, _ := newUseCase(t)
	seedPendingApproval(st, c1)

	_, err := uc.Update(context.Background(), staff, c1, dto.UpdateContractRequest{Status: strPtr(entity.ContractRejected)})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	res, err := uc.Update(context.Background(), approver, c1, dto.UpdateContractRequest{Status: strPtr(entity.ContractRejected)})
	require.NoError(t, err)
	assert.Equal(t, entity.ContractRejected, res.Status)
	assert.Empty(t, res.ApprovedBy, "el rechazo no registra aprobación")
}

func TestUpdate_AdminEditaTodo(t *testing.T) {
	uc, st, _ := newUseCase(t)
	seedPendingApproval(st, c1)
	pct := decimal.NewFromInt(9)
	newEnd := dto.Date{Time: end.AddDate(1, 0, 0)}
	res, err := uc.Update(context.Background(), admin, c1, dto.UpdateContractRequest{
		RebatePercentage: &pct,
		EndDate:          &newEnd,
		Status:           strPtr(entity.ContractExpired),
	})
	require.NoError(t, err)
	assert.True(t, pct.Equal(res.RebatePercentage))
	assert.Equal(t, entity.ContractExpired, res.Status)

	badEnd := dto.Date{Time: start.AddDate(0, 0, -1)}
	_, err = uc.Update(context.Background(), admin, c1, dto.UpdateContractRequest{EndDate: &badEnd})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdate_ClienteNoEdita(t *testing.T) {
	uc, st, _ := newUseCase(t)
	seedPendingApproval(st, c1)
	_, err := uc.Update(context.Background(), customer, c1, dto.UpdateContractRequest{ManagerName: strPtr("yo")})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSign(t *testing.T) {
	uc, st, _ := newUseCase(t)
	st.PutContract(entity.Contract{ID: c1, CustomerID: customer.UserID, Status: entity.ContractPending})

	_, err := uc.Sign(context.Background(), other, c1, dto.SignContractRequest{SignatureDataURL: signature})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.Sign(context.Background(), customer, c1, dto.SignContractRequest{SignatureDataURL: "javascript:alert(1)"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	res, err := uc.Sign(context.Background(), customer, c1, dto.SignContractRequest{SignatureDataURL: signature})
	require.NoError(t, err)
	assert.Equal(t, entity.ContractPendingApproval, res.Status)
	assert.Equal(t, signature, res.CustomerSignatureDataURL)
}

func TestUploadSignedDocument(t *testing.T) {
	uc, st, storage := newUseCase(t)
	seedPendingApproval(st, c1)

	doc := []byte("%PDF-1.7\n...contenido...")
	res, err := uc.UploadSignedDocument(context.Background(), customer, c1, "application/pdf", int64(len(doc)), bytes.NewReader(doc))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.SignedContractURL, "/uploads/contracts/"+c1+"/"))
	require.Len(t, storage.Files, 1)
	for _, content := range storage.Files {
		assert.Equal(t, doc, content)
	}

	png := []byte("\x89PNG\r\n")
	_, err = uc.UploadSignedDocument(context.Background(), customer, c1, "application/pdf", int64(len(png)), bytes.NewReader(png))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.UploadSignedDocument(context.Background(), customer, c1, "image/png", int64(len(doc)), bytes.NewReader(doc))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.UploadSignedDocument(context.Background(), customer, c1, "application/pdf", contracts.MaxDocumentBytes+1, bytes.NewReader(doc))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

type failingTx struct{ err error }

func (f failingTx) Run(context.Context, func(repository.Repos) error) error { return f.err }

func TestUploadSignedDocument_FalloDeTxBorraElArchivo(t *testing.T) {
	st := memstore.New()
	st.PutUser(entity.User{ID: customer.UserID, Email: "c1@x.co", Role: entity.RoleUser, IsActive: true})
	seedPendingApproval(st, c1)
	storage := &memstore.Storage{}
	boom := errors.New("tx falló")
	uc := contracts.NewUseCase(st.Repos(), failingTx{err: boom}, storage, &memstore.Publisher{})

	doc := []byte("%PDF-1.7\n...")
	_, err := uc.UploadSignedDocument(context.Background(), customer, c1, "application/pdf", int64(len(doc)), bytes.NewReader(doc))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, storage.Files, "sin documento huérfano")

	got, _ := st.Contract(c1)
	assert.Empty(t, got.SignedContractURL)
}

func TestDelete_SoloAdmin(t *testing.T) {
	uc, st, _ := newUseCase(t)
	seedPendingApproval(st, c1)
	assert.ErrorIs(t, uc.Delete(context.Background(), manager, c1), domain.ErrForbidden)
	require.NoError(t, uc.Delete(context.Background(), admin, c1))
	_, ok := st.Contract(c1)
	assert.False(t, ok)
	assert.ErrorIs(t, uc.Delete(context.Background(), admin, "abc"), domain.ErrNotFound)
}
