package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/rebate-api/internal/application/audit"
	"github.com/jhoicas/rebate-api/internal/application/auth"
	"github.com/jhoicas/rebate-api/internal/application/contracts"
	"github.com/jhoicas/rebate-api/internal/application/dto"
	"github.com/jhoicas/rebate-api/internal/application/orders"
	"github.com/jhoicas/rebate-api/internal/application/settings"
	"github.com/jhoicas/rebate-api/internal/application/usecase"
	"github.com/jhoicas/rebate-api/internal/application/verification"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
	apphttp "github.com/jhoicas/rebate-api/internal/interfaces/http"
	"github.com/jhoicas/rebate-api/internal/testutil/memstore"
	"github.com/jhoicas/rebate-api/pkg/logger"
	pkgjwt "github.com/jhoicas/rebate-api/pkg/jwt"
)

const (
	adminID    = "10000000-0000-0000-0000-000000000001"
	managerID  = "10000000-0000-0000-0000-000000000002"
	staffID    = "10000000-0000-0000-0000-000000000003"
	customerID = "10000000-0000-0000-0000-000000000004"
	otherID    = "10000000-0000-0000-0000-000000000005"
	inactiveID = "10000000-0000-0000-0000-000000000006"
)

type testAPI struct {
	app    *fiber.App
	st     *memstore.Store
	sender *memstore.Sender
}

// newTestAPI arma el router completo sobre el store en memoria.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	st := memstore.New()
	for _, u := range []entity.User{
		{ID: adminID, Email: "admin@x.co", Role: entity.RoleAdmin, IsActive: true},
		{ID: managerID, Email: "manager@x.co", Role: entity.RoleManager, IsActive: true},
		{ID: staffID, Email: "staff@x.co", Role: entity.RoleStaff, IsActive: true},
		{ID: customerID, Email: "c1@x.co", Name: "Cliente Uno", Role: entity.RoleUser, IsActive: true},
		{ID: otherID, Email: "c2@x.co", Role: entity.RoleUser, IsActive: true},
		{ID: inactiveID, Email: "off@x.co", Role: entity.RoleAdmin, IsActive: false},
	} {
		st.PutUser(u)
	}

	repos := st.Repos()
	pub := &memstore.Publisher{}
	sender := &memstore.Sender{}
	cfg := settings.NewService(repos.Settings, st, settings.NopCache{}, entity.Settings{
		AutoLockDays:            3,
		DefaultRebatePercentage: decimal.NewFromInt(5),
	}, logger.Nop())

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:         auth.NewAuthUseCase(repos.Users, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: 5, Issuer: testIssuer}),
		UserUC:         usecase.NewUserUseCase(repos.Users, st),
		RoleRequestUC:  usecase.NewRoleRequestUseCase(repos.RoleRequests, st),
		VerificationUC: verification.NewUseCase(repos.Verifications, sender),
		OrderUC:        orders.NewUseCase(repos, st, cfg, pub, memstore.PDF{}, logger.Nop()),
		ContractUC:     contracts.NewUseCase(repos, st, &memstore.Storage{}, pub),
		Settings:       cfg,
		AuditUC:        audit.NewUseCase(repos.Audit),
		JWTSecret:      testJWTSecret,
	})
	return &testAPI{app: app, st: st, sender: sender}
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, userID, "", role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

// call envía JSON (body nil = sin cuerpo) y devuelve la respuesta.
func (a *testAPI) call(t *testing.T, method, path, auth string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func errCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	return decode[dto.ErrorResponse](t, resp).Code
}

func orderBody(customer string) map[string]any {
	return map[string]any{
		"customer_id": customer,
		"order_date":  time.Now().UTC().Format("2006-01-02"),
		"items": []map[string]any{
			{"product_name": "Cemento", "quantity": 3, "unit_price": "10.50"},
			{"product_name": "Arena", "quantity": 2, "unit_price": 4.25},
		},
	}
}

func seedOrder(st *memstore.Store, id, customer string, orderDate time.Time) {
	st.PutOrder(entity.Order{
		ID: id, CustomerID: customer, OrderNumber: "ORD-" + id[len(id)-6:],
		OrderDate:      orderDate,
		TotalAmount:    decimal.NewFromInt(100),
		CustomerStatus: entity.OrderStatusPending,
		CreatedAt:      orderDate, UpdatedAt: orderDate,
	}, entity.OrderItem{ID: id + "-i1", OrderID: id, ProductName: "Cemento", Quantity: 1, UnitPrice: decimal.NewFromInt(100), TotalPrice: decimal.NewFromInt(100)})
}

func TestAuthFlow_RegisterLoginMe(t *testing.T) {
	api := newTestAPI(t)

	resp := api.call(t, http.MethodPost, "/api/auth/register", "", map[string]any{"email": "Nueva@X.co", "password": "secreto123", "name": "Nueva"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	user := decode[dto.UserResponse](t, resp)
	assert.Equal(t, "nueva@x.co", user.Email)
	assert.Equal(t, entity.RoleUser, user.Role)

	resp = api.call(t, http.MethodPost, "/api/auth/register", "", map[string]any{"email": "nueva@x.co", "password": "secreto123"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, apphttp.CodeEmailExists, errCode(t, resp))

	resp = api.call(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "nueva@x.co", "password": "incorrecta"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = api.call(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "nueva@x.co", "password": "secreto123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[dto.LoginResponse](t, resp)
	require.NotEmpty(t, login.Token)

	resp = api.call(t, http.MethodGet, "/api/auth/me", "Bearer "+login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, user.ID, decode[dto.UserResponse](t, resp).ID)
}

func TestAuth_UsuarioInactivoRechazado(t *testing.T) {
	api := newTestAPI(t)
	resp := api.call(t, http.MethodGet, "/api/orders", bearer(t, inactiveID, entity.RoleAdmin), nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, apphttp.CodeUnauthorized, errCode(t, resp))
}

func TestAuth_CuerpoInvalido(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{no-json"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeInvalidBody, errCode(t, resp))
}

func TestOrders_CrearConfirmarYRechazarSegundaRespuesta(t *testing.T) {
	api := newTestAPI(t)

	resp := api.call(t, http.MethodPost, "/api/orders", bearer(t, staffID, entity.RoleStaff), orderBody(customerID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.OrderResponse](t, resp)
	assert.True(t, decimal.NewFromInt(40).Equal(created.TotalAmount))
	assert.True(t, decimal.NewFromInt(2).Equal(created.RebateAmount))
	assert.Len(t, created.Items, 2)

	path := "/api/orders/" + created.ID
	resp = api.call(t, http.MethodPost, path+"/confirm", bearer(t, customerID, entity.RoleUser), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	confirmed := decode[dto.OrderResponse](t, resp)
	assert.Equal(t, entity.OrderStatusConfirmed, confirmed.CustomerStatus)
	assert.NotNil(t, confirmed.CustomerConfirmedDate)

	resp = api.call(t, http.MethodPost, path+"/dispute", bearer(t, customerID, entity.RoleUser), map[string]any{"comment": "faltó mercancía"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeConflict, errCode(t, resp))
}

func TestOrders_DisputaSinComentario(t *testing.T) {
	api := newTestAPI(t)
	id := "20000000-0000-0000-0000-000000000001"
	seedOrder(api.st, id, customerID, time.Now())

	resp := api.call(t, http.MethodPost, "/api/orders/"+id+"/dispute", bearer(t, customerID, entity.RoleUser), map[string]any{"comment": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeValidation, errCode(t, resp))
}

func TestOrders_NotFoundAntesQueForbidden(t *testing.T) {
	api := newTestAPI(t)
	id := "20000000-0000-0000-0000-000000000002"
	seedOrder(api.st, id, customerID, time.Now())

	resp := api.call(t, http.MethodGet, "/api/orders/20000000-0000-0000-0000-00000000ffff", bearer(t, otherID, entity.RoleUser), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apphttp.CodeNotFound, errCode(t, resp))

	resp = api.call(t, http.MethodGet, "/api/orders/"+id, bearer(t, otherID, entity.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, apphttp.CodeForbidden, errCode(t, resp))
}

func TestIdsMalformados(t *testing.T) {
	api := newTestAPI(t)
	admin := bearer(t, adminID, entity.RoleAdmin)
	cust := bearer(t, customerID, entity.RoleUser)

	notFound := []struct {
		method, path, auth string
		body               any
	}{
		{http.MethodGet, "/api/orders/abc", cust, nil},
		{http.MethodPut, "/api/orders/abc", admin, map[string]any{"total_amount": "10"}},
		{http.MethodDelete, "/api/orders/abc", admin, nil},
		{http.MethodPost, "/api/orders/abc/confirm", cust, nil},
		{http.MethodPost, "/api/orders/abc/lock", admin, nil},
		{http.MethodGet, "/api/orders/abc/pdf", cust, nil},
		{http.MethodGet, "/api/contracts/abc", cust, nil},
		{http.MethodDelete, "/api/contracts/abc", admin, nil},
		{http.MethodPut, "/api/users/abc", admin, map[string]any{"name": "x"}},
		{http.MethodDelete, "/api/users/abc", admin, nil},
		{http.MethodPut, "/api/role-requests/abc", admin, map[string]any{"status": "approved"}},
	}
	for _, tc := range notFound {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			resp := api.call(t, tc.method, tc.path, tc.auth, tc.body)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			assert.Equal(t, apphttp.CodeNotFound, errCode(t, resp))
		})
	}

	resp := api.call(t, http.MethodPost, "/api/orders", admin, orderBody("abc"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeValidation, errCode(t, resp))

	body := orderBody(customerID)
	body["contract_id"] = "ctr-1"
	resp = api.call(t, http.MethodPost, "/api/orders", admin, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeValidation, errCode(t, resp))

	resp = api.call(t, http.MethodGet, "/api/orders?customer_id=abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeValidation, errCode(t, resp))

	resp = api.call(t, http.MethodPost, "/api/contracts", admin, map[string]any{
		"customer_id":       "abc",
		"start_date":        "2025-01-01",
		"end_date":          "2026-01-01",
		"rebate_percentage": "7",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeValidation, errCode(t, resp))
}

func TestOrders_MontosEnElLimite(t *testing.T) {
	api := newTestAPI(t)
	admin := bearer(t, adminID, entity.RoleAdmin)

	lines := make([]map[string]any, 5)
	for i := range lines {
		lines[i] = map[string]any{"product_name": "Maquinaria", "quantity": 10000, "unit_price": "20000000"}
	}
	resp := api.call(t, http.MethodPost, "/api/orders", admin, map[string]any{"customer_id": customerID, "items": lines})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.OrderResponse](t, resp)
	assert.True(t, decimal.RequireFromString("1000000000000").Equal(created.TotalAmount))

	resp = api.call(t, http.MethodPost, "/api/orders", admin, map[string]any{
		"customer_id": customerID,
		"items":       []map[string]any{{"product_name": "Tornillo", "quantity": 3, "unit_price": "0.005"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeValidation, errCode(t, resp))

	resp = api.call(t, http.MethodPost, "/api/orders", bearer(t, staffID, entity.RoleStaff), map[string]any{
		"customer_id":       customerID,
		"rebate_percentage": "30",
		"items":             []map[string]any{{"product_name": "Tornillo", "quantity": 3, "unit_price": "1"}},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, apphttp.CodeForbidden, errCode(t, resp))
}

func TestOrders_AutoBloqueoEnLectura(t *testing.T) {
	api := newTestAPI(t)
	id := "20000000-0000-0000-0000-000000000003"
	seedOrder(api.st, id, customerID, time.Now().AddDate(0, 0, -4))

	resp := api.call(t, http.MethodGet, "/api/orders/"+id, bearer(t, customerID, entity.RoleUser), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[dto.OrderResponse](t, resp)
	assert.True(t, got.IsLocked)
	assert.NotNil(t, got.LockedDate)

	resp = api.call(t, http.MethodPost, "/api/orders/"+id+"/confirm", bearer(t, customerID, entity.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, apphttp.CodeOrderLocked, errCode(t, resp))

	resp = api.call(t, http.MethodPost, "/api/orders/"+id+"/unlock", bearer(t, managerID, entity.RoleManager), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	unlocked := decode[dto.OrderResponse](t, resp)
	assert.False(t, unlocked.IsLocked)
	assert.True(t, unlocked.ManuallyUnlocked)

	resp = api.call(t, http.MethodPost, "/api/orders/"+id+"/unlock", bearer(t, managerID, entity.RoleManager), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "desbloquear un pedido desbloqueado no falla")
	resp.Body.Close()
}

func TestOrders_ListadoFiltradoPorRol(t *testing.T) {
	api := newTestAPI(t)
	seedOrder(api.st, "20000000-0000-0000-0000-000000000010", customerID, time.Now())
	seedOrder(api.st, "20000000-0000-0000-0000-000000000011", otherID, time.Now())

	resp := api.call(t, http.MethodGet, "/api/orders?sortBy=total_amount&sortOrder=asc", bearer(t, customerID, entity.RoleUser), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[dto.Page[dto.OrderResponse]](t, resp)
	require.Len(t, page.Data, 1)
	assert.Equal(t, customerID, page.Data[0].CustomerID)
	assert.Equal(t, 1, page.Pagination.Total)
	assert.Equal(t, dto.DefaultPageSize, page.Pagination.PageSize)

	resp = api.call(t, http.MethodGet, "/api/orders?pageSize=1", bearer(t, adminID, entity.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = decode[dto.Page[dto.OrderResponse]](t, resp)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 2, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)

	resp = api.call(t, http.MethodGet, "/api/orders?sortBy=password", bearer(t, adminID, entity.RoleAdmin), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeValidation, errCode(t, resp))
}

func TestOrders_RutasRestringidasPorRol(t *testing.T) {
	api := newTestAPI(t)
	id := "20000000-0000-0000-0000-000000000020"
	seedOrder(api.st, id, customerID, time.Now())

	resp := api.call(t, http.MethodDelete, "/api/orders/"+id, bearer(t, staffID, entity.RoleStaff), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = api.call(t, http.MethodPost, "/api/orders/"+id+"/lock", bearer(t, customerID, entity.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = api.call(t, http.MethodDelete, "/api/orders/"+id, bearer(t, adminID, entity.RoleAdmin), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, ok := api.st.Order(id)
	assert.False(t, ok)
}

func TestOrders_PDF(t *testing.T) {
	api := newTestAPI(t)
	id := "20000000-0000-0000-0000-000000000030"
	seedOrder(api.st, id, customerID, time.Now())

	resp := api.call(t, http.MethodGet, "/api/orders/"+id+"/pdf", bearer(t, customerID, entity.RoleUser), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))
}

func TestContracts_CrearYSubirDocumentoFirmado(t *testing.T) {
	api := newTestAPI(t)
	cust := bearer(t, customerID, entity.RoleUser)

	resp := api.call(t, http.MethodPost, "/api/contracts", cust, map[string]any{
		"start_date":        "2025-01-01",
		"end_date":          "2026-01-01",
		"rebate_percentage": "7",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.ContractResponse](t, resp)
	assert.Equal(t, customerID, created.CustomerID)

	resp = api.call(t, http.MethodPost, "/api/contracts", bearer(t, staffID, entity.RoleStaff), map[string]any{
		"customer_id":       customerID,
		"start_date":        "2025-01-01",
		"end_date":          "2026-01-01",
		"rebate_percentage": "7",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "un solo contrato vivo por cliente")
	assert.Equal(t, apphttp.CodeConflict, errCode(t, resp))

	upload := func(auth, contentType string, content []byte) *http.Response {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="file"; filename="firmado.pdf"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/contracts/%s/signed-document", created.ID), &buf)
		req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
		req.Header.Set("Authorization", auth)
		resp, err := api.app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp = upload(cust, "image/png", []byte("\x89PNG\r\n"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeValidation, errCode(t, resp))

	resp = upload(bearer(t, otherID, entity.RoleUser), "application/pdf", []byte("%PDF-1.4 firmado"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = upload(cust, "application/pdf", []byte("%PDF-1.4 firmado"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	signed := decode[dto.ContractResponse](t, resp)
	assert.True(t, strings.HasPrefix(signed.SignedContractURL, "/uploads/contracts/"+created.ID+"/"))
}

func TestContracts_SubidaSinArchivo(t *testing.T) {
	api := newTestAPI(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("otro", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/contracts/cualquiera/signed-document", &buf)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	req.Header.Set("Authorization", bearer(t, customerID, entity.RoleUser))
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSettings_LecturaAbiertaEdicionAdmin(t *testing.T) {
	api := newTestAPI(t)

	resp := api.call(t, http.MethodGet, "/api/settings", bearer(t, customerID, entity.RoleUser), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, decode[dto.SettingsResponse](t, resp).AutoLockDays)

	resp = api.call(t, http.MethodPut, "/api/settings", bearer(t, managerID, entity.RoleManager), map[string]any{"auto_lock_days": 5})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = api.call(t, http.MethodPut, "/api/settings", bearer(t, adminID, entity.RoleAdmin), map[string]any{"auto_lock_days": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, decode[dto.SettingsResponse](t, resp).AutoLockDays)

	resp = api.call(t, http.MethodGet, "/api/audit-logs?entity_type="+entity.EntitySettings, bearer(t, adminID, entity.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	logs := decode[dto.Page[dto.AuditLogResponse]](t, resp)
	require.Len(t, logs.Data, 1)
	assert.Equal(t, adminID, logs.Data[0].UserID)

	resp = api.call(t, http.MethodGet, "/api/audit-logs", bearer(t, staffID, entity.RoleStaff), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestUsersYSolicitudesDeRol(t *testing.T) {
	api := newTestAPI(t)
	cust := bearer(t, customerID, entity.RoleUser)

	resp := api.call(t, http.MethodGet, "/api/users", cust, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = api.call(t, http.MethodPost, "/api/role-requests", cust, map[string]any{"requested_role": entity.RoleStaff, "reason": "vendedor de planta"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	rr := decode[dto.RoleRequestResponse](t, resp)

	resp = api.call(t, http.MethodPut, "/api/role-requests/"+rr.ID, cust, map[string]any{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = api.call(t, http.MethodPut, "/api/role-requests/"+rr.ID, bearer(t, adminID, entity.RoleAdmin), map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// El rol nuevo aplica en el siguiente request aunque el token diga user.
	resp = api.call(t, http.MethodGet, "/api/auth/me", cust, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entity.RoleStaff, decode[dto.UserResponse](t, resp).Role)

	resp = api.call(t, http.MethodGet, "/api/users?page=1&pageSize=2", bearer(t, adminID, entity.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	users := decode[dto.Page[dto.UserResponse]](t, resp)
	assert.Len(t, users.Data, 2)
	assert.Equal(t, 6, users.Pagination.Total)
}

func TestVerification_EnviarYVerificar(t *testing.T) {
	api := newTestAPI(t)

	resp := api.call(t, http.MethodPost, "/api/verification/send", "", map[string]any{"destination": "ana@x.co", "purpose": entity.PurposeRegister})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[dto.VerificationResponse](t, resp).Success)

	code := api.sender.Codes["ana@x.co"]
	require.NotEmpty(t, code)

	resp = api.call(t, http.MethodPost, "/api/verification/verify", "", map[string]any{"destination": "ana@x.co", "purpose": entity.PurposeRegister, "code": "000000x"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[dto.VerificationResponse](t, resp).Success)

	resp = api.call(t, http.MethodPost, "/api/verification/verify", "", map[string]any{"destination": "ana@x.co", "purpose": entity.PurposeRegister, "code": code})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[dto.VerificationResponse](t, resp).Success)

	resp = api.call(t, http.MethodPost, "/api/verification/send", "", map[string]any{"destination": "ana@x.co", "purpose": "otra-cosa"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
