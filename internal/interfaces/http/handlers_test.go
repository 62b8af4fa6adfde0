package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/multitienda-api/internal/application/dto"
	"github.com/jhoicas/multitienda-api/internal/application/inventory"
	"github.com/jhoicas/multitienda-api/internal/domain"
	apphttp "github.com/jhoicas/multitienda-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/multitienda-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Mocks de casos de uso
// ──────────────────────────────────────────────────────────────────────────────

type MockMovementService struct {
	mock.Mock
}

func (m *MockMovementService) CreateMovement(ctx context.Context, actor inventory.Actor, in dto.CreateMovementRequest) (*dto.MovementCreatedResponse, error) {
	args := m.Called(ctx, actor, in)
	res, _ := args.Get(0).(*dto.MovementCreatedResponse)
	return res, args.Error(1)
}

func (m *MockMovementService) ListMovements(ctx context.Context, q dto.MovementListQuery) (*dto.MovementListResponse, error) {
	args := m.Called(ctx, q)
	res, _ := args.Get(0).(*dto.MovementListResponse)
	return res, args.Error(1)
}

func (m *MockMovementService) GetMovement(ctx context.Context, id string) (*dto.MovementResponse, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*dto.MovementResponse)
	return res, args.Error(1)
}

type MockStockService struct {
	mock.Mock
}

func (m *MockStockService) GetStock(ctx context.Context, productID, storeID string) (*dto.StockResponse, error) {
	args := m.Called(ctx, productID, storeID)
	res, _ := args.Get(0).(*dto.StockResponse)
	return res, args.Error(1)
}

func (m *MockStockService) ListStocks(ctx context.Context, storeID string) ([]dto.StockResponse, error) {
	args := m.Called(ctx, storeID)
	res, _ := args.Get(0).([]dto.StockResponse)
	return res, args.Error(1)
}

func (m *MockStockService) UpsertStock(ctx context.Context, in dto.UpsertStockRequest) (*dto.StockResponse, error) {
	args := m.Called(ctx, in)
	res, _ := args.Get(0).(*dto.StockResponse)
	return res, args.Error(1)
}

func (m *MockStockService) SetStockQuantity(ctx context.Context, id string, in dto.SetStockRequest) (*dto.StockResponse, error) {
	args := m.Called(ctx, id, in)
	res, _ := args.Get(0).(*dto.StockResponse)
	return res, args.Error(1)
}

func (m *MockStockService) DeleteStock(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockAlertService struct {
	mock.Mock
}

func (m *MockAlertService) ListAlerts(ctx context.Context, storeID string) ([]dto.StockAlertDTO, error) {
	args := m.Called(ctx, storeID)
	res, _ := args.Get(0).([]dto.StockAlertDTO)
	return res, args.Error(1)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) GenerateReport(ctx context.Context, storeID string) ([]byte, error) {
	args := m.Called(ctx, storeID)
	res, _ := args.Get(0).([]byte)
	return res, args.Error(1)
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

type testAPI struct {
	app       *fiber.App
	movements *MockMovementService
	stocks    *MockStockService
	alerts    *MockAlertService
	reports   *MockReportService
}

func newTestAPI() *testAPI {
	api := &testAPI{
		app:       fiber.New(),
		movements: &MockMovementService{},
		stocks:    &MockStockService{},
		alerts:    &MockAlertService{},
		reports:   &MockReportService{},
	}
	apphttp.Router(api.app, apphttp.RouterDeps{
		Movements: api.movements,
		Stocks:    api.stocks,
		Alerts:    api.alerts,
		Reports:   api.reports,
		JWTSecret: testJWTSecret,
	})
	return api
}

func (a *testAPI) do(t *testing.T, method, path, body, role string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeError(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	defer resp.Body.Close()
	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// ──────────────────────────────────────────────────────────────────────────────
// POST /api/movements
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateMovement_Created(t *testing.T) {
	api := newTestAPI()
	want := dto.CreateMovementRequest{ProductID: "p1", StoreID: "s1", Type: "entry", Quantity: 10, Reason: "compra"}
	actor := inventory.Actor{ID: testUserID, Role: pkgjwt.RoleEmployee}
	api.movements.On("CreateMovement", mock.Anything, actor, want).
		Return(&dto.MovementCreatedResponse{MovementID: "m-1"}, nil).Once()

	resp := api.do(t, http.MethodPost, "/api/movements",
		`{"product_id":"p1","store_id":"s1","type":"entry","quantity":10,"reason":"compra"}`, pkgjwt.RoleEmployee)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "m-1", body["movement_id"])
	api.movements.AssertExpectations(t)
}

func TestCreateMovement_StrictBodyRejected(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"campo desconocido", `{"product_id":"p1","store_id":"s1","type":"entry","quantity":1,"reason":"x","extra":1}`, "extra"},
		{"cantidad decimal", `{"product_id":"p1","store_id":"s1","type":"entry","quantity":2.5,"reason":"x"}`, "quantity"},
		{"cantidad como texto", `{"product_id":"p1","store_id":"s1","type":"entry","quantity":"3","reason":"x"}`, "quantity"},
		{"json roto", `{"product_id":`, "body"},
		{"dos objetos", `{"quantity":1}{"quantity":2}`, "body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPI()
			resp := api.do(t, http.MethodPost, "/api/movements", tc.body, pkgjwt.RoleAdmin)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, "VALIDATION", body.Code)
			assert.Contains(t, body.Fields, tc.field)
			api.movements.AssertNotCalled(t, "CreateMovement", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreateMovement_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validación", domain.NewValidationError("quantity", "gt"), http.StatusBadRequest, "VALIDATION"},
		{"stock insuficiente", domain.ErrInsufficientStock, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"almacenamiento", &domain.StorageError{Op: "registrar movimiento", Err: errors.New("down")}, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
		{"inesperado", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPI()
			api.movements.On("CreateMovement", mock.Anything, mock.Anything, mock.Anything).Return(nil, tc.err)

			resp := api.do(t, http.MethodPost, "/api/movements",
				`{"product_id":"p1","store_id":"s1","type":"exit","quantity":1,"reason":"venta"}`, pkgjwt.RoleAdmin)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, decodeError(t, resp).Code)
		})
	}
}

func TestCreateMovement_RequiresToken(t *testing.T) {
	api := newTestAPI()
	req := httptest.NewRequest(http.MethodPost, "/api/movements", bytes.NewBufferString(`{}`))
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// GET /api/movements
// ──────────────────────────────────────────────────────────────────────────────

func TestListMovements_PassesFilters(t *testing.T) {
	api := newTestAPI()
	q := dto.MovementListQuery{StoreID: "s1", ProductID: "p1", Limit: 5, Offset: 10}
	api.movements.On("ListMovements", mock.Anything, q).Return(&dto.MovementListResponse{
		Items: []dto.MovementResponse{{ID: "m-1", Type: "exit", Quantity: 2, CreatedAt: time.Now()}},
		Page:  dto.PageResponse{Limit: 5, Offset: 10},
	}, nil).Once()

	resp := api.do(t, http.MethodGet, "/api/movements?store_id=s1&product_id=p1&limit=5&offset=10", "", pkgjwt.RoleEmployee)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body dto.MovementListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "m-1", body.Items[0].ID)
	api.movements.AssertExpectations(t)
}

func TestGetMovement_NotFound(t *testing.T) {
	api := newTestAPI()
	api.movements.On("GetMovement", mock.Anything, "nope").Return(nil, domain.ErrNotFound)

	resp := api.do(t, http.MethodGet, "/api/movements/nope", "", pkgjwt.RoleEmployee)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// /api/stocks
// ──────────────────────────────────────────────────────────────────────────────

func TestListStocks(t *testing.T) {
	api := newTestAPI()
	api.stocks.On("ListStocks", mock.Anything, "s1").
		Return([]dto.StockResponse{{ID: "st1", ProductID: "p1", StoreID: "s1", Quantity: 4}}, nil)

	resp := api.do(t, http.MethodGet, "/api/stocks?store_id=s1", "", pkgjwt.RoleEmployee)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body []dto.StockResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, int64(4), body[0].Quantity)
}

func TestLookupStock(t *testing.T) {
	api := newTestAPI()
	api.stocks.On("GetStock", mock.Anything, "p1", "s1").Return(&dto.StockResponse{ID: "st1", Quantity: 9}, nil)
	api.stocks.On("GetStock", mock.Anything, "p2", "s1").Return(nil, domain.ErrNotFound)

	ok := api.do(t, http.MethodGet, "/api/stocks/lookup?product_id=p1&store_id=s1", "", pkgjwt.RoleEmployee)
	assert.Equal(t, http.StatusOK, ok.StatusCode)
	ok.Body.Close()

	missing := api.do(t, http.MethodGet, "/api/stocks/lookup?product_id=p2&store_id=s1", "", pkgjwt.RoleEmployee)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
	missing.Body.Close()
}

func TestUpsertStock(t *testing.T) {
	api := newTestAPI()
	api.stocks.On("UpsertStock", mock.Anything, mock.MatchedBy(func(in dto.UpsertStockRequest) bool {
		return in.ProductID == "p1" && in.StoreID == "s1" && in.Quantity != nil && *in.Quantity == 0
	})).Return(&dto.StockResponse{ID: "st1", Quantity: 0}, nil).Once()

	resp := api.do(t, http.MethodPost, "/api/stocks", `{"product_id":"p1","store_id":"s1","quantity":0}`, pkgjwt.RoleEmployee)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	api.stocks.AssertExpectations(t)
}

func TestUpdateStock(t *testing.T) {
	api := newTestAPI()
	api.stocks.On("SetStockQuantity", mock.Anything, "st1", mock.AnythingOfType("dto.SetStockRequest")).
		Return(&dto.StockResponse{ID: "st1", Quantity: 15}, nil)

	resp := api.do(t, http.MethodPut, "/api/stocks/st1", `{"quantity":15}`, pkgjwt.RoleEmployee)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.StockResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int64(15), body.Quantity)
}

func TestDeleteStock_AdminOnly(t *testing.T) {
	api := newTestAPI()
	api.stocks.On("DeleteStock", mock.Anything, "st1").Return(nil).Once()

	denied := api.do(t, http.MethodDelete, "/api/stocks/st1", "", pkgjwt.RoleEmployee)
	assert.Equal(t, http.StatusForbidden, denied.StatusCode)
	denied.Body.Close()

	ok := api.do(t, http.MethodDelete, "/api/stocks/st1", "", pkgjwt.RoleAdmin)
	assert.Equal(t, http.StatusNoContent, ok.StatusCode)
	ok.Body.Close()
	api.stocks.AssertExpectations(t)
}

func TestStockAlerts(t *testing.T) {
	api := newTestAPI()
	api.alerts.On("ListAlerts", mock.Anything, "").Return([]dto.StockAlertDTO{{ProductID: "p1", Priority: 1}}, nil)

	resp := api.do(t, http.MethodGet, "/api/stocks/alerts", "", pkgjwt.RoleEmployee)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body []dto.StockAlertDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, 1, body[0].Priority)
}

func TestStockReport(t *testing.T) {
	api := newTestAPI()
	api.reports.On("GenerateReport", mock.Anything, "s1").Return([]byte("%PDF-1.3 test"), nil)

	resp := api.do(t, http.MethodGet, "/api/stocks/report.pdf?store_id=s1", "", pkgjwt.RoleEmployee)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "%PDF-1.3 test", string(body))
}

func TestStockReport_StorageDown(t *testing.T) {
	api := newTestAPI()
	api.reports.On("GenerateReport", mock.Anything, "").Return(nil, &domain.StorageError{Op: "listar stock", Err: errors.New("timeout")})

	resp := api.do(t, http.MethodGet, "/api/stocks/report.pdf", "", pkgjwt.RoleEmployee)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "STORAGE_UNAVAILABLE", decodeError(t, resp).Code)
}
