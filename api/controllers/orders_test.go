package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swissvfg/bauprodukt-backend/internal/orders"
	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
	pkgerrors "github.com/swissvfg/bauprodukt-backend/pkg/errors"
)

type stubOrdersAPI struct {
	byID     map[uuid.UUID]*orders.Detail
	byLookup map[string]*orders.Detail
	byEmail  map[string][]orders.Detail
}

func (s *stubOrdersAPI) Create(context.Context, orders.CreateInput) (*orders.Detail, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubOrdersAPI) GetByID(_ context.Context, id uuid.UUID) (*orders.Detail, error) {
	if detail, ok := s.byID[id]; ok {
		return detail, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrdersAPI) GetByNumberAndEmail(_ context.Context, orderNumber, email string) (*orders.Detail, error) {
	if detail, ok := s.byLookup[orderNumber+"|"+email]; ok {
		return detail, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrdersAPI) ListByEmail(_ context.Context, email string) ([]orders.Detail, error) {
	return s.byEmail[email], nil
}

func ordersTestRouter(svc orders.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/v1/orders/{orderID}", OrderDetail(svc, nil))
	r.Get("/api/v1/orders", OrderLookup(svc, nil))
	return r
}

func TestOrderDetailByID(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersAPI{byID: map[uuid.UUID]*orders.Detail{
		orderID: {ID: orderID, OrderNumber: "BP000700", PaymentStatus: enums.PaymentStatusPaid},
	}}
	router := ordersTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data orders.Detail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "BP000700", envelope.Data.OrderNumber)
	assert.Equal(t, enums.PaymentStatusPaid, envelope.Data.PaymentStatus)
}

func TestOrderDetailRejectsBadID(t *testing.T) {
	router := ordersTestRouter(&stubOrdersAPI{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderDetailNotFound(t *testing.T) {
	router := ordersTestRouter(&stubOrdersAPI{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderLookupByNumberAndEmail(t *testing.T) {
	svc := &stubOrdersAPI{byLookup: map[string]*orders.Detail{
		"BP000701|mara@example.ch": {OrderNumber: "BP000701"},
	}}
	router := ordersTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/orders?order_number=BP000701&email=mara%40example.ch", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderLookupRequiresEmail(t *testing.T) {
	router := ordersTestRouter(&stubOrdersAPI{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?order_number=BP000701", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderLookupListsByEmail(t *testing.T) {
	svc := &stubOrdersAPI{byEmail: map[string][]orders.Detail{
		"mara@example.ch": {
			{OrderNumber: "BP000702"},
			{OrderNumber: "BP000701"},
		},
	}}
	router := ordersTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?email=mara%40example.ch", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []orders.Detail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, "BP000702", envelope.Data[0].OrderNumber)
}
