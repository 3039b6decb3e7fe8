package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spsports/sps-backend/internal/app/model"
	"github.com/spsports/sps-backend/internal/app/repository"
	"github.com/spsports/sps-backend/internal/app/service"
	"github.com/spsports/sps-backend/internal/db"
	"github.com/spsports/sps-backend/internal/ordernumber"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenOrderService fails every call as if the database were down.
type brokenOrderService struct {
	service.OrderService
}

var errDatabaseDown = errors.New("database is down")

func (brokenOrderService) PlaceOrder(context.Context, service.PlaceOrderInput, *multipart.FileHeader) (*model.Order, error) {
	return nil, errDatabaseDown
}

func (brokenOrderService) GetOrder(context.Context, uint) (*model.Order, error) {
	return nil, errDatabaseDown
}

func (brokenOrderService) UpdateTracking(context.Context, uint, model.TrackingStatus, string) (*model.Order, error) {
	return nil, errDatabaseDown
}

func (brokenOrderService) MarkPaid(context.Context, uint) (*model.Order, error) {
	return nil, errDatabaseDown
}

func (brokenOrderService) TrackOrder(context.Context, string) (*service.TrackingView, error) {
	return nil, errDatabaseDown
}

type stubFeed struct {
	served []string
}

func (s *stubFeed) Serve(w http.ResponseWriter, _ *http.Request, orderNumber string, snapshot interface{}) error {
	s.served = append(s.served, orderNumber)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func setupOrderControllerTest(t *testing.T) (*gin.Engine, *stubUploader, *stubFeed) {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	uploader := &stubUploader{}
	feed := &stubFeed{}
	numbers := ordernumber.NewGenerator(repository.NewOrderCounterRepository(testDB), time.UTC)
	orderService := service.NewOrderService(repository.NewOrderRepository(testDB), numbers, uploader, nil)
	ctrl := NewOrderController(orderService, feed)

	router := gin.New()
	router.POST("/orders/placeorder", ctrl.PlaceOrder)
	router.GET("/orders/track/:orderNumber", ctrl.TrackOrder)
	router.GET("/orders/track/:orderNumber/ws", ctrl.WatchOrder)
	router.GET("/orders/viewOrders", ctrl.ListOrders)
	router.GET("/orders/export", ctrl.ExportOrders)
	router.GET("/orders/:id", ctrl.GetOrder)
	router.PATCH("/orders/:id/tracking", ctrl.UpdateTracking)
	router.PATCH("/orders/:id/paid", ctrl.MarkPaid)
	return router, uploader, feed
}

func orderBody(method model.PaymentMethod) gin.H {
	return gin.H{
		"customerName":  "Bilal Ahmed",
		"customerEmail": "bilal@example.com",
		"customerPhone": "03001234567",
		"orderItems": []gin.H{
			{"product": 1, "title": "Home Kit", "price": 1000, "quantity": 1, "size": "L"},
			{"product": 2, "title": "Socks", "price": 250, "quantity": 2},
		},
		"shippingAddress": gin.H{"address": "1 Canal Road", "city": "Faisalabad", "postalCode": "38000", "country": "Pakistan"},
		"totalPrice":      1500,
		"paymentMethod":   method,
	}
}

func placeOrder(t *testing.T, router *gin.Engine) model.Order {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/orders/placeorder", orderBody(model.PaymentCashOnDelivery))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order model.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	return order
}

func TestOrderController_PlaceOrder_JSON(t *testing.T) {
	router, _, _ := setupOrderControllerTest(t)

	order := placeOrder(t, router)
	assert.True(t, ordernumber.Valid(order.OrderNumber), order.OrderNumber)
	assert.Equal(t, model.TrackingOrderReceived, order.TrackingStatus)
	assert.Equal(t, 1500.0, order.TotalPrice)
	assert.Len(t, order.Items, 2)
	assert.Empty(t, order.TrackingHistory)
}

func TestOrderController_PlaceOrder_MultipartWithProof(t *testing.T) {
	router, uploader, _ := setupOrderControllerTest(t)

	payload, err := json.Marshal(orderBody(model.PaymentEasyPaisa))
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("order", string(payload)))
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="paymentScreenshot"; filename="receipt.png"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte("png"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/orders/placeorder", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var order model.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, 1, uploader.calls)
	assert.Equal(t, "https://cdn.example.com/payment-proofs/receipt.png", order.PaymentScreenshot)
}

func TestOrderController_PlaceOrder_Rejections(t *testing.T) {
	router, _, _ := setupOrderControllerTest(t)

	noItems := orderBody(model.PaymentCashOnDelivery)
	noItems["orderItems"] = []gin.H{}

	badQuantity := orderBody(model.PaymentCashOnDelivery)
	badQuantity["orderItems"] = []gin.H{{"title": "Kit", "price": 100, "quantity": 0}}

	noEmail := orderBody(model.PaymentCashOnDelivery)
	delete(noEmail, "customerEmail")

	tests := []struct {
		name     string
		body     gin.H
		wantCode string
	}{
		{"empty items", noItems, "VALIDATION_INVALID_INPUT"},
		{"zero quantity", badQuantity, "VALIDATION_INVALID_INPUT"},
		{"missing email", noEmail, "VALIDATION_INVALID_INPUT"},
		{"unknown payment method", orderBody("Crypto"), "ORDER_INVALID_PAYMENT_METHOD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/orders/placeorder", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.wantCode, response["error"])
		})
	}

	w := doJSON(router, http.MethodGet, "/orders/viewOrders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestOrderController_UpdateTracking(t *testing.T) {
	router, _, _ := setupOrderControllerTest(t)
	order := placeOrder(t, router)
	path := fmt.Sprintf("/orders/%d/tracking", order.ID)

	w := doJSON(router, http.MethodPatch, path, gin.H{"status": "Delivered"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var delivered model.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &delivered))
	assert.True(t, delivered.IsDelivered)
	assert.NotNil(t, delivered.DeliveredAt)
	require.Len(t, delivered.TrackingHistory, 1)
	assert.Equal(t, "Order status updated to Delivered", delivered.TrackingHistory[0].Note)

	w = doJSON(router, http.MethodPatch, path, gin.H{"status": "Order Received", "note": "Returned to warehouse"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPatch, path, gin.H{"status": "Shipped"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ORDER_INVALID_TRACKING_STATUS", response["error"])

	w = doJSON(router, http.MethodPatch, "/orders/9999/tracking", gin.H{"status": "Processing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodGet, fmt.Sprintf("/orders/%d", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stored model.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	assert.Len(t, stored.TrackingHistory, 2)
	assert.Equal(t, model.TrackingOrderReceived, stored.TrackingStatus)
}

func TestOrderController_MarkPaid(t *testing.T) {
	router, _, _ := setupOrderControllerTest(t)
	order := placeOrder(t, router)

	w := doJSON(router, http.MethodPatch, fmt.Sprintf("/orders/%d/paid", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var paid model.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &paid))
	assert.True(t, paid.IsPaid)
}

func TestOrderController_TrackOrder_HidesCustomer(t *testing.T) {
	router, _, _ := setupOrderControllerTest(t)
	order := placeOrder(t, router)

	w := doJSON(router, http.MethodGet, "/orders/track/"+order.OrderNumber, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, order.OrderNumber, view["orderNumber"])
	assert.Equal(t, "Order Received", view["trackingStatus"])
	assert.NotContains(t, view, "customerEmail")
	assert.NotContains(t, view, "customerName")
	assert.NotContains(t, view, "shippingAddress")

	w = doJSON(router, http.MethodGet, "/orders/track/SPS-000000-00000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderController_WatchOrder(t *testing.T) {
	router, _, feed := setupOrderControllerTest(t)
	order := placeOrder(t, router)

	w := doJSON(router, http.MethodGet, "/orders/track/"+order.OrderNumber+"/ws", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{order.OrderNumber}, feed.served)

	w = doJSON(router, http.MethodGet, "/orders/track/SPS-000000-00000/ws", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Len(t, feed.served, 1)
}

func TestOrderController_ExportOrders(t *testing.T) {
	router, _, _ := setupOrderControllerTest(t)
	placeOrder(t, router)

	w := doJSON(router, http.MethodGet, "/orders/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, w.Body.Len())
}

func TestOrderController_FailureCodesPerAction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := NewOrderController(brokenOrderService{}, nil)

	router := gin.New()
	router.POST("/orders/placeorder", ctrl.PlaceOrder)
	router.GET("/orders/track/:orderNumber", ctrl.TrackOrder)
	router.GET("/orders/:id", ctrl.GetOrder)
	router.PATCH("/orders/:id/tracking", ctrl.UpdateTracking)
	router.PATCH("/orders/:id/paid", ctrl.MarkPaid)

	tests := []struct {
		name     string
		method   string
		path     string
		body     interface{}
		wantCode string
	}{
		{"place order", http.MethodPost, "/orders/placeorder", orderBody(model.PaymentCashOnDelivery), "ORDER_CREATE_FAILED"},
		{"get order", http.MethodGet, "/orders/1", nil, "INTERNAL_DATABASE_ERROR"},
		{"update tracking", http.MethodPatch, "/orders/1/tracking", gin.H{"status": "Processing"}, "ORDER_UPDATE_FAILED"},
		{"mark paid", http.MethodPatch, "/orders/1/paid", nil, "ORDER_UPDATE_FAILED"},
		{"track order", http.MethodGet, "/orders/track/SPS-250314-00001", nil, "INTERNAL_DATABASE_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, tt.method, tt.path, tt.body)
			require.Equal(t, http.StatusInternalServerError, w.Code, w.Body.String())
			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.wantCode, response["error"])
		})
	}
}
