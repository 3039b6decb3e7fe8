package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/spsports/sps-backend/internal/app/model"
	"github.com/spsports/sps-backend/internal/app/service"
	apperrors "github.com/spsports/sps-backend/internal/errors"
	"github.com/spsports/sps-backend/internal/middleware"
	"github.com/spsports/sps-backend/internal/ordernumber"
	"github.com/spsports/sps-backend/pkg/logger"
)

const (
	orderFormField      = "order"
	paymentProofField   = "paymentScreenshot"
	xlsxContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportFileDayLayout = "20060102"
)

// TrackingFeed streams tracking updates for one order over a websocket.
type TrackingFeed interface {
	Serve(w http.ResponseWriter, r *http.Request, orderNumber string, snapshot interface{}) error
}

type OrderController struct {
	orderService service.OrderService
	feed         TrackingFeed
}

// NewOrderController builds the controller. feed may be nil, in which case
// the live tracking endpoint answers 503.
func NewOrderController(orderService service.OrderService, feed TrackingFeed) *OrderController {
	return &OrderController{
		orderService: orderService,
		feed:         feed,
	}
}

type UpdateTrackingRequest struct {
	Status model.TrackingStatus `json:"status" binding:"required"`
	Note   string               `json:"note"`
}

// bindPlaceOrder reads the checkout request from a JSON body, or from the
// "order" field of a multipart form along with an optional payment screenshot.
func bindPlaceOrder(c *gin.Context) (service.PlaceOrderInput, *multipart.FileHeader, error) {
	var req service.PlaceOrderInput

	if !isMultipart(c) {
		err := c.ShouldBindJSON(&req)
		return req, nil, err
	}

	raw := c.PostForm(orderFormField)
	if raw == "" {
		return req, nil, fmt.Errorf("missing %q form field", orderFormField)
	}
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return req, nil, fmt.Errorf("invalid %q form field: %w", orderFormField, err)
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		return req, nil, err
	}

	proof, err := c.FormFile(paymentProofField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req, nil, nil
		}
		return req, nil, err
	}
	return req, proof, nil
}

// respondOrderError maps order service errors to responses. code is used
// for unexpected failures.
func respondOrderError(c *gin.Context, log *logger.Logger, err error, action, code string) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
	case errors.Is(err, service.ErrInvalidTrackingStatus):
		apperrors.BadRequest(c, apperrors.OrderInvalidTrackingStatus,
			"Status must be one of: Order Received, Processing, In Transit, Delivered")
	case errors.Is(err, service.ErrInvalidPaymentMethod):
		apperrors.BadRequest(c, apperrors.OrderInvalidPaymentMethod,
			"Payment method must be one of: Cash on Delivery, Bank Transfer, JazzCash, EasyPaisa")
	case errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrMissingCustomer),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidTotal):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
	case errors.Is(err, ordernumber.ErrSequenceExhausted):
		log.Error("Daily order sequence exhausted", err)
		apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.OrderCreateFailed,
			"Order capacity for today has been reached")
	default:
		log.Error("Failed to "+action, err)
		apperrors.RespondWithPersistenceError(c, code, err, "order")
	}
}

// PlaceOrder creates an order from the checkout request
// POST /api/orders/placeorder
func (ctrl *OrderController) PlaceOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	req, proof, err := bindPlaceOrder(c)
	if err != nil {
		log.Warn("Invalid place order request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	order, err := ctrl.orderService.PlaceOrder(c.Request.Context(), req, proof)
	if err != nil {
		respondOrderError(c, log, err, "place order", apperrors.OrderCreateFailed)
		return
	}

	log.Info("Order placed successfully", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	})

	c.JSON(http.StatusCreated, order)
}

// ListOrders returns all orders, newest first
// GET /api/orders/viewOrders
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orders, err := ctrl.orderService.ListOrders(c.Request.Context())
	if err != nil {
		log.Error("Failed to list orders", err)
		apperrors.InternalError(c, "")
		return
	}

	log.Info("Orders fetched successfully", map[string]interface{}{
		"count": len(orders),
	})

	c.JSON(http.StatusOK, orders)
}

// GetOrder returns the full order document
// GET /api/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondOrderError(c, log, err, "fetch order", apperrors.InternalDatabaseError)
		return
	}

	c.JSON(http.StatusOK, order)
}

// UpdateTracking sets the tracking status and appends a history entry
// PATCH /api/orders/:id/tracking
func (ctrl *OrderController) UpdateTracking(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid tracking update request", map[string]interface{}{
			"order_id": id,
			"error":    err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	order, err := ctrl.orderService.UpdateTracking(c.Request.Context(), id, req.Status, req.Note)
	if err != nil {
		respondOrderError(c, log, err, "update tracking", apperrors.OrderUpdateFailed)
		return
	}

	log.Info("Order tracking updated", map[string]interface{}{
		"order_id": id,
		"status":   order.TrackingStatus,
	})

	c.JSON(http.StatusOK, order)
}

// MarkPaid records payment for an order
// PATCH /api/orders/:id/paid
func (ctrl *OrderController) MarkPaid(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.MarkPaid(c.Request.Context(), id)
	if err != nil {
		respondOrderError(c, log, err, "mark order paid", apperrors.OrderUpdateFailed)
		return
	}

	c.JSON(http.StatusOK, order)
}

// TrackOrder returns the public tracking view
// GET /api/orders/track/:orderNumber
func (ctrl *OrderController) TrackOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	view, err := ctrl.orderService.TrackOrder(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		respondOrderError(c, log, err, "track order", apperrors.InternalDatabaseError)
		return
	}

	c.JSON(http.StatusOK, view)
}

// WatchOrder upgrades to a websocket that sends the tracking view now and
// again on every status change
// GET /api/orders/track/:orderNumber/ws
func (ctrl *OrderController) WatchOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if ctrl.feed == nil {
		apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.InternalServerError, "Live tracking is not available")
		return
	}

	view, err := ctrl.orderService.TrackOrder(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		respondOrderError(c, log, err, "track order", apperrors.InternalDatabaseError)
		return
	}

	// Serve writes its own response when the upgrade fails
	if err := ctrl.feed.Serve(c.Writer, c.Request, view.OrderNumber, view); err != nil {
		log.Warn("Tracking feed not established", map[string]interface{}{
			"order_number": view.OrderNumber,
			"error":        err.Error(),
		})
	}
}

// ExportOrders downloads all orders as an XLSX workbook
// GET /api/orders/export
func (ctrl *OrderController) ExportOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var buf bytes.Buffer
	rows, err := ctrl.orderService.ExportOrders(c.Request.Context(), &buf)
	if err != nil {
		log.Error("Failed to export orders", err)
		apperrors.InternalError(c, "Failed to export orders")
		return
	}

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().Format(exportFileDayLayout))
	log.Info("Orders exported", map[string]interface{}{
		"rows": rows,
	})

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
