package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/spsports/sps-backend/internal/app/model"
	"github.com/spsports/sps-backend/internal/app/repository"
	"github.com/spsports/sps-backend/internal/ordernumber"
	"github.com/spsports/sps-backend/internal/storage"
	"github.com/spsports/sps-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrEmptyOrder             = errors.New("order has no items")
	ErrMissingCustomer        = errors.New("customer name and email are required")
	ErrInvalidQuantity        = errors.New("item quantity must be at least 1")
	ErrInvalidTotal           = errors.New("total price cannot be negative")
	ErrInvalidPaymentMethod   = errors.New("invalid payment method")
	ErrInvalidTrackingStatus  = errors.New("invalid tracking status")
	ErrOrderNumberUnavailable = errors.New("could not allocate order number")
)

type OrderItemInput struct {
	Product  uint    `json:"product"`
	Title    string  `json:"title" binding:"required"`
	Price    float64 `json:"price" binding:"gte=0"`
	Quantity int     `json:"quantity" binding:"required,gte=1"`
	Image    string  `json:"image"`
	Size     string  `json:"size"`
}

// PlaceOrderInput is the checkout request. Multipart requests carry it as
// the JSON "order" field.
type PlaceOrderInput struct {
	CustomerName    string                `json:"customerName" binding:"required"`
	CustomerEmail   string                `json:"customerEmail" binding:"required,email"`
	CustomerPhone   string                `json:"customerPhone"`
	OrderItems      []OrderItemInput      `json:"orderItems" binding:"required,min=1,dive"`
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
	TotalPrice      float64               `json:"totalPrice" binding:"gte=0"`
	PaymentMethod   model.PaymentMethod   `json:"paymentMethod" binding:"required"`
}

type TrackedItem struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Image    string `json:"image"`
	Size     string `json:"size,omitempty"`
}

// TrackingView is the public projection of an order. It carries no
// customer details.
type TrackingView struct {
	OrderNumber     string                `json:"orderNumber"`
	TrackingStatus  model.TrackingStatus  `json:"trackingStatus"`
	TrackingHistory []model.TrackingEvent `json:"trackingHistory"`
	OrderItems      []TrackedItem         `json:"orderItems"`
	TotalPrice      float64               `json:"totalPrice"`
	IsDelivered     bool                  `json:"isDelivered"`
	DeliveredAt     *time.Time            `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
}

func NewTrackingView(order *model.Order) *TrackingView {
	items := make([]TrackedItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, TrackedItem{
			Title:    item.Title,
			Quantity: item.Quantity,
			Image:    item.Image,
			Size:     item.Size,
		})
	}
	history := order.TrackingHistory
	if history == nil {
		history = []model.TrackingEvent{}
	}
	return &TrackingView{
		OrderNumber:     order.OrderNumber,
		TrackingStatus:  order.TrackingStatus,
		TrackingHistory: history,
		OrderItems:      items,
		TotalPrice:      order.TotalPrice,
		IsDelivered:     order.IsDelivered,
		DeliveredAt:     order.DeliveredAt,
		CreatedAt:       order.CreatedAt,
	}
}

// TrackingNotifier receives the public view whenever an order's tracking
// status changes.
type TrackingNotifier interface {
	PublishTracking(orderNumber string, update interface{})
}

type OrderService interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput, proof *multipart.FileHeader) (*model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	GetOrder(ctx context.Context, id uint) (*model.Order, error)
	UpdateTracking(ctx context.Context, id uint, status model.TrackingStatus, note string) (*model.Order, error)
	MarkPaid(ctx context.Context, id uint) (*model.Order, error)
	TrackOrder(ctx context.Context, orderNumber string) (*TrackingView, error)
	ExportOrders(ctx context.Context, w io.Writer) (int, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	numbers   *ordernumber.Generator
	uploader  storage.Uploader
	notifier  TrackingNotifier
	now       func() time.Time
}

// NewOrderService wires the order workflow. uploader and notifier may be nil.
func NewOrderService(
	orderRepo repository.OrderRepository,
	numbers *ordernumber.Generator,
	uploader storage.Uploader,
	notifier TrackingNotifier,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		numbers:   numbers,
		uploader:  uploader,
		notifier:  notifier,
		now:       time.Now,
	}
}

func validateOrderInput(input *PlaceOrderInput) error {
	if len(input.OrderItems) == 0 {
		return ErrEmptyOrder
	}
	if strings.TrimSpace(input.CustomerName) == "" || strings.TrimSpace(input.CustomerEmail) == "" {
		return ErrMissingCustomer
	}
	for _, item := range input.OrderItems {
		if item.Quantity < 1 {
			return ErrInvalidQuantity
		}
	}
	if input.TotalPrice < 0 {
		return ErrInvalidTotal
	}
	if !input.PaymentMethod.Valid() {
		return ErrInvalidPaymentMethod
	}
	return nil
}

func (s *orderService) PlaceOrder(ctx context.Context, input PlaceOrderInput, proof *multipart.FileHeader) (*model.Order, error) {
	if err := validateOrderInput(&input); err != nil {
		return nil, err
	}

	items := make([]model.OrderItem, 0, len(input.OrderItems))
	var computed float64
	for _, item := range input.OrderItems {
		items = append(items, model.OrderItem{
			ProductID: item.Product,
			Title:     strings.TrimSpace(item.Title),
			Price:     item.Price,
			Quantity:  item.Quantity,
			Image:     item.Image,
			Size:      strings.TrimSpace(item.Size),
		})
		computed += item.Price * float64(item.Quantity)
	}

	total := input.TotalPrice
	if total <= 0 {
		total = computed
	}

	order := &model.Order{
		CustomerName:    strings.TrimSpace(input.CustomerName),
		CustomerEmail:   strings.TrimSpace(input.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(input.CustomerPhone),
		ShippingAddress: input.ShippingAddress,
		TotalPrice:      total,
		PaymentMethod:   input.PaymentMethod,
		TrackingStatus:  model.TrackingOrderReceived,
		Items:           items,
		TrackingHistory: []model.TrackingEvent{},
	}

	if proof != nil && input.PaymentMethod.RequiresProof() {
		order.PaymentScreenshot = s.uploadProof(ctx, proof)
	}

	number, err := s.numbers.Next(ctx)
	if err != nil {
		logger.Error("Failed to allocate order number", err)
		if errors.Is(err, ordernumber.ErrSequenceExhausted) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrOrderNumberUnavailable, err)
	}
	order.OrderNumber = number

	if err := s.orderRepo.Create(ctx, order); err != nil {
		logger.Error("Failed to create order", err, map[string]interface{}{
			"order_number": number,
		})
		return nil, err
	}

	logger.Info("Order placed", map[string]interface{}{
		"order_id":       order.ID,
		"order_number":   order.OrderNumber,
		"items":          len(order.Items),
		"total_price":    order.TotalPrice,
		"payment_method": order.PaymentMethod,
		"has_proof":      order.PaymentScreenshot != "",
	})
	return order, nil
}

// uploadProof stores the payment screenshot. A failed upload never blocks
// the order; the URL is left empty instead.
func (s *orderService) uploadProof(ctx context.Context, proof *multipart.FileHeader) string {
	if s.uploader == nil {
		logger.Warn("Payment screenshot dropped, uploads not configured", map[string]interface{}{
			"filename": proof.Filename,
		})
		return ""
	}
	url, err := s.uploader.Upload(ctx, storage.FolderPaymentProofs, proof)
	if err != nil {
		logger.Warn("Payment screenshot upload failed", map[string]interface{}{
			"filename": proof.Filename,
			"error":    err.Error(),
		})
		return ""
	}
	return url
}

func (s *orderService) ListOrders(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orderRepo.FindAll(ctx)
	if err != nil {
		logger.Error("Failed to list orders", err)
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// UpdateTracking overwrites the status and appends a history entry. Any
// listed status may follow any other.
func (s *orderService) UpdateTracking(ctx context.Context, id uint, status model.TrackingStatus, note string) (*model.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidTrackingStatus
	}

	now := s.now()
	updates := map[string]interface{}{
		"tracking_status": status,
	}
	if status == model.TrackingDelivered {
		updates["is_delivered"] = true
		updates["delivered_at"] = now
	}

	if strings.TrimSpace(note) == "" {
		note = fmt.Sprintf("Order status updated to %s", status)
	}
	event := &model.TrackingEvent{
		Status:    status,
		Timestamp: now,
		Note:      note,
	}

	if err := s.orderRepo.AppendTracking(ctx, id, updates, event); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	logger.Info("Order tracking updated", map[string]interface{}{
		"order_id":     id,
		"order_number": order.OrderNumber,
		"status":       status,
	})

	if s.notifier != nil {
		s.notifier.PublishTracking(order.OrderNumber, NewTrackingView(order))
	}
	return order, nil
}

func (s *orderService) MarkPaid(ctx context.Context, id uint) (*model.Order, error) {
	if err := s.orderRepo.MarkPaid(ctx, id, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	logger.Info("Order marked as paid", map[string]interface{}{
		"order_id": id,
	})
	return s.GetOrder(ctx, id)
}

func (s *orderService) TrackOrder(ctx context.Context, orderNumber string) (*TrackingView, error) {
	orderNumber = strings.ToUpper(strings.TrimSpace(orderNumber))
	if !ordernumber.Valid(orderNumber) {
		return nil, ErrOrderNotFound
	}

	order, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return NewTrackingView(order), nil
}
