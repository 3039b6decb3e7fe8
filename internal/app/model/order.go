package model

import (
	"time"

	"gorm.io/gorm"
)

type TrackingStatus string // fulfillment stage
type PaymentMethod string

const (
	TrackingOrderReceived TrackingStatus = "Order Received"
	TrackingProcessing    TrackingStatus = "Processing"
	TrackingInTransit     TrackingStatus = "In Transit"
	TrackingDelivered     TrackingStatus = "Delivered"

	PaymentCashOnDelivery PaymentMethod = "Cash on Delivery"
	PaymentBankTransfer   PaymentMethod = "Bank Transfer"
	PaymentJazzCash       PaymentMethod = "JazzCash"
	PaymentEasyPaisa      PaymentMethod = "EasyPaisa"
)

// TrackingStatuses lists every status in fulfillment order.
var TrackingStatuses = []TrackingStatus{
	TrackingOrderReceived,
	TrackingProcessing,
	TrackingInTransit,
	TrackingDelivered,
}

func (s TrackingStatus) Valid() bool {
	for _, v := range TrackingStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCashOnDelivery, PaymentBankTransfer, PaymentJazzCash, PaymentEasyPaisa:
		return true
	}
	return false
}

// RequiresProof reports whether the method is paid up front, so a
// payment screenshot is expected with the order.
func (m PaymentMethod) RequiresProof() bool {
	return m.Valid() && m != PaymentCashOnDelivery
}

type ShippingAddress struct {
	Address    string `gorm:"type:text" json:"address"`
	City       string `gorm:"type:varchar(100)" json:"city"`
	PostalCode string `gorm:"type:varchar(20)" json:"postalCode"`
	Country    string `gorm:"type:varchar(100)" json:"country"`
}

type Order struct {
	ID                uint            `gorm:"primarykey" json:"id"`
	OrderNumber       string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"orderNumber"` // SPS-YYMMDD-NNNNN
	CustomerName      string          `gorm:"not null" json:"customerName"`
	CustomerEmail     string          `gorm:"not null;index" json:"customerEmail"`
	CustomerPhone     string          `gorm:"type:varchar(30)" json:"customerPhone"`
	ShippingAddress   ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`
	TotalPrice        float64         `gorm:"not null" json:"totalPrice"`
	PaymentMethod     PaymentMethod   `gorm:"type:varchar(30);not null" json:"paymentMethod"`
	PaymentScreenshot string          `json:"paymentScreenshot,omitempty"` // proof URL for prepaid orders
	IsPaid            bool            `gorm:"default:false" json:"isPaid"`
	PaidAt            *time.Time      `json:"paidAt,omitempty"`
	TrackingStatus    TrackingStatus  `gorm:"type:varchar(20);default:'Order Received';index" json:"trackingStatus"`
	IsDelivered       bool            `gorm:"default:false" json:"isDelivered"`
	DeliveredAt       *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`

	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"orderItems"`
	TrackingHistory []TrackingEvent `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"trackingHistory"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is a snapshot of the product at checkout, not a live reference.
type OrderItem struct {
	ID        uint    `gorm:"primarykey" json:"id"`
	OrderID   uint    `gorm:"not null;index" json:"-"`
	ProductID uint    `gorm:"index" json:"product"`
	Title     string  `gorm:"not null" json:"title"`
	Price     float64 `gorm:"not null" json:"price"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	Image     string  `json:"image"`
	Size      string  `gorm:"type:varchar(20)" json:"size,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// TrackingEvent is one append-only entry of an order's tracking history.
type TrackingEvent struct {
	ID        uint           `gorm:"primarykey" json:"-"`
	OrderID   uint           `gorm:"not null;index" json:"-"`
	Status    TrackingStatus `gorm:"type:varchar(20);not null" json:"status"`
	Timestamp time.Time      `gorm:"column:recorded_at;not null" json:"timestamp"`
	Note      string         `gorm:"type:text" json:"note"`
}

func (TrackingEvent) TableName() string {
	return "order_tracking_events"
}

// OrderCounter holds the last issued order sequence for one calendar day.
type OrderCounter struct {
	Day       string `gorm:"type:varchar(6);primaryKey"` // YYMMDD
	Seq       int64  `gorm:"not null"`
	UpdatedAt time.Time
}

func (OrderCounter) TableName() string {
	return "order_counters"
}
