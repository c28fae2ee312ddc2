package models

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists all statuses in display order, used by the analytics
// status breakdown.
var OrderStatuses = []OrderStatus{
	OrderPending, OrderConfirmed, OrderPreparing, OrderReady, OrderDelivered, OrderCancelled,
}

type OrderType string

const (
	OrderForMe      OrderType = "Order for Me"
	OrderDonateMeal OrderType = "Donate a Meal"
)

func (t OrderType) Valid() bool {
	return t == OrderForMe || t == OrderDonateMeal
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Subtotal float64 `json:"subtotal"`
}

type CustomerFeedback struct {
	Rating  int       `json:"rating"`
	Comment string    `json:"comment,omitempty"`
	AddedAt time.Time `json:"addedAt"`
}

// Order is a purchase or donated-meal record. The lifecycle core only
// reads orders; creation and feedback submission feed the aggregator.
// PaymentMethod is stored as-is, no payment logic runs here.
type Order struct {
	ID               string            `json:"id"`
	RestaurantID     string            `json:"restaurant"`
	RestaurantName   string            `json:"restaurantName"`
	CustomerID       string            `json:"customer"`
	CustomerName     string            `json:"customerName"`
	Items            []OrderItem       `json:"items"`
	TotalAmount      float64           `json:"totalAmount"`
	OrderType        OrderType         `json:"orderType"`
	Status           OrderStatus       `json:"status"`
	PaymentStatus    PaymentStatus     `json:"paymentStatus"`
	PaymentMethod    string            `json:"paymentMethod"`
	DeliveryAddress  string            `json:"deliveryAddress,omitempty"`
	CustomerFeedback *CustomerFeedback `json:"customerFeedback,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	CompletedAt      *time.Time        `json:"completedAt,omitempty"`
}
