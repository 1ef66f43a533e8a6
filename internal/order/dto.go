package order

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusPending   Status = "PENDING"
	StatusReady     Status = "READY"
	StatusAssigned  Status = "ASSIGNED"
	StatusOnTheWay  Status = "ON_THE_WAY"
	StatusDelivered Status = "DELIVERED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

type Fulfillment string

const (
	FulfillmentDelivery Fulfillment = "DELIVERY"
	FulfillmentTakeaway Fulfillment = "TAKEAWAY"
	FulfillmentDineIn   Fulfillment = "DINE_IN"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "CASH"
	PaymentCard PaymentMethod = "CARD"
	// PaymentPaid marks pre-paid online orders; once set it is immutable.
	PaymentPaid PaymentMethod = "PAID"
)

type Order struct {
	ID               uuid.UUID      `db:"id" json:"id"`
	Number           string         `db:"number" json:"number"`
	Status           Status         `db:"status" json:"status"`
	Fulfillment      Fulfillment    `db:"fulfillment" json:"fulfillment"`
	TotalAmount      float64        `db:"total_amount" json:"total_amount"`
	CustomerName     string         `db:"customer_name" json:"customer_name"`
	CustomerPhone    string         `db:"customer_phone" json:"customer_phone"`
	DeliveryAddress  *string        `db:"delivery_address" json:"delivery_address,omitempty"`
	AssignedDriverID *string        `db:"assigned_driver_id" json:"assigned_driver_id,omitempty"`
	PaymentMethod    *PaymentMethod `db:"payment_method" json:"payment_method,omitempty"`
	PromisedMinutes  int            `db:"promised_minutes" json:"promised_minutes"`
	CompletedBy      *string        `db:"completed_by" json:"completed_by,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

type PageMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}
