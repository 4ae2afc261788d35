package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderCancelled     = "OrderCancelled"
	EventCustomerArrived    = "CustomerArrived"
	EventStockRejected      = "StockRejected"
	EventPaymentUpdated     = "PaymentUpdated" // diterima dari gateway
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- payload per event ----

type OrderCreatedPayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	BusinessID  string `json:"business_id"`
	UserID      string `json:"user_id"`
	TotalCents  int64  `json:"total_cents"`
	ItemCount   int    `json:"item_count"`
}

type OrderStatusChangedPayload struct {
	OrderID   string `json:"order_id"`
	NewStatus Status `json:"new_status"`
}

type OrderCancelledPayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	CancelledBy string `json:"cancelled_by"`
	Reason      string `json:"reason"`
}

type CustomerArrivedPayload struct {
	OrderID    string `json:"order_id"`
	BusinessID string `json:"business_id"`
}

type StockRejectedDetail struct {
	ProductID string `json:"product_id"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

type StockRejectedPayload struct {
	OrderNumber string                `json:"order_number"`
	Reason      string                `json:"reason"` // OUT_OF_STOCK
	Details     []StockRejectedDetail `json:"details,omitempty"`
}

// PaymentUpdatedPayload: laporan status dari payment gateway.
type PaymentUpdatedPayload struct {
	OrderID    string  `json:"order_id"`
	Status     string  `json:"status"` // pending|paid|failed|refunded
	Method     string  `json:"payment_method"`
	GatewayRef *string `json:"gateway_ref,omitempty"`
}
