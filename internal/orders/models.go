package orders

import "time"

type Order struct {
	ID                   string     `json:"id"`
	BusinessID           string     `json:"business_id"`
	UserID               string     `json:"user_id"`
	OrderNumber          string     `json:"order_number"`
	SubtotalCents        int64      `json:"subtotal_cents"`
	DiscountCents        int64      `json:"discount_cents"`
	TaxCents             int64      `json:"tax_cents"`
	TotalCents           int64      `json:"total_cents"`
	DiscountID           *string    `json:"discount_id,omitempty"`
	PickupAt             time.Time  `json:"pickup_at"`
	SpecialInstructions  *string    `json:"special_instructions,omitempty"`
	Status               Status     `json:"status"`
	ArrivalCode          *string    `json:"arrival_code,omitempty"`
	CancelledBy          *string    `json:"cancelled_by,omitempty"`
	CancellationReason   *string    `json:"cancellation_reason,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	ConfirmedAt          *time.Time `json:"confirmed_at,omitempty"`
	PreparationStartedAt *time.Time `json:"preparation_started_at,omitempty"`
	ReadyAt              *time.Time `json:"ready_at,omitempty"`
	PickedUpAt           *time.Time `json:"picked_up_at,omitempty"`
	CancelledAt          *time.Time `json:"cancelled_at,omitempty"`
	CustomerArrivedAt    *time.Time `json:"customer_arrived_at,omitempty"`

	// status pembayaran di-join dari record payments, tidak disimpan di orders
	PaymentStatus *string `json:"payment_status,omitempty"`
	PaymentMethod *string `json:"payment_method,omitempty"`

	Items []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	ID              string  `json:"id"`
	OrderID         string  `json:"order_id"`
	ProductID       string  `json:"product_id"`
	Quantity        int     `json:"quantity"`
	UnitPriceCents  int64   `json:"unit_price_cents"`
	TotalPriceCents int64   `json:"total_price_cents"`
	SpecialRequests *string `json:"special_requests,omitempty"`
}

type ProductStock struct {
	ProductID    string    `json:"product_id"`
	CurrentStock int       `json:"current_stock"`
	IsAvailable  bool      `json:"is_available"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	ChangeSale       = "sale"
	ChangeAdjustment = "adjustment"
)

type StockHistory struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	ChangeType     string    `json:"change_type"`
	QuantityChange int       `json:"quantity_change"`
	PreviousStock  int       `json:"previous_stock"`
	NewStock       int       `json:"new_stock"`
	Notes          string    `json:"notes"`
	CreatedBy      *string   `json:"created_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrderDraft adalah input CreateOrder; semua harga snapshot dari caller.
type OrderDraft struct {
	BusinessID          string
	UserID              string
	OrderNumber         string
	SubtotalCents       int64
	DiscountCents       int64
	TaxCents            int64
	TotalCents          int64
	DiscountID          *string
	PickupAt            time.Time
	SpecialInstructions *string
	Items               []ItemDraft
}

type ItemDraft struct {
	ProductID       string
	Quantity        int
	UnitPriceCents  int64
	SpecialRequests *string
}

// Validate cek konsistensi draft sebelum masuk transaksi:
// item tidak kosong, qty positif, subtotal = sum(item), total = subtotal - discount + tax.
func (d OrderDraft) Validate() error {
	if len(d.Items) == 0 {
		return ErrNoItems
	}
	var sum int64
	for _, it := range d.Items {
		if it.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		sum += int64(it.Quantity) * it.UnitPriceCents
	}
	if sum != d.SubtotalCents {
		return ErrTotalMismatch
	}
	if d.SubtotalCents-d.DiscountCents+d.TaxCents != d.TotalCents {
		return ErrTotalMismatch
	}
	return nil
}
