package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-pickup-orders.git/internal/kafka"
	"github.com/ariefcatur/go-pickup-orders.git/internal/orders"
	"github.com/ariefcatur/go-pickup-orders.git/internal/payments"
	"github.com/ariefcatur/go-pickup-orders.git/internal/redisx"
)

type OrdersHandler struct {
	Repo      *orders.Repo
	Stock     *orders.StockLedger
	Lifecycle *orders.Lifecycle
	Payments  *payments.Store
	Producer  *kafkax.Producer
	Redis     *redis.Client
	Service   string
	StatsTTL  time.Duration
}

type SubmitItemReq struct {
	ProductID       string  `json:"product_id"`
	Quantity        int     `json:"quantity"`
	UnitPriceCents  int64   `json:"unit_price_cents"`
	SpecialRequests *string `json:"special_requests,omitempty"`
}

type SubmitOrderReq struct {
	BusinessID          string          `json:"business_id"`
	UserID              string          `json:"user_id"`
	Items               []SubmitItemReq `json:"items"`
	OrderNumber         string          `json:"order_number,omitempty"`
	SubtotalCents       int64           `json:"subtotal_cents"`
	DiscountCents       int64           `json:"discount_cents"`
	TaxCents            int64           `json:"tax_cents"`
	TotalCents          int64           `json:"total_cents"`
	DiscountID          *string         `json:"discount_id,omitempty"`
	PickupAt            time.Time       `json:"pickup_at"`
	SpecialInstructions *string         `json:"special_instructions,omitempty"`
	PaymentMethod       string          `json:"payment_method,omitempty"` // default cash
}

type CancelOrderReq struct {
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelled_by"` // user|business|system
}

type ForceStatusReq struct {
	Status orders.Status `json:"status"`
}

type VerifyArrivalReq struct {
	BusinessID string `json:"business_id"`
	Code       string `json:"code"`
}

type AdjustStockReq struct {
	Delta   int     `json:"delta"`
	Notes   string  `json:"notes"`
	ActorID *string `json:"actor_id,omitempty"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.submitOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/accept", h.mark(orders.StatusAccepted))
	r.Post("/orders/{id}/prepare", h.mark(orders.StatusPreparing))
	r.Post("/orders/{id}/ready", h.mark(orders.StatusReadyForPickup))
	r.Post("/orders/{id}/pickup", h.mark(orders.StatusPickedUp))
	r.Post("/orders/{id}/arrived", h.markArrived)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
	r.Post("/orders/{id}/status", h.forceStatus) // override admin, tanpa guard transisi
	r.Post("/arrivals/verify", h.verifyArrival)
	r.Get("/businesses/{id}/stats", h.businessStats)
	r.Get("/stock/{productID}", h.getStock)
	r.Get("/stock/{productID}/history", h.stockHistory)
	r.Post("/stock/{productID}/adjust", h.adjustStock)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusCode memetakan error bertipe dari engine ke kode HTTP.
func statusCode(err error) int {
	var insufficient *orders.InsufficientStockError
	var invalid *orders.InvalidTransitionError
	switch {
	case errors.As(err, &insufficient),
		errors.Is(err, orders.ErrDuplicateOrderNumber):
		return http.StatusConflict
	case errors.As(err, &invalid),
		errors.Is(err, orders.ErrAlreadyCancelled),
		errors.Is(err, orders.ErrCannotCancelCompleted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, orders.ErrStockNotFound),
		errors.Is(err, payments.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrNoItems),
		errors.Is(err, orders.ErrInvalidQuantity),
		errors.Is(err, orders.ErrTotalMismatch),
		errors.Is(err, orders.ErrUnknownStatus):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeErr(w http.ResponseWriter, err error) {
	writeJSON(w, statusCode(err), map[string]string{"error": err.Error()})
}

func (h *OrdersHandler) publish(topic, eventType, orderID, traceID string, payload any) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       traceID,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	h.Producer.Publish(topic, orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, orderID string, st orders.Status) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = h.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, st), redisx.TTLStatusCache).Err()
}

func (h *OrdersHandler) submitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.BusinessID == "" || req.UserID == "" || len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	number := req.OrderNumber
	if number == "" {
		var err error
		number, err = orders.NewOrderNumber(time.Now())
		if err != nil {
			writeErr(w, err)
			return
		}
	}

	draft := orders.OrderDraft{
		BusinessID:          req.BusinessID,
		UserID:              req.UserID,
		OrderNumber:         number,
		SubtotalCents:       req.SubtotalCents,
		DiscountCents:       req.DiscountCents,
		TaxCents:            req.TaxCents,
		TotalCents:          req.TotalCents,
		DiscountID:          req.DiscountID,
		PickupAt:            req.PickupAt,
		SpecialInstructions: req.SpecialInstructions,
	}
	for _, it := range req.Items {
		draft.Items = append(draft.Items, orders.ItemDraft{
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			UnitPriceCents:  it.UnitPriceCents,
			SpecialRequests: it.SpecialRequests,
		})
	}

	o, err := h.Repo.CreateOrder(ctx, draft)
	if err != nil {
		var insufficient *orders.InsufficientStockError
		if errors.As(err, &insufficient) {
			h.publish(orders.TopicStockRejected, orders.EventStockRejected, number,
				r.Header.Get("X-Request-Id"), orders.StockRejectedPayload{
					OrderNumber: number,
					Reason:      "OUT_OF_STOCK",
					Details: []orders.StockRejectedDetail{{
						ProductID: insufficient.ProductID,
						Required:  insufficient.Required,
						Available: insufficient.Available,
					}},
				})
		}
		writeErr(w, err)
		return
	}

	method := req.PaymentMethod
	if method == "" {
		method = "cash"
	}
	if err := h.Payments.UpsertStatus(ctx, o.ID, payments.StatusPending, method, nil); err != nil {
		writeErr(w, err)
		return
	}

	h.cacheStatus(ctx, o.ID, o.Status)
	h.publish(orders.TopicOrderCreated, orders.EventOrderCreated, o.ID,
		r.Header.Get("X-Request-Id"), orders.OrderCreatedPayload{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			BusinessID:  o.BusinessID,
			UserID:      o.UserID,
			TotalCents:  o.TotalCents,
			ItemCount:   len(o.Items),
		})

	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Repo.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var (
		list []orders.Order
		err  error
	)
	switch {
	case r.URL.Query().Get("business_id") != "":
		list, err = h.Repo.ListByBusiness(ctx, r.URL.Query().Get("business_id"))
	case r.URL.Query().Get("user_id") != "":
		list, err = h.Repo.ListByUser(ctx, r.URL.Query().Get("user_id"))
	default:
		list, err = h.Repo.ListAll(ctx)
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// mark membungkus transisi terjaga jadi handler: accept/prepare/ready/pickup.
func (h *OrdersHandler) mark(to orders.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "id")
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		var err error
		switch to {
		case orders.StatusAccepted:
			err = h.Lifecycle.Accept(ctx, orderID)
		case orders.StatusPreparing:
			err = h.Lifecycle.StartPreparing(ctx, orderID)
		case orders.StatusReadyForPickup:
			err = h.Lifecycle.MarkReady(ctx, orderID)
		case orders.StatusPickedUp:
			err = h.Lifecycle.MarkPickedUp(ctx, orderID)
		}
		if err != nil {
			writeErr(w, err)
			return
		}

		h.cacheStatus(ctx, orderID, to)
		h.publish(orders.TopicOrderStatus, orders.EventOrderStatusChanged, orderID,
			r.Header.Get("X-Request-Id"), orders.OrderStatusChangedPayload{OrderID: orderID, NewStatus: to})
		writeJSON(w, http.StatusOK, map[string]orders.Status{"status": to})
	}
}

func (h *OrdersHandler) markArrived(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Lifecycle.MarkArrived(ctx, orderID); err != nil {
		writeErr(w, err)
		return
	}
	o, err := h.Repo.GetOrder(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.publish(orders.TopicCustomerArrived, orders.EventCustomerArrived, orderID,
		r.Header.Get("X-Request-Id"), orders.CustomerArrivedPayload{OrderID: orderID, BusinessID: o.BusinessID})
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var req CancelOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	by := orders.Canceller(req.CancelledBy)
	switch by {
	case orders.CancelledByUser, orders.CancelledByBusiness, orders.CancelledBySystem:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cancelled_by must be user, business, or system"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Lifecycle.Cancel(ctx, orderID, req.Reason, by); err != nil {
		writeErr(w, err)
		return
	}

	o, err := h.Repo.GetOrder(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.cacheStatus(ctx, orderID, o.Status)
	h.publish(orders.TopicOrderCancelled, orders.EventOrderCancelled, orderID,
		r.Header.Get("X-Request-Id"), orders.OrderCancelledPayload{
			OrderID:     orderID,
			OrderNumber: o.OrderNumber,
			CancelledBy: req.CancelledBy,
			Reason:      req.Reason,
		})
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) forceStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var req ForceStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Lifecycle.ForceStatus(ctx, orderID, req.Status); err != nil {
		writeErr(w, err)
		return
	}
	h.cacheStatus(ctx, orderID, req.Status)
	h.publish(orders.TopicOrderStatus, orders.EventOrderStatusChanged, orderID,
		r.Header.Get("X-Request-Id"), orders.OrderStatusChangedPayload{OrderID: orderID, NewStatus: req.Status})
	writeJSON(w, http.StatusOK, map[string]orders.Status{"status": req.Status})
}

func (h *OrdersHandler) verifyArrival(w http.ResponseWriter, r *http.Request) {
	var req VerifyArrivalReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.BusinessID == "" || req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// verifikasi read-only; kedatangan baru dicatat lewat /arrived
	o, err := h.Lifecycle.VerifyArrivalCode(ctx, req.BusinessID, req.Code)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) businessStats(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "id")
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		_, _ = fmt.Sscanf(v, "%d", &days)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// proyeksi murni: boleh dilayani dari cache singkat
	key := fmt.Sprintf(redisx.KeyBusinessStats, businessID, days)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(s))
		return
	}

	stats, err := h.Repo.GetStats(ctx, businessID, days)
	if err != nil {
		writeErr(w, err)
		return
	}
	b, _ := json.Marshal(stats)
	_ = h.Redis.Set(ctx, key, b, h.StatsTTL).Err()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *OrdersHandler) getStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Stock.GetStock(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *OrdersHandler) stockHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	hist, err := h.Stock.History(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

func (h *OrdersHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var req AdjustStockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	hEntry, err := h.Stock.Adjust(ctx, chi.URLParam(r, "productID"), req.Delta, req.Notes, req.ActorID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hEntry)
}
