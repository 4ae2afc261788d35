package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo adalah aggregate store untuk orders + order_items.
// Header dan item selalu dibuat dalam satu transaksi.
type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `
	o.id, o.business_id, o.user_id, o.order_number,
	o.subtotal_cents, o.discount_cents, o.tax_cents, o.total_cents,
	o.discount_id, o.pickup_at, o.special_instructions, o.status,
	o.arrival_code, o.cancelled_by, o.cancellation_reason,
	o.created_at, o.updated_at,
	o.confirmed_at, o.preparation_started_at, o.ready_at, o.picked_up_at,
	o.cancelled_at, o.customer_arrived_at,
	p.status, p.payment_method`

const paymentJoin = `
	LEFT JOIN payments p ON p.payment_for = 'order' AND p.payment_for_id = o.id`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.BusinessID, &o.UserID, &o.OrderNumber,
		&o.SubtotalCents, &o.DiscountCents, &o.TaxCents, &o.TotalCents,
		&o.DiscountID, &o.PickupAt, &o.SpecialInstructions, &o.Status,
		&o.ArrivalCode, &o.CancelledBy, &o.CancellationReason,
		&o.CreatedAt, &o.UpdatedAt,
		&o.ConfirmedAt, &o.PreparationStartedAt, &o.ReadyAt, &o.PickedUpAt,
		&o.CancelledAt, &o.CustomerArrivedAt,
		&o.PaymentStatus, &o.PaymentMethod,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder menyimpan header + semua item + reservasi stok per item dalam
// SATU transaksi. Kalau satu item saja gagal (stok kurang, produk tak ada),
// seluruh order batal tanpa jejak.
func (r *Repo) CreateOrder(ctx context.Context, d OrderDraft) (*Order, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	arrival, err := NewArrivalCode()
	if err != nil {
		return nil, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	orderID := uuid.NewString()
	now := time.Now().UTC()
	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, business_id, user_id, order_number,
			subtotal_cents, discount_cents, tax_cents, total_cents,
			discount_id, pickup_at, special_instructions, status, arrival_code,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$14)`,
		orderID, d.BusinessID, d.UserID, d.OrderNumber,
		d.SubtotalCents, d.DiscountCents, d.TaxCents, d.TotalCents,
		d.DiscountID, d.PickupAt, d.SpecialInstructions, string(StatusPending), arrival,
		now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateOrderNumber
		}
		return nil, err
	}

	for _, it := range d.Items {
		// reservasi di transaksi yang sama: gagal -> rollback semuanya
		if _, err := reserveForSale(ctx, tx, it.ProductID, it.Quantity, d.OrderNumber, &d.UserID); err != nil {
			return nil, err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, quantity, unit_price_cents, total_price_cents, special_requests)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			uuid.NewString(), orderID, it.ProductID, it.Quantity,
			it.UnitPriceCents, int64(it.Quantity)*it.UnitPriceCents, it.SpecialRequests)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	// read-your-write: balikan order hasil select, bukan draft
	return r.GetOrder(ctx, orderID)
}

func (r *Repo) GetOrder(ctx context.Context, id string) (*Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT`+orderColumns+` FROM orders o`+paymentJoin+` WHERE o.id=$1`, id))
	if err != nil {
		return nil, err
	}
	items, err := r.itemsOf(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *Repo) itemsOf(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price_cents, total_price_cents, special_requests
		FROM order_items WHERE order_id=$1 ORDER BY product_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPriceCents, &it.TotalPriceCents, &it.SpecialRequests); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListByBusiness menyembunyikan order gateway yang belum paid: bisnis baru
// boleh lihat order setelah pembayaran online terkonfirmasi. Order cash
// selalu tampil. Aturan ini diturunkan ulang setiap read, bukan di-cache.
func (r *Repo) ListByBusiness(ctx context.Context, businessID string) ([]Order, error) {
	return r.list(ctx, `SELECT`+orderColumns+` FROM orders o`+paymentJoin+`
		WHERE o.business_id=$1
		  AND (p.payment_for_id IS NULL OR p.payment_method='cash' OR p.status='paid')
		ORDER BY o.created_at DESC`, businessID)
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.list(ctx, `SELECT`+orderColumns+` FROM orders o`+paymentJoin+`
		WHERE o.user_id=$1 ORDER BY o.created_at DESC`, userID)
}

func (r *Repo) ListAll(ctx context.Context) ([]Order, error) {
	return r.list(ctx, `SELECT`+orderColumns+` FROM orders o`+paymentJoin+`
		ORDER BY o.created_at DESC`)
}

func (r *Repo) list(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
