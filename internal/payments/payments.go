// Package payments adalah adapter ke record pembayaran milik gateway.
// Engine order membaca/menulis status lewat sini dan tidak pernah
// menduplikasi status pembayaran ke row order.
package payments

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusFailed   Status = "failed"
	StatusRefunded Status = "refunded"
)

func IsKnownStatus(s Status) bool {
	switch s {
	case StatusPending, StatusPaid, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

const paymentForOrder = "order"

var ErrNotFound = errors.New("payment not found")

type Payment struct {
	PaymentFor   string    `json:"payment_for"`
	PaymentForID string    `json:"payment_for_id"`
	Status       Status    `json:"status"`
	Method       string    `json:"payment_method"`
	GatewayRef   *string   `json:"gateway_ref,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Store struct{ DB *pgxpool.Pool }

func (s *Store) Get(ctx context.Context, orderID string) (Payment, error) {
	var p Payment
	err := s.DB.QueryRow(ctx, `
		SELECT payment_for, payment_for_id, status, payment_method, gateway_ref, updated_at
		FROM payments WHERE payment_for=$1 AND payment_for_id=$2`,
		paymentForOrder, orderID).
		Scan(&p.PaymentFor, &p.PaymentForID, &p.Status, &p.Method, &p.GatewayRef, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, ErrNotFound
	}
	if err != nil {
		return Payment{}, err
	}
	return p, nil
}

func (s *Store) ReadStatus(ctx context.Context, orderID string) (Status, error) {
	p, err := s.Get(ctx, orderID)
	if err != nil {
		return "", err
	}
	return p.Status, nil
}

// UpsertStatus mencatat laporan gateway (atau record awal saat submit).
func (s *Store) UpsertStatus(ctx context.Context, orderID string, status Status, method string, gatewayRef *string) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO payments(payment_for, payment_for_id, status, payment_method, gateway_ref, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
		ON CONFLICT (payment_for, payment_for_id)
		DO UPDATE SET status=EXCLUDED.status,
		              payment_method=EXCLUDED.payment_method,
		              gateway_ref=COALESCE(EXCLUDED.gateway_ref, payments.gateway_ref),
		              updated_at=now()`,
		paymentForOrder, orderID, string(status), method, gatewayRef)
	return err
}

// ForceStatusTx dipakai jalur pembatalan sistem: flip status di dalam
// transaksi cancel supaya atomik dengan restore stok.
func ForceStatusTx(ctx context.Context, tx pgx.Tx, orderID string, status Status) error {
	_, err := tx.Exec(ctx, `
		UPDATE payments SET status=$3, updated_at=now()
		WHERE payment_for=$1 AND payment_for_id=$2`,
		paymentForOrder, orderID, string(status))
	return err
}
