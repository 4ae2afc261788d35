// Package paymentwatch menerapkan laporan status dari payment gateway ke
// engine order: record payments di-update, dan laporan failed memicu
// pembatalan sistem (status order -> failed_payment, stok dikembalikan).
package paymentwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-pickup-orders.git/internal/kafka"
	"github.com/ariefcatur/go-pickup-orders.git/internal/orders"
	"github.com/ariefcatur/go-pickup-orders.git/internal/payments"
	"github.com/ariefcatur/go-pickup-orders.git/internal/redisx"
)

const maxCancelAttempts = 3

type Service struct {
	Store       *payments.Store
	Lifecycle   *orders.Lifecycle
	Redis       *redis.Client
	Producer    *kafkax.Producer // publish order.cancelled hasil pembatalan sistem
	ServiceName string
}

// HandlePaymentUpdated dipasang sebagai handler consumer di topic
// pickup.payment.updated.
func (s *Service) HandlePaymentUpdated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventPaymentUpdated {
		return nil // ignore
	}

	// dedup via redis pakai event_id
	dkey := fmt.Sprintf(redisx.KeyDedup, "paymentwatch", env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.PaymentUpdatedPayload](env.Payload)
	if err != nil {
		return err
	}
	status := payments.Status(p.Status)
	if !payments.IsKnownStatus(status) {
		log.Printf("payment event %s: unknown status %q, skip", env.EventID, p.Status)
		return nil
	}

	// record gateway adalah source of truth status pembayaran
	if err := s.Store.UpsertStatus(ctx, p.OrderID, status, p.Method, p.GatewayRef); err != nil {
		return err
	}

	if status == payments.StatusFailed {
		if err := s.cancelForFailedPayment(ctx, p.OrderID, env.TraceID); err != nil {
			return err
		}
	}

	// cache status order bisa basi setelah pembatalan; cukup invalidate
	_ = s.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID)).Err()

	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	return nil
}

func (s *Service) cancelForFailedPayment(ctx context.Context, orderID, traceID string) error {
	var err error
	for attempt := 1; attempt <= maxCancelAttempts; attempt++ {
		err = s.Lifecycle.Cancel(ctx, orderID, "payment failed", orders.CancelledBySystem)
		switch {
		case err == nil:
			s.publishCancelled(ctx, orderID, traceID)
			return nil
		case errors.Is(err, orders.ErrAlreadyCancelled):
			return nil // sudah batal, laporan ulang gateway
		case errors.Is(err, orders.ErrCannotCancelCompleted):
			// pembayaran gagal setelah pickup: perlu manusia, jangan redeliver terus
			log.Printf("order %s: failed payment reported after pickup", orderID)
			return nil
		case errors.Is(err, orders.ErrOrderNotFound):
			log.Printf("order %s: payment report for unknown order", orderID)
			return nil
		case isTransient(err):
			time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
			continue
		default:
			return err
		}
	}
	return err
}

func (s *Service) publishCancelled(ctx context.Context, orderID, traceID string) {
	number := ""
	if o, err := s.Lifecycle.Repo.GetOrder(ctx, orderID); err == nil {
		number = o.OrderNumber
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCancelled,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       traceID,
		CorrelationID: orderID,
		Payload: kafkax.MustMarshal(orders.OrderCancelledPayload{
			OrderID:     orderID,
			OrderNumber: number,
			CancelledBy: string(orders.CancelledBySystem),
			Reason:      "payment failed",
		}),
	}
	s.Producer.Publish(orders.TopicOrderCancelled, orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCancelled)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// isTransient: serialization failure / lock timeout dari Postgres,
// aman dicoba ulang terbatas.
func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "55P03": // serialization, deadlock, lock_not_available
		return true
	}
	return false
}
