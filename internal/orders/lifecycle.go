package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-pickup-orders.git/internal/payments"
)

// Lifecycle menjalankan state machine order. Transisi internal selalu lewat
// method bernama (Accept, MarkReady, Cancel, ...) yang menjaga tabel transisi;
// ForceStatus adalah satu-satunya jalan pintas dan hanya untuk jalur admin.
type Lifecycle struct {
	DB   *pgxpool.Pool
	Repo *Repo
}

func lockStatus(ctx context.Context, tx pgx.Tx, orderID string) (Status, string, error) {
	var st Status
	var number string
	err := tx.QueryRow(ctx, `SELECT status, order_number FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&st, &number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", ErrOrderNotFound
	}
	if err != nil {
		return "", "", err
	}
	return st, number, nil
}

// setStatusTx menulis status + stamp milestone yang cocok via COALESCE:
// timestamp lama tidak pernah di-reset walau status berubah lagi.
func setStatusTx(ctx context.Context, tx pgx.Tx, orderID string, st Status) error {
	set := "status=$2, updated_at=now()"
	if col := milestoneColumn(st); col != "" {
		set += fmt.Sprintf(", %s = COALESCE(%s, now())", col, col)
	}
	_, err := tx.Exec(ctx, `UPDATE orders SET `+set+` WHERE id=$1`, orderID, string(st))
	return err
}

// transition: lock row order -> cek tabel transisi -> tulis status+milestone.
func (lc *Lifecycle) transition(ctx context.Context, orderID string, to Status) error {
	tx, err := lc.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	from, _, err := lockStatus(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	if err := setStatusTx(ctx, tx, orderID, to); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (lc *Lifecycle) Accept(ctx context.Context, orderID string) error {
	return lc.transition(ctx, orderID, StatusAccepted)
}

func (lc *Lifecycle) StartPreparing(ctx context.Context, orderID string) error {
	return lc.transition(ctx, orderID, StatusPreparing)
}

func (lc *Lifecycle) MarkReady(ctx context.Context, orderID string) error {
	return lc.transition(ctx, orderID, StatusReadyForPickup)
}

func (lc *Lifecycle) MarkPickedUp(ctx context.Context, orderID string) error {
	return lc.transition(ctx, orderID, StatusPickedUp)
}

// MarkArrived stamp customer_arrived_at sekali, tanpa mengubah status.
// Verifikasi kode dan penandaan kedatangan sengaja dua langkah terpisah.
func (lc *Lifecycle) MarkArrived(ctx context.Context, orderID string) error {
	tx, err := lc.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	st, _, err := lockStatus(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if !st.IsActive() {
		return &InvalidTransitionError{From: st, To: st}
	}
	if _, err := tx.Exec(ctx, `
		UPDATE orders SET customer_arrived_at = COALESCE(customer_arrived_at, now()), updated_at=now()
		WHERE id=$1`, orderID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ForceStatus menulis status apa pun tanpa cek transisi. Bypass guard,
// khusus override admin; jangan dipakai dari jalur normal.
func (lc *Lifecycle) ForceStatus(ctx context.Context, orderID string, st Status) error {
	if !IsKnownStatus(st) {
		return ErrUnknownStatus
	}
	tx, err := lc.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, _, err := lockStatus(ctx, tx, orderID); err != nil {
		return err
	}
	if err := setStatusTx(ctx, tx, orderID, st); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Cancel membatalkan order dan mengembalikan stok semua item sebagai satu
// unit atomik: restore per item + status + stempel cancelled + (untuk
// pembatalan sistem) flip payment ke failed, commit bareng atau tidak sama
// sekali.
func (lc *Lifecycle) Cancel(ctx context.Context, orderID, reason string, by Canceller) error {
	tx, err := lc.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	st, number, err := lockStatus(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if st.IsCancelled() {
		return ErrAlreadyCancelled
	}
	if st == StatusPickedUp {
		return ErrCannotCancelCompleted
	}

	rows, err := tx.Query(ctx, `SELECT product_id, quantity FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return err
	}
	type line struct {
		productID string
		qty       int
	}
	var lines []line
	for rows.Next() {
		var ln line
		if err := rows.Scan(&ln.productID, &ln.qty); err != nil {
			rows.Close()
			return err
		}
		lines = append(lines, ln)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	// kompensasi: satu row history 'adjustment' per item
	for _, ln := range lines {
		if _, err := restoreFromCancellation(ctx, tx, ln.productID, ln.qty, number); err != nil {
			return err
		}
	}

	terminal := by.TerminalStatus()
	set := "status=$2, cancelled_by=$3, cancellation_reason=$4, " +
		"cancelled_at = COALESCE(cancelled_at, now()), updated_at=now()"
	if _, err := tx.Exec(ctx, `UPDATE orders SET `+set+` WHERE id=$1`,
		orderID, string(terminal), string(by), reason); err != nil {
		return err
	}

	// hanya pembatalan sistem yang berarti pembayaran gagal;
	// status paid/refunded dari pembatalan user/bisnis dibiarkan
	if by == CancelledBySystem {
		if err := payments.ForceStatusTx(ctx, tx, orderID, payments.StatusFailed); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// VerifyArrivalCode mencocokkan kode hanya dengan order aktif
// (accepted/preparing/ready_for_pickup) milik bisnis itu. Order pending,
// batal, atau selesai tidak pernah match — kode basi tidak bisa dipakai ulang.
func (lc *Lifecycle) VerifyArrivalCode(ctx context.Context, businessID, code string) (*Order, error) {
	statuses := make([]string, len(activeStatuses))
	for i, s := range activeStatuses {
		statuses[i] = string(s)
	}
	var id string
	err := lc.DB.QueryRow(ctx, `
		SELECT id FROM orders
		WHERE business_id=$1 AND arrival_code=$2 AND status = ANY($3)`,
		businessID, code, statuses).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return lc.Repo.GetOrder(ctx, id)
}
