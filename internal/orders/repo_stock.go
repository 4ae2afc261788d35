package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StockLedger adalah satu-satunya pemilik product_stock + stock_history.
// Semua mutasi lewat lock per-produk (SELECT ... FOR UPDATE) supaya
// read-check-write tidak pernah balapan di produk yang sama.
type StockLedger struct{ DB *pgxpool.Pool }

// reserveForSale: dipanggil di dalam transaksi milik caller (CreateOrder).
// Lock row stok -> cek cukup -> kurangi -> append history 'sale'.
func reserveForSale(ctx context.Context, tx pgx.Tx, productID string, qty int, orderNumber string, actorID *string) (StockHistory, error) {
	if qty <= 0 {
		return StockHistory{}, ErrInvalidQuantity
	}
	var cur int
	err := tx.QueryRow(ctx, `SELECT current_stock FROM product_stock WHERE product_id=$1 FOR UPDATE`, productID).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return StockHistory{}, ErrStockNotFound
	}
	if err != nil {
		return StockHistory{}, err
	}

	next := cur - qty
	if next < 0 {
		return StockHistory{}, &InsufficientStockError{ProductID: productID, Required: qty, Available: cur}
	}

	// flag availability ikut stok: habis -> out of stock, selain itu aktif
	if _, err := tx.Exec(ctx, `
		UPDATE product_stock SET current_stock=$2, is_available=($2 > 0), updated_at=now()
		WHERE product_id=$1`, productID, next); err != nil {
		return StockHistory{}, err
	}

	return appendHistory(ctx, tx, StockHistory{
		ProductID:      productID,
		ChangeType:     ChangeSale,
		QuantityChange: -qty,
		PreviousStock:  cur,
		NewStock:       next,
		Notes:          fmt.Sprintf("Order: %s", orderNumber),
		CreatedBy:      actorID,
	})
}

// restoreFromCancellation: kebalikan reserve. Tidak ada batas atas, tapi tetap
// lewat lock yang sama supaya serial dengan sale yang berjalan bersamaan.
func restoreFromCancellation(ctx context.Context, tx pgx.Tx, productID string, qty int, orderNumber string) (StockHistory, error) {
	if qty <= 0 {
		return StockHistory{}, ErrInvalidQuantity
	}
	var cur int
	err := tx.QueryRow(ctx, `SELECT current_stock FROM product_stock WHERE product_id=$1 FOR UPDATE`, productID).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return StockHistory{}, ErrStockNotFound
	}
	if err != nil {
		return StockHistory{}, err
	}

	next := cur + qty
	if _, err := tx.Exec(ctx, `
		UPDATE product_stock SET current_stock=$2, is_available=($2 > 0), updated_at=now()
		WHERE product_id=$1`, productID, next); err != nil {
		return StockHistory{}, err
	}

	return appendHistory(ctx, tx, StockHistory{
		ProductID:      productID,
		ChangeType:     ChangeAdjustment,
		QuantityChange: qty,
		PreviousStock:  cur,
		NewStock:       next,
		Notes:          fmt.Sprintf("Order cancelled: %s", orderNumber),
	})
}

func appendHistory(ctx context.Context, tx pgx.Tx, h StockHistory) (StockHistory, error) {
	h.ID = uuid.NewString()
	h.CreatedAt = time.Now().UTC()
	_, err := tx.Exec(ctx, `
		INSERT INTO stock_history(id, product_id, change_type, quantity_change, previous_stock, new_stock, notes, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		h.ID, h.ProductID, h.ChangeType, h.QuantityChange, h.PreviousStock, h.NewStock, h.Notes, h.CreatedBy, h.CreatedAt)
	if err != nil {
		return StockHistory{}, err
	}
	return h, nil
}

// ReserveForSale: varian standalone dengan transaksi sendiri.
func (l *StockLedger) ReserveForSale(ctx context.Context, productID string, qty int, orderNumber string, actorID *string) (StockHistory, error) {
	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return StockHistory{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	h, err := reserveForSale(ctx, tx, productID, qty, orderNumber, actorID)
	if err != nil {
		return StockHistory{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return StockHistory{}, err
	}
	return h, nil
}

// RestoreFromCancellation: varian standalone dengan transaksi sendiri.
func (l *StockLedger) RestoreFromCancellation(ctx context.Context, productID string, qty int, orderNumber string) (StockHistory, error) {
	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return StockHistory{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	h, err := restoreFromCancellation(ctx, tx, productID, qty, orderNumber)
	if err != nil {
		return StockHistory{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return StockHistory{}, err
	}
	return h, nil
}

// Adjust: koreksi stok manual oleh ops (stock opname dll). Delta boleh
// negatif tapi tidak boleh membuat stok di bawah nol.
func (l *StockLedger) Adjust(ctx context.Context, productID string, delta int, notes string, actorID *string) (StockHistory, error) {
	if delta == 0 {
		return StockHistory{}, ErrInvalidQuantity
	}
	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return StockHistory{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur int
	err = tx.QueryRow(ctx, `SELECT current_stock FROM product_stock WHERE product_id=$1 FOR UPDATE`, productID).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return StockHistory{}, ErrStockNotFound
	}
	if err != nil {
		return StockHistory{}, err
	}

	next := cur + delta
	if next < 0 {
		return StockHistory{}, &InsufficientStockError{ProductID: productID, Required: -delta, Available: cur}
	}
	if _, err := tx.Exec(ctx, `
		UPDATE product_stock SET current_stock=$2, is_available=($2 > 0), updated_at=now()
		WHERE product_id=$1`, productID, next); err != nil {
		return StockHistory{}, err
	}

	h, err := appendHistory(ctx, tx, StockHistory{
		ProductID:      productID,
		ChangeType:     ChangeAdjustment,
		QuantityChange: delta,
		PreviousStock:  cur,
		NewStock:       next,
		Notes:          notes,
		CreatedBy:      actorID,
	})
	if err != nil {
		return StockHistory{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return StockHistory{}, err
	}
	return h, nil
}

func (l *StockLedger) GetStock(ctx context.Context, productID string) (ProductStock, error) {
	var p ProductStock
	err := l.DB.QueryRow(ctx, `
		SELECT product_id, current_stock, is_available, updated_at
		FROM product_stock WHERE product_id=$1`, productID).
		Scan(&p.ProductID, &p.CurrentStock, &p.IsAvailable, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductStock{}, ErrStockNotFound
	}
	if err != nil {
		return ProductStock{}, err
	}
	return p, nil
}

// History mengembalikan ledger satu produk urut waktu commit; replay
// quantity_change dari sini harus menghasilkan current_stock.
func (l *StockLedger) History(ctx context.Context, productID string) ([]StockHistory, error) {
	rows, err := l.DB.Query(ctx, `
		SELECT id, product_id, change_type, quantity_change, previous_stock, new_stock, notes, created_by, created_at
		FROM stock_history WHERE product_id=$1 ORDER BY seq`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockHistory
	for rows.Next() {
		var h StockHistory
		if err := rows.Scan(&h.ID, &h.ProductID, &h.ChangeType, &h.QuantityChange, &h.PreviousStock, &h.NewStock, &h.Notes, &h.CreatedBy, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
