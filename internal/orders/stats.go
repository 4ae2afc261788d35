package orders

import (
	"context"
	"time"
)

// Stats: proyeksi read-only untuk dashboard bisnis, di luar inti transaksional.
type Stats struct {
	BusinessID     string          `json:"business_id"`
	PeriodDays     int             `json:"period_days"`
	TotalOrders    int             `json:"total_orders"`
	CountsByStatus map[Status]int  `json:"counts_by_status"`
	RevenueCents   int64           `json:"revenue_cents"` // hanya order picked_up
	DailyBreakdown []DailyStat     `json:"daily_breakdown"`
	TopProducts    []ProductVolume `json:"top_products"`
}

type DailyStat struct {
	Date         string `json:"date"`
	Orders       int    `json:"orders"`
	RevenueCents int64  `json:"revenue_cents"`
}

type ProductVolume struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	Orders    int    `json:"orders"`
}

func (r *Repo) GetStats(ctx context.Context, businessID string, periodDays int) (*Stats, error) {
	if periodDays <= 0 {
		periodDays = 30
	}
	s := &Stats{
		BusinessID:     businessID,
		PeriodDays:     periodDays,
		CountsByStatus: map[Status]int{},
	}

	rows, err := r.DB.Query(ctx, `
		SELECT status, COUNT(*),
		       COALESCE(SUM(total_cents) FILTER (WHERE status='picked_up'), 0)
		FROM orders
		WHERE business_id=$1 AND created_at >= now() - make_interval(days => $2)
		GROUP BY status`, businessID, periodDays)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var st Status
		var n int
		var rev int64
		if err := rows.Scan(&st, &n, &rev); err != nil {
			rows.Close()
			return nil, err
		}
		s.CountsByStatus[st] = n
		s.TotalOrders += n
		s.RevenueCents += rev
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.DB.Query(ctx, `
		SELECT created_at::date, COUNT(*),
		       COALESCE(SUM(total_cents) FILTER (WHERE status='picked_up'), 0)
		FROM orders
		WHERE business_id=$1 AND created_at >= now() - make_interval(days => $2)
		GROUP BY 1 ORDER BY 1`, businessID, periodDays)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var day time.Time
		var d DailyStat
		if err := rows.Scan(&day, &d.Orders, &d.RevenueCents); err != nil {
			rows.Close()
			return nil, err
		}
		d.Date = day.Format("2006-01-02")
		s.DailyBreakdown = append(s.DailyBreakdown, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// top 10 produk by qty, order yang dibatalkan tidak dihitung
	rows, err = r.DB.Query(ctx, `
		SELECT i.product_id, SUM(i.quantity), COUNT(DISTINCT i.order_id)
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE o.business_id=$1
		  AND o.created_at >= now() - make_interval(days => $2)
		  AND o.status NOT IN ('cancelled_by_user','cancelled_by_business','failed_payment')
		GROUP BY i.product_id
		ORDER BY 2 DESC, 1
		LIMIT 10`, businessID, periodDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p ProductVolume
		if err := rows.Scan(&p.ProductID, &p.Quantity, &p.Orders); err != nil {
			return nil, err
		}
		s.TopProducts = append(s.TopProducts, p)
	}
	return s, rows.Err()
}
