package redisx

import "time"

const (
	// Cache status order: pickup:order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "pickup:order_status:%s"

	// Cache stats bisnis: pickup:stats:{business_id}:{days} -> JSON Stats
	KeyBusinessStats = "pickup:stats:%s:%d"

	// Dedup event consumer: pickup:dedup:{service}:{event_id}
	KeyDedup = "pickup:dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
