package redisx

import "time"

const (
	// Product list cache, one entry per (user, filter) pair:
	// cache:products:{user}:{filter-hash}
	KeyProductList = "cache:products:%s:%s"

	// Invalidation pattern for all of a user's product list entries.
	KeyProductListPattern = "cache:products:%s:*"

	// Dashboard aggregates maintained by the analytics worker.
	KeyTopSellers   = "dash:top_sellers" // ZSET product_id -> units sold
	KeyLowStock     = "dash:low_stock"   // SET of product ids at/below threshold
	KeyMonthRevenue = "dash:revenue:%s"  // order totals per YYYY-MM
	KeyDedup        = "dedup:%s:%s"      // event dedup: {service}:{event_id}
)

var (
	TTLProductList = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
