package httpx

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/janhvii19/Inventory-Order-Management-System/internal/redisx"
)

// DashboardHandler serves the aggregates the analytics worker maintains in
// Redis: top sellers, low-stock products, and revenue for the current month.
type DashboardHandler struct {
	Redis *redis.Client
}

func (h *DashboardHandler) Register(r chi.Router) {
	r.Get("/dashboard", h.get)
}

type topSeller struct {
	ProductID string `json:"product_id"`
	UnitsSold int64  `json:"units_sold"`
}

func (h *DashboardHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	top, err := h.Redis.ZRevRangeWithScores(ctx, redisx.KeyTopSellers, 0, 4).Result()
	if err != nil && err != redis.Nil {
		writeErr(w, err)
		return
	}
	sellers := make([]topSeller, 0, len(top))
	for _, z := range top {
		id, _ := z.Member.(string)
		sellers = append(sellers, topSeller{ProductID: id, UnitsSold: int64(z.Score)})
	}

	lowStock, err := h.Redis.SMembers(ctx, redisx.KeyLowStock).Result()
	if err != nil && err != redis.Nil {
		writeErr(w, err)
		return
	}

	month := time.Now().UTC().Format("2006-01")
	revenue, err := h.Redis.Get(ctx, fmt.Sprintf(redisx.KeyMonthRevenue, month)).Result()
	if err == redis.Nil {
		revenue = "0"
	} else if err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"top_sellers":     sellers,
		"low_stock":       lowStock,
		"month":           month,
		"monthly_revenue": revenue,
	})
}
