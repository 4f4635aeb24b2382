package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/janhvii19/Inventory-Order-Management-System/internal/kafka"
	"github.com/janhvii19/Inventory-Order-Management-System/internal/orders"
	"github.com/janhvii19/Inventory-Order-Management-System/internal/redisx"
)

// Store is the slice of Redis the analytics projection needs.
type Store interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
	ZIncrBy(ctx context.Context, key string, incr float64, member string) error
	IncrByFloat(ctx context.Context, key string, incr float64) error
	SAdd(ctx context.Context, key, member string) error
	SRem(ctx context.Context, key, member string) error
}

// RedisStore backs Store with a live Redis client.
type RedisStore struct{ R *redis.Client }

func (s RedisStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return s.R.SetNX(ctx, key, value, ttl).Result()
}
func (s RedisStore) Del(ctx context.Context, key string) error { return s.R.Del(ctx, key).Err() }
func (s RedisStore) ZIncrBy(ctx context.Context, key string, incr float64, member string) error {
	return s.R.ZIncrBy(ctx, key, incr, member).Err()
}
func (s RedisStore) IncrByFloat(ctx context.Context, key string, incr float64) error {
	return s.R.IncrByFloat(ctx, key, incr).Err()
}
func (s RedisStore) SAdd(ctx context.Context, key, member string) error {
	return s.R.SAdd(ctx, key, member).Err()
}
func (s RedisStore) SRem(ctx context.Context, key, member string) error {
	return s.R.SRem(ctx, key, member).Err()
}

// Analytics consumes order mutation events and keeps the dashboard
// aggregates in Redis: a top-sellers ZSET, the low-stock set, and a revenue
// counter per month. Everything here is derived data; the database stays the
// source of truth.
type Analytics struct {
	Store             Store
	ServiceName       string
	LowStockThreshold int
}

// Handle is the kafka consumer handler for all three order topics. Events may
// be redelivered; the event id is claimed before applying and released again
// if applying fails, so a redelivery can retry instead of dropping the
// event's effect.
func (a *Analytics) Handle(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, a.ServiceName, env.EventID)
	claimed, err := a.Store.SetNX(ctx, dkey, "1", redisx.TTLDedup)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	if err := a.apply(ctx, env); err != nil {
		_ = a.Store.Del(ctx, dkey)
		return err
	}
	return nil
}

func (a *Analytics) apply(ctx context.Context, env orders.Envelope) error {
	p, err := kafkax.UnwrapPayload[orders.OrderMutatedPayload](env.Payload)
	if err != nil {
		return err
	}

	switch env.EventType {
	case orders.EventOrderCreated:
		for _, it := range p.Items {
			if err := a.Store.ZIncrBy(ctx, redisx.KeyTopSellers, float64(it.Quantity), it.ProductID); err != nil {
				return err
			}
		}
		month := p.OccurredAt.UTC().Format("2006-01")
		total, _ := p.Total.Float64()
		if err := a.Store.IncrByFloat(ctx, fmt.Sprintf(redisx.KeyMonthRevenue, month), total); err != nil {
			return err
		}
	case orders.EventOrderUpdated, orders.EventOrderCanceled:
		// units_sold never moves after creation; only stock levels change.
	default:
		log.Printf("ignoring event type %q", env.EventType)
		return nil
	}

	return a.applyStockLevels(ctx, p.StockLevels)
}

// applyStockLevels refreshes low-stock membership from the post-commit
// levels the event carries.
func (a *Analytics) applyStockLevels(ctx context.Context, levels map[string]int) error {
	for productID, stock := range levels {
		var err error
		if stock > 0 && stock <= a.LowStockThreshold {
			err = a.Store.SAdd(ctx, redisx.KeyLowStock, productID)
		} else {
			err = a.Store.SRem(ctx, redisx.KeyLowStock, productID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
