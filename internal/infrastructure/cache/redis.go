// Package cache caché de listados de stock sobre Redis.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/multitienda-api/internal/application/inventory"
	"github.com/jhoicas/multitienda-api/internal/domain/entity"
	"github.com/jhoicas/multitienda-api/pkg/logger"
)

const keyPrefix = "multitienda:stocks:"

var _ inventory.StockCache = (*StockCache)(nil)

// NewRedis crea el cliente y valida la conexión al arrancar.
func NewRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// StockCache guarda el listado de stock por tienda con TTL.
// Los errores de Redis se registran y se tratan como fallo de caché.
type StockCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

// NewStockCache construye la caché.
func NewStockCache(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *StockCache {
	if log == nil {
		log = logger.Nop()
	}
	return &StockCache{rdb: rdb, ttl: ttl, log: log.Named("stock_cache")}
}

type cachedStock struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	StoreID   string    `json:"store_id"`
	Quantity  int64     `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// storeKey "" representa el listado de todas las tiendas.
func storeKey(storeID string) string {
	if storeID == "" {
		return keyPrefix + "_all"
	}
	return keyPrefix + storeID
}

// GetStocks devuelve el listado cacheado, si existe.
func (c *StockCache) GetStocks(ctx context.Context, storeID string) ([]*entity.Stock, bool) {
	val, err := c.rdb.Get(ctx, storeKey(storeID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Str("store_id", storeID).Msg("lectura de caché fallida")
		}
		return nil, false
	}
	var items []cachedStock
	if err := json.Unmarshal(val, &items); err != nil {
		c.log.Warn().Err(err).Str("store_id", storeID).Msg("entrada de caché corrupta")
		return nil, false
	}
	out := make([]*entity.Stock, 0, len(items))
	for _, it := range items {
		out = append(out, &entity.Stock{
			ID:        it.ID,
			ProductID: it.ProductID,
			StoreID:   it.StoreID,
			Quantity:  it.Quantity,
			UpdatedAt: it.UpdatedAt,
		})
	}
	return out, true
}

// SetStocks guarda el listado con el TTL configurado.
func (c *StockCache) SetStocks(ctx context.Context, storeID string, stocks []*entity.Stock) {
	items := make([]cachedStock, 0, len(stocks))
	for _, s := range stocks {
		items = append(items, cachedStock{
			ID:        s.ID,
			ProductID: s.ProductID,
			StoreID:   s.StoreID,
			Quantity:  s.Quantity,
			UpdatedAt: s.UpdatedAt,
		})
	}
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, storeKey(storeID), data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("store_id", storeID).Msg("escritura de caché fallida")
	}
}

// Invalidate borra el listado de la tienda y el global.
func (c *StockCache) Invalidate(ctx context.Context, storeID string) {
	keys := []string{storeKey("")}
	if storeID != "" {
		keys = append(keys, storeKey(storeID))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn().Err(err).Str("store_id", storeID).Msg("invalidación de caché fallida")
	}
}
