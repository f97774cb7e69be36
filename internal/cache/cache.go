package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tshirtshop_back_end/internal/database"
	"tshirtshop_back_end/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	ProductCacheTTL = 10 * time.Minute
)

// GetProduct récupère un produit depuis le cache Redis.
// Retourne nil (sans erreur) si absent du cache.
func GetProduct(ctx context.Context, productID string) *models.Product {
	key := "product:" + productID

	data, err := database.Redis.Get(ctx, key).Result()
	if err != nil || data == "" {
		return nil
	}

	var product models.Product
	if json.Unmarshal([]byte(data), &product) != nil {
		return nil
	}
	return &product
}

// SetProduct met un produit en cache
func SetProduct(ctx context.Context, product *models.Product) {
	key := "product:" + product.ID
	jsonData, err := json.Marshal(product)
	if err != nil {
		return
	}
	database.Redis.Set(ctx, key, jsonData, ProductCacheTTL)
}

// InvalidateProduct supprime un produit du cache
func InvalidateProduct(ctx context.Context, productID string) {
	database.Redis.Del(ctx, "product:"+productID)
}

// --- Rate Limiting ---

// IncrementRateLimit incrémente le compteur de rate limit
func IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := database.Redis.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// GetRateLimit récupère le compteur de rate limit
func GetRateLimit(ctx context.Context, key string) (int64, error) {
	val, err := database.Redis.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("lecture rate limit: %w", err)
	}
	return val, nil
}
