package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
)

var _ inventory.ValuationCache = (*RedisValuationCache)(nil)

const defaultKeyPrefix = "ledger:valuation:"

// RedisValuationCache guarda el reporte de valoración por dealer como JSON con TTL, junto a un
// contador de generación que cada escritura del ledger incrementa.
type RedisValuationCache struct {
	client    *goredis.Client
	keyPrefix string
}

// NewRedisValuationCache construye el cache sobre un cliente existente.
func NewRedisValuationCache(client *goredis.Client, keyPrefix string) *RedisValuationCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisValuationCache{client: client, keyPrefix: keyPrefix}
}

func (c *RedisValuationCache) key(dealerID string) string {
	return c.keyPrefix + dealerID
}

func (c *RedisValuationCache) genKey(dealerID string) string {
	return c.keyPrefix + "gen:" + dealerID
}

// Get devuelve la entrada (si existe y no expiró) y la generación vigente en una sola lectura.
func (c *RedisValuationCache) Get(ctx context.Context, dealerID string) (*dto.ValuationReport, int64, bool, error) {
	vals, err := c.client.MGet(ctx, c.key(dealerID), c.genKey(dealerID)).Result()
	if err != nil {
		return nil, 0, false, fmt.Errorf("get valuation cache: %w", err)
	}
	gen, err := parseGeneration(vals[1])
	if err != nil {
		return nil, 0, false, err
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, gen, false, nil
	}
	var report dto.ValuationReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		// entrada corrupta: se descarta y se recalcula
		_ = c.client.Del(ctx, c.key(dealerID)).Err()
		return nil, gen, false, nil
	}
	return &report, gen, true, nil
}

// Set guarda el reporte con expiración si la generación no cambió desde el Get.
// Una invalidación concurrente (WATCH) descarta la escritura sin error.
func (c *RedisValuationCache) Set(ctx context.Context, dealerID string, generation int64, report *dto.ValuationReport, ttl time.Duration) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal valuation: %w", err)
	}
	genKey := c.genKey(dealerID)
	err = c.client.Watch(ctx, func(tx *goredis.Tx) error {
		current, err := tx.Get(ctx, genKey).Result()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		gen, err := parseGeneration(current)
		if err != nil {
			return err
		}
		if gen != generation {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Set(ctx, c.key(dealerID), data, ttl)
			return nil
		})
		return err
	}, genKey)
	switch {
	case err == nil, errors.Is(err, errStaleGeneration), errors.Is(err, goredis.TxFailedErr):
		return nil
	}
	return fmt.Errorf("set valuation cache: %w", err)
}

// Invalidate incrementa la generación y elimina la entrada; se llama tras cada escritura del ledger.
func (c *RedisValuationCache) Invalidate(ctx context.Context, dealerID string) error {
	_, err := c.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Incr(ctx, c.genKey(dealerID))
		p.Del(ctx, c.key(dealerID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate valuation cache: %w", err)
	}
	return nil
}

var errStaleGeneration = errors.New("generación de valoración desactualizada")

// parseGeneration acepta nil o "" (sin invalidaciones previas) como generación 0.
func parseGeneration(v any) (int64, error) {
	s, _ := v.(string)
	if s == "" {
		return 0, nil
	}
	gen, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("generación de valoración %q: %w", s, err)
	}
	return gen, nil
}
