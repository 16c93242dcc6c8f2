package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
)

func setupCache(t *testing.T) (*RedisValuationCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisValuationCache(client, ""), mr
}

func sampleReport() *dto.ValuationReport {
	return &dto.ValuationReport{
		DealerID:    "dealer-1",
		TotalUnits:  decimal.NewFromInt(10),
		TotalCost:   decimal.RequireFromString("70.50"),
		TotalRetail: decimal.NewFromInt(200),
		ByCategory: []dto.CategoryValuationDTO{
			{Category: "lubricantes", Units: decimal.NewFromInt(10), Cost: decimal.RequireFromString("70.50"), Retail: decimal.NewFromInt(200)},
		},
		GeneratedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestRedisValuationCache_SetYGet(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "dealer-1", 0, sampleReport(), time.Minute))
	assert.True(t, mr.Exists("ledger:valuation:dealer-1"))

	got, gen, ok, err := c.Get(ctx, "dealer-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Zero(t, gen)
	assert.True(t, got.TotalCost.Equal(decimal.RequireFromString("70.5")))
	require.Len(t, got.ByCategory, 1)
	assert.Equal(t, "lubricantes", got.ByCategory[0].Category)
}

func TestRedisValuationCache_Get_SinEntrada(t *testing.T) {
	c, _ := setupCache(t)

	got, _, ok, err := c.Get(context.Background(), "dealer-x")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestRedisValuationCache_Expira(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "dealer-1", 0, sampleReport(), 30*time.Second))
	mr.FastForward(31 * time.Second)

	_, _, ok, err := c.Get(ctx, "dealer-1")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisValuationCache_Invalidate(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "dealer-1", 0, sampleReport(), time.Minute))
	require.NoError(t, c.Set(ctx, "dealer-2", 0, sampleReport(), time.Minute))
	require.NoError(t, c.Invalidate(ctx, "dealer-1"))

	assert.False(t, mr.Exists("ledger:valuation:dealer-1"))
	assert.True(t, mr.Exists("ledger:valuation:dealer-2"))

	_, gen, _, err := c.Get(ctx, "dealer-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
}

// Una lectura que empezó antes de una escritura no deja su valoración en cache.
func TestRedisValuationCache_SetConGeneracionVieja_NoGuarda(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	_, gen, ok, err := c.Get(ctx, "dealer-1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Invalidate(ctx, "dealer-1"))
	require.NoError(t, c.Set(ctx, "dealer-1", gen, sampleReport(), time.Minute))
	assert.False(t, mr.Exists("ledger:valuation:dealer-1"))

	_, gen, _, err = c.Get(ctx, "dealer-1")
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "dealer-1", gen, sampleReport(), time.Minute))
	assert.True(t, mr.Exists("ledger:valuation:dealer-1"))
}

func TestRedisValuationCache_GeneracionCorrupta(t *testing.T) {
	c, mr := setupCache(t)
	require.NoError(t, mr.Set("ledger:valuation:gen:dealer-1", "x"))

	_, _, _, err := c.Get(context.Background(), "dealer-1")
	assert.Error(t, err)
}

func TestRedisValuationCache_EntradaCorruptaSeDescarta(t *testing.T) {
	c, mr := setupCache(t)
	require.NoError(t, mr.Set("ledger:valuation:dealer-1", "{no-json"))

	_, _, ok, err := c.Get(context.Background(), "dealer-1")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("ledger:valuation:dealer-1"))
}

func TestRedisValuationCache_ServidorCaido(t *testing.T) {
	c, mr := setupCache(t)
	mr.Close()

	_, _, _, err := c.Get(context.Background(), "dealer-1")
	assert.Error(t, err)
}
