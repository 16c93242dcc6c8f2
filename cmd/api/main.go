package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/inventario-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Ledger.StoreDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	reg := metrics.New("inventory_ledger")

	deps := inventory.Deps{
		CacheTTL: cfg.Ledger.ValuationCacheTTL,
		Retry:    inventory.RetryPolicy{MaxAttempts: cfg.Ledger.MaxAttempts, BaseDelay: cfg.Ledger.RetryBaseDelay},
		Metrics:  reg,
		Logger:   log,
	}

	switch cfg.Ledger.StoreDriver {
	case config.StoreMemory:
		store := memory.NewSeeded(cfg.Ledger.SeedDemoDealerID)
		repos := store.Repos()
		deps.Tx = store
		deps.Batches, deps.Movements, deps.PurchaseOrders = repos.Batches, repos.Movements, repos.PurchaseOrders
		deps.Valuation = store.Valuation()
		log.Warn().Str("dealer_id", cfg.Ledger.SeedDemoDealerID).Msg("store en memoria: los datos no persisten")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		repos := postgres.NewRepos(pool)
		deps.Tx = postgres.NewTxRunner(pool)
		deps.Batches, deps.Movements, deps.PurchaseOrders = repos.Batches, repos.Movements, repos.PurchaseOrders
		deps.Valuation = postgres.NewValuationRepository(pool)
	}

	// Cache de valoración en Redis (opcional)
	if cfg.Redis.Enabled() && cfg.Ledger.ValuationCacheTTL > 0 {
		client, err := cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, valoración sin cache")
		} else {
			defer client.Close()
			deps.Cache = cache.NewRedisValuationCache(client, "")
		}
	}

	services := inventory.NewServices(deps)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventario Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(reg.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Services:  services,
		PDF:       infrapdf.NewMarotoReportGenerator(),
		Metrics:   reg,
		JWTSecret: cfg.JWT.Secret,
		Logger:    log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
