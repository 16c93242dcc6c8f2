package main

import (
	"flag"
	"os"

	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/migrations"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// Uso: migrate [-direction up|down] [-steps N]
func main() {
	direction := flag.String("direction", "up", "up | down")
	steps := flag.Int("steps", 0, "aplicar N migraciones (negativo = revertir); 0 = todas")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	mg, err := postgres.NewMigrator(migrations.FS, cfg.DB.ConnectionString(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar migraciones")
	}
	defer mg.Close()

	switch {
	case *steps != 0:
		err = mg.Steps(*steps)
	case *direction == "down":
		err = mg.Down()
	default:
		err = mg.Up()
	}
	if err != nil {
		log.Error().Err(err).Msg("migración fallida")
		_ = mg.Close()
		os.Exit(1)
	}
}
