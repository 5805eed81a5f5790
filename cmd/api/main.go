package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Inventario-core/internal/application/allocation"
	"github.com/jhoicas/Inventario-core/internal/application/fulfillment"
	"github.com/jhoicas/Inventario-core/internal/application/stock"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
	"github.com/jhoicas/Inventario-core/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-core/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Inventario-core/internal/interfaces/http"
	"github.com/jhoicas/Inventario-core/pkg/config"
	"github.com/jhoicas/Inventario-core/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		entryRepo    repository.StockEntryRepository
		movementRepo repository.StockMovementRepository
		orderRepo    repository.OrderRepository
		shipmentRepo repository.ShipmentRepository
	)
	if cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		entryRepo = postgres.NewStockEntryRepository(pool)
		movementRepo = postgres.NewStockMovementRepository(pool)
		orderRepo = postgres.NewOrderRepository(pool)
		shipmentRepo = postgres.NewShipmentRepository(pool)
	} else {
		// Sin DB configurada: almacén en memoria para desarrollo local.
		log.Warn().Msg("sin base de datos configurada, usando almacén en memoria")
		store := memory.NewStore()
		entryRepo = store.StockEntries()
		movementRepo = store.Movements()
		orderRepo = store.Orders()
		shipmentRepo = store.Shipments()
	}

	coordinator := allocation.NewCoordinator(entryRepo, movementRepo, log, cfg.Ledger.MaxRetries)
	stockUC := stock.NewUseCase(entryRepo, movementRepo, log, cfg.Ledger.MaxRetries)
	fulfillmentUC := fulfillment.NewUseCase(orderRepo, shipmentRepo, coordinator, log)

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
		Title:    "Inventario Core API",
	}))

	httpRouter.SetupRoutes(app,
		httpRouter.NewStockHandler(stockUC, coordinator),
		httpRouter.NewOrderHandler(fulfillmentUC),
	)

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
