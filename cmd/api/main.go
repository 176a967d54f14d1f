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

	"github.com/tu-usuario/servitec-pro/internal/application/lifecycle"
	"github.com/tu-usuario/servitec-pro/internal/application/stock"
	"github.com/tu-usuario/servitec-pro/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/servitec-pro/internal/interfaces/http"
	"github.com/tu-usuario/servitec-pro/pkg/config"
	"github.com/tu-usuario/servitec-pro/pkg/logger"
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
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Repos atados al pool para lecturas; las mutaciones corren dentro del TxRunner.
	reqRepo := postgres.NewServiceRequestRepository(pool)
	apprRepo := postgres.NewApprovalRepository(pool)
	asgRepo := postgres.NewAssignmentRepository(pool)
	sessRepo := postgres.NewWorkSessionRepository(pool)
	techRepo := postgres.NewTechnicianRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	movRepo := postgres.NewStockMovementRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	requestUC := lifecycle.NewRequestUseCase(
		txRunner, reqRepo, apprRepo, asgRepo, sessRepo, techRepo,
		lifecycle.Options{
			ReassignReasonRequired: cfg.Engine.ReassignReasonRequired,
			AllowSameTechnician:    cfg.Engine.AllowSameTechnician,
		},
	)
	stockUC := stock.NewLedgerUseCase(txRunner, stockRepo, movRepo)

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
		Title:    "ServiTec Pro API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		RequestUC: requestUC,
		StockUC:   stockUC,
		JWTSecret: cfg.JWT.Secret,
	})

	httpLog := log.Component("http")
	go func() {
		httpLog.Info().Str("addr", cfg.HTTP.Addr()).Msg("escuchando")
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			httpLog.Error().Err(err).Msg("servidor HTTP finalizado")
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
