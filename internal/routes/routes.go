package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/asset-custody/asset_custody/internal/config"
	"github.com/asset-custody/asset_custody/internal/custody"
	"github.com/asset-custody/asset_custody/internal/horizon"
	"github.com/asset-custody/asset_custody/internal/middleware"
	"github.com/asset-custody/asset_custody/internal/proposal"
	"github.com/asset-custody/asset_custody/internal/txbridge"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. Without a database
// the service falls back to in-memory stores; without Redis the idempotency
// guard is skipped. Both fallbacks are allowed only in development.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger, middleware.KeyFromHeader))
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Asset Custody Backend")
	})
	RegisterHealthRoutes(app, d)

	// Backends
	var custodyLedger custody.Ledger
	if d.DB != nil {
		custodyLedger = custody.NewPostgresLedger(d.DB)
	} else {
		custodyLedger = custody.NewInMemory()
	}

	var proposalRepo proposal.Repository
	if d.DB != nil {
		proposalRepo = proposal.NewPostgresRepository(d.DB)
	} else {
		proposalRepo = proposal.NewMemoryRepository()
	}

	// Services and handlers
	bridgeSvc := txbridge.NewService(d.Cfg, nil, d.Logger)
	proposalSvc := proposal.NewService(proposalRepo, bridgeSvc, d.Logger)
	horizonClient := horizon.NewClient(d.Cfg.HorizonURL)

	proposalHandler := proposal.NewHandler(proposalSvc)
	bridgeHandler := txbridge.NewHandler(bridgeSvc)
	custodyHandler := custody.NewHandler(custodyLedger)
	horizonHandler := horizon.NewHandler(horizonClient)

	// Retried executes for the same proposal replay the stored response.
	var executeGuard fiber.Handler
	if d.Cache != nil {
		executeGuard = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger, middleware.KeyFromParam("id"))
	}

	RegisterProposalRoutes(app, proposalHandler, executeGuard)
	RegisterTransactionRoutes(app, bridgeHandler)
	RegisterCustodyRoutes(app, custodyHandler)
	RegisterHorizonRoutes(app, horizonHandler)

	return nil
}
