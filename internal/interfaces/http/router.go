package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/multitienda-api/pkg/jwt"
	"github.com/jhoicas/multitienda-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Movements MovementService
	Stocks    StockService
	Alerts    AlertService
	Reports   ReportService
	JWTSecret string
	Logger    *logger.Logger
}

// Router registra las rutas de la API. Todo /api requiere Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("http")

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Movements
	movementHandler := NewMovementHandler(deps.Movements, log)
	movements := api.Group("/movements")
	movements.Post("/", movementHandler.Create)
	movements.Get("/", movementHandler.List)
	movements.Get("/:id", movementHandler.GetByID)

	// Stocks
	stockHandler := NewStockHandler(deps.Stocks, deps.Alerts, deps.Reports, log)
	stocks := api.Group("/stocks")
	stocks.Get("/", stockHandler.List)
	stocks.Get("/lookup", stockHandler.Lookup)
	stocks.Get("/alerts", stockHandler.Alerts)
	stocks.Get("/report.pdf", stockHandler.Report)
	stocks.Post("/", stockHandler.Upsert)
	stocks.Put("/:id", stockHandler.Update)
	stocks.Delete("/:id", RequireRole(jwt.RoleAdmin), stockHandler.Delete)
}
