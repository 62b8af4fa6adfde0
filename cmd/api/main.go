// @title           Multitienda API
// @version         1.0
// @description     Motor de movimientos de stock multitienda: libro de movimientos, stock por (producto, tienda), alertas y reporte PDF.
// @BasePath        /
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Token JWT con el prefijo Bearer
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
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"

	_ "github.com/jhoicas/multitienda-api/docs"
	"github.com/jhoicas/multitienda-api/internal/application/inventory"
	domaininv "github.com/jhoicas/multitienda-api/internal/domain/inventory"
	"github.com/jhoicas/multitienda-api/internal/domain/repository"
	"github.com/jhoicas/multitienda-api/internal/infrastructure/cache"
	"github.com/jhoicas/multitienda-api/internal/infrastructure/catalog"
	"github.com/jhoicas/multitienda-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/multitienda-api/internal/infrastructure/pdf"
	"github.com/jhoicas/multitienda-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/multitienda-api/internal/interfaces/http"
	"github.com/jhoicas/multitienda-api/pkg/config"
	"github.com/jhoicas/multitienda-api/pkg/logger"
)

// storage adaptadores de persistencia seleccionados por STORAGE_DRIVER.
type storage struct {
	tx        inventory.TxRunner
	movements repository.MovementRepository
	stocks    repository.StockRepository
	products  repository.ProductReader
	stores    repository.StoreReader
	close     func()
}

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
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}
	policy, err := domaininv.ParseExitPolicy(cfg.Inventory.ExitPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("INVENTORY_EXIT_POLICY")
	}

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	opts := inventory.Options{
		ExitPolicy: policy,
		Retry: inventory.RetryConfig{
			MaxRetries: cfg.Inventory.MaxRetries,
			Backoff:    cfg.Inventory.RetryBackoff,
		},
		Logger: log,
	}

	// Caché de listados de stock: opcional, solo si REDIS_URL está definido.
	if cfg.Redis.URL != "" {
		rdb, err := cache.NewRedis(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible, se continúa sin caché")
		} else {
			defer rdb.Close()
			opts.Cache = cache.NewStockCache(rdb, cfg.Redis.StockTTL, log)
			log.Info().Dur("ttl", cfg.Redis.StockTTL).Msg("caché de stock habilitada")
		}
	}

	movementUC := inventory.NewMovementUseCase(store.tx, store.movements, opts)
	stockUC := inventory.NewStockUseCase(store.tx, store.stocks, opts)
	alertsUC := inventory.NewAlertsUseCase(store.stocks)
	reportUC := inventory.NewReportUseCase(
		store.stocks, store.products, store.stores,
		infrapdf.NewStockReportGenerator(cfg.App.Name), opts,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.HTTP.SwaggerFile,
			Path:     "docs",
			Title:    "Multitienda API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Movements: movementUC,
		Stocks:    stockUC,
		Alerts:    alertsUC,
		Reports:   reportUC,
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

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		mem := memory.NewStore(memory.WithLockTimeout(cfg.Inventory.LockTimeout))
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		if path := cfg.Storage.CatalogFile; path != "" {
			nStores, nProducts, err := seedMemoryCatalog(mem, path, time.Now().UTC())
			if err != nil {
				return nil, err
			}
			log.Info().Str("file", path).Int("stores", nStores).Int("products", nProducts).Msg("catálogo cargado en memoria")
		} else {
			log.Warn().Msg("CATALOG_FILE vacío: sin catálogo no hay alertas ni reporte")
		}
		return &storage{
			tx:        mem,
			movements: mem.Movements(),
			stocks:    mem.Stocks(),
			products:  mem.Products(),
			stores:    mem.Stores(),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("esquema de base de datos verificado")
	}
	log.Info().Str("target", postgres.Target(cfg.DB)).Msg("conectado a PostgreSQL")
	return postgresStorage(pool, cfg.Inventory.LockTimeout), nil
}

func postgresStorage(pool *pgxpool.Pool, lockTimeout time.Duration) *storage {
	return &storage{
		tx:        postgres.NewTxRunner(pool, lockTimeout),
		movements: postgres.NewMovementRepository(pool),
		stocks:    postgres.NewStockRepository(pool),
		products:  postgres.NewProductRepository(pool),
		stores:    postgres.NewStoreRepository(pool),
		close:     pool.Close,
	}
}

// seedMemoryCatalog carga tiendas y productos del XML en el almacén en memoria.
func seedMemoryCatalog(mem *memory.Store, path string, now time.Time) (int, int, error) {
	cat, err := catalog.Load(path, now)
	if err != nil {
		return 0, 0, err
	}
	for _, st := range cat.Stores {
		mem.SeedStore(*st)
	}
	for _, p := range cat.Products {
		mem.SeedProduct(*p)
	}
	return len(cat.Stores), len(cat.Products), nil
}
