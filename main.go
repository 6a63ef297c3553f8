package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mrops-br/product-catalog-api/internal/app/service"
	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/config"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/database"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/http"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/http/validation"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/repository/relational"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/telemetry"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

const instrumentationName = "product-catalog-api"

func main() {
	configFile := flag.String("config", "", "optional YAML/JSON/TOML config file")
	flag.Parse()

	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Ignoring .env: %v", err)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	telem, err := telemetry.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	if err := run(cfg, telem); err != nil {
		telem.Logger.Error("Product catalog stopped with error", slog.String("error", err.Error()))
		shutdownTelemetry(telem)
		os.Exit(1)
	}
	shutdownTelemetry(telem)
}

func run(cfg *config.Config, telem *telemetry.Telemetry) error {
	tracer := telem.TracerProvider.Tracer(instrumentationName)
	meter := telem.MeterProvider.Meter(instrumentationName)
	logger := telem.Logger

	logger.Info("Starting Product Catalog API",
		slog.String("version", version),
		slog.String("db_driver", cfg.Database.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, db, err := openRepository(ctx, cfg, telem)
	if err != nil {
		return err
	}

	var store handler.Pinger
	if db != nil {
		defer func() {
			if err := database.Close(db); err != nil {
				logger.Error("Failed to close database", slog.String("error", err.Error()))
			}
		}()
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("access connection pool: %w", err)
		}
		store = sqlDB
	}

	productService := service.NewProductService(repo, tracer, meter, logger,
		service.WithCategoryListLimit(cfg.Catalog.CategoryListLimit),
	)

	server := http.NewServer(cfg,
		handler.NewProductHandler(productService, validation.New(), logger),
		handler.NewHealthHandler(store, version, logger),
		logger,
		telem,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		return server.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Server stopped")
	return nil
}

// openRepository picks the product store from configuration. The returned
// *gorm.DB is nil for the in-memory store.
func openRepository(ctx context.Context, cfg *config.Config, telem *telemetry.Telemetry) (domain.ProductRepository, *gorm.DB, error) {
	tracer := telem.TracerProvider.Tracer(instrumentationName)
	logger := telem.Logger

	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn("Using in-memory product store; data is lost on restart")
		return memory.NewProductRepository(tracer, logger), nil, nil
	}

	db, err := database.Open(ctx, &cfg.Database, telem.TracerProvider, logger)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := relational.AutoMigrate(ctx, db); err != nil {
			_ = database.Close(db)
			return nil, nil, fmt.Errorf("migrate schema: %w", err)
		}
		logger.Info("Database schema migrated")
	}

	if err := database.RegisterPoolMetrics(db, telem.Registry, cfg.Database.Driver); err != nil {
		logger.Warn("Connection pool metrics unavailable", slog.String("error", err.Error()))
	}

	return relational.NewProductRepository(db, tracer, logger), db, nil
}

func shutdownTelemetry(telem *telemetry.Telemetry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := telem.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down telemetry: %v", err)
	}
}
