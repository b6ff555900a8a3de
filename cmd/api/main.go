package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stocktrailhq/stocktrail-backend/api/routes"
	"github.com/stocktrailhq/stocktrail-backend/internal/activity"
	"github.com/stocktrailhq/stocktrail-backend/internal/auth"
	"github.com/stocktrailhq/stocktrail-backend/internal/inventory"
	"github.com/stocktrailhq/stocktrail-backend/internal/locations"
	"github.com/stocktrailhq/stocktrail-backend/internal/products"
	"github.com/stocktrailhq/stocktrail-backend/internal/sales"
	"github.com/stocktrailhq/stocktrail-backend/internal/users"
	"github.com/stocktrailhq/stocktrail-backend/pkg/config"
	"github.com/stocktrailhq/stocktrail-backend/pkg/db"
	"github.com/stocktrailhq/stocktrail-backend/pkg/env"
	"github.com/stocktrailhq/stocktrail-backend/pkg/logger"
	"github.com/stocktrailhq/stocktrail-backend/pkg/metrics"
	"github.com/stocktrailhq/stocktrail-backend/pkg/migrate"
	"github.com/stocktrailhq/stocktrail-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	// Redis only backs login rate limiting; the API runs without it.
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, login rate limiting disabled")
	}

	httpMx := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)
	stockMx := metrics.NewStockMetrics(prometheus.DefaultRegisterer)

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	productRepo := products.NewRepository(gormDB)
	locationRepo := locations.NewRepository(gormDB)
	inventoryRepo := inventory.NewRepository(gormDB)
	salesRepo := sales.NewRepository(gormDB)
	recorder := activity.NewRecorder(gormDB, logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		LocationRepo:   locationRepo,
		TxRunner:       dbClient,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	locationService, err := locations.NewService(locationRepo, userRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create locations service", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Repo:         inventoryRepo,
		Products:     productRepo,
		Locations:    locationRepo,
		Assignments:  userRepo,
		TxRunner:     dbClient,
		StockMetrics: stockMx,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	salesService, err := sales.NewService(sales.ServiceParams{
		Repo:        salesRepo,
		Ledger:      inventoryService,
		Products:    productRepo,
		Locations:   locationRepo,
		Assignments: userRepo,
		TxRunner:    dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			HTTPMx:    httpMx,
			Activity:  recorder,
			Auth:      authService,
			Products:  productService,
			Locations: locationService,
			Inventory: inventoryService,
			Sales:     salesService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
