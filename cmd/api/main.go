package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-checkout/internal/config"
	"storefront-checkout/internal/db"
	"storefront-checkout/internal/events"
	"storefront-checkout/internal/gateway"
	"storefront-checkout/internal/httpserver"
	"storefront-checkout/internal/idempotency"
	"storefront-checkout/internal/migrate"
	cartrepo "storefront-checkout/internal/repository/cart"
	customerrepo "storefront-checkout/internal/repository/customer"
	productrepo "storefront-checkout/internal/repository/product"
	cartsvc "storefront-checkout/internal/service/cart"
	"storefront-checkout/internal/service/checkout"
	customersvc "storefront-checkout/internal/service/customer"
	"storefront-checkout/internal/service/inventory"
	productsvc "storefront-checkout/internal/service/product"
	"storefront-checkout/internal/service/session"
	"storefront-checkout/internal/service/shipping"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()
	if err := migrate.Apply(ctx, dbpool); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	localDB, err := db.OpenLocal(ctx, cfg.LocalStorePath)
	if err != nil {
		logger.Fatalf("open local store: %v", err)
	}
	defer localDB.Close()
	if err := migrate.ApplyLocal(ctx, localDB); err != nil {
		logger.Fatalf("apply local migrations: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer rdb.Close()

	publisher := events.NewKafkaPublisher(cfg.KafkaTopic, logger, cfg.KafkaBrokers...)
	defer publisher.Close()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	productService := productsvc.New(productRepo)
	localCarts := cartrepo.NewLocalStore(localDB, productService, logger)
	remoteCarts := cartrepo.NewPostgres(dbpool, productService, logger)
	customerService := customersvc.New(customerrepo.NewPostgres(dbpool, logger))

	inventoryClient := gateway.NewInventory(gateway.NewClient("inventory", cfg.InventoryURL, cfg.CollaboratorTimeout, logger))
	shippingClient := gateway.NewShipping(gateway.NewClient("shipping", cfg.ShippingURL, cfg.CollaboratorTimeout, logger))
	ordersClient := gateway.NewOrders(gateway.NewClient("orders", cfg.OrdersURL, cfg.CollaboratorTimeout, logger))

	validator := inventory.New(inventoryClient, logger)
	calculator := shipping.New(shippingClient, cfg.RushDistricts, cfg.ShippingFallbackFee, logger)

	sessions := session.New(session.Deps{
		Local:  func(id string) cartrepo.Backend { return localCarts.For(id) },
		Remote: func(id string) cartrepo.Backend { return remoteCarts.For(id) },
		Auth:   customerService,
		Policy: cartsvc.ParseMergePolicy(cfg.MergePolicy),
		TTL:    cfg.SessionTTL,
		Logger: logger,
		Checkout: checkout.Deps{
			Inventory: validator,
			Shipping:  calculator,
			Orders:    ordersClient,
			Guard:     idempotency.NewRedisGuard(rdb, 24*time.Hour),
			Events:    publisher,
			Logger:    logger,
		},
	})
	go sessions.Run(ctx, time.Minute)

	srv := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Sessions:    sessions,
		Products:    productService,
		Inventory:   validator,
		CORSOrigins: cfg.CORSOrigins,
		ReadyChecks: map[string]func(context.Context) error{
			"redis":       func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			"local store": func(ctx context.Context) error { return localDB.PingContext(ctx) },
		},
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
