package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/server"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	cfg := config.Load()

	logging.Configure(cfg.Logging.Level, cfg.Logging.Development)
	logger := logging.NewLogger("checkout-service")
	defer logger.Sync()

	logging.Infof("Starting checkout-service on port %d", cfg.Server.Port)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(reg)

	dependencies := map[string]handlers.Pinger{}

	var states repository.ShippingStateStore
	if cfg.Features.EnableRedisStore {
		cache := repository.NewRedisShippingStateCache(cfg.Redis)
		defer cache.Close()
		states = cache
		dependencies["redis"] = cache
	} else {
		logger.Warn("Redis store disabled, using in-memory shipping state")
		states = repository.NewMemoryShippingStateStore()
	}

	var settings repository.SettingsRepository = repository.StaticSettingsRepository{
		Settings: models.DisplaySettings{
			IncludeTaxInDisplayedPrice: cfg.Display.IncludeTaxInDisplayedPrice,
		},
	}
	if cfg.Features.EnableSettingsDatabase {
		db, err := initDatabase(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to database", logging.Fields{"error": err.Error()})
		}
		defer db.Close()
		settings = repository.NewPostgresSettingsRepository(db)
		dependencies["postgres"] = dbPinger{db}
	}

	var publisher service.RateSelectionPublisher
	var eventPublisher *events.KafkaPublisher
	if cfg.Features.EnableCartEvents {
		eventPublisher = events.NewKafkaPublisher(cfg.Kafka)
		defer eventPublisher.Close()
		publisher = eventPublisher
	}

	checkoutService := service.NewCheckoutService(
		states,
		settings,
		publisher,
		recorder,
		configureShippingURL(cfg),
	)

	if cfg.Features.EnableCartFallback {
		checkoutService.WithCartFallback(clients.NewHTTPCartClient(cfg.CartService))
	}

	h := handlers.NewHandlers(checkoutService, cfg, dependencies)

	srv := server.New(h, cfg, reg)

	go func() {
		logger.Info("Server starting", logging.Fields{
			"port":                  cfg.Server.Port,
			"redis_store":           cfg.Features.EnableRedisStore,
			"settings_database":     cfg.Features.EnableSettingsDatabase,
			"cart_events":           cfg.Features.EnableCartEvents,
			"default_including_tax": cfg.Display.IncludeTaxInDisplayedPrice,
		})
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", logging.Fields{"error": err.Error()})
		}
	}()

	var eventConsumer *events.KafkaConsumer
	if cfg.Features.EnableCartEvents {
		eventConsumer = events.NewKafkaConsumer(cfg.Kafka, checkoutService, recorder)
		go func() {
			if err := eventConsumer.Start(context.Background()); err != nil {
				logger.Error("Event consumer failed", logging.Fields{"error": err.Error()})
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if eventConsumer != nil {
		eventConsumer.Stop()
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logging.Fields{"error": err.Error()})
	}

	logger.Info("Server exited")
}

func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Info("Database connected", logging.Fields{
		"host": cfg.Database.Host,
		"name": cfg.Database.Name,
	})

	return db, nil
}

type dbPinger struct {
	db *sql.DB
}

func (p dbPinger) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func configureShippingURL(cfg *config.Config) string {
	if cfg.Display.AdminURL == "" {
		return ""
	}
	return strings.TrimRight(cfg.Display.AdminURL, "/") + "/admin.php?page=wc-settings&tab=shipping"
}
