package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"corralx-backend/internal/api"
	"corralx-backend/internal/config"
	"corralx-backend/internal/modules/catalog"
	"corralx-backend/internal/modules/orders"
	"corralx-backend/internal/modules/profiles"
	"corralx-backend/pkg/email"
	"corralx-backend/pkg/notify"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	// 1. --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	e := echo.New()

	// 2. --- Middleware ---
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:5173", cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// 3. --- Database Connection ---
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database configuration: %v", err)
	}

	dbPool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to create connection pool: %v\n", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}
	e.Logger.Info("Successfully connected to the database!")

	// 4. --- Repositories ---
	catalogRepo := catalog.NewRepository(dbPool)
	profileRepo := profiles.NewRepository(dbPool)
	orderRepo := orders.NewRepository(dbPool)

	// 5. --- Notification Fan-out ---
	// Lifecycle events are fire-and-forget: a failed sink is logged, never
	// rolled into the order transaction. With no broker configured the
	// events go to the process log.
	sinks := []notify.Publisher{}
	if brokers := cfg.BrokerList(); len(brokers) > 0 {
		kafkaPublisher, err := notify.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		if err != nil {
			log.Fatalf("Unable to connect Kafka producer: %v", err)
		}
		defer kafkaPublisher.Close()
		sinks = append(sinks, kafkaPublisher)
	}
	if cfg.EmailEnabled {
		sender, err := email.NewSESV2Sender(context.Background(), cfg.AWSRegion, cfg.EmailFrom)
		if err != nil {
			log.Fatalf("Unable to initialize SES sender: %v", err)
		}
		templates, err := email.NewTemplateManager()
		if err != nil {
			log.Fatalf("Unable to parse email templates: %v", err)
		}
		sinks = append(sinks, notify.NewEmailPublisher(sender, templates, profileRepo, cfg.ClientOrigin))
	}
	if len(sinks) == 0 {
		sinks = append(sinks, notify.LogPublisher{})
	}
	publisher := notify.NewFanout(sinks...)

	// 6. --- Orders Module ---
	orderService := orders.NewService(orderRepo, catalogRepo, profileRepo, publisher)
	orderHandler := orders.NewHandler(orderService)

	// 7. --- Initialize Router ---
	api.SetupRoutes(e, orderHandler, cfg.JWTSecret)

	// 8. --- Start Server with graceful shutdown logic ---
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server an error occurred:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal("Server forced to shutdown:", err)
	}
	log.Println("Server exiting")
}
