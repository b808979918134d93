package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	bookingrepo "car-rental/internal/booking/repo"
	"car-rental/internal/fleet/api"
	"car-rental/internal/fleet/app"
	"car-rental/internal/fleet/repo"
	"car-rental/internal/notification"
	"car-rental/internal/payment"
	"car-rental/internal/shared/config"
	"car-rental/internal/shared/db"
	"car-rental/internal/shared/health"
	"car-rental/internal/shared/jwt"
	"car-rental/internal/shared/mq"
	"car-rental/internal/shared/util"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.New()

	db := db.ConnectToDB(&cfg.Database)
	defer db.Close()

	rmqConn, rmqCh, err := mq.ConnectToRMQ(&cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("RabbitMQ connection failed: %v", err)
	}
	defer rmqConn.Close()
	defer rmqCh.Close()

	if err := mq.SetupTopology(rmqCh); err != nil {
		log.Fatalf("failed to declare topology: %v", err)
	}

	publisher := mq.NewPublisher(rmqCh)
	dispatcher := notification.NewDispatcher(publisher, logger)

	gateway := payment.NewHTTPGateway(cfg.Gateway.BaseURL, cfg.Gateway.APIKey,
		time.Duration(cfg.Gateway.TimeoutSeconds)*time.Second)
	payments := payment.NewAdapter(gateway, bookingrepo.NewBookingRepo(db), logger, "USD")

	reviewRepo := repo.NewReviewRepo(db)
	service := app.NewReviewService(reviewRepo, payments, dispatcher, logger)

	jwtMgr := jwt.NewManager(cfg.App.JWTSecret)
	handler := api.NewHandler(service, logger)

	server := &http.Server{
		Addr:    ":" + cfg.Services.FleetPort,
		Handler: handler.RegisterRoutes(jwtMgr, health.Handler("fleet-service", db, rmqConn)),
	}

	go func() {
		log.Printf("fleet-service running on :%s", cfg.Services.FleetPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down fleet-service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}
	log.Println("fleet-service stopped gracefully")
}
