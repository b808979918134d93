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

	accountapp "car-rental/internal/account/app"
	accountrepo "car-rental/internal/account/repo"
	authapi "car-rental/internal/auth/api"
	authapp "car-rental/internal/auth/app"
	authrepo "car-rental/internal/auth/repo"
	"car-rental/internal/booking/api"
	"car-rental/internal/booking/app"
	"car-rental/internal/booking/repo"
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

	bookingRepo := repo.NewBookingRepo(db)
	accountRepo := accountrepo.NewAccountRepo(db)
	resolver := accountapp.NewResolver(accountRepo, bookingRepo, logger)

	tokenRepo := authrepo.NewTokenRepo(db)
	tokens := authapp.NewTokenService(tokenRepo, logger)

	gateway := payment.NewHTTPGateway(cfg.Gateway.BaseURL, cfg.Gateway.APIKey,
		time.Duration(cfg.Gateway.TimeoutSeconds)*time.Second)
	payments := payment.NewAdapter(gateway, bookingRepo, logger, "USD")

	service := app.NewBookingService(bookingRepo, resolver, tokens, payments, dispatcher, cfg.App.BaseURL, logger)

	jwtMgr := jwt.NewManager(cfg.App.JWTSecret)
	authHandler := authapi.NewHandler(tokens, accountRepo, jwtMgr, logger)
	handler := api.NewHandler(service, jwtMgr, logger)

	mux := handler.RegisterRoutes(authHandler, health.Handler("booking-service", db, rmqConn))

	server := &http.Server{
		Addr:    ":" + cfg.Services.BookingPort,
		Handler: api.WithMiddleware(mux),
	}

	go func() {
		log.Printf("booking-service running on :%s", cfg.Services.BookingPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down booking-service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}
	log.Println("booking-service stopped gracefully")
}
