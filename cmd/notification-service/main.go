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

	"car-rental/internal/notification"
	"car-rental/internal/notification/consumer"
	"car-rental/internal/shared/config"
	"car-rental/internal/shared/health"
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

	rmqConn, rmqCh, err := mq.ConnectToRMQ(&cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("RabbitMQ connection failed: %v", err)
	}
	defer rmqConn.Close()
	defer rmqCh.Close()

	if err := mq.SetupTopology(rmqCh); err != nil {
		log.Fatalf("failed to declare topology: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := notification.NewLogSender(logger)
	c := consumer.NewNotificationConsumer(rmqCh, sender)
	if err := c.Start(ctx); err != nil {
		log.Fatalf("failed to start consumers: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Handler("notification-service", nil, rmqConn))

	server := &http.Server{
		Addr:    ":" + cfg.Services.NotificationPort,
		Handler: mux,
	}

	go func() {
		log.Printf("notification-service running on :%s", cfg.Services.NotificationPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down notification-service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}
	log.Println("notification-service stopped gracefully")
}
