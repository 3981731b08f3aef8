package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/entradalibre/ticketing/internal/clock"
	"github.com/entradalibre/ticketing/internal/config"
	"github.com/entradalibre/ticketing/internal/database"
	"github.com/entradalibre/ticketing/internal/gateway/pagotic"
	"github.com/entradalibre/ticketing/internal/handler"
	"github.com/entradalibre/ticketing/internal/queue"
	"github.com/entradalibre/ticketing/internal/repository"
	"github.com/entradalibre/ticketing/internal/router"
	"github.com/entradalibre/ticketing/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it the service runs with rate limiting
	// and response caching disabled.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting and caching disabled")
	}

	clk := clock.NewSystem()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	seats := repository.NewSeatRepo(db)
	orders := repository.NewOrderRepo(db)
	payments := repository.NewPaymentRepo(db)
	tickets := repository.NewTicketRepo(db)

	gateway := pagotic.NewClient(pagotic.Config{
		BaseURL:      cfg.PagoTICBaseURL,
		ClientID:     cfg.PagoTICClientID,
		ClientSecret: cfg.PagoTICSecret,
		CollectorID:  cfg.PagoTICCollector,
		Currency:     "ARS",
	})
	urls := pagotic.URLs{
		Return:       cfg.AppBaseURL + "/checkout/success",
		Back:         cfg.AppBaseURL + "/checkout/back",
		Notification: cfg.AppBaseURL + "/api/webhooks/pagotic",
	}

	publisher := queue.NewPublisher(cfg.AMQPURL)

	orderSvc := service.NewOrderService(orders, events, seats, orders)
	paymentSvc := service.NewPaymentService(orders, seats, users, payments, gateway, urls, clk)
	callbackSvc := service.NewCallbackService(orders, events, seats, orders, payments, tickets, publisher, clk)
	sweeper := service.NewExpirySweeper(orders, orders, seats, clk,
		time.Duration(cfg.OrderTTLMin)*time.Minute,
		time.Duration(cfg.SweepEverySec)*time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweeper.Run(ctx)
	go func() {
		consumer := queue.NewConsumer(cfg.AMQPURL, cfg.AssetDir, tickets)
		if err := consumer.Start(); err != nil {
			log.Printf("queue consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, cfg, router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, users, tokens),
		Orders:       handler.NewOrderHandler(orderSvc),
		Payments:     handler.NewPaymentHandler(paymentSvc),
		Webhooks:     handler.NewWebhookHandler(callbackSvc),
		Availability: handler.NewAvailabilityHandler(events, seats),
		Tickets:      handler.NewTicketHandler(tickets, orders, clk),
	}, rdb)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
