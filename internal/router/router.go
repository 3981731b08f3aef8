// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/entradalibre/ticketing/internal/config"
	"github.com/entradalibre/ticketing/internal/handler"
	"github.com/entradalibre/ticketing/internal/middleware"
	"github.com/entradalibre/ticketing/internal/model"
)

// Handlers groups everything the router registers.
type Handlers struct {
	Auth         *handler.AuthHandler
	Orders       *handler.OrderHandler
	Payments     *handler.PaymentHandler
	Webhooks     *handler.WebhookHandler
	Availability *handler.AvailabilityHandler
	Tickets      *handler.TicketHandler
}

// Register wires every route of the service onto the Echo instance.
// rdb may be nil, in which case rate limiting and response caching are
// disabled and the service degrades gracefully.
func Register(e *echo.Echo, cfg config.Config, h Handlers, rdb *redis.Client) {
	// Operational endpoints.
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.Static("/assets", cfg.AssetDir)

	// Provider callbacks carry no user auth; the external transaction id
	// is the correlation handle.
	e.POST("/api/webhooks/pagotic", h.Webhooks.Notify)

	// Auth.
	authGroup := e.Group("/v1/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", h.Auth.Logout)

	// Public browsing, cached when Redis is available.
	public := e.Group("/v1")
	if rdb != nil {
		public.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	}
	public.GET("/events/:id/sessions/:sid/seats", h.Availability.SessionSeats)

	// Buyer endpoints.
	buyer := e.Group("/v1")
	buyer.Use(middleware.JWTAuth(cfg.JWTSecret))
	buyer.Use(middleware.RequireRole(model.RoleCustomer, model.RoleOrganizer))
	buyer.GET("/me", h.Auth.Me)
	buyer.GET("/my-orders", h.Orders.List)
	buyer.GET("/orders/:id", h.Orders.Get)
	buyer.GET("/orders/:id/tickets", h.Tickets.ListForOrder)
	buyer.POST("/orders/:id/payment", h.Payments.Initiate)

	// Order creation sits behind the rate limiter: it is the endpoint
	// buyers hammer when a sale opens.
	createOrder := e.Group("/v1")
	createOrder.Use(middleware.JWTAuth(cfg.JWTSecret))
	createOrder.Use(middleware.RequireRole(model.RoleCustomer, model.RoleOrganizer))
	if rdb != nil {
		createOrder.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	}
	createOrder.POST("/orders", h.Orders.Create)

	// Venue staff only.
	staff := e.Group("/v1")
	staff.Use(middleware.JWTAuth(cfg.JWTSecret))
	staff.Use(middleware.RequireRole(model.RoleOrganizer))
	staff.POST("/tickets/validate", h.Tickets.Validate)
}
