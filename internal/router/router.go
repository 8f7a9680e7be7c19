// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/arenaops/ticket-pricing/internal/config"
	"github.com/arenaops/ticket-pricing/internal/handler"
	"github.com/arenaops/ticket-pricing/internal/middleware"
)

// RegisterRoutes registers routes that do not belong to any group.
// Currently that is only the health check, used by load balancers to
// verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated storefront read
// endpoints under /v1. These are the hot path during on-sales, so the
// whole group runs behind the Redis response cache and the token
// bucket limiter. A nil Redis client disables both and the group
// serves straight from MySQL.
func RegisterPublic(e *echo.Echo, p *handler.PricingHandler, rdb *redis.Client) {
	g := e.Group(
		"/v1",
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)
	// Single-ticket resolution; ancestry arrives as query parameters.
	g.GET("/pricing/markup", p.GetMarkup)
	g.GET("/pricing/hospitality", p.GetHospitality)
	// Batch resolution for one event's ticket listing.
	g.GET("/events/:id/markups", p.GetEventMarkups)
	g.GET("/events/:id/hospitality", p.GetEventHospitality)
	// Active service catalog for storefront display.
	g.GET("/hospitality-services", p.GetPublicServices)
}
