package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/arenaops/ticket-pricing/internal/config"
	"github.com/arenaops/ticket-pricing/internal/database"
	"github.com/arenaops/ticket-pricing/internal/handler"
	"github.com/arenaops/ticket-pricing/internal/pricing"
	"github.com/arenaops/ticket-pricing/internal/queue"
	"github.com/arenaops/ticket-pricing/internal/repository"
	"github.com/arenaops/ticket-pricing/internal/router"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Redis is optional: a nil client disables caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiter disabled")
	}

	ruleRepo := repository.NewMarkupRuleRepo(db)
	serviceRepo := repository.NewHospitalityServiceRepo(db)
	assignmentRepo := repository.NewAssignmentRepo(db)
	legacyRepo := repository.NewLegacyRepo(db)

	markupResolver := pricing.NewMarkupResolver(legacyRepo, ruleRepo)
	hospitalityResolver := pricing.NewHospitalityResolver(legacyRepo, assignmentRepo)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterPublic(e, handler.NewPricingHandler(markupResolver, hospitalityResolver, serviceRepo), rdb)
	router.RegisterAdmin(e,
		handler.NewAdminRuleHandler(ruleRepo),
		handler.NewAdminHospitalityHandler(serviceRepo, assignmentRepo),
		handler.NewAdminLegacyHandler(legacyRepo, serviceRepo),
		cfg.JWTSecret,
	)

	// Audit trail consumer runs for the life of the process and
	// reconnects on its own when the broker drops.
	go func() {
		if err := queue.StartRuleChangeConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
