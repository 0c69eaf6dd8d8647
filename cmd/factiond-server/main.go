package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/xyn4x/factiond/pkg/factiond/admin"
	"github.com/xyn4x/factiond/pkg/factiond/audit"
	"github.com/xyn4x/factiond/pkg/factiond/auth"
	"github.com/xyn4x/factiond/pkg/factiond/channels"
	"github.com/xyn4x/factiond/pkg/factiond/config"
	"github.com/xyn4x/factiond/pkg/factiond/database"
	"github.com/xyn4x/factiond/pkg/factiond/engine"
	"github.com/xyn4x/factiond/pkg/factiond/factions"
	"github.com/xyn4x/factiond/pkg/factiond/importexport"
	"github.com/xyn4x/factiond/pkg/factiond/members"
	"github.com/xyn4x/factiond/pkg/factiond/metrics"
	"github.com/xyn4x/factiond/pkg/factiond/models"
	"github.com/xyn4x/factiond/pkg/factiond/platform"
	"github.com/xyn4x/factiond/pkg/factiond/servicekeys"
	"github.com/xyn4x/factiond/pkg/factiond/settings"
	"github.com/xyn4x/factiond/pkg/factiond/strikes"
	"github.com/xyn4x/factiond/pkg/factiond/workflow"
)

// @title factiond API
// @version 1.0
// @description Faction lifecycle backend: creation approval, ranks, strikes, channels, and permission policies for a community gateway.

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token or service key. Format: "Bearer {token}"

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}

	db, err := database.Connect(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("connecting to database")
	}
	if err := models.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("running migrations")
	}
	log.Info().Str("db_path", cfg.DBPath).Msg("database migrations completed")

	// The platform client is the gateway's side of the system. The
	// in-memory implementation stands in until a gateway connects one;
	// directory state is authoritative either way.
	var client platform.Client = platform.NewFake()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	advisory := platform.NewAdvisory(client, log)
	recorder := audit.NewRecorder(log, advisory, cfg.LogChannelID)

	eng := engine.New(engine.Options{
		DB:             db,
		Client:         client,
		Audit:          recorder,
		Metrics:        m,
		Log:            log,
		RankRoleIDs:    cfg.RankRoleIDs(),
		AdminChannelID: cfg.AdminChannelID,
	})

	workflows := workflow.NewStore(nil, func(delta int) {
		m.WorkflowOpen.Add(float64(delta))
	})

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "factiond"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	{
		// Auth routes (public)
		auth.NewHandler(cfg).RegisterRoutes(api.Group("/auth"))

		// Combined auth middleware (accepts JWT or service key)
		combinedAuth := servicekeys.CombinedAuthMiddleware(db)

		// Member-facing routes act on behalf of a platform user named in
		// the X-Acting-User header.
		acting := api.Group("", combinedAuth, auth.RequireActingUser())
		factions.NewHandler(eng).RegisterRoutes(acting)
		members.NewHandler(eng).RegisterRoutes(acting)
		strikes.NewHandler(eng).RegisterRoutes(acting)
		channels.NewHandler(eng).RegisterRoutes(acting)
		settings.NewHandler(eng).RegisterRoutes(acting)
		workflow.NewHandler(workflows, eng).RegisterRoutes(acting)

		// Admin routes (admin flag required)
		adminGroup := api.Group("/admin", combinedAuth, auth.RequireAdmin())
		admin.NewHandler(eng).RegisterRoutes(adminGroup)
		servicekeys.NewHandler(db).RegisterRoutes(adminGroup)
		importexport.NewHandler(db).RegisterRoutes(adminGroup)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info().Str("addr", addr).Msg("starting factiond server")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
