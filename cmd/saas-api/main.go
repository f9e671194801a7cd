package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
	"github.com/rs/zerolog/log"

	"github.com/nexuschat/nexuschat-be/internal/core/agent"
	"github.com/nexuschat/nexuschat-be/internal/core/dedupe"
	"github.com/nexuschat/nexuschat-be/internal/core/email"
	"github.com/nexuschat/nexuschat-be/internal/core/kb"
	"github.com/nexuschat/nexuschat-be/internal/core/llm"
	"github.com/nexuschat/nexuschat-be/internal/core/payment"
	"github.com/nexuschat/nexuschat-be/internal/core/tenant"
	"github.com/nexuschat/nexuschat-be/internal/core/whatsapp"
	"github.com/nexuschat/nexuschat-be/internal/modules/saas/handlers"
	"github.com/nexuschat/nexuschat-be/internal/modules/saas/models"
	"github.com/nexuschat/nexuschat-be/internal/modules/saas/repositories"
	"github.com/nexuschat/nexuschat-be/internal/modules/saas/services"
	"github.com/nexuschat/nexuschat-be/internal/shared/config"
	"github.com/nexuschat/nexuschat-be/internal/shared/database"
	"github.com/nexuschat/nexuschat-be/internal/shared/utils"

	_ "github.com/nexuschat/nexuschat-be/cmd/saas-api/docs"
)

// @title NexusChat API
// @version 1.0
// @description Multi-tenant WhatsApp ordering and scheduling assistant
// @contact.name API Support
// @contact.email suporte@nexuschat.app
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg := config.LoadConfig()
	utils.InitLogger(cfg.LogLevel, cfg.Env)
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("🚀 Starting nexuschat-api")

	ctx := context.Background()
	loc := cfg.Location()

	db, err := database.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to connect to database")
	}
	defer db.Close()

	if db.NeedsAutoMigrate() {
		// Postgres schemas come from cmd/migrate
		if err := db.GORM.AutoMigrate(models.AllModels()...); err != nil {
			log.Fatal().Err(err).Str("dialect", db.Dialect).Msg("❌ Failed to migrate schema")
		}
	}

	policy, err := config.LoadFilterPolicy(cfg.FilterPolicyPath)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to load filter policy")
	}

	// Repositories
	tenantRepo := repositories.NewTenantRepo(db.GORM)
	conversationRepo := repositories.NewConversationRepo(db.GORM)
	orderRepo := repositories.NewOrderRepo(db.GORM)
	paymentRepo := repositories.NewPaymentRepo(db.GORM)

	// LLM
	llmService, err := llm.NewService(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to initialize LLM provider")
	}

	// Orchestrator
	retriever := kb.NewRetriever(tenantRepo, orderRepo, loc, cfg.SchedulingKeyword)
	engine := agent.NewEngine(retriever, conversationRepo, llmService, agent.Config{
		HistoryLimit: cfg.HistoryLimit,
		LLMTimeout:   cfg.LLMTimeout,
	})

	// WhatsApp sessions
	factory, err := whatsapp.NewWhatsmeowFactory(ctx, cfg.WhatsAppStoreURL, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to open WhatsApp store")
	}
	manager := whatsapp.NewManager(factory, tenantRepo, cfg.TeardownWait)

	// Inbound pipeline
	seen := dedupe.New(10*time.Minute, 10000)
	defer seen.Close()

	orderService := services.NewOrderService(orderRepo, loc, cfg.SchedulingKeyword)
	pipeline := services.NewPipeline(
		manager,
		engine,
		tenant.NewResolver(tenantRepo),
		orderService,
		policy,
		seen,
		services.PipelineConfig{
			StaleAfter: cfg.StaleMessageAfter,
			Pacing:     cfg.ReplyPacing,
		},
	)
	manager.SetInboundHandler(pipeline.Handle)

	// Subscriptions
	var gateway payment.Gateway
	if cfg.MercadoPagoAccessToken != "" {
		gateway = payment.NewMercadoPagoGateway(cfg.MercadoPagoAccessToken)
	} else {
		log.Warn().Msg("⚠️ MP_ACCESS_TOKEN not set, payment webhooks will fail")
	}

	var emailProvider email.Provider
	if cfg.BrevoAPIKey != "" {
		emailProvider = email.NewBrevoProvider(cfg.BrevoAPIKey, cfg.EmailFrom, cfg.EmailFromName)
	} else {
		log.Warn().Msg("⚠️ Email service not configured")
	}
	emailService := email.NewService(emailProvider, cfg.PublicBaseURL)

	subscriptions := services.NewSubscriptionService(gateway, paymentRepo, tenantRepo, emailService, manager)
	if err := subscriptions.StartSweeper(cfg.SubscriptionSweepSchedule); err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to start subscription sweeper")
	}

	// Resume sessions of tenants that already linked a device
	linked, err := tenantRepo.ListLinked(ctx)
	if err != nil {
		log.Error().Err(err).Msg("❌ Failed to list linked tenants")
	}
	for _, t := range linked {
		manager.EnsureSession(ctx, t.ID)
	}
	log.Info().Int("sessions", len(linked)).Msg("📱 WhatsApp sessions resumed")

	// HTTP
	app := fiber.New(fiber.Config{
		AppName: "NexusChat API",
	})
	app.Use(cors.New())
	app.Get("/swagger/*", swagger.HandlerDefault)

	handlers.Register(app, handlers.Handlers{
		Health:   handlers.NewHealthHandler(llmService),
		WhatsApp: handlers.NewWhatsAppHandler(manager),
		Webhook:  handlers.NewWebhookHandler(subscriptions),
		Orders:   handlers.NewOrderHandler(orderRepo),
		Tenants:  handlers.NewTenantHandler(tenantRepo),
	})

	go func() {
		log.Info().Msgf("✅ nexuschat-api running at :%s", cfg.Port)
		log.Info().Msgf("📄 Swagger UI: http://localhost:%s/swagger/", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("❌ HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("🛑 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("❌ HTTP shutdown failed")
	}
	subscriptions.StopSweeper()
	if err := manager.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("❌ Failed to close WhatsApp sessions")
	}
	log.Info().Msg("👋 Bye")
}
