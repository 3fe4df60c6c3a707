package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"leadflow_backend/internal/ai"
	"leadflow_backend/internal/auth"
	"leadflow_backend/internal/billing"
	"leadflow_backend/internal/email"
	"leadflow_backend/internal/followup"
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/internal/intent"
	"leadflow_backend/internal/leads"
	leadsrepo "leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/service"
	"leadflow_backend/internal/notification"
	"leadflow_backend/internal/outreach"
	"leadflow_backend/internal/quotes"
	"leadflow_backend/internal/webhook"
	"leadflow_backend/migrations"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/db"
	"leadflow_backend/platform/events"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}
	smsClient := outreach.NewSMSClient(cfg, log)
	dispatcher := outreach.NewDispatcher(sender, smsClient, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	aiRepo := ai.NewRepository(pool)
	gateway := ai.NewGateway(aiRepo, log, buildProviders(ctx, cfg, log)...)
	engine := quotes.NewEngine(gateway)
	classifier := intent.NewClassifier(gateway, log)

	leadsRepo := leadsrepo.New(pool)
	machine := service.NewStateMachine(leadsRepo, eventBus, log)

	converter := buildConverter(cfg, pool, leadsRepo, machine, sender, smsClient, eventBus, log)
	orchestrator := service.NewOrchestrator(machine, engine, classifier, dispatcher, converter, log)

	if err := followup.SeedTemplates(ctx, leadsRepo, log); err != nil {
		log.Error("failed to seed follow-up templates", "error", err)
	}

	// Shares the scheduler binary's batch path, exposed as a manual trigger.
	followups := followup.NewService(leadsRepo, machine, dispatcher, cfg, log)

	// Notification module subscribes to domain events (not HTTP-facing)
	notification.NewModule(eventBus, sender, cfg.GetOperatorEmail(), log)

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{
			auth.NewModule(cfg, val, log),
			webhook.NewModule(pool, orchestrator, val),
			leads.NewModule(machine, orchestrator, leadsRepo, converter, val),
			followup.NewModule(followups),
			ai.NewModule(aiRepo, val),
		},
	}

	engineHTTP := apphttp.NewRouter(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engineHTTP.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// buildProviders registers every AI backend that has credentials. The
// gateway routes by model config, so an unconfigured provider is simply
// never selected.
func buildProviders(ctx context.Context, cfg *config.Config, log *logger.Logger) []ai.Provider {
	providers := []ai.Provider{
		ai.NewOpenAIClient(ai.OpenAIConfig{APIKey: cfg.GetOpenAIAPIKey(), BaseURL: cfg.GetOpenAIBaseURL()}),
	}

	if cfg.GetGeminiAPIKey() != "" {
		gemini, err := ai.NewGeminiClient(ctx, cfg.GetGeminiAPIKey())
		if err != nil {
			log.Error("failed to initialize gemini client", "error", err)
		} else {
			providers = append(providers, gemini)
		}
	}

	return providers
}

// buildConverter wires the billing coordinator when the accounting system
// is configured. Without it, purchase-intent leads stay in their reply
// status for manual handling.
func buildConverter(cfg *config.Config, pool *pgxpool.Pool, repo *leadsrepo.Repository, machine *service.StateMachine, sender email.Sender, sms *outreach.SMSClient, bus events.Bus, log *logger.Logger) service.Converter {
	if !cfg.IsBillingEnabled() {
		log.Warn("billing is not configured; automatic conversion disabled")
		return nil
	}

	tokens := billing.NewTokenManager(
		billing.NewTokenStore(pool),
		cfg.GetBillingTokenURL(), cfg.GetBillingClientID(), cfg.GetBillingClientSecret(),
		log,
	)
	client := billing.NewClient(cfg.GetBillingBaseURL(), cfg.GetBillingRealmID(), tokens)
	return billing.NewCoordinator(client, repo, machine, sender, sms, bus, cfg.GetPaymentBaseURL(), log)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return lastErr
}
