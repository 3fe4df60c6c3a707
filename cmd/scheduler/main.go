package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"leadflow_backend/internal/ai"
	"leadflow_backend/internal/billing"
	"leadflow_backend/internal/email"
	"leadflow_backend/internal/followup"
	"leadflow_backend/internal/inbox"
	"leadflow_backend/internal/intent"
	leadsrepo "leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/service"
	"leadflow_backend/internal/notification"
	"leadflow_backend/internal/outreach"
	"leadflow_backend/internal/quotes"
	"leadflow_backend/internal/scheduler"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/db"
	"leadflow_backend/platform/events"
	"leadflow_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}
	smsClient := outreach.NewSMSClient(cfg, log)
	dispatcher := outreach.NewDispatcher(sender, smsClient, log)

	notification.NewModule(eventBus, sender, cfg.GetOperatorEmail(), log)

	// Worker-side lifecycle wiring (no HTTP handlers required).
	aiRepo := ai.NewRepository(pool)
	gateway := ai.NewGateway(aiRepo, log, buildProviders(ctx, cfg, log)...)
	classifier := intent.NewClassifier(gateway, log)
	engine := quotes.NewEngine(gateway)

	leadsRepo := leadsrepo.New(pool)
	machine := service.NewStateMachine(leadsRepo, eventBus, log)
	converter := buildConverter(cfg, pool, leadsRepo, machine, sender, smsClient, eventBus, log)
	orchestrator := service.NewOrchestrator(machine, engine, classifier, dispatcher, converter, log)

	followups := followup.NewService(leadsRepo, machine, dispatcher, cfg, log)

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	ticker := scheduler.NewFollowUpTicker(cfg, client, log)
	go ticker.Run(ctx)

	poller := inbox.NewPoller(cfg, orchestrator, log)
	go poller.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, cfg, leadsRepo, followups, client, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("scheduler stopped")
}

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
