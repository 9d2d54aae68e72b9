package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"mynahbackend/clients"
	anthropicclient "mynahbackend/clients/anthropic"
	"mynahbackend/clients/heuristic"
	"mynahbackend/clients/ibis"
	slackclient "mynahbackend/clients/slack"
	"mynahbackend/config"
	"mynahbackend/core"
	"mynahbackend/handlers"
	"mynahbackend/handoffnotif"
	"mynahbackend/middleware"
	"mynahbackend/services/emails"
	"mynahbackend/services/entities"
	"mynahbackend/services/intents"
	"mynahbackend/services/matters"
	"mynahbackend/services/responses"
	"mynahbackend/services/sessions"
	"mynahbackend/services/settlements"
	"mynahbackend/usecases/conversation"
	"mynahbackend/usecases/router"
)

const handoffWorkers = 2

func main() {
	if err := run(); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	core.SetupLogging(cfg.LogLevel, cfg.LogFormat)

	webhookClient := slackclient.NewWebhookClient()

	// Initialize error alert middleware
	alertMiddleware := middleware.NewErrorAlertMiddleware(middleware.SlackAlertConfig{
		WebhookURL:  cfg.SlackConfig.AlertWebhookURL,
		Environment: cfg.Environment,
		AppName:     "mynahbackend",
		LogsURL:     cfg.ServerLogsURL,
	}, webhookClient)

	// Session store and, for backends that keep expired rows, the reaper
	store := sessions.NewStoreFromConfig(cfg)
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("❌ Failed to close session store: %v", err)
		}
	}()

	if cleanup, ok := sessions.NewCleanupForStore(store, cfg.SessionConfig.CleanupInterval, alertMiddleware.WrapBackgroundTask); ok {
		cleanup.Start()
		defer cleanup.Stop()
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	handoffNotifier := handoffnotif.New(webhookClient, cfg.SlackConfig.HandoffWebhookURL, cfg.Environment, handoffWorkers)
	defer handoffNotifier.Stop()

	deps := conversation.Dependencies{
		Store:      store,
		Classifier: intents.NewIntentsService(generator),
		Extractor:  entities.NewEntitiesService(generator),
		Router:     router.New(router.DefaultTable()),
		Responder:  responses.NewResponsesService(generator),
		Reasoning:  settlements.NewSettlementsService(cfg.ReasoningConfig),
		Handoff:    handoffNotifier,
	}
	mattersService, emailsService, err := newCaseManagementServices(cfg)
	if err != nil {
		return err
	}
	if mattersService != nil {
		deps.Matters = mattersService
		deps.Emails = emailsService
	}

	conversationUseCase := conversation.NewUseCase(deps)

	interactionsHandler := handlers.NewInteractionsAPIHandler(conversationUseCase, store)
	interactionsHTTPHandler := handlers.NewInteractionsHTTPHandler(interactionsHandler)

	httpRouter := mux.NewRouter()
	interactionsHTTPHandler.SetupEndpoints(httpRouter)

	// Setup CORS middleware
	allowedOrigins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	})

	// Setup and handle graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           alertMiddleware.HTTPMiddleware(c.Handler(httpRouter)),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server)
}

// newGenerator picks the Anthropic model when configured, the keyword heuristic otherwise
func newGenerator(cfg *config.AppConfig) (clients.StructuredGenerator, error) {
	if !cfg.AnthropicConfig.IsConfigured() {
		log.Printf("⚠️ Using heuristic generation - replies will come from templates")
		return heuristic.NewGenerator(), nil
	}

	client, err := anthropicclient.NewAnthropicClient(cfg.AnthropicConfig)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// newCaseManagementServices returns nil services when IBIS is not configured
func newCaseManagementServices(cfg *config.AppConfig) (*matters.MattersService, *emails.EmailsService, error) {
	if !cfg.IBISConfig.IsConfigured() {
		return nil, nil, nil
	}

	caseClient, err := ibis.NewIBISClient(cfg.IBISConfig)
	if err != nil {
		return nil, nil, err
	}
	return matters.NewMattersService(caseClient),
		emails.NewEmailsService(caseClient, cfg.IBISConfig.ApprovalEmail, time.Now),
		nil
}

func handleGracefulShutdown(server *http.Server) error {
	// Channel to listen for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Listening on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-stop
	log.Printf("🛑 Shutdown signal received, cleaning up...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown server gracefully
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
		return err
	}

	log.Printf("✅ Server stopped gracefully")
	return nil
}
