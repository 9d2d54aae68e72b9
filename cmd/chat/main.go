package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"

	"mynahbackend/clients"
	anthropicclient "mynahbackend/clients/anthropic"
	"mynahbackend/clients/heuristic"
	"mynahbackend/clients/ibis"
	"mynahbackend/config"
	"mynahbackend/core"
	"mynahbackend/models"
	"mynahbackend/services/emails"
	"mynahbackend/services/entities"
	"mynahbackend/services/intents"
	"mynahbackend/services/matters"
	"mynahbackend/services/responses"
	"mynahbackend/services/sessions"
	"mynahbackend/services/settlements"
	"mynahbackend/usecases/conversation"
)

type Options struct {
	SessionID       string `long:"session" description:"Resume an existing session instead of starting a new one"`
	DebtorID        string `long:"debtor" default:"cli-debtor" description:"Debtor id sent with every message"`
	UseConfigStore  bool   `long:"useConfigStore" description:"Use SESSION_BACKEND from the environment instead of an in-memory store"`
	ForceHeuristics bool   `long:"heuristic" description:"Ignore ANTHROPIC_API_KEY and use keyword heuristics"`
	Verbose         bool   `short:"v" long:"verbose" description:"Print intent, agent path and awaited input after every reply"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	// Keep the conversation readable; only warnings reach the terminal
	core.SetupLogging("warn", "text")

	useCase, closeStore, err := newUseCase(cfg, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing conversation: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	if err := chat(context.Background(), useCase, opts, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newUseCase(cfg *config.AppConfig, opts Options) (*conversation.UseCase, func(), error) {
	var store *sessions.Store
	if opts.UseConfigStore {
		store = sessions.NewStoreFromConfig(cfg)
	} else {
		store = sessions.NewStore(sessions.NewMemoryBackend(time.Now), cfg.SessionConfig.TTL, time.Now)
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			log.Printf("❌ Failed to close session store: %v", err)
		}
	}

	var generator clients.StructuredGenerator = heuristic.NewGenerator()
	if cfg.AnthropicConfig.IsConfigured() && !opts.ForceHeuristics {
		client, err := anthropicclient.NewAnthropicClient(cfg.AnthropicConfig)
		if err != nil {
			closeStore()
			return nil, nil, err
		}
		generator = client
	}

	deps := conversation.Dependencies{
		Store:      store,
		Classifier: intents.NewIntentsService(generator),
		Extractor:  entities.NewEntitiesService(generator),
		Responder:  responses.NewResponsesService(generator),
		Reasoning:  settlements.NewSettlementsService(cfg.ReasoningConfig),
	}
	if cfg.IBISConfig.IsConfigured() {
		caseClient, err := ibis.NewIBISClient(cfg.IBISConfig)
		if err != nil {
			closeStore()
			return nil, nil, err
		}
		deps.Matters = matters.NewMattersService(caseClient)
		deps.Emails = emails.NewEmailsService(caseClient, cfg.IBISConfig.ApprovalEmail, time.Now)
	}

	return conversation.NewUseCase(deps), closeStore, nil
}

// chat reads one debtor message per line until EOF or /quit. /reset starts a new session.
func chat(ctx context.Context, useCase *conversation.UseCase, opts Options, in io.Reader, out io.Writer) error {
	sessionID := opts.SessionID
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out, "Type a message as the debtor. /reset starts a new session, /quit exits.")
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			sessionID = ""
			fmt.Fprintln(out, "(new session)")
			continue
		}

		result, err := useCase.ProcessInteraction(ctx, models.Interaction{
			SessionID: sessionID,
			DebtorID:  opts.DebtorID,
			Message:   line,
			Channel:   "cli",
		})
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		sessionID = result.SessionID

		fmt.Fprintf(out, "\n%s\n\n", result.Response)
		if opts.Verbose {
			fmt.Fprintf(out, "[session=%s intent=%s status=%s path=%s awaiting=%s]\n",
				result.SessionID, result.Intent, result.Status,
				strings.Join(result.AgentPath, " > "), result.AwaitingInput)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
