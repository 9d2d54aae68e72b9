package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mynahbackend/appctx"
	"mynahbackend/core"
	"mynahbackend/models"
	"mynahbackend/models/api"
	"mynahbackend/services"
)

const healthCheckTimeout = 2 * time.Second

// ErrInvalidRequest marks a request the caller has to fix
var ErrInvalidRequest = errors.New("invalid request")

// InteractionProcessor runs one debtor message through the pipeline
type InteractionProcessor interface {
	ProcessInteraction(ctx context.Context, interaction models.Interaction) (*models.InteractionResult, error)
}

// backendPinger is implemented by stores whose backend holds a connection
type backendPinger interface {
	Ping(ctx context.Context) error
}

type InteractionsAPIHandler struct {
	processor InteractionProcessor
	store     services.SessionStore
}

func NewInteractionsAPIHandler(processor InteractionProcessor, store services.SessionStore) *InteractionsAPIHandler {
	return &InteractionsAPIHandler{
		processor: processor,
		store:     store,
	}
}

func (h *InteractionsAPIHandler) Interact(ctx context.Context, req *api.InteractRequest) (*api.InteractResponse, error) {
	if req == nil || strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}

	result, err := h.processor.ProcessInteraction(ctx, api.InteractRequestToDomainInteraction(req))
	if err != nil {
		return nil, fmt.Errorf("failed to process interaction: %w", err)
	}
	return api.DomainInteractionResultToAPIResponse(result), nil
}

func (h *InteractionsAPIHandler) ListSessions(ctx context.Context) *api.SessionListModel {
	infos := h.store.ListSessions(ctx)
	appctx.Logger(ctx).Printf("📋 Listed %d live sessions", len(infos))
	return api.DomainSessionInfosToAPISessionList(infos)
}

func (h *InteractionsAPIHandler) GetStats(ctx context.Context) *api.SessionStatsModel {
	stats := h.store.GetStats(ctx)
	return api.DomainSessionStatsToAPIStats(&stats)
}

// GetSession returns a stored context without refreshing its TTL
func (h *InteractionsAPIHandler) GetSession(ctx context.Context, sessionID string) (*api.SessionDetailModel, error) {
	maybeCtx := h.store.Peek(ctx, sessionID)
	if !maybeCtx.IsPresent() {
		return nil, fmt.Errorf("session %s: %w", sessionID, core.ErrNotFound)
	}
	return &api.SessionDetailModel{Context: maybeCtx.MustGet()}, nil
}

func (h *InteractionsAPIHandler) GetSessionTTL(ctx context.Context, sessionID string) (*api.SessionTTLModel, error) {
	maybeTTL := h.store.GetTTL(ctx, sessionID)
	if !maybeTTL.IsPresent() {
		return nil, fmt.Errorf("session %s: %w", sessionID, core.ErrNotFound)
	}
	return &api.SessionTTLModel{
		SessionID:  sessionID,
		TTLSeconds: int64(maybeTTL.MustGet().Seconds()),
	}, nil
}

func (h *InteractionsAPIHandler) DeleteSession(ctx context.Context, sessionID string) error {
	if !h.store.Delete(ctx, sessionID) {
		return fmt.Errorf("session %s: %w", sessionID, core.ErrNotFound)
	}
	appctx.Logger(ctx).Printf("📋 Deleted session %s", sessionID)
	return nil
}

// Health reports the session backend and whether it answers a ping
func (h *InteractionsAPIHandler) Health(ctx context.Context) *api.HealthModel {
	health := &api.HealthModel{
		Status:         "ok",
		SessionBackend: h.store.Backend(),
	}

	if p, ok := h.store.(backendPinger); ok {
		pingCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		defer cancel()
		if err := p.Ping(pingCtx); err != nil {
			appctx.Logger(ctx).Printf("⚠️ Session backend %s failed health check: %v", health.SessionBackend, err)
			health.Status = "degraded"
		}
	}
	return health
}
