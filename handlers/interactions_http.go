package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"mynahbackend/appctx"
	"mynahbackend/core"
	"mynahbackend/models/api"
)

const requestIDHeader = "X-Request-ID"

type InteractionsHTTPHandler struct {
	handler *InteractionsAPIHandler
}

func NewInteractionsHTTPHandler(handler *InteractionsAPIHandler) *InteractionsHTTPHandler {
	return &InteractionsHTTPHandler{
		handler: handler,
	}
}

func (h *InteractionsHTTPHandler) HandleInteract(w http.ResponseWriter, r *http.Request) {
	logger := appctx.Logger(r.Context())
	logger.Printf("📋 Interaction request received from %s", r.RemoteAddr)

	var req api.InteractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Printf("❌ Failed to decode interaction request: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	response, err := h.handler.Interact(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			logger.Printf("⚠️ Rejected interaction request: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Printf("❌ Failed to process interaction: %v", err)
		http.Error(w, "failed to process interaction", http.StatusInternalServerError)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

func (h *InteractionsHTTPHandler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, h.handler.ListSessions(r.Context()))
}

func (h *InteractionsHTTPHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, h.handler.GetStats(r.Context()))
}

func (h *InteractionsHTTPHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := h.handler.GetSession(r.Context(), sessionID)
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, session)
}

func (h *InteractionsHTTPHandler) HandleGetSessionTTL(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	ttl, err := h.handler.GetSessionTTL(r.Context(), sessionID)
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, ttl)
}

func (h *InteractionsHTTPHandler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := h.handler.DeleteSession(r.Context(), sessionID); err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InteractionsHTTPHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := h.handler.Health(r.Context())
	statusCode := http.StatusOK
	if health.Status != "ok" {
		statusCode = http.StatusServiceUnavailable
	}
	h.writeJSONResponse(w, statusCode, health)
}

// WithRequestID tags the request context with the caller's request id or a fresh one
func (h *InteractionsHTTPHandler) WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = core.NewID("req")
		}
		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(appctx.SetRequestID(r.Context(), requestID)))
	})
}

func (h *InteractionsHTTPHandler) SetupEndpoints(router *mux.Router) {
	log.Printf("🚀 Registering interaction endpoints")

	router.Use(h.WithRequestID)

	router.HandleFunc("/interact", h.HandleInteract).Methods("POST")
	log.Printf("✅ POST /interact endpoint registered")

	// Diagnostics never refresh a session's TTL
	router.HandleFunc("/sessions", h.HandleListSessions).Methods("GET")
	log.Printf("✅ GET /sessions endpoint registered")

	router.HandleFunc("/sessions/stats", h.HandleGetStats).Methods("GET")
	log.Printf("✅ GET /sessions/stats endpoint registered")

	router.HandleFunc("/sessions/{id}", h.HandleGetSession).Methods("GET")
	log.Printf("✅ GET /sessions/{id} endpoint registered")

	router.HandleFunc("/sessions/{id}/ttl", h.HandleGetSessionTTL).Methods("GET")
	log.Printf("✅ GET /sessions/{id}/ttl endpoint registered")

	router.HandleFunc("/sessions/{id}", h.HandleDeleteSession).Methods("DELETE")
	log.Printf("✅ DELETE /sessions/{id} endpoint registered")

	router.HandleFunc("/health", h.HandleHealth).Methods("GET")
	log.Printf("✅ GET /health endpoint registered")

	log.Printf("✅ All interaction endpoints registered successfully")
}

func (h *InteractionsHTTPHandler) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if core.IsNotFoundError(err) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	appctx.Logger(r.Context()).Printf("❌ Session lookup failed: %v", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (h *InteractionsHTTPHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("❌ Failed to encode JSON response: %v", err)
	}
}
