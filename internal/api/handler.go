// Package api exposes the assistant over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
	"github.com/sushant23/ai-agent-demo-sub001/internal/session"
	"github.com/sushant23/ai-agent-demo-sub001/internal/workflow"
	"go.uber.org/zap"
)

// maxBodySize caps request bodies
const maxBodySize = 1 << 20

// Assistant is the part of the orchestrator the API needs
type Assistant interface {
	ProcessUserInput(ctx context.Context, input agent.UserInput, conv *agent.Conversation) *agent.AgentResponse
	Status() workflow.Status
	WorkflowMetrics(p workflow.PatternType) (workflow.PatternMetrics, error)
	MetricsSnapshot() map[workflow.PatternType]workflow.PatternMetrics
}

// MessageRequest is the body of POST /v1/messages
type MessageRequest struct {
	SessionID string            `json:"session_id"`
	UserID    string            `json:"user_id"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Handler serves the assistant API
type Handler struct {
	assistant Assistant
	sessions  session.Manager
	logger    *zap.Logger
}

// NewHandler creates a handler. logger may be nil.
func NewHandler(assistant Assistant, sessions session.Manager, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		assistant: assistant,
		sessions:  sessions,
		logger:    logger,
	}
}

// RegisterRoutes registers the API routes with a gorilla/mux router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/v1/messages", h.PostMessage).Methods("POST")
	r.HandleFunc("/v1/status", h.GetStatus).Methods("GET")
	r.HandleFunc("/v1/patterns", h.ListPatterns).Methods("GET")
	r.HandleFunc("/v1/patterns/{pattern}/metrics", h.GetPatternMetrics).Methods("GET")
	r.HandleFunc("/v1/sessions/{id}", h.GetSession).Methods("GET")
	r.HandleFunc("/v1/sessions/{id}", h.DeleteSession).Methods("DELETE")
}

// PostMessage handles POST /v1/messages. Once the body is valid the answer
// is always 200: failures inside the assistant come back as a regular
// response carrying suggested actions.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "text is required")
		return
	}
	if req.SessionID == "" {
		h.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "session_id is required")
		return
	}

	conv, err := h.sessions.Load(r.Context(), req.SessionID, req.UserID)
	if err != nil {
		h.logger.Warn("failed to load conversation, starting a new one",
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		conv = agent.NewConversation(req.SessionID, req.UserID)
	}

	resp := h.assistant.ProcessUserInput(r.Context(), agent.UserInput{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Text:      req.Text,
		Metadata:  req.Metadata,
	}, conv)
	h.writeJSON(w, http.StatusOK, resp)
}

// GetStatus handles GET /v1/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.assistant.Status())
}

// ListPatterns handles GET /v1/patterns
func (h *Handler) ListPatterns(w http.ResponseWriter, r *http.Request) {
	snap := h.assistant.MetricsSnapshot()
	out := make([]workflow.PatternMetrics, 0, len(snap))
	for _, p := range workflow.BuiltinPatterns() {
		if m, ok := snap[p]; ok {
			out = append(out, m)
			delete(snap, p)
		}
	}
	for _, m := range snap {
		out = append(out, m)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"patterns": out})
}

// GetPatternMetrics handles GET /v1/patterns/{pattern}/metrics
func (h *Handler) GetPatternMetrics(w http.ResponseWriter, r *http.Request) {
	p := workflow.PatternType(mux.Vars(r)["pattern"])

	m, err := h.assistant.WorkflowMetrics(p)
	if err != nil {
		var ae *workflow.AgentError
		if errors.As(err, &ae) && ae.Code == workflow.CodeWorkflowMetricsNotFound {
			h.writeError(w, http.StatusNotFound, string(ae.Code), ae.Message)
			return
		}
		h.writeError(w, http.StatusInternalServerError, string(workflow.CodeUnknown), err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, m)
}

// GetSession handles GET /v1/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	conv, err := h.sessions.Load(r.Context(), id, r.URL.Query().Get("user_id"))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "SESSION_UNAVAILABLE", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, conv)
}

// DeleteSession handles DELETE /v1/sessions/{id}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, http.StatusInternalServerError, "SESSION_UNAVAILABLE", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Debug("failed to write response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, ErrorResponse{
		Error:   strings.ToLower(code),
		Code:    code,
		Message: message,
	})
}
