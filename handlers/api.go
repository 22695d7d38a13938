package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"agentnotify/clients"
	"agentnotify/core"
	"agentnotify/models"
	"agentnotify/usecases/notifier"
)

// NotifierAPIHandler exposes the notifier facade over HTTP for local agent
// tooling. The daemon binds it to loopback; there is no authentication layer.
type NotifierAPIHandler struct {
	gateway  clients.GatewayClient
	notifier *notifier.NotifierUseCase
	voicevox clients.VoicevoxClient

	voiceChannelID   string
	defaultSpeakerID int
}

func NewNotifierAPIHandler(
	gateway clients.GatewayClient,
	notifierUseCase *notifier.NotifierUseCase,
	voicevoxClient clients.VoicevoxClient,
	voiceChannelID string,
	defaultSpeakerID int,
) *NotifierAPIHandler {
	return &NotifierAPIHandler{
		gateway:          gateway,
		notifier:         notifierUseCase,
		voicevox:         voicevoxClient,
		voiceChannelID:   voiceChannelID,
		defaultSpeakerID: defaultSpeakerID,
	}
}

// RegisterRoutes attaches the API endpoints to the given router
func (h *NotifierAPIHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HandleHealthCheck).Methods("GET")
	router.HandleFunc("/log", h.HandleLogMessage).Methods("POST")
	router.HandleFunc("/wait_reaction", h.HandleWaitReaction).Methods("POST")
	router.HandleFunc("/notify_voice", h.HandleNotifyVoice).Methods("POST")
	router.HandleFunc("/speakers", h.HandleListSpeakers).Methods("GET")
}

type LogRequest struct {
	Role    string `json:"role"`
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
}

type WaitReactionRequest struct {
	Message string   `json:"message"`
	Options []string `json:"options"`
	Timeout int      `json:"timeout"`
	Context string   `json:"context,omitempty"`
}

type NotifyVoiceRequest struct {
	Message   string `json:"message"`
	Priority  string `json:"priority"`
	SpeakerID int    `json:"speaker_id"`
}

type HealthResponse struct {
	Status           string `json:"status"`
	DiscordConnected bool   `json:"discord_connected"`
}

func (h *NotifierAPIHandler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	connected := h.gateway.IsReady()
	status := "starting"
	if connected {
		status = "healthy"
	}
	h.writeJSONResponse(w, http.StatusOK, HealthResponse{
		Status:           status,
		DiscordConnected: connected,
	})
}

func (h *NotifierAPIHandler) HandleLogMessage(w http.ResponseWriter, r *http.Request) {
	var req LogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid log request: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	entry := models.LogEntry{
		Role:    models.LogRole(req.Role),
		Message: req.Message,
		Context: req.Context,
	}
	if err := h.notifier.Log(r.Context(), entry); err != nil {
		h.writeOperationError(w, "log message", err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Message logged successfully",
	})
}

func (h *NotifierAPIHandler) HandleWaitReaction(w http.ResponseWriter, r *http.Request) {
	req := WaitReactionRequest{Timeout: int(notifier.DefaultReactionTimeout / time.Second)}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid wait_reaction request: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	if len(req.Options) == 0 {
		http.Error(w, "at least one option is required", http.StatusBadRequest)
		return
	}

	timeout := time.Duration(req.Timeout) * time.Second
	result, err := h.notifier.AwaitReaction(r.Context(), req.Message, req.Options, timeout, req.Context)
	if err != nil {
		h.writeOperationError(w, "wait for reaction", err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]any{
		"status": "success",
		"result": result,
	})
}

func (h *NotifierAPIHandler) HandleNotifyVoice(w http.ResponseWriter, r *http.Request) {
	req := NotifyVoiceRequest{
		Priority:  string(models.VoicePriorityNormal),
		SpeakerID: h.defaultSpeakerID,
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid notify_voice request: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	if h.voiceChannelID == "" {
		http.Error(w, "VOICE_CHANNEL_ID is not configured on the daemon", http.StatusBadRequest)
		return
	}

	result, err := h.notifier.NotifyVoice(
		r.Context(), req.Message, models.VoicePriority(req.Priority), req.SpeakerID)
	if err != nil {
		h.writeOperationError(w, "send voice notification", err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]any{
		"status": "success",
		"result": result,
	})
}

func (h *NotifierAPIHandler) HandleListSpeakers(w http.ResponseWriter, r *http.Request) {
	if !h.voicevox.IsAvailable(r.Context()) {
		http.Error(w, "VOICEVOX Engine is not available", http.StatusServiceUnavailable)
		return
	}

	speakers, err := h.voicevox.GetSpeakers(r.Context())
	if err != nil {
		h.writeOperationError(w, "list speakers", err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":   "success",
		"speakers": speakers,
	})
}

// writeOperationError maps facade errors onto HTTP status codes. Not-ready
// maps to 503 and reaction timeouts to 408, matching what callers poll for.
func (h *NotifierAPIHandler) writeOperationError(w http.ResponseWriter, operation string, err error) {
	switch {
	case core.IsNotReadyError(err):
		log.Printf("⚠️ Rejected %s request: gateway not ready", operation)
		http.Error(w, "Discord connection is not ready", http.StatusServiceUnavailable)
	case core.IsTimeoutError(err):
		log.Printf("⏱️ %s request timed out", operation)
		http.Error(w, "Reaction timeout", http.StatusRequestTimeout)
	default:
		log.Printf("❌ Failed to %s: %v", operation, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *NotifierAPIHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("❌ Failed to encode JSON response: %v", err)
	}
}
