package api

import (
	"context"
	"encoding/json"
	"net/http"

	"linegpt/internal/conversation"
	"linegpt/internal/line"
	"linegpt/pkg/config"

	"github.com/sirupsen/logrus"
)

// Broadcaster triggers one news send to every subscriber.
type Broadcaster interface {
	SendToAll(ctx context.Context)
}

// Pusher delivers a message to the platform.
type Pusher interface {
	Send(ctx context.Context, dest line.Destination, text string) error
}

// Handler serves the supporting endpoints around the webhook: service info,
// health, debug introspection and the manual news/test-message triggers.
type Handler struct {
	cfg         *config.Config
	store       *conversation.Store
	broadcaster Broadcaster
	pusher      Pusher
}

func NewHandler(cfg *config.Config, store *conversation.Store, broadcaster Broadcaster, pusher Pusher) *Handler {
	return &Handler{
		cfg:         cfg,
		store:       store,
		broadcaster: broadcaster,
		pusher:      pusher,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Error encoding JSON response: %v", err)
	}
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "running",
		"service": "LineGPT Bot",
		"endpoints": map[string]string{
			"webhook": "/callback",
			"health":  "/health",
		},
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"services": map[string]string{
			"line_bot": "connected",
			"openai":   "ready",
		},
	})
}

// SendNews manually triggers the daily broadcast.
func (h *Handler) SendNews(w http.ResponseWriter, r *http.Request) {
	h.broadcaster.SendToAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Financial news sent to all users",
	})
}

// TestMessage pushes a raw test message to one user. Debug tooling.
func (h *Handler) TestMessage(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	message := r.URL.Query().Get("message")
	if message == "" {
		message = "This is a test message from LineGPT."
	}

	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "Missing user_id parameter",
		})
		return
	}

	if err := h.pusher.Send(r.Context(), line.PushTarget{UserID: userID}, message); err != nil {
		logrus.Errorf("Error sending test message: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Test message sent to user " + userID,
	})
}

func (h *Handler) GetUserID(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Send a message to your LINE bot, then check the logs or the /debug endpoint to find your user ID",
		"instructions": []string{
			"1. Make sure your webhook URL is set in the LINE Developers Console",
			"2. Send a message to your LINE bot",
			"3. Check the logs for a message like 'Received message from USER_ID'",
			"4. Use that USER_ID for testing with the /test_message endpoint",
		},
	})
}

// Debug reports service state. Credential values are never echoed, only
// their lengths.
func (h *Handler) Debug(w http.ResponseWriter, r *http.Request) {
	users := h.store.UserIDs()
	recent := users
	if len(recent) > 5 {
		recent = recent[:5]
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "LineGPT Bot",
		"status":  "running",
		"line_api": map[string]int{
			"channel_secret_length":       len(h.cfg.LineChannelSecret),
			"channel_access_token_length": len(h.cfg.LineChannelAccessToken),
		},
		"openai_api": map[string]interface{}{
			"api_key_length": len(h.cfg.OpenAIKey),
			"model":          h.cfg.OpenAIModel,
		},
		"users": map[string]interface{}{
			"conversation_history_users": len(users),
			"registered_users":           len(h.cfg.NewsUserIDs),
			"recent_users":               recent,
		},
	})
}
