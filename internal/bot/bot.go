package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"linegpt/internal/chatgpt"
	"linegpt/internal/conversation"
	"linegpt/internal/line"
	"linegpt/pkg/config"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v7/linebot"
	"github.com/sirupsen/logrus"
)

const (
	MsgEmptyMessage = "I received an empty message. Please try again."
	MsgChatUsage    = "Please provide a message after /chat command."
	MsgNewsFailed   = "Sorry, I couldn't fetch financial news at the moment. Please try again later."
	MsgResetDone    = "Conversation history has been reset. You can start a new conversation now."
	MsgResetNothing = "No conversation history found. You can start a new conversation."

	MsgHelp = "Available commands:\n" +
		"/chat [message] - Chat with the AI assistant\n" +
		"/reset - Reset your conversation history\n" +
		"/news - Get the latest financial news\n" +
		"/help - Show this help message"
)

// Completer produces an assistant reply for a user message plus history.
type Completer interface {
	Reply(ctx context.Context, message string, history []conversation.Turn) (string, error)
}

// NewsFetcher returns formatted news content.
type NewsFetcher interface {
	Fetch(ctx context.Context) string
}

// Sender delivers outbound messages to the platform.
type Sender interface {
	Send(ctx context.Context, dest line.Destination, text string) error
}

// Handler receives LINE webhook events and orchestrates one reply per
// inbound text message.
type Handler struct {
	cfg    *config.Config
	bot    *linebot.Client
	chat   Completer
	news   NewsFetcher
	store  *conversation.Store
	sender Sender
}

func NewHandler(cfg *config.Config, chat Completer, news NewsFetcher, store *conversation.Store, sender Sender) (*Handler, error) {
	client, err := linebot.New(cfg.LineChannelSecret, cfg.LineChannelAccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LINE bot client: %w", err)
	}

	return &Handler{
		cfg:    cfg,
		bot:    client,
		chat:   chat,
		news:   news,
		store:  store,
		sender: sender,
	}, nil
}

// HandleCallback serves /callback. GET is the webhook verification stub;
// POST carries signed LINE events. Unsigned bodies are only accepted in
// debug mode, for local testing.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		fmt.Fprint(w, "Webhook verification successful!")
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	log := logrus.WithField("request_id", uuid.NewString())

	if r.Header.Get("X-Line-Signature") == "" {
		if !h.cfg.Debug {
			log.Warn("X-Line-Signature header is missing, rejecting request")
			http.Error(w, "missing signature", http.StatusBadRequest)
			return
		}
		log.Warn("X-Line-Signature header is missing, processing as test request (debug mode)")
		h.handleTestRequest(w, r, log)
		return
	}

	events, err := h.bot.ParseRequest(r)
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			log.Error("Invalid signature")
			http.Error(w, "invalid signature", http.StatusBadRequest)
			return
		}
		log.Errorf("Error parsing webhook request: %v", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	for _, event := range events {
		if event.Type != linebot.EventTypeMessage {
			continue
		}
		message, ok := event.Message.(*linebot.TextMessage)
		if !ok {
			continue
		}
		var userID string
		if event.Source != nil {
			userID = event.Source.UserID
		}
		h.HandleMessage(r.Context(), userID, message.Text, event.ReplyToken)
	}

	fmt.Fprint(w, "OK")
}

// testWebhookBody is the minimal event shape accepted on the unsigned debug
// path.
type testWebhookBody struct {
	Events []struct {
		Type       string `json:"type"`
		ReplyToken string `json:"replyToken"`
		Source     struct {
			UserID string `json:"userId"`
		} `json:"source"`
		Message struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"message"`
	} `json:"events"`
}

func (h *Handler) handleTestRequest(w http.ResponseWriter, r *http.Request, log *logrus.Entry) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Errorf("Error reading test request body: %v", err)
		http.Error(w, "Error processing test request", http.StatusBadRequest)
		return
	}

	var payload testWebhookBody
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Errorf("Error processing test request: %v", err)
		http.Error(w, "Error processing test request", http.StatusBadRequest)
		return
	}

	for _, event := range payload.Events {
		if event.Type != "message" || event.ReplyToken == "" {
			continue
		}
		userID := event.Source.UserID
		if userID == "" {
			userID = "test_user"
		}
		log.Infof("Processing test event from %s", userID)
		h.HandleMessage(r.Context(), userID, event.Message.Text, event.ReplyToken)
	}

	fmt.Fprint(w, "Test request processed")
}

// HandleMessage runs the per-message state machine. Every path ends in
// exactly one reply-mode send; a send failure is logged and swallowed here
// so the webhook transport never sees it.
func (h *Handler) HandleMessage(ctx context.Context, userID, text, replyToken string) {
	log := logrus.WithField("user_id", userID)
	log.Infof("Received message: %q", text)

	reply := h.respond(ctx, log, userID, text)

	if err := h.sender.Send(ctx, line.ReplyTarget{Token: replyToken}, reply); err != nil {
		log.Errorf("Error sending reply: %v", err)
	}
}

func (h *Handler) respond(ctx context.Context, log *logrus.Entry, userID, text string) string {
	if strings.TrimSpace(text) == "" {
		log.Warn("Empty message received")
		return MsgEmptyMessage
	}

	if strings.HasPrefix(text, "/") {
		return h.handleCommand(ctx, log, userID, text)
	}

	return h.chatReply(ctx, log, userID, text)
}

func (h *Handler) handleCommand(ctx context.Context, log *logrus.Entry, userID, text string) string {
	parts := strings.SplitN(text, " ", 2)
	command := strings.ToLower(parts[0])
	argument := ""
	if len(parts) > 1 {
		argument = strings.TrimSpace(parts[1])
	}
	log.Infof("Processing command: %s", command)

	switch command {
	case "/chat":
		if argument == "" {
			return MsgChatUsage
		}
		return h.chatReply(ctx, log, userID, argument)

	case "/reset":
		return h.ResetConversation(userID)

	case "/news":
		content := h.news.Fetch(ctx)
		if strings.TrimSpace(content) == "" {
			return MsgNewsFailed
		}
		return content

	case "/help":
		return MsgHelp

	default:
		log.Warnf("Unknown command: %s", command)
		return fmt.Sprintf("Unknown command: %s\nType /help to see available commands.", command)
	}
}

// chatReply runs the completion pipeline. The history append only happens on
// success, so a failed completion never leaves a partial exchange behind.
func (h *Handler) chatReply(ctx context.Context, log *logrus.Entry, userID, message string) string {
	history := h.store.History(userID)

	reply, err := h.chat.Reply(ctx, message, history)
	if err != nil {
		log.Errorf("Error getting ChatGPT response: %v", err)
		return chatgpt.MsgProcessingError
	}

	h.store.Append(userID, message, reply)
	return reply
}

// ResetConversation clears the user's stored history and returns the
// confirmation text for the result.
func (h *Handler) ResetConversation(userID string) string {
	if h.store.Reset(userID) {
		return MsgResetDone
	}
	return MsgResetNothing
}
