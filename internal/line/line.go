package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultAPIBase = "https://api.line.me"
	pushPath       = "/v2/bot/message/push"
	replyPath      = "/v2/bot/message/reply"

	// FallbackRetry is the minimal text used for the single retry attempt
	// after a failed delivery.
	FallbackRetry = "An error occurred. Please try again."

	// forcedText replaces an empty text field detected right before
	// transmission. Nothing should reach this point unsanitized.
	forcedText = "Emergency fallback message due to empty text."
)

// TextMessage is the single message object LINE accepts in a send payload.
type TextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Destination selects the delivery mode: push to a user ID or reply to a
// single-use reply token. Both modes hit the same API with a different
// endpoint and payload key.
type Destination interface {
	path() string
	payload(messages []TextMessage) interface{}
}

// PushTarget delivers to a user ID outside of a reply context.
type PushTarget struct {
	UserID string
}

func (PushTarget) path() string { return pushPath }

func (t PushTarget) payload(messages []TextMessage) interface{} {
	return pushPayload{To: t.UserID, Messages: messages}
}

// ReplyTarget delivers using the reply token of an inbound event.
type ReplyTarget struct {
	Token string
}

func (ReplyTarget) path() string { return replyPath }

func (t ReplyTarget) payload(messages []TextMessage) interface{} {
	return replyPayload{ReplyToken: t.Token, Messages: messages}
}

type pushPayload struct {
	To       string        `json:"to"`
	Messages []TextMessage `json:"messages"`
}

type replyPayload struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []TextMessage `json:"messages"`
}

// APIError is a non-200 response from the LINE API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("LINE API returned status code %d: %s", e.StatusCode, e.Body)
}

// DeliveryError means both the primary send and the fallback attempt failed.
type DeliveryError struct {
	Primary  error
	Fallback error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed: %v (fallback also failed: %v)", e.Primary, e.Fallback)
}

// Client sends text messages through the LINE messaging API.
type Client struct {
	accessToken string
	apiBase     string
	httpClient  *http.Client
}

func NewClient(accessToken string) *Client {
	return NewClientWithBase(accessToken, defaultAPIBase)
}

// NewClientWithBase points the client at an alternate API host. Used by
// tests.
func NewClientWithBase(accessToken, apiBase string) *Client {
	return &Client{
		accessToken: accessToken,
		apiBase:     strings.TrimRight(apiBase, "/"),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Send sanitizes text and delivers it to dest. On a failed primary attempt it
// retries exactly once with FallbackRetry; if that also fails, the returned
// error is a *DeliveryError carrying both underlying errors.
func (c *Client) Send(ctx context.Context, dest Destination, text string) error {
	text = PrepareText(text)

	messages := []TextMessage{{Type: "text", Text: text}}

	// Re-check immediately before transmission. Guards against any code
	// path that bypassed PrepareText.
	if strings.TrimSpace(messages[0].Text) == "" {
		logrus.Error("Message text is empty right before sending, forcing fallback text")
		messages[0].Text = forcedText
	}

	logrus.Debugf("Sending LINE message (%d chars) to %T", len(messages[0].Text), dest)

	primaryErr := c.post(ctx, dest.path(), dest.payload(messages))
	if primaryErr == nil {
		return nil
	}
	logrus.Errorf("Error sending LINE message: %v", primaryErr)

	logrus.Info("Attempting to send a simple fallback message")
	fallback := []TextMessage{{Type: "text", Text: FallbackRetry}}
	fallbackErr := c.post(ctx, dest.path(), dest.payload(fallback))
	if fallbackErr == nil {
		return nil
	}
	logrus.Errorf("Error sending fallback LINE message: %v", fallbackErr)

	return &DeliveryError{Primary: primaryErr, Fallback: fallbackErr}
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call LINE API: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	logrus.Debugf("LINE API response status: %d body: %s", resp.StatusCode, respBody)

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}
