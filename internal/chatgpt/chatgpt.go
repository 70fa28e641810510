package chatgpt

import (
	"context"
	"errors"
	"strings"

	"linegpt/internal/conversation"
	"linegpt/pkg/config"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const (
	MsgPromptForInput  = "Please provide a message for me to respond to."
	MsgEmptyResponse   = "I apologize, but I couldn't generate a response. Please try again."
	MsgProcessingError = "I apologize, but I encountered an error while processing your request. Please try again later."

	languageInstruction = " Please respond in the same language as the user's message."
)

// Service wraps the OpenAI chat-completion API.
type Service struct {
	client *openai.Client
	cfg    *config.Config
}

func NewService(cfg *config.Config) *Service {
	clientCfg := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}

	return &Service{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}
}

// Reply asks the model for a response to message given the user's prior
// history. The stored system prompt is never mutated; when the message
// contains non-ASCII characters a language instruction is appended for this
// call only. A non-nil error means no completion was obtained and the caller
// must not record the exchange.
func (s *Service) Reply(ctx context.Context, message string, history []conversation.Turn) (string, error) {
	if strings.TrimSpace(message) == "" {
		logrus.Warn("Empty message passed to completion client")
		return MsgPromptForInput, nil
	}

	systemPrompt := s.cfg.SystemPrompt
	if hasNonASCII(message) {
		logrus.Info("Detected non-ASCII characters in message, adding language instruction to system prompt")
		systemPrompt += languageInstruction
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	req := openai.ChatCompletionRequest{
		Model:       s.cfg.OpenAIModel,
		Messages:    messages,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	}
	// Optional sampling parameters are only sent when explicitly
	// configured, so the provider's own defaults stay in effect otherwise.
	if s.cfg.TopP != nil {
		req.TopP = *s.cfg.TopP
	}
	if s.cfg.FrequencyPenalty != nil {
		req.FrequencyPenalty = *s.cfg.FrequencyPenalty
	}
	if s.cfg.PresencePenalty != nil {
		req.PresencePenalty = *s.cfg.PresencePenalty
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		logrus.Errorf("Error getting response from OpenAI: %v", err)
		return "", err
	}

	if len(resp.Choices) == 0 {
		logrus.Error("OpenAI response contained no choices")
		return "", errors.New("no response from OpenAI")
	}

	reply := resp.Choices[0].Message.Content
	if strings.TrimSpace(reply) == "" {
		logrus.Warn("Received empty response from OpenAI")
		reply = MsgEmptyResponse
	}

	return reply, nil
}

func hasNonASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return true
		}
	}
	return false
}
