package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const defaultSystemPrompt = `You are a helpful assistant in a LINE chat.
You provide concise, accurate, and helpful responses.
You can engage in casual conversation while maintaining professionalism.
You should avoid any harmful, unethical, or inappropriate content.
You can also provide financial insights and analysis when asked.
You are capable of responding in multiple languages, including English, Chinese, Japanese, and others.
Always respond in the same language that the user used in their message.`

type Config struct {
	LineChannelAccessToken string
	LineChannelSecret      string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	Temperature   float32
	MaxTokens     int

	// Optional sampling parameters. Nil means the env var was not set and
	// the provider's own default applies.
	TopP             *float32
	FrequencyPenalty *float32
	PresencePenalty  *float32

	SystemPrompt     string
	MaxHistoryLength int

	FinancialNewsAPIKey string
	NewsUserIDs         []string
	NewsSendTime        string

	ServerHost string
	ServerPort string
	Debug      bool
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found")
	}

	return &Config{
		LineChannelAccessToken: getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		LineChannelSecret:      getEnv("LINE_CHANNEL_SECRET", ""),
		OpenAIKey:              getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:          getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:            getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		Temperature:            getEnvFloat32("OPENAI_TEMPERATURE", 0.7),
		MaxTokens:              getEnvInt("OPENAI_MAX_TOKENS", 500),
		TopP:                   getEnvFloat32Optional("OPENAI_TOP_P"),
		FrequencyPenalty:       getEnvFloat32Optional("OPENAI_FREQUENCY_PENALTY"),
		PresencePenalty:        getEnvFloat32Optional("OPENAI_PRESENCE_PENALTY"),
		SystemPrompt:           getEnv("SYSTEM_PROMPT", defaultSystemPrompt),
		MaxHistoryLength:       getEnvInt("MAX_HISTORY_LENGTH", 10),
		FinancialNewsAPIKey:    getEnv("FINANCIAL_NEWS_API_KEY", ""),
		NewsUserIDs:            getEnvList("USER_IDS"),
		NewsSendTime:           getEnv("NEWS_SEND_TIME", "08:00"),
		ServerHost:             getEnv("HOST", "0.0.0.0"),
		ServerPort:             getEnv("PORT", "8080"),
		Debug:                  getEnvBool("DEBUG", false),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		logrus.Warnf("Invalid integer for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvFloat32(key string, defaultValue float32) float32 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 32)
	if err != nil {
		logrus.Warnf("Invalid float for %s: %q, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return float32(f)
}

func getEnvFloat32Optional(key string) *float32 {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 32)
	if err != nil {
		logrus.Warnf("Invalid float for %s: %q, ignoring", key, value)
		return nil
	}
	v := float32(f)
	return &v
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return strings.EqualFold(value, "true")
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
