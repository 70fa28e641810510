package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "https://financialmodelingprep.com"

	MsgNoNews      = "No financial news available at the moment. Please try again later."
	MsgFetchFailed = "Unable to fetch financial news at this time. Please try again later."
)

// Service fetches financial news content and formats it for a chat message.
type Service struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewService(apiKey string) *Service {
	return NewServiceWithBase(apiKey, defaultBaseURL)
}

// NewServiceWithBase points the service at an alternate API host. Used by
// tests.
func NewServiceWithBase(apiKey, baseURL string) *Service {
	return &Service{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type newsItem struct {
	Title         string `json:"title"`
	Site          string `json:"site"`
	PublishedDate string `json:"publishedDate"`
	URL           string `json:"url"`
}

type quote struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	ChangesPercentage float64 `json:"changesPercentage"`
}

// Fetch returns formatted news text, falling back across the provider's
// crypto and index quote endpoints when the stock news endpoint fails. The
// result is never empty.
func (s *Service) Fetch(ctx context.Context) string {
	text, err := s.fetchStockNews(ctx)
	if err == nil {
		return text
	}
	logrus.Errorf("Error fetching stock news: %v", err)

	text, err = s.fetchQuotes(ctx, "crypto", "📊 Crypto Market Snapshot 📊")
	if err == nil {
		return text
	}
	logrus.Errorf("Error fetching crypto quotes: %v", err)

	text, err = s.fetchQuotes(ctx, "index", "📊 Market Index Snapshot 📊")
	if err == nil {
		return text
	}
	logrus.Errorf("Error fetching index quotes: %v", err)

	return MsgFetchFailed
}

func (s *Service) fetchStockNews(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/api/v3/stock_news?limit=5&apikey=%s", s.baseURL, s.apiKey)

	var items []newsItem
	if err := s.getJSON(ctx, url, &items); err != nil {
		return "", err
	}

	if len(items) == 0 {
		return MsgNoNews, nil
	}

	var b strings.Builder
	b.WriteString("📈 Today's Financial News 📉\n\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item.Title)
		fmt.Fprintf(&b, "   %s - %s\n", item.Site, item.PublishedDate)
		fmt.Fprintf(&b, "   %s\n\n", item.URL)
	}
	return b.String(), nil
}

func (s *Service) fetchQuotes(ctx context.Context, market, header string) (string, error) {
	url := fmt.Sprintf("%s/api/v3/quotes/%s?apikey=%s", s.baseURL, market, s.apiKey)

	var quotes []quote
	if err := s.getJSON(ctx, url, &quotes); err != nil {
		return "", err
	}

	if len(quotes) == 0 {
		return "", fmt.Errorf("no %s quotes available", market)
	}
	if len(quotes) > 5 {
		quotes = quotes[:5]
	}

	var b strings.Builder
	b.WriteString(header + "\n\n")
	for i, q := range quotes {
		fmt.Fprintf(&b, "%d. %s (%s): %.2f (%+.2f%%)\n", i+1, q.Name, q.Symbol, q.Price, q.ChangesPercentage)
	}
	return b.String(), nil
}

func (s *Service) getJSON(ctx context.Context, url string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("news API returned status code %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
