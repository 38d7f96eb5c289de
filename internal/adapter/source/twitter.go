package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"message-orchestrator/internal/domain"
)

const defaultTwitterBaseURL = "https://api.twitter.com"

// Recent search accepts 10..100 results per request.
const (
	twitterMinResults = 10
	twitterMaxResults = 100
)

// TwitterAdapter fetches tweets through the v2 recent search endpoint.
type TwitterAdapter struct {
	baseURL      string
	bearerToken  string
	defaultLimit int
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewTwitterAdapter creates a TwitterAdapter. baseURL may be empty to use
// the official API.
func NewTwitterAdapter(baseURL, bearerToken string, defaultLimit int, client *http.Client, logger *slog.Logger) *TwitterAdapter {
	if baseURL == "" {
		baseURL = defaultTwitterBaseURL
	}
	return &TwitterAdapter{
		baseURL:      baseURL,
		bearerToken:  bearerToken,
		defaultLimit: defaultLimit,
		httpClient:   client,
		logger:       logger,
	}
}

func (a *TwitterAdapter) Platform() domain.Platform {
	return domain.PlatformTwitter
}

type twitterSearchResponse struct {
	Data []struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		AuthorID  string `json:"author_id"`
		CreatedAt string `json:"created_at"`
	} `json:"data"`
}

func (a *TwitterAdapter) Fetch(ctx context.Context, params domain.FetchParams) ([]domain.Message, error) {
	token := params.Credential
	if token == "" {
		token = a.bearerToken
	}
	if token == "" {
		return nil, fmt.Errorf("twitter bearer token is not configured")
	}

	keyword := params.Keyword
	if keyword == "" {
		keyword = "python"
	}
	limit := params.Limit
	if limit <= 0 {
		limit = a.defaultLimit
	}
	if limit < twitterMinResults {
		limit = twitterMinResults
	}
	if limit > twitterMaxResults {
		limit = twitterMaxResults
	}

	query := url.Values{}
	query.Set("query", keyword+" -is:retweet lang:en")
	query.Set("max_results", fmt.Sprintf("%d", limit))
	query.Set("tweet.fields", "created_at,author_id")
	reqURL := fmt.Sprintf("%s/2/tweets/search/recent?%s", a.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tweets: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitter returned status: %d", resp.StatusCode)
	}

	var search twitterSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, fmt.Errorf("failed to decode twitter response: %w", err)
	}

	messages := make([]domain.Message, 0, len(search.Data))
	for _, tweet := range search.Data {
		if tweet.ID == "" {
			continue
		}
		messages = append(messages, domain.Message{
			ID:        "twitter_" + tweet.ID,
			Platform:  domain.PlatformTwitter,
			Title:     "Tweet about " + keyword,
			Content:   tweet.Text,
			Sender:    tweet.AuthorID,
			URL:       fmt.Sprintf("https://twitter.com/i/web/status/%s", tweet.ID),
			Timestamp: tweet.CreatedAt,
		})
	}

	a.logger.Info("twitter_fetch_completed",
		slog.String("keyword", keyword),
		slog.Int("messages", len(messages)))

	return messages, nil
}
