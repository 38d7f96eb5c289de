package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"message-orchestrator/internal/domain"
)

const defaultRedditBaseURL = "https://www.reddit.com"

// RedditAdapter fetches posts from Reddit's public search endpoint.
type RedditAdapter struct {
	baseURL      string
	userAgent    string
	defaultLimit int
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewRedditAdapter creates a RedditAdapter. baseURL may be empty to use the
// public API.
func NewRedditAdapter(baseURL, userAgent string, defaultLimit int, client *http.Client, logger *slog.Logger) *RedditAdapter {
	if baseURL == "" {
		baseURL = defaultRedditBaseURL
	}
	return &RedditAdapter{
		baseURL:      baseURL,
		userAgent:    userAgent,
		defaultLimit: defaultLimit,
		httpClient:   client,
		logger:       logger,
	}
}

func (a *RedditAdapter) Platform() domain.Platform {
	return domain.PlatformReddit
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPostDTO `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPostDTO struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Permalink   string  `json:"permalink"`
	CreatedUTC  float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
}

func (a *RedditAdapter) Fetch(ctx context.Context, params domain.FetchParams) ([]domain.Message, error) {
	keyword := params.Keyword
	if keyword == "" {
		keyword = "technology"
	}
	subreddit := params.Subreddit
	if subreddit == "" {
		subreddit = "all"
	}
	limit := params.Limit
	if limit <= 0 {
		limit = a.defaultLimit
	}

	query := url.Values{}
	query.Set("q", keyword)
	query.Set("sort", "relevance")
	query.Set("t", "week")
	query.Set("limit", fmt.Sprintf("%d", limit))
	query.Set("restrict_sr", "1")
	reqURL := fmt.Sprintf("%s/r/%s/search.json?%s", a.baseURL, url.PathEscape(subreddit), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reddit posts: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit returned status: %d", resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to decode reddit response: %w", err)
	}

	messages := make([]domain.Message, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.ID == "" {
			continue
		}

		content := post.Selftext
		if content == "" {
			content = fmt.Sprintf("Score: %d | Comments: %d", post.Score, post.NumComments)
		}
		sender := "deleted"
		if post.Author != "" {
			sender = "u/" + post.Author
		}

		messages = append(messages, domain.Message{
			ID:        "reddit_post_" + post.ID,
			Platform:  domain.PlatformReddit,
			Title:     post.Title,
			Content:   truncate(content, 500),
			Sender:    sender,
			Chat:      "r/" + post.Subreddit,
			URL:       defaultRedditBaseURL + post.Permalink,
			Timestamp: unixToISO(post.CreatedUTC),
		})
	}

	a.logger.Info("reddit_fetch_completed",
		slog.String("subreddit", subreddit),
		slog.String("keyword", keyword),
		slog.Int("messages", len(messages)))

	return messages, nil
}

func unixToISO(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	return time.Unix(int64(seconds), 0).UTC().Format(time.RFC3339)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
