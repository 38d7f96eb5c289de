package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"message-orchestrator/internal/domain"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

// TelegramAdapter fetches recent chat messages through the Bot API
// getUpdates endpoint.
type TelegramAdapter struct {
	baseURL      string
	botToken     string
	defaultLimit int
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewTelegramAdapter creates a TelegramAdapter. baseURL may be empty to use
// the official Bot API.
func NewTelegramAdapter(baseURL, botToken string, defaultLimit int, client *http.Client, logger *slog.Logger) *TelegramAdapter {
	if baseURL == "" {
		baseURL = defaultTelegramBaseURL
	}
	return &TelegramAdapter{
		baseURL:      baseURL,
		botToken:     botToken,
		defaultLimit: defaultLimit,
		httpClient:   client,
		logger:       logger,
	}
}

func (a *TelegramAdapter) Platform() domain.Platform {
	return domain.PlatformTelegram
}

type telegramUpdatesResponse struct {
	OK     bool `json:"ok"`
	Result []struct {
		UpdateID int64               `json:"update_id"`
		Message  *telegramMessageDTO `json:"message"`
	} `json:"result"`
}

type telegramMessageDTO struct {
	MessageID int64  `json:"message_id"`
	Date      int64  `json:"date"`
	Text      string `json:"text"`
	From      *struct {
		FirstName string `json:"first_name"`
		Username  string `json:"username"`
	} `json:"from"`
	Chat struct {
		Title string `json:"title"`
		Type  string `json:"type"`
	} `json:"chat"`
}

func (a *TelegramAdapter) Fetch(ctx context.Context, params domain.FetchParams) ([]domain.Message, error) {
	token := params.Credential
	if token == "" {
		token = a.botToken
	}
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is not configured")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = a.defaultLimit
	}

	reqURL := fmt.Sprintf("%s/bot%s/getUpdates?limit=%d", a.baseURL, token, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch telegram updates: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram returned status: %d", resp.StatusCode)
	}

	var updates telegramUpdatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&updates); err != nil {
		return nil, fmt.Errorf("failed to decode telegram response: %w", err)
	}
	if !updates.OK {
		return nil, fmt.Errorf("telegram API reported failure")
	}

	var messages []domain.Message
	for _, update := range updates.Result {
		msg := update.Message
		if msg == nil || msg.Text == "" {
			continue
		}

		sender := ""
		if msg.From != nil {
			sender = msg.From.FirstName
			if sender == "" {
				sender = msg.From.Username
			}
		}
		if sender == "" {
			sender = msg.Chat.Title
		}

		timestamp := ""
		if msg.Date > 0 {
			timestamp = time.Unix(msg.Date, 0).UTC().Format(time.RFC3339)
		}

		messages = append(messages, domain.Message{
			ID:        fmt.Sprintf("telegram_%d", msg.MessageID),
			Platform:  domain.PlatformTelegram,
			Title:     "Message from " + sender,
			Content:   truncate(msg.Text, 200),
			Sender:    sender,
			Chat:      msg.Chat.Title,
			Timestamp: timestamp,
		})
	}

	a.logger.Info("telegram_fetch_completed",
		slog.Int("updates", len(updates.Result)),
		slog.Int("messages", len(messages)))

	return messages, nil
}
