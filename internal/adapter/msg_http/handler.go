package msg_http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"message-orchestrator/internal/domain"
	"message-orchestrator/internal/usecase"
	"message-orchestrator/internal/usecase/curation"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CurationDefaults are the server-wide curation parameters applied when a
// request does not override them.
type CurationDefaults struct {
	Threshold float64
	TopK      int
}

type Handler struct {
	aggregateUsecase usecase.AggregateMessagesUsecase
	curator          *curation.Curator
	preferenceRepo   domain.PreferenceRepository
	savedRepo        domain.SavedMessageRepository
	defaults         CurationDefaults
	readyCheck       func(ctx context.Context) error
}

func NewHandler(
	aggregateUsecase usecase.AggregateMessagesUsecase,
	curator *curation.Curator,
	preferenceRepo domain.PreferenceRepository,
	savedRepo domain.SavedMessageRepository,
	defaults CurationDefaults,
	readyCheck func(ctx context.Context) error,
) *Handler {
	return &Handler{
		aggregateUsecase: aggregateUsecase,
		curator:          curator,
		preferenceRepo:   preferenceRepo,
		savedRepo:        savedRepo,
		defaults:         defaults,
		readyCheck:       readyCheck,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/readyz", h.Ready)

	e.GET("/v1/messages", h.GetMessages)
	e.POST("/v1/curation/preview", h.PreviewCuration)

	e.GET("/v1/users/:user_id/preferences", h.GetPreferences)
	e.POST("/v1/users/:user_id/preferences", h.PutPreferences)

	e.POST("/v1/users/:user_id/saved-messages", h.SaveMessage)
	e.GET("/v1/users/:user_id/saved-messages", h.ListSavedMessages)
	e.DELETE("/v1/users/:user_id/saved-messages/:id", h.DeleteSavedMessage)
}

func (h *Handler) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Ready(ctx echo.Context) error {
	if h.readyCheck != nil {
		checkCtx, cancel := context.WithTimeout(ctx.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.readyCheck(checkCtx); err != nil {
			return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
		}
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

type messagesResponse struct {
	RunID        string                 `json:"run_id"`
	Messages     []domain.Message       `json:"messages"`
	SourceErrors []domain.SourceError   `json:"source_errors,omitempty"`
	Curation     *domain.CurationResult `json:"curation,omitempty"`
}

// GetMessages runs one aggregation: fan-out fetch over the selected
// platforms, optionally followed by curation against the user's stored
// preferences (or the preferences query parameter).
// (GET /v1/messages)
func (h *Handler) GetMessages(ctx echo.Context) error {
	platforms := splitParam(ctx.QueryParam("platforms"))
	if len(platforms) == 0 {
		platforms = []string{
			string(domain.PlatformTelegram),
			string(domain.PlatformTwitter),
			string(domain.PlatformReddit),
		}
	}
	sources := make([]domain.Platform, len(platforms))
	for i, p := range platforms {
		sources[i] = domain.Platform(strings.ToLower(p))
	}

	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	params := map[domain.Platform]domain.FetchParams{
		domain.PlatformTwitter: {
			Keyword: ctx.QueryParam("twitter_keyword"),
			Limit:   limit,
		},
		domain.PlatformReddit: {
			Keyword:   ctx.QueryParam("reddit_keyword"),
			Subreddit: ctx.QueryParam("reddit_subreddit"),
			Limit:     limit,
		},
		domain.PlatformTelegram: {
			Limit: limit,
		},
	}

	curate, _ := strconv.ParseBool(ctx.QueryParam("curate"))
	preferences := splitParam(ctx.QueryParam("preferences"))

	if curate && len(preferences) == 0 {
		userID := ctx.QueryParam("user_id")
		if userID != "" {
			profile, err := h.preferenceRepo.Get(ctx.Request().Context(), userID)
			if err != nil {
				return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
			}
			if profile != nil {
				preferences = profile.Preferences
			}
		}
	}

	output, err := h.aggregateUsecase.Execute(ctx.Request().Context(), usecase.AggregateMessagesInput{
		Sources:     sources,
		Params:      params,
		Preferences: preferences,
		Curate:      curate,
		Threshold:   h.defaults.Threshold,
		TopK:        h.defaults.TopK,
	})
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusOK, messagesResponse{
		RunID:        output.RunID,
		Messages:     output.Messages,
		SourceErrors: output.SourceErrors,
		Curation:     output.Curation,
	})
}

type previewRequest struct {
	Messages    []domain.Message `json:"messages"`
	Preferences []string         `json:"preferences"`
	Threshold   *float64         `json:"threshold,omitempty"`
	TopK        *int             `json:"top_k,omitempty"`
	Explain     bool             `json:"explain,omitempty"`
}

type previewResponse struct {
	Important    []domain.ScoredMessage        `json:"important"`
	Regular      []domain.ScoredMessage        `json:"regular"`
	Stats        domain.CurationStats          `json:"stats"`
	Failures     []domain.ScoringFailure       `json:"failures,omitempty"`
	Explanations map[string]map[string]float64 `json:"explanations,omitempty"`
}

// PreviewCuration scores a caller-supplied message batch without touching
// any source. With explain set, per-preference semantic similarities are
// attached for every important message.
// (POST /v1/curation/preview)
func (h *Handler) PreviewCuration(ctx echo.Context) error {
	var req previewRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	threshold := h.defaults.Threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	topK := h.defaults.TopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	result := h.curator.Curate(ctx.Request().Context(), req.Messages, req.Preferences, threshold, topK)

	resp := previewResponse{
		Important: result.Important,
		Regular:   result.Regular,
		Stats:     result.Stats,
		Failures:  result.Failures,
	}

	if req.Explain {
		resp.Explanations = make(map[string]map[string]float64, len(result.Important))
		for _, msg := range result.Important {
			perPref, err := h.curator.ExplainSemantic(ctx.Request().Context(), msg.Message, req.Preferences)
			if err != nil {
				continue
			}
			resp.Explanations[msg.ID] = perPref
		}
	}

	return ctx.JSON(http.StatusOK, resp)
}

type preferencesRequest struct {
	Preferences []string `json:"preferences"`
	Platforms   []string `json:"platforms,omitempty"`
}

type preferencesResponse struct {
	UserID      string   `json:"user_id"`
	Preferences []string `json:"preferences"`
	Platforms   []string `json:"platforms,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
}

// (GET /v1/users/:user_id/preferences)
func (h *Handler) GetPreferences(ctx echo.Context) error {
	userID := ctx.Param("user_id")

	profile, err := h.preferenceRepo.Get(ctx.Request().Context(), userID)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if profile == nil {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "profile not found"})
	}

	return ctx.JSON(http.StatusOK, toPreferencesResponse(profile))
}

// (POST /v1/users/:user_id/preferences)
func (h *Handler) PutPreferences(ctx echo.Context) error {
	userID := ctx.Param("user_id")

	var req preferencesRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	platforms := make([]domain.Platform, len(req.Platforms))
	for i, p := range req.Platforms {
		platforms[i] = domain.Platform(strings.ToLower(p))
	}

	profile := &domain.UserProfile{
		UserID:      userID,
		Preferences: req.Preferences,
		Platforms:   platforms,
	}
	if err := h.preferenceRepo.Upsert(ctx.Request().Context(), profile); err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusOK, toPreferencesResponse(profile))
}

type saveMessageRequest struct {
	Message domain.ScoredMessage `json:"message"`
}

type savedMessageResponse struct {
	ID      string               `json:"id"`
	Message domain.ScoredMessage `json:"message"`
	Source  string               `json:"source"`
	SavedAt string               `json:"saved_at"`
}

// (POST /v1/users/:user_id/saved-messages)
func (h *Handler) SaveMessage(ctx echo.Context) error {
	userID := ctx.Param("user_id")

	var req saveMessageRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Message.ID == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing message id"})
	}

	exists, err := h.savedRepo.Exists(ctx.Request().Context(), userID, req.Message.ID)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if exists {
		return ctx.JSON(http.StatusConflict, map[string]string{"error": "message already saved"})
	}

	saved := &domain.SavedMessage{
		ID:      uuid.New(),
		UserID:  userID,
		Message: req.Message,
		Source:  "manual",
		SavedAt: time.Now(),
	}
	if err := h.savedRepo.Save(ctx.Request().Context(), saved); err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusCreated, toSavedMessageResponse(saved))
}

// (GET /v1/users/:user_id/saved-messages)
func (h *Handler) ListSavedMessages(ctx echo.Context) error {
	userID := ctx.Param("user_id")
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))

	saved, err := h.savedRepo.ListByUser(ctx.Request().Context(), userID, limit)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	out := make([]savedMessageResponse, 0, len(saved))
	for i := range saved {
		out = append(out, toSavedMessageResponse(&saved[i]))
	}
	return ctx.JSON(http.StatusOK, map[string]any{"saved_messages": out})
}

// (DELETE /v1/users/:user_id/saved-messages/:id)
func (h *Handler) DeleteSavedMessage(ctx echo.Context) error {
	userID := ctx.Param("user_id")

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	if err := h.savedRepo.Delete(ctx.Request().Context(), userID, id); err != nil {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}

	return ctx.NoContent(http.StatusNoContent)
}

func toPreferencesResponse(profile *domain.UserProfile) preferencesResponse {
	platforms := make([]string, len(profile.Platforms))
	for i, p := range profile.Platforms {
		platforms[i] = string(p)
	}
	resp := preferencesResponse{
		UserID:      profile.UserID,
		Preferences: profile.Preferences,
		Platforms:   platforms,
	}
	if !profile.UpdatedAt.IsZero() {
		resp.UpdatedAt = profile.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toSavedMessageResponse(saved *domain.SavedMessage) savedMessageResponse {
	return savedMessageResponse{
		ID:      saved.ID.String(),
		Message: saved.Message,
		Source:  saved.Source,
		SavedAt: saved.SavedAt.UTC().Format(time.RFC3339),
	}
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
