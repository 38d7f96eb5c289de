package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"message-orchestrator/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwitterAdapter_Fetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/tweets/search/recent", r.URL.Path)
		assert.Equal(t, "Bearer test-bearer", r.Header.Get("Authorization"))
		assert.Equal(t, "golang -is:retweet lang:en", r.URL.Query().Get("query"))
		assert.Equal(t, "created_at,author_id", r.URL.Query().Get("tweet.fields"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{"id": "1111", "text": "Shipping a new Go release", "author_id": "42", "created_at": "2024-03-01T12:00:00.000Z"},
				{"id": "", "text": "no id, skipped"}
			]
		}`))
	}))
	defer server.Close()

	adapter := NewTwitterAdapter(server.URL, "test-bearer", 20, server.Client(), testLogger())

	messages, err := adapter.Fetch(context.Background(), domain.FetchParams{Keyword: "golang"})
	require.NoError(t, err)
	require.Len(t, messages, 1)

	assert.Equal(t, "twitter_1111", messages[0].ID)
	assert.Equal(t, domain.PlatformTwitter, messages[0].Platform)
	assert.Equal(t, "Tweet about golang", messages[0].Title)
	assert.Equal(t, "Shipping a new Go release", messages[0].Content)
	assert.Equal(t, "42", messages[0].Sender)
	assert.Equal(t, "https://twitter.com/i/web/status/1111", messages[0].URL)
	assert.Equal(t, "2024-03-01T12:00:00.000Z", messages[0].Timestamp)
}

func TestTwitterAdapter_Fetch_LimitClamped(t *testing.T) {
	var gotMaxResults string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMaxResults = r.URL.Query().Get("max_results")
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	adapter := NewTwitterAdapter(server.URL, "test-bearer", 20, server.Client(), testLogger())

	_, err := adapter.Fetch(context.Background(), domain.FetchParams{Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, "10", gotMaxResults)

	_, err = adapter.Fetch(context.Background(), domain.FetchParams{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, "100", gotMaxResults)
}

func TestTwitterAdapter_Fetch_MissingToken(t *testing.T) {
	adapter := NewTwitterAdapter("", "", 20, http.DefaultClient, testLogger())

	messages, err := adapter.Fetch(context.Background(), domain.FetchParams{})
	assert.Error(t, err)
	assert.Nil(t, messages)
	assert.Contains(t, err.Error(), "bearer token")
}

func TestTwitterAdapter_Fetch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	adapter := NewTwitterAdapter(server.URL, "bad-bearer", 20, server.Client(), testLogger())

	messages, err := adapter.Fetch(context.Background(), domain.FetchParams{})
	assert.Error(t, err)
	assert.Nil(t, messages)
	assert.Contains(t, err.Error(), "401")
}

func TestNewRegistry(t *testing.T) {
	reddit := NewRedditAdapter("", "agent", 20, http.DefaultClient, testLogger())
	twitter := NewTwitterAdapter("", "bearer", 20, http.DefaultClient, testLogger())

	registry := NewRegistry(reddit, twitter)
	require.Len(t, registry, 2)
	assert.Same(t, reddit, registry[domain.PlatformReddit])
	assert.Same(t, twitter, registry[domain.PlatformTwitter])
}
