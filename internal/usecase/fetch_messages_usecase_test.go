package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"message-orchestrator/internal/domain"
	"message-orchestrator/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAdapter is a scriptable source adapter.
type fakeAdapter struct {
	platform domain.Platform
	messages []domain.Message
	err      error
	delay    time.Duration
}

func (f *fakeAdapter) Platform() domain.Platform { return f.platform }

func (f *fakeAdapter) Fetch(ctx context.Context, params domain.FetchParams) ([]domain.Message, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.messages, nil
}

func registry(adapters ...*fakeAdapter) map[domain.Platform]domain.SourceAdapter {
	out := make(map[domain.Platform]domain.SourceAdapter, len(adapters))
	for _, a := range adapters {
		out[a.platform] = a
	}
	return out
}

func msg(id, ts string, platform domain.Platform) domain.Message {
	return domain.Message{ID: id, Platform: platform, Timestamp: ts}
}

func TestFetchMessages_MergesAndSortsNewestFirst(t *testing.T) {
	u := usecase.NewFetchMessagesUsecase(registry(
		&fakeAdapter{platform: domain.PlatformReddit, messages: []domain.Message{
			msg("r1", "2024-01-01T00:00:00Z", domain.PlatformReddit),
			msg("r2", "", domain.PlatformReddit),
		}},
		&fakeAdapter{platform: domain.PlatformTwitter, messages: []domain.Message{
			msg("t1", "2024-03-01T00:00:00Z", domain.PlatformTwitter),
		}},
	), time.Second, discardLogger())

	out, err := u.Execute(context.Background(), usecase.FetchMessagesInput{
		Sources: []domain.Platform{domain.PlatformReddit, domain.PlatformTwitter},
	})
	require.NoError(t, err)
	require.Len(t, out.Messages, 3)

	// Newest first, empty timestamps last.
	assert.Equal(t, "t1", out.Messages[0].ID)
	assert.Equal(t, "r1", out.Messages[1].ID)
	assert.Equal(t, "r2", out.Messages[2].ID)
	assert.Empty(t, out.Errors)
}

func TestFetchMessages_PartialFailureIsolated(t *testing.T) {
	u := usecase.NewFetchMessagesUsecase(registry(
		&fakeAdapter{platform: domain.PlatformReddit, err: errors.New("rate limited")},
		&fakeAdapter{platform: domain.PlatformTwitter, messages: []domain.Message{
			msg("t1", "2024-03-01T00:00:00Z", domain.PlatformTwitter),
		}},
	), time.Second, discardLogger())

	out, err := u.Execute(context.Background(), usecase.FetchMessagesInput{
		Sources: []domain.Platform{domain.PlatformReddit, domain.PlatformTwitter},
	})
	require.NoError(t, err)

	require.Len(t, out.Messages, 1)
	assert.Equal(t, "t1", out.Messages[0].ID)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, domain.PlatformReddit, out.Errors[0].Platform)
	assert.Equal(t, "rate limited", out.Errors[0].Reason)
}

func TestFetchMessages_TimeoutReportedAsTimeout(t *testing.T) {
	u := usecase.NewFetchMessagesUsecase(registry(
		&fakeAdapter{platform: domain.PlatformReddit, delay: 500 * time.Millisecond},
		&fakeAdapter{platform: domain.PlatformTwitter, messages: []domain.Message{
			msg("t1", "2024-03-01T00:00:00Z", domain.PlatformTwitter),
		}},
	), 20*time.Millisecond, discardLogger())

	start := time.Now()
	out, err := u.Execute(context.Background(), usecase.FetchMessagesInput{
		Sources: []domain.Platform{domain.PlatformReddit, domain.PlatformTwitter},
	})
	require.NoError(t, err)

	// The slow source fails alone without delaying the fast one past its
	// own timeout.
	assert.Less(t, time.Since(start), 400*time.Millisecond)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, domain.PlatformReddit, out.Errors[0].Platform)
	assert.Equal(t, "timeout", out.Errors[0].Reason)
	require.Len(t, out.Messages, 1)
}

func TestFetchMessages_AllSourcesFailStillSucceeds(t *testing.T) {
	u := usecase.NewFetchMessagesUsecase(registry(
		&fakeAdapter{platform: domain.PlatformReddit, err: errors.New("down")},
		&fakeAdapter{platform: domain.PlatformTwitter, err: errors.New("down")},
	), time.Second, discardLogger())

	out, err := u.Execute(context.Background(), usecase.FetchMessagesInput{
		Sources: []domain.Platform{domain.PlatformReddit, domain.PlatformTwitter},
	})
	require.NoError(t, err)
	assert.Empty(t, out.Messages)
	assert.NotNil(t, out.Messages)
	assert.Len(t, out.Errors, 2)
}

func TestFetchMessages_UnknownSourceIsAdvisory(t *testing.T) {
	u := usecase.NewFetchMessagesUsecase(registry(
		&fakeAdapter{platform: domain.PlatformReddit, messages: []domain.Message{
			msg("r1", "2024-01-01T00:00:00Z", domain.PlatformReddit),
		}},
	), time.Second, discardLogger())

	out, err := u.Execute(context.Background(), usecase.FetchMessagesInput{
		Sources: []domain.Platform{domain.PlatformReddit, "carrier-pigeon"},
	})
	require.NoError(t, err)
	require.Len(t, out.Messages, 1)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, domain.Platform("carrier-pigeon"), out.Errors[0].Platform)
	assert.Equal(t, "unknown source", out.Errors[0].Reason)
}

func TestFetchMessages_AllUnknownFails(t *testing.T) {
	u := usecase.NewFetchMessagesUsecase(registry(), time.Second, discardLogger())

	_, err := u.Execute(context.Background(), usecase.FetchMessagesInput{
		Sources: []domain.Platform{"smoke-signal", "carrier-pigeon"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recognized sources")
}

func TestFetchMessages_DuplicatePlatformsCollapsed(t *testing.T) {
	adapter := &fakeAdapter{platform: domain.PlatformReddit, messages: []domain.Message{
		msg("r1", "2024-01-01T00:00:00Z", domain.PlatformReddit),
	}}
	u := usecase.NewFetchMessagesUsecase(registry(adapter), time.Second, discardLogger())

	out, err := u.Execute(context.Background(), usecase.FetchMessagesInput{
		Sources: []domain.Platform{domain.PlatformReddit, domain.PlatformReddit, domain.PlatformReddit},
	})
	require.NoError(t, err)
	assert.Len(t, out.Messages, 1)
}

func TestFetchMessages_EmptySelection(t *testing.T) {
	u := usecase.NewFetchMessagesUsecase(registry(), time.Second, discardLogger())

	out, err := u.Execute(context.Background(), usecase.FetchMessagesInput{})
	require.NoError(t, err)
	assert.NotNil(t, out.Messages)
	assert.Empty(t, out.Messages)
	assert.Empty(t, out.Errors)
}

func TestFetchMessages_TieOrderDeterministic(t *testing.T) {
	// Same timestamp on both platforms: selection order (reddit before
	// twitter here) decides the tie, not goroutine arrival order.
	reddit := &fakeAdapter{platform: domain.PlatformReddit, messages: []domain.Message{
		msg("r1", "2024-02-01T00:00:00Z", domain.PlatformReddit),
	}}
	twitter := &fakeAdapter{platform: domain.PlatformTwitter, messages: []domain.Message{
		msg("t1", "2024-02-01T00:00:00Z", domain.PlatformTwitter),
	}}
	u := usecase.NewFetchMessagesUsecase(registry(reddit, twitter), time.Second, discardLogger())

	for range 5 {
		out, err := u.Execute(context.Background(), usecase.FetchMessagesInput{
			Sources: []domain.Platform{domain.PlatformReddit, domain.PlatformTwitter},
		})
		require.NoError(t, err)
		require.Len(t, out.Messages, 2)
		assert.Equal(t, "r1", out.Messages[0].ID)
		assert.Equal(t, "t1", out.Messages[1].ID)
	}
}
