package twitter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news_sentiment/internal/domain"
)

var fixedNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestSource(t *testing.T, h http.HandlerFunc) *Source {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	src := New(Config{BaseURL: srv.URL, BearerToken: "tok", Timeout: 5 * time.Second},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	src.now = func() time.Time { return fixedNow }
	return src
}

func TestFetch_Posts(t *testing.T) {
	var got *http.Request
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write([]byte(`{
			"data":[
				{"id":"1","text":"$TSLA to the moon, great quarter","created_at":"2025-03-13T09:30:00.000Z","author_id":"42"},
				{"id":"2","text":"  ","created_at":"2025-03-13T09:31:00.000Z","author_id":"43"},
				{"id":"3","text":"Selling everything","created_at":"garbage","author_id":"43"}
			],
			"includes":{"users":[{"id":"42","name":"Trader","username":"trader42"}]},
			"meta":{"result_count":3}
		}`))
	})

	q := domain.Query{
		Kind:       domain.KindFreeText,
		Text:       "tesla",
		Language:   "en",
		MaxResults: 5,
		From:       fixedNow.Add(-24 * time.Hour),
		To:         fixedNow,
	}
	items, err := src.Fetch(context.Background(), q)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/tweets/search/recent", got.URL.Path)
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	params := got.URL.Query()
	assert.Equal(t, "tesla lang:en", params.Get("query"))
	assert.Equal(t, "10", params.Get("max_results"))
	assert.Equal(t, "2025-03-13T12:00:00Z", params.Get("start_time"))
	assert.Empty(t, params.Get("end_time"))

	require.Len(t, items, 2)
	assert.Equal(t, "$TSLA to the moon, great quarter", items[0].HeadlineOrText)
	assert.Equal(t, "@trader42", items[0].SourceName)
	assert.Equal(t, "https://x.com/i/web/status/1", items[0].URL)
	assert.Equal(t, time.Date(2025, 3, 13, 9, 30, 0, 0, time.UTC), items[0].PublishedAt)
	assert.Equal(t, domain.ProviderTwitter, items[0].Provider)

	assert.Equal(t, "43", items[1].SourceName)
	assert.False(t, items[1].HasTimestamp())
}

func TestFetch_WindowOutsideHorizon(t *testing.T) {
	var got *http.Request
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write([]byte(`{"meta":{"result_count":0}}`))
	})

	q := domain.Query{
		Kind:       domain.KindFreeText,
		Text:       "fed",
		MaxResults: 500,
		From:       fixedNow.Add(-30 * 24 * time.Hour),
		To:         fixedNow.Add(-2 * time.Hour),
	}
	items, err := src.Fetch(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, items)

	params := got.URL.Query()
	assert.Equal(t, "fed", params.Get("query"))
	assert.Equal(t, "100", params.Get("max_results"))
	assert.Empty(t, params.Get("start_time"))
	assert.Equal(t, "2025-03-14T10:00:00Z", params.Get("end_time"))
}

func TestFetch_ProviderErrors(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"title":"Invalid Request","detail":"bad query"}],"meta":{"result_count":0}}`))
	})

	_, err := src.Fetch(context.Background(), domain.Query{Kind: domain.KindFreeText, Text: "(("})

	var fe *domain.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, domain.FetchProvider, fe.Kind)
	assert.Contains(t, fe.Error(), "bad query")
}

func TestFetch_RejectsOtherKinds(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	})

	_, err := src.Fetch(context.Background(), domain.Query{Kind: domain.KindEntity, Symbol: "AAPL"})
	assert.Error(t, err)
	assert.False(t, src.Supports(domain.Query{Kind: domain.KindCategory}))
}
