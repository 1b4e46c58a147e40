package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news_sentiment/internal/domain"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Fed holds rates steady", CleanText("  Fed   holds\nrates steady "))
	assert.Equal(t, "Stocks rally on jobs data", CleanText("<p>Stocks <b>rally</b> on jobs data</p>"))
	assert.Equal(t, "AT&T beats estimates", CleanText("AT&amp;T beats estimates"))
	assert.Equal(t, "", CleanText("<br/>"))
}

func TestCleanText_BlockElements(t *testing.T) {
	assert.Equal(t, "Stocks rose. Bonds fell.", CleanText("<p>Stocks rose.</p><p>Bonds fell.</p>"))
	assert.Equal(t, "Gold Silver", CleanText("<ul><li>Gold</li><li>Silver</li></ul>"))
	assert.Equal(t, "line one line two", CleanText("line one<br>line two"))
	assert.Equal(t, "Nasdaq", CleanText("<b>Nas</b>daq"))
	assert.Equal(t, "visible", CleanText("<div>visible<script>var x = 1;</script><!-- hidden --></div>"))
}

func TestCleanText_PlainTextWithAngleBrackets(t *testing.T) {
	assert.Equal(t, "x<y so buy", CleanText("x<y so buy"))
	assert.Equal(t, "rates < 5% & falling", CleanText("rates < 5% &amp; falling"))
	assert.Equal(t, "3 <4 >2", CleanText("3 <4 >2"))
}

func TestNormalize(t *testing.T) {
	published := time.Date(2025, 3, 13, 14, 0, 0, 0, time.FixedZone("EST", -5*60*60))

	items, dropped := Normalize(domain.ProviderNewsAPI, []Record{
		{Headline: " Oil slips ", Summary: "<i>Brent</i> down", SourceName: " Reuters ", URL: "https://r/1", PublishedAt: published},
		{Headline: "   "},
		{Headline: "No date"},
	})

	assert.Equal(t, 1, dropped)
	require.Len(t, items, 2)

	assert.Equal(t, "Oil slips", items[0].HeadlineOrText)
	assert.Equal(t, "Brent down", items[0].BodyOrSummary)
	assert.Equal(t, "Reuters", items[0].SourceName)
	assert.Equal(t, domain.ProviderNewsAPI, items[0].Provider)
	assert.Equal(t, time.UTC, items[0].PublishedAt.Location())
	assert.True(t, items[0].PublishedAt.Equal(published))
	assert.NotEmpty(t, items[0].ID)

	assert.False(t, items[1].HasTimestamp())
}

func TestItemID_FoldsHeadline(t *testing.T) {
	a := ItemID(domain.ProviderFinnhub, "Fed Raises Rates")
	b := ItemID(domain.ProviderFinnhub, "fed raises rates ")
	c := ItemID(domain.ProviderTwitter, "fed raises rates")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}

func TestParseTime(t *testing.T) {
	assert.True(t, ParseTime("").IsZero())
	assert.True(t, ParseTime("yesterday").IsZero())

	ts := ParseTime("2025-03-13T10:11:12.000Z")
	assert.Equal(t, time.Date(2025, 3, 13, 10, 11, 12, 0, time.UTC), ts.UTC())

	ts = ParseTime("2025-03-13T10:11:12Z")
	assert.Equal(t, 13, ts.Day())
}

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"value": 7}`))
		case "/empty":
		case "/garbage":
			_, _ = w.Write([]byte(`<html>`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid token"}`))
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	client := srv.Client()

	fetch := func(path string) (map[string]int, error) {
		req, err := NewRequest(ctx, domain.ProviderFinnhub, srv.URL+path)
		require.NoError(t, err)
		var out map[string]int
		return out, DoJSON(client, req, domain.ProviderFinnhub, &out)
	}

	out, err := fetch("/ok")
	require.NoError(t, err)
	assert.Equal(t, 7, out["value"])

	out, err = fetch("/empty")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = fetch("/garbage")
	var fe *domain.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, domain.FetchDecode, fe.Kind)

	_, err = fetch("/denied")
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, domain.FetchStatus, fe.Kind)
	assert.Equal(t, http.StatusUnauthorized, fe.StatusCode)
	assert.Contains(t, fe.Error(), "invalid token")
}

func TestDoJSON_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	req, err := NewRequest(context.Background(), domain.ProviderTwitter, url)
	require.NoError(t, err)

	err = DoJSON(http.DefaultClient, req, domain.ProviderTwitter, &struct{}{})
	var fe *domain.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, domain.FetchTransport, fe.Kind)
	assert.Equal(t, domain.ProviderTwitter, fe.Provider)
}
