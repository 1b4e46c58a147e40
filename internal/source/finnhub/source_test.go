package finnhub

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"news_sentiment/internal/domain"
)

type FinnhubSourceTestSuite struct {
	suite.Suite
	server   *httptest.Server
	handler  http.HandlerFunc
	source   *Source
	lastPath string
	lastReq  *http.Request
}

func (s *FinnhubSourceTestSuite) SetupTest() {
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lastPath = r.URL.Path
		s.lastReq = r
		s.handler(w, r)
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.source = New(Config{BaseURL: s.server.URL, APIKey: "secret", Timeout: 5 * time.Second}, logger)
}

func (s *FinnhubSourceTestSuite) TearDownTest() {
	s.server.Close()
}

func TestFinnhubSourceTestSuite(t *testing.T) {
	suite.Run(t, new(FinnhubSourceTestSuite))
}

func (s *FinnhubSourceTestSuite) TestFetch_Category() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"category":"crypto","datetime":1741874400,"headline":"Bitcoin rallies","id":1,"source":"CoinDesk","summary":"BTC up","url":"https://c/1"},
			{"category":"crypto","datetime":0,"headline":"Ether flat","id":2,"source":"CoinDesk","summary":"","url":"https://c/2"},
			{"category":"crypto","datetime":1741874400,"headline":"","id":3}
		]`))
	}

	items, err := s.source.Fetch(context.Background(), domain.Query{Kind: domain.KindCategory, Category: domain.CategoryCrypto})

	s.Require().NoError(err)
	s.Equal("/news", s.lastPath)
	s.Equal("crypto", s.lastReq.URL.Query().Get("category"))
	s.Equal("secret", s.lastReq.URL.Query().Get("token"))

	s.Require().Len(items, 2)
	s.Equal("Bitcoin rallies", items[0].HeadlineOrText)
	s.Equal("BTC up", items[0].BodyOrSummary)
	s.Equal("CoinDesk", items[0].SourceName)
	s.Equal(domain.ProviderFinnhub, items[0].Provider)
	s.Equal(time.Unix(1741874400, 0).UTC(), items[0].PublishedAt)
	s.False(items[1].HasTimestamp())
}

func (s *FinnhubSourceTestSuite) TestFetch_MergersUsesSingularParam() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}

	items, err := s.source.Fetch(context.Background(), domain.Query{Kind: domain.KindCategory, Category: domain.CategoryMergers})

	s.Require().NoError(err)
	s.Empty(items)
	s.Equal("merger", s.lastReq.URL.Query().Get("category"))
}

func (s *FinnhubSourceTestSuite) TestFetch_Entity() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"datetime":1741874400,"headline":"Apple beats","related":"AAPL","url":"https://a/1"}]`))
	}

	q := domain.Query{
		Kind:   domain.KindEntity,
		Symbol: "AAPL",
		From:   time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC),
		To:     time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
	}
	items, err := s.source.Fetch(context.Background(), q)

	s.Require().NoError(err)
	s.Equal("/company-news", s.lastPath)
	params := s.lastReq.URL.Query()
	s.Equal("AAPL", params.Get("symbol"))
	s.Equal("2025-03-07", params.Get("from"))
	s.Equal("2025-03-14", params.Get("to"))
	s.Len(items, 1)
}

func (s *FinnhubSourceTestSuite) TestFetch_StatusError() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"API limit reached"}`))
	}

	items, err := s.source.Fetch(context.Background(), domain.Query{Kind: domain.KindCategory, Category: domain.CategoryGeneral})

	s.Nil(items)
	var fe *domain.FetchError
	s.Require().True(errors.As(err, &fe))
	s.Equal(domain.FetchStatus, fe.Kind)
	s.Equal(http.StatusTooManyRequests, fe.StatusCode)
}

func (s *FinnhubSourceTestSuite) TestFetch_SchemaMismatch() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"You don't have access to this resource."}`))
	}

	_, err := s.source.Fetch(context.Background(), domain.Query{Kind: domain.KindCategory, Category: domain.CategoryGeneral})

	var fe *domain.FetchError
	s.Require().True(errors.As(err, &fe))
	s.Equal(domain.FetchDecode, fe.Kind)
}

func (s *FinnhubSourceTestSuite) TestSupports() {
	s.True(s.source.Supports(domain.Query{Kind: domain.KindCategory, Category: domain.CategoryForex}))
	s.True(s.source.Supports(domain.Query{Kind: domain.KindEntity, Symbol: "MSFT"}))
	s.False(s.source.Supports(domain.Query{Kind: domain.KindCategory, Category: domain.CategoryRealEstate}))
	s.False(s.source.Supports(domain.Query{Kind: domain.KindFreeText, Text: "fed"}))
}

func (s *FinnhubSourceTestSuite) TestFetch_UnsupportedCategory() {
	_, err := s.source.Fetch(context.Background(), domain.Query{Kind: domain.KindCategory, Category: domain.CategoryEconomy})

	s.ErrorIs(err, domain.ErrNoSource)
}
