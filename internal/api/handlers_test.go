package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"news_sentiment/internal/config"
	"news_sentiment/internal/domain"
	"news_sentiment/internal/pipeline"
	"news_sentiment/internal/service"
)

type stubSource struct {
	id       domain.Provider
	supports func(domain.Query) bool
}

func (s stubSource) ID() domain.Provider { return s.id }
func (s stubSource) Name() string { return string(s.id) }
func (s stubSource) Supports(q domain.Query) bool { return s.supports(q) }
func (s stubSource) Fetch(context.Context, domain.Query) ([]domain.ContentItem, error) {
	return nil, nil
}

type stubAnalyzer struct {
	lastQuery domain.Query
	lastOrder pipeline.SortOrder
	lastLimit int

	analysis *domain.Analysis
	records  []domain.AnalysisRecord
	err      error
}

func (s *stubAnalyzer) Analyze(_ context.Context, q domain.Query, order pipeline.SortOrder) (*domain.Analysis, error) {
	s.lastQuery = q
	s.lastOrder = order
	return s.analysis, s.err
}

func (s *stubAnalyzer) Get(_ context.Context, id uuid.UUID) (*domain.Analysis, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.analysis, nil
}

func (s *stubAnalyzer) History(_ context.Context, limit int) ([]domain.AnalysisRecord, error) {
	s.lastLimit = limit
	return s.records, s.err
}

func (s *stubAnalyzer) Sources() []service.Source {
	return []service.Source{
		stubSource{id: domain.ProviderFinnhub, supports: func(q domain.Query) bool {
			return q.Category == domain.CategoryCrypto || q.Category == domain.CategoryGeneral
		}},
		stubSource{id: domain.ProviderNewsAPI, supports: func(q domain.Query) bool { return true }},
	}
}

type HandlersTestSuite struct {
	suite.Suite
	analyzer *stubAnalyzer
	handler  http.Handler
}

func (s *HandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	published := time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC)
	s.analyzer = &stubAnalyzer{
		analysis: &domain.Analysis{
			ID:       uuid.New(),
			Provider: domain.ProviderFinnhub,
			Result: domain.ResultSet{
				Items: []domain.ScoredItem{
					{
						ContentItem: domain.ContentItem{
							ID:             "1",
							HeadlineOrText: "Bitcoin rallies",
							URL:            "https://example.com/1",
							PublishedAt:    published,
						},
						SentimentScore: 0.4,
					},
					{ContentItem: domain.ContentItem{ID: "2", HeadlineOrText: "Miners slump"}, SentimentScore: -0.2},
				},
				Summary: domain.Summary{ItemCount: 2, Mean: 0.1, PositivePct: 50, NegativePct: 50},
			},
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.handler = NewServer(config.ServerConfig{Addr: ":0"}, NewHandlers(s.analyzer), logger).Handler()
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (s *HandlersTestSuite) do(method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (s *HandlersTestSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/health", "")
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())
}

func (s *HandlersTestSuite) TestCategories() {
	rec := s.do(http.MethodGet, "/api/v1/categories", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var body struct {
		Categories []categoryInfo `json:"categories"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Len(body.Categories, len(domain.Categories))
	s.Equal(domain.CategoryGeneral, body.Categories[0].Name)
	s.Equal([]domain.Provider{domain.ProviderFinnhub, domain.ProviderNewsAPI}, body.Categories[0].Providers)
	s.Equal([]domain.Provider{domain.ProviderNewsAPI}, body.Categories[1].Providers)
}

func (s *HandlersTestSuite) TestCategoryNews() {
	rec := s.do(http.MethodGet, "/api/v1/news?category=crypto&sort=score&provider=finnhub", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	s.Equal(domain.KindCategory, s.analyzer.lastQuery.Kind)
	s.Equal(domain.Category("crypto"), s.analyzer.lastQuery.Category)
	s.Equal(domain.ProviderFinnhub, s.analyzer.lastQuery.Provider)
	s.Equal(pipeline.SortScore, s.analyzer.lastOrder)

	body := decode(s.T(), rec)
	s.Contains(body, "result")
	s.Len(body["trend"], 1)
	s.Len(body["links"], 1)
}

func (s *HandlersTestSuite) TestCategoryNews_DefaultsAndBadSort() {
	rec := s.do(http.MethodGet, "/api/v1/news", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(domain.CategoryGeneral, s.analyzer.lastQuery.Category)

	rec = s.do(http.MethodGet, "/api/v1/news?sort=loudest", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlersTestSuite) TestEntityNews_Window() {
	rec := s.do(http.MethodGet, "/api/v1/entities/aapl/news?from=2025-03-01&to=2025-03-07", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	q := s.analyzer.lastQuery
	s.Equal(domain.KindEntity, q.Kind)
	s.Equal("aapl", q.Symbol)
	s.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), q.From)
	s.Equal(time.Date(2025, 3, 7, 23, 59, 59, 0, time.UTC), q.To)

	rec = s.do(http.MethodGet, "/api/v1/entities/aapl/news?from=yesterday", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlersTestSuite) TestSearchAndSocial() {
	rec := s.do(http.MethodGet, "/api/v1/search?q=rate+cut&language=de&max=50", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("rate cut", s.analyzer.lastQuery.Text)
	s.Equal("de", s.analyzer.lastQuery.Language)
	s.Equal(50, s.analyzer.lastQuery.MaxResults)
	s.Empty(s.analyzer.lastQuery.Provider)

	rec = s.do(http.MethodGet, "/api/v1/social?q=tesla", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(domain.ProviderTwitter, s.analyzer.lastQuery.Provider)

	rec = s.do(http.MethodGet, "/api/v1/search?q=x&max=lots", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlersTestSuite) TestSearch_MaxMustBePositive() {
	for _, v := range []string{"0", "-3"} {
		s.analyzer.lastQuery = domain.Query{}
		rec := s.do(http.MethodGet, "/api/v1/search?q=fed&max="+v, "")
		s.Equal(http.StatusBadRequest, rec.Code, v)
		s.Contains(decode(s.T(), rec)["error"], "max must be a positive integer")
		s.Empty(s.analyzer.lastQuery.Text, "analysis must not run for max=%s", v)
	}

	rec := s.do(http.MethodGet, "/api/v1/search?q=fed&max=1", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(1, s.analyzer.lastQuery.MaxResults)
}

func (s *HandlersTestSuite) TestErrorMapping() {
	tests := []struct {
		err  error
		want int
	}{
		{&domain.FetchError{Provider: domain.ProviderNewsAPI, Kind: domain.FetchStatus, StatusCode: 429, Err: errors.New("slow down")}, http.StatusBadGateway},
		{domain.ErrInvalidQuery, http.StatusBadRequest},
		{domain.ErrNoSource, http.StatusUnprocessableEntity},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		s.analyzer.err = tt.err
		rec := s.do(http.MethodGet, "/api/v1/search?q=fed", "")
		s.Equal(tt.want, rec.Code, tt.err.Error())
	}

	s.analyzer.err = &domain.FetchError{Provider: domain.ProviderNewsAPI, Kind: domain.FetchStatus, StatusCode: 429, Err: errors.New("slow down")}
	body := decode(s.T(), s.do(http.MethodGet, "/api/v1/search?q=fed", ""))
	s.Equal("newsapi", body["provider"])
	s.Equal(float64(429), body["upstream_status"])
}

func (s *HandlersTestSuite) TestScore() {
	rec := s.do(http.MethodPost, "/api/v1/score", `{"text":"Great earnings, strong growth!"}`)
	s.Require().Equal(http.StatusOK, rec.Code)
	body := decode(s.T(), rec)
	s.Greater(body["score"].(float64), 0.0)
	s.Contains(body, "polarity")

	rec = s.do(http.MethodPost, "/api/v1/score", `{"text":42}`)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"score":0}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/v1/score", `not json`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlersTestSuite) TestAnalyses() {
	s.analyzer.records = []domain.AnalysisRecord{{ID: uuid.New(), Provider: domain.ProviderRSS}}

	rec := s.do(http.MethodGet, "/api/v1/analyses?limit=5", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(5, s.analyzer.lastLimit)
	s.Len(decode(s.T(), rec)["analyses"], 1)

	rec = s.do(http.MethodGet, "/api/v1/analyses/"+s.analyzer.analysis.ID.String(), "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(s.analyzer.analysis.ID.String(), decode(s.T(), rec)["id"])

	rec = s.do(http.MethodGet, "/api/v1/analyses/not-a-uuid", "")
	s.Equal(http.StatusBadRequest, rec.Code)

	s.analyzer.err = domain.ErrNotFound
	rec = s.do(http.MethodGet, "/api/v1/analyses/"+uuid.NewString(), "")
	s.Equal(http.StatusNotFound, rec.Code)

	s.analyzer.err = domain.ErrHistoryDisabled
	rec = s.do(http.MethodGet, "/api/v1/analyses", "")
	s.Equal(http.StatusNotImplemented, rec.Code)
}
