package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"news_sentiment/internal/domain"
	"news_sentiment/internal/pipeline"
	"news_sentiment/internal/sentiment"
	"news_sentiment/internal/service"
)

// Analyzer is the part of the analysis service the handlers use.
type Analyzer interface {
	Analyze(ctx context.Context, q domain.Query, order pipeline.SortOrder) (*domain.Analysis, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Analysis, error)
	History(ctx context.Context, limit int) ([]domain.AnalysisRecord, error)
	Sources() []service.Source
}

type Handlers struct {
	analyzer Analyzer
}

func NewHandlers(analyzer Analyzer) *Handlers {
	return &Handlers{analyzer: analyzer}
}

// analysisResponse adds the chart-ready views to an analysis.
type analysisResponse struct {
	*domain.Analysis
	Trend []domain.TrendPoint `json:"trend"`
	Links []domain.Link       `json:"links"`
}

func newAnalysisResponse(a *domain.Analysis) analysisResponse {
	return analysisResponse{
		Analysis: a,
		Trend:    a.Result.Trend(),
		Links:    a.Result.Links(),
	}
}

type categoryInfo struct {
	Name      domain.Category   `json:"name"`
	Providers []domain.Provider `json:"providers"`
}

type scoreRequest struct {
	Text any `json:"text"`
}

type scoreResponse struct {
	Score    float64             `json:"score"`
	Polarity *sentiment.Polarity `json:"polarity,omitempty"`
}

func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListCategories lists every category with the providers able to serve it.
func (h *Handlers) ListCategories(c *gin.Context) {
	out := make([]categoryInfo, 0, len(domain.Categories))
	for _, cat := range domain.Categories {
		info := categoryInfo{Name: cat, Providers: []domain.Provider{}}
		q := domain.Query{Kind: domain.KindCategory, Category: cat}
		for _, src := range h.analyzer.Sources() {
			if src.Supports(q) {
				info.Providers = append(info.Providers, src.ID())
			}
		}
		out = append(out, info)
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

func (h *Handlers) CategoryNews(c *gin.Context) {
	// Without a sort parameter the service's configured order applies.
	var order pipeline.SortOrder
	if v := c.Query("sort"); v != "" {
		var err error
		if order, err = pipeline.ParseSortOrder(v); err != nil {
			writeError(c, err)
			return
		}
	}

	h.analyze(c, domain.Query{
		Kind:     domain.KindCategory,
		Category: domain.Category(c.DefaultQuery("category", string(domain.CategoryGeneral))),
		Provider: domain.Provider(c.Query("provider")),
	}, order)
}

func (h *Handlers) EntityNews(c *gin.Context) {
	from, to, err := parseWindow(c)
	if err != nil {
		writeError(c, err)
		return
	}

	h.analyze(c, domain.Query{
		Kind:     domain.KindEntity,
		Symbol:   c.Param("symbol"),
		Provider: domain.Provider(c.Query("provider")),
		From:     from,
		To:       to,
	}, "")
}

func (h *Handlers) Search(c *gin.Context) {
	h.freeText(c, domain.Provider(c.Query("provider")))
}

// Social runs a free-text query against the social-post provider.
func (h *Handlers) Social(c *gin.Context) {
	h.freeText(c, domain.ProviderTwitter)
}

func (h *Handlers) freeText(c *gin.Context, provider domain.Provider) {
	from, to, err := parseWindow(c)
	if err != nil {
		writeError(c, err)
		return
	}

	maxResults := 0
	if v := c.Query("max"); v != "" {
		maxResults, err = strconv.Atoi(v)
		if err != nil || maxResults < 1 {
			writeError(c, fmt.Errorf("%w: max must be a positive integer", domain.ErrInvalidQuery))
			return
		}
	}

	h.analyze(c, domain.Query{
		Kind:       domain.KindFreeText,
		Text:       c.Query("q"),
		Language:   c.Query("language"),
		MaxResults: maxResults,
		Provider:   provider,
		From:       from,
		To:         to,
	}, "")
}

func (h *Handlers) analyze(c *gin.Context, q domain.Query, order pipeline.SortOrder) {
	a, err := h.analyzer.Analyze(c.Request.Context(), q, order)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAnalysisResponse(a))
}

// Score scores arbitrary text. A non-string text value scores 0.
func (h *Handlers) Score(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resp := scoreResponse{Score: sentiment.ScoreAny(req.Text)}
	if text, ok := req.Text.(string); ok {
		p := sentiment.Default().PolarityScores(text)
		resp.Polarity = &p
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) ListAnalyses(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(c, fmt.Errorf("%w: limit must be an integer", domain.ErrInvalidQuery))
			return
		}
		limit = n
	}

	records, err := h.analyzer.History(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if records == nil {
		records = []domain.AnalysisRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"analyses": records})
}

func (h *Handlers) GetAnalysis(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, fmt.Errorf("%w: malformed analysis id", domain.ErrInvalidQuery))
		return
	}

	a, err := h.analyzer.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAnalysisResponse(a))
}

// parseWindow reads the optional from and to parameters. Both accept a date
// or an RFC 3339 timestamp; a bare "to" date covers the whole day.
func parseWindow(c *gin.Context) (time.Time, time.Time, error) {
	from, err := parseTimeParam(c.Query("from"), false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseTimeParam(c.Query("to"), true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func parseTimeParam(v string, endOfDay bool) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		if endOfDay {
			t = t.AddDate(0, 0, 1).Add(-time.Second)
		}
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse time %q", domain.ErrInvalidQuery, v)
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := gin.H{"error": err.Error()}

	var fe *domain.FetchError
	switch {
	case errors.As(err, &fe):
		status = http.StatusBadGateway
		body["provider"] = fe.Provider
		body["kind"] = fe.Kind
		if fe.StatusCode != 0 {
			body["upstream_status"] = fe.StatusCode
		}
	case errors.Is(err, domain.ErrInvalidQuery):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNoSource):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrHistoryDisabled):
		status = http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	c.AbortWithStatusJSON(status, body)
}
