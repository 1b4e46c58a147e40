// Package source holds the helpers shared by provider adapters: request
// execution with typed failures and normalization into domain.ContentItem.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"

	"news_sentiment/internal/domain"
)

const UserAgent = "NewsSentiment/1.0"

// maxErrorBody bounds how much of a failed response body is kept for errors.
const maxErrorBody = 512

// DoJSON executes req and decodes a successful JSON body into out. Every
// failure is returned as a *domain.FetchError.
func DoJSON(client *http.Client, req *http.Request, provider domain.Provider, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return &domain.FetchError{Provider: provider, Kind: domain.FetchTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.FetchError{
			Provider:   provider,
			Kind:       domain.FetchStatus,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &domain.FetchError{Provider: provider, Kind: domain.FetchDecode, Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}

// NewRequest builds a GET request, wrapping construction errors as transport failures.
func NewRequest(ctx context.Context, provider domain.Provider, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.FetchError{Provider: provider, Kind: domain.FetchTransport, Err: fmt.Errorf("create request: %w", err)}
	}
	return req, nil
}

// markupTag matches something that looks like an HTML tag, so plain text
// such as "x<y" is never handed to the HTML parser.
var markupTag = regexp.MustCompile(`<[A-Za-z/!][^<>]*>`)

// blockElements are separated from their neighbours by whitespace when
// markup is flattened to text.
var blockElements = map[string]struct{}{
	"address": {}, "article": {}, "aside": {}, "blockquote": {}, "br": {},
	"dd": {}, "div": {}, "dl": {}, "dt": {}, "figcaption": {}, "footer": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {}, "header": {},
	"hr": {}, "li": {}, "ol": {}, "p": {}, "pre": {}, "section": {}, "table": {},
	"td": {}, "th": {}, "tr": {}, "ul": {},
}

// CleanText strips HTML markup, decodes entities and collapses whitespace.
func CleanText(s string) string {
	switch {
	case markupTag.MatchString(s):
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			var b strings.Builder
			writeText(&b, doc.Find("body"))
			s = b.String()
		}
	case strings.Contains(s, "&"):
		s = html.UnescapeString(s)
	}
	return strings.Join(strings.Fields(s), " ")
}

func writeText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		switch name {
		case "#text":
			b.WriteString(c.Text())
			return
		case "#comment", "script", "style":
			return
		}

		_, block := blockElements[name]
		if block {
			b.WriteByte(' ')
		}
		writeText(b, c)
		if block {
			b.WriteByte(' ')
		}
	})
}

// Record is a provider record mapped onto canonical fields, before validation.
type Record struct {
	Headline    string
	Summary     string
	SourceName  string
	URL         string
	PublishedAt time.Time
}

// Normalize converts records into content items. Records whose headline is
// empty after cleaning are dropped; the number dropped is returned.
func Normalize(provider domain.Provider, records []Record) ([]domain.ContentItem, int) {
	items := make([]domain.ContentItem, 0, len(records))
	dropped := 0
	for _, r := range records {
		headline := CleanText(r.Headline)
		if headline == "" {
			dropped++
			continue
		}

		var published time.Time
		if !r.PublishedAt.IsZero() {
			published = r.PublishedAt.UTC()
		}

		items = append(items, domain.ContentItem{
			ID:             ItemID(provider, headline),
			HeadlineOrText: headline,
			BodyOrSummary:  CleanText(r.Summary),
			SourceName:     strings.TrimSpace(r.SourceName),
			URL:            strings.TrimSpace(r.URL),
			PublishedAt:    published,
			Provider:       provider,
		})
	}
	return items, dropped
}

// ItemID derives a stable id from the provider and folded headline.
func ItemID(provider domain.Provider, headline string) string {
	folded := cases.Fold().String(strings.TrimSpace(headline))
	h := sha256.Sum256([]byte(string(provider) + "|" + folded))
	return fmt.Sprintf("%x", h[:8])
}

// ParseTime parses the RFC 3339 timestamps used by most providers. An
// unparseable value yields the zero time.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05Z0700", time.DateTime} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
