package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/chroma-client/internal/logger"
	"github.com/samvad-hq/chroma-client/internal/manifest"
	"github.com/samvad-hq/chroma-client/pkg/httpclient"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
	maxDocumentBytes = 16 << 10

	MetadataTitleKey       = "title"
	MetadataDescriptionKey = "description"
	MetadataSourceURLKey   = "source_url"
)

// Scraper fills documents of manifest entries from their document_url pages.
type Scraper struct {
	client httpclient.Requester
	delay  time.Duration
	log    logger.Logger
}

// New constructs a scraper. delay throttles consecutive page fetches.
func New(client httpclient.Requester, delay time.Duration, log logger.Logger) *Scraper {
	if client == nil {
		client = httpclient.NewExecutor(httpclient.ExecutorConfig{Timeout: 15 * time.Second})
	}
	return &Scraper{client: client, delay: delay, log: logger.Ensure(log)}
}

// Enrich fetches each entry that has a document_url and no document, merging
// the page text and metadata. Failed fetches leave the entry unchanged.
func (s *Scraper) Enrich(ctx context.Context, collection string, entries []manifest.Entry) []manifest.Entry {
	out := append([]manifest.Entry(nil), entries...)

	fetched := 0
	for i, e := range entries {
		if e.DocumentURL == "" || strings.TrimSpace(e.Document) != "" {
			continue
		}

		select {
		case <-ctx.Done():
			return out
		default:
		}

		if fetched > 0 && s.delay > 0 {
			timer := time.NewTimer(s.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return out
			case <-timer.C:
			}
		}
		fetched++

		enriched, err := s.fetchAndParse(ctx, e)
		if err != nil {
			s.log.WarnObj("document scrape failed", "scrape_error", map[string]any{
				"collection": collection,
				"url":        e.DocumentURL,
				"error":      err.Error(),
			})
			continue
		}
		out[i] = enriched
	}

	return out
}

func (s *Scraper) fetchAndParse(ctx context.Context, e manifest.Entry) (manifest.Entry, error) {
	res := s.client.Execute(ctx, httpclient.MethodGet, e.DocumentURL, nil, httpclient.Options{})
	if !res.IsSuccess() {
		snippet := strings.TrimSpace(res.BodyText())
		snippet = truncateUTF8(snippet, 1024)
		return e, fmt.Errorf("status %d body: %s", res.Status, snippet)
	}

	body := truncateUTF8(res.BodyText(), maxHTMLBodyBytes)

	page, err := parsePage(body)
	if err != nil {
		return e, err
	}
	if page.Text == "" {
		return e, fmt.Errorf("page has no text")
	}

	updated := e
	updated.Document = page.Text
	updated.Metadata = make(map[string]any, len(e.Metadata)+3)
	for k, v := range e.Metadata {
		updated.Metadata[k] = v
	}
	updated.Metadata[MetadataSourceURLKey] = e.DocumentURL
	if page.Title != "" {
		updated.Metadata[MetadataTitleKey] = page.Title
	}
	if page.Description != "" {
		updated.Metadata[MetadataDescriptionKey] = page.Description
	}

	return updated, nil
}

type pageContent struct {
	Title       string
	Description string
	Text        string
}

func parsePage(body string) (pageContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return pageContent{}, fmt.Errorf("parse html: %w", err)
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	pc := pageContent{}
	pc.Title = firstNonEmpty(
		extract(`meta[property="og:title"]`),
		strings.TrimSpace(doc.Find("title").First().Text()),
	)
	pc.Description = firstNonEmpty(
		extract(`meta[property="og:description"]`),
		extract(`meta[name="description"]`),
	)

	doc.Find("script, style, noscript").Remove()
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	text = truncateUTF8(text, maxDocumentBytes)
	pc.Text = firstNonEmpty(text, pc.Description)

	return pc, nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
