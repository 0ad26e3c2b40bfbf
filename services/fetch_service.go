package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"ainews/config"
	"ainews/models"
)

// FetchError reports an HTTP failure reaching a source. Recoverable: the
// source is retried on the next scheduled cycle.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// FeedItem is one parsed entry from an RSS or Atom document.
type FeedItem struct {
	Title       string
	Link        string
	Description string
	PublishedAt time.Time
}

// FetchService retrieves raw feed payloads and parses them into items.
type FetchService struct {
	client    *http.Client
	parser    *gofeed.Parser
	userAgent string
}

func NewFetchService(cfg *config.Config) *FetchService {
	return &FetchService{
		client:    &http.Client{Timeout: cfg.FetchTimeout},
		parser:    gofeed.NewParser(),
		userAgent: cfg.UserAgent,
	}
}

// FetchRaw issues the HTTP GET for a source and returns the raw payload.
// No retry here; a failed source is skipped until the next cycle.
func (fs *FetchService) FetchRaw(ctx context.Context, source *models.NewsSource) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %v", source.URL, err)
	}
	req.Header.Set("User-Agent", fs.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	resp, err := fs.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %v", source.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: source.URL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body from %s: %v", source.URL, err)
	}
	return string(body), nil
}

// ParseFeed extracts items from a raw RSS or Atom payload. Format dispatch is
// handled by the feed parser; the detected type ("rss" or "atom") is returned
// alongside the items. Items lacking both a title and a link are discarded.
func (fs *FetchService) ParseFeed(raw, sourceName string) ([]FeedItem, string, error) {
	feed, err := fs.parser.ParseString(raw)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse feed from %s: %v", sourceName, err)
	}

	items := make([]FeedItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := CleanText(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" && link == "" {
			continue
		}

		description := item.Description
		if description == "" {
			description = item.Content
		}

		publishedAt := time.Now()
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = *item.UpdatedParsed
		}

		items = append(items, FeedItem{
			Title:       title,
			Link:        link,
			Description: CleanText(description),
			PublishedAt: publishedAt,
		})
	}

	return items, feed.FeedType, nil
}

// FetchItems runs the fetch and parse steps for one source.
func (fs *FetchService) FetchItems(ctx context.Context, source *models.NewsSource) ([]FeedItem, error) {
	raw, err := fs.FetchRaw(ctx, source)
	if err != nil {
		return nil, err
	}
	items, _, err := fs.ParseFeed(raw, source.Name)
	return items, err
}

// CleanText strips HTML markup, unescapes entities and collapses whitespace.
// Input is semi-trusted feed text that is frequently malformed; the HTML
// parser tolerates anything and plain text passes through unchanged.
func CleanText(s string) string {
	if s == "" {
		return ""
	}

	text := s
	if strings.ContainsAny(s, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			text = doc.Text()
		}
	}

	return strings.Join(strings.Fields(text), " ")
}
