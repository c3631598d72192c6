// Package web fetches repository pages so the controller can summarize a
// project before cloning it.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"supervisor/internal/logging"
)

const maxBodyBytes = 2 << 20 // 2 MiB is plenty for a rendered README page

// Fetcher pulls the README text of a GitHub repository page.
type Fetcher struct {
	httpClient *http.Client
	logger     logging.Logger
}

func NewFetcher(logger logging.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logging.OrNop(logger),
	}
}

// ReadmeText returns the rendered README of a GitHub repository page. It
// selects the article.markdown-body element; when the page has none it falls
// back to the raw README blob. Failures are returned so the caller can treat
// the summary as optional.
func (f *Fetcher) ReadmeText(ctx context.Context, url string) (string, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return "", err
	}

	if !strings.Contains(url, "github.com") {
		return headlines(body)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse repository page: %w", err)
	}

	if readme := doc.Find("article.markdown-body"); readme.Length() > 0 {
		var lines []string
		readme.Contents().Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if text != "" {
				lines = append(lines, text)
			}
		})
		if len(lines) > 0 {
			return strings.Join(lines, "\n"), nil
		}
	}

	// Fallback: the raw README blob.
	raw, err := f.get(ctx, strings.TrimRight(url, "/")+"/blob/main/README.md")
	if err != nil {
		return "", fmt.Errorf("no README found: %w", err)
	}
	return raw, nil
}

// headlines extracts the top story links of an aggregator page; kept for
// non-GitHub URLs the router still classifies as git.
func headlines(body string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	var out []string
	doc.Find(".titleline > a").EachWithBreak(func(i int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		out = append(out, fmt.Sprintf("%s (%s)", strings.TrimSpace(s.Text()), href))
		return i < 4
	})
	if len(out) == 0 {
		return "", fmt.Errorf("no readable content on page")
	}
	return strings.Join(out, "\n"), nil
}

func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}
	return string(raw), nil
}
