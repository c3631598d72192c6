package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supervisor/internal/logging"
)

func TestReadmeTextHeadlines(t *testing.T) {
	page := `<html><body>
		<span class="titleline"><a href="https://a.example">First story</a></span>
		<span class="titleline"><a href="https://b.example">Second story</a></span>
	</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	f := NewFetcher(logging.Nop())
	got, err := f.ReadmeText(context.Background(), srv.URL)
	require.NoError(t, err)

	lines := strings.Split(got, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "First story (https://a.example)", lines[0])
	assert.Equal(t, "Second story (https://b.example)", lines[1])
}

func TestReadmeTextHeadlinesCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 10; i++ {
		b.WriteString(`<span class="titleline"><a href="#">story</a></span>`)
	}
	b.WriteString("</body></html>")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(b.String()))
	}))
	defer srv.Close()

	f := NewFetcher(logging.Nop())
	got, err := f.ReadmeText(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, strings.Split(got, "\n"), 5, "headlines are capped at the top five")
}

func TestReadmeTextEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>nothing useful</p></body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(logging.Nop())
	_, err := f.ReadmeText(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestReadmeTextHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(logging.Nop())
	_, err := f.ReadmeText(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestReadmeTextUnreachable(t *testing.T) {
	f := NewFetcher(logging.Nop())
	_, err := f.ReadmeText(context.Background(), "http://127.0.0.1:1/repo")
	assert.Error(t, err)
}
