// Package docread implements the built-in read_document dispatcher
// capability: a module function whose Exec starts with "#!doc" is routed
// here instead of to a shell, reads a local path or http(s) URL from its
// args, and returns extracted, normalized, Markdown-rendered text.
package docread

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/yuin/goldmark"
	"golang.org/x/text/unicode/norm"

	"ctxrun/ingest"
)

// Prefix is the Exec marker that routes a function to Read instead of a
// shell command (mirroring the "#!nowait" detached-exec convention).
const Prefix = "#!doc"

// maxFetchBytes bounds how much of a remote document is read into memory.
const maxFetchBytes = 4 << 20

// Args is the args shape a "#!doc" function is invoked with.
type Args struct {
	Source string `json:"source"`
}

// Reader extracts and normalizes the readable content of a local path or
// http(s) URL.
type Reader struct {
	HTTPClient *http.Client
}

// New returns a Reader with a bounded-timeout HTTP client.
func New() *Reader {
	return &Reader{HTTPClient: &http.Client{Timeout: 15 * time.Second}}
}

// Read resolves args (a JSON-encoded Args) into extracted, NFC-normalized
// text, rendering any embedded Markdown to HTML via goldmark first when the
// source looks like a Markdown file.
func (r *Reader) Read(ctx context.Context, args json.RawMessage) (string, error) {
	var parsed Args
	if err := json.Unmarshal(args, &parsed); err != nil || parsed.Source == "" {
		return "", fmt.Errorf("docread: missing %q arg", "source")
	}

	if isURL(parsed.Source) {
		return r.readURL(ctx, parsed.Source)
	}
	return r.readFile(parsed.Source)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func (r *Reader) readURL(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("docread: invalid url: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ctxrun/1.0)")

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("docread: fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("docread: HTTP %d from %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", fmt.Errorf("docread: read body: %w", err)
	}

	parsedURL, _ := url.Parse(rawURL)
	article, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err == nil && article.TextContent != "" {
		return normalize(article.TextContent), nil
	}
	return normalize(ingest.StripHTML(string(body))), nil
}

func (r *Reader) readFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("docread: read %s: %w", path, err)
	}

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	ctype := ingest.ContentTypeFromExtension(ext)

	switch ctype {
	case ingest.TypePDF:
		text, err := ingest.NewPDFExtractor().Extract(content)
		if err != nil {
			return "", fmt.Errorf("docread: extract pdf: %w", err)
		}
		return normalize(text), nil
	case ingest.TypeDOCX:
		text, err := ingest.NewDOCXExtractor().Extract(content)
		if err != nil {
			return "", fmt.Errorf("docread: extract docx: %w", err)
		}
		return normalize(text), nil
	case ingest.TypeCSV:
		text, err := ingest.NewCSVExtractor().Extract(content)
		if err != nil {
			return "", fmt.Errorf("docread: extract csv: %w", err)
		}
		return normalize(text), nil
	case ingest.TypeHTML:
		return normalize(ingest.StripHTML(string(content))), nil
	case ingest.TypeMarkdown:
		var buf strings.Builder
		if err := goldmark.Convert(content, &buf); err != nil {
			return "", fmt.Errorf("docread: render markdown: %w", err)
		}
		return normalize(ingest.StripHTML(buf.String())), nil
	default:
		return normalize(string(content)), nil
	}
}

// normalize trims surrounding whitespace and applies Unicode NFC
// normalization so model input sees a single canonical form.
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
