// Package article fetches lightweight metadata for shared links: page
// title and description for articles, and oEmbed titles for YouTube
// videos.
package article

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/model"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Mozilla/5.0 (compatible; trudy/1.0; +https://github.com/itsabhinavjain/project-trudy-km-telegram)"

	// Pages are read only far enough to find the head metadata.
	maxReadBytes = 512 << 10
)

var (
	titleRe    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	metaDescRe = regexp.MustCompile(`(?is)<meta[^>]+name=["']description["'][^>]+content=["'](.*?)["']`)
	ogDescRe   = regexp.MustCompile(`(?is)<meta[^>]+property=["']og:description["'][^>]+content=["'](.*?)["']`)
	ogTitleRe  = regexp.MustCompile(`(?is)<meta[^>]+property=["']og:title["'][^>]+content=["'](.*?)["']`)
	wsRe       = regexp.MustCompile(`\s+`)
)

// Extractor fetches page metadata over HTTP.
type Extractor struct {
	client *http.Client
}

// New builds an extractor. A zero timeout falls back to the default.
func New(timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Extractor{client: &http.Client{Timeout: timeout}}
}

// Extract fetches a page and pulls its title and description from the
// document head.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (model.LinkMeta, error) {
	log.Debug().Str("url", pageURL).Msg("extracting article metadata")

	body, err := e.fetch(ctx, pageURL)
	if err != nil {
		return model.LinkMeta{}, err
	}

	meta := model.LinkMeta{URL: pageURL}
	if m := ogTitleRe.FindStringSubmatch(body); m != nil {
		meta.Title = cleanText(m[1])
	}
	if meta.Title == "" {
		if m := titleRe.FindStringSubmatch(body); m != nil {
			meta.Title = cleanText(m[1])
		}
	}
	if m := metaDescRe.FindStringSubmatch(body); m != nil {
		meta.Description = cleanText(m[1])
	}
	if meta.Description == "" {
		if m := ogDescRe.FindStringSubmatch(body); m != nil {
			meta.Description = cleanText(m[1])
		}
	}

	if meta.Title == "" && meta.Description == "" {
		return meta, errors.New("no metadata found in page")
	}
	return meta, nil
}

// VideoTitle resolves a YouTube video title through the public oEmbed
// endpoint, which needs no API key.
func (e *Extractor) VideoTitle(ctx context.Context, videoURL string) (string, error) {
	endpoint := "https://www.youtube.com/oembed?format=json&url=" + url.QueryEscape(videoURL)

	body, err := e.fetch(ctx, endpoint)
	if err != nil {
		return "", err
	}

	var payload struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return "", fmt.Errorf("decode oembed response: %w", err)
	}
	if payload.Title == "" {
		return "", errors.New("oembed response has no title")
	}
	return payload.Title, nil
}

func (e *Extractor) fetch(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch %s: status %d", target, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReadBytes))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func cleanText(s string) string {
	return strings.TrimSpace(wsRe.ReplaceAllString(html.UnescapeString(s), " "))
}
