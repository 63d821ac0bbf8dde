// Package reader downloads articles, summarizes them and makes quizzes
// out of summaries.
package reader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/exp/slog"
)

var (
	// ErrBadURL is returned when the article url is not an absolute http(s) url.
	ErrBadURL = errors.New("bad article url")
	// ErrNoSummary is returned when the summary came out empty.
	ErrNoSummary = errors.New("could not generate summary")
)

// Summary is a short version of the article.
type Summary struct {
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Authors  []string `json:"authors"`
	ImageURL string   `json:"image_url,omitempty"`
}

// Summarizer makes a summary of the page.
type Summarizer interface {
	Summary(ctx context.Context, page Page) (string, error)
}

// Service downloads and summarizes articles.
type Service struct {
	log        *slog.Logger
	cl         *http.Client
	summarizer Summarizer
	extractor  Extractor
}

// NewService creates new service.
func NewService(lg *slog.Logger, cl *http.Client, summarizer Summarizer) *Service {
	return &Service{
		log:        lg,
		cl:         cl,
		summarizer: summarizer,
		extractor:  Extractor{},
	}
}

// Summarize downloads the article and makes its summary.
func (s *Service) Summarize(ctx context.Context, u string) (Summary, error) {
	parsed, err := url.ParseRequestURI(u)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return Summary{}, fmt.Errorf("%w: %q", ErrBadURL, u)
	}

	s.log.DebugCtx(ctx, "summarizing article", slog.String("url", u))

	page, err := s.download(ctx, u)
	if err != nil {
		return Summary{}, err
	}

	text, err := s.summarizer.Summary(ctx, page)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize: %w", err)
	}

	if strings.TrimSpace(text) == "" {
		return Summary{}, ErrNoSummary
	}

	return Summary{
		URL:      u,
		Title:    page.Title,
		Summary:  text,
		Authors:  authors(page.Byline),
		ImageURL: page.ImageURL,
	}, nil
}

func (s *Service) download(ctx context.Context, u string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return Page{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.cl.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.log.WarnCtx(ctx, "failed to close response body", slog.Any("err", err))
		}
	}()

	ok := resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
	if !ok {
		return Page{}, fmt.Errorf("bad status code: %d", resp.StatusCode)
	}

	page, err := s.extractor.Extract(resp.Body, u)
	if err != nil {
		return Page{}, fmt.Errorf("extract article: %w", err)
	}

	return page, nil
}

func authors(byline string) []string {
	byline = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(byline), "By "))
	if byline == "" {
		return []string{}
	}

	byline = strings.ReplaceAll(byline, " and ", ",")
	var res []string
	for _, a := range strings.Split(byline, ",") {
		if a = strings.TrimSpace(a); a != "" {
			res = append(res, a)
		}
	}
	return res
}

// Extractive summarizes the page by taking its leading sentences.
type Extractive struct {
	Sentences int
}

// Summary returns first sentences of the page text, or the excerpt
// if the text is empty.
func (e Extractive) Summary(_ context.Context, page Page) (string, error) {
	n := e.Sentences
	if n <= 0 {
		n = 5
	}

	sentences := splitSentences(page.Text)
	if len(sentences) == 0 {
		return page.Excerpt, nil
	}

	if len(sentences) > n {
		sentences = sentences[:n]
	}

	return strings.Join(sentences, " "), nil
}
