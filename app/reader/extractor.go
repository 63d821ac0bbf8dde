package reader

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-shiori/go-readability"
)

// Page is a readable content of the article page.
type Page struct {
	URL      string
	Title    string
	Byline   string
	Excerpt  string
	Text     string
	ImageURL string
	SiteName string
}

// Extractor extracts readable content from an HTML page.
type Extractor struct{}

// Extract extracts the page content, pageURL is used to resolve relative links.
func (e Extractor) Extract(rd io.Reader, pageURL string) (Page, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Page{}, fmt.Errorf("parse page url: %w", err)
	}

	doc, err := readability.FromReader(rd, u)
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}

	return Page{
		URL:      pageURL,
		Title:    strings.TrimSpace(doc.Title),
		Byline:   strings.TrimSpace(doc.Byline),
		Excerpt:  strings.TrimSpace(doc.Excerpt),
		Text:     sanitize(doc.TextContent),
		ImageURL: doc.Image,
		SiteName: doc.SiteName,
	}, nil
}

var spaces = regexp.MustCompile(`\s+`)

func sanitize(s string) string {
	// nbsp
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

// splitSentences splits the text into sentences by terminal punctuation
// followed by a space and an upper-case letter, digit or quote.
func splitSentences(text string) []string {
	text = sanitize(text)
	runes := []rune(text)

	var res []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if !strings.ContainsRune(".!?", runes[i]) {
			continue
		}

		// swallow closing quotes and repeated punctuation
		end := i + 1
		for end < len(runes) && strings.ContainsRune(".!?\"'”’)", runes[end]) {
			end++
		}

		if end < len(runes) && (runes[end] != ' ' || end+1 >= len(runes) || !sentenceStart(runes[end+1])) {
			i = end - 1
			continue
		}

		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			res = append(res, s)
		}
		start, i = end, end-1
	}

	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		res = append(res, s)
	}

	return res
}

func sentenceStart(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsDigit(r) || strings.ContainsRune("\"'“‘", r)
}
