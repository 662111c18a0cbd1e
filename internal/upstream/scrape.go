package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"

	"github.com/aurwatch/aurwatch/internal/version"
)

var (
	// ErrNoElementFound is returned when no element matches the selector
	// or XPath expression
	ErrNoElementFound = errors.New("no element found matching selector")
	// ErrScrapeNoMatch is returned when the capture pattern does not match
	// the fetched text
	ErrScrapeNoMatch = errors.New("scrape pattern did not match")
	// ErrNoSelectorOrXPath is returned when an html source configures
	// neither extraction method
	ErrNoSelectorOrXPath = errors.New("either selector or xpath must be provided")
)

// whitespaceRuns collapses line breaks and whitespace runs before pattern
// matching, so patterns work against sloppily formatted pages
var whitespaceRuns = regexp.MustCompile(`\s+`)

// HTMLSource resolves a version by extracting text from an HTML page via
// a CSS selector or an XPath expression, with optional regex
// post-extraction on the element text.
type HTMLSource struct {
	URL      string
	Selector string // CSS selector (preferred when both are set)
	XPath    string // XPath expression
	Pattern  string // optional capture pattern applied to the element text
}

// Name returns the strategy name for diagnostics.
func (s *HTMLSource) Name() string { return "html" }

// Fetch downloads the page and extracts the version text.
func (s *HTMLSource) Fetch(ctx context.Context, c *Client) (string, error) {
	if s.Selector == "" && s.XPath == "" {
		return "", ErrNoSelectorOrXPath
	}

	body, err := c.getBody(ctx, s.URL, false)
	if err != nil {
		return "", err
	}

	var text string
	if s.Selector != "" {
		text, err = extractCSS(body, s.Selector)
	} else {
		text, err = extractXPath(body, s.XPath)
	}
	if err != nil {
		return "", err
	}

	if s.Pattern != "" {
		text, err = applyCapture(text, s.Pattern)
		if err != nil {
			return "", err
		}
	}

	return strings.TrimSpace(text), nil
}

// extractCSS returns the text of the first element matching a CSS selector.
func extractCSS(body []byte, selector string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	selection := doc.Find(selector)
	if selection.Length() == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoElementFound, selector)
	}

	return selection.First().Text(), nil
}

// extractXPath returns the text of the first node matching an XPath
// expression.
func extractXPath(body []byte, xpath string) (string, error) {
	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	nodes, err := htmlquery.QueryAll(doc, xpath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", version.ErrInvalidPattern, err)
	}
	if len(nodes) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoElementFound, xpath)
	}

	return htmlquery.InnerText(nodes[0]), nil
}

// TextSource resolves a version by scraping free-form text: whitespace and
// line breaks are collapsed before the capture pattern is applied, so the
// pattern does not need to anticipate the page's line wrapping.
type TextSource struct {
	URL     string
	Pattern string
}

// Name returns the strategy name for diagnostics.
func (s *TextSource) Name() string { return "text" }

// Fetch downloads the document and applies the capture pattern to the
// whitespace-collapsed text.
func (s *TextSource) Fetch(ctx context.Context, c *Client) (string, error) {
	body, err := c.getBody(ctx, s.URL, false)
	if err != nil {
		return "", err
	}

	text := whitespaceRuns.ReplaceAllString(string(body), " ")
	return applyCapture(text, s.Pattern)
}

// applyCapture applies a capture pattern and returns the first group, or
// the whole match when the pattern has no groups.
func applyCapture(text, pattern string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("%w: %v", version.ErrInvalidPattern, err)
	}

	matches := re.FindStringSubmatch(text)
	if matches == nil {
		return "", fmt.Errorf("%w: %q", ErrScrapeNoMatch, pattern)
	}
	if len(matches) > 1 && matches[1] != "" {
		return matches[1], nil
	}
	return matches[0], nil
}
