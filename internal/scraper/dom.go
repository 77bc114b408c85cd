package scraper

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Element is the narrow view of a parsed HTML tree the parsers rely on.
// A Document is the root Element.
type Element interface {
	// Find returns the first descendant matching selector
	Find(selector string) (Element, bool)

	// FindAll returns every descendant matching selector in document order
	FindAll(selector string) []Element

	// Text returns the combined text of the element and its descendants
	Text() string

	// Attr returns the named attribute
	Attr(name string) (string, bool)

	// ChildTexts returns the raw data of the direct children that are not elements
	ChildTexts() []string
}

type selection struct {
	s *goquery.Selection
}

// NewDocument parses an HTML document
func NewDocument(r io.Reader) (Element, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return selection{s: doc.Selection}, nil
}

// NewDocumentFromString parses an HTML string
func NewDocumentFromString(s string) (Element, error) {
	return NewDocument(strings.NewReader(s))
}

func (e selection) Find(selector string) (Element, bool) {
	m := e.s.Find(selector).First()
	if m.Length() == 0 {
		return nil, false
	}
	return selection{s: m}, true
}

func (e selection) FindAll(selector string) []Element {
	matches := e.s.Find(selector)
	out := make([]Element, 0, matches.Length())
	matches.Each(func(_ int, m *goquery.Selection) {
		out = append(out, selection{s: m})
	})
	return out
}

func (e selection) Text() string {
	return e.s.Text()
}

func (e selection) Attr(name string) (string, bool) {
	return e.s.First().Attr(name)
}

func (e selection) ChildTexts() []string {
	var out []string
	e.s.First().Contents().Each(func(_ int, c *goquery.Selection) {
		if n := c.Get(0); n != nil && n.Type != html.ElementNode {
			out = append(out, n.Data)
		}
	})
	return out
}

// textOf returns the trimmed text of the first match, or fallback
func textOf(root Element, selector, fallback string) string {
	el, ok := root.Find(selector)
	if !ok {
		return fallback
	}
	if text := strings.TrimSpace(el.Text()); text != "" {
		return text
	}
	return fallback
}
