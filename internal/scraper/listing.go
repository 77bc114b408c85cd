package scraper

import (
	"strings"

	"github.com/jobboard/crawler/internal/config"
	"github.com/jobboard/crawler/internal/domain"
)

// ListingParser extracts the compact record carried by one index-page anchor
type ListingParser struct {
	baseURL   string
	selectors config.Selectors
}

// NewListingParser creates a listing parser resolving hrefs against baseURL
func NewListingParser(baseURL string, selectors config.Selectors) *ListingParser {
	return &ListingParser{
		baseURL:   strings.TrimRight(baseURL, "/"),
		selectors: selectors,
	}
}

// Parse never fails: missing fields come back as placeholders
func (p *ListingParser) Parse(anchor Element) domain.RawListingEntry {
	entry := domain.RawListingEntry{
		Title:          textOf(anchor, p.selectors.Title, domain.NoTitle),
		CreatedAtLabel: textOf(anchor, p.selectors.CreatedAt, ""),
		SalaryLabel:    domain.NoSalary,
	}

	if block, ok := anchor.Find(p.selectors.TitleBlock); ok {
		if texts := block.ChildTexts(); len(texts) > 1 {
			entry.SalaryLabel = ExtractSalary(texts[1])
		}
	}

	if href, ok := anchor.Attr("href"); ok {
		entry.DetailURL = p.resolve(strings.TrimSpace(href))
	}

	entry.Region1, entry.Region2, entry.Category1 = SplitLocation(textOf(anchor, p.selectors.Muted, ""))

	return entry
}

func (p *ListingParser) resolve(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return p.baseURL + href
}
