package scraper

import (
	"strings"

	"github.com/jobboard/crawler/internal/config"
	"github.com/jobboard/crawler/internal/domain"
)

// DetailParser extracts the full posting from a detail page
type DetailParser struct {
	selectors config.Selectors
}

// NewDetailParser creates a detail parser
func NewDetailParser(selectors config.Selectors) *DetailParser {
	return &DetailParser{selectors: selectors}
}

// Parse reads the detail page. The registration label is returned raw;
// RegistrationTimestamp is left for the caller to resolve.
func (p *DetailParser) Parse(doc Element) domain.RawDetailEntry {
	entry := domain.RawDetailEntry{
		Title:    textOf(doc, p.selectors.DetailTitle, domain.NoTitle),
		Content:  textOf(doc, p.selectors.DetailContent, domain.NoContent),
		Contact:  textOf(doc, p.selectors.DetailContact, domain.NoContact),
		Language: textOf(doc, p.selectors.DetailLang, domain.NoLanguage),
		Tags:     []string{},
	}

	for _, tag := range doc.FindAll(p.selectors.DetailTag) {
		if text := strings.TrimSpace(tag.Text()); text != "" {
			entry.Tags = append(entry.Tags, text)
		}
	}

	// sub-title spans: registration date, post id, page views
	spans := doc.FindAll(p.selectors.DetailSubSpan)
	if len(spans) > 0 {
		entry.RegistrationLabel = StripLabel(spans[0].Text())
	}
	if len(spans) > 1 {
		entry.PostID = LabelValue(spans[1].Text())
	}
	if len(spans) > 2 {
		entry.PageViews = LabelValue(spans[2].Text())
	}

	return entry
}
