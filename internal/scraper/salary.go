package scraper

import (
	"strings"
	"unicode/utf8"

	"github.com/jobboard/crawler/internal/domain"
)

// ExtractSalary pulls the salary out of the "【salary】 ..." text that follows
// a listing title. It keeps everything before the first "】" and drops the
// leading character. Text that does not follow the convention yields
// whatever that slicing produces.
func ExtractSalary(raw string) string {
	s := strings.TrimSpace(raw)
	first, _, _ := strings.Cut(s, "】")
	_, size := utf8.DecodeRuneInString(first)
	return first[size:]
}

// SplitLocation splits "Region Subregion - Category" into its parts.
// Missing pieces come back as placeholders.
func SplitLocation(text string) (region1, region2, category string) {
	location, rest, found := strings.Cut(text, "-")

	category = domain.NoCategory
	if found {
		if c := strings.TrimSpace(rest); c != "" {
			category = c
		}
	}

	tokens := strings.Fields(location)
	if len(tokens) == 0 {
		return domain.NoLocation, "", category
	}
	return tokens[0], strings.Join(tokens[1:], " "), category
}

// StripLabel removes a leading "label:" prefix such as "등록일: "
func StripLabel(s string) string {
	s = strings.TrimSpace(s)
	if label, rest, ok := strings.Cut(s, ":"); ok && !strings.ContainsAny(label, "0123456789") {
		return strings.TrimSpace(rest)
	}
	return s
}

// LabelValue returns the value after the first colon of "label: value"
func LabelValue(s string) string {
	_, value, ok := strings.Cut(s, ":")
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}
