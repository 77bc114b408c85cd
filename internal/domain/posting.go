package domain

import (
	"time"
)

// Placeholders used when the listing markup is missing a field
const (
	NoTitle    = "No title"
	NoSalary   = "No salary"
	NoLocation = "No location"
	NoCategory = "No category"
	NoContent  = "No content"
	NoContact  = "No contact"
	NoLanguage = "No language"
)

// RawListingEntry is parsed from one anchor on an index page
type RawListingEntry struct {
	Title          string
	CreatedAtLabel string
	SalaryLabel    string
	DetailURL      string
	Region1        string
	Region2        string
	Category1      string
}

// RawDetailEntry is parsed from a detail page
type RawDetailEntry struct {
	Title                 string
	Content               string
	Tags                  []string
	Contact               string
	Language              string
	RegistrationLabel     string
	RegistrationTimestamp int64 // epoch seconds, 0 when the label could not be resolved
	PostID                string
	PageViews             string
}

// Posting is the reconciled record written to the posting store.
// Title is the natural dedup key.
type Posting struct {
	Title     string    `json:"title"`
	Contents  string    `json:"contents"`
	Region1   string    `json:"region1"`
	Region2   string    `json:"region2"`
	Category1 string    `json:"category1"`
	Category2 *string   `json:"category2,omitempty"`
	IsAd      bool      `json:"is_ad"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPosting combines a listing and its detail page into a Posting
func NewPosting(listing RawListingEntry, detail RawDetailEntry, isAd bool) Posting {
	return Posting{
		Title:     listing.Title,
		Contents:  detail.Content,
		Region1:   listing.Region1,
		Region2:   listing.Region2,
		Category1: listing.Category1,
		IsAd:      isAd,
		CreatedAt: time.Unix(detail.RegistrationTimestamp, 0).UTC(),
	}
}

// StopReason explains why a crawl run ended
type StopReason string

const (
	StopStale      StopReason = "stale_posting"
	StopEmptyPage  StopReason = "empty_batch"
	StopFetchError StopReason = "page_fetch_failed"
	StopMaxPages   StopReason = "max_pages"
)

// CrawlResult summarizes one crawl run
type CrawlResult struct {
	RunID     string     `json:"run_id"`
	Pages     int        `json:"pages"`
	Fetched   int        `json:"fetched"`
	Skipped   int        `json:"skipped"`
	Inserted  int        `json:"inserted"`
	Updated   int        `json:"updated"`
	Failed    int        `json:"failed"`
	Stop      StopReason `json:"stop_reason"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
}

// Duration returns the crawl duration
func (r *CrawlResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
