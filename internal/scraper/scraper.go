package scraper

import (
	"context"
	"errors"
	"fmt"
)

// Fetcher retrieves a page and returns its parsed document
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Element, error)
}

// ErrFetch marks every failure to retrieve or decode a page
var ErrFetch = errors.New("fetch failed")

var errUnexpectedStatus = errors.New("unexpected status")

// FetchError describes a failed page fetch
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is makes every FetchError match ErrFetch
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}
