package crawler

import (
	"context"
	"fmt"

	"github.com/jobboard/crawler/internal/domain"
	"github.com/jobboard/crawler/internal/store"
)

// Reconcile writes p under its title: an existing posting with the same
// title is overwritten, otherwise p is inserted. Two different postings
// sharing a title therefore collapse into one row holding the later one.
func Reconcile(ctx context.Context, st store.PostingStore, p domain.Posting) (inserted bool, err error) {
	existing, err := st.FindByTitle(ctx, p.Title)
	if err != nil {
		return false, fmt.Errorf("find %q: %w", p.Title, err)
	}

	if existing != nil {
		if err := st.Update(ctx, p.Title, p); err != nil {
			return false, fmt.Errorf("update %q: %w", p.Title, err)
		}
		return false, nil
	}

	if err := st.Insert(ctx, p); err != nil {
		return false, fmt.Errorf("insert %q: %w", p.Title, err)
	}
	return true, nil
}
