// Package memory holds in-process repositories used when no database is
// configured and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/sngm3741/product-page/internal/public/domain"
)

// FeedbackRepository keeps submissions in memory.
type FeedbackRepository struct {
	mu    sync.RWMutex
	items []domain.Feedback
}

// NewFeedbackRepository returns an empty repository.
func NewFeedbackRepository() *FeedbackRepository {
	return &FeedbackRepository{}
}

func (r *FeedbackRepository) Create(_ context.Context, feedback *domain.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *feedback)
	return nil
}

// List returns up to limit submissions, newest first.
func (r *FeedbackRepository) List(_ context.Context, limit int) ([]domain.Feedback, error) {
	r.mu.RLock()
	out := append([]domain.Feedback(nil), r.items...)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
