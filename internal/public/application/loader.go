package application

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/sngm3741/product-page/internal/public/domain"
)

// LoadStatus reports where the one-shot review fetch stands.
type LoadStatus int

const (
	StatusIdle LoadStatus = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s LoadStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	}
	return "idle"
}

// ErrLoadFailed wraps every error coming out of the review source.
var ErrLoadFailed = errors.New("reviews failed to load")

// Loader performs exactly one fetch against its source and remembers the
// outcome. A failed fetch is never retried.
type Loader struct {
	source ReviewSource
	logger *zap.Logger
	policy *bluemonday.Policy

	once    sync.Once
	mu      sync.RWMutex
	status  LoadStatus
	records []domain.Review
	err     error
}

// NewLoader wraps source.
func NewLoader(source ReviewSource, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		source: source,
		logger: logger,
		policy: bluemonday.StrictPolicy(),
	}
}

// Reviews returns the loaded records, fetching them on first use. Concurrent
// callers wait for the same fetch. The slice is shared and must not be
// modified.
func (l *Loader) Reviews(ctx context.Context) ([]domain.Review, error) {
	l.once.Do(func() {
		l.setStatus(StatusLoading)
		// the fetch outlives the request that happened to trigger it
		records, err := l.source.Load(context.WithoutCancel(ctx))

		l.mu.Lock()
		defer l.mu.Unlock()
		if err != nil {
			l.status = StatusFailed
			l.err = fmt.Errorf("%w: %w", ErrLoadFailed, err)
			l.logger.Error("review load failed", zap.Error(err))
			return
		}
		l.records = l.sanitize(records)
		l.status = StatusLoaded
		l.logger.Info("reviews loaded", zap.Int("count", len(l.records)))
	})

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.records, l.err
}

// Prefetch starts the fetch in the background if it has not started yet.
func (l *Loader) Prefetch(ctx context.Context) {
	if l.Status() != StatusIdle {
		return
	}
	go func() { _, _ = l.Reviews(ctx) }()
}

// Status reports the current load state without triggering a fetch.
func (l *Loader) Status() LoadStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

func (l *Loader) setStatus(status LoadStatus) {
	l.mu.Lock()
	l.status = status
	l.mu.Unlock()
}

// sanitize strips markup from text fields; reviews are rendered as text only.
// The policy escapes what it keeps, so the result is unescaped again for the
// templates to escape once.
func (l *Loader) sanitize(records []domain.Review) []domain.Review {
	out := make([]domain.Review, len(records))
	for i, r := range records {
		r.Description = l.plainText(r.Description)
		r.Author.Name = l.plainText(r.Author.Name)
		r.Author.Picture = strings.TrimSpace(r.Author.Picture)
		out[i] = r
	}
	return out
}

func (l *Loader) plainText(value string) string {
	return strings.TrimSpace(html.UnescapeString(l.policy.Sanitize(value)))
}
