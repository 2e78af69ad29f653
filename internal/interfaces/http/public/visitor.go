package public

import (
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/sngm3741/product-page/internal/gallery"
	"github.com/sngm3741/product-page/internal/public/application"
	"github.com/sngm3741/product-page/internal/public/domain"
)

// visitorState is the page state of one visitor. The feed is replaced on
// every full page load; the gallery lives as long as the visitor.
type visitorState struct {
	mu      sync.Mutex
	feed    *application.Feed
	gallery *gallery.Gallery
}

func (h *Handler) newVisitorState(string) *visitorState {
	return &visitorState{gallery: gallery.New(h.photos)}
}

// visitor resolves the visitor of r, issuing a cookie for new visitors.
func (h *Handler) visitor(w http.ResponseWriter, r *http.Request) (*visitorState, error) {
	id, fresh, err := h.issuer.Ensure(w, r)
	if err != nil {
		return nil, err
	}
	if fresh {
		h.logger.Debug("visitor issued", zap.String("visitor", id))
	}
	return h.visitors.Get(id), nil
}

// resetFeed starts a new page life on the default filter.
func (s *visitorState) resetFeed(records []domain.Review, opts application.FeedOptions) *application.Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feed = application.NewFeed(records, opts)
	return s.feed
}

// currentFeed returns the feed, creating one when the page was rendered
// before the records arrived. created reports whether a new feed was made.
func (s *visitorState) currentFeed(records []domain.Review, opts application.FeedOptions) (feed *application.Feed, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.feed == nil {
		s.feed = application.NewFeed(records, opts)
		return s.feed, true
	}
	return s.feed, false
}

func (s *visitorState) existingFeed() *application.Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feed
}

func (s *visitorState) dropFeed() {
	s.mu.Lock()
	s.feed = nil
	s.mu.Unlock()
}
