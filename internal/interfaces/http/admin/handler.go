package admin

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sngm3741/product-page/internal/public/application"
)

// Handler wires admin HTTP endpoints to application services.
type Handler struct {
	logger          *zap.Logger
	feedbackQueries application.FeedbackQueryService
}

// Config provides dependencies for Handler.
type Config struct {
	Logger          *zap.Logger
	FeedbackQueries application.FeedbackQueryService
}

// NewHandler constructs an admin HTTP handler set.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Handler{
		logger:          cfg.Logger,
		feedbackQueries: cfg.FeedbackQueries,
	}
}

// Register mounts admin routes onto router. Routes are expected to sit
// behind the bearer token middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/auth/verify", h.authVerifyHandler())
	r.Get("/feedback", h.feedbackListHandler())
}
