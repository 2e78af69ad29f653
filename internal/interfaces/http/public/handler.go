package public

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sngm3741/product-page/internal/form"
	"github.com/sngm3741/product-page/internal/public/application"
	"github.com/sngm3741/product-page/internal/public/domain"
	"github.com/sngm3741/product-page/internal/render"
	"github.com/sngm3741/product-page/internal/session"
)

// NotificationFailureStore keeps notifications the messenger gateway did not
// accept.
type NotificationFailureStore interface {
	Record(ctx context.Context, target string, payload map[string]any, cause error, attempts int) error
}

// Handler wires the product page endpoints to the review pipeline, the
// gallery and the feedback form.
type Handler struct {
	logger           *zap.Logger
	title            string
	loader           *application.Loader
	renderer         *render.Renderer
	issuer           *session.Issuer
	visitors         *session.Registry[*visitorState]
	photos           []domain.Photo
	feedOptions      application.FeedOptions
	feedbackCommands application.FeedbackCommandService
	rememberFor      time.Duration
	dataFile         string
	now              func() time.Time

	httpClient           *http.Client
	messengerEndpoint    string
	messengerDestination string
	failedNotifications  NotificationFailureStore
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger           *zap.Logger
	Title            string
	Loader           *application.Loader
	Renderer         *render.Renderer
	Issuer           *session.Issuer
	VisitorIdle      time.Duration
	Photos           []domain.Photo
	PageSize         int
	RecentWindow     time.Duration
	FeedbackCommands application.FeedbackCommandService
	RememberFor      time.Duration
	// DataFile is served at the data path when set; otherwise the loaded
	// records are encoded.
	DataFile string
	Now      func() time.Time

	HTTPClient           *http.Client
	MessengerEndpoint    string
	MessengerDestination string
	FailedNotifications  NotificationFailureStore
}

// NewHandler constructs the public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.RememberFor <= 0 {
		cfg.RememberFor = form.DefaultRememberFor
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 3 * time.Second}
	}
	if cfg.Title == "" {
		cfg.Title = "Product"
	}
	h := &Handler{
		logger:   cfg.Logger,
		title:    cfg.Title,
		loader:   cfg.Loader,
		renderer: cfg.Renderer,
		issuer:   cfg.Issuer,
		photos:   cfg.Photos,
		feedOptions: application.FeedOptions{
			PageSize:     cfg.PageSize,
			RecentWindow: cfg.RecentWindow,
			Now:          cfg.Now,
		},
		feedbackCommands:     cfg.FeedbackCommands,
		rememberFor:          cfg.RememberFor,
		dataFile:             cfg.DataFile,
		now:                  cfg.Now,
		httpClient:           cfg.HTTPClient,
		messengerEndpoint:    cfg.MessengerEndpoint,
		messengerDestination: cfg.MessengerDestination,
		failedNotifications:  cfg.FailedNotifications,
	}
	h.visitors = session.NewRegistry(cfg.VisitorIdle, h.newVisitorState)
	return h
}

// Register mounts all public routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.pageHandler())
	r.Get("/photo/*", h.photoPageHandler())
	r.Get("/reviews", h.reviewFilterHandler())
	r.Get("/reviews/more", h.reviewMoreHandler())
	r.Get("/api/reviews", h.reviewAPIHandler())
	r.Get("/data/reviews.json", h.reviewDataHandler())
	r.Get("/gallery", h.galleryHandler())
	r.Get("/gallery/photo/*", h.galleryPhotoHandler())
	r.Post("/gallery/events/{event}", h.galleryEventHandler())
	r.Post("/feedback/validate", h.feedbackValidateHandler())
	r.Post("/feedback", h.feedbackSubmitHandler())
}

// SweepVisitors drops idle visitor state and returns how many were removed.
func (h *Handler) SweepVisitors() int {
	return h.visitors.Sweep()
}

// ActiveVisitors counts stored visitor state, including entries not yet swept.
func (h *Handler) ActiveVisitors() int {
	return h.visitors.Len()
}
