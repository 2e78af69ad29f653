package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/sngm3741/product-page/internal/config"
	"github.com/sngm3741/product-page/internal/gallery"
	"github.com/sngm3741/product-page/internal/infrastructure/feed"
	"github.com/sngm3741/product-page/internal/infrastructure/memory"
	mongodoc "github.com/sngm3741/product-page/internal/infrastructure/mongo"
	adminhttp "github.com/sngm3741/product-page/internal/interfaces/http/admin"
	commonhttp "github.com/sngm3741/product-page/internal/interfaces/http/common"
	publichttp "github.com/sngm3741/product-page/internal/interfaces/http/public"
	"github.com/sngm3741/product-page/internal/observability"
	publicapp "github.com/sngm3741/product-page/internal/public/application"
	"github.com/sngm3741/product-page/internal/render"
	"github.com/sngm3741/product-page/internal/session"
	"github.com/sngm3741/product-page/internal/thumbnail"
)

const sweepInterval = time.Minute

// Server owns the HTTP lifecycle and is the composition root wiring the
// review pipeline, gallery and feedback form into the router.
type Server struct {
	logger         *zap.Logger
	client         *mongo.Client
	loader         *publicapp.Loader
	public         *publichttp.Handler
	admin          *adminhttp.Handler
	adminJWT       *config.JWTConfig
	publicDir      string
	addr           string
	allowedOrigins []string
	now            func() time.Time
}

type authenticatedUser = commonhttp.AuthenticatedUser

// New assembles the application services and handlers. client may be nil
// when no component is configured to use MongoDB.
func New(cfg config.Config, logger *zap.Logger, client *mongo.Client) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReviewsSource == config.SourceMongo && client == nil {
		return nil, errors.New("mongo review source requires a client")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("timezone could not be loaded, using UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		loc = time.UTC
	}
	now := func() time.Time { return time.Now().In(loc) }

	var db *mongo.Database
	if client != nil {
		db = client.Database(cfg.MongoDatabase)
	}

	source, dataFile, err := reviewSource(cfg, db)
	if err != nil {
		return nil, err
	}
	loader := publicapp.NewLoader(source, logger.Named("loader"))

	racer, err := thumbnailRacer(cfg, logger.Named("thumbnail"))
	if err != nil {
		return nil, err
	}
	renderer, err := render.New(racer, logger.Named("render"))
	if err != nil {
		return nil, err
	}

	issuer, err := session.NewIssuer(cfg.VisitorSecret, cfg.VisitorTTL, cfg.VisitorCookieSecure)
	if err != nil {
		return nil, err
	}

	var feedbackRepo publicapp.FeedbackRepository = memory.NewFeedbackRepository()
	var failedNotifications publichttp.NotificationFailureStore
	if db != nil {
		feedbackRepo = mongodoc.NewFeedbackRepository(db, cfg.FeedbackCollection)
		failedNotifications = mongodoc.NewNotificationFailureRepository(db, cfg.FailedNotificationCollection)
	}

	srv := &Server{
		logger:         logger,
		client:         client,
		loader:         loader,
		adminJWT:       cfg.AdminJWT,
		publicDir:      strings.TrimSpace(cfg.PublicDir),
		addr:           cfg.Addr,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
		now:            now,
	}
	srv.public = publichttp.NewHandler(publichttp.Config{
		Logger:               logger.Named("public"),
		Title:                cfg.Title,
		Loader:               loader,
		Renderer:             renderer,
		Issuer:               issuer,
		VisitorIdle:          cfg.VisitorIdle,
		Photos:               gallery.PhotosFromSources(cfg.GalleryPhotos),
		PageSize:             cfg.PageSize,
		RecentWindow:         cfg.RecentWindow,
		FeedbackCommands:     publicapp.NewFeedbackCommandService(feedbackRepo),
		RememberFor:          cfg.RememberFor,
		DataFile:             dataFile,
		Now:                  now,
		HTTPClient:           &http.Client{Timeout: cfg.MessengerTimeout},
		MessengerEndpoint:    normaliseBaseURL(cfg.MessengerEndpoint),
		MessengerDestination: cfg.MessengerDestination,
		FailedNotifications:  failedNotifications,
	})
	srv.admin = adminhttp.NewHandler(adminhttp.Config{
		Logger:          logger.Named("admin"),
		FeedbackQueries: publicapp.NewFeedbackQueryService(feedbackRepo),
	})
	return srv, nil
}

// reviewSource picks the data file source. The returned path is served at
// the data path when the records come from disk.
func reviewSource(cfg config.Config, db *mongo.Database) (publicapp.ReviewSource, string, error) {
	switch cfg.ReviewsSource {
	case config.SourceHTTP:
		src, err := feed.NewHTTPSource(nil, cfg.ReviewsBaseURL, cfg.ReviewsFetchTimeout)
		if err != nil {
			return nil, "", err
		}
		return src, "", nil
	case config.SourceMongo:
		return mongodoc.NewReviewRepository(db, cfg.ReviewCollection), "", nil
	default:
		return feed.FileSource{Path: cfg.ReviewsFile}, cfg.ReviewsFile, nil
	}
}

// thumbnailRacer fetches author pictures over HTTP when a base URL is known
// and against the public directory otherwise.
func thumbnailRacer(cfg config.Config, logger *zap.Logger) (*thumbnail.Racer, error) {
	remote, err := thumbnail.NewHTTPLoader(&http.Client{}, cfg.ThumbnailBaseURL)
	if err != nil {
		return nil, err
	}
	var loader thumbnail.ImageLoader = remote
	if strings.TrimSpace(cfg.ThumbnailBaseURL) == "" {
		loader = thumbnail.DirLoader{Root: cfg.PublicDir, Remote: remote}
	}
	return thumbnail.NewRacer(loader, cfg.ThumbnailTimeout, logger), nil
}

// Router builds the HTTP handler with middleware and all routes mounted.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(observability.RequestLogger(s.logger.Named("http")))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())
	if s.publicDir != "" {
		for _, dir := range []string{"assets", "img"} {
			prefix := "/" + dir + "/"
			files := http.FileServer(http.Dir(filepath.Join(s.publicDir, dir)))
			router.Handle(prefix+"*", http.StripPrefix(prefix, files))
		}
	}
	s.public.Register(router)
	router.Route("/admin", func(r chi.Router) {
		r.Use(s.authMiddleware)
		s.admin.Register(r)
	})
	return router
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go s.sweepVisitors(sweepCtx, sweepInterval)

	// the first visitor should not wait for the data file
	s.loader.Prefetch(context.Background())

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("http server started", zap.String("addr", s.addr))
		errChan <- httpServer.ListenAndServe()
	}()

	return waitForShutdown(httpServer, errChan, s)
}

func (s *Server) sweepVisitors(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.public.SweepVisitors(); n > 0 {
				s.logger.Debug("idle visitors dropped", zap.Int("count", n))
			}
		}
	}
}

// normaliseBaseURL trims input and drops the trailing slash.
func normaliseBaseURL(input string) string {
	trimmed := strings.TrimSpace(input)
	return strings.TrimRight(trimmed, "/")
}

// withCORS returns middleware adding CORS headers for the allowed origins.
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type,HX-Request")
			w.Header().Set("Access-Control-Expose-Headers", "X-More-Available")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// originAllowed reports whether origin is in the allow list.
func originAllowed(origin string, allowed map[string]struct{}) bool {
	_, ok := allowed[origin]
	return ok
}

// healthHandler reports the review loader state, the stored visitor count
// and, when configured, the MongoDB connection.
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]string{
			"status":   "ok",
			"reviews":  s.loader.Status().String(),
			"visitors": strconv.Itoa(s.public.ActiveVisitors()),
			"time":     s.now().Format(time.RFC3339),
		}
		if s.client != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
				body["status"] = "degraded"
				body["error"] = err.Error()
				commonhttp.WriteJSON(s.logger, w, http.StatusServiceUnavailable, body)
				return
			}
		}
		commonhttp.WriteJSON(s.logger, w, http.StatusOK, body)
	}
}

// authMiddleware verifies the bearer token and stores the admin principal in
// the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if authHeader == "" {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, "authorization header is missing")
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, "bearer token is required")
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if tokenString == "" {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, "access token is empty")
			return
		}

		claims, err := s.parseAuthToken(tokenString)
		if err != nil {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, err.Error())
			return
		}

		user := authenticatedUser{
			ID:     claims.Subject,
			Name:   claims.Name,
			Issuer: claims.Issuer,
		}
		ctx := commonhttp.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseAuthToken checks the signature, issuer and time claims of an admin
// token.
func (s *Server) parseAuthToken(tokenString string) (*authClaims, error) {
	if s.adminJWT == nil || len(s.adminJWT.Secret) == 0 {
		return nil, errors.New("admin authentication is not configured")
	}

	claims := &authClaims{}
	opts := []jwt.ParserOption{
		jwt.WithLeeway(30 * time.Second),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.adminJWT.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.adminJWT.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.adminJWT.Secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, errors.New("access token is invalid")
	}
	if claims.Subject == "" {
		return nil, errors.New("access token has no subject")
	}
	return claims, nil
}

type authClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// shutdown disconnects MongoDB with a timeout.
func (s *Server) shutdown(ctx context.Context) {
	if s.client == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(shutdownCtx); err != nil {
		s.logger.Warn("mongodb disconnect failed", zap.Error(err))
	}
}

// waitForShutdown watches ListenAndServe and OS signals for a graceful stop.
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("http server stopped: %w", err)
		}
	case sig := <-sigChan:
		srv.logger.Info("signal received, shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Warn("http server shutdown failed", zap.Error(err))
		}
	}

	srv.shutdown(context.Background())
	return runErr
}
