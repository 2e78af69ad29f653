package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Review source kinds.
const (
	SourceHTTP  = "http"
	SourceFile  = "file"
	SourceMongo = "mongo"
)

// JWTConfig defines issuer/secret pair for admin auth verification.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr      string
	LogLevel  string
	Timezone  string
	Title     string
	PublicDir string

	ReviewsSource       string
	ReviewsBaseURL      string
	ReviewsFile         string
	ReviewsFetchTimeout time.Duration
	ThumbnailBaseURL    string
	ThumbnailTimeout    time.Duration
	PageSize            int
	RecentWindow        time.Duration
	RememberFor         time.Duration
	GalleryPhotos       []string

	MongoURI                     string
	MongoDatabase                string
	MongoTimeout                 time.Duration
	ReviewCollection             string
	FeedbackCollection           string
	FailedNotificationCollection string

	VisitorSecret       []byte
	VisitorTTL          time.Duration
	VisitorIdle         time.Duration
	VisitorCookieSecure bool
	AdminJWT            *JWTConfig

	MessengerEndpoint    string
	MessengerDestination string
	MessengerTimeout     time.Duration

	AllowedOrigins []string
}

// MongoEnabled reports whether any component needs a database connection.
func (c Config) MongoEnabled() bool {
	return c.ReviewsSource == SourceMongo || strings.TrimSpace(c.MongoURI) != ""
}

// Load reads environment variables, falling back to the YAML file named by
// CONFIG_FILE and then to defaults.
func Load() (Config, error) {
	src := envSource{}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		file, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		src.file = file
	}
	return load(src)
}

func load(src envSource) (Config, error) {
	var errs []error
	duration := func(key string, fallback time.Duration) time.Duration {
		raw := src.get(key, "")
		if raw == "" {
			return fallback
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return fallback
		}
		return parsed
	}
	integer := func(key string, fallback int) int {
		raw := src.get(key, "")
		if raw == "" {
			return fallback
		}
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be a positive integer", key))
			return fallback
		}
		return parsed
	}

	cfg := Config{
		Addr:      src.get("HTTP_ADDR", ":8080"),
		LogLevel:  src.get("LOG_LEVEL", "info"),
		Timezone:  src.get("TIMEZONE", "UTC"),
		Title:     src.get("PRODUCT_TITLE", "Product"),
		PublicDir: src.get("PUBLIC_DIR", "public"),

		ReviewsSource:       strings.ToLower(src.get("REVIEWS_SOURCE", SourceFile)),
		ReviewsBaseURL:      src.get("REVIEWS_BASE_URL", ""),
		ReviewsFile:         src.get("REVIEWS_FILE", "data/reviews.json"),
		ReviewsFetchTimeout: duration("REVIEWS_FETCH_TIMEOUT", 10*time.Second),
		ThumbnailTimeout:    duration("THUMBNAIL_TIMEOUT", 10*time.Second),
		PageSize:            integer("REVIEWS_PAGE_SIZE", 3),
		RecentWindow:        time.Duration(integer("RECENT_WINDOW_DAYS", 183)) * 24 * time.Hour,
		RememberFor:         time.Duration(integer("REMEMBER_COOKIE_DAYS", 225)) * 24 * time.Hour,
		GalleryPhotos:       src.list("GALLERY_PHOTOS", defaultGalleryPhotos()),

		MongoURI:                     src.get("MONGO_URI", ""),
		MongoDatabase:                src.get("MONGO_DB", "product-page"),
		MongoTimeout:                 duration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		ReviewCollection:             src.get("REVIEW_COLLECTION", "reviews"),
		FeedbackCollection:           src.get("FEEDBACK_COLLECTION", "feedback"),
		FailedNotificationCollection: src.get("FAILED_NOTIFICATION_COLLECTION", "failed_notifications"),

		VisitorSecret:       []byte(src.get("VISITOR_SECRET", "")),
		VisitorTTL:          duration("VISITOR_TTL", 24*time.Hour),
		VisitorIdle:         duration("VISITOR_IDLE", 30*time.Minute),
		VisitorCookieSecure: strings.EqualFold(src.get("VISITOR_COOKIE_SECURE", "false"), "true"),

		MessengerEndpoint:    src.get("MESSENGER_GATEWAY_URL", ""),
		MessengerDestination: src.get("MESSENGER_GATEWAY_DESTINATION", "slack"),
		MessengerTimeout:     duration("MESSENGER_GATEWAY_TIMEOUT", 3*time.Second),

		AllowedOrigins: src.list("API_ALLOWED_ORIGINS", []string{"*"}),
	}
	cfg.ThumbnailBaseURL = src.get("THUMBNAIL_BASE_URL", cfg.ReviewsBaseURL)

	if secret := src.get("ADMIN_JWT_SECRET", ""); secret != "" {
		cfg.AdminJWT = &JWTConfig{
			Issuer: src.get("ADMIN_JWT_ISSUER", "product-page-admin"),
			Secret: []byte(secret),
		}
	}

	switch cfg.ReviewsSource {
	case SourceHTTP:
		if cfg.ReviewsBaseURL == "" {
			errs = append(errs, errors.New("REVIEWS_BASE_URL is required when REVIEWS_SOURCE=http"))
		}
	case SourceFile:
	case SourceMongo:
		if cfg.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when REVIEWS_SOURCE=mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("REVIEWS_SOURCE: unknown source %q", cfg.ReviewsSource))
	}
	if len(cfg.VisitorSecret) == 0 {
		errs = append(errs, errors.New("VISITOR_SECRET must be configured"))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultGalleryPhotos() []string {
	return []string{
		"img/screenshots/1.png",
		"img/screenshots/2.png",
		"img/screenshots/3.png",
		"img/screenshots/4.png",
		"img/screenshots/5.png",
		"img/screenshots/6.png",
	}
}

// envSource resolves a key from the environment first and the YAML overlay
// second.
type envSource struct {
	file map[string]any
	env  func(string) string
}

func (s envSource) lookupEnv(key string) string {
	if s.env != nil {
		return s.env(key)
	}
	return os.Getenv(key)
}

func (s envSource) get(key, fallback string) string {
	if v := strings.TrimSpace(s.lookupEnv(key)); v != "" {
		return v
	}
	if v, ok := s.file[key]; ok {
		switch typed := v.(type) {
		case []any:
			parts := make([]string, 0, len(typed))
			for _, item := range typed {
				parts = append(parts, fmt.Sprint(item))
			}
			return strings.Join(parts, ",")
		case nil:
		default:
			if str := strings.TrimSpace(fmt.Sprint(typed)); str != "" {
				return str
			}
		}
	}
	return fallback
}

func (s envSource) list(key string, fallback []string) []string {
	raw := s.get(key, "")
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return values, nil
}
