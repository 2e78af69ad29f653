package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sngm3741/product-page/internal/public/domain"
)

// DefaultFetchTimeout bounds the single data request.
const DefaultFetchTimeout = 10 * time.Second

// HTTPSource issues one GET to DataPath under its base URL per Load call.
// It never retries; the data loader calls it at most once.
type HTTPSource struct {
	client   *http.Client
	endpoint string
	timeout  time.Duration
}

// NewHTTPSource resolves DataPath against baseURL. timeout bounds every Load
// whatever client is passed; a nil client gets a default one.
func NewHTTPSource(client *http.Client, baseURL string, timeout time.Duration) (*HTTPSource, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("review base url %q must be absolute", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if client == nil {
		client = &http.Client{}
	}
	ref := &url.URL{Path: DataPath}
	return &HTTPSource{
		client:   client,
		endpoint: base.ResolveReference(ref).String(),
		timeout:  timeout,
	}, nil
}

// Endpoint returns the resolved data URL.
func (s *HTTPSource) Endpoint() string { return s.endpoint }

func (s *HTTPSource) Load(ctx context.Context) ([]domain.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch reviews: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("fetch reviews: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return Decode(resp.Body)
}

// FileSource reads the data file from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Load(_ context.Context) ([]domain.Review, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open review data: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
