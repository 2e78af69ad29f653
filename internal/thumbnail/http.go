package thumbnail

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// HTTPLoader fetches thumbnails over HTTP. Relative sources resolve against
// BaseURL. A response counts as a loaded image when it is 2xx and declares an
// image content type.
type HTTPLoader struct {
	Client  *http.Client
	BaseURL *url.URL
}

// NewHTTPLoader builds an HTTPLoader. baseURL may be empty, in which case
// only absolute sources can load.
func NewHTTPLoader(client *http.Client, baseURL string) (*HTTPLoader, error) {
	if client == nil {
		client = http.DefaultClient
	}
	loader := &HTTPLoader{Client: client}
	if strings.TrimSpace(baseURL) != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse thumbnail base url: %w", err)
		}
		loader.BaseURL = parsed
	}
	return loader, nil
}

// Resolve returns the absolute URL for src.
func (l *HTTPLoader) Resolve(src string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	if l.BaseURL == nil {
		return "", fmt.Errorf("relative thumbnail %q without base url", src)
	}
	return l.BaseURL.ResolveReference(ref).String(), nil
}

func (l *HTTPLoader) Load(ctx context.Context, src string) error {
	target, err := l.Resolve(src)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("thumbnail %s: status %d", target, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("thumbnail %s: content type %q", target, ct)
	}
	return nil
}
