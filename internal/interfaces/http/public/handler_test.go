package public

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/product-page/internal/gallery"
	"github.com/sngm3741/product-page/internal/infrastructure/memory"
	"github.com/sngm3741/product-page/internal/public/application"
	"github.com/sngm3741/product-page/internal/public/domain"
	"github.com/sngm3741/product-page/internal/render"
	"github.com/sngm3741/product-page/internal/session"
)

var testNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

type sourceFunc func(ctx context.Context) ([]domain.Review, error)

func (f sourceFunc) Load(ctx context.Context) ([]domain.Review, error) { return f(ctx) }

func staticSource(records []domain.Review) sourceFunc {
	return func(context.Context) ([]domain.Review, error) { return records, nil }
}

func testRecords() []domain.Review {
	day := 24 * time.Hour
	return []domain.Review{
		{Description: "one", Rating: 1, Date: testNow.Add(-10 * day), Author: domain.Author{Name: "a"}, Popularity: 5},
		{Description: "five", Rating: 5, Date: testNow.Add(-2 * day), Author: domain.Author{Name: "b"}, Popularity: 1},
		{Description: "three", Rating: 3, Date: testNow.Add(-300 * day), Author: domain.Author{Name: "c"}, Popularity: 9},
		{Description: "two", Rating: 2, Date: testNow.Add(-1 * day), Author: domain.Author{Name: "d"}, Popularity: 2},
		{Description: "four", Rating: 4, Date: testNow.Add(-5 * day), Author: domain.Author{Name: "e"}, Popularity: 7},
	}
}

type testEnv struct {
	server   *httptest.Server
	client   *http.Client
	loader   *application.Loader
	feedback *memory.FeedbackRepository
	handler  *Handler
}

type envOption func(*Config)

func newTestEnv(t *testing.T, source application.ReviewSource, preload bool, opts ...envOption) *testEnv {
	t.Helper()
	loader := application.NewLoader(source, nil)
	if preload {
		_, _ = loader.Reviews(context.Background())
	}
	renderer, err := render.New(nil, nil)
	require.NoError(t, err)
	issuer, err := session.NewIssuer([]byte("visitor-secret"), time.Hour, false)
	require.NoError(t, err)
	repo := memory.NewFeedbackRepository()

	cfg := Config{
		Title:            "Test Product",
		Loader:           loader,
		Renderer:         renderer,
		Issuer:           issuer,
		VisitorIdle:      time.Hour,
		Photos:           gallery.PhotosFromSources([]string{"img/1.png", "img/2.png", "img/3.png"}),
		PageSize:         3,
		FeedbackCommands: application.NewFeedbackCommandService(repo),
		Now:              func() time.Time { return testNow },
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	h := NewHandler(cfg)
	router := chi.NewRouter()
	h.Register(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testEnv{server: srv, client: client, loader: loader, feedback: repo, handler: h}
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, body)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	return e.do(t, http.MethodGet, path, nil, nil)
}

func (e *testEnv) getJSON(t *testing.T, path string, out any) *http.Response {
	resp := e.do(t, http.MethodGet, path, nil, http.Header{"Accept": {"application/json"}})
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (e *testEnv) postForm(t *testing.T, path string, values url.Values, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, http.MethodPost, path, strings.NewReader(values.Encode()), header)
}

func document(t *testing.T, resp *http.Response) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return doc
}

func texts(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, s.Find(".review-text").Text())
	})
	return out
}

func TestPageRendersFirstPageOfAll(t *testing.T) {
	env := newTestEnv(t, staticSource(testRecords()), true)

	resp := env.get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := document(t, resp)

	require.Equal(t, []string{"one", "five", "three"}, texts(doc.Find(".reviews-list .review")))
	require.False(t, doc.Find(".reviews-controls-more").HasClass("invisible"))
	require.Equal(t, 1, doc.Find("#reviews-all[checked]").Length())
	require.True(t, doc.Find(".overlay-gallery").HasClass("invisible"))
	require.Equal(t, 3, doc.Find(".photogallery img").Length())
	_, disabled := doc.Find(".review-submit").Attr("disabled")
	require.True(t, disabled)
}

func TestSelectingActiveFilterIsNoop(t *testing.T) {
	env := newTestEnv(t, staticSource(testRecords()), true)
	env.get(t, "/")

	resp := env.get(t, "/reviews?filter=all")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "true", resp.Header.Get(moreHeader))

	resp = env.get(t, "/reviews?filter=reviews-good")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := document(t, resp)
	require.Equal(t, []string{"five", "four", "three"}, texts(doc.Find(".review")))
	require.Equal(t, 1, doc.Find("#reviews-good[checked]").Length())
	require.Equal(t, "false", resp.Header.Get(moreHeader))

	resp = env.get(t, "/reviews?filter=good")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestLoadMoreUntilExhausted(t *testing.T) {
	env := newTestEnv(t, staticSource(testRecords()), true)
	env.get(t, "/")

	resp := env.get(t, "/reviews/more")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "false", resp.Header.Get(moreHeader))
	doc := document(t, resp)
	require.Equal(t, []string{"two", "four"}, texts(doc.Find(".review")))
	require.True(t, doc.Find("#reviews-more").HasClass("invisible"))

	resp = env.get(t, "/reviews/more")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestFilterChangeResetsCursor(t *testing.T) {
	env := newTestEnv(t, staticSource(testRecords()), true)
	env.get(t, "/")
	env.get(t, "/reviews/more")

	var page reviewPageResponse
	resp := env.getJSON(t, "/reviews?filter=recent", &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, domain.FilterRecent, page.Filter)
	require.Equal(t, 1, page.Page)
	require.Equal(t, 4, page.Total)
	require.True(t, page.More)
	require.Len(t, page.Items, 3)
	require.Equal(t, "two", page.Items[0].Description)

	resp = env.getJSON(t, "/reviews/more", &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, page.Items, 1)
	require.Equal(t, "one", page.Items[0].Description)
	require.False(t, page.More)
}

func TestEmptyFilterKeepsFilterBar(t *testing.T) {
	records := []domain.Review{
		{Description: "great", Rating: 5, Date: testNow.Add(-24 * time.Hour), Author: domain.Author{Name: "a"}},
	}
	env := newTestEnv(t, staticSource(records), true)
	env.get(t, "/")

	doc := document(t, env.get(t, "/reviews?filter=bad"))
	require.Zero(t, doc.Find(".review").Length())
	filters := doc.Find(".reviews-filter")
	require.Equal(t, 1, filters.Length())
	require.False(t, filters.HasClass("invisible"))

	doc = document(t, env.get(t, "/reviews?filter=all"))
	require.Equal(t, 1, doc.Find(".review").Length())
}

func TestUnknownFilterIsRejected(t *testing.T) {
	env := newTestEnv(t, staticSource(testRecords()), true)
	resp := env.get(t, "/reviews?filter=best")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVisitorsKeepSeparateState(t *testing.T) {
	env := newTestEnv(t, staticSource(testRecords()), true)
	env.get(t, "/")
	require.Equal(t, http.StatusOK, env.get(t, "/reviews?filter=bad").StatusCode)

	other := *env
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	other.client = &http.Client{Jar: jar}
	other.get(t, "/")
	require.Equal(t, http.StatusOK, other.get(t, "/reviews?filter=bad").StatusCode)
}

func TestReviewAPIIsStateless(t *testing.T) {
	env := newTestEnv(t, staticSource(testRecords()), true)

	var list reviewListResponse
	resp := env.getJSON(t, "/api/reviews?filter=popular&page=2&limit=2", &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2, list.Page)
	require.Equal(t, 2, list.Limit)
	require.Equal(t, 5, list.Total)
	require.Len(t, list.Items, 2)
	require.Equal(t, "one", list.Items[0].Description)
	require.Equal(t, 5, list.Items[0].ReviewRating)
	require.Equal(t, "two", list.Items[1].Description)

	resp = env.getJSON(t, "/api/reviews?page=9", &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, list.Items)
	require.Equal(t, 3, list.Limit)
}

func TestReviewAPIHugePageIsEmpty(t *testing.T) {
	env := newTestEnv(t, staticSource(testRecords()), true)

	var list reviewListResponse
	resp := env.getJSON(t, "/api/reviews?page=4611686018427387904&limit=2", &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, list.Items)
	require.Equal(t, 5, list.Total)
}

func TestLoadFailureRendersFailureState(t *testing.T) {
	failing := sourceFunc(func(context.Context) ([]domain.Review, error) {
		return nil, errors.New("timeout")
	})
	env := newTestEnv(t, failing, true)

	resp := env.get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := document(t, resp)
	require.True(t, doc.Find("section.reviews").HasClass("reviews-load-failure"))
	require.Zero(t, doc.Find(".review").Length())

	resp = env.get(t, "/reviews?filter=good")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, document(t, resp).Find("section.reviews").HasClass("reviews-load-failure"))

	resp = env.getJSON(t, "/api/reviews", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestPageRenderedWhileLoading(t *testing.T) {
	release := make(chan struct{})
	blocked := sourceFunc(func(context.Context) ([]domain.Review, error) {
		<-release
		return testRecords(), nil
	})
	env := newTestEnv(t, blocked, false)

	resp := env.get(t, "/")
	doc := document(t, resp)
	section := doc.Find("section.reviews")
	require.True(t, section.HasClass("reviews-list-loading"))
	require.Equal(t, "/reviews?filter=all", section.AttrOr("hx-get", ""))
	require.True(t, doc.Find(".reviews-filter").HasClass("invisible"))

	close(release)
	resp = env.get(t, "/reviews?filter=all")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc = document(t, resp)
	require.Equal(t, []string{"one", "five", "three"}, texts(doc.Find(".review")))
	require.False(t, doc.Find("section.reviews").HasClass("reviews-list-loading"))
}

func TestGalleryFromPathAndEvents(t *testing.T) {
	env := newTestEnv(t, staticSource(testRecords()), true)

	resp := env.get(t, "/photo/img/2.png")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := document(t, resp)
	overlay := doc.Find(".overlay-gallery")
	require.False(t, overlay.HasClass("invisible"))
	require.Equal(t, "#photo/img/2.png", overlay.AttrOr("data-fragment", ""))

	jsonHeader := http.Header{"Accept": {"application/json"}}
	var view galleryResponse
	decode := func(resp *http.Response) {
		t.Helper()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	}

	decode(env.do(t, http.MethodPost, "/gallery/events/right", nil, jsonHeader))
	require.Equal(t, 2, view.Index)
	require.Equal(t, "#photo/img/3.png", view.Fragment)
	require.True(t, *view.Handled)

	decode(env.do(t, http.MethodPost, "/gallery/events/right", nil, jsonHeader))
	require.Equal(t, 2, view.Index)

	decode(env.postForm(t, "/gallery/events/key", url.Values{"key": {"27"}}, jsonHeader))
	require.Equal(t, "hidden", view.State)
	require.Empty(t, view.Fragment)

	decode(env.do(t, http.MethodPost, "/gallery/events/left", nil, jsonHeader))
	require.False(t, *view.Handled)
	require.Equal(t, 2, view.Index)
}

func TestGalleryFragmentEntryMatchesUI(t *testing.T) {
	env := newTestEnv(t, staticSource(testRecords()), true)
	jsonHeader := http.Header{"Accept": {"application/json"}}

	var view galleryResponse
	resp := env.do(t, http.MethodGet, "/gallery/photo/img/1.png", nil, jsonHeader)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	require.Equal(t, "visible", view.State)
	require.Equal(t, 0, view.Index)

	resp = env.do(t, http.MethodGet, "/gallery?fragment=", nil, jsonHeader)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	require.Equal(t, "hidden", view.State)

	resp = env.do(t, http.MethodGet, "/gallery/photo/img/missing.png", nil, jsonHeader)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/gallery/events/jump", nil, jsonHeader)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGalleryFormPostRedirects(t *testing.T) {
	env := newTestEnv(t, staticSource(testRecords()), true)
	env.get(t, "/photo/img/1.png")

	resp := env.do(t, http.MethodPost, "/gallery/events/right", nil, nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/photo/img/2.png", resp.Header.Get("Location"))

	resp = env.do(t, http.MethodPost, "/gallery/events/close", nil, nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))

	resp = env.do(t, http.MethodPost, "/gallery/events/right", nil, http.Header{"Hx-Request": {"true"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, document(t, resp).Find(".overlay-gallery").HasClass("invisible"))
}

func TestFeedbackValidation(t *testing.T) {
	env := newTestEnv(t, staticSource(testRecords()), true)

	resp := env.postForm(t, "/feedback/validate", url.Values{
		"review-name": {"Ann"},
		"review-mark": {"2"},
	}, http.Header{"Accept": {"application/json"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var validity struct {
		CanSubmit    bool     `json:"canSubmit"`
		TextRequired bool     `json:"textRequired"`
		Hints        []string `json:"hints"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&validity))
	require.False(t, validity.CanSubmit)
	require.True(t, validity.TextRequired)
	require.Equal(t, []string{"text"}, validity.Hints)

	resp = env.postForm(t, "/feedback/validate", url.Values{
		"review-name": {"Ann"},
		"review-mark": {"4"},
	}, nil)
	doc := document(t, resp)
	_, disabled := doc.Find(".review-submit").Attr("disabled")
	require.False(t, disabled)
}

func TestFeedbackSubmitRemembersSubmitter(t *testing.T) {
	// the cookie jar drops cookies that expire before the wall clock
	env := newTestEnv(t, staticSource(testRecords()), true, func(cfg *Config) {
		cfg.Now = time.Now
	})

	resp := env.postForm(t, "/feedback", url.Values{"review-mark": {"1"}, "review-name": {"Ann"}}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	items, err := env.feedback.List(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, items)

	resp = env.postForm(t, "/feedback", url.Values{
		"review-mark": {"1"},
		"review-name": {"Ann"},
		"review-text": {"Crashes on start"},
	}, nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	names := map[string]*http.Cookie{}
	for _, c := range resp.Cookies() {
		names[c.Name] = c
	}
	require.Contains(t, names, "user")
	require.Contains(t, names, "mark")
	require.WithinDuration(t, time.Now().Add(225*24*time.Hour), names["mark"].Expires, time.Minute)

	items, err = env.feedback.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Crashes on start", items[0].Text)

	doc := document(t, env.get(t, "/"))
	require.Equal(t, "Ann", doc.Find("#review-name").AttrOr("value", ""))
	require.Equal(t, 1, doc.Find("#review-mark-1[checked]").Length())
}

func TestFeedbackJSONSubmission(t *testing.T) {
	env := newTestEnv(t, staticSource(testRecords()), true)
	resp := env.do(t, http.MethodPost, "/feedback", strings.NewReader(`{"name":"Bob","rating":5}`), http.Header{
		"Content-Type": {"application/json"},
		"Accept":       {"application/json"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created feedbackResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, 5, created.Rating)
}

type recordedFailure struct {
	target   string
	attempts int
}

type failureRecorder struct {
	mu    sync.Mutex
	items []recordedFailure
	done  chan struct{}
}

func (f *failureRecorder) Record(_ context.Context, target string, _ map[string]any, _ error, attempts int) error {
	f.mu.Lock()
	f.items = append(f.items, recordedFailure{target: target, attempts: attempts})
	f.mu.Unlock()
	close(f.done)
	return nil
}

func TestFeedbackNotifiesMessenger(t *testing.T) {
	received := make(chan map[string]any, 1)
	messenger := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		received <- payload
		w.WriteHeader(http.StatusAccepted)
	}))
	defer messenger.Close()

	env := newTestEnv(t, staticSource(testRecords()), true, func(cfg *Config) {
		cfg.MessengerEndpoint = messenger.URL
		cfg.MessengerDestination = "slack"
	})
	resp := env.postForm(t, "/feedback", url.Values{"review-mark": {"5"}, "review-name": {"Ann"}}, nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	select {
	case payload := <-received:
		require.Equal(t, "slack", payload["destination"])
		require.Contains(t, payload["text"], "Ann")
	case <-time.After(2 * time.Second):
		t.Fatal("messenger was not called")
	}
}

func TestFeedbackNotificationFailureIsRecorded(t *testing.T) {
	messenger := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer messenger.Close()

	failures := &failureRecorder{done: make(chan struct{})}
	env := newTestEnv(t, staticSource(testRecords()), true, func(cfg *Config) {
		cfg.MessengerEndpoint = messenger.URL
		cfg.MessengerDestination = "slack"
		cfg.FailedNotifications = failures
	})
	resp := env.postForm(t, "/feedback", url.Values{"review-mark": {"4"}, "review-name": {"Ann"}}, nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	select {
	case <-failures.done:
	case <-time.After(3 * time.Second):
		t.Fatal("failure was not recorded")
	}
	failures.mu.Lock()
	defer failures.mu.Unlock()
	require.Equal(t, []recordedFailure{{target: "feedback_notification", attempts: notifyAttempts}}, failures.items)
}

func TestReviewDataEndpoint(t *testing.T) {
	env := newTestEnv(t, staticSource(testRecords()), true)
	resp := env.get(t, "/data/reviews.json")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	require.Len(t, raw, 5)
	require.Contains(t, raw[0], "review-rating")
}

func TestSweepVisitors(t *testing.T) {
	env := newTestEnv(t, staticSource(testRecords()), true)
	env.get(t, "/")
	require.Zero(t, env.handler.SweepVisitors())
}
