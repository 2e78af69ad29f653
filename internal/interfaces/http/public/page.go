package public

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/product-page/internal/form"
	"github.com/sngm3741/product-page/internal/gallery"
	"github.com/sngm3741/product-page/internal/interfaces/http/common"
	"github.com/sngm3741/product-page/internal/public/application"
	"github.com/sngm3741/product-page/internal/public/domain"
	"github.com/sngm3741/product-page/internal/render"
)

// pageHandler renders the product page with the gallery closed.
func (h *Handler) pageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.renderPage(w, r, "")
	}
}

// photoPageHandler renders the product page with the gallery opened at the
// photo named by the path, the server side form of "#photo/<id>".
func (h *Handler) photoPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.renderPage(w, r, gallery.Fragment(chi.URLParam(r, "*")))
	}
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, fragment string) {
	state, err := h.visitor(w, r)
	if err != nil {
		h.visitorFailed(w, err)
		return
	}

	status := http.StatusOK
	if err := state.gallery.HandleFragment(fragment); errors.Is(err, gallery.ErrPhotoNotFound) {
		status = http.StatusNotFound
	}

	in := form.Input{}
	if remembered, ok := form.Recall(r); ok {
		in.Name = remembered.Name
		in.Rating = remembered.Rating
	}

	data := render.PageData{
		Title:   h.title,
		Reviews: h.pageReviews(r.Context(), state),
		Gallery: render.GalleryData{Photos: state.gallery.Photos(), View: state.gallery.View()},
		Form:    render.NewFormData(in),
	}
	common.PrepareHTML(w, status)
	h.renderFailed("page", h.renderer.Page(w, data))
}

// pageReviews starts a new page life. When the data file has not arrived yet
// the section renders in its loading state and the feed is created by the
// first list request.
func (h *Handler) pageReviews(ctx context.Context, state *visitorState) render.ReviewsData {
	data := render.ReviewsData{
		Status:  h.loader.Status(),
		Filter:  domain.FilterAll,
		Filters: render.FilterOptions(domain.FilterAll),
	}
	switch data.Status {
	case application.StatusLoaded:
	case application.StatusFailed:
		state.dropFeed()
		return data
	default:
		h.loader.Prefetch(context.WithoutCancel(ctx))
		state.dropFeed()
		return data
	}

	records, err := h.loader.Reviews(ctx)
	if err != nil {
		data.Status = application.StatusFailed
		return data
	}
	feed := state.resetFeed(records, h.feedOptions)
	data.Cards = h.renderer.Settle(ctx, feed.Open())
	data.More = feed.MoreVisible()
	return data
}
