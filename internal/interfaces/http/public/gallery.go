package public

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/product-page/internal/gallery"
	"github.com/sngm3741/product-page/internal/interfaces/http/common"
	"github.com/sngm3741/product-page/internal/render"
)

var galleryEvents = map[string]gallery.EventKind{
	"left":  gallery.EventLeft,
	"right": gallery.EventRight,
	"close": gallery.EventClose,
	"key":   gallery.EventKeyDown,
}

// galleryHandler returns the overlay. A "fragment" query parameter reports a
// location change made by the browser, such as back navigation; an empty
// value closes the overlay.
func (h *Handler) galleryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := h.visitor(w, r)
		if err != nil {
			h.visitorFailed(w, err)
			return
		}
		status := http.StatusOK
		if query := r.URL.Query(); query.Has("fragment") {
			if err := state.gallery.HandleFragment(query.Get("fragment")); errors.Is(err, gallery.ErrPhotoNotFound) {
				status = http.StatusNotFound
			}
		}
		h.writeGallery(w, r, state.gallery, status, nil)
	}
}

// galleryPhotoHandler opens the overlay at the photo named by the path.
func (h *Handler) galleryPhotoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := h.visitor(w, r)
		if err != nil {
			h.visitorFailed(w, err)
			return
		}
		status := http.StatusOK
		if err := state.gallery.HandleFragment(gallery.Fragment(chi.URLParam(r, "*"))); errors.Is(err, gallery.ErrPhotoNotFound) {
			status = http.StatusNotFound
		}
		h.writeGallery(w, r, state.gallery, status, nil)
	}
}

// galleryEventHandler delivers a UI event to the overlay. Events sent while
// the overlay is hidden reach no listener and change nothing.
func (h *Handler) galleryEventHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := galleryEvents[chi.URLParam(r, "event")]
		if !ok {
			common.WriteError(h.logger, w, http.StatusBadRequest, "unknown gallery event")
			return
		}
		ev := gallery.Event{Kind: kind}
		if kind == gallery.EventKeyDown {
			key, err := strconv.Atoi(r.FormValue("key"))
			if err != nil {
				common.WriteError(h.logger, w, http.StatusBadRequest, "key code is required")
				return
			}
			ev.Key = key
		}

		state, err := h.visitor(w, r)
		if err != nil {
			h.visitorFailed(w, err)
			return
		}
		handled := state.gallery.Dispatch(ev)
		if !common.WantsJSON(r) && !isFragmentRequest(r) {
			// plain form post: show the page the overlay now describes
			http.Redirect(w, r, galleryLocation(state.gallery.View()), http.StatusSeeOther)
			return
		}
		h.writeGallery(w, r, state.gallery, http.StatusOK, &handled)
	}
}

func (h *Handler) writeGallery(w http.ResponseWriter, r *http.Request, g *gallery.Gallery, status int, handled *bool) {
	view := g.View()
	if common.WantsJSON(r) {
		resp := toGalleryResponse(view)
		resp.Handled = handled
		common.WriteJSON(h.logger, w, status, resp)
		return
	}
	common.PrepareHTML(w, status)
	h.renderFailed("gallery-overlay", h.renderer.Gallery(w, render.GalleryData{Photos: g.Photos(), View: view}))
}

func galleryLocation(v gallery.View) string {
	if !v.Visible() {
		return "/"
	}
	return "/photo/" + v.Current.ID
}
