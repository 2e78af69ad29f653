package public

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sngm3741/product-page/internal/infrastructure/feed"
	"github.com/sngm3741/product-page/internal/interfaces/http/common"
	"github.com/sngm3741/product-page/internal/public/application"
	"github.com/sngm3741/product-page/internal/public/domain"
	"github.com/sngm3741/product-page/internal/render"
)

// reviewFilterHandler switches the visitor's active filter and returns the
// first page of the new view. Re-selecting the active filter is a no-op
// answered with 204.
func (h *Handler) reviewFilterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := domain.ParseFilter(r.URL.Query().Get("filter"))
		if err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}
		state, err := h.visitor(w, r)
		if err != nil {
			h.visitorFailed(w, err)
			return
		}

		records, err := h.loader.Reviews(r.Context())
		if err != nil {
			h.writeLoadFailure(w, r, filter)
			return
		}

		reviewFeed, created := state.currentFeed(records, h.feedOptions)
		var items []domain.Review
		if created {
			items = reviewFeed.Open()
			if filter != domain.FilterAll {
				items, _ = reviewFeed.SelectFilter(filter)
			}
		} else {
			var changed bool
			items, changed = reviewFeed.SelectFilter(filter)
			if !changed {
				setMoreHeader(w, reviewFeed.MoreVisible())
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}

		snapshot := reviewFeed.Snapshot()
		setMoreHeader(w, snapshot.More)
		if common.WantsJSON(r) {
			common.WriteJSON(h.logger, w, http.StatusOK, reviewPageResponse{
				Filter: snapshot.Filter,
				Page:   snapshot.Page,
				Total:  snapshot.Total,
				More:   snapshot.More,
				Items:  toReviewResponses(items),
			})
			return
		}

		data := render.ReviewsData{
			Status:  application.StatusLoaded,
			Filter:  snapshot.Filter,
			Filters: render.FilterOptions(snapshot.Filter),
			Cards:   h.renderer.Settle(r.Context(), items),
			More:    snapshot.More,
		}
		common.PrepareHTML(w, http.StatusOK)
		h.renderFailed("reviews", h.renderer.Reviews(w, data))
	}
}

// reviewMoreHandler appends the next page of the active view. Once the view
// is exhausted it answers 204 and leaves the cursor alone.
func (h *Handler) reviewMoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := h.visitor(w, r)
		if err != nil {
			h.visitorFailed(w, err)
			return
		}
		reviewFeed := state.existingFeed()
		if reviewFeed == nil {
			setMoreHeader(w, false)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		items, ok := reviewFeed.LoadMore()
		if !ok {
			setMoreHeader(w, false)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		snapshot := reviewFeed.Snapshot()
		setMoreHeader(w, snapshot.More)
		if common.WantsJSON(r) {
			common.WriteJSON(h.logger, w, http.StatusOK, reviewPageResponse{
				Filter: snapshot.Filter,
				Page:   snapshot.Page,
				Total:  snapshot.Total,
				More:   snapshot.More,
				Items:  toReviewResponses(items),
			})
			return
		}
		common.PrepareHTML(w, http.StatusOK)
		h.renderFailed("review-page", h.renderer.Cards(w, h.renderer.Settle(r.Context(), items), snapshot.More))
	}
}

// reviewAPIHandler is the stateless read API: one page of a filtered view.
// Pages are 1-based.
func (h *Handler) reviewAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		filter, err := domain.ParseFilter(query.Get("filter"))
		if err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}
		page, _ := common.ParsePositiveInt(query.Get("page"), 1)
		limit, _ := common.ParsePositiveInt(query.Get("limit"), h.pageSize())
		if limit > common.MaxAPILimit {
			limit = common.MaxAPILimit
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()
		records, err := h.loader.Reviews(ctx)
		if err != nil {
			h.logger.Warn("review api without data", zap.Error(err))
			common.WriteError(h.logger, w, http.StatusServiceUnavailable, application.ErrLoadFailed.Error())
			return
		}

		view := domain.ViewOptions{RecentWindow: h.feedOptions.RecentWindow}.Apply(records, filter, h.now())
		items, ok := application.PageOf(view, page-1, limit)
		if !ok {
			items = []domain.Review{}
		}
		common.WriteJSON(h.logger, w, http.StatusOK, reviewListResponse{
			Filter: filter,
			Items:  toReviewResponses(items),
			Page:   page,
			Limit:  limit,
			Total:  len(view),
		})
	}
}

// reviewDataHandler serves the review array at the fixed data path.
func (h *Handler) reviewDataHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimSpace(h.dataFile) != "" {
			w.Header().Set("Content-Type", "application/json")
			http.ServeFile(w, r, h.dataFile)
			return
		}
		records, err := h.loader.Reviews(r.Context())
		if err != nil {
			common.WriteError(h.logger, w, http.StatusServiceUnavailable, application.ErrLoadFailed.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := feed.Encode(w, records); err != nil {
			h.logger.Warn("review data encode failed", zap.Error(err))
		}
	}
}

func (h *Handler) writeLoadFailure(w http.ResponseWriter, r *http.Request, filter domain.Filter) {
	setMoreHeader(w, false)
	if common.WantsJSON(r) {
		common.WriteError(h.logger, w, http.StatusServiceUnavailable, application.ErrLoadFailed.Error())
		return
	}
	common.PrepareHTML(w, http.StatusOK)
	h.renderFailed("reviews", h.renderer.Reviews(w, render.ReviewsData{
		Status:  application.StatusFailed,
		Filter:  filter,
		Filters: render.FilterOptions(filter),
	}))
}

func (h *Handler) pageSize() int {
	if h.feedOptions.PageSize > 0 {
		return h.feedOptions.PageSize
	}
	return application.DefaultPageSize
}
