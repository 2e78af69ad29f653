package admin

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sngm3741/product-page/internal/interfaces/http/common"
	"github.com/sngm3741/product-page/internal/public/domain"
)

type feedbackResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Rating      int       `json:"rating"`
	Text        string    `json:"text,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type feedbackListResponse struct {
	Items []feedbackResponse `json:"items"`
	Limit int                `json:"limit"`
}

func (h *Handler) feedbackListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("limit")
		limit, ok := common.ParsePositiveInt(raw, common.MaxAPILimit)
		if !ok && raw != "" {
			common.WriteError(h.logger, w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if limit > common.MaxAPILimit {
			limit = common.MaxAPILimit
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		items, err := h.feedbackQueries.Recent(ctx, limit)
		if err != nil {
			h.logger.Error("admin feedback list fetch failed", zap.Error(err))
			common.WriteError(h.logger, w, http.StatusInternalServerError, "feedback could not be listed")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, feedbackListResponse{
			Items: toFeedbackResponses(items),
			Limit: limit,
		})
	}
}

func (h *Handler) authVerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteError(h.logger, w, http.StatusInternalServerError, "authenticated user missing")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
			"status": "ok",
			"user":   user,
		})
	}
}

func toFeedbackResponses(items []domain.Feedback) []feedbackResponse {
	out := make([]feedbackResponse, 0, len(items))
	for _, f := range items {
		out = append(out, feedbackResponse{
			ID:          f.ID,
			Name:        f.Name,
			Rating:      f.Rating,
			Text:        f.Text,
			SubmittedAt: f.SubmittedAt,
		})
	}
	return out
}
