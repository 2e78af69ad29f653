package public

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sngm3741/product-page/internal/form"
	"github.com/sngm3741/product-page/internal/interfaces/http/common"
	"github.com/sngm3741/product-page/internal/public/application"
	"github.com/sngm3741/product-page/internal/render"
)

// feedbackValidateHandler recomputes the form validity after a field change.
func (h *Handler) feedbackValidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := parseFeedback(w, r)
		if err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "invalid form body")
			return
		}
		if common.WantsJSON(r) {
			common.WriteJSON(h.logger, w, http.StatusOK, form.Validate(in))
			return
		}
		common.PrepareHTML(w, http.StatusOK)
		h.renderFailed("review-form", h.renderer.Form(w, render.NewFormData(in)))
	}
}

// feedbackSubmitHandler accepts a submission once the form is valid. The
// submitter is remembered in cookies before the submission is stored.
func (h *Handler) feedbackSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := parseFeedback(w, r)
		if err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "invalid form body")
			return
		}

		validity := form.Validate(in)
		if !validity.CanSubmit {
			if common.WantsJSON(r) {
				common.WriteJSON(h.logger, w, http.StatusUnprocessableEntity, map[string]any{
					"error":    "form is incomplete",
					"validity": validity,
				})
				return
			}
			common.PrepareHTML(w, http.StatusUnprocessableEntity)
			h.renderFailed("review-form", h.renderer.Form(w, render.NewFormData(in)))
			return
		}

		form.Remember(w, in, h.now(), h.rememberFor)

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()
		feedback, err := h.feedbackCommands.Submit(ctx, application.SubmitFeedbackCommand{
			Name:   in.Name,
			Rating: in.Rating,
			Text:   in.Text,
		})
		if err != nil {
			if errors.Is(err, application.ErrInvalidFeedback) {
				common.WriteError(h.logger, w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			h.logger.Error("feedback store failed", zap.Error(err))
			common.WriteError(h.logger, w, http.StatusInternalServerError, "feedback could not be saved")
			return
		}
		h.logger.Info("feedback received", zap.String("id", feedback.ID), zap.Int("rating", feedback.Rating))

		go h.notifyFeedback(context.Background(), *feedback)

		switch {
		case common.WantsJSON(r):
			common.WriteJSON(h.logger, w, http.StatusCreated, toFeedbackResponse(*feedback))
		case isFragmentRequest(r):
			data := render.NewFormData(form.Input{Name: in.Name, Rating: in.Rating})
			data.Sent = true
			common.PrepareHTML(w, http.StatusCreated)
			h.renderFailed("review-form", h.renderer.Form(w, data))
		default:
			http.Redirect(w, r, "/#reviews", http.StatusSeeOther)
		}
	}
}

// parseFeedback reads the form fields from a urlencoded or JSON body.
func parseFeedback(w http.ResponseWriter, r *http.Request) (form.Input, error) {
	r.Body = http.MaxBytesReader(w, r.Body, common.MaxFormBody)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req feedbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return form.Input{}, err
		}
		return form.Input{Name: req.Name, Rating: req.Rating, Text: req.Text}, nil
	}
	if err := r.ParseForm(); err != nil {
		return form.Input{}, err
	}
	return form.Input{
		Name:   r.PostFormValue("review-name"),
		Rating: form.ParseRating(r.PostFormValue("review-mark")),
		Text:   r.PostFormValue("review-text"),
	}, nil
}
