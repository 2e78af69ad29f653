package public

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sngm3741/product-page/internal/public/domain"
)

const (
	notifyIdentifier = "product-page"
	notifyAttempts   = 3
	notifyDelay      = 200 * time.Millisecond
)

// notifyFeedback tells the team about a new submission through the messenger
// gateway. Delivery is best effort; failures are logged and recorded.
func (h *Handler) notifyFeedback(ctx context.Context, feedback domain.Feedback) {
	if strings.TrimSpace(h.messengerEndpoint) == "" {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	message := buildFeedbackMessage(feedback)
	err := h.sendMessengerWithRetry(ctx, h.messengerDestination, notifyIdentifier, message, notifyAttempts, notifyDelay)
	if err == nil {
		return
	}
	h.logger.Warn("feedback notification failed", zap.String("feedback", feedback.ID), zap.Error(err))
	h.persistNotificationFailure(ctx, feedback, err, notifyAttempts)
}

func buildFeedbackMessage(feedback domain.Feedback) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("**%s** left a new review.\n", feedback.Name))
	builder.WriteString(fmt.Sprintf("- Rating: %d / 5\n", feedback.Rating))
	if text := strings.TrimSpace(feedback.Text); text != "" {
		builder.WriteString("> " + strings.ReplaceAll(text, "\n", "\n> ") + "\n")
	}
	return builder.String()
}

func (h *Handler) sendMessengerWithRetry(ctx context.Context, destination, userID, text string, attempts int, delay time.Duration) error {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return errors.New("destination is empty")
	}
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := h.sendMessengerMessage(ctx, destination, userID, text); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if delay > 0 && i < attempts-1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return errors.Join(lastErr, ctx.Err())
			}
		}
	}
	return lastErr
}

func (h *Handler) persistNotificationFailure(ctx context.Context, feedback domain.Feedback, cause error, attempts int) {
	if h.failedNotifications == nil {
		return
	}
	payload := map[string]any{
		"feedbackId": feedback.ID,
		"name":       feedback.Name,
		"rating":     feedback.Rating,
		"text":       feedback.Text,
	}
	if err := h.failedNotifications.Record(ctx, "feedback_notification", payload, cause, attempts); err != nil {
		h.logger.Error("failed notification not recorded", zap.Error(err))
	}
}

func (h *Handler) sendMessengerMessage(ctx context.Context, destination, userID, bodyText string) error {
	trimmedUserID := strings.TrimSpace(userID)
	if trimmedUserID == "" {
		return errors.New("userID is required")
	}

	payload := map[string]any{
		"userId":      trimmedUserID,
		"text":        bodyText,
		"destination": destination,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("build messenger payload: %w", err)
	}

	timeout := h.httpClient.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := strings.TrimRight(h.messengerEndpoint, "/") + "/messages"
	req, err := http.NewRequestWithContext(ctxWithTimeout, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build messenger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send messenger request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		message, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		return fmt.Errorf("messenger rejected message: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(message)))
	}
	return nil
}
