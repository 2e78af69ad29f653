package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sngm3741/product-page/internal/public/domain"
)

// ReviewSource is the port the data loader reads review records from.
type ReviewSource interface {
	Load(ctx context.Context) ([]domain.Review, error)
}

// FeedbackRepository stores submissions made through the review form.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *domain.Feedback) error
	List(ctx context.Context, limit int) ([]domain.Feedback, error)
}

// FeedbackCommandService handles writing use-cases of the review form.
type FeedbackCommandService interface {
	Submit(ctx context.Context, cmd SubmitFeedbackCommand) (*domain.Feedback, error)
}

// FeedbackQueryService lists stored submissions.
type FeedbackQueryService interface {
	Recent(ctx context.Context, limit int) ([]domain.Feedback, error)
}

// SubmitFeedbackCommand captures a validated form submission.
type SubmitFeedbackCommand struct {
	Name   string
	Rating int
	Text   string
}

// ErrInvalidFeedback is returned when a command reaches the service without
// the fields the form requires.
var ErrInvalidFeedback = errors.New("invalid feedback")

// NewFeedbackCommandService creates a FeedbackCommandService backed by repo.
func NewFeedbackCommandService(repo FeedbackRepository) FeedbackCommandService {
	return &feedbackCommandService{repo: repo, now: time.Now}
}

type feedbackCommandService struct {
	repo FeedbackRepository
	now  func() time.Time
}

func (s *feedbackCommandService) Submit(ctx context.Context, cmd SubmitFeedbackCommand) (*domain.Feedback, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" || cmd.Rating < 1 || cmd.Rating > 5 {
		return nil, ErrInvalidFeedback
	}
	feedback := &domain.Feedback{
		ID:          uuid.NewString(),
		Name:        name,
		Rating:      cmd.Rating,
		Text:        strings.TrimSpace(cmd.Text),
		SubmittedAt: s.now().UTC(),
	}
	return feedback, s.repo.Create(ctx, feedback)
}

// NewFeedbackQueryService creates a FeedbackQueryService backed by repo.
func NewFeedbackQueryService(repo FeedbackRepository) FeedbackQueryService {
	return &feedbackQueryService{repo: repo}
}

type feedbackQueryService struct {
	repo FeedbackRepository
}

func (s *feedbackQueryService) Recent(ctx context.Context, limit int) ([]domain.Feedback, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.List(ctx, limit)
}
