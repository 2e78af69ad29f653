// Package thumbnail resolves author thumbnails for review cards. Each card
// runs its own race between the image load and a timeout; whichever settles
// first decides what the card shows.
package thumbnail

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout is the budget an image load gets before the card degrades.
const DefaultTimeout = 10 * time.Second

// Outcome is the final visual state of a card's thumbnail.
type Outcome int

const (
	Pending Outcome = iota
	Loaded
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return "pending"
}

// Result is what a settled race leaves on the card.
type Result struct {
	Outcome Outcome
	Src     string
	// Reason is "timeout" or "error" for failed results.
	Reason string
}

// ImageLoader loads one image. A nil error means the image is displayable.
type ImageLoader interface {
	Load(ctx context.Context, src string) error
}

// ImageLoaderFunc adapts a function to ImageLoader.
type ImageLoaderFunc func(ctx context.Context, src string) error

func (f ImageLoaderFunc) Load(ctx context.Context, src string) error { return f(ctx, src) }

// Settlement records the first result offered to it and ignores the rest.
type Settlement struct {
	once   sync.Once
	done   chan struct{}
	result Result
}

// NewSettlement returns an unsettled Settlement.
func NewSettlement() *Settlement {
	return &Settlement{done: make(chan struct{})}
}

// Settle offers r. It reports whether r became the final result.
func (s *Settlement) Settle(r Result) bool {
	won := false
	s.once.Do(func() {
		s.result = r
		won = true
		close(s.done)
	})
	return won
}

// Done is closed once the settlement has a result.
func (s *Settlement) Done() <-chan struct{} { return s.done }

// Result returns the final result, or a Pending result before settlement.
func (s *Settlement) Result() Result {
	select {
	case <-s.done:
		return s.result
	default:
		return Result{Outcome: Pending}
	}
}

// Racer runs settlement races for card thumbnails.
type Racer struct {
	loader  ImageLoader
	timeout time.Duration
	logger  *zap.Logger
}

// NewRacer builds a Racer. timeout <= 0 selects DefaultTimeout.
func NewRacer(loader ImageLoader, timeout time.Duration, logger *zap.Logger) *Racer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Racer{loader: loader, timeout: timeout, logger: logger}
}

// Start launches the race for src and returns its settlement immediately.
// The timer is stopped as soon as the load succeeds. A load that finishes
// after the timer fired cannot change the result. The load itself is not
// cancelled by the timeout; it only stops with ctx.
func (r *Racer) Start(ctx context.Context, src string) *Settlement {
	s := NewSettlement()
	if src == "" {
		s.Settle(Result{Outcome: Failed, Reason: "error"})
		return s
	}

	timer := time.AfterFunc(r.timeout, func() {
		if s.Settle(Result{Outcome: Failed, Src: src, Reason: "timeout"}) {
			r.logger.Debug("thumbnail timed out", zap.String("src", src), zap.Duration("timeout", r.timeout))
		}
	})

	go func() {
		err := r.loader.Load(ctx, src)
		if err != nil {
			timer.Stop()
			if s.Settle(Result{Outcome: Failed, Src: src, Reason: "error"}) {
				r.logger.Debug("thumbnail failed", zap.String("src", src), zap.Error(err))
			}
			return
		}
		timer.Stop()
		if !s.Settle(Result{Outcome: Loaded, Src: src}) {
			r.logger.Debug("thumbnail loaded after timeout", zap.String("src", src))
		}
	}()
	return s
}

// ErrNotSettled is returned by Wait when ctx ends before the race settles.
var ErrNotSettled = errors.New("thumbnail race not settled")

// Wait blocks until s settles or ctx is done.
func Wait(ctx context.Context, s *Settlement) (Result, error) {
	select {
	case <-s.Done():
		return s.Result(), nil
	case <-ctx.Done():
		return Result{Outcome: Pending}, errors.Join(ErrNotSettled, ctx.Err())
	}
}

// Resolve runs a race for src and waits for its result. Races always settle
// within the timeout, so Resolve only returns early when ctx ends.
func (r *Racer) Resolve(ctx context.Context, src string) (Result, error) {
	return Wait(ctx, r.Start(ctx, src))
}
