package generation

import (
	"context"
	"fmt"

	"github.com/phrazzld/vocab-api/internal/domain"
	"golang.org/x/time/rate"
)

// RateLimited wraps a Provider with a token bucket shared by all sessions,
// keeping the process inside the provider's request quota. A call that
// cannot get a token before ctx ends fails with ErrRateLimited, which the
// selection fallbacks treat like any other generation failure.
type RateLimited struct {
	next    Provider
	limiter *rate.Limiter
}

var _ Provider = (*RateLimited)(nil)

// NewRateLimited allows perMinute calls per minute with the given burst.
// A non-positive perMinute disables limiting.
func NewRateLimited(next Provider, perMinute float64, burst int) *RateLimited {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(perMinute / 60)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (r *RateLimited) wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return nil
}

// GenerateWord implements WordGenerator.
func (r *RateLimited) GenerateWord(ctx context.Context, req WordRequest) (domain.VocabularyEntry, error) {
	if err := r.wait(ctx); err != nil {
		return domain.VocabularyEntry{}, err
	}
	return r.next.GenerateWord(ctx, req)
}

// GenerateExamples implements ExampleProvider.
func (r *RateLimited) GenerateExamples(ctx context.Context, entry domain.VocabularyEntry) (string, error) {
	if err := r.wait(ctx); err != nil {
		return "", err
	}
	return r.next.GenerateExamples(ctx, entry)
}
