package practice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prepforge/prepforge-backend/internal/model"
	"github.com/rs/zerolog"
)

// Result is the single success-or-error answer of one fetch task.
type Result struct {
	Questions []model.PracticeQuestion
	Err       error
}

// Fetcher loads the static free-practice question document. Each Fetch
// offloads the request to its own task goroutine that delivers exactly one
// Result on the returned channel and exits — no shared state, no timer or
// fullscreen coupling.
type Fetcher struct {
	url    string
	client *http.Client
	log    zerolog.Logger
}

// NewFetcher creates a Fetcher for the given document URL.
func NewFetcher(url string, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log.With().Str("component", "practice_fetcher").Logger(),
	}
}

// Fetch starts the background task. The channel is buffered, so the task
// never blocks on a caller that went away.
func (f *Fetcher) Fetch(ctx context.Context) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		questions, err := f.load(ctx)
		if err != nil {
			f.log.Error().Err(err).Msg("Practice bank fetch failed")
		}
		out <- Result{Questions: questions, Err: err}
	}()
	return out
}

func (f *Fetcher) load(ctx context.Context) ([]model.PracticeQuestion, error) {
	if f.url == "" {
		return nil, fmt.Errorf("practice bank URL is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch question bank: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("question bank returned status %d", resp.StatusCode)
	}

	var questions []model.PracticeQuestion
	if err := json.NewDecoder(resp.Body).Decode(&questions); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	return questions, nil
}
