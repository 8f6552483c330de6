// Package fetcher downloads resolved images to a local directory. It is
// the only part of the system that touches the network; fetch failures
// are retried a fixed number of times and then skipped, never fatal.
package fetcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/mschroeder/mediumpress/internal/logger"
	"github.com/mschroeder/mediumpress/pkg/images"
)

// Browser-like user agent; the Medium CDN rejects default Go clients.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config holds fetcher settings.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	Workers   int
	Retries   int
	// RetryDelay is the pause before each retry attempt.
	RetryDelay time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent:  defaultUserAgent,
		Timeout:    30 * time.Second,
		Workers:    3,
		Retries:    2,
		RetryDelay: 500 * time.Millisecond,
	}
}

// Fetcher downloads image jobs.
type Fetcher struct {
	config Config
}

// New creates a Fetcher. Zero config fields fall back to defaults.
func New(cfg Config) *Fetcher {
	def := DefaultConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Workers < 1 {
		cfg.Workers = def.Workers
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &Fetcher{config: cfg}
}

// Result reports the outcome of one job.
type Result struct {
	Job      images.Job
	Path     string // local file written, empty if skipped
	Attempts int
	Err      error // nil on success
}

// FetchAll downloads every job into dir with a bounded worker count.
// It returns one Result per job; failed jobs are logged and skipped.
func (f *Fetcher) FetchAll(ctx context.Context, jobs []images.Job, dir string) []Result {
	if len(jobs) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		results := make([]Result, len(jobs))
		for i, job := range jobs {
			results[i] = Result{Job: job, Err: fmt.Errorf("images directory: %w", err)}
		}
		return results
	}

	results := make([]Result, len(jobs))
	sem := make(chan struct{}, f.config.Workers)
	var wg sync.WaitGroup

	for i, job := range jobs {
		select {
		case <-ctx.Done():
			results[i] = Result{Job: job, Err: ctx.Err()}
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, job images.Job) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = f.fetchWithRetry(ctx, job, dir)
		}(i, job)
	}
	wg.Wait()

	for _, r := range results {
		if r.Err != nil {
			logger.Warn("image skipped",
				"url", r.Job.OriginalURL,
				"attempts", r.Attempts,
				"reason", r.Err)
		}
	}
	return results
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, job images.Job, dir string) Result {
	res := Result{Job: job}
	for attempt := 0; attempt <= f.config.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				res.Err = ctx.Err()
				return res
			case <-time.After(f.config.RetryDelay):
			}
		}
		res.Attempts = attempt + 1

		path, err := f.fetchOne(job, dir)
		if err == nil {
			res.Path = path
			res.Err = nil
			logger.Debug("image fetched", "url", job.OriginalURL, "path", path, "attempts", res.Attempts)
			return res
		}
		res.Err = err
		logger.Debug("image fetch attempt failed",
			"url", job.OriginalURL,
			"attempt", res.Attempts,
			"error", err)
	}
	return res
}

// fetchOne performs a single download using a fresh collector, mirroring
// one-shot HTTP semantics.
func (f *Fetcher) fetchOne(job images.Job, dir string) (string, error) {
	c := colly.NewCollector(colly.UserAgent(f.config.UserAgent))
	c.SetRequestTimeout(f.config.Timeout)

	target := filepath.Join(dir, job.Filename)
	var fetchErr error
	var saved bool

	c.OnResponse(func(r *colly.Response) {
		if err := os.WriteFile(target, r.Body, 0o644); err != nil {
			fetchErr = fmt.Errorf("write %s: %w", target, err)
			return
		}
		saved = true
	})
	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = fmt.Errorf("fetch failed (status %d): %w", status, err)
	})

	if err := c.Visit(job.OriginalURL); err != nil {
		return "", fmt.Errorf("visit %s: %w", job.OriginalURL, err)
	}
	c.Wait()

	if fetchErr != nil {
		return "", fetchErr
	}
	if !saved {
		return "", fmt.Errorf("no response for %s", job.OriginalURL)
	}
	return target, nil
}
