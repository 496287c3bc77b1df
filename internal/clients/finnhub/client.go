// Package finnhub provides the market-data client. All outbound requests
// flow through a sequential queue worker that enforces a fixed delay between
// calls, keeping the application inside the provider's rate limit regardless
// of how many callers fetch concurrently.
package finnhub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultBaseURL   = "https://finnhub.io/api/v1"
	defaultPacing    = time.Second
	requestTimeout   = 10 * time.Second
	requestQueueSize = 100
)

// requestJob represents a job in the rate limiting queue
type requestJob struct {
	ctx      context.Context
	path     string
	query    url.Values
	resultCh chan requestResult
}

// requestResult represents the result of a request
type requestResult struct {
	body []byte
	err  error
}

// Config holds client configuration
type Config struct {
	APIKey  string
	BaseURL string        // Defaults to the public Finnhub API; overridable for tests
	Pacing  time.Duration // Delay between consecutive requests; defaults to 1s
}

// Client is a rate-limited Finnhub API client
type Client struct {
	apiKey       string
	baseURL      string
	pacing       time.Duration
	httpClient   *http.Client
	log          zerolog.Logger
	requestQueue chan requestJob
	stopChan     chan struct{}
	workerDone   chan struct{}
	once         sync.Once
}

// NewClient creates a new Finnhub client and starts its rate limiting worker
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Pacing <= 0 {
		cfg.Pacing = defaultPacing
	}

	c := &Client{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		pacing:       cfg.Pacing,
		httpClient:   &http.Client{Timeout: requestTimeout},
		log:          log.With().Str("component", "finnhub").Logger(),
		requestQueue: make(chan requestJob, requestQueueSize),
		stopChan:     make(chan struct{}),
		workerDone:   make(chan struct{}),
	}

	go c.worker()

	return c
}

// get enqueues a GET request and waits for the worker to execute it.
// The caller's context cancels the wait; an already-queued job still runs
// but its result is discarded.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	select {
	case <-c.stopChan:
		return nil, fmt.Errorf("client is closed")
	default:
	}

	resultCh := make(chan requestResult, 1)

	job := requestJob{
		ctx:      ctx,
		path:     path,
		query:    query,
		resultCh: resultCh,
	}

	select {
	case c.requestQueue <- job:
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return nil, fmt.Errorf("request queue is full")
	}

	select {
	case result := <-resultCh:
		return result.body, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// worker processes requests from the queue sequentially with rate limiting
func (c *Client) worker() {
	defer close(c.workerDone)

	var lastRequestTime time.Time
	firstRequest := true

	processJob := func(job requestJob) {
		// Skip jobs whose caller already gave up
		if job.ctx.Err() != nil {
			job.resultCh <- requestResult{err: job.ctx.Err()}
			return
		}

		// Wait for the pacing delay (except before the first request)
		if !firstRequest {
			elapsed := time.Since(lastRequestTime)
			if elapsed < c.pacing {
				time.Sleep(c.pacing - elapsed)
			}
		}
		firstRequest = false

		var result requestResult
		result.body, result.err = c.doRequest(job.ctx, job.path, job.query)

		lastRequestTime = time.Now()

		job.resultCh <- result
	}

	for {
		select {
		case <-c.stopChan:
			// Drain remaining jobs from queue before exiting
			for {
				select {
				case job := <-c.requestQueue:
					processJob(job)
				default:
					return
				}
			}
		case job := <-c.requestQueue:
			processJob(job)
		}
	}
}

// doRequest executes a single HTTP GET against the provider
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("token", c.apiKey)

	requestURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		bodyStr := string(body)
		if len(bodyStr) > 500 {
			bodyStr = bodyStr[:500] + "..."
		}
		return nil, fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, path, bodyStr)
	}

	return body, nil
}

// Close gracefully shuts down the rate limiting worker
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.stopChan)
		<-c.workerDone
	})
}
