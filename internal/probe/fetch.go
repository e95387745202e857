package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const defaultMaxBodyBytes = 2 << 20 // 2MB per response

// fetchResult is one HTTP response, body pre-read and size-capped.
type fetchResult struct {
	status int
	header http.Header
	body   []byte
}

// fetcher performs all HTTP requests for one domain's scan. It paces
// requests against the target host, trips a circuit breaker when the host
// stops answering so the remaining probes fail fast, and caches responses
// so several probes can share one fetch of the same URL.
type fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	cache     map[string]fetchResult
}

func newFetcher(domain string, client *http.Client, userAgent string, perHostRPS float64, maxBody int64) *fetcher {
	settings := gobreaker.Settings{
		Name:    domain,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	if perHostRPS <= 0 {
		perHostRPS = 4
	}
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	return &fetcher{
		client:    client,
		userAgent: userAgent,
		maxBody:   maxBody,
		limiter:   rate.NewLimiter(rate.Limit(perHostRPS), 1),
		breaker:   gobreaker.NewCircuitBreaker(settings),
		cache:     make(map[string]fetchResult),
	}
}

// get fetches url, honoring pacing, the breaker, and the cache. A non-2xx
// status is a valid result, not a breaker failure; only transport errors
// count against the host.
func (f *fetcher) get(ctx context.Context, url string) (fetchResult, error) {
	if cached, ok := f.cache[url]; ok {
		return cached, nil
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return fetchResult{}, err
	}

	res, err := f.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", f.userAgent)
		req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close() //nolint:errcheck // response body

		body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
		if err != nil {
			return nil, err
		}
		return fetchResult{status: resp.StatusCode, header: resp.Header, body: body}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fetchResult{}, fmt.Errorf("host %w", errHostDown)
		}
		return fetchResult{}, err
	}

	fr := res.(fetchResult)
	f.cache[url] = fr
	return fr, nil
}

// errHostDown marks a breaker-open condition; probes treat it like any
// other transport failure.
var errHostDown = errors.New("circuit open")

// wellKnown builds the https URL for a well-known path on the domain.
func wellKnown(domain, path string) string {
	return "https://" + domain + "/.well-known/" + strings.TrimPrefix(path, "/")
}
