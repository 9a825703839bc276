// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package breach

import (
	"bufio"
	"context"
	"crypto/sha1" //nolint:gosec // the range API is keyed by SHA-1
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("pwstrength/breach")

// Range API defaults.
const (
	DefaultEndpoint = "https://api.pwnedpasswords.com"
	DefaultTimeout  = 3 * time.Second
	DefaultAttempts = 3
	DefaultCacheTTL = 15 * time.Minute

	prefixLen       = 5
	defaultBaseWait = 100 * time.Millisecond
	maxBodyBytes    = 2 << 20
	userAgent       = "pwstrength"
)

// RangeChecker queries a k-anonymity range API. Only the first five hex
// characters of the password's SHA-1 leave the process; the suffix is
// compared locally.
type RangeChecker struct {
	endpoint string
	client   *http.Client
	attempts int
	baseWait time.Duration
	cache    *cache.Cache
	logger   *slog.Logger
}

// RangeOption configures a RangeChecker.
type RangeOption func(*RangeChecker)

// WithHTTPClient sets the HTTP client. Its timeout is left untouched.
func WithHTTPClient(client *http.Client) RangeOption {
	return func(c *RangeChecker) {
		if client != nil {
			c.client = client
		}
	}
}

// WithTimeout sets the per-request timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) RangeOption {
	return func(c *RangeChecker) {
		if d > 0 {
			c.client = &http.Client{Timeout: d, Transport: c.client.Transport}
		}
	}
}

// WithAttempts sets the total number of attempts per lookup. Values below
// one keep the default.
func WithAttempts(n int) RangeOption {
	return func(c *RangeChecker) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithBaseWait sets the first retry delay; later delays grow exponentially.
func WithBaseWait(d time.Duration) RangeOption {
	return func(c *RangeChecker) {
		if d > 0 {
			c.baseWait = d
		}
	}
}

// WithCacheTTL sets how long a prefix response is reused. Non-positive
// values keep the default.
func WithCacheTTL(ttl time.Duration) RangeOption {
	return func(c *RangeChecker) {
		if ttl > 0 {
			c.cache = cache.New(ttl, 2*ttl)
		}
	}
}

// WithLogger sets the logger used when a lookup fails.
func WithLogger(logger *slog.Logger) RangeOption {
	return func(c *RangeChecker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewRangeChecker creates a RangeChecker for endpoint. An empty endpoint
// uses DefaultEndpoint.
func NewRangeChecker(endpoint string, opts ...RangeOption) *RangeChecker {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &RangeChecker{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: DefaultTimeout},
		attempts: DefaultAttempts,
		baseWait: defaultBaseWait,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = cache.New(DefaultCacheTTL, 2*DefaultCacheTTL)
	}
	return c
}

// Exposed reports whether password appears in the range API's corpus.
// Any failure is logged and reported as not exposed.
func (c *RangeChecker) Exposed(ctx context.Context, password string) bool {
	if password == "" {
		return false
	}

	prefix, suffix := hashParts(password)

	ctx, span := tracer.Start(ctx, "breach.range_lookup",
		trace.WithAttributes(attribute.String("breach.prefix", prefix)),
	)
	defer span.End()

	counts, err := c.lookup(ctx, prefix)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		lookups.WithLabelValues(sourceRange, resultError).Inc()
		c.logger.WarnContext(ctx, "breach lookup failed, treating password as not exposed",
			"prefix", prefix,
			"error", err,
		)
		return false
	}

	exposed := counts[suffix] > 0
	span.SetAttributes(attribute.Bool("breach.exposed", exposed))
	recordLookup(sourceRange, exposed)
	return exposed
}

// lookup returns suffix counts for prefix, from cache when possible.
func (c *RangeChecker) lookup(ctx context.Context, prefix string) (map[string]int, error) {
	if cached, ok := c.cache.Get(prefix); ok {
		rangeCacheHits.Inc()
		trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("breach.cache_hit", true))
		counts, _ := cached.(map[string]int)
		return counts, nil
	}

	backoff := retry.WithMaxRetries(uint64(c.attempts-1), retry.NewExponential(c.baseWait)) //nolint:gosec // attempts >= 1

	var counts map[string]int
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var fetchErr error
		counts, fetchErr = c.fetch(ctx, prefix)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	c.cache.Set(prefix, counts, cache.DefaultExpiration)
	return counts, nil
}

// fetch performs one request. Network errors, 429 and 5xx responses are
// retryable.
func (c *RangeChecker) fetch(ctx context.Context, prefix string) (map[string]int, error) {
	url := c.endpoint + "/range/" + prefix
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, oops.Code("BREACH_REQUEST_INVALID").With("url", url).Wrap(err)
	}
	req.Header.Set("Add-Padding", "true")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		rangeRequests.WithLabelValues("network_error").Inc()
		return nil, retry.RetryableError(oops.Code("BREACH_REQUEST_FAILED").With("url", url).Wrap(err))
	}
	defer func() {
		_ = resp.Body.Close() //nolint:errcheck // body fully consumed or abandoned
	}()

	rangeRequests.WithLabelValues(statusClass(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, retry.RetryableError(oops.Code("BREACH_UPSTREAM_UNAVAILABLE").
			With("status", resp.StatusCode).
			Errorf("range API returned %d", resp.StatusCode))
	default:
		return nil, oops.Code("BREACH_UNEXPECTED_STATUS").
			With("status", resp.StatusCode).
			Errorf("range API returned %d", resp.StatusCode)
	}

	counts, err := parseRange(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, oops.Code("BREACH_RESPONSE_INVALID").With("prefix", prefix).Wrap(err)
	}
	return counts, nil
}

// hashParts returns the upper-case SHA-1 hex of password split into the
// five-character prefix and the remaining suffix.
func hashParts(password string) (prefix, suffix string) {
	sum := sha1.Sum([]byte(password)) //nolint:gosec // protocol requirement
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))
	return digest[:prefixLen], digest[prefixLen:]
}

// parseRange reads "SUFFIX:COUNT" lines. Blank lines are skipped; padding
// entries carry a zero count.
func parseRange(r io.Reader) (map[string]int, error) {
	counts := make(map[string]int)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		suffix, rawCount, ok := strings.Cut(line, ":")
		if !ok {
			return nil, oops.Errorf("malformed range line %q", line)
		}
		count, err := strconv.Atoi(strings.TrimSpace(rawCount))
		if err != nil {
			return nil, oops.With("line", line).Wrap(err)
		}
		counts[strings.ToUpper(suffix)] = count
	}
	if err := scanner.Err(); err != nil {
		return nil, oops.Wrap(err)
	}
	return counts, nil
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
