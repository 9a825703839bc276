// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package breach

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	passwordPrefix = "5BAA6"
	passwordSuffix = "1E4C9B93F3F0682250B6CF8331B7EE68FD8"
)

// rangeServer serves canned responses and counts requests.
type rangeServer struct {
	*httptest.Server
	requests atomic.Int32
}

func newRangeServer(t *testing.T, handler func(n int32, w http.ResponseWriter, r *http.Request)) *rangeServer {
	t.Helper()
	rs := &rangeServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := rs.requests.Add(1)
		handler(n, w, r)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func newTestChecker(rs *rangeServer, opts ...RangeOption) *RangeChecker {
	base := []RangeOption{
		WithHTTPClient(rs.Client()),
		WithBaseWait(time.Millisecond),
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	}
	return NewRangeChecker(rs.URL, append(base, opts...)...)
}

func TestHashParts(t *testing.T) {
	prefix, suffix := hashParts("password")
	assert.Equal(t, passwordPrefix, prefix)
	assert.Equal(t, passwordSuffix, suffix)
}

func TestParseRange(t *testing.T) {
	t.Run("parses counts and skips blanks", func(t *testing.T) {
		body := "0018A45C4D1DEF81644B54AB7F969B88D65:1\r\n\r\n00D4F6E8FA6EECAD2A3AA415EEC418D38EC:0\r\n"
		counts, err := parseRange(strings.NewReader(body))
		require.NoError(t, err)
		assert.Equal(t, map[string]int{
			"0018A45C4D1DEF81644B54AB7F969B88D65": 1,
			"00D4F6E8FA6EECAD2A3AA415EEC418D38EC": 0,
		}, counts)
	})

	t.Run("lowercase suffix is normalized", func(t *testing.T) {
		counts, err := parseRange(strings.NewReader("abc:3"))
		require.NoError(t, err)
		assert.Equal(t, 3, counts["ABC"])
	})

	t.Run("missing separator is an error", func(t *testing.T) {
		_, err := parseRange(strings.NewReader("nocolon"))
		assert.Error(t, err)
	})

	t.Run("non-numeric count is an error", func(t *testing.T) {
		_, err := parseRange(strings.NewReader("ABC:lots"))
		assert.Error(t, err)
	})
}

func TestRangeChecker_Exposed(t *testing.T) {
	t.Run("reports exposed suffix", func(t *testing.T) {
		rs := newRangeServer(t, func(_ int32, w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/range/"+passwordPrefix, r.URL.Path)
			assert.Equal(t, "true", r.Header.Get("Add-Padding"))
			fmt.Fprintf(w, "0018A45C4D1DEF81644B54AB7F969B88D65:1\r\n%s:9659365\r\n", passwordSuffix)
		})

		assert.True(t, newTestChecker(rs).Exposed(context.Background(), "password"))
	})

	t.Run("padding entry with zero count is not exposed", func(t *testing.T) {
		rs := newRangeServer(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
			fmt.Fprintf(w, "%s:0\r\n", passwordSuffix)
		})

		assert.False(t, newTestChecker(rs).Exposed(context.Background(), "password"))
	})

	t.Run("absent suffix is not exposed", func(t *testing.T) {
		rs := newRangeServer(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "0018A45C4D1DEF81644B54AB7F969B88D65:1\r\n")
		})

		assert.False(t, newTestChecker(rs).Exposed(context.Background(), "password"))
	})

	t.Run("empty password skips the network", func(t *testing.T) {
		rs := newRangeServer(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		assert.False(t, newTestChecker(rs).Exposed(context.Background(), ""))
		assert.Equal(t, int32(0), rs.requests.Load())
	})
}

func TestRangeChecker_CachesPrefix(t *testing.T) {
	rs := newRangeServer(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, "%s:5\r\n", passwordSuffix)
	})
	checker := newTestChecker(rs, WithCacheTTL(time.Minute))

	hitsBefore := testutil.ToFloat64(rangeCacheHits)

	assert.True(t, checker.Exposed(context.Background(), "password"))
	assert.True(t, checker.Exposed(context.Background(), "password"))

	assert.Equal(t, int32(1), rs.requests.Load())
	assert.Equal(t, hitsBefore+1, testutil.ToFloat64(rangeCacheHits))
}

func TestRangeChecker_RetriesTransientFailures(t *testing.T) {
	rs := newRangeServer(t, func(n int32, w http.ResponseWriter, _ *http.Request) {
		switch n {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			fmt.Fprintf(w, "%s:2\r\n", passwordSuffix)
		}
	})

	assert.True(t, newTestChecker(rs, WithAttempts(3)).Exposed(context.Background(), "password"))
	assert.Equal(t, int32(3), rs.requests.Load())
}

func TestRangeChecker_FailsOpen(t *testing.T) {
	t.Run("gives up after all attempts", func(t *testing.T) {
		rs := newRangeServer(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		errorsBefore := testutil.ToFloat64(lookups.WithLabelValues(sourceRange, resultError))

		assert.False(t, newTestChecker(rs, WithAttempts(2)).Exposed(context.Background(), "password"))
		assert.Equal(t, int32(2), rs.requests.Load())
		assert.Equal(t, errorsBefore+1, testutil.ToFloat64(lookups.WithLabelValues(sourceRange, resultError)))
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		rs := newRangeServer(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		})

		assert.False(t, newTestChecker(rs, WithAttempts(5)).Exposed(context.Background(), "password"))
		assert.Equal(t, int32(1), rs.requests.Load())
	})

	t.Run("malformed body", func(t *testing.T) {
		rs := newRangeServer(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "<html>maintenance</html>")
		})

		assert.False(t, newTestChecker(rs).Exposed(context.Background(), "password"))
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		rs := newRangeServer(t, func(_ int32, _ http.ResponseWriter, _ *http.Request) {})
		checker := newTestChecker(rs, WithAttempts(1))
		rs.Close()

		assert.False(t, checker.Exposed(context.Background(), "password"))
	})

	t.Run("cancelled context", func(t *testing.T) {
		rs := newRangeServer(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
			fmt.Fprintf(w, "%s:2\r\n", passwordSuffix)
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.False(t, newTestChecker(rs).Exposed(ctx, "password"))
	})

	t.Run("logs the failure without the password", func(t *testing.T) {
		rs := newRangeServer(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		var buf bytes.Buffer
		checker := newTestChecker(rs,
			WithAttempts(1),
			WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		)

		assert.False(t, checker.Exposed(context.Background(), "password"))
		assert.Contains(t, buf.String(), "breach lookup failed")
		assert.Contains(t, buf.String(), passwordPrefix)
		assert.NotContains(t, buf.String(), "password\"")
	})
}

func TestNewRangeChecker_Defaults(t *testing.T) {
	c := NewRangeChecker("")
	assert.Equal(t, DefaultEndpoint, c.endpoint)
	assert.Equal(t, DefaultAttempts, c.attempts)
	assert.Equal(t, DefaultTimeout, c.client.Timeout)

	c = NewRangeChecker("https://example.test/", WithTimeout(time.Second), WithAttempts(0))
	assert.Equal(t, "https://example.test", c.endpoint)
	assert.Equal(t, time.Second, c.client.Timeout)
	assert.Equal(t, DefaultAttempts, c.attempts)
}
