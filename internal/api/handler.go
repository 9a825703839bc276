// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package api serves password evaluation over HTTP for forms that check a
// password as it is typed.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/pwstrength/internal/breach"
	"github.com/holomush/pwstrength/internal/observability"
	"github.com/holomush/pwstrength/internal/strength"
	"github.com/holomush/pwstrength/pkg/errutil"
)

var tracer = otel.Tracer("pwstrength/api")

// Request limits.
const (
	MaxBodyBytes      = 64 << 10
	MaxPasswordLength = 1024
)

// Error codes returned in the body of 4xx responses.
const (
	CodeInvalidJSON     = "REQUEST_INVALID_JSON"
	CodeInvalidRequest  = "REQUEST_INVALID"
	CodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// EvaluateRequest is the body of POST /v1/evaluate.
type EvaluateRequest struct {
	Password string `json:"password" validate:"max=1024"`
}

// SimilarRequest is the body of POST /v1/similar.
type SimilarRequest struct {
	Password string `json:"password" validate:"max=1024"`
	Previous string `json:"previous" validate:"max=1024"`
}

// ExposedRequest is the body of POST /v1/exposed.
type ExposedRequest struct {
	Password string `json:"password" validate:"max=1024"`
}

// SimilarResponse is the body returned by POST /v1/similar.
type SimilarResponse struct {
	Similar bool `json:"similar"`
}

// ExposedResponse is the body returned by POST /v1/exposed.
type ExposedResponse struct {
	Exposed bool `json:"exposed"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Handler holds the API dependencies.
type Handler struct {
	evaluator *strength.Evaluator
	checker   breach.Checker
	metrics   *observability.Metrics
	validate  *validator.Validate
	logger    *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithMetrics records request counts and latency into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler creates a Handler. A nil checker uses the local common
// password set.
func NewHandler(checker breach.Checker, opts ...Option) *Handler {
	if checker == nil {
		checker = breach.NewLocalChecker()
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})

	h := &Handler{
		evaluator: strength.NewEvaluator(),
		checker:   checker,
		validate:  v,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the API mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /v1/evaluate", h.instrument("/v1/evaluate", h.handleEvaluate))
	mux.Handle("POST /v1/similar", h.instrument("/v1/similar", h.handleSimilar))
	mux.Handle("POST /v1/exposed", h.instrument("/v1/exposed", h.handleExposed))
	return mux
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !h.decode(w, r, &req) {
		return
	}
	res := h.evaluator.Evaluate(req.Password)
	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.Int("strength.score", res.Score),
		attribute.String("strength.verdict", res.Verdict()),
	)
	h.writeJSON(w, r, http.StatusOK, res)
}

func (h *Handler) handleSimilar(w http.ResponseWriter, r *http.Request) {
	var req SimilarRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeJSON(w, r, http.StatusOK, SimilarResponse{Similar: strength.IsSimilar(req.Password, req.Previous)})
}

func (h *Handler) handleExposed(w http.ResponseWriter, r *http.Request) {
	var req ExposedRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeJSON(w, r, http.StatusOK, ExposedResponse{Exposed: h.checker.Exposed(r.Context(), req.Password)})
}

// decode reads a single JSON object into dst and validates it. On failure
// it writes the error response and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err == nil && dec.Decode(&struct{}{}) != io.EOF {
		err = errors.New("body must contain a single JSON object")
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, r, http.StatusRequestEntityTooLarge,
				oops.Code(CodeRequestTooLarge).With("limit", tooLarge.Limit).Errorf("request body too large"))
			return false
		}
		h.writeError(w, r, http.StatusBadRequest, oops.Code(CodeInvalidJSON).Wrapf(err, "invalid JSON body"))
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			err = oops.Code(CodeInvalidRequest).
				With("field", fe.Field()).
				Errorf("%s must be at most %s characters", fe.Field(), fe.Param())
		} else {
			err = oops.Code(CodeInvalidRequest).Wrap(err)
		}
		h.writeError(w, r, http.StatusBadRequest, err)
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.DebugContext(r.Context(), "response write failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	span := trace.SpanFromContext(r.Context())
	span.RecordError(err)
	span.SetStatus(codes.Error, errutil.Code(err))

	h.logger.LogAttrs(r.Context(), slog.LevelInfo, "request rejected",
		append(errutil.Attrs(err), slog.String("path", r.URL.Path), slog.Int("status", status))...)

	h.writeJSON(w, r, status, ErrorResponse{Error: err.Error(), Code: errutil.Code(err)})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument wraps fn with a span, request metrics and a debug log line.
// Request bodies are never logged.
func (h *Handler) instrument(route string, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := tracer.Start(r.Context(), "api"+strings.ReplaceAll(route, "/", "."),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("http.route", route)),
		)
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fn(rec, r.WithContext(ctx))

		elapsed := time.Since(start)
		span.SetAttributes(attribute.Int("http.status_code", rec.status))
		if h.metrics != nil {
			h.metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
			h.metrics.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		}
		h.logger.DebugContext(ctx, "request handled",
			"route", route,
			"status", rec.status,
			"duration", elapsed,
		)
	})
}
