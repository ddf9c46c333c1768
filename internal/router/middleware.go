package router

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-streak-go/pkg/utilities"
)

// RequestIDHeader carries the correlation ID in and out of the service.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen caps how much of a caller-supplied ID is trusted.
const maxRequestIDLen = 64

type requestIDKey struct{}

// RequestID returns the correlation ID stored by WithRequestID, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithRequestID echoes the caller's X-Request-ID, or mints a KSUID when it
// is missing or oversized, and stores it on the request context.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = utilities.NewKSUID()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// statusRecorder keeps the first status a handler commits to.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status != 0 {
		return
	}
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.WriteHeader(http.StatusOK)
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func (s *statusRecorder) committed() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}

// AccessLog writes one "http request" entry per request. Server errors log
// at error level, client errors at info, the rest at debug. A handler panic
// becomes a 500.
func AccessLog(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			began := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				if p := recover(); p != nil {
					logger.Errorw("handler panic", "request_id", RequestID(r.Context()), "path", r.URL.Path, "panic", p)
					if rec.status == 0 {
						http.Error(rec, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					}
				}
				status := rec.committed()
				log := logger.Debugw
				switch {
				case status >= 500:
					log = logger.Errorw
				case status >= 400:
					log = logger.Infow
				}
				log("http request",
					"request_id", RequestID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"elapsed", time.Since(began),
					"bytes", rec.bytes,
				)
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

// apiHeaders go on every response. Bodies are per-user JSON.
var apiHeaders = map[string]string{
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"Referrer-Policy":         "no-referrer",
	"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	"Cache-Control":           "no-store",
}

// hstsValue is sent once the request reached us over HTTPS, directly or via
// a proxy that says so.
const hstsValue = "max-age=31536000"

// HardenResponses stamps apiHeaders and, for HTTPS traffic, HSTS.
func HardenResponses(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for k, v := range apiHeaders {
			h.Set(k, v)
		}
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			h.Set("Strict-Transport-Security", hstsValue)
		}
		next.ServeHTTP(w, r)
	})
}
