package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/dd0wney/cluso-patchbay/pkg/auth"
	"github.com/dd0wney/cluso-patchbay/pkg/logging"
)

// panicRecoveryMiddleware recovers from panics in HTTP handlers so a
// bad request cannot take the editor down.
func (s *Server) panicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic in HTTP handler",
					logging.String("method", r.Method),
					logging.String("path", r.URL.Path),
					logging.Any("panic", err),
					logging.String("stack", string(debug.Stack())))
				http.Error(w,
					fmt.Sprintf("Internal server error: %v", err),
					http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// Flush forwards to the underlying writer so event streams keep
// working through the recorder.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("duration", time.Since(start)))
	})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.metrics.HTTPRequestsInFlight.Inc()
		defer s.metrics.HTTPRequestsInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.RecordHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(rec.status), time.Since(start))
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bodySizeLimitMiddleware limits the size of incoming request bodies.
func (s *Server) bodySizeLimitMiddleware(next http.Handler, maxBytes int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > maxBytes {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		// Safety net for chunked transfer encoding.
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		next.ServeHTTP(w, r)
	})
}

// Context key for storing claims
type contextKey string

const claimsContextKey contextKey = "claims"

// authenticate validates the bearer token when auth is configured.
// With no JWT manager the editor runs open, as it does locally.
// Reports whether the request may proceed.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	if s.jwtManager == nil {
		return r, true
	}

	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		s.respondError(w, http.StatusUnauthorized, "Missing bearer token")
		return r, false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	claims, err := s.jwtManager.ValidateToken(r.Context(), token)
	if err != nil {
		s.logger.Warn("token validation failed", logging.Error(err))
		s.respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return r, false
	}

	if s.users != nil {
		if _, err := s.users.GetUserByID(claims.UserID); err != nil {
			s.respondError(w, http.StatusUnauthorized, "User not found")
			return r, false
		}
	}

	ctx := context.WithValue(r.Context(), claimsContextKey, claims)
	return r.WithContext(ctx), true
}

// requireEditor enforces an editing role on mutating endpoints.
// Reports whether the request may proceed.
func (s *Server) requireEditor(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	r, ok := s.authenticate(w, r)
	if !ok {
		return r, false
	}
	if s.jwtManager == nil {
		return r, true
	}
	claims := claimsFromContext(r.Context())
	if claims == nil || !auth.CanEdit(claims.Role) {
		s.respondError(w, http.StatusForbidden, "Editing requires the editor or admin role")
		return r, false
	}
	return r, true
}

// claimsFromContext returns the validated claims, or nil when the
// request was not authenticated.
func claimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}
