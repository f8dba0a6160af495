package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bookshelf/internal/apperr"
	"bookshelf/internal/config"
	"bookshelf/internal/respond"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id back to the client.
const RequestIDHeader = "X-Request-ID"

// Routes is implemented by every domain handler.
type Routes interface {
	Register(r chi.Router)
}

// NewRouter builds the middleware stack and mounts the ops and domain routes.
func NewRouter(cfg *config.Config, logger *zap.Logger, ops *OpsHandler, routes ...Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(
		RequestIDMiddleware,
		middleware.RealIP,
		AccessLogMiddleware(logger),
		PanicRecoveryMiddleware(logger),
		CORSMiddleware(cfg.Server.AllowedOrigin),
	)
	if cfg.Server.RequestTimeout > 0 {
		r.Use(DeadlineMiddleware(cfg.Server.RequestTimeout))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, logger, fmt.Errorf("no route for %s %s: %w", r.Method, r.URL.Path, apperr.ErrNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusMethodNotAllowed, respond.ErrorBody{
			RequestID: middleware.GetReqID(r.Context()),
			Error:     "method not allowed",
		})
	})

	ops.Register(r)
	for _, rt := range routes {
		rt.Register(r)
	}
	return r
}

// RequestIDMiddleware keeps a client supplied request id or generates one.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DeadlineMiddleware bounds the request context. Handlers see the expired
// context in their errors and answer 504 through respond.Error, so nothing is
// written here.
func DeadlineMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessLogMiddleware logs each request once it completed.
func AccessLogMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("request",
				zap.String("request.id", middleware.GetReqID(r.Context())),
				zap.String("request.method", r.Method),
				zap.String("request.path", r.URL.Path),
				zap.String("request.ip", r.RemoteAddr),
				zap.String("request.agent", r.UserAgent()),
				zap.Int("response.status", ww.Status()),
				zap.Int("response.bytes", ww.BytesWritten()),
				zap.Duration("request.duration", time.Since(start)),
			)
		})
	}
}

// PanicRecoveryMiddleware turns a panic into a logged 500 response.
func PanicRecoveryMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				respond.Error(w, r, logger, fmt.Errorf("panic: %v", rec))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware applies the cors headers and answers preflight requests.
func CORSMiddleware(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, "+RequestIDHeader)
			w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
