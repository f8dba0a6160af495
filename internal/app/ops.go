package app

import (
	"context"
	_ "embed"
	"net/http"
	"runtime"
	"time"

	"bookshelf/internal/clock"
	"bookshelf/internal/respond"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

//go:embed web/index.html
var indexPage []byte

// BookCounter reports the size of the catalog.
type BookCounter interface {
	CountBooks(ctx context.Context) (int, error)
}

// Statistics describes the running instance.
type Statistics struct {
	Version   string
	Commit    string
	BuildTime string
	Started   time.Time
}

type HealthResponse struct {
	Status     string `json:"status"`
	BooksCount int    `json:"books_count"`
	Error      string `json:"error,omitempty"`
}

type StatusResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	Started   string `json:"started"`
	Uptime    string `json:"uptime"`
	Runtime   string `json:"runtime"`
	Platform  string `json:"platform"`
}

// OpsHandler serves the health, status and frontend endpoints.
type OpsHandler struct {
	books  BookCounter
	stats  Statistics
	clock  clock.Clocker
	logger *zap.Logger
}

func NewOpsHandler(books BookCounter, stats Statistics, ck clock.Clocker, logger *zap.Logger) *OpsHandler {
	return &OpsHandler{books: books, stats: stats, clock: ck, logger: logger}
}

func (h *OpsHandler) Register(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Get("/health", h.handleHealth)
	r.Get("/status", h.handleStatus)
}

func (h *OpsHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(indexPage); err != nil {
		h.logger.Error("failed to send index page", zap.String("request.id", middleware.GetReqID(r.Context())), zap.Error(err))
	}
}

// handleHealth reports healthy only when the database answers.
func (h *OpsHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := h.books.CountBooks(r.Context())
	if err != nil {
		h.logger.Error("health check failed", zap.String("request.id", middleware.GetReqID(r.Context())), zap.Error(err))
		respond.OK(w, r, h.logger, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Error: "database unavailable"})
		return
	}
	respond.OK(w, r, h.logger, http.StatusOK, HealthResponse{Status: "healthy", BooksCount: n})
}

func (h *OpsHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, r, h.logger, http.StatusOK, StatusResponse{
		Version:   h.stats.Version,
		Commit:    h.stats.Commit,
		BuildTime: h.stats.BuildTime,
		Started:   h.stats.Started.Format(time.RFC3339),
		Uptime:    h.clock.Now().Sub(h.stats.Started).Round(time.Second).String(),
		Runtime:   runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	})
}
