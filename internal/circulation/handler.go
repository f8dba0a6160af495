package circulation

import (
	"net/http"

	"bookshelf/internal/membership"
	"bookshelf/internal/respond"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the borrow, return and history routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/borrow", h.handleBorrow)
	r.Post("/return", h.handleReturn)
	r.Get("/members/{id}/borrows", h.handleMemberHistory)
	r.Get("/books/{isbn}/borrows", h.handleBookHistory)
}

type borrowRequest struct {
	MemberID int64  `json:"member_id"`
	ISBN     string `json:"isbn"`
}

func (h *Handler) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	rec, err := h.service.Borrow(r.Context(), req.MemberID, req.ISBN)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	respond.OK(w, r, h.logger, http.StatusCreated, rec)
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	rec, err := h.service.Return(r.Context(), req.MemberID, req.ISBN)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	respond.OK(w, r, h.logger, http.StatusOK, rec)
}

func (h *Handler) handleMemberHistory(w http.ResponseWriter, r *http.Request) {
	id, err := membership.ParseID(r, "id")
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	activeOnly, err := respond.ParseBool(r, "active_only")
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	records, err := h.service.MemberHistory(r.Context(), id, activeOnly)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	respond.OK(w, r, h.logger, http.StatusOK, records)
}

func (h *Handler) handleBookHistory(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := respond.ParseBool(r, "active_only")
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	records, err := h.service.BookHistory(r.Context(), chi.URLParam(r, "isbn"), activeOnly)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	respond.OK(w, r, h.logger, http.StatusOK, records)
}
