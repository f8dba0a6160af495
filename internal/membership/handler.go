package membership

import (
	"fmt"
	"net/http"
	"strconv"

	"bookshelf/internal/apperr"
	"bookshelf/internal/config"
	"bookshelf/internal/respond"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	service    Service
	pagination config.PaginationConfig
	logger     *zap.Logger
}

func NewHandler(service Service, pagination config.PaginationConfig, logger *zap.Logger) *Handler {
	return &Handler{service: service, pagination: pagination, logger: logger}
}

// Register mounts the member routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/members", h.handleRegisterMember)
	r.Get("/members", h.handleListMembers)
	r.Get("/members/{id}", h.handleGetMember)
}

// ParseID reads a member id path parameter.
func ParseID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid member id %q: %w", raw, apperr.ErrValidation)
	}
	return id, nil
}

func (h *Handler) handleRegisterMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	member, err := h.service.RegisterMember(r.Context(), req.Name)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	respond.OK(w, r, h.logger, http.StatusCreated, member)
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	page, err := respond.ParsePage(r, h.pagination)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	members, total, err := h.service.ListMembers(r.Context(), page)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	respond.OK(w, r, h.logger, http.StatusOK, respond.NewList(members, total, page))
}

func (h *Handler) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	member, err := h.service.GetMember(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	respond.OK(w, r, h.logger, http.StatusOK, member)
}
