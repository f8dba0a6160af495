package catalog

import (
	"net/http"

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

// Register mounts the book routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/books", h.handleListBooks)
	r.Post("/books", h.handleAddBook)
	r.Get("/books/{isbn}", h.handleGetBook)
	r.Delete("/books/{isbn}", h.handleDeleteBook)
}

func (h *Handler) handleListBooks(w http.ResponseWriter, r *http.Request) {
	page, err := respond.ParsePage(r, h.pagination)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	q := r.URL.Query()
	filter := Filter{
		Author: q.Get("author"),
		Title:  q.Get("title"),
		Status: Status(q.Get("status")),
	}

	books, total, err := h.service.ListBooks(r.Context(), filter, page)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	respond.OK(w, r, h.logger, http.StatusOK, respond.NewList(books, total, page))
}

func (h *Handler) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ISBN string `json:"isbn"`
	}
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	book, err := h.service.AddBook(r.Context(), req.ISBN)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	respond.OK(w, r, h.logger, http.StatusCreated, book)
}

func (h *Handler) handleGetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.service.GetBook(r.Context(), chi.URLParam(r, "isbn"))
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	respond.OK(w, r, h.logger, http.StatusOK, book)
}

func (h *Handler) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	code, err := h.service.DeleteBook(r.Context(), chi.URLParam(r, "isbn"))
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	respond.OK(w, r, h.logger, http.StatusOK, respond.Detail{Detail: "Book " + code + " deleted"})
}
