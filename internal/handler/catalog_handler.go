package handler

import (
	"net/http"

	"library-client/internal/devapi"
)

// CatalogHandler serves the public book and category listings
type CatalogHandler struct {
	lib *devapi.Library
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(lib *devapi.Library) *CatalogHandler {
	return &CatalogHandler{lib: lib}
}

func (h *CatalogHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.lib.Books())
}

func (h *CatalogHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	book, err := h.lib.Book(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// Search matches the search query parameter against title and author
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.lib.SearchBooks(r.URL.Query().Get("search")))
}

func (h *CatalogHandler) BooksByCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.lib.BooksByCategory(id))
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.lib.Categories())
}

func (h *CatalogHandler) TopRated(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.lib.TopRated())
}

func (h *CatalogHandler) MostPopular(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.lib.MostPopular())
}

func (h *CatalogHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.lib.HomeStats())
}
