package handlers

import (
	"net/http"

	"media-catalog/internal/catalog"
	"media-catalog/internal/database"
)

// Search returns one keyset page of references matching the query.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	var req catalog.SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.catalog.Search(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, page)
}

// Group returns one page of the tags of a tag group with member counts and,
// optionally, a first page of members per tag.
func (h *Handlers) Group(w http.ResponseWriter, r *http.Request) {
	var req catalog.GroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.catalog.Group(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, page)
}

// ListTags returns all tags, or the tags of one group, with their counters.
func (h *Handlers) ListTags(w http.ResponseWriter, r *http.Request) {
	var group *string
	if g := r.URL.Query().Get("group"); g != "" {
		group = &g
	}

	tags, err := h.catalog.ListTags(r.Context(), group)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tags == nil {
		tags = []database.Tag{}
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, tags)
}
