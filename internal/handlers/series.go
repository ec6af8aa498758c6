package handlers

import (
	"net/http"

	"media-catalog/internal/catalog"
)

// CreateSeriesRequest creates an empty series.
type CreateSeriesRequest struct {
	Name string   `json:"name"`
	Tags []string `json:"tags,omitempty"`
	ReferenceFields
}

// AddSeriesItemRequest appends or inserts a member into a series.
type AddSeriesItemRequest struct {
	MemberID int64 `json:"memberId"`
	// Index defaults to the end of the series.
	Index *int `json:"index,omitempty"`
}

func (h *Handlers) CreateSeries(w http.ResponseWriter, r *http.Request) {
	var req CreateSeriesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	fields, err := req.toDatabase()
	if err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := h.catalog.CreateSeries(r.Context(), catalog.SeriesRequest{
		Name:   req.Name,
		Fields: fields,
		Tags:   req.Tags,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatusCode(w, entry, http.StatusCreated)
}

func (h *Handlers) AddSeriesItem(w http.ResponseWriter, r *http.Request) {
	seriesID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req AddSeriesItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.catalog.AddToSeries(r.Context(), seriesID, req.MemberID, req.Index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatusCode(w, item, http.StatusCreated)
}

func (h *Handlers) RemoveSeriesItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.catalog.RemoveFromSeries(r.Context(), itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, item)
}
