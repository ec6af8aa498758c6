package handlers

import (
	"net/http"

	"media-catalog/internal/catalog"
)

// KeypointRequest marks a moment in a file with a tag.
type KeypointRequest struct {
	Tag       string   `json:"tag"`
	Timestamp float64  `json:"timestamp"`
	Duration  *float64 `json:"duration,omitempty"`
}

func (h *Handlers) AddKeypoint(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req KeypointRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	kp, err := h.catalog.AddKeypoint(r.Context(), id, catalog.KeypointRequest{
		Tag:       req.Tag,
		Timestamp: req.Timestamp,
		Duration:  req.Duration,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatusCode(w, kp, http.StatusCreated)
}

func (h *Handlers) DeleteKeypoint(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.DeleteKeypoint(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, "deleted")
}
