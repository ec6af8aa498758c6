package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/database"
	"media-catalog/internal/errs"
)

// ReferenceFields are the user-editable reference columns. Omitted fields
// are left unchanged.
type ReferenceFields struct {
	Title           *string         `json:"title,omitempty"`
	Description     *string         `json:"description,omitempty"`
	SourceURL       *string         `json:"sourceUrl,omitempty"`
	SourceCreatedAt *time.Time      `json:"sourceCreatedAt,omitempty"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
	Stars           *int            `json:"stars,omitempty"`
	ViewCount       *int            `json:"viewCount,omitempty"`
	LastViewedAt    *time.Time      `json:"lastViewedAt,omitempty"`
}

func (f ReferenceFields) toDatabase() (database.ReferenceFields, error) {
	out := database.ReferenceFields{
		Title:           f.Title,
		Description:     f.Description,
		SourceURL:       f.SourceURL,
		SourceCreatedAt: f.SourceCreatedAt,
		Stars:           f.Stars,
		ViewCount:       f.ViewCount,
		LastViewedAt:    f.LastViewedAt,
	}
	if len(f.Metadata) > 0 {
		if !json.Valid(f.Metadata) {
			return out, errs.BadInputf("metadata is not valid JSON")
		}
		metadata := string(f.Metadata)
		out.Metadata = &metadata
	}
	return out, nil
}

// CreateMediaRequest ingests a file already on disk.
type CreateMediaRequest struct {
	Path string   `json:"path"`
	Tags []string `json:"tags,omitempty"`
	ReferenceFields
}

// UpdateMediaRequest edits a reference and its tags.
type UpdateMediaRequest struct {
	AddTags    []string `json:"addTags,omitempty"`
	RemoveTags []string `json:"removeTags,omitempty"`
	ReferenceFields
}

// CreateMedia runs the ingestion pipeline on a path.
func (h *Handlers) CreateMedia(w http.ResponseWriter, r *http.Request) {
	var req CreateMediaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Path == "" {
		writeError(w, r, errs.BadInputf("path is required"))
		return
	}
	fields, err := req.toDatabase()
	if err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := h.catalog.Create(r.Context(), catalog.CreateRequest{
		Path:   req.Path,
		Fields: fields,
		Tags:   req.Tags,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatusCode(w, entry, http.StatusCreated)
}

// GetMedia returns a reference with a window of its thumbnails.
func (h *Handlers) GetMedia(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, offset, err := thumbnailWindow(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := h.catalog.Get(r.Context(), id, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, entry)
}

// GetMediaByPath looks a reference up by the absolute path of its file.
func (h *Handlers) GetMediaByPath(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, r, errs.BadInputf("path is required"))
		return
	}
	limit, offset, err := thumbnailWindow(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := h.catalog.GetByPath(r.Context(), path, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, entry)
}

func thumbnailWindow(r *http.Request) (limit, offset int, err error) {
	if limit, err = queryInt(r, "thumbLimit", catalog.DefaultThumbnailPage); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(r, "thumbOffset", 0); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// UpdateMedia merges fields into a reference and adds or removes tags.
func (h *Handlers) UpdateMedia(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req UpdateMediaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	fields, err := req.toDatabase()
	if err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := h.catalog.Update(r.Context(), id, catalog.UpdateRequest{
		Fields:     fields,
		AddTags:    req.AddTags,
		RemoveTags: req.RemoveTags,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, entry)
}

// MarkViewed records one view of a reference.
func (h *Handlers) MarkViewed(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ref, err := h.catalog.MarkViewed(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ref)
}

// DeleteMedia removes a reference and its thumbnail folder. The media file
// itself is never touched.
func (h *Handlers) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, "deleted")
}

// RegenerateThumbnails re-extracts the standard thumbnails of a reference.
func (h *Handlers) RegenerateThumbnails(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := h.catalog.RegenerateThumbnails(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, entry)
}
