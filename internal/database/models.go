package database

import (
	"time"

	"media-catalog/internal/mediatypes"
)

// ThumbnailKind distinguishes generated preview frames from on-demand captures.
type ThumbnailKind string

const (
	ThumbnailStandard ThumbnailKind = "standard"
	ThumbnailKeypoint ThumbnailKind = "keypoint"
)

// Reference is a catalog entry: a standalone item backed by one File, or a
// series whose members are other references.
type Reference struct {
	ID              int64      `json:"id"`
	IsSeries        bool       `json:"isSeries"`
	SeriesName      *string    `json:"seriesName,omitempty"`
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	SourceURL       *string    `json:"sourceUrl,omitempty"`
	SourceCreatedAt *time.Time `json:"sourceCreatedAt,omitempty"`
	Metadata        *string    `json:"metadata,omitempty"`
	Stars           int        `json:"stars"`
	ViewCount       int        `json:"viewCount"`
	LastViewedAt    *time.Time `json:"lastViewedAt,omitempty"`
	TagCount        int        `json:"tagCount"`
	SeriesLength    int        `json:"seriesLength"`
	// MembershipCount is the number of series items pointing at this reference.
	MembershipCount int        `json:"membershipCount"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// File is the media file behind a non-series Reference.
type File struct {
	ID                     int64                `json:"id"`
	ReferenceID            int64                `json:"referenceId"`
	Filepath               string               `json:"filepath"`
	Filename               string               `json:"filename"`
	Checksum               string               `json:"checksum"`
	MediaType              mediatypes.MediaType `json:"mediaType"`
	Codec                  string               `json:"codec"`
	ContentType            string               `json:"contentType"`
	Width                  *int                 `json:"width,omitempty"`
	Height                 *int                 `json:"height,omitempty"`
	Animated               bool                 `json:"animated"`
	Audio                  bool                 `json:"audio"`
	Duration               float64              `json:"duration"`
	Framerate              float64              `json:"framerate"`
	Framecount             int                  `json:"framecount"`
	FilesizeBytes          int64                `json:"filesizeBytes"`
	ThumbnailDirectoryPath string               `json:"thumbnailDirectoryPath"`
	ThumbnailCount         int                  `json:"thumbnailCount"`
	KeypointCount          int                  `json:"keypointCount"`
	CreatedAt              time.Time            `json:"createdAt"`
}

// Thumbnail is one image stored for a File.
type Thumbnail struct {
	ID             int64         `json:"id"`
	FileID         int64         `json:"fileId"`
	Filepath       string        `json:"filepath"`
	MediaTimestamp float64       `json:"mediaTimestamp"`
	Kind           ThumbnailKind `json:"kind"`
}

// ThumbnailPage is a window of a file's thumbnails.
type ThumbnailPage struct {
	Total   int         `json:"total"`
	Results []Thumbnail `json:"results"`
}

// TagGroup namespaces tags. The default group has an empty name.
type TagGroup struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"name"`
	ReferenceCount       int    `json:"referenceCount"`
	UnreadReferenceCount int    `json:"unreadReferenceCount"`
}

// Tag is a name inside a TagGroup.
type Tag struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"name"`
	Group                string `json:"group"`
	GroupID              int64  `json:"groupId"`
	ReferenceCount       int    `json:"referenceCount"`
	UnreadReferenceCount int    `json:"unreadReferenceCount"`
}

// String renders the tag as "group:name", or just the name in the default group.
func (t Tag) String() string {
	if t.Group == "" {
		return t.Name
	}
	return t.Group + ":" + t.Name
}

// SeriesItem places a member reference at an index inside a series.
type SeriesItem struct {
	ID          int64 `json:"id"`
	SeriesID    int64 `json:"seriesId"`
	ReferenceID int64 `json:"referenceId"`
	SeriesIndex int   `json:"seriesIndex"`
}

// Keypoint marks an instant or interval on a file's timeline.
type Keypoint struct {
	ID             int64    `json:"id"`
	FileID         int64    `json:"fileId"`
	TagID          int64    `json:"tagId"`
	Tag            string   `json:"tag"`
	MediaTimestamp float64  `json:"mediaTimestamp"`
	Duration       *float64 `json:"duration,omitempty"`
}

// ReferenceFields holds the caller-editable reference metadata. A nil field
// means "not supplied".
type ReferenceFields struct {
	Title           *string
	Description     *string
	SourceURL       *string
	SourceCreatedAt *time.Time
	Metadata        *string
	Stars           *int
	ViewCount       *int
	LastViewedAt    *time.Time
}
