package catalog

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"media-catalog/internal/database"
	"media-catalog/internal/errs"
	"media-catalog/internal/filesystem"
	"media-catalog/internal/logging"
	"media-catalog/internal/media"
	"media-catalog/internal/metrics"
)

// DefaultThumbnailPage is how many thumbnails an entry carries unless the
// caller asks for a different window.
const DefaultThumbnailPage = 18

// Prober reports a file's media properties.
type Prober interface {
	Probe(ctx context.Context, path string) (*media.FileInfo, error)
}

// FrameGenerator writes preview frames and on-demand captures.
type FrameGenerator interface {
	Generate(ctx context.Context, info *media.FileInfo, dir string) ([]media.Frame, error)
	CaptureAt(ctx context.Context, info *media.FileInfo, timestamp float64, dir string) (string, error)
}

// Config locates the catalog's thumbnail storage.
type Config struct {
	// ThumbnailDir is the root of the content-addressed thumbnail tree.
	ThumbnailDir string
	// StagingDir holds in-progress thumbnail output. It should sit on the
	// same filesystem as ThumbnailDir so moves are renames.
	StagingDir string
}

// Catalog is the ingestion pipeline and query engine over one store.
// Ingestion of distinct files is expected to be serialized by the caller.
type Catalog struct {
	db           *database.Database
	prober       Prober
	frames       FrameGenerator
	thumbnailDir string
	stagingDir   string
}

// New returns a Catalog.
func New(db *database.Database, prober Prober, frames FrameGenerator, cfg Config) *Catalog {
	return &Catalog{
		db:           db,
		prober:       prober,
		frames:       frames,
		thumbnailDir: cfg.ThumbnailDir,
		stagingDir:   cfg.StagingDir,
	}
}

// Entry is a reference composed with its file, tags, a window of thumbnails
// and its keypoints.
type Entry struct {
	Reference  *database.Reference     `json:"reference"`
	File       *database.File          `json:"file,omitempty"`
	Tags       []database.Tag          `json:"tags"`
	Thumbnails *database.ThumbnailPage `json:"thumbnails,omitempty"`
	Keypoints  []database.Keypoint     `json:"keypoints,omitempty"`
}

// stagingFolder returns a fresh directory name under the staging root.
func (c *Catalog) stagingFolder() string {
	return filepath.Join(c.stagingDir, uuid.NewString())
}

func removeStaging(dir string) {
	if err := filesystem.RemoveDir(dir); err != nil {
		logging.Warn("Failed to remove staging dir %s: %v", dir, err)
	}
}

// stage times one ingestion stage.
func stage(name string) func() {
	start := time.Now()
	return func() {
		metrics.IngestionDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}

func recordIngestion(err error) {
	outcome := "created"
	if err != nil {
		outcome = errs.KindOf(err).String()
	}
	metrics.IngestionsTotal.WithLabelValues(outcome).Inc()
}

// fileInfo rebuilds probe output from a stored file row.
func fileInfo(f *database.File) *media.FileInfo {
	info := &media.FileInfo{
		Path:        f.Filepath,
		MediaType:   f.MediaType,
		Codec:       f.Codec,
		ContentType: f.ContentType,
		Animated:    f.Animated,
		Audio:       f.Audio,
		Duration:    f.Duration,
		Framerate:   f.Framerate,
		Framecount:  f.Framecount,
	}
	if f.Width != nil && f.Height != nil {
		info.Width, info.Height = *f.Width, *f.Height
	}
	return info
}

// parseTags normalizes tag strings and drops repeats.
func parseTags(raw []string) ([][2]string, error) {
	seen := make(map[[2]string]bool, len(raw))
	out := make([][2]string, 0, len(raw))
	for _, s := range raw {
		group, name, err := database.ParseTag(s)
		if err != nil {
			return nil, err
		}
		key := [2]string{group, name}
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out, nil
}

func attachTags(tx *database.Tx, referenceID int64, tags [][2]string) error {
	for _, t := range tags {
		tag, err := tx.GetOrCreateTag(t[0], t[1])
		if err != nil {
			return err
		}
		if _, err := tx.AttachTag(referenceID, tag); err != nil {
			return err
		}
	}
	return nil
}
