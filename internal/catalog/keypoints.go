package catalog

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"media-catalog/internal/database"
	"media-catalog/internal/errs"
	"media-catalog/internal/filesystem"
	"media-catalog/internal/logging"
	"media-catalog/internal/media"
)

// KeypointRequest marks an instant, or an interval when Duration is set, on
// a file's timeline.
type KeypointRequest struct {
	Tag       string
	Timestamp float64
	Duration  *float64
}

// AddKeypoint records a keypoint on the file behind referenceID. For
// graphical media the frame at the timestamp is captured and stored as a
// keypoint thumbnail; captures at the same timestamp are shared.
func (c *Catalog) AddKeypoint(ctx context.Context, referenceID int64, req KeypointRequest) (*database.Keypoint, error) {
	group, name, err := database.ParseTag(req.Tag)
	if err != nil {
		return nil, err
	}
	file, err := c.db.GetFileByReference(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	if req.Timestamp < 0 || (file.Duration > 0 && req.Timestamp > file.Duration) {
		return nil, errs.BadInputf("timestamp %v outside 0..%v", req.Timestamp, file.Duration)
	}

	var staging, captured string
	if file.MediaType.Graphical() {
		staging = c.stagingFolder()
		defer removeStaging(staging)
		captured, err = c.frames.CaptureAt(ctx, fileInfo(file), req.Timestamp, staging)
		if err != nil {
			return nil, err
		}
	}

	dest := ""
	kp := &database.Keypoint{FileID: file.ID, MediaTimestamp: req.Timestamp, Duration: req.Duration}
	err = c.db.WithTx(ctx, "add_keypoint", func(tx *database.Tx) error {
		tag, err := tx.GetOrCreateTag(group, name)
		if err != nil {
			return err
		}
		kp.TagID, kp.Tag = tag.ID, tag.String()
		if err := tx.InsertKeypoint(kp); err != nil {
			return err
		}
		if captured == "" {
			return nil
		}

		exists, err := tx.HasKeypointThumbnail(file.ID, req.Timestamp)
		if err != nil || exists {
			return err
		}
		dest = filepath.Join(media.KeypointFolder(file.ThumbnailDirectoryPath), captured)
		return tx.InsertThumbnail(&database.Thumbnail{
			FileID:         file.ID,
			Filepath:       dest,
			MediaTimestamp: req.Timestamp,
			Kind:           database.ThumbnailKeypoint,
		})
	})
	if err != nil {
		return nil, err
	}

	if dest != "" {
		if err := filesystem.MoveFile(filepath.Join(staging, captured), dest); err != nil {
			logging.Error("Failed to move keypoint capture into %s: %v", dest, err)
		}
	}
	logging.Debug("Added keypoint %s at %.3fs on reference %d", kp.Tag, kp.MediaTimestamp, referenceID)
	return kp, nil
}

// DeleteKeypoint removes a keypoint, and its capture when no other keypoint
// shares the timestamp.
func (c *Catalog) DeleteKeypoint(ctx context.Context, id int64) error {
	var path string
	err := c.db.WithTx(ctx, "delete_keypoint", func(tx *database.Tx) error {
		var err error
		path, err = tx.DeleteKeypoint(id)
		return err
	})
	if err != nil {
		return err
	}
	if path != "" {
		if err := filesystem.RemoveFile(path); err != nil {
			logging.Warn("Failed to remove keypoint capture %s: %v", path, err)
		}
	}
	return nil
}

// RegenerateThumbnails re-extracts the standard thumbnails of a file from
// its stored properties and replaces the rows and images. Keypoint captures
// are left alone. It restores a folder lost between commit and move.
func (c *Catalog) RegenerateThumbnails(ctx context.Context, referenceID int64) (*Entry, error) {
	file, err := c.db.GetFileByReference(ctx, referenceID)
	if err != nil {
		return nil, err
	}

	staging := c.stagingFolder()
	defer removeStaging(staging)

	frames, err := c.frames.Generate(ctx, fileInfo(file), staging)
	if err != nil {
		return nil, err
	}

	folder := file.ThumbnailDirectoryPath
	thumbs := lo.Map(frames, func(f media.Frame, _ int) database.Thumbnail {
		return database.Thumbnail{Filepath: filepath.Join(folder, f.Filename), MediaTimestamp: f.Timestamp}
	})
	err = c.db.WithTx(ctx, "regenerate_thumbnails", func(tx *database.Tx) error {
		return tx.ReplaceStandardThumbnails(file.ID, thumbs)
	})
	if err != nil {
		return nil, err
	}

	keep := make(map[string]bool, len(frames))
	for _, f := range frames {
		keep[f.Filename] = true
		if err := filesystem.MoveFile(filepath.Join(staging, f.Filename), filepath.Join(folder, f.Filename)); err != nil {
			logging.Error("Failed to move regenerated thumbnail %s: %v", f.Filename, err)
		}
	}
	pruneFrames(folder, keep)

	logging.Info("Regenerated %d thumbnails for reference %d", len(frames), referenceID)
	return c.Get(ctx, referenceID, DefaultThumbnailPage, 0)
}

// pruneFrames removes standard frames in folder that are not in keep. The
// keypoints sub-directory is not touched.
func pruneFrames(folder string, keep map[string]bool) {
	entries, err := filesystem.ReadDirWithRetry(folder, filesystem.DefaultRetryConfig())
	if err != nil {
		logging.Warn("Failed to list %s: %v", folder, err)
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jpg") || keep[e.Name()] {
			continue
		}
		if err := filesystem.RemoveFile(filepath.Join(folder, e.Name())); err != nil {
			logging.Warn("Failed to remove stale thumbnail %s: %v", e.Name(), err)
		}
	}
}
