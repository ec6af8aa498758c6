package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"media-catalog/internal/database"
	"media-catalog/internal/errs"
	"media-catalog/internal/filesystem"
	"media-catalog/internal/logging"
	"media-catalog/internal/media"
)

// CreateRequest describes one file to ingest.
type CreateRequest struct {
	Path   string
	Fields database.ReferenceFields
	// Tags are "group:name" strings; a bare name lands in the default group.
	Tags []string
}

// Create ingests the file at req.Path. Probing and hashing run concurrently;
// duplicates are rejected before any thumbnail is generated; the thumbnails
// are staged, the rows committed in one transaction, and only then is the
// staged folder moved to its permanent location.
func (c *Catalog) Create(ctx context.Context, req CreateRequest) (*Entry, error) {
	entry, err := c.create(ctx, req)
	recordIngestion(err)
	return entry, err
}

func (c *Catalog) create(ctx context.Context, req CreateRequest) (*Entry, error) {
	if req.Path == "" {
		return nil, errs.BadInputf("path is required")
	}
	path, err := filepath.Abs(req.Path)
	if err != nil {
		return nil, errs.Wrap(errs.BadInput, err, "resolve %s", req.Path)
	}
	tags, err := parseTags(req.Tags)
	if err != nil {
		return nil, err
	}

	stat, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if errors.Is(err, os.ErrNotExist) {
		return nil, errs.NotFoundf("file %s", path)
	}
	if err != nil {
		return nil, err
	}
	if stat.IsDir() {
		return nil, errs.BadInputf("%s is a directory", path)
	}

	var (
		info     *media.FileInfo
		checksum string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stage("probe")()
		var err error
		info, err = c.prober.Probe(gctx, path)
		return err
	})
	g.Go(func() error {
		defer stage("checksum")()
		var err error
		checksum, err = media.Checksum(gctx, path)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logging.Debug("Probed %s: %s %s %dx%d %.3fs", path, info.MediaType, info.Codec, info.Width, info.Height, info.Duration)

	if err := c.checkDuplicate(ctx, path, checksum); err != nil {
		return nil, err
	}

	staging := c.stagingFolder()
	committed := false
	defer func() {
		if !committed {
			removeStaging(staging)
		}
	}()

	var (
		frames []media.Frame
		size   int64
	)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stage("thumbnails")()
		var err error
		frames, err = c.frames.Generate(gctx, info, staging)
		return err
	})
	g.Go(func() error {
		st, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
		if err != nil {
			return err
		}
		size = st.Size()
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	folder := media.ThumbnailFolder(c.thumbnailDir, checksum)
	file := &database.File{
		Filepath:               path,
		Filename:               filepath.Base(path),
		Checksum:               checksum,
		MediaType:              info.MediaType,
		Codec:                  info.Codec,
		ContentType:            info.ContentType,
		Animated:               info.Animated,
		Audio:                  info.Audio,
		Duration:               info.Duration,
		Framerate:              info.Framerate,
		Framecount:             info.Framecount,
		FilesizeBytes:          size,
		ThumbnailDirectoryPath: folder,
	}
	if info.MediaType.Graphical() {
		w, h := info.Width, info.Height
		file.Width, file.Height = &w, &h
	}

	var referenceID int64
	commitDone := stage("commit")
	err = c.db.WithTx(ctx, "create", func(tx *database.Tx) error {
		var err error
		referenceID, err = tx.InsertReference(false, nil, req.Fields)
		if err != nil {
			return err
		}
		file.ReferenceID = referenceID
		if err := tx.InsertFile(file); err != nil {
			return err
		}
		if err := attachTags(tx, referenceID, tags); err != nil {
			return err
		}
		for _, f := range frames {
			if err := tx.InsertThumbnail(&database.Thumbnail{
				FileID:         file.ID,
				Filepath:       filepath.Join(folder, f.Filename),
				MediaTimestamp: f.Timestamp,
				Kind:           database.ThumbnailStandard,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	commitDone()
	if err != nil {
		return nil, err
	}
	committed = true
	logging.Info("Ingested %s as reference %d (%d thumbnails)", path, referenceID, len(frames))

	moveDone := stage("move")
	if err := filesystem.MoveDir(staging, folder); err != nil {
		// The rows are committed; RegenerateThumbnails restores the folder.
		logging.Error("Failed to move thumbnails for reference %d into %s: %v", referenceID, folder, err)
		removeStaging(staging)
	}
	moveDone()

	return c.Get(ctx, referenceID, DefaultThumbnailPage, 0)
}

// checkDuplicate rejects a checksum already in the catalog, and a path
// already catalogued with different content.
func (c *Catalog) checkDuplicate(ctx context.Context, path, checksum string) error {
	existing, err := c.db.GetFileByChecksum(ctx, checksum)
	switch {
	case err == nil:
		if existing.Filepath == path {
			return errs.AlreadyExistsf("%s is already in the catalog as reference %d", path, existing.ReferenceID)
		}
		return errs.Duplicate(checksum, existing.Filepath)
	case !errs.Is(err, errs.NotFound):
		return err
	}

	existing, err = c.db.GetFileByPath(ctx, path)
	switch {
	case err == nil:
		return errs.AlreadyExistsf("%s is already in the catalog as reference %d with checksum %s",
			path, existing.ReferenceID, existing.Checksum)
	case !errs.Is(err, errs.NotFound):
		return err
	}
	return nil
}
