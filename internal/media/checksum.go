package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"media-catalog/internal/filesystem"
)

// ctxReader fails the next Read once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// Checksum streams the file at path through SHA-256 and returns the hex digest.
// Cancelling ctx stops the read between chunks.
func Checksum(ctx context.Context, path string) (string, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, ctxReader{ctx: ctx, r: f}); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ThumbnailFolder returns the content-addressed folder for a checksum:
// <root>/<first two hex chars>/<checksum>.
func ThumbnailFolder(root, checksum string) string {
	prefix := checksum
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return filepath.Join(root, prefix, checksum)
}

// KeypointFolder is the sub-directory holding on-demand captures.
func KeypointFolder(thumbnailFolder string) string {
	return filepath.Join(thumbnailFolder, "keypoints")
}

// FrameFilename names the i-th standard thumbnail.
func FrameFilename(i int) string {
	return fmt.Sprintf("%04d.jpg", i)
}

// KeypointFilename encodes a capture timestamp as a zero-padded integer part
// followed by the literal fractional remainder, e.g. 12.25 -> "0012.25.jpg".
func KeypointFilename(timestamp float64) string {
	s := strconv.FormatFloat(timestamp, 'f', -1, 64)
	whole, frac, _ := strings.Cut(s, ".")
	n, _ := strconv.Atoi(whole)
	name := fmt.Sprintf("%04d", n)
	if frac != "" {
		name += "." + frac
	}
	return name + ".jpg"
}
