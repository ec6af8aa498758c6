package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"media-catalog/internal/errs"
	"media-catalog/internal/filesystem"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
	"media-catalog/internal/mediatypes"
)

const (
	// DefaultThumbnailCount is the number of preview frames taken from animated media.
	DefaultThumbnailCount = 18
	// DefaultThumbnailSize is the long edge of a preview frame in pixels.
	DefaultThumbnailSize = 500
)

var (
	errShortExtraction = errors.New("extractor emitted too few frames")
	errLateFirstFrame  = errors.New("first frame too far into source")
	errNonMonotonic    = errors.New("frame timestamps not increasing")
	errFileCount       = errors.New("written frame count mismatch")
)

// Frame is one generated preview image.
type Frame struct {
	Filename  string  // base name inside the thumbnail folder
	Timestamp float64 // seconds into the source
}

// ThumbnailGenerator extracts preview frames with ffmpeg.
type ThumbnailGenerator struct {
	Runner Runner
	Path   string // ffmpeg binary
	Count  int
	Size   int
}

// NewThumbnailGenerator returns a generator with the given frame count and size.
// Zero values fall back to the defaults.
func NewThumbnailGenerator(runner Runner, ffmpegPath string, count, size int) *ThumbnailGenerator {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if count <= 0 {
		count = DefaultThumbnailCount
	}
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	logging.Debug("ThumbnailGenerator: %s, %d frames at %dpx", ffmpegPath, count, size)
	return &ThumbnailGenerator{Runner: runner, Path: ffmpegPath, Count: count, Size: size}
}

// Generate writes preview frames for info into dir, which must not contain
// other jpg files, and returns them ordered by timestamp.
func (g *ThumbnailGenerator) Generate(ctx context.Context, info *FileInfo, dir string) ([]Frame, error) {
	start := time.Now()
	kind := strings.ToLower(string(info.MediaType))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create thumbnail dir %s: %w", dir, err)
	}

	var frames []Frame
	var err error
	switch {
	case info.MediaType == mediatypes.Audio:
		frames, err = g.waveform(ctx, info, dir)
	case !info.Animated || info.Duration == 0:
		frames, err = g.still(ctx, info, dir)
	default:
		frames, err = g.sequence(ctx, info, dir)
	}

	metrics.ThumbnailGenerationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues(kind, "error").Inc()
		return nil, err
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues(kind, "success").Inc()
	metrics.ThumbnailFramesWritten.Observe(float64(len(frames)))

	logging.Debug("Generated %d thumbnails for %s in %v", len(frames), info.Path, time.Since(start))
	return frames, nil
}

func (g *ThumbnailGenerator) waveform(ctx context.Context, info *FileInfo, dir string) ([]Frame, error) {
	size := strconv.Itoa(g.Size) + "x" + strconv.Itoa(g.Size/2)
	if err := g.run(ctx, info.Path,
		"-v", "error", "-y",
		"-i", info.Path,
		"-filter_complex", "showwavespic=s="+size+":split_channels=0",
		"-frames:v", "1",
		filepath.Join(dir, FrameFilename(0)),
	); err != nil {
		return nil, err
	}
	return g.collect(info.Path, dir, []float64{0})
}

func (g *ThumbnailGenerator) still(ctx context.Context, info *FileInfo, dir string) ([]Frame, error) {
	if err := g.run(ctx, info.Path,
		"-v", "error", "-y",
		"-i", info.Path,
		"-vf", scaleFilter(info.Width, info.Height, g.Size),
		"-frames:v", "1",
		filepath.Join(dir, FrameFilename(0)),
	); err != nil {
		return nil, err
	}
	return g.collect(info.Path, dir, []float64{0})
}

func (g *ThumbnailGenerator) sequence(ctx context.Context, info *FileInfo, dir string) ([]Frame, error) {
	positions := FramePositions(info.Framecount, g.Count)
	if len(positions) == 0 {
		return nil, errs.Unexpectedf("no frame positions for %s with %d frames", info.Path, info.Framecount)
	}

	filters := []string{}
	if info.Codec == "gif" && info.Framerate > 0 {
		// gif decoders can report non-monotonic timestamps
		filters = append(filters, "setpts=N/(FR*TB)")
	}
	filters = append(filters,
		selectExpr(positions),
		scaleFilter(info.Width, info.Height, g.Size),
		"showinfo",
	)

	stderr, err := g.runWithStderr(ctx, info.Path,
		"-v", "info", "-y",
		"-i", info.Path,
		"-vf", strings.Join(filters, ","),
		"-fps_mode", "vfr",
		"-start_number", "0",
		"-q:v", "3",
		filepath.Join(dir, "%04d.jpg"),
	)
	if err != nil {
		return nil, err
	}

	timestamps := parseShowinfo(stderr)
	if err := reconcileTimestamps(info.Path, timestamps, len(positions)); err != nil {
		return nil, err
	}
	return g.collect(info.Path, dir, timestamps)
}

// collect pairs the files ffmpeg wrote with their timestamps. The file count
// must match exactly.
func (g *ThumbnailGenerator) collect(path, dir string, timestamps []float64) ([]Frame, error) {
	names, err := writtenFrames(dir)
	if err != nil {
		return nil, err
	}
	if len(names) != len(timestamps) {
		return nil, errs.Wrap(errs.Subprocess, errFileCount,
			"ffmpeg wrote %d files for %s, expected %d", len(names), path, len(timestamps))
	}

	frames := make([]Frame, len(names))
	for i, name := range names {
		if err := validateFrame(filepath.Join(dir, name), g.Size); err != nil {
			return nil, err
		}
		frames[i] = Frame{Filename: name, Timestamp: timestamps[i]}
	}
	return frames, nil
}

func writtenFrames(dir string) ([]string, error) {
	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("read thumbnail dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".jpg") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// CaptureAt extracts the single frame at timestamp into dir and returns the
// file name. The stored timestamp is the requested one; a fast seek cannot
// report which frame was actually decoded.
func (g *ThumbnailGenerator) CaptureAt(ctx context.Context, info *FileInfo, timestamp float64, dir string) (string, error) {
	if !info.MediaType.Graphical() {
		return "", errs.BadInputf("cannot capture a frame from %s media", info.MediaType)
	}
	if timestamp < 0 || (info.Duration > 0 && timestamp > info.Duration) {
		return "", errs.BadInputf("timestamp %.3f outside 0..%.3f", timestamp, info.Duration)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create keypoint dir %s: %w", dir, err)
	}

	name := KeypointFilename(timestamp)
	out := filepath.Join(dir, name)
	err := g.run(ctx, info.Path,
		"-v", "error", "-y",
		"-ss", strconv.FormatFloat(timestamp, 'f', -1, 64),
		"-i", info.Path,
		"-vf", scaleFilter(info.Width, info.Height, g.Size),
		"-frames:v", "1",
		out,
	)
	if err == nil {
		err = validateFrame(out, g.Size)
	}
	if err != nil {
		metrics.KeypointCapturesTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.KeypointCapturesTotal.WithLabelValues("success").Inc()
	return name, nil
}

func (g *ThumbnailGenerator) run(ctx context.Context, path string, args ...string) error {
	_, err := g.runWithStderr(ctx, path, args...)
	return err
}

func (g *ThumbnailGenerator) runWithStderr(ctx context.Context, path string, args ...string) ([]byte, error) {
	_, stderr, err := g.Runner.Run(ctx, g.Path, args...)
	if err != nil {
		return nil, commandError("ffmpeg", path, stderr, err)
	}
	return stderr, nil
}
