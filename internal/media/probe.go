package media

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"media-catalog/internal/errs"
	"media-catalog/internal/logging"
	"media-catalog/internal/mediatypes"
)

// FileInfo is what probing learns about a media file. Width and Height are
// already corrected for rotation and are zero for audio.
type FileInfo struct {
	Path        string
	MediaType   mediatypes.MediaType
	Codec       string
	ContentType string
	Width       int
	Height      int
	Animated    bool
	Audio       bool
	Duration    float64
	Framerate   float64
	Framecount  int
	Rotation    float64
}

// Prober inspects files with ffprobe.
type Prober struct {
	Runner Runner
	Path   string // ffprobe binary
}

// NewProber returns a Prober using ffprobePath, or "ffprobe" from $PATH.
func NewProber(runner Runner, ffprobePath string) *Prober {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Prober{Runner: runner, Path: ffprobePath}
}

// Probe runs ffprobe on path and classifies the result.
func (p *Prober) Probe(ctx context.Context, path string) (*FileInfo, error) {
	stdout, stderr, err := p.Runner.Run(ctx, p.Path,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return nil, commandError("ffprobe", path, stderr, err)
	}
	if !gjson.ValidBytes(stdout) {
		return nil, errs.Unexpectedf("ffprobe returned malformed json for %s", path)
	}

	info, err := parseProbe(path, gjson.ParseBytes(stdout))
	if err != nil {
		return nil, err
	}
	logging.Debug("Probed %s: type=%s codec=%s %dx%d duration=%.3f frames=%d",
		path, info.MediaType, info.Codec, info.Width, info.Height, info.Duration, info.Framecount)
	return info, nil
}

var (
	errNoStreams    = errors.New("no audio or video streams")
	errNoDimensions = errors.New("video stream has no dimensions")
)

// Container formats ffprobe reports for still or animated image inputs.
var imageFormats = map[string]bool{
	"image2": true,
	"gif":    true,
	"webp":   true,
	"apng":   true,
}

func isImageFormat(name string) bool {
	return imageFormats[name] || strings.HasSuffix(name, "_pipe")
}

func parseProbe(path string, doc gjson.Result) (*FileInfo, error) {
	var video, audio *gjson.Result
	for _, s := range doc.Get("streams").Array() {
		switch s.Get("codec_type").String() {
		case "video":
			// cover art embedded in audio files
			if s.Get("disposition.attached_pic").Int() == 1 {
				continue
			}
			if video == nil {
				video = &s
			}
		case "audio":
			if audio == nil {
				audio = &s
			}
		}
	}

	format := doc.Get("format")
	info := &FileInfo{
		Path:  path,
		Audio: audio != nil,
	}

	if video == nil {
		if audio == nil {
			return nil, errs.Wrap(errs.InvalidFile, errNoStreams, "probe %s", path)
		}
		info.MediaType = mediatypes.Audio
		info.Codec = audio.Get("codec_name").String()
		info.Duration = firstFloat(audio.Get("duration"), format.Get("duration"))
		info.ContentType = mediatypes.ContentType(filepath.Ext(path), info.Codec)
		return info, nil
	}

	info.Codec = video.Get("codec_name").String()
	info.Framerate = parseRate(video.Get("avg_frame_rate").String())
	if info.Framerate == 0 {
		info.Framerate = parseRate(video.Get("r_frame_rate").String())
	}
	info.Duration = firstFloat(video.Get("duration"), format.Get("duration"))
	info.Framecount = int(video.Get("nb_frames").Int())
	if info.Framecount == 0 && info.Duration > 0 && info.Framerate > 0 {
		info.Framecount = int(math.Round(info.Duration * info.Framerate))
	}

	if isImageFormat(format.Get("format_name").String()) {
		info.MediaType = mediatypes.Image
		info.Animated = info.Framecount > 1
		if !info.Animated {
			info.Duration = 0
			info.Framecount = 1
		}
	} else {
		info.MediaType = mediatypes.Video
		info.Animated = true
	}

	info.Rotation = streamRotation(*video)
	info.Width, info.Height = RotatedSize(
		int(video.Get("width").Int()), int(video.Get("height").Int()), info.Rotation)
	if (info.Width <= 0 || info.Height <= 0) && info.MediaType == mediatypes.Image {
		// some image demuxers leave the stream size unset
		if dims, err := GetImageDimensions(path); err == nil {
			info.Width, info.Height = dims.Width, dims.Height
		}
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, errs.Wrap(errs.InvalidFile, errNoDimensions, "probe %s", path)
	}

	info.ContentType = mediatypes.ContentType(filepath.Ext(path), info.Codec)
	return info, nil
}

func streamRotation(stream gjson.Result) float64 {
	if r := stream.Get("tags.rotate"); r.Exists() {
		return r.Float()
	}
	for _, sd := range stream.Get("side_data_list").Array() {
		if r := sd.Get("rotation"); r.Exists() {
			return r.Float()
		}
	}
	return 0
}

// RotatedSize returns the bounding box of a w×h frame rotated by degrees.
func RotatedSize(w, h int, degrees float64) (int, int) {
	if degrees == 0 {
		return w, h
	}
	theta := degrees * math.Pi / 180
	sin, cos := math.Abs(math.Sin(theta)), math.Abs(math.Cos(theta))
	fw, fh := float64(w), float64(h)
	// 1e-9 absorbs the error in sin/cos of multiples of 90 degrees
	rh := math.Floor(fw*sin + fh*cos + 1e-9)
	rw := math.Floor(fw*cos + fh*sin + 1e-9)
	return int(rw), int(rh)
}

// parseRate parses an ffprobe rational such as "30000/1001".
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

func firstFloat(values ...gjson.Result) float64 {
	for _, v := range values {
		if v.Exists() {
			if f := v.Float(); f > 0 {
				return f
			}
		}
	}
	return 0
}
