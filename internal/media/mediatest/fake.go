// Package mediatest provides a fake media.Runner that stands in for ffprobe
// and ffmpeg in tests.
package mediatest

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// Runner plays ffprobe from canned JSON and plays ffmpeg by writing small
// JPEG files plus showinfo progress lines.
type Runner struct {
	mu sync.Mutex

	// Probes maps an input path to the JSON ffprobe prints for it.
	Probes map[string]string
	// Failures maps an input path to stderr text; any call on it fails.
	Failures map[string]string
	// Framerate used to turn selected frame indexes into pts_time values.
	Framerate float64
	// DropFiles makes a sequence extraction write this many fewer files
	// than it reports.
	DropFiles int
	// DropReports makes a sequence extraction report this many fewer
	// timestamps than files it writes.
	DropReports int
	// TimestampOffset is added to every reported pts_time.
	TimestampOffset float64

	calls [][]string
}

// NewRunner returns an empty fake at 25 fps.
func NewRunner() *Runner {
	return &Runner{
		Probes:    make(map[string]string),
		Failures:  make(map[string]string),
		Framerate: 25,
	}
}

// Calls returns the recorded invocations, program first.
func (r *Runner) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallsTo counts invocations of program ("ffprobe" or "ffmpeg").
func (r *Runner) CallsTo(program string) int {
	n := 0
	for _, c := range r.Calls() {
		if filepath.Base(c[0]) == program {
			n++
		}
	}
	return n
}

var errExit = errors.New("exit status 1")

// Run implements media.Runner.
func (r *Runner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	r.mu.Unlock()

	switch filepath.Base(name) {
	case "ffprobe":
		return r.probe(args)
	case "ffmpeg":
		return r.extract(args)
	}
	return nil, []byte("unknown program " + name), errExit
}

func (r *Runner) probe(args []string) ([]byte, []byte, error) {
	path := args[len(args)-1]
	r.mu.Lock()
	failure, failed := r.Failures[path]
	out, ok := r.Probes[path]
	r.mu.Unlock()

	if failed {
		return nil, []byte(failure), errExit
	}
	if !ok {
		return nil, []byte(path + ": Invalid data found when processing input"), errExit
	}
	return []byte(out), nil, nil
}

var (
	selectPattern = regexp.MustCompile(`eq\(n\\,(\d+)\)`)
	scalePattern  = regexp.MustCompile(`scale=(\d+):(\d+)`)
	wavesPattern  = regexp.MustCompile(`showwavespic=s=(\d+)x(\d+)`)
)

func (r *Runner) extract(args []string) ([]byte, []byte, error) {
	input := argValue(args, "-i")
	out := args[len(args)-1]

	r.mu.Lock()
	failure, failed := r.Failures[input]
	fps := r.Framerate
	dropFiles, dropReports, offset := r.DropFiles, r.DropReports, r.TimestampOffset
	r.mu.Unlock()

	if failed {
		return nil, []byte(failure), errExit
	}

	filter := argValue(args, "-vf") + argValue(args, "-filter_complex")
	w, h := 64, 64
	if m := scalePattern.FindStringSubmatch(filter); m != nil {
		w, _ = strconv.Atoi(m[1])
		h, _ = strconv.Atoi(m[2])
	} else if m := wavesPattern.FindStringSubmatch(filter); m != nil {
		w, _ = strconv.Atoi(m[1])
		h, _ = strconv.Atoi(m[2])
	}

	selected := selectPattern.FindAllStringSubmatch(filter, -1)
	if selected == nil {
		if err := writeFrame(out, w, h); err != nil {
			return nil, []byte(err.Error()), errExit
		}
		return nil, nil, nil
	}

	var stderr strings.Builder
	for i, m := range selected {
		n, _ := strconv.Atoi(m[1])
		if i < len(selected)-dropFiles {
			if err := writeFrame(fmt.Sprintf(out, i), w, h); err != nil {
				return nil, []byte(err.Error()), errExit
			}
		}
		if i < len(selected)-dropReports {
			fmt.Fprintf(&stderr, "[Parsed_showinfo_2 @ 0x55d1c0] n:%4d pts:%7d pts_time:%g duration:1 fmt:yuvj420p\n",
				i, n*1000, float64(n)/fps+offset)
		}
	}
	stderr.WriteString("frame=   18 fps=0.0 q=3.0 Lsize=N/A time=00:00:10.00\n")
	return nil, []byte(stderr.String()), nil
}

func writeFrame(path string, w, h int) error {
	img := imaging.New(w, h, color.NRGBA{R: 40, G: 80, B: 120, A: 255})
	return imaging.Save(img, path)
}

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// VideoProbe is ffprobe output for a video file.
func VideoProbe(width, height, frames int, fps, duration float64, codec string) string {
	return fmt.Sprintf(`{
  "streams": [
    {"index": 0, "codec_name": %q, "codec_type": "video", "width": %d, "height": %d,
     "r_frame_rate": "%g/1", "avg_frame_rate": "%g/1", "duration": "%f", "nb_frames": "%d",
     "disposition": {"attached_pic": 0}},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "duration": "%f"}
  ],
  "format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "%f"}
}`, codec, width, height, fps, fps, duration, frames, duration, duration)
}

// RotatedVideoProbe is VideoProbe with a display-matrix rotation.
func RotatedVideoProbe(width, height, frames int, fps, duration float64, rotation int) string {
	return fmt.Sprintf(`{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": %d, "height": %d,
     "avg_frame_rate": "%g/1", "duration": "%f", "nb_frames": "%d",
     "side_data_list": [{"side_data_type": "Display Matrix", "rotation": %d}]}
  ],
  "format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "%f"}
}`, width, height, fps, duration, frames, rotation, duration)
}

// ImageProbe is ffprobe output for a still image.
func ImageProbe(width, height int, codec string) string {
	return fmt.Sprintf(`{
  "streams": [
    {"index": 0, "codec_name": %q, "codec_type": "video", "width": %d, "height": %d,
     "r_frame_rate": "25/1", "avg_frame_rate": "0/0"}
  ],
  "format": {"format_name": "image2"}
}`, codec, width, height)
}

// GIFProbe is ffprobe output for an animated gif.
func GIFProbe(width, height, frames int, fps float64) string {
	duration := float64(frames) / fps
	return fmt.Sprintf(`{
  "streams": [
    {"index": 0, "codec_name": "gif", "codec_type": "video", "width": %d, "height": %d,
     "r_frame_rate": "%g/1", "avg_frame_rate": "%g/1", "duration": "%f"}
  ],
  "format": {"format_name": "gif", "duration": "%f"}
}`, width, height, fps, fps, duration, duration)
}

// AudioProbe is ffprobe output for an audio file with embedded cover art.
func AudioProbe(duration float64, codec string) string {
	return fmt.Sprintf(`{
  "streams": [
    {"index": 0, "codec_name": %q, "codec_type": "audio", "duration": "%f"},
    {"index": 1, "codec_name": "mjpeg", "codec_type": "video", "width": 600, "height": 600,
     "disposition": {"attached_pic": 1}}
  ],
  "format": {"format_name": "mp3", "duration": "%f"}
}`, codec, duration, duration)
}
