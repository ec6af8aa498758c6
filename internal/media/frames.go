package media

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"media-catalog/internal/errs"
)

// FramePositions returns the source frame indexes to sample: every frame when
// total < count, otherwise count evenly spaced positions covering both ends.
func FramePositions(total, count int) []int {
	if total <= 0 || count <= 0 {
		return nil
	}
	if total < count {
		positions := make([]int, total)
		for i := range positions {
			positions[i] = i
		}
		return positions
	}
	if count == 1 {
		return []int{0}
	}

	step := float64(total) / float64(count-1)
	positions := make([]int, count)
	for i := range positions {
		positions[i] = int(math.Floor(float64(i) * step))
	}
	if positions[count-1] > total-1 {
		positions[count-1] = total - 1
	}
	return positions
}

// selectExpr builds an ffmpeg select filter picking exactly the given frames.
func selectExpr(positions []int) string {
	terms := make([]string, len(positions))
	for i, p := range positions {
		terms[i] = `eq(n\,` + strconv.Itoa(p) + `)`
	}
	return "select='" + strings.Join(terms, "+") + "'"
}

// scaleFilter fits a w×h source into size×size keeping its aspect ratio.
// Upscaled or very narrow sources use nearest-neighbor sampling so pixel art
// and thin strips stay sharp.
func scaleFilter(w, h, size int) string {
	sw, sh, flags := ScaledSize(w, h, size)
	return "scale=" + strconv.Itoa(sw) + ":" + strconv.Itoa(sh) + ":flags=" + flags
}

const narrowAspect = 8.0

// ScaledSize returns the thumbnail dimensions for a w×h source and the
// ffmpeg scaling flags to use.
func ScaledSize(w, h, size int) (int, int, string) {
	long, short := w, h
	if h > w {
		long, short = h, w
	}
	ratio := float64(short) / float64(long)
	scaled := int(math.Floor(float64(size) * ratio))
	if scaled < 1 {
		scaled = 1
	}

	flags := "bicubic"
	if long < size || ratio < 1/narrowAspect {
		flags = "neighbor"
	}

	if w >= h {
		return size, scaled, flags
	}
	return scaled, size, flags
}

var ptsTimePattern = regexp.MustCompile(`\bpts_time:\s*(-?[0-9]+(?:\.[0-9]+)?(?:[eE][-+]?[0-9]+)?)`)

// parseShowinfo recovers the source timestamp of every frame the showinfo
// filter reported, in output order.
func parseShowinfo(stderr []byte) []float64 {
	var timestamps []float64
	for _, line := range strings.Split(string(stderr), "\n") {
		if !strings.Contains(line, "showinfo") {
			continue
		}
		m := ptsTimePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ts, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		timestamps = append(timestamps, ts)
	}
	return timestamps
}

// maxFirstTimestamp bounds how far into the source the first frame may land.
const maxFirstTimestamp = 1.0

// reconcileTimestamps checks the extractor's self-reported timestamps against
// the requested positions. One missing frame is tolerated; decoders are not
// frame accurate.
func reconcileTimestamps(path string, timestamps []float64, expected int) error {
	if len(timestamps) > expected {
		return errs.Unexpectedf("ffmpeg reported %d frames for %s but only %d were selected",
			len(timestamps), path, expected)
	}
	minimum := expected - 1
	if minimum < 1 {
		minimum = 1
	}
	if len(timestamps) < minimum {
		return errs.Wrap(errs.Subprocess, errShortExtraction,
			"ffmpeg reported %d of %d frames for %s", len(timestamps), expected, path)
	}
	if timestamps[0] > maxFirstTimestamp {
		return errs.Wrap(errs.Subprocess, errLateFirstFrame,
			"first frame of %s at %.3fs", path, timestamps[0])
	}
	for i := 1; i < len(timestamps); i++ {
		if timestamps[i] <= timestamps[i-1] {
			return errs.Wrap(errs.Subprocess, errNonMonotonic,
				"frame %d of %s at %.3fs follows %.3fs", i, path, timestamps[i], timestamps[i-1])
		}
	}
	return nil
}
