package media

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"media-catalog/internal/errs"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
)

// Runner executes an external program and returns its captured output.
// Tests substitute a fake that plays ffprobe and ffmpeg.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	program := filepath.Base(name)
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	metrics.SubprocessDuration.WithLabelValues(program).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SubprocessFailures.WithLabelValues(program).Inc()
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

// Messages ffprobe and ffmpeg print for inputs they cannot parse at all.
var invalidFileSignatures = []string{
	"Invalid data found when processing input",
	"moov atom not found",
	"could not find codec parameters",
	"Could not find codec parameters",
	"invalid frame dimensions",
	"Invalid NAL unit size",
	"End of file",
	"no frame!",
	"Failed to open codec",
	"does not contain any stream",
	"Output file is empty, nothing was encoded",
}

// commandError classifies a failed invocation. Known corrupt-input messages
// become InvalidFile; anything else is a Subprocess failure.
func commandError(program, path string, stderr []byte, err error) error {
	msg := strings.TrimSpace(string(stderr))
	logging.Debug("%s failed for %s: %v: %s", program, path, err, msg)

	for _, sig := range invalidFileSignatures {
		if strings.Contains(msg, sig) {
			return errs.Wrap(errs.InvalidFile, err, "%s rejected %s: %s", program, path, sig)
		}
	}
	if msg == "" {
		return errs.Wrap(errs.Subprocess, err, "%s failed for %s", program, path)
	}
	return errs.Wrap(errs.Subprocess, err, "%s failed for %s: %s", program, path, lastLine(msg))
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
