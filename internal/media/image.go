package media

import (
	"fmt"
	"image"
	"os"

	"media-catalog/internal/errs"
	"media-catalog/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// validateFrame checks that ffmpeg produced a decodable JPEG no larger than
// size on either edge.
func validateFrame(path string, size int) error {
	format, err := detectFileType(path)
	if err != nil {
		return fmt.Errorf("read frame %s: %w", path, err)
	}
	if format != "jpeg" {
		return errs.Unexpectedf("frame %s is %s, not jpeg", path, format)
	}

	img, err := imaging.Open(path)
	if err != nil {
		return errs.Wrap(errs.Subprocess, err, "decode frame %s", path)
	}
	b := img.Bounds()
	if b.Dx() > size || b.Dy() > size {
		return errs.Unexpectedf("frame %s is %dx%d, larger than %d", path, b.Dx(), b.Dy(), size)
	}
	return nil
}

// detectFileType sniffs the leading bytes of a file.
func detectFileType(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	header := make([]byte, 16)
	n, err := file.Read(header)
	if err != nil {
		return "", err
	}
	header = header[:n]

	switch {
	case len(header) >= 3 && header[0] == 0xFF && header[1] == 0xD8 && header[2] == 0xFF:
		return "jpeg", nil

	case len(header) >= 8 && header[0] == 0x89 && header[1] == 0x50 && header[2] == 0x4E && header[3] == 0x47:
		return "png", nil

	case len(header) >= 4 && header[0] == 0x47 && header[1] == 0x49 && header[2] == 0x46 && header[3] == 0x38:
		return "gif", nil

	case len(header) >= 12 && header[0] == 0x52 && header[1] == 0x49 && header[2] == 0x46 && header[3] == 0x46 &&
		header[8] == 0x57 && header[9] == 0x45 && header[10] == 0x42 && header[11] == 0x50:
		return "webp", nil

	case len(header) >= 2 && header[0] == 0x42 && header[1] == 0x4D:
		return "bmp", nil
	}

	return "unknown", nil
}
