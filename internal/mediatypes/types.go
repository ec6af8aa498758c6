package mediatypes

import "strings"

// MediaType is the broad classification of a cataloged file.
type MediaType string

const (
	// Image is a still or animated image.
	Image MediaType = "IMAGE"
	// Video is a moving picture, with or without audio.
	Video MediaType = "VIDEO"
	// Audio is an audio-only file.
	Audio MediaType = "AUDIO"
)

// Valid reports whether t is one of the known media types.
func (t MediaType) Valid() bool {
	switch t {
	case Image, Video, Audio:
		return true
	}
	return false
}

// Graphical reports whether files of this type have a width and height.
func (t MediaType) Graphical() bool {
	return t == Image || t == Video
}

// ImageExtensions maps file extensions to whether they are supported image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
	".avif": true,
	".apng": true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".ts":   true,
}

// AudioExtensions maps file extensions to whether they are supported audio formats.
var AudioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".flac": true,
	".wav":  true,
	".ogg":  true,
	".opus": true,
	".wma":  true,
}

// contentTypes maps file extensions to their content types.
var contentTypes = map[string]string{
	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".apng": "image/apng",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",
	".avif": "image/avif",

	// Videos
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".3gp":  "video/3gpp",
	".ts":   "video/mp2t",

	// Audio
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".wma":  "audio/x-ms-wma",
}

// codecContentTypes is the fallback when the extension is unknown.
var codecContentTypes = map[string]string{
	"mjpeg":  "image/jpeg",
	"png":    "image/png",
	"apng":   "image/apng",
	"gif":    "image/gif",
	"webp":   "image/webp",
	"bmp":    "image/bmp",
	"tiff":   "image/tiff",
	"h264":   "video/mp4",
	"hevc":   "video/mp4",
	"vp8":    "video/webm",
	"vp9":    "video/webm",
	"av1":    "video/mp4",
	"mp3":    "audio/mpeg",
	"aac":    "audio/aac",
	"flac":   "audio/flac",
	"opus":   "audio/opus",
	"vorbis": "audio/ogg",
}

// FromExtension returns the media type suggested by a file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
func FromExtension(ext string) (MediaType, bool) {
	switch {
	case ImageExtensions[ext]:
		return Image, true
	case VideoExtensions[ext]:
		return Video, true
	case AudioExtensions[ext]:
		return Audio, true
	}
	return "", false
}

// IsMediaFile returns true if the extension represents a supported media file.
func IsMediaFile(ext string) bool {
	_, ok := FromExtension(ext)
	return ok
}

// ContentType returns the content type for a file, preferring the extension
// and falling back to the codec reported by the probe.
// Returns "application/octet-stream" if neither is recognized.
func ContentType(ext, codec string) string {
	if ct, ok := contentTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	if ct, ok := codecContentTypes[strings.ToLower(codec)]; ok {
		return ct
	}
	return "application/octet-stream"
}
