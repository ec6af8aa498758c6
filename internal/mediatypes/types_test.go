package mediatypes

import (
	"testing"
)

func TestFromExtension(t *testing.T) {
	tests := []struct {
		name   string
		ext    string
		want   MediaType
		wantOK bool
	}{
		{name: "JPEG image", ext: ".jpg", want: Image, wantOK: true},
		{name: "GIF image", ext: ".gif", want: Image, wantOK: true},
		{name: "MP4 video", ext: ".mp4", want: Video, wantOK: true},
		{name: "WebM video", ext: ".webm", want: Video, wantOK: true},
		{name: "MP3 audio", ext: ".mp3", want: Audio, wantOK: true},
		{name: "FLAC audio", ext: ".flac", want: Audio, wantOK: true},
		{name: "Unknown extension", ext: ".xyz", wantOK: false},
		{name: "Empty extension", ext: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromExtension(tt.ext)
			if ok != tt.wantOK {
				t.Fatalf("FromExtension(%q) ok = %v, want %v", tt.ext, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("FromExtension(%q) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}

func TestIsMediaFile(t *testing.T) {
	for ext, want := range map[string]bool{
		".jpg":  true,
		".mkv":  true,
		".opus": true,
		".txt":  false,
		".JPG":  false, // callers lower-case first
		"":      false,
	} {
		if got := IsMediaFile(ext); got != want {
			t.Errorf("IsMediaFile(%q) = %v, want %v", ext, got, want)
		}
	}
}

func TestContentType(t *testing.T) {
	tests := []struct {
		name  string
		ext   string
		codec string
		want  string
	}{
		{"Extension wins", ".jpg", "png", "image/jpeg"},
		{"Uppercase extension", ".PNG", "", "image/png"},
		{"Codec fallback", ".bin", "h264", "video/mp4"},
		{"Unknown", ".bin", "weird", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContentType(tt.ext, tt.codec); got != tt.want {
				t.Errorf("ContentType(%q, %q) = %q, want %q", tt.ext, tt.codec, got, tt.want)
			}
		})
	}
}

func TestMediaTypeHelpers(t *testing.T) {
	if !Image.Graphical() || !Video.Graphical() {
		t.Error("Image and Video should be graphical")
	}
	if Audio.Graphical() {
		t.Error("Audio should not be graphical")
	}
	if MediaType("FOLDER").Valid() {
		t.Error("FOLDER should not be a valid media type")
	}
	if !Audio.Valid() {
		t.Error("AUDIO should be a valid media type")
	}
}
