// Package mediatypes provides shared type definitions for media files stored in
// the catalog.
//
// This package is a dependency-free foundation that can be imported by other
// packages without creating import cycles.
//
// # Media Types
//
// Every cataloged file is classified as one of:
//
//	mediatypes.Image // stills and animated images (jpg, png, gif, webp, ...)
//	mediatypes.Video // containers with a moving picture track
//	mediatypes.Audio // audio-only containers
//
// # Extension Detection
//
// Use FromExtension to make a first guess from a filename. The probe has the
// final word, since containers like .webm may hold audio only:
//
//	ext := strings.ToLower(filepath.Ext(filename))
//	mediaType, ok := mediatypes.FromExtension(ext)
//
// # Content Types
//
// Use ContentType to get the content type recorded on a media file:
//
//	contentType := mediatypes.ContentType(ext, codec) // e.g., "image/jpeg"
package mediatypes
