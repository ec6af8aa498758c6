// Package media inspects media files and generates their preview thumbnails.
//
// Prober runs ffprobe and turns its JSON into a FileInfo (type, codec,
// rotation-corrected dimensions, duration, frame count). Checksum hashes a
// file's content for deduplication.
//
// ThumbnailGenerator runs ffmpeg:
//   - Audio: one waveform image at timestamp 0
//   - Stills: one scaled frame at timestamp 0
//   - Animated images and video: up to Count evenly spaced frames, chosen by
//     FramePositions and selected in a single ffmpeg pass. Timestamps are
//     recovered from showinfo output and checked before the frames are used.
//
// Frames are written as NNNN.jpg. The permanent location is content
// addressed, see ThumbnailFolder; keypoint captures live in its keypoints
// sub-directory.
//
// All external programs go through a Runner so tests can replace them.
package media
