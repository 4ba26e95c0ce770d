// Package encoder turns animated images into looping MP4 thumbnails using
// FFmpeg.
//
// The output is H.264 in yuv420p with the moov atom moved to the front, so
// browsers can start playback before the file has finished downloading.
// FFmpeg must be installed; its path is configurable.
package encoder
