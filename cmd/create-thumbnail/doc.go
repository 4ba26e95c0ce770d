// Package main provides the create-thumbnail command.
//
// create-thumbnail writes a thumbnail for each source image into an output
// directory and prints the path of every thumbnail it wrote, one per line,
// in the order the sources were given:
//
//	create-thumbnail --out-dir thumbs --width 300 photo.jpg cat.gif
//	thumbs/photo.jpg
//	thumbs/cat.mp4
//
// # Target Size
//
// --width alone bounds the width, --height alone bounds the height, and
// both together fit the image inside a width x height box. Aspect ratio is
// preserved and images are never enlarged.
//
// # Rendering
//
// Static images are resized with the configured resampler (imaging by
// default, or libvips) into a file of the same name. Formats the resampler
// cannot write, such as HEIC, are written as PNG. Animated GIF,
// WebP and APNG sources are encoded with ffmpeg into an MP4 loop named after
// the source with an .mp4 extension.
//
// # Exit Status
//
//   - 0: every thumbnail was written
//   - 1: at least one source failed; the others are still written and printed
//   - 2: invalid arguments or configuration
//
// Errors are reported on stderr. Logs also go to stderr so stdout only ever
// carries thumbnail paths.
//
// # Configuration
//
// Flags override THUMBNAIL_* environment variables, which override the
// --config file, which overrides the built-in defaults. See package startup
// for the full list of settings.
//
// # Signals
//
// SIGINT and SIGTERM stop the batch: no new sources are started and running
// ffmpeg processes are killed. Sources that never started are reported as
// skipped.
package main
