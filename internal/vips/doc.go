// Package vips provides a libvips backed resampler.
//
// libvips shrinks during decode and streams pixels in tiles, so it keeps
// memory flat on very large sources. The package needs cgo and libvips at
// build time; it is kept apart from internal/media so the default imaging
// backend builds without them.
package vips
