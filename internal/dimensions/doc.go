// Package dimensions resolves the output size of a thumbnail.
//
// A TargetSpec describes what the caller asked for: a maximum width, a
// maximum height, or a bounding box carrying both. Resolve scales the
// original size to satisfy it while preserving the aspect ratio:
//
//   - Images are never upscaled. If the binding target is at least as large
//     as the corresponding original dimension, the original is returned.
//   - The scaled dimension is computed in float64 and rounded to the nearest
//     pixel, never truncated.
//   - A scaled dimension that would round to zero is clamped to one pixel.
//
// For a bounding box the binding dimension is whichever side is tighter
// relative to the source aspect ratio. When the box and the source have the
// same aspect ratio the height binds; either choice gives the same size.
//
// The package does no I/O.
package dimensions
