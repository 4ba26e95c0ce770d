// Package animation decides whether an image has more than one frame.
//
// The format is sniffed from the content with mimetype, falling back to the
// file extension when the content is not a recognised image. GIF, WebP and
// APNG are animation-capable; everything else is Static.
//
// Frame counting never decodes pixel data. Each format has a walker that
// validates the container structure and lazily yields the index of each frame
// it finds; classification stops consuming as soon as a second frame is
// seen.
//
// A container that cannot be parsed is classified as Static instead of
// failing. The absorbed error is reported in Classification.Degraded so
// callers can log or count it. The only error Inspect returns is ErrIO,
// when the resource cannot be opened or read.
package animation
