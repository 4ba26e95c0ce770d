// Package thumbnail decides how a thumbnail is rendered and runs it.
//
// A Generator probes the source for its display size, resolves the target
// dimensions, and classifies the source as static or animated. Static images
// are resized by a Resampler into a file of the same name. Animated images
// are encoded by an Encoder into an MP4 loop with even dimensions.
//
// Every failure is returned as an *Error whose Kind names the failing step.
package thumbnail
