// Package media reads image metadata and produces static thumbnails.
//
// Probe reports the display size of an image, with any EXIF orientation
// applied, without decoding its pixels. Resampler is the default raster
// backend: it decodes the source with imaging, corrects the orientation and
// writes a Lanczos-resized copy in a format chosen from the file name.
package media
