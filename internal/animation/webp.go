package animation

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"iter"
)

// WebP container layout, see
// https://developers.google.com/speed/webp/docs/riff_container
const (
	webpANMFHeaderLen = 16
	webpVP8XLen       = 10
)

// webpFrames walks the RIFF chunks of a WebP file. Each ANMF chunk is a
// frame; a simple file with a single VP8 or VP8L bitstream is one frame.
func webpFrames(r *bufio.Reader) (iter.Seq2[int, error], error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, malformed(FormatWebP, "short header: %v", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WEBP" {
		return nil, malformed(FormatWebP, "not a RIFF WEBP container")
	}

	// The RIFF size counts the "WEBP" tag and every chunk after it.
	remaining := int64(binary.LittleEndian.Uint32(header[4:8])) - 4
	if remaining < 8 {
		return nil, malformed(FormatWebP, "RIFF size %d too small", remaining+4)
	}

	return func(yield func(int, error) bool) {
		index := 0

		for remaining >= 8 {
			var chunk [8]byte
			if _, err := io.ReadFull(r, chunk[:]); err != nil {
				if errors.Is(err, io.EOF) && index > 0 {
					// Truncated RIFF size but every frame so far was complete.
					return
				}
				yield(0, malformed(FormatWebP, "chunk header: %v", err))
				return
			}

			fourCC := string(chunk[0:4])
			size := int64(binary.LittleEndian.Uint32(chunk[4:8]))
			padded := size + size&1
			remaining -= 8 + padded

			switch fourCC {
			case "VP8X":
				if size < webpVP8XLen {
					yield(0, malformed(FormatWebP, "VP8X chunk too small"))
					return
				}
				if err := discard(r, int(padded)); err != nil {
					yield(0, malformed(FormatWebP, "VP8X chunk: %v", err))
					return
				}

			case "VP8 ", "VP8L":
				if err := discard(r, int(padded)); err != nil {
					yield(0, malformed(FormatWebP, "%s bitstream: %v", fourCC, err))
					return
				}
				// A bare bitstream is the whole image.
				yield(index, nil)
				return

			case "ANMF":
				if size < webpANMFHeaderLen {
					yield(0, malformed(FormatWebP, "ANMF chunk too small"))
					return
				}
				if err := discard(r, int(padded)); err != nil {
					yield(0, malformed(FormatWebP, "frame %d data: %v", index, err))
					return
				}
				if !yield(index, nil) {
					return
				}
				index++

			default:
				if err := discard(r, int(padded)); err != nil {
					yield(0, malformed(FormatWebP, "%q chunk: %v", fourCC, err))
					return
				}
			}
		}
	}, nil
}
