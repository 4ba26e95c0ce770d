package animation

import (
	"bufio"
	"io"
	"iter"
)

// GIF block introducers, see https://www.w3.org/Graphics/GIF/spec-gif89a.txt
const (
	gifExtension       = 0x21
	gifImageDescriptor = 0x2C
	gifTrailer         = 0x3B

	gifColorTableFlag = 0x80
	gifColorTableSize = 0x07
)

// gifFrames walks the block structure of a GIF. Image data sub-blocks are
// skipped, never LZW-decoded.
func gifFrames(r *bufio.Reader) (iter.Seq2[int, error], error) {
	// Header (6) and logical screen descriptor (7)
	var header [13]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, malformed(FormatGIF, "short header: %v", err)
	}
	if sig := string(header[:6]); sig != "GIF87a" && sig != "GIF89a" {
		return nil, malformed(FormatGIF, "bad signature %q", sig)
	}
	if flags := header[10]; flags&gifColorTableFlag != 0 {
		if err := discard(r, colorTableLen(flags)); err != nil {
			return nil, malformed(FormatGIF, "global color table: %v", err)
		}
	}

	return func(yield func(int, error) bool) {
		for index := 0; ; {
			introducer, err := r.ReadByte()
			if err != nil {
				yield(0, malformed(FormatGIF, "missing trailer: %v", err))
				return
			}

			switch introducer {
			case gifExtension:
				if _, err := r.ReadByte(); err != nil {
					yield(0, malformed(FormatGIF, "extension label: %v", err))
					return
				}
				if err := skipSubBlocks(r); err != nil {
					yield(0, malformed(FormatGIF, "extension data: %v", err))
					return
				}

			case gifImageDescriptor:
				if err := skipGIFImage(r, index); err != nil {
					yield(0, err)
					return
				}
				if !yield(index, nil) {
					return
				}
				index++

			case gifTrailer:
				return

			default:
				yield(0, malformed(FormatGIF, "unknown block 0x%02x", introducer))
				return
			}
		}
	}, nil
}

// skipGIFImage consumes one image descriptor and its data.
func skipGIFImage(r *bufio.Reader, index int) error {
	var desc [9]byte
	if _, err := io.ReadFull(r, desc[:]); err != nil {
		return malformed(FormatGIF, "frame %d descriptor: %v", index, err)
	}

	if flags := desc[8]; flags&gifColorTableFlag != 0 {
		if err := discard(r, colorTableLen(flags)); err != nil {
			return malformed(FormatGIF, "frame %d color table: %v", index, err)
		}
	}

	litWidth, err := r.ReadByte()
	if err != nil {
		return malformed(FormatGIF, "frame %d code size: %v", index, err)
	}
	if litWidth < 2 || litWidth > 8 {
		return malformed(FormatGIF, "frame %d code size %d out of range", index, litWidth)
	}
	if err := skipSubBlocks(r); err != nil {
		return malformed(FormatGIF, "frame %d image data: %v", index, err)
	}

	return nil
}

func colorTableLen(flags byte) int {
	return 3 * (1 << ((flags & gifColorTableSize) + 1))
}

// skipSubBlocks discards a sequence of data sub-blocks up to and including
// the zero-length terminator.
func skipSubBlocks(r *bufio.Reader) error {
	for {
		n, err := r.ReadByte()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if err := discard(r, int(n)); err != nil {
			return err
		}
	}
}

// discard skips exactly n bytes, reporting io.ErrUnexpectedEOF if the
// stream ends early.
func discard(r *bufio.Reader, n int) error {
	skipped, err := r.Discard(n)
	if skipped < n {
		if err == nil || err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}
