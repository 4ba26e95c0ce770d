package animation

import (
	"bufio"
	"encoding/binary"
	"hash/crc32"
	"io"
	"iter"
)

const pngSignature = "\x89PNG\r\n\x1a\n"

// Chunks whose payload we need; everything else is skipped unread.
const (
	pngFcTLLen = 26
	pngIHDRLen = 13
	pngAcTLLen = 8

	pngMaxControlLen = 64
)

// pngFrames walks PNG chunks. An acTL chunk before the first IDAT marks
// the file as APNG and every fcTL chunk is then a frame. Without acTL the
// first IDAT is the single still frame.
func pngFrames(r *bufio.Reader) (iter.Seq2[int, error], error) {
	var sig [8]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return nil, malformed(FormatPNG, "short signature: %v", err)
	}
	if string(sig[:]) != pngSignature {
		return nil, malformed(FormatPNG, "bad signature")
	}

	return func(yield func(int, error) bool) {
		animated := false
		index := 0

		for {
			var header [8]byte
			if _, err := io.ReadFull(r, header[:]); err != nil {
				yield(0, malformed(FormatPNG, "missing IEND: %v", err))
				return
			}
			length := binary.BigEndian.Uint32(header[0:4])
			kind := string(header[4:8])
			if length > 0x7fffffff {
				yield(0, malformed(FormatPNG, "%q chunk length %d out of range", kind, length))
				return
			}

			switch kind {
			case "IHDR", "acTL", "fcTL":
				data, err := readPNGChunk(r, header[4:8], length)
				if err != nil {
					yield(0, err)
					return
				}

				switch kind {
				case "IHDR":
					if len(data) < pngIHDRLen {
						yield(0, malformed(FormatPNG, "IHDR chunk too short"))
						return
					}
				case "acTL":
					if len(data) < pngAcTLLen {
						yield(0, malformed(FormatPNG, "acTL chunk too short"))
						return
					}
					animated = true
				case "fcTL":
					if !animated {
						continue
					}
					if len(data) < pngFcTLLen {
						yield(0, malformed(FormatPNG, "frame %d control chunk too short", index))
						return
					}
					if !yield(index, nil) {
						return
					}
					index++
				}

			case "IDAT":
				if !animated {
					// Still image; no need to look at the pixel data.
					yield(0, nil)
					return
				}
				if err := discard(r, int(length)+4); err != nil {
					yield(0, malformed(FormatPNG, "IDAT chunk: %v", err))
					return
				}

			case "IEND":
				return

			default:
				if err := discard(r, int(length)+4); err != nil {
					yield(0, malformed(FormatPNG, "%q chunk: %v", kind, err))
					return
				}
			}
		}
	}, nil
}

// readPNGChunk reads a small control chunk payload and checks its CRC.
func readPNGChunk(r *bufio.Reader, kind []byte, length uint32) ([]byte, error) {
	if length > pngMaxControlLen {
		return nil, malformed(FormatPNG, "%q chunk length %d too large", kind, length)
	}
	buf := make([]byte, int(length)+4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, malformed(FormatPNG, "%q chunk: %v", kind, err)
	}

	data := buf[:length]
	crc := crc32.NewIEEE()
	crc.Write(kind)
	crc.Write(data)
	if crc.Sum32() != binary.BigEndian.Uint32(buf[length:]) {
		return nil, malformed(FormatPNG, "%q chunk checksum mismatch", kind)
	}
	return data, nil
}
