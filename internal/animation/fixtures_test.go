package animation

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

var testPalette = color.Palette{
	color.RGBA{R: 0, G: 0, B: 0, A: 255},
	color.RGBA{R: 255, G: 0, B: 0, A: 255},
	color.RGBA{R: 0, G: 0, B: 255, A: 255},
	color.RGBA{R: 255, G: 255, B: 255, A: 255},
}

// makeGIF encodes a GIF with the given number of 16x16 frames.
func makeGIF(t *testing.T, frames int) []byte {
	t.Helper()

	g := &gif.GIF{}
	for i := 0; i < frames; i++ {
		img := image.NewPaletted(image.Rect(0, 0, 16, 16), testPalette)
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				img.SetColorIndex(x, y, uint8((x+y+i)%len(testPalette)))
			}
		}
		g.Image = append(g.Image, img)
		g.Delay = append(g.Delay, 10)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatalf("Failed to encode test GIF: %v", err)
	}
	return buf.Bytes()
}

func makePNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

func makeJPEG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("Failed to encode test JPEG: %v", err)
	}
	return buf.Bytes()
}

// riffChunk encodes a RIFF chunk with its padding byte.
func riffChunk(fourCC string, payload []byte) []byte {
	out := make([]byte, 8, 8+len(payload)+1)
	copy(out, fourCC)
	binary.LittleEndian.PutUint32(out[4:], uint32(len(payload)))
	out = append(out, payload...)
	if len(payload)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

func riffWebP(chunks ...[]byte) []byte {
	body := []byte("WEBP")
	for _, c := range chunks {
		body = append(body, c...)
	}
	out := []byte("RIFF")
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	return append(out, body...)
}

func putUint24(b []byte, v int) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

// fakeBitstream stands in for VP8L data; the walker never decodes it.
var fakeBitstream = []byte{0x2f, 0x00, 0x00, 0x00, 0x00}

func makeStaticWebP() []byte {
	return riffWebP(riffChunk("VP8L", fakeBitstream))
}

// makeAnimatedWebP builds an extended WebP with the given number of ANMF
// frames on a 32x32 canvas.
func makeAnimatedWebP(frames int) []byte {
	vp8x := make([]byte, 10)
	vp8x[0] = 0x02 // animation flag
	putUint24(vp8x[4:7], 31)
	putUint24(vp8x[7:10], 31)

	anim := make([]byte, 6)

	chunks := [][]byte{riffChunk("VP8X", vp8x), riffChunk("ANIM", anim)}
	for i := 0; i < frames; i++ {
		header := make([]byte, 16)
		putUint24(header[0:3], i)   // x / 2
		putUint24(header[3:6], 0)   // y / 2
		putUint24(header[6:9], 15)  // width - 1
		putUint24(header[9:12], 15) // height - 1
		putUint24(header[12:15], 100)
		payload := append(header, riffChunk("VP8L", fakeBitstream)...)
		chunks = append(chunks, riffChunk("ANMF", payload))
	}
	return riffWebP(chunks...)
}

func pngChunk(kind string, data []byte) []byte {
	out := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
	out = append(out, kind...)
	out = append(out, data...)
	crc := crc32.NewIEEE()
	crc.Write([]byte(kind))
	crc.Write(data)
	return binary.BigEndian.AppendUint32(out, crc.Sum32())
}

func fcTL(seq uint32, w, h uint32) []byte {
	data := make([]byte, 26)
	binary.BigEndian.PutUint32(data[0:4], seq)
	binary.BigEndian.PutUint32(data[4:8], w)
	binary.BigEndian.PutUint32(data[8:12], h)
	return data
}

// makeAPNG assembles an APNG with the given number of frames. The pixel
// chunks carry placeholder bytes, which is enough for frame counting.
func makeAPNG(frames uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], 8)
	binary.BigEndian.PutUint32(ihdr[4:8], 8)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // RGBA

	actl := make([]byte, 8)
	binary.BigEndian.PutUint32(actl[0:4], frames)

	out := []byte(pngSignature)
	out = append(out, pngChunk("IHDR", ihdr)...)
	out = append(out, pngChunk("acTL", actl)...)

	seq := uint32(0)
	for i := uint32(0); i < frames; i++ {
		out = append(out, pngChunk("fcTL", fcTL(seq, 8, 8))...)
		seq++
		if i == 0 {
			out = append(out, pngChunk("IDAT", []byte{1, 2, 3, 4})...)
			continue
		}
		fdat := binary.BigEndian.AppendUint32(nil, seq)
		out = append(out, pngChunk("fdAT", append(fdat, 1, 2, 3, 4))...)
		seq++
	}
	return append(out, pngChunk("IEND", nil)...)
}

func writeFixture(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", name, err)
	}
	return path
}

func newTestReader(data []byte) *bufio.Reader {
	return bufio.NewReader(bytes.NewReader(data))
}
