package jpegmosh

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func makeSegment(marker byte, payload []byte) []byte {
	var b bytes.Buffer
	b.Write([]byte{0xFF, marker})
	var length [2]byte

	// The length counts itself.
	binary.BigEndian.PutUint16(length[:], uint16(2+len(payload)))

	b.Write(length[:])
	b.Write(payload)
	return b.Bytes()
}

func makeJPEG(segments ...[]byte) []byte {
	var b bytes.Buffer
	b.Write([]byte{0xFF, SOI})
	for _, segment := range segments {
		b.Write(segment)
	}
	b.Write([]byte{0xFF, EOI})
	return b.Bytes()
}

func jfifPayload() []byte {
	// identifier, version 1.01, dpi, 72x72, no thumbnail
	return []byte{'J', 'F', 'I', 'F', 0, 1, 1, 1, 0, 72, 0, 72, 0, 0}
}

func quantPayload(id byte) []byte {
	p := make([]byte, 65)
	p[0] = id
	for i := 1; i < len(p); i++ {
		p[i] = byte(i)
	}
	return p
}

// scanSegment is an SOS segment for one component followed by entropy data.
func scanSegment(entropy []byte) []byte {
	header := []byte{1, 1, 0x00, 0, 63, 0}
	return append(makeSegment(SOS, header), entropy...)
}

var testEntropy = []byte{
	0x12, 0x34, 0xFF, 0x00, 0x56, 0x78, 0x9A, 0xBC, 0xDE, 0xF0,
	0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xAA,
	0xBB, 0xCC, 0xDD, 0xEE, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06,
}

// scenarioJPEG is SOI, APP0 JFIF, DQT, SOS with entropy data, EOI.
func scenarioJPEG() []byte {
	return makeJPEG(
		makeSegment(APP0, jfifPayload()),
		makeSegment(DQT, quantPayload(0)),
		scanSegment(testEntropy),
	)
}

// encodedJPEG returns a real baseline JPEG made by image/jpeg.
func encodedJPEG(t testing.TB, gray bool) []byte {
	t.Helper()
	const w, h = 32, 24
	var img image.Image
	if gray {
		g := image.NewGray(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g.SetGray(x, y, color.Gray{Y: uint8(x*7 + y*3)})
			}
		}
		img = g
	} else {
		c := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c.SetRGBA(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 10), B: uint8(x*y) ^ 0x5A, A: 255})
			}
		}
		img = c
	}
	var b bytes.Buffer
	if err := jpeg.Encode(&b, img, &jpeg.Options{Quality: 75}); err != nil {
		t.Fatalf("jpeg.Encode failed: %v", err)
	}
	return b.Bytes()
}

// withApps inserts APPn segments after the SOI of a JPEG file.
func withApps(t testing.TB, buf []byte, apps ...[]byte) []byte {
	t.Helper()
	if !IsJPEGHeader(buf) {
		t.Fatalf("not a JPEG header: % x", buf[:2])
	}
	out := append([]byte{}, buf[:2]...)
	for _, a := range apps {
		out = append(out, a...)
	}
	return append(out, buf[2:]...)
}
