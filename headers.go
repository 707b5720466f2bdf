package jpegmosh

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// The parsers in this file read the headers of a few segment types for
// display. Nothing in the scanner or the corruption engine depends on them.

// JFIF holds the fields of an APP0 JFIF header.
type JFIF struct {
	Major, Minor       uint8
	Units              uint8 // 0 none, 1 dots per inch, 2 dots per cm
	XDensity, YDensity uint16
	XThumb, YThumb     uint8 // nonzero if an uncompressed thumbnail follows
}

var jfifHeader = []byte("JFIF\000")

// UnitName returns a description of the density units.
func (j JFIF) UnitName() string {
	switch j.Units {
	case 0:
		return "none"
	case 1:
		return "dpi"
	case 2:
		return "dpcm"
	}
	return fmt.Sprintf("unknown (%d)", j.Units)
}

// ParseJFIF reads the JFIF header from an APP0 segment.
func ParseJFIF(seg Segment) (JFIF, error) {
	var j JFIF
	b := seg.Bytes
	if seg.Marker != APP0 {
		return j, errors.Wrapf(ErrWrongMarker, "%s is not APP0", seg.Marker.Name())
	}
	if len(b) < 9 || !bytes.Equal(b[4:9], jfifHeader) {
		return j, errors.Wrap(ErrNoHeader, "JFIF")
	}
	if len(b) < 18 {
		return j, errors.Wrapf(ErrShortSegment, "JFIF header in %d bytes", len(b))
	}
	j.Major, j.Minor = b[9], b[10]
	j.Units = b[11]
	j.XDensity = binary.BigEndian.Uint16(b[12:])
	j.YDensity = binary.BigEndian.Uint16(b[14:])
	j.XThumb, j.YThumb = b[16], b[17]
	return j, nil
}

// FrameComponent is one entry of a SOF component table.
type FrameComponent struct {
	ID     uint8
	H, V   uint8 // sampling factors
	QTable uint8
}

// Frame holds the fields of a SOFn segment.
type Frame struct {
	Precision     uint8
	Height, Width uint16
	Components    []FrameComponent
}

// ParseFrame reads a SOFn segment.
func ParseFrame(seg Segment) (Frame, error) {
	var f Frame
	if seg.Kind.Class != ClassSOF {
		return f, errors.Wrapf(ErrWrongMarker, "%s is not SOFn", seg.Marker.Name())
	}
	b := seg.Bytes
	if len(b) < 10 {
		return f, errors.Wrapf(ErrShortSegment, "frame header in %d bytes", len(b))
	}
	f.Precision = b[4]
	f.Height = binary.BigEndian.Uint16(b[5:])
	f.Width = binary.BigEndian.Uint16(b[7:])
	n := int(b[9])
	if len(b) < 10+3*n {
		return f, errors.Wrapf(ErrShortSegment, "%d frame components in %d bytes", n, len(b))
	}
	f.Components = make([]FrameComponent, n)
	for i := range f.Components {
		c := b[10+3*i:]
		f.Components[i] = FrameComponent{ID: c[0], H: c[1] >> 4, V: c[1] & 0xF, QTable: c[2]}
	}
	return f, nil
}

// ScanComponent is one component selector of an SOS header.
type ScanComponent struct {
	ID     uint8
	DC, AC uint8 // huffman table indices
}

// ScanHeader holds the header of an SOS segment.
type ScanHeader struct {
	Components []ScanComponent
	Ss, Se     uint8 // spectral selection
	Ah, Al     uint8 // successive approximation
}

// ParseScanHeader reads the header at the start of an SOS segment.
func ParseScanHeader(seg Segment) (ScanHeader, error) {
	var h ScanHeader
	if seg.Marker != SOS {
		return h, errors.Wrapf(ErrWrongMarker, "%s is not SOS", seg.Marker.Name())
	}
	b := seg.Bytes
	if len(b) < 5 {
		return h, errors.Wrapf(ErrShortSegment, "scan header in %d bytes", len(b))
	}
	n := int(b[4])
	if len(b) < 5+2*n+3 {
		return h, errors.Wrapf(ErrShortSegment, "%d scan components in %d bytes", n, len(b))
	}
	h.Components = make([]ScanComponent, n)
	for i := range h.Components {
		c := b[5+2*i:]
		h.Components[i] = ScanComponent{ID: c[0], DC: c[1] >> 4, AC: c[1] & 0xF}
	}
	tail := b[5+2*n:]
	h.Ss, h.Se = tail[0], tail[1]
	h.Ah, h.Al = tail[2]>>4, tail[2]&0xF
	return h, nil
}

// QuantTable locates one table inside a DQT segment.
type QuantTable struct {
	Precision uint8 // 0 for 8 bit entries, 1 for 16 bit
	ID        uint8
	Offset    int // index of the first value in the segment bytes
}

// Size returns the number of value bytes in the table.
func (q QuantTable) Size() int {
	if q.Precision != 0 {
		return 128
	}
	return 64
}

// QuantTables lists the tables in a DQT segment. If the segment ends part
// way through a table, the complete tables are returned with an error.
func QuantTables(seg Segment) ([]QuantTable, error) {
	if seg.Marker != DQT {
		return nil, errors.Wrapf(ErrWrongMarker, "%s is not DQT", seg.Marker.Name())
	}
	b := seg.Bytes
	var tables []QuantTable
	for i := 4; i < len(b); {
		q := QuantTable{Precision: b[i] >> 4, ID: b[i] & 0xF, Offset: i + 1}
		if q.Offset+q.Size() > len(b) {
			return tables, errors.Wrapf(ErrShortSegment, "quantization table %d", q.ID)
		}
		tables = append(tables, q)
		i = q.Offset + q.Size()
	}
	return tables, nil
}

// ComponentName returns the usual name of a component id.
func ComponentName(id uint8) string {
	switch id {
	case 1:
		return "Y"
	case 2:
		return "Cb"
	case 3:
		return "Cr"
	case 4:
		return "I"
	case 5:
		return "Q"
	}
	return fmt.Sprint(id)
}
