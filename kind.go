package jpegmosh

import (
	"bytes"
	"fmt"
)

// Class is the broad category of a segment.
type Class uint8

const (
	ClassUnknown Class = iota
	ClassSOI
	ClassEOI
	ClassRST
	ClassDRI
	ClassSOF
	ClassDHT
	ClassDQT
	ClassSOS
	ClassCOM
	ClassAPP
	// ClassExtension collects the JPEG2000, JPEG-LS and ITU T.84 ranges
	// along with other reserved markers that are recognised but not used
	// by baseline or progressive JFIF files.
	ClassExtension
)

var classNames = [...]string{
	ClassUnknown:   "unknown",
	ClassSOI:       "SOI",
	ClassEOI:       "EOI",
	ClassRST:       "RST",
	ClassDRI:       "DRI",
	ClassSOF:       "SOF",
	ClassDHT:       "DHT",
	ClassDQT:       "DQT",
	ClassSOS:       "SOS",
	ClassCOM:       "COM",
	ClassAPP:       "APP",
	ClassExtension: "extension",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("Class(%d)", uint8(c))
}

// Kind classifies a segment. N is the index for RSTn, SOFn and APPn. Ident
// is the NUL-terminated identifier found at the start of an APPn payload, or
// empty if there is none.
type Kind struct {
	Class  Class
	Marker Marker
	N      int
	Ident  string
}

var sofNames = [16]string{
	0:  "baseline sequential, huffman",
	1:  "extended sequential, huffman",
	2:  "progressive, huffman",
	3:  "lossless, huffman",
	5:  "differential sequential, huffman",
	6:  "differential progressive, huffman",
	7:  "differential lossless, huffman",
	8:  "reserved for JPEG extensions",
	9:  "extended sequential, arithmetic",
	10: "progressive, arithmetic",
	11: "lossless, arithmetic",
	13: "differential sequential, arithmetic",
	14: "differential progressive, arithmetic",
	15: "differential lossless, arithmetic",
}

var jp2Names = map[Marker]string{
	0x51: "image and tile size",
	0x52: "coding style default",
	0x53: "coding style component",
	0x55: "tile-part lengths",
	0x57: "packet length, main header",
	0x58: "packet length, tile-part header",
	0x5C: "quantization default",
	0x5D: "quantization component",
	0x5E: "region of interest",
	0x5F: "progression order change",
	0x60: "packed packet headers, main header",
	0x61: "packed packet headers, tile-part header",
	0x63: "component registration",
	0x64: "comment",
	0x91: "start of packet",
	0x92: "end of packet header",
}

// Classify maps a marker, plus the segment bytes for APPn identifiers, to its
// Kind. It never fails; unrecognised markers are ClassUnknown.
func Classify(m Marker, seg []byte) Kind {
	k := Kind{Marker: m}
	switch {
	case m == SOI:
		k.Class = ClassSOI
	case m == EOI:
		k.Class = ClassEOI
	case m.IsRestart():
		k.Class, k.N = ClassRST, int(m-RST0)
	case m == DRI:
		k.Class = ClassDRI
	case m == DHT:
		k.Class = ClassDHT
	case m == DAC:
		k.Class = ClassExtension
	case m >= SOF0 && m <= SOF0+0xF:
		k.Class, k.N = ClassSOF, int(m-SOF0)
	case m == DQT:
		k.Class = ClassDQT
	case m == SOS:
		k.Class = ClassSOS
	case m == COM:
		k.Class = ClassCOM
	case m.IsApp():
		k.Class, k.N = ClassAPP, int(m-APP0)
		k.Ident = appIdent(seg)
	case m >= 0x30 && m <= 0x3F,
		m >= 0x4F && m <= 0x6F,
		m >= 0x90 && m <= 0x93,
		m >= JPG0 && m <= 0xFD,
		m == 0xFF:
		k.Class = ClassExtension
	}
	return k
}

// appIdent returns the NUL-terminated string at the start of an APPn payload,
// e.g. "JFIF" or "Exif". The search stays inside the segment.
func appIdent(seg []byte) string {
	if len(seg) <= 4 {
		return ""
	}
	nul := bytes.IndexByte(seg[4:], 0)
	if nul <= 0 {
		return ""
	}
	return string(seg[4 : 4+nul])
}

// String returns a readable description of the segment kind.
func (k Kind) String() string {
	switch k.Class {
	case ClassSOI:
		return "start of image"
	case ClassEOI:
		return "end of image"
	case ClassRST:
		return fmt.Sprintf("restart %d", k.N)
	case ClassDRI:
		return "restart interval"
	case ClassSOF:
		return "start of frame, " + sofNames[k.N&0xF]
	case ClassDHT:
		return "huffman tables"
	case ClassDQT:
		return "quantization tables"
	case ClassSOS:
		return "start of scan"
	case ClassCOM:
		return "comment"
	case ClassAPP:
		if k.Ident == "" {
			return fmt.Sprintf("APP%d", k.N)
		}
		return fmt.Sprintf("APP%d %q", k.N, k.Ident)
	case ClassExtension:
		return extensionName(k.Marker)
	}
	return "unknown marker"
}

func extensionName(m Marker) string {
	switch {
	case m >= 0x30 && m <= 0x3F:
		return "reserved JP2"
	case m == DAC:
		return "arithmetic conditioning table"
	case m == 0xF7:
		return "JPEG-LS start of frame (SOF48)"
	case m == 0xF8:
		return "JPEG-LS parameters (LSE)"
	case m >= JPG0 && m <= 0xFD, m == 0xFF:
		return "JPEG extensions, ITU T.84/IEC 10918-3"
	}
	if name, ok := jp2Names[m]; ok {
		return "JPEG2000 extension, " + name
	}
	return "JPEG2000 extension"
}
