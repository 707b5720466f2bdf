package jpegmosh

import (
	"fmt"
)

const (
	TEM  = 0x01
	SOF0 = 0xC0 // SOFn = SOF0+n, n = 0-15 excluding 4 and 12; n = 8 is named JPG
	DHT  = 0xC4
	JPG  = 0xC8
	DAC  = 0xCC
	RST0 = 0xD0 // RSTn = RST0+n, n = 0-7
	SOI  = 0xD8
	EOI  = 0xD9
	SOS  = 0xDA
	DQT  = 0xDB
	DNL  = 0xDC
	DRI  = 0xDD
	DHP  = 0xDE
	EXP  = 0xDF
	APP0 = 0xE0 // APPn = APP0+n, n = 0-15
	JPG0 = 0xF0 // JPGn = JPG0+n  n = 0-13
	COM  = 0xFE
)

// Marker represents a JPEG marker, which usually indicates the start of a
// segment.
type Marker uint8

var markerNames [256]string

// Initialize markerNames
func init() {
	markerNames[0] = "NUL"
	markerNames[TEM] = "TEM"
	markerNames[DHT] = "DHT"
	markerNames[JPG] = "JPG"
	markerNames[DAC] = "DAC"
	markerNames[SOI] = "SOI"
	markerNames[EOI] = "EOI"
	markerNames[SOS] = "SOS"
	markerNames[DQT] = "DQT"
	markerNames[DNL] = "DNL"
	markerNames[DRI] = "DRI"
	markerNames[DHP] = "DHP"
	markerNames[EXP] = "EXP"
	markerNames[COM] = "COM"
	markerNames[0xFF] = "FILL"

	var i Marker
	for i = 0x02; i <= 0xBF; i++ {
		markerNames[i] = fmt.Sprintf("RES%.2X", i) // Reserved
	}
	for i = SOF0; i <= SOF0+0xF; i++ {
		if i == DHT || i == JPG || i == DAC {
			continue
		}
		markerNames[i] = fmt.Sprintf("SOF%d", i-SOF0)
	}
	for i = RST0; i <= RST0+7; i++ {
		markerNames[i] = fmt.Sprintf("RST%d", i-RST0)
	}
	for i = APP0; i <= APP0+0xF; i++ {
		markerNames[i] = fmt.Sprintf("APP%d", i-APP0)
	}
	for i = JPG0; i <= JPG0+0xD; i++ {
		markerNames[i] = fmt.Sprintf("JPG%d", i-JPG0)
	}
}

// Name returns the name of a marker value.
func (m Marker) Name() string {
	return markerNames[m]
}

// IsApp reports whether m is one of APP0..APP15.
func (m Marker) IsApp() bool {
	return m >= APP0 && m <= APP0+0xF
}

// IsRestart reports whether m is one of RST0..RST7.
func (m Marker) IsRestart() bool {
	return m >= RST0 && m <= RST0+7
}

// Size of a JPEG file header.
const HeaderSize = 2

// Indicate if buffer contains a JPEG header.
func IsJPEGHeader(buf []byte) bool {
	return len(buf) >= HeaderSize && buf[0] == 0xFF && buf[1] == SOI
}

// Strategy says how the total size of a segment is found.
type Strategy uint8

const (
	// LengthPrefixed segments carry a 2 byte big-endian length after the
	// marker that counts itself and the payload. This is the default.
	LengthPrefixed Strategy = iota
	// Fixed segments have a size known from the marker alone.
	Fixed
	// ScanTerminated is the SOS segment: a self-described header followed
	// by entropy-coded data that runs to the trailing EOI, or to the end of
	// the buffer when there is none.
	ScanTerminated
)

func (s Strategy) String() string {
	switch s {
	case LengthPrefixed:
		return "length-prefixed"
	case Fixed:
		return "fixed"
	case ScanTerminated:
		return "scan-terminated"
	}
	return fmt.Sprintf("Strategy(%d)", uint8(s))
}

// StrategyOf returns the sizing strategy for a marker, and for Fixed markers
// the total segment size including the two marker bytes. Markers not known to
// be fixed size or SOS fall back to LengthPrefixed, which desynchronizes the
// scan if such a marker is in fact a bare marker.
func StrategyOf(m Marker) (Strategy, int) {
	switch {
	case m == SOI, m == EOI, m.IsRestart():
		return Fixed, 2
	case m >= 0x30 && m <= 0x3F: // reserved JP2
		return Fixed, 2
	case m == DRI:
		return Fixed, 6
	case m == SOS:
		return ScanTerminated, 0
	}
	return LengthPrefixed, 0
}
