package jpegmosh

import (
	"bytes"
	"encoding/binary"
	"io"
	"iter"

	"github.com/pkg/errors"
)

// Segment represents a marker and its segment data. Bytes always starts
// with the 0xFF and marker byte and shares memory with the scanned buffer.
// Length is the size the segment claims, which is also how far the scan
// advanced; Bytes is shorter than Length only when the buffer was truncated.
type Segment struct {
	Offset int
	Marker Marker
	Kind   Kind
	Length int
	Bytes  []byte
}

// Truncated reports whether the buffer ended before the segment did.
func (s Segment) Truncated() bool {
	return len(s.Bytes) < s.Length
}

// Payload returns the bytes following the marker.
func (s Segment) Payload() []byte {
	if len(s.Bytes) < 2 {
		return nil
	}
	return s.Bytes[2:]
}

var eoiMarker = []byte{0xFF, EOI}

// Scanner splits an in-memory JPEG file into segments in a single forward
// pass. It doesn't decode anything: sizes come from the marker, the length
// field, or for SOS from where the file ends.
//
// The SOS segment runs up to a trailing EOI marker if the buffer ends with
// one, and to the end of the buffer otherwise. That is a heuristic, not a
// parse of the entropy-coded data: in a progressive file the first SOS
// swallows every later DHT and SOS segment. ScanEntropy does the
// stuffing-aware walk for callers who want to know where the data really
// ends.
type Scanner struct {
	buf  []byte
	pos  int
	eoi  bool
	done bool
}

// NewScanner creates a Scanner positioned at the start of buf.
func NewScanner(buf []byte) *Scanner {
	return &Scanner{
		buf: buf,
		eoi: bytes.HasSuffix(buf, eoiMarker),
	}
}

// Offset returns the position of the next segment. After the scan stops
// early it is the position of the first byte that wasn't consumed.
func (s *Scanner) Offset() int {
	return min(s.pos, len(s.buf))
}

// Scan returns the next segment. It returns false at the end of the buffer,
// or when the byte at the current position isn't 0xFF followed by a marker
// byte; the remaining bytes are then left unscanned.
func (s *Scanner) Scan() (Segment, bool) {
	if s.done || s.pos >= len(s.buf) {
		return Segment{}, false
	}
	start := s.pos
	if s.buf[start] != 0xFF || start+1 >= len(s.buf) {
		s.done = true
		return Segment{}, false
	}
	marker := Marker(s.buf[start+1])
	length := s.length(start, marker)
	end := min(start+length, len(s.buf))
	seg := Segment{
		Offset: start,
		Marker: marker,
		Length: length,
		Bytes:  s.buf[start:end:end],
	}
	seg.Kind = Classify(marker, seg.Bytes)
	s.pos = start + length
	return seg, true
}

// length works out the total size of the segment starting at start.
func (s *Scanner) length(start int, marker Marker) int {
	strategy, size := StrategyOf(marker)
	switch strategy {
	case Fixed:
		return size
	case ScanTerminated:
		end := len(s.buf)
		if s.eoi && end-2 > start {
			end -= 2
		}
		return end - start
	}
	if start+4 > len(s.buf) {
		// No room for the length field.
		return len(s.buf) - start
	}
	return 2 + int(binary.BigEndian.Uint16(s.buf[start+2:]))
}

// Segments returns an iterator over the segments of buf. Every call to the
// iterator performs a fresh scan.
func Segments(buf []byte) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		scanner := NewScanner(buf)
		for {
			seg, ok := scanner.Scan()
			if !ok || !yield(seg) {
				return
			}
		}
	}
}

// ReadSegments scans all of buf and returns the segments in file order.
func ReadSegments(buf []byte) []Segment {
	var segments = make([]Segment, 0, 20)
	for seg := range Segments(buf) {
		segments = append(segments, seg)
	}
	return segments
}

// Covered returns the number of bytes the segments account for. It is
// smaller than the input length when the scan stopped early.
func Covered(segments []Segment) int {
	n := 0
	for i := range segments {
		n += len(segments[i].Bytes)
	}
	return n
}

// Join concatenates the bytes of the segments.
func Join(segments []Segment) []byte {
	out := make([]byte, 0, Covered(segments))
	for i := range segments {
		out = append(out, segments[i].Bytes...)
	}
	return out
}

// WriteSegments writes the given segments to a stream.
func WriteSegments(writer io.Writer, segments []Segment) error {
	for i := range segments {
		if _, err := writer.Write(segments[i].Bytes); err != nil {
			return errors.Wrapf(err, "writing %s at %d", segments[i].Marker.Name(), segments[i].Offset)
		}
	}
	return nil
}

// EntropyStats describes the entropy-coded data that follows a scan header.
type EntropyStats struct {
	Header   int    // SOS marker, length field and header
	Data     int    // entropy-coded bytes, not counting stuffed zeros
	Stuffed  int    // 0x00 bytes following an escaped 0xFF
	Fill     int    // 0xFF fill bytes before a marker
	Restarts int    // RSTn markers inside the data
	End      int    // offset in the segment where the data stops
	Next     Marker // marker found at End, 0 if the data ran to the end
}

// ScanEntropy walks the data of an SOS segment the way a decoder would,
// skipping stuffed zeros and restart markers, and stops at the first other
// marker. It only reports what it found; the scanner's sizing of the SOS
// segment is unchanged.
func ScanEntropy(seg Segment) (EntropyStats, error) {
	var st EntropyStats
	if seg.Marker != SOS {
		return st, errors.Wrapf(ErrWrongMarker, "%s is not SOS", seg.Marker.Name())
	}
	b := seg.Bytes
	if len(b) < 4 {
		return st, errors.Wrap(ErrShortSegment, "SOS length field")
	}
	st.Header = 2 + int(binary.BigEndian.Uint16(b[2:]))
	if st.Header > len(b) {
		return st, errors.Wrapf(ErrShortSegment, "SOS header of %d bytes in %d", st.Header, len(b))
	}
	fill := 0 // run of fill bytes before the current position
	for i := st.Header; i < len(b); i++ {
		if b[i] != 0xFF {
			st.Data++
			fill = 0
			continue
		}
		if i+1 >= len(b) {
			st.Data++
			break
		}
		next := b[i+1]
		switch {
		case next == 0:
			// Escaped 0xFF in data stream.
			st.Data++
			st.Stuffed++
			fill = 0
			i++
		case next == 0xFF:
			st.Fill++
			fill++
		case Marker(next).IsRestart():
			st.Restarts++
			fill = 0
			i++
		default:
			st.End = i - fill
			st.Next = Marker(next)
			return st, nil
		}
	}
	st.End = len(b)
	return st, nil
}
