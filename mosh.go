package jpegmosh

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Mode selects which parts of the file get corrupted.
type Mode uint8

const (
	ModeQuant Mode = 1 << iota // quantization tables
	ModeImage                  // entropy-coded scan data
	ModeNone  Mode = 0
	ModeAll        = ModeQuant | ModeImage
)

func (m Mode) String() string {
	switch m & ModeAll {
	case ModeNone:
		return "none"
	case ModeQuant:
		return "quant"
	case ModeImage:
		return "image"
	}
	return "all"
}

// ParseMode reads a mode as a number (0-3), a name (none, quant, image,
// all), or a comma separated list of names.
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 8); err == nil {
		if Mode(n)&^ModeAll != 0 {
			return 0, errors.Wrapf(ErrBadParam, "mode %d", n)
		}
		return Mode(n), nil
	}
	var m Mode
	for _, name := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "none", "":
		case "quant", "qt", "dqt":
			m |= ModeQuant
		case "image", "im", "sos":
			m |= ModeImage
		case "all":
			m |= ModeAll
		default:
			return 0, errors.Wrapf(ErrBadParam, "mode %q", name)
		}
	}
	return m, nil
}

// Params configures one corruption.
type Params struct {
	Mode     Mode
	Quant    Intensity // applied to DQT table values if Mode has ModeQuant
	Image    Intensity // applied to SOS segments if Mode has ModeImage
	Validate bool      // retry until the Validator accepts the result
	MaxTries int       // attempts when validating; less than 1 means 1
}

// DefaultParams returns a moderate corruption of both tables and image data,
// without validation.
func DefaultParams() Params {
	return Params{
		Mode:     ModeAll,
		Quant:    Intensity{2, 1},
		Image:    Intensity{15, 1},
		MaxTries: 10,
	}
}

const (
	// Bytes of an SOS segment never corrupted, which keeps the scan header
	// intact for any number of components.
	scanProtected = 20
	// Marker and length field of a DQT segment.
	quantSkip = 4
	// Precision/id byte plus 64 8-bit values. 16-bit tables aren't
	// handled: their second half and the following tables are misplaced.
	quantStride = 65
)

// QuantMask returns the indices of the table values in a DQT segment of
// size n, assuming 8-bit tables.
func QuantMask(n int) []int {
	mask := make([]int, 0, 64*((n+quantStride-1)/quantStride))
	for start := quantSkip + 1; start < n; start += quantStride {
		for i := start; i < min(start+quantStride-1, n); i++ {
			mask = append(mask, i)
		}
	}
	return mask
}

// Validator decides if corrupted output is still an image.
type Validator interface {
	Validate(jpeg []byte) error
}

// ValidatorFunc adapts a function to a Validator.
type ValidatorFunc func(jpeg []byte) error

func (f ValidatorFunc) Validate(jpeg []byte) error {
	return f(jpeg)
}

// Mosher corrupts JPEG files. Rand is the source of randomness; a nil Rand
// is replaced with a randomly seeded one on each call, so a Mosher with a
// nil Rand may be shared, and one with a Rand may not. Validator is used if
// Params.Validate is set and defaults to DecodeValidator. Logf, if set, is
// told about failed attempts.
type Mosher struct {
	Params
	Rand      *rand.Rand
	Validator Validator
	Logf      func(format string, args ...any)
}

// NewMosher returns a Mosher with a source seeded from seed, so equal seeds
// give equal output.
func NewMosher(p Params, seed uint64) *Mosher {
	return &Mosher{Params: p, Rand: rand.New(rand.NewPCG(seed, seed))}
}

// Corrupt returns a corrupted copy of the JPEG file in buf. Quantization
// tables and scan data are corrupted according to the mode, and APP1 to
// APP15 segments are dropped whatever the mode. Bytes following a point
// where the scan stopped are dropped too.
//
// Without validation the first candidate is returned. With it, candidates
// are generated until one passes or MaxTries have failed, in which case the
// error wraps ErrRetryBudget.
func (m *Mosher) Corrupt(buf []byte) ([]byte, error) {
	rng := m.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if !m.Validate {
		return m.candidate(rng, buf), nil
	}
	validator := m.Validator
	if validator == nil {
		validator = DecodeValidator{}
	}
	tries := max(m.MaxTries, 1)
	var err error
	for try := 1; try <= tries; try++ {
		out := m.candidate(rng, buf)
		if err = validator.Validate(out); err == nil {
			return out, nil
		}
		if m.Logf != nil {
			m.Logf("attempt %d of %d doesn't decode: %v", try, tries, err)
		}
	}
	return nil, errors.Wrapf(ErrRetryBudget, "no valid data after %d tries (last: %v), probably asking for too much corruption", tries, err)
}

func (m *Mosher) candidate(rng *rand.Rand, buf []byte) []byte {
	out := make([]byte, 0, len(buf))
	for seg := range Segments(buf) {
		data := seg.Bytes
		switch {
		case seg.Marker == DQT:
			if m.Mode&ModeQuant != 0 {
				data = FlipBits(rng, data, m.Quant, quantSkip, QuantMask(len(data)))
			}
		case seg.Marker == SOS:
			if m.Mode&ModeImage != 0 {
				data = FlipBits(rng, data, m.Image, scanProtected, nil)
			}
		case seg.Marker.IsApp() && seg.Marker != APP0:
			continue
		}
		out = append(out, data...)
	}
	return out
}

// Corrupt corrupts buf with a randomly seeded source and the default
// validator.
func Corrupt(buf []byte, p Params) ([]byte, error) {
	m := &Mosher{Params: p}
	return m.Corrupt(buf)
}

// Strip returns buf with APP1 to APP15 segments removed and nothing else
// changed.
func Strip(buf []byte) []byte {
	m := &Mosher{}
	return m.candidate(nil, buf)
}
