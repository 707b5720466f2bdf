package jpegmosh

import (
	"bytes"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Intensity says how hard to corrupt a region: Count rounds, each picking a
// byte and flipping Bits random bits in it. Bytes and bits are picked with
// replacement, so both are upper bounds on the change actually made.
type Intensity struct {
	Count int
	Bits  int
}

// Zero reports whether the intensity can't change anything.
func (in Intensity) Zero() bool {
	return in.Count <= 0 || in.Bits <= 0
}

func (in Intensity) String() string {
	return strconv.Itoa(in.Count) + "," + strconv.Itoa(in.Bits)
}

// FlipBits returns a copy of data with random bits flipped. Bytes before
// skip are never touched. If mask is non-nil only the indices it lists are
// candidates, less those not above skip or past the end of data; an empty
// result leaves data as it is.
func FlipBits(rng *rand.Rand, data []byte, in Intensity, skip int, mask []int) []byte {
	out := bytes.Clone(data)
	skip = max(skip, 0)
	var domain []int
	if mask != nil {
		domain = make([]int, 0, len(mask))
		for _, i := range mask {
			if i > skip && i < len(data) {
				domain = append(domain, i)
			}
		}
		if len(domain) == 0 {
			return out
		}
	} else if skip >= len(data) {
		return out
	}
	for range in.Count {
		var target int
		if domain != nil {
			target = domain[rng.IntN(len(domain))]
		} else {
			target = skip + rng.IntN(len(data)-skip)
		}
		for range in.Bits {
			out[target] ^= 1 << rng.IntN(8)
		}
	}
	return out
}

// Eyeballed intensities. Small changes to a quantization table have a lot of
// effect, and image data breaks off easily when many bits per byte flip.
var (
	QuantPresets = map[string]Intensity{
		"none":   {0, 0},
		"little": {1, 1},
		"more":   {2, 2},
		"lots":   {4, 2},
		"bunch":  {6, 2},
		"max":    {12, 4},
	}
	ImagePresets = map[string]Intensity{
		"none":   {0, 0},
		"little": {3, 1},
		"more":   {8, 2},
		"lots":   {30, 2},
		"bunch":  {80, 2},
		"max":    {140, 3},
	}
)

// ParseIntensity reads "count,bits" or the name of one of the presets.
func ParseIntensity(s string, presets map[string]Intensity) (Intensity, error) {
	s = strings.TrimSpace(s)
	if in, ok := presets[strings.ToLower(s)]; ok {
		return in, nil
	}
	count, bits, ok := strings.Cut(s, ",")
	if !ok {
		return Intensity{}, errors.Wrapf(ErrBadParam, "intensity %q: want count,bits or a preset", s)
	}
	var in Intensity
	var err error
	if in.Count, err = strconv.Atoi(strings.TrimSpace(count)); err != nil || in.Count < 0 {
		return Intensity{}, errors.Wrapf(ErrBadParam, "intensity %q: bad count", s)
	}
	if in.Bits, err = strconv.Atoi(strings.TrimSpace(bits)); err != nil || in.Bits < 0 {
		return Intensity{}, errors.Wrapf(ErrBadParam, "intensity %q: bad bit count", s)
	}
	return in, nil
}
