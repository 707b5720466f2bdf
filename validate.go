package jpegmosh

import (
	"bytes"
	"image/jpeg"

	"github.com/gen2brain/jpegn"
	"github.com/pkg/errors"
)

// DecodeValidator accepts data that jpegn can fully decode. jpegn is about
// as forgiving as libjpeg, so this approximates "a viewer will show it".
type DecodeValidator struct {
	Options *jpegn.Options
}

func (v DecodeValidator) Validate(data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("jpegn: panic: %v", r)
		}
	}()
	var opts []*jpegn.Options
	if v.Options != nil {
		opts = append(opts, v.Options)
	}
	_, err = jpegn.Decode(bytes.NewReader(data), opts...)
	return errors.Wrap(err, "jpegn")
}

// StdlibValidator accepts data that image/jpeg can decode. It is much
// stricter than DecodeValidator and rejects most corrupted scan data.
type StdlibValidator struct{}

func (StdlibValidator) Validate(data []byte) error {
	_, err := jpeg.Decode(bytes.NewReader(data))
	return errors.Wrap(err, "image/jpeg")
}

// NewValidator returns the validator with the given name: "jpegn" or "std".
func NewValidator(name string) (Validator, error) {
	switch name {
	case "", "jpegn":
		return DecodeValidator{}, nil
	case "std", "stdlib":
		return StdlibValidator{}, nil
	}
	return nil, errors.Wrapf(ErrBadParam, "validator %q", name)
}
