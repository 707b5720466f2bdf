package jpegmosh

import (
	"github.com/pkg/errors"
)

var (
	// ErrShortSegment is returned by the header parsers when a segment is
	// too short for the structure it is supposed to hold.
	ErrShortSegment = errors.New("segment too short")
	// ErrWrongMarker is returned when a parser is handed a segment of
	// another kind.
	ErrWrongMarker = errors.New("unexpected marker")
	// ErrNoHeader is returned when an APPn payload lacks the identifier a
	// metadata parser expects.
	ErrNoHeader = errors.New("metadata header not found")
	// ErrRetryBudget is returned by Corrupt when validation is enabled and
	// no candidate decoded within the allowed number of tries.
	ErrRetryBudget = errors.New("corruption exceeded retry budget")
	// ErrBadParam is returned when parsing a mode or intensity fails.
	ErrBadParam = errors.New("bad parameter")
)
