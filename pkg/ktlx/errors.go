package ktlx

import "errors"

// Sentinel errors returned by the public API. Callers check them with
// errors.Is; every return site wraps them with positional context.
var (
	// ErrUnsupportedSchema is returned when a file declares a schema or base
	// schema version outside the supported set. This is a hard failure, the
	// rest of the file cannot be interpreted.
	ErrUnsupportedSchema = errors.New("ktlx: unsupported file schema")

	// ErrUnsupportedHeadbox is returned when the header names an acquisition
	// hardware type with no known calibration layout.
	ErrUnsupportedHeadbox = errors.New("ktlx: unsupported headbox type")

	// ErrDesync is returned when a stream position holds bytes that the
	// format forbids (bad control byte, bad video record marker). The stream
	// cannot be trusted past this point.
	ErrDesync = errors.New("ktlx: stream desynchronized")

	// ErrMissingSegment is returned when the segment index references a raw
	// data file that is absent from disk. The index itself stays valid.
	ErrMissingSegment = errors.New("ktlx: segment file missing")

	// ErrOutOfRange is returned when a requested sample position is not
	// covered by the segment index.
	ErrOutOfRange = errors.New("ktlx: sample range not covered by index")
)
