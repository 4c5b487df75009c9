package articulation

import "errors"

var (
	// ErrMalformedBlock is returned for a header that is not a JSON object,
	// even after repair.
	ErrMalformedBlock = errors.New("malformed action block")

	// ErrContentBlock is returned when a raw content block is announced but
	// missing, empty, or duplicated by a "content" field.
	ErrContentBlock = errors.New("invalid content block")
)
