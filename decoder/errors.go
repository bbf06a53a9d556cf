package decoder

import "cosmossdk.io/errors"

var (
	ErrInvalidDiscriminator = errors.Register("matchbook/decoder", 1, "unrecognized account discriminator")
	ErrUnsupportedVersion   = errors.Register("matchbook/decoder", 2, "unsupported account version")
)

// DataTooShortError reports a read past the end of the input buffer.
type DataTooShortError struct {
	Expected int
	Actual   int
}

func (e *DataTooShortError) Error() string {
	return "decoder: data too short"
}

// InvalidDataError reports an arithmetic overflow or other structural
// inconsistency while deriving an offset from a field.
type InvalidDataError struct {
	Field string
}

func (e *InvalidDataError) Error() string {
	return "decoder: invalid data in field " + e.Field
}
