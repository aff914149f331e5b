package guest

import "errors"

var (
	// ErrAddressNotMapped is returned when a guest address is not backed by
	// any mapped region of the accessor.
	ErrAddressNotMapped = errors.New("guest address not mapped")

	// ErrOutOfBounds is returned when a read extends past the end of the
	// region containing its start address.
	ErrOutOfBounds = errors.New("guest read out of bounds")

	// ErrNullAddress is returned when a read is attempted at the null address.
	ErrNullAddress = errors.New("null guest address")
)
