package memory

import "errors"

// ErrOverflowed is returned when a turn is recorded into memory that has
// exceeded one of its bounds. The memory must be reset first.
var ErrOverflowed = errors.New("conversation memory overflowed")
