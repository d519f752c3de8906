package consultation

import "errors"

// ErrNotFound is returned when a consultation identifier was never
// registered. Reachable only when the registry is bypassed.
var ErrNotFound = errors.New("consultation not found")
