package kvstore

import "errors"

// ErrCorrupt marks a stored value that could not be decoded.
var ErrCorrupt = errors.New("kvstore: corrupt value")
