package ports

import "errors"

// ErrStoreUnavailable wraps any persistence failure that is not a domain outcome.
var ErrStoreUnavailable = errors.New("the ride store is unavailable, please try again")
