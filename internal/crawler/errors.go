package crawler

import "errors"

// ErrBadStatus is returned by Fetch when the server answers with a status
// outside the 2xx range. Wrapped errors carry the exact code, so callers
// check with errors.Is(err, ErrBadStatus).
var ErrBadStatus = errors.New("unexpected HTTP status")
