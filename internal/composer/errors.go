package composer

import "errors"

// ErrNotComposing is returned when Submit is called before OpenReply.
var ErrNotComposing = errors.New("no compose in progress")
