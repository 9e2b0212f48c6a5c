package common

import "fmt"

// InvalidState rejects a call attempted in a lifecycle state that does not
// permit it. The value carries the actual state so callers can diagnose
// without a second query.
type InvalidState uint8

// Error renders the canonical machine-checkable form.
func (s InvalidState) Error() string { return fmt.Sprintf("invalidState(%d)", uint8(s)) }
