package types

// Event represents a typed event emitted during state transitions. Attributes
// carry the identifiers off-chain consumers need to reconstruct protocol state
// without replaying execution.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// Attribute returns the named attribute or the empty string when absent.
func (e *Event) Attribute(key string) string {
	if e == nil || e.Attributes == nil {
		return ""
	}
	return e.Attributes[key]
}
