package explorer

import (
	"strings"
	"unicode"
)

// EventLabel turns a dotted event type into a human-readable explorer label,
// e.g. "fund.stateTransited" becomes "State Transited".
func EventLabel(eventType string) string {
	name := eventType
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "Event"
	}
	var b strings.Builder
	for i, r := range name {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Label returns the display label for the record's event type.
func (r EventRecord) Label() string {
	return EventLabel(r.Type)
}
