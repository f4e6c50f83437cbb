package types

// Event is the wire form of a committed ledger event. Attribute values are
// strings: addresses in bech32, amounts in base 10.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// Attribute returns the named attribute, or "" when e or the key is absent.
func (e *Event) Attribute(key string) string {
	if e == nil {
		return ""
	}
	return e.Attributes[key]
}
