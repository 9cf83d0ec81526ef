package models

// InboundEvent is a repository webhook normalized for matching and rendering.
// It lives only for the duration of one dispatch.
type InboundEvent struct {
	Source     EventSource
	Type       string
	Body       []byte
	Signature  string
	Repository string
	DeliveryID string
	Payload    map[string]any
}
