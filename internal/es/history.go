package es

// EntityHistory is the durable state of one entity: the type it was created
// with, the version of its last event and all its events in version order.
type EntityHistory struct {
	Type    string           `json:"type"`
	Version EntityVersion    `json:"version"`
	Events  []PublishedEvent `json:"events"`
}
