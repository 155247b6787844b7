package core

// RetrievedDocument is a transient similarity-search result produced by the
// retrieval gateway. Similarity is normalized to [0,1] where 1 means an exact
// match; Metadata is an opaque key/value mapping owned by the backing store.
// Instances are never mutated after construction.
type RetrievedDocument struct {
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	Similarity float64        `json:"similarity"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}
