package model

// Known link-object fields. When a source JSON object carries one of these
// keys, the value populates the matching Endpoint field and never appears
// in Metadata.
const (
	FieldHref   = "href"
	FieldRel    = "rel"
	FieldMethod = "method"
	FieldType   = "type"
	FieldTitle  = "title"
)

// IsKnownField reports whether key is one of the reserved link-object keys.
// Reserved keys are promoted to Endpoint fields; everything else is copied
// into Metadata verbatim.
func IsKnownField(key string) bool {
	switch key {
	case FieldHref, FieldRel, FieldMethod, FieldType, FieldTitle:
		return true
	}
	return false
}

// Endpoint represents a single discovered API link.
//
// The JSON field names match the artifact wire format: optional fields are
// omitted entirely when empty rather than serialized as null.
type Endpoint struct {
	// URL is the normalized absolute address of the endpoint.
	URL string `json:"href"`

	// Rel is the semantic relation under which the endpoint was discovered:
	// the declared "rel" value, the link key in a _links/links block, or an
	// inferred source key name for URL-bearing string properties.
	Rel string `json:"rel,omitempty"`

	// Method is the HTTP method, present only when the source declared one.
	Method string `json:"method,omitempty"`

	// ContentType is the declared media type of the target, if any.
	ContentType string `json:"type,omitempty"`

	// Title is a human-readable label, present only when declared.
	Title string `json:"title,omitempty"`

	// Depth is the BFS distance from the seed. The seed itself is depth 0.
	Depth int `json:"depth"`

	// ParentURL is the address of the page that exposed this link.
	// Empty only for the seed record.
	ParentURL string `json:"parent_url,omitempty"`

	// Metadata holds all other sibling keys of the source link object,
	// copied verbatim. Invariant: never contains rel, method, type, title,
	// or href under those keys.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// identitySep separates identity key components. A unit separator cannot
// appear in a parsed URL or relation name.
const identitySep = "\x1f"

// Identity returns the dedup key for this endpoint. Two endpoints are the
// same discovery exactly when address, parent, and relation all match;
// the key is used only for set membership and is never persisted.
func (e *Endpoint) Identity() string {
	return e.URL + identitySep + e.ParentURL + identitySep + e.Rel
}

// ShouldFollow reports whether the endpoint's address is a candidate for
// further crawling. Links declared rel="self" point back at the page that
// exposed them and following them would only re-fetch the parent.
func (e *Endpoint) ShouldFollow() bool {
	return e.Rel != "self"
}
