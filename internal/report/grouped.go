package report

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/apitrail/apitrail/internal/model"
)

// GroupedWriter outputs endpoints bucketed under the parent address that
// exposed them. Parents appear in the order their first child was
// discovered, and children keep discovery order within each bucket.
type GroupedWriter struct {
	baseWriter
}

// NewGroupedWriter creates a GroupedWriter that outputs to the given writer.
func NewGroupedWriter(output io.Writer) *GroupedWriter {
	return &GroupedWriter{baseWriter: newBaseWriter(output)}
}

// groupedArtifact is the serialized shape of the grouped format.
type groupedArtifact struct {
	StartURL    string             `json:"start_url"`
	Hierarchy   *endpointHierarchy `json:"endpoint_hierarchy"`
	Summary     groupedSummary     `json:"summary"`
	Stats       model.Stats        `json:"stats"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt time.Time          `json:"completed_at"`
}

// groupedSummary is the roll-up block of the grouped format.
type groupedSummary struct {
	TotalEndpoints    int `json:"total_endpoints"`
	UniqueParents     int `json:"unique_parents"`
	DiscoveredDomains int `json:"discovered_domains"`
}

// endpointHierarchy is an insertion-ordered parent-to-children map.
// encoding/json would sort a plain map's keys, losing discovery order,
// so it marshals itself.
type endpointHierarchy struct {
	buckets *orderedmap.OrderedMap[string, []model.Endpoint]
}

func newEndpointHierarchy() *endpointHierarchy {
	return &endpointHierarchy{
		buckets: orderedmap.NewOrderedMap[string, []model.Endpoint](),
	}
}

// add appends ep to its parent's bucket, creating the bucket on first use.
func (h *endpointHierarchy) add(ep model.Endpoint) {
	parent := ep.ParentURL
	if parent == "" {
		parent = "root"
	}
	bucket, _ := h.buckets.Get(parent)
	h.buckets.Set(parent, append(bucket, ep))
}

// MarshalJSON emits the buckets as a JSON object in insertion order.
func (h *endpointHierarchy) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	for el := h.buckets.Front(); el != nil; el = el.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false

		key, err := json.Marshal(el.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := json.Marshal(el.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Write outputs the result in the grouped format.
func (w *GroupedWriter) Write(result *model.Result) (int, error) {
	hierarchy := newEndpointHierarchy()
	for _, ep := range result.Endpoints {
		hierarchy.add(ep)
	}

	artifact := groupedArtifact{
		StartURL:  result.StartURL,
		Hierarchy: hierarchy,
		Summary: groupedSummary{
			TotalEndpoints:    len(result.Endpoints),
			UniqueParents:     result.UniqueParents(),
			DiscoveredDomains: len(result.DiscoveredHosts()),
		},
		Stats:       result.Stats,
		StartedAt:   result.StartedAt,
		CompletedAt: result.CompletedAt,
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
