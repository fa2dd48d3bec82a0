package report

import (
	"encoding/json"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/apitrail/apitrail/internal/model"
)

// TreeWriter outputs endpoints nested into a parent/child hierarchy rooted
// at the seed address. Every discovered record appears exactly once;
// records whose parent never became a node are attached directly under the
// root in discovery order.
type TreeWriter struct {
	baseWriter
}

// NewTreeWriter creates a TreeWriter that outputs to the given writer.
func NewTreeWriter(output io.Writer) *TreeWriter {
	return &TreeWriter{baseWriter: newBaseWriter(output)}
}

// treeArtifact is the serialized shape of the tree format.
type treeArtifact struct {
	StartURL    string      `json:"start_url"`
	APITree     *treeNode   `json:"api_tree"`
	Summary     treeSummary `json:"summary"`
	Stats       model.Stats `json:"stats"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt time.Time   `json:"completed_at"`
}

// treeSummary is the roll-up block of the tree format.
type treeSummary struct {
	TotalEndpoints    int `json:"total_endpoints"`
	MaxDepth          int `json:"max_depth"`
	DiscoveredDomains int `json:"discovered_domains"`
}

// treeNode is one node of the hierarchy. Field order matters for readers:
// the node's own description comes before its children.
type treeNode struct {
	API      treeAPI     `json:"api"`
	Children []*treeNode `json:"children,omitempty"`
}

// treeAPI describes the endpoint a node represents.
type treeAPI struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Rel         string `json:"rel"`
	Method      string `json:"method,omitempty"`
	ContentType string `json:"type,omitempty"`
	Title       string `json:"title,omitempty"`
	Depth       int    `json:"depth"`
}

// Write outputs the result in the tree format.
func (w *TreeWriter) Write(result *model.Result) (int, error) {
	artifact := treeArtifact{
		StartURL: result.StartURL,
		APITree:  buildTree(result),
		Summary: treeSummary{
			TotalEndpoints:    len(result.Endpoints),
			MaxDepth:          maxEndpointDepth(result),
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

// buildTree assembles the hierarchy from the flat record list.
//
// The root is the record whose address equals the seed, preferring a
// self-relation one; when no record describes the seed a root node is
// synthesized for it. The first record seen for an address becomes the
// attach point for that address's children.
func buildTree(result *model.Result) *treeNode {
	var root *treeNode
	rootIdx := -1
	for i, ep := range result.Endpoints {
		if ep.URL != result.StartURL {
			continue
		}
		if ep.Rel == "self" {
			rootIdx = i
			break
		}
		if rootIdx == -1 {
			rootIdx = i
		}
	}

	if rootIdx >= 0 {
		root = newTreeNode(result.Endpoints[rootIdx])
	} else {
		root = &treeNode{API: treeAPI{
			Name: nameForURL(result.StartURL),
			URL:  result.StartURL,
			Rel:  "self",
		}}
	}

	nodeByAddress := map[string]*treeNode{result.StartURL: root}

	nodes := make([]*treeNode, len(result.Endpoints))
	for i, ep := range result.Endpoints {
		if i == rootIdx {
			nodes[i] = root
			continue
		}
		nodes[i] = newTreeNode(ep)
		// First record for an address wins as the attach point.
		if _, ok := nodeByAddress[ep.URL]; !ok {
			nodeByAddress[ep.URL] = nodes[i]
		}
	}

	for i, ep := range result.Endpoints {
		if i == rootIdx {
			continue
		}
		parent, ok := nodeByAddress[ep.ParentURL]
		if !ok || parent == nodes[i] {
			parent = root
		}
		parent.Children = append(parent.Children, nodes[i])
	}

	return root
}

// maxEndpointDepth returns the deepest record depth, zero for an empty run.
func maxEndpointDepth(result *model.Result) int {
	var max int
	for _, ep := range result.Endpoints {
		if ep.Depth > max {
			max = ep.Depth
		}
	}
	return max
}

// newTreeNode converts one record to a childless node.
func newTreeNode(ep model.Endpoint) *treeNode {
	rel := ep.Rel
	if rel == "" {
		rel = "unknown"
	}
	return &treeNode{API: treeAPI{
		Name:        nameForURL(ep.URL),
		URL:         ep.URL,
		Rel:         rel,
		Method:      ep.Method,
		ContentType: ep.ContentType,
		Title:       ep.Title,
		Depth:       ep.Depth,
	}}
}

// nameForURL derives a short display name: the last path segment, or the
// host when the path is empty.
func nameForURL(address string) string {
	u, err := url.Parse(address)
	if err != nil {
		return address
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return u.Host
	}
	segments := strings.Split(path, "/")
	return segments[len(segments)-1]
}
