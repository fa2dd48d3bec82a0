package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/apitrail/apitrail/internal/model"
)

// SummaryWriter prints a short human-readable run summary, meant for the
// terminal after a crawl regardless of which artifact format was chosen.
type SummaryWriter struct {
	baseWriter
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer) *SummaryWriter {
	return &SummaryWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the summary.
func (w *SummaryWriter) Write(result *model.Result) (int, error) {
	var b strings.Builder

	b.WriteString("Crawl Summary\n")
	b.WriteString("=============\n")
	fmt.Fprintf(&b, "Start URL:        %s\n", result.StartURL)
	fmt.Fprintf(&b, "Endpoints found:  %d\n", len(result.Endpoints))
	fmt.Fprintf(&b, "URLs processed:   %d\n", result.Stats.URLsProcessed)
	fmt.Fprintf(&b, "Successful:       %d\n", result.Stats.SuccessfulRequests)
	fmt.Fprintf(&b, "Failed:           %d\n", result.Stats.FailedRequests)
	fmt.Fprintf(&b, "Skipped:          %d\n", result.Stats.URLsSkipped)
	fmt.Fprintf(&b, "Max depth:        %d\n", result.Stats.MaxDepthReached)
	fmt.Fprintf(&b, "Duration:         %dms\n", result.Stats.TotalTimeMs)

	hosts := hostList(result)
	if len(hosts) > 0 {
		fmt.Fprintf(&b, "Hosts discovered: %s\n", strings.Join(hosts, ", "))
	}

	if deepest := maxEndpointDepth(result); deepest > 0 {
		b.WriteString("\nEndpoints by depth:\n")
		for depth := 1; depth <= deepest; depth++ {
			if at := result.EndpointsAtDepth(depth); len(at) > 0 {
				fmt.Fprintf(&b, "  depth %d: %d\n", depth, len(at))
			}
		}
	}

	if parents := topParents(result, 3); len(parents) > 0 {
		b.WriteString("\nTop parents:\n")
		for _, p := range parents {
			fmt.Fprintf(&b, "  %s (%d)\n", p.address, p.children)
		}
	}

	if len(result.Stats.Errors) > 0 {
		b.WriteString("\nErrors:\n")
		for _, e := range result.Stats.Errors {
			fmt.Fprintf(&b, "  - %s\n", e.Error())
		}
	}

	return io.WriteString(w.output, b.String())
}

// hostList returns the discovered hosts in stable order.
func hostList(result *model.Result) []string {
	set := result.DiscoveredHosts()
	hosts := make([]string, 0, len(set))
	for h := range set {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

// parentCount pairs a parent address with how many records it exposed.
type parentCount struct {
	address  string
	children int
}

// topParents returns the up-to-n parents with the most child records,
// busiest first, ties broken by address for stable output.
func topParents(result *model.Result, n int) []parentCount {
	counts := make(map[string]int)
	for _, ep := range result.Endpoints {
		if ep.ParentURL != "" {
			counts[ep.ParentURL]++
		}
	}

	parents := make([]parentCount, 0, len(counts))
	for addr, c := range counts {
		parents = append(parents, parentCount{address: addr, children: c})
	}
	sort.Slice(parents, func(i, j int) bool {
		if parents[i].children != parents[j].children {
			return parents[i].children > parents[j].children
		}
		return parents[i].address < parents[j].address
	})

	if len(parents) > n {
		parents = parents[:n]
	}
	return parents
}
