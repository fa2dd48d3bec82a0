package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/apitrail/apitrail/internal/model"
)

// MarkdownWriter outputs a human-readable crawl report in GitHub-flavored
// markdown, meant for documentation and sharing rather than tooling.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the full report in markdown format.
func (w *MarkdownWriter) Write(result *model.Result) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writeStats(md, result)
	w.writeEndpoints(md, result)
	w.writeErrors(md, result)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and the run overview table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.Result) {
	md.H1("API Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + result.StartURL + "`"},
			{"Started", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Endpoints Found", strconv.Itoa(len(result.Endpoints))},
			{"Hosts Discovered", strconv.Itoa(len(result.DiscoveredHosts()))},
		},
	})
	md.PlainText("")
}

// writeStats writes the crawl statistics section.
func (w *MarkdownWriter) writeStats(md *markdown.Markdown, result *model.Result) {
	md.H2("Statistics")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"URLs Processed", strconv.Itoa(result.Stats.URLsProcessed)},
			{"Successful Requests", strconv.Itoa(result.Stats.SuccessfulRequests)},
			{"Failed Requests", strconv.Itoa(result.Stats.FailedRequests)},
			{"URLs Skipped", strconv.Itoa(result.Stats.URLsSkipped)},
			{"Max Depth Reached", strconv.Itoa(result.Stats.MaxDepthReached)},
			{"Duration (ms)", strconv.FormatInt(result.Stats.TotalTimeMs, 10)},
		},
	})
	md.PlainText("")
}

// writeEndpoints writes the discovered endpoint table.
func (w *MarkdownWriter) writeEndpoints(md *markdown.Markdown, result *model.Result) {
	md.H2("Discovered Endpoints")
	md.PlainText("")

	if len(result.Endpoints) == 0 {
		md.PlainText("No endpoints discovered.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(result.Endpoints))
	for i, ep := range result.Endpoints {
		rel := ep.Rel
		if rel == "" {
			rel = "-"
		}
		method := ep.Method
		if method == "" {
			method = "-"
		}
		rows[i] = []string{
			"`" + truncate(ep.URL, 60) + "`",
			rel,
			method,
			strconv.Itoa(ep.Depth),
			truncate(ep.ParentURL, 40),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Rel", "Method", "Depth", "Parent"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeErrors writes the per-address failures, when any occurred.
func (w *MarkdownWriter) writeErrors(md *markdown.Markdown, result *model.Result) {
	if len(result.Stats.Errors) == 0 {
		return
	}

	md.H2("Errors")
	md.PlainText("")

	rows := make([][]string, len(result.Stats.Errors))
	for i, e := range result.Stats.Errors {
		rows[i] = []string{
			"`" + truncate(e.URL, 60) + "`",
			truncate(e.Message, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// truncate shortens s to maxLen runes with an ellipsis.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return strings.TrimSpace(s[:maxLen-3]) + "..."
}
