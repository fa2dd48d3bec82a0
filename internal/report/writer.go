package report

import (
	"fmt"
	"io"

	"github.com/apitrail/apitrail/internal/config"
	"github.com/apitrail/apitrail/internal/model"
)

// Writer outputs a crawl result in one format to one destination.
type Writer interface {
	// Write serializes the result to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(result *model.Result) (int, error)
}

// NewWriter returns the artifact writer for the given format.
func NewWriter(format config.OutputFormat, output io.Writer) (Writer, error) {
	switch format {
	case config.FormatFlat:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case config.FormatCompact:
		return NewJSONWriter(output), nil
	case config.FormatGrouped:
		return NewGroupedWriter(output), nil
	case config.FormatTree:
		return NewTreeWriter(output), nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrInvalidFormat, format)
}

// MultiWriter fans one result out to several Writers, e.g. a JSON artifact
// file plus a markdown report. It stops on the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the result to all configured Writers and returns the total
// bytes written.
func (m *MultiWriter) Write(result *model.Result) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides the shared output destination for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
