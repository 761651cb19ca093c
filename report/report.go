package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/linksrus/pagerank/pagerank"
	"golang.org/x/xerrors"
)

// Format selects how rank vectors are rendered.
type Format string

const (
	// FormatText renders one "page: score" line per page under a header.
	FormatText Format = "text"

	// FormatJSON renders one JSON object per rank vector.
	FormatJSON Format = "json"
)

// ParseFormat converts s into a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", xerrors.Errorf("unsupported report format %q", s)
	}
}

// Writer renders rank vectors to an io.Writer.
type Writer struct {
	w      io.Writer
	format Format

	// The number of samples that the sampling estimator used; mentioned
	// in text headers.
	samples int
}

// NewWriter returns a Writer that renders to w in the specified format.
func NewWriter(w io.Writer, format Format, samples int) *Writer {
	return &Writer{w: w, format: format, samples: samples}
}

type jsonReport struct {
	Estimator string         `json:"estimator"`
	Ranks     pagerank.Ranks `json:"ranks"`
}

// Persist writes the ranks produced by the named estimator.
func (rw *Writer) Persist(estimator string, ranks pagerank.Ranks) error {
	if rw.format == FormatJSON {
		return json.NewEncoder(rw.w).Encode(jsonReport{Estimator: estimator, Ranks: ranks})
	}

	if _, err := fmt.Fprintln(rw.w, rw.header(estimator)); err != nil {
		return err
	}
	for _, page := range ranks.Pages() {
		if _, err := fmt.Fprintf(rw.w, "  %s: %.4f\n", page, ranks[page]); err != nil {
			return err
		}
	}
	return nil
}

func (rw *Writer) header(estimator string) string {
	switch estimator {
	case "sampling":
		return fmt.Sprintf("PageRank Results from Sampling (n = %d)", rw.samples)
	case "iteration":
		return "PageRank Results from Iteration"
	default:
		return fmt.Sprintf("PageRank Results from %s", estimator)
	}
}
