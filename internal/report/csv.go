package report

import (
	"encoding/csv"
	"io"
)

// csvHeader is the fixed column set of the results file. Downstream
// spreadsheets key on these names, so the order is part of the format.
var csvHeader = []string{
	"timestamp",
	"domain",
	"action",
	"status",
	"reason_code",
	"reason_description",
	"details",
	"evidence_path",
}

// CSVWriter outputs one row per result entry.
// This is the primary machine-readable artifact of a run: every action
// taken against every domain, with its reason code.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write renders the summary as CSV, header row first.
func (w *CSVWriter) Write(summary *Summary) (int, error) {
	counter := &countingWriter{w: w.output}
	cw := csv.NewWriter(counter)

	if err := cw.Write(csvHeader); err != nil {
		return counter.n, err
	}

	for _, entry := range summary.Entries() {
		row := []string{
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Domain,
			entry.Action,
			entry.Status,
			string(entry.Code),
			entry.Code.Description(),
			entry.Details,
			entry.EvidencePath,
		}
		if err := cw.Write(row); err != nil {
			return counter.n, err
		}
	}

	cw.Flush()
	return counter.n, cw.Error()
}

// countingWriter tracks bytes written so Write can report them.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
