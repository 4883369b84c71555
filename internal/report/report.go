// Package report renders a run summary of card creation outcomes, as
// Markdown and optionally as a PDF.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Status of one card-creation attempt.
const (
	StatusCreated = "created"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Outcome records what happened to one lesson step.
type Outcome struct {
	Step   string
	Status string
	NoteID int64
	Images int
	Reason string
}

// Run is one lesson's worth of outcomes.
type Run struct {
	Lesson    string
	Deck      string
	StartedAt time.Time
	Outcomes  []Outcome
}

// Counts tallies outcomes by status.
func (r *Run) Counts() (created, skipped, failed int) {
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusCreated:
			created++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	return
}

// Markdown renders the summary document.
func (r *Run) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Card run: %s\n\n", r.Lesson)
	fmt.Fprintf(&b, "Deck: %s\n\n", r.Deck)
	fmt.Fprintf(&b, "Started: %s\n\n", r.StartedAt.Format(time.RFC3339))
	created, skipped, failed := r.Counts()
	fmt.Fprintf(&b, "Created %d, skipped %d, failed %d.\n\n", created, skipped, failed)
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusCreated:
			fmt.Fprintf(&b, "- %s: created (note %d, %d image(s))\n", o.Step, o.NoteID, o.Images)
		case StatusSkipped:
			fmt.Fprintf(&b, "- %s: skipped (%s)\n", o.Step, o.Reason)
		default:
			fmt.Fprintf(&b, "- %s: failed (%s)\n", o.Step, o.Reason)
		}
	}
	return b.String()
}

// WriteMarkdown writes the summary to a file.
func WriteMarkdown(r *Run, path string) error {
	return os.WriteFile(path, []byte(r.Markdown()), 0o644)
}

// WritePDF renders a minimal PDF of the summary: heading, counts, one line
// per outcome. Intentionally simple, no full Markdown layout.
func WritePDF(r *Run, path string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Card run: "+r.Lesson, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Deck: "+r.Deck, "", 1, "L", false, 0, "")
	created, skipped, failed := r.Counts()
	pdf.CellFormat(0, 6, fmt.Sprintf("Created %d, skipped %d, failed %d", created, skipped, failed), "", 1, "L", false, 0, "")
	pdf.Ln(4)
	for _, o := range r.Outcomes {
		line := o.Step + ": " + o.Status
		if o.Reason != "" {
			line += " (" + o.Reason + ")"
		}
		pdf.MultiCell(0, 5, line, "", "L", false)
	}
	return pdf.OutputFileAndClose(path)
}
