// Package report renders service reports for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/goodtune/svcint/internal/activity"
	"github.com/goodtune/svcint/internal/faults"
	"github.com/goodtune/svcint/internal/registry"
	"github.com/goodtune/svcint/internal/storage"
	"github.com/goodtune/svcint/internal/usage"
)

// TimeLayout is used for service and snapshot timestamps.
const TimeLayout = "2006-01-02 15:04"

// Renderer writes colored tables. Colors follow color.NoColor.
type Renderer struct {
	w     io.Writer
	title *color.Color
	due   *color.Color
	ok    *color.Color
	warn  *color.Color
}

// NewRenderer creates a renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{
		w:     w,
		title: color.New(color.FgCyan, color.Bold),
		due:   color.New(color.FgRed, color.Bold),
		ok:    color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
	}
}

// Report writes one line per component followed by a summary and any skipped
// rows. The status column is last so color codes do not disturb alignment.
func (r *Renderer) Report(rep *usage.Report, onlyDue bool) error {
	statuses := rep.Statuses
	if onlyDue {
		statuses = rep.Due()
	}

	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPONENT\tACCRUED\tINTERVAL\tLAST SERVICED\tSTATUS")
	for _, s := range statuses {
		last := "never"
		if t, ok := s.Component.LastServiced(); ok {
			last = t.Format(TimeLayout)
		}

		var status string
		if s.Due {
			status = r.due.Sprint("DUE")
		} else {
			status = r.ok.Sprintf("ok, %s left", activity.FormatClock(s.Remaining))
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.Component.Name(),
			activity.FormatClock(s.Accrued),
			registry.FormatInterval(s.Component.Interval()),
			last,
			status,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	due := len(rep.Due())
	summary := fmt.Sprintf("\n%d of %d components due, %d activities", due, len(rep.Statuses), rep.Activities)
	if due > 0 {
		_, _ = r.due.Fprintln(r.w, summary)
	} else {
		_, _ = r.ok.Fprintln(r.w, summary)
	}

	if !rep.FirstActivity.IsZero() {
		fmt.Fprintf(r.w, "activities from %s to %s\n",
			rep.FirstActivity.Format(TimeLayout), rep.LastActivity.Format(TimeLayout))
	}

	if len(rep.Skipped) > 0 {
		fmt.Fprintln(r.w)
		r.RowErrors(rep.Skipped)
	}
	return nil
}

// RowErrors lists skipped activity rows.
func (r *Renderer) RowErrors(errs []*faults.Error) {
	if len(errs) == 0 {
		return
	}
	_, _ = r.warn.Fprintf(r.w, "Skipped %d malformed row(s):\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(r.w, "  %s\n", e.Error())
	}
}

// Components lists the registry.
func (r *Renderer) Components(reg registry.Reader) error {
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPONENT\tINTERVAL\tSERVICES\tLAST SERVICED")
	for c := range reg.Components() {
		last := "never"
		if t, ok := c.LastServiced(); ok {
			last = t.Format(TimeLayout)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
			c.Name(), registry.FormatInterval(c.Interval()), len(c.Serviced()), last)
	}
	return tw.Flush()
}

// History lists stored snapshots, one per line.
func (r *Renderer) History(snapshots []storage.Snapshot) error {
	if len(snapshots) == 0 {
		fmt.Fprintln(r.w, "no snapshots recorded")
		return nil
	}

	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TAKEN AT\tID\tACTIVITIES\tSKIPPED\tDUE")
	for _, s := range snapshots {
		var due []string
		for _, c := range s.Components {
			if c.Due {
				due = append(due, c.Name)
			}
		}
		dueCell := r.ok.Sprint("none")
		if len(due) > 0 {
			dueCell = r.due.Sprint(strings.Join(due, ", "))
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			s.TakenAt.Local().Format(TimeLayout), s.ID, s.Activities, s.Skipped, dueCell)
	}
	return tw.Flush()
}
