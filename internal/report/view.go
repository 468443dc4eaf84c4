package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/goodtune/svcint/internal/activity"
	"github.com/goodtune/svcint/internal/faults"
	"github.com/goodtune/svcint/internal/interval"
	"github.com/goodtune/svcint/internal/registry"
	"github.com/goodtune/svcint/internal/usage"
)

// ComponentView is the JSON form of a component status.
type ComponentView struct {
	Name             string      `json:"name"`
	Interval         string      `json:"interval"`
	IntervalSeconds  int64       `json:"interval_seconds"`
	Accrued          string      `json:"accrued"`
	AccruedSeconds   int64       `json:"accrued_seconds"`
	Remaining        string      `json:"remaining"`
	RemainingSeconds int64       `json:"remaining_seconds"`
	Due              bool        `json:"due"`
	Cutoff           time.Time   `json:"cutoff"`
	LastServiced     *time.Time  `json:"last_serviced,omitempty"`
	Serviced         []time.Time `json:"serviced"`
}

// RowErrorView is the JSON form of a skipped activity row.
type RowErrorView struct {
	File    string `json:"file"`
	Row     int    `json:"row"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// View is the JSON form of a report.
type View struct {
	TakenAt        time.Time       `json:"taken_at"`
	ActivitiesPath string          `json:"activities_path"`
	RegistryPath   string          `json:"registry_path"`
	Activities     int             `json:"activities"`
	Due            int             `json:"due"`
	Skipped        []RowErrorView  `json:"skipped"`
	Components     []ComponentView `json:"components"`
}

// NewComponentView converts a status.
func NewComponentView(s interval.Status) ComponentView {
	serviced := s.Component.Serviced()
	if serviced == nil {
		serviced = []time.Time{}
	}

	v := ComponentView{
		Name:             s.Component.Name(),
		Interval:         registry.FormatInterval(s.Component.Interval()),
		IntervalSeconds:  int64(s.Component.Interval() / time.Second),
		Accrued:          activity.FormatClock(s.Accrued),
		AccruedSeconds:   int64(s.Accrued / time.Second),
		Remaining:        activity.FormatClock(s.Remaining),
		RemainingSeconds: int64(s.Remaining / time.Second),
		Due:              s.Due,
		Cutoff:           s.Cutoff,
		Serviced:         serviced,
	}
	if last, ok := s.Component.LastServiced(); ok {
		v.LastServiced = &last
	}
	return v
}

// NewRowErrorViews converts skipped rows.
func NewRowErrorViews(errs []*faults.Error) []RowErrorView {
	views := make([]RowErrorView, 0, len(errs))
	for _, e := range errs {
		views = append(views, RowErrorView{
			File:    e.Resource,
			Row:     e.Row,
			Line:    e.Line,
			Message: e.Err.Error(),
		})
	}
	return views
}

// NewView converts a report, optionally keeping only due components.
func NewView(r *usage.Report, onlyDue bool) View {
	statuses := r.Statuses
	if onlyDue {
		statuses = r.Due()
	}

	v := View{
		TakenAt:        r.TakenAt,
		ActivitiesPath: r.ActivitiesPath,
		RegistryPath:   r.RegistryPath,
		Activities:     r.Activities,
		Due:            len(r.Due()),
		Skipped:        NewRowErrorViews(r.Skipped),
		Components:     make([]ComponentView, 0, len(statuses)),
	}
	for _, s := range statuses {
		v.Components = append(v.Components, NewComponentView(s))
	}
	return v
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
