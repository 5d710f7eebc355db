package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/nishad/geopool/internal/classify"
	"github.com/nishad/geopool/internal/export"
	"github.com/nishad/geopool/internal/mapping"
	"github.com/nishad/geopool/internal/models"
	"github.com/nishad/geopool/internal/resolve"
)

// Report describes a finished run
type Report struct {
	Source    string
	Label     classify.Label
	Direction resolve.Direction // empty when resolution was off
	StartedAt time.Time
	Duration  time.Duration

	Fetched    int
	Classified map[classify.Label]int
	Selected   int
	Outcomes   map[resolve.Outcome]int
	Excluded   int
	Dropped    map[mapping.Reason]int

	Studies    []export.StudyRecord // selected studies after resolution
	Mapping    models.Mapping       // rows written
	OutputPath string
}

func newReport(source string, label classify.Label) *Report {
	return &Report{
		Source:     source,
		Label:      label,
		StartedAt:  time.Now(),
		Classified: make(map[classify.Label]int),
		Outcomes:   make(map[resolve.Outcome]int),
		Dropped:    make(map[mapping.Reason]int),
	}
}

// TotalDropped returns the number of rows the mapping filter removed
func (r *Report) TotalDropped() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}

// ExportRun converts the report into the SQLite export payload
func (r *Report) ExportRun() *export.Run {
	return &export.Run{
		Source:    r.Source,
		Label:     string(r.Label),
		Direction: string(r.Direction),
		Studies:   r.Studies,
		Mapping:   r.Mapping,
		StartedAt: r.StartedAt,
	}
}

// Summary returns the report as label/value rows in display order
func (r *Report) Summary() [][2]string {
	rows := [][2]string{
		{"Source", r.Source},
		{"Type", string(r.Label)},
		{"Fetched", fmt.Sprint(r.Fetched)},
		{"Selected", fmt.Sprint(r.Selected)},
	}
	if r.Direction != "" {
		rows = append(rows, [2]string{"Resolver", string(r.Direction)})
		for _, o := range resolve.Outcomes {
			rows = append(rows, [2]string{"  " + string(o), fmt.Sprint(r.Outcomes[o])})
		}
	}
	rows = append(rows, [2]string{"Excluded", fmt.Sprint(r.Excluded)})
	rows = append(rows, [2]string{"Dropped", fmt.Sprint(r.TotalDropped())})
	for _, reason := range mapping.Reasons {
		if n := r.Dropped[reason]; n > 0 {
			rows = append(rows, [2]string{"  " + string(reason), fmt.Sprint(n)})
		}
	}
	rows = append(rows, [2]string{"Written", fmt.Sprint(len(r.Mapping))})
	if r.OutputPath != "" {
		rows = append(rows, [2]string{"Output", r.OutputPath})
	}
	return rows
}

// String returns a one-line summary for logs
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%s: fetched=%d selected=%d", r.Source, r.Label, r.Fetched, r.Selected)
	if r.Direction != "" {
		fmt.Fprintf(&b, " resolved=%d not_found=%d ambiguous=%d",
			r.Outcomes[resolve.Resolved], r.Outcomes[resolve.NotFound], r.Outcomes[resolve.Ambiguous])
	}
	fmt.Fprintf(&b, " excluded=%d dropped=%d written=%d", r.Excluded, r.TotalDropped(), len(r.Mapping))
	return b.String()
}
