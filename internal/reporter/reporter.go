package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jason-marshall/defense-pm-tool-sub005/internal/baseline"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/cpm"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/graph"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/montecarlo"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/ui"
)

const nameWidth = 32

// Reporter renders a computed schedule for the terminal.
type Reporter struct {
	Network  *cpm.Network
	Schedule *cpm.Schedule
	Names    map[string]string
}

// New creates a new Reporter. names maps activity ids to display names and
// may be nil.
func New(n *cpm.Network, s *cpm.Schedule, names map[string]string) *Reporter {
	if names == nil {
		names = map[string]string{}
	}
	return &Reporter{Network: n, Schedule: s, Names: names}
}

func (r *Reporter) name(id string) string {
	name := r.Names[id]
	if len(name) > nameWidth {
		name = name[:nameWidth-3] + "..."
	}
	return name
}

// PrintSchedule writes the header and a table of every activity in input
// order.
func (r *Reporter) PrintSchedule(w io.Writer) {
	rows := r.Schedule.Rows()
	critical := 0
	for _, row := range rows {
		if row.IsCritical {
			critical++
		}
	}

	fmt.Fprintf(w, "🎯 %s\n", ui.BoldCyan("Project Schedule"))
	fmt.Fprintln(w, ui.Cyan("═══════════════════════════"))
	fmt.Fprintf(w, "Activities:  %s (%d critical)\n", ui.Bold(len(rows)), critical)
	fmt.Fprintf(w, "Duration:    %s\n\n", ui.Bold(r.Schedule.ProjectDuration()))

	fmt.Fprintf(w, "  %s %-12s %-*s %5s %5s %5s %5s %5s %5s %5s\n",
		" ", "ID", nameWidth, "NAME", "DUR", "ES", "EF", "LS", "LF", "TF", "FF")
	for _, row := range rows {
		// Pad before coloring so escape codes do not skew the columns.
		fmt.Fprintf(w, "  %s %s %-*s %5d %5d %5d %5d %5d %s %s\n",
			ui.CriticalMarker(row.IsCritical),
			ui.BoldMagenta(fmt.Sprintf("%-12s", row.ID)),
			nameWidth, r.name(row.ID),
			row.Duration, row.EarlyStart, row.EarlyFinish, row.LateStart, row.LateFinish,
			strings.Repeat(" ", pad(row.TotalFloat))+ui.Float(row.TotalFloat),
			strings.Repeat(" ", pad(row.FreeFloat))+ui.Float(row.FreeFloat))
	}
	fmt.Fprintln(w)
	r.PrintCriticalPath(w)
}

// pad right-aligns an int in a five-wide column.
func pad(v int) int {
	n := 5 - len(fmt.Sprintf("%d", v))
	if n < 0 {
		return 0
	}
	return n
}

// PrintCriticalPath writes the critical chain.
func (r *Reporter) PrintCriticalPath(w io.Writer) {
	path := r.Schedule.CriticalPath()
	if len(path) == 0 {
		fmt.Fprintf(w, "⚡ Critical path: %s\n", ui.Dim("(none)"))
		return
	}
	fmt.Fprintf(w, "⚡ Critical path: %s (%d activities, %d units)\n",
		ui.BoldYellow(strings.Join(path, " → ")), len(path), r.Schedule.ProjectDuration())
}

// PrintWaves writes activities grouped by early start.
func (r *Reporter) PrintWaves(w io.Writer) {
	for _, wave := range r.Schedule.Waves() {
		fmt.Fprintf(w, "🌊 %s %d (day %d, %d activities):\n",
			ui.BoldWhite("Wave"), wave.Index+1, wave.EarlyStart, len(wave.ActivityIDs))
		for _, id := range wave.ActivityIDs {
			res, _ := r.Schedule.Result(id)
			crit := ""
			if res.IsCritical {
				crit = "  " + ui.BoldYellow("⚡ critical")
			}
			fmt.Fprintf(w, "  %s  %s%s\n", ui.BoldMagenta(id), r.Names[id], crit)
		}
		fmt.Fprintln(w)
	}
}

// PrintASCII writes the dependency graph wave by wave with outgoing edges
// under each activity.
func (r *Reporter) PrintASCII(w io.Writer) {
	g := r.Network.Graph()

	fmt.Fprintf(w, "🔗 %s\n", ui.BoldCyan("Activity Dependency Graph"))
	fmt.Fprintln(w, ui.Cyan("═══════════════════════════"))
	fmt.Fprintln(w)

	for _, wave := range r.Schedule.Waves() {
		fmt.Fprintf(w, "%s 🌊 Wave %d %s\n", ui.Cyan("──"), wave.Index+1, ui.Cyan("──────────────────────────────"))
		for _, id := range wave.ActivityIDs {
			res, _ := r.Schedule.Result(id)
			fmt.Fprintf(w, "  %s %s %s\n", ui.CriticalMarker(res.IsCritical), ui.ActivityPrefix(id), r.Names[id])

			i, _ := g.Index(id)
			for _, e := range g.Nodes[i].Out {
				edge := g.Edges[e]
				fmt.Fprintf(w, "      %s %s%s\n", ui.Dim("└──→"), ui.Magenta(g.ID(edge.To)), ui.Dim(edgeLabel(edge)))
			}
		}
		fmt.Fprintln(w)
	}
}

// edgeLabel is empty for plain FS edges, otherwise " (SS+2)" style.
func edgeLabel(e graph.Edge) string {
	if e.Type == graph.FinishToStart && e.Lag == 0 {
		return ""
	}
	if e.Lag == 0 {
		return fmt.Sprintf(" (%s)", e.Type)
	}
	return fmt.Sprintf(" (%s%+d)", e.Type, e.Lag)
}

// PrintDOT writes the network in Graphviz DOT format. Nodes and edges
// follow input order; critical nodes and driving critical edges are red.
func (r *Reporter) PrintDOT(w io.Writer) error {
	g := r.Network.Graph()
	var b strings.Builder

	b.WriteString("digraph pmsched {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=rounded];\n\n")

	for _, row := range r.Schedule.Rows() {
		id := escapeDOT(row.ID)
		label := fmt.Sprintf("%s\\nd=%d ES=%d TF=%d", id, row.Duration, row.EarlyStart, row.TotalFloat)
		if name := r.Names[row.ID]; name != "" {
			label = fmt.Sprintf("%s\\n%s\\nd=%d ES=%d TF=%d", id, escapeDOT(name), row.Duration, row.EarlyStart, row.TotalFloat)
		}
		attrs := fmt.Sprintf(`label="%s"`, label)
		if row.IsCritical {
			attrs += `, style="rounded,bold", color=red`
		}
		fmt.Fprintf(&b, "  %q [%s];\n", row.ID, attrs)
	}

	b.WriteString("\n")

	for k, edge := range g.Edges {
		from, to := g.ID(edge.From), g.ID(edge.To)
		var attrs []string
		if l := strings.TrimSpace(edgeLabel(edge)); l != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", strings.Trim(l, "()")))
		}
		if r.Schedule.IsCriticalEdge(k) {
			attrs = append(attrs, "color=red", "penwidth=2")
		}
		style := ""
		if len(attrs) > 0 {
			style = " [" + strings.Join(attrs, ", ") + "]"
		}
		fmt.Fprintf(&b, "  %q -> %q%s;\n", from, to, style)
	}

	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// escapeDOT makes s safe inside a quoted DOT label.
func escapeDOT(s string) string {
	return dotEscaper.Replace(s)
}

// JSON returns the machine-readable schedule with waves attached.
func (r *Reporter) JSON() ([]byte, error) {
	type output struct {
		Schedule *cpm.Schedule `json:"schedule"`
		Waves    []cpm.Wave    `json:"waves"`
	}
	return json.MarshalIndent(output{Schedule: r.Schedule, Waves: r.Schedule.Waves()}, "", "  ")
}

// PrintComparison writes a baseline variance report.
func PrintComparison(w io.Writer, c *baseline.Comparison) {
	fmt.Fprintf(w, "📐 %s %s\n", ui.BoldCyan("Baseline Variance"), ui.Dim(c.BaselineID))
	fmt.Fprintln(w, ui.Cyan("═══════════════════════════"))
	fmt.Fprintf(w, "Baseline:  %s\n", c.BaselineName)
	inputs := ui.Yellow("changed")
	if c.SameInputs {
		inputs = ui.Green("unchanged")
	}
	fmt.Fprintf(w, "Inputs:    %s\n", inputs)
	fmt.Fprintf(w, "Duration:  %s\n\n", ui.Slip(c.DurationChange))

	fmt.Fprintf(w, "  %s %-12s %6s %6s %6s\n", " ", "ID", "START", "FINISH", "FLOAT")
	for _, v := range c.Variances {
		switch v.Status {
		case baseline.StatusAdded, baseline.StatusRemoved:
			fmt.Fprintf(w, "  %s %s %s\n", ui.VarianceIcon(string(v.Status)), ui.BoldMagenta(fmt.Sprintf("%-12s", v.ID)), ui.Dim(string(v.Status)))
		default:
			crit := ""
			if v.IsCritical && !v.WasCritical {
				crit = "  " + ui.BoldYellow("⚡ now critical")
			} else if v.WasCritical && !v.IsCritical {
				crit = "  " + ui.Dim("no longer critical")
			}
			fmt.Fprintf(w, "  %s %s %6s %6s %6s%s\n",
				ui.VarianceIcon(string(v.Status)),
				ui.BoldMagenta(fmt.Sprintf("%-12s", v.ID)),
				fmt.Sprintf("%+d", v.StartSlip), fmt.Sprintf("%+d", v.FinishSlip), fmt.Sprintf("%+d", v.FloatChange),
				crit)
		}
	}

	if slipped := c.Slipped(); len(slipped) > 0 {
		fmt.Fprintf(w, "\n%s %d activities finish later than baseline\n", ui.BoldRed("✗"), len(slipped))
	} else {
		fmt.Fprintf(w, "\n%s\n", ui.BoldGreen("✓ no activity finishes later than baseline"))
	}
}

// PrintBaselines lists stored snapshots.
func PrintBaselines(w io.Writer, snaps []*baseline.Snapshot) {
	if len(snaps) == 0 {
		fmt.Fprintln(w, ui.Dim("No baselines saved."))
		return
	}
	for _, s := range snaps {
		fmt.Fprintf(w, "  %s  %-20s %s  %s\n",
			ui.BoldMagenta(s.ID[:min(8, len(s.ID))]),
			s.Name,
			ui.Dim(s.CreatedAt.Format("2006-01-02 15:04")),
			fmt.Sprintf("%d units, %d activities", s.ProjectDuration, len(s.Activities)))
	}
}

// PrintSimulation writes a Monte Carlo summary with the most critical
// activities first.
func PrintSimulation(w io.Writer, s *montecarlo.Summary) {
	fmt.Fprintf(w, "🎲 %s\n", ui.BoldCyan("Schedule Risk Simulation"))
	fmt.Fprintln(w, ui.Cyan("═══════════════════════════"))
	fmt.Fprintf(w, "Iterations:  %s\n", ui.Bold(s.Iterations))
	fmt.Fprintf(w, "Planned:     %d (%.0f%% on time)\n", s.Planned, s.OnTime*100)
	fmt.Fprintf(w, "Mean:        %.1f (σ %.1f)\n", s.Mean, s.StdDev)
	fmt.Fprintf(w, "Range:       %d – %d\n", s.Min, s.Max)
	fmt.Fprintf(w, "P50/P80/P90: %s / %s / %s\n\n",
		ui.Bold(s.P50), ui.BoldYellow(s.P80), ui.BoldRed(s.P90))

	type entry struct {
		id    string
		index float64
	}
	entries := make([]entry, 0, len(s.CriticalityIndex))
	for id, v := range s.CriticalityIndex {
		entries = append(entries, entry{id, v})
	}
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].index != entries[b].index {
			return entries[a].index > entries[b].index
		}
		return entries[a].id < entries[b].id
	})

	fmt.Fprintln(w, ui.Bold("Criticality index:"))
	for _, e := range entries {
		if e.index == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s %5.1f%%\n", ui.BoldMagenta(fmt.Sprintf("%-12s", e.id)), e.index*100)
	}
}
