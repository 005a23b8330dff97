package baseline

import "github.com/jason-marshall/defense-pm-tool-sub005/internal/cpm"

// VarianceStatus classifies an activity in a comparison.
type VarianceStatus string

const (
	StatusUnchanged VarianceStatus = "unchanged"
	StatusChanged   VarianceStatus = "changed"
	StatusAdded     VarianceStatus = "added"
	StatusRemoved   VarianceStatus = "removed"
)

// Variance is the movement of one activity against the baseline. Positive
// slips are later than baseline.
type Variance struct {
	ID          string         `json:"id"`
	Status      VarianceStatus `json:"status"`
	StartSlip   int            `json:"start_slip"`
	FinishSlip  int            `json:"finish_slip"`
	FloatChange int            `json:"float_change"`
	WasCritical bool           `json:"was_critical"`
	IsCritical  bool           `json:"is_critical"`
}

// Comparison is a schedule measured against a snapshot.
type Comparison struct {
	BaselineID     string     `json:"baseline_id"`
	BaselineName   string     `json:"baseline_name"`
	SameInputs     bool       `json:"same_inputs"`
	DurationChange int        `json:"duration_change"`
	Variances      []Variance `json:"variances"`
}

// Slipped returns the variances whose early finish moved later.
func (c *Comparison) Slipped() []Variance {
	var out []Variance
	for _, v := range c.Variances {
		if v.Status == StatusChanged && v.FinishSlip > 0 {
			out = append(out, v)
		}
	}
	return out
}

// Compare measures sched against base. fingerprint is the current input
// fingerprint; it only sets SameInputs. Variances list current activities
// in input order followed by removed ones in baseline order.
func Compare(base *Snapshot, sched *cpm.Schedule, fingerprint string) *Comparison {
	c := &Comparison{
		BaselineID:     base.ID,
		BaselineName:   base.Name,
		SameInputs:     fingerprint != "" && fingerprint == base.Fingerprint,
		DurationChange: sched.ProjectDuration() - base.ProjectDuration,
	}

	prior := make(map[string]cpm.ActivityResult, len(base.Activities))
	for _, a := range base.Activities {
		prior[a.ID] = a
	}

	current := sched.Rows()
	seen := make(map[string]bool, len(current))
	for _, row := range current {
		seen[row.ID] = true
		old, ok := prior[row.ID]
		if !ok {
			c.Variances = append(c.Variances, Variance{ID: row.ID, Status: StatusAdded, IsCritical: row.IsCritical})
			continue
		}
		v := Variance{
			ID:          row.ID,
			StartSlip:   row.EarlyStart - old.EarlyStart,
			FinishSlip:  row.EarlyFinish - old.EarlyFinish,
			FloatChange: row.TotalFloat - old.TotalFloat,
			WasCritical: old.IsCritical,
			IsCritical:  row.IsCritical,
			Status:      StatusUnchanged,
		}
		if v.StartSlip != 0 || v.FinishSlip != 0 || v.FloatChange != 0 || v.WasCritical != v.IsCritical {
			v.Status = StatusChanged
		}
		c.Variances = append(c.Variances, v)
	}

	for _, a := range base.Activities {
		if !seen[a.ID] {
			c.Variances = append(c.Variances, Variance{ID: a.ID, Status: StatusRemoved, WasCritical: a.IsCritical})
		}
	}
	return c
}
