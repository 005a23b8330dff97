package cpm

// Result holds the computed dates and float for a single activity. All
// values are day offsets from project start.
type Result struct {
	EarlyStart  int  `json:"early_start"`
	EarlyFinish int  `json:"early_finish"`
	LateStart   int  `json:"late_start"`
	LateFinish  int  `json:"late_finish"`
	TotalFloat  int  `json:"total_float"`
	FreeFloat   int  `json:"free_float"`
	IsCritical  bool `json:"is_critical"`
}

// Schedule is the outcome of one successful calculation. It is immutable
// once returned.
type Schedule struct {
	ids           []string // input order
	durations     []int
	results       []Result
	order         []int // topological order
	critical      []int
	criticalEdges []bool // dependency input order
	finish        int
	byID          map[string]int
}

// Wave represents a group of activities sharing an early start, i.e. work
// that can proceed in parallel.
type Wave struct {
	Index       int      `json:"index"`
	EarlyStart  int      `json:"early_start"`
	ActivityIDs []string `json:"activity_ids"`
	IsCritical  bool     `json:"is_critical"` // true if wave contains critical activities
}
