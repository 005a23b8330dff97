// Package montecarlo runs schedule risk simulations over a compiled CPM
// network using three-point duration estimates.
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jason-marshall/defense-pm-tool-sub005/internal/cpm"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/ctxlog"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/metrics"
)

// checkEvery is how many iterations a worker runs between context checks.
const checkEvery = 64

var (
	// ErrEstimateCount is returned when estimates do not line up with the
	// network's activities.
	ErrEstimateCount = errors.New("estimate count mismatch")
	// ErrInvalidEstimate is returned for estimates outside o <= m <= p or
	// with a negative bound.
	ErrInvalidEstimate = errors.New("invalid estimate")
	// ErrInvalidConfig is returned for non-positive iteration counts.
	ErrInvalidConfig = errors.New("invalid simulation config")
)

// Estimate is a three-point duration estimate.
type Estimate struct {
	Optimistic  int `json:"optimistic"`
	MostLikely  int `json:"most_likely"`
	Pessimistic int `json:"pessimistic"`
}

// Fixed returns an estimate with no spread.
func Fixed(d int) Estimate {
	return Estimate{Optimistic: d, MostLikely: d, Pessimistic: d}
}

func (e Estimate) validate() error {
	if e.Optimistic < 0 || e.Optimistic > e.MostLikely || e.MostLikely > e.Pessimistic {
		return fmt.Errorf("%w: %d/%d/%d", ErrInvalidEstimate, e.Optimistic, e.MostLikely, e.Pessimistic)
	}
	return nil
}

// sample draws from the triangular distribution over the estimate and
// rounds to whole time units.
func (e Estimate) sample(r *rand.Rand) int {
	if e.Optimistic == e.Pessimistic {
		return e.MostLikely
	}
	a, b, c := float64(e.Optimistic), float64(e.Pessimistic), float64(e.MostLikely)
	u := r.Float64()
	var x float64
	if u < (c-a)/(b-a) {
		x = a + math.Sqrt(u*(b-a)*(c-a))
	} else {
		x = b - math.Sqrt((1-u)*(b-a)*(b-c))
	}
	return int(math.Round(x))
}

// Config controls a simulation run.
type Config struct {
	Iterations int
	Workers    int
	Seed       uint64
}

// Summary is the distribution of project finishes across iterations.
type Summary struct {
	Iterations int     `json:"iterations"`
	Planned    int     `json:"planned"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Min        int     `json:"min"`
	Max        int     `json:"max"`
	P50        int     `json:"p50"`
	P80        int     `json:"p80"`
	P90        int     `json:"p90"`
	// CriticalityIndex is the fraction of iterations in which each activity
	// had zero or negative total float.
	CriticalityIndex map[string]float64 `json:"criticality_index"`
	// OnTime is the fraction of iterations finishing at or before Planned.
	OnTime float64 `json:"on_time"`
}

// Percentile returns the nearest-rank p-th percentile (0 < p <= 100) of
// sorted finishes.
func Percentile(sorted []int, p float64) int {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// Run simulates cfg.Iterations schedules. Iteration i draws from a PCG
// source seeded with (cfg.Seed, i), so results do not depend on the worker
// count. estimates are indexed like the network's activities.
func Run(ctx context.Context, n *cpm.Network, estimates []Estimate, cfg Config) (*Summary, error) {
	size := n.Len()
	if len(estimates) != size {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrEstimateCount, len(estimates), size)
	}
	for i, e := range estimates {
		if err := e.validate(); err != nil {
			return nil, fmt.Errorf("activity %s: %w", n.ID(i), err)
		}
	}
	if cfg.Iterations <= 0 {
		return nil, fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfig, cfg.Iterations)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > cfg.Iterations {
		workers = cfg.Iterations
	}

	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	planned := make([]int, size)
	for i, e := range estimates {
		planned[i] = e.MostLikely
	}
	plannedFinish := n.Forward(planned, make([]int, size), make([]int, size))

	finishes := make([]int, cfg.Iterations)
	critical := make([][]int, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		counts := make([]int, size)
		critical[w] = counts
		g.Go(func() error {
			pcg := rand.NewPCG(0, 0)
			r := rand.New(pcg)
			durations := make([]int, size)
			buf := make([]int, 4*size)
			es, ef := buf[:size], buf[size:2*size]
			ls, lf := buf[2*size:3*size], buf[3*size:]

			done := 0
			for it := w; it < cfg.Iterations; it += workers {
				if done%checkEvery == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				pcg.Seed(cfg.Seed, uint64(it))
				for i, e := range estimates {
					durations[i] = e.sample(r)
				}
				finish := n.Forward(durations, es, ef)
				n.Backward(durations, finish, ls, lf)
				for i := range counts {
					if ls[i]-es[i] <= 0 {
						counts[i]++
					}
				}
				finishes[it] = finish
				done++
			}
			metrics.SimulationIterations.Add(float64(done))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Warn("simulation aborted", "error", err, "elapsed", time.Since(start))
		return nil, fmt.Errorf("simulation: %w", err)
	}

	summary := summarize(finishes, plannedFinish)
	summary.CriticalityIndex = make(map[string]float64, size)
	for i := 0; i < size; i++ {
		total := 0
		for _, counts := range critical {
			total += counts[i]
		}
		summary.CriticalityIndex[n.ID(i)] = float64(total) / float64(cfg.Iterations)
	}

	elapsed := time.Since(start)
	metrics.SimulationDuration.Observe(elapsed.Seconds())
	logger.Info("simulation complete",
		"iterations", cfg.Iterations,
		"workers", workers,
		"p50", summary.P50,
		"p90", summary.P90,
		"elapsed", elapsed,
	)
	return summary, nil
}

func summarize(finishes []int, planned int) *Summary {
	sorted := append([]int(nil), finishes...)
	sort.Ints(sorted)

	total, onTime := 0, 0
	for _, f := range sorted {
		total += f
		if f <= planned {
			onTime++
		}
	}
	count := float64(len(sorted))
	mean := float64(total) / count

	variance := 0.0
	for _, f := range sorted {
		d := float64(f) - mean
		variance += d * d
	}

	return &Summary{
		Iterations: len(sorted),
		Planned:    planned,
		Mean:       mean,
		StdDev:     math.Sqrt(variance / count),
		Min:        sorted[0],
		Max:        sorted[len(sorted)-1],
		P50:        Percentile(sorted, 50),
		P80:        Percentile(sorted, 80),
		P90:        Percentile(sorted, 90),
		OnTime:     float64(onTime) / count,
	}
}
