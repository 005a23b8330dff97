package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jason-marshall/defense-pm-tool-sub005/internal/baseline"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/config"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/cpm"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/ctxlog"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/montecarlo"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/project"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/reporter"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/service"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/ui"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/viewer"
)

var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
	flagJSON      bool
	flagQuery     string
	flagFormat    string
	flagWaves     bool
	flagName      string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.BoldRed("error:"), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pmsched",
		Short: "Critical path scheduling for project activity networks",
		Long: `pmsched reads a network of activities and dependencies (FS, SS, FF, SF
with lag), computes early/late dates, total and free float and the critical
path, and offers baselines, risk simulation and a local viewer on top.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().StringVar(&flagQuery, "query", "", "gjson path selecting the project inside a larger JSON document")

	rootCmd.AddCommand(calcCmd())
	rootCmd.AddCommand(pathCmd())
	rootCmd.AddCommand(vizCmd())
	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(baselineCmd())
	rootCmd.AddCommand(serveCmd())

	return rootCmd
}

// app is the per-invocation wiring shared by every command.
type app struct {
	cfg *config.Config
	ctx context.Context
	svc *service.Service
}

func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.Log.Format = flagLogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := ctxlog.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	ctx := ctxlog.WithLogger(cmd.Context(), logger)

	return &app{
		cfg: cfg,
		ctx: ctx,
		svc: service.New(nil, service.Options{
			MaxActivities: cfg.Engine.MaxActivities,
			Timeout:       cfg.Engine.CalculateTimeout,
		}),
	}, nil
}

// schedule loads a project file and calculates it through the service.
func (a *app) schedule(path string) (*project.File, *cpm.Schedule, error) {
	file, err := project.Load(path, flagQuery)
	if err != nil {
		return nil, nil, err
	}
	sched, err := a.svc.Calculate(a.ctx, file.EngineActivities(), file.EngineDependencies())
	if err != nil {
		return nil, nil, err
	}
	return file, sched, nil
}

// network compiles a project file for rendering or repeated runs.
func (a *app) network(file *project.File) (*cpm.Network, error) {
	return a.svc.Compile(a.ctx, file.EngineActivities(), file.EngineDependencies())
}

func calcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc <project-file>",
		Short: "Calculate the schedule and print every activity's dates and float",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			file, sched, err := a.schedule(args[0])
			if err != nil {
				return err
			}

			rpt := reporter.New(nil, sched, file.Names())
			out := cmd.OutOrStdout()
			if flagJSON {
				data, err := rpt.JSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			rpt.PrintSchedule(out)
			if flagWaves {
				fmt.Fprintln(out)
				rpt.PrintWaves(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagWaves, "waves", false, "Also print activities grouped by early start")

	return cmd
}

func pathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path <project-file>",
		Short: "Print the critical path and project duration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			file, sched, err := a.schedule(args[0])
			if err != nil {
				return err
			}

			if flagJSON {
				return outputJSON(cmd.OutOrStdout(), map[string]any{
					"project_duration": sched.ProjectDuration(),
					"critical_path":    sched.CriticalPath(),
				})
			}
			reporter.New(nil, sched, file.Names()).PrintCriticalPath(cmd.OutOrStdout())
			return nil
		},
	}
}

func vizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viz <project-file>",
		Short: "Print the dependency graph as ASCII or Graphviz DOT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			file, err := project.Load(args[0], flagQuery)
			if err != nil {
				return err
			}
			n, err := a.network(file)
			if err != nil {
				return err
			}
			sched, err := a.svc.Schedule(a.ctx, n)
			if err != nil {
				return err
			}

			rpt := reporter.New(n, sched, file.Names())
			switch flagFormat {
			case "dot":
				return rpt.PrintDOT(cmd.OutOrStdout())
			case "ascii":
				rpt.PrintASCII(cmd.OutOrStdout())
				return nil
			default:
				return fmt.Errorf("unknown format %q (want ascii or dot)", flagFormat)
			}
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "ascii", "Output format (ascii, dot)")

	return cmd
}

func simulateCmd() *cobra.Command {
	var (
		flagIterations int
		flagWorkers    int
		flagSeed       uint64
	)

	cmd := &cobra.Command{
		Use:   "simulate <project-file>",
		Short: "Run a Monte Carlo schedule risk simulation over three-point estimates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			file, err := project.Load(args[0], flagQuery)
			if err != nil {
				return err
			}
			n, err := a.network(file)
			if err != nil {
				return err
			}

			simCfg := montecarlo.Config{
				Iterations: a.cfg.Simulation.Iterations,
				Workers:    a.cfg.Simulation.Workers,
				Seed:       a.cfg.Simulation.Seed,
			}
			if cmd.Flags().Changed("iterations") {
				simCfg.Iterations = flagIterations
			}
			if cmd.Flags().Changed("workers") {
				simCfg.Workers = flagWorkers
			}
			if cmd.Flags().Changed("seed") {
				simCfg.Seed = flagSeed
			}

			ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := montecarlo.Run(ctx, n, estimates(file), simCfg)
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(cmd.OutOrStdout(), summary)
			}
			reporter.PrintSimulation(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().IntVar(&flagIterations, "iterations", 0, "Number of iterations (default from config)")
	cmd.Flags().IntVar(&flagWorkers, "workers", 0, "Parallel workers (default from config)")
	cmd.Flags().Uint64Var(&flagSeed, "seed", 0, "Random seed (default from config)")

	return cmd
}

// estimates lines three-point estimates up with the file's activity order,
// which is also the compiled network's index order.
func estimates(file *project.File) []montecarlo.Estimate {
	out := make([]montecarlo.Estimate, len(file.Activities))
	for i, act := range file.Activities {
		o, m, p := act.ThreePoint()
		out[i] = montecarlo.Estimate{Optimistic: o, MostLikely: m, Pessimistic: p}
	}
	return out
}

func baselineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Save, list and compare schedule baselines",
	}

	save := &cobra.Command{
		Use:   "save <project-file>",
		Short: "Snapshot the current schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			file, sched, err := a.schedule(args[0])
			if err != nil {
				return err
			}

			name := flagName
			if name == "" {
				name = file.Name
			}
			snap, err := baseline.Take(name, file.EngineActivities(), file.EngineDependencies(), sched)
			if err != nil {
				return err
			}
			if err := baseline.NewStore(a.cfg.Baseline.Dir).Save(snap); err != nil {
				return err
			}
			ctxlog.FromContext(a.ctx).Info("baseline saved", "id", snap.ID, "name", snap.Name)

			if flagJSON {
				return outputJSON(cmd.OutOrStdout(), snap)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Saved baseline %s (%s)\n", ui.Green("✓"), ui.BoldMagenta(snap.ID), snap.Name)
			return nil
		},
	}
	save.Flags().StringVar(&flagName, "name", "", "Baseline name (defaults to the project name)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved baselines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			snaps, err := baseline.NewStore(a.cfg.Baseline.Dir).List()
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(cmd.OutOrStdout(), snaps)
			}
			reporter.PrintBaselines(cmd.OutOrStdout(), snaps)
			return nil
		},
	}

	diff := &cobra.Command{
		Use:   "diff <baseline-id> <project-file>",
		Short: "Compare the current schedule against a baseline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			snap, err := baseline.NewStore(a.cfg.Baseline.Dir).Load(args[0])
			if err != nil {
				return err
			}
			file, sched, err := a.schedule(args[1])
			if err != nil {
				return err
			}
			fp, err := baseline.Fingerprint(file.EngineActivities(), file.EngineDependencies())
			if err != nil {
				return err
			}

			cmp := baseline.Compare(snap, sched, fp)
			if flagJSON {
				return outputJSON(cmd.OutOrStdout(), cmp)
			}
			reporter.PrintComparison(cmd.OutOrStdout(), cmp)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "delete <baseline-id>",
		Short: "Delete a saved baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			return baseline.NewStore(a.cfg.Baseline.Dir).Delete(args[0])
		},
	}

	cmd.AddCommand(save, list, diff, remove)
	return cmd
}

func serveCmd() *cobra.Command {
	var flagPort int

	cmd := &cobra.Command{
		Use:   "serve [project-file]",
		Short: "Serve the computed schedule graph, health and metrics over HTTP",
		Long: `Starts a local HTTP server exposing GET/POST /graph, /healthz and
/metrics. When a project file is given it is calculated and served
immediately; otherwise POST a project JSON document to /graph.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			srv := viewer.NewServer(a.svc, ctxlog.FromContext(a.ctx))
			if len(args) == 1 {
				file, sched, err := a.schedule(args[0])
				if err != nil {
					return err
				}
				srv.SetGraph(viewer.ToGraph(file.Name, sched, file.EngineDependencies(), file.Names()))
			}

			port := a.cfg.Viewer.Port
			if cmd.Flags().Changed("port") {
				port = flagPort
			}

			if !flagJSON {
				ui.PrintLogo(os.Stderr)
			}

			ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Serve(ctx, port)
		},
	}

	cmd.Flags().IntVar(&flagPort, "port", 0, "Listen port (default from config)")

	return cmd
}

// --- Output helpers ---

func outputJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
