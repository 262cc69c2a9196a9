package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/wolfman30/studio-pulse/internal/analysis"
	"github.com/wolfman30/studio-pulse/internal/appointments"
	"github.com/wolfman30/studio-pulse/internal/automation"
	"github.com/wolfman30/studio-pulse/internal/kpi"
	"github.com/wolfman30/studio-pulse/internal/status"
	"github.com/wolfman30/studio-pulse/pkg/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "statusctl",
		Short: "Inspect studio-pulse scheduling analysis and status rules",
		Long: `statusctl runs the same analysis and rule evaluation as the server
against a JSON appointments file, at any instant you choose.`,
		SilenceUsage: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(newEvaluateCmd(), newRulesCmd())
	return root
}

type evaluateOptions struct {
	file      string
	at        string
	tz        string
	startHour int
	endHour   int
	minGap    int
	current   string
	since     string
	kpiRange  string
	logLevel  string
}

func newEvaluateCmd() *cobra.Command {
	opts := evaluateOptions{}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run one automation tick and print the resulting dashboard snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEvaluate(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.file, "appointments", "f", "", "JSON file with an array of appointments (required)")
	f.StringVar(&opts.at, "at", "", "evaluation instant in RFC3339 (default: now)")
	f.StringVar(&opts.tz, "tz", "UTC", "IANA timezone used for local dates and times")
	f.IntVar(&opts.startHour, "start", analysis.DefaultWindow.StartHour, "timeline start hour")
	f.IntVar(&opts.endHour, "end", analysis.DefaultWindow.EndHour, "timeline end hour")
	f.IntVar(&opts.minGap, "min-gap", analysis.DefaultMinGapMinutes, "minimum reportable gap in minutes")
	f.StringVar(&opts.current, "status", string(status.Available), "current status before evaluation")
	f.StringVar(&opts.since, "since", "", "when the current status was set, RFC3339 (default: --at)")
	f.StringVar(&opts.kpiRange, "kpi-range", string(kpi.RangeToday), "KPI range: Today, This Week or This Month")
	f.StringVar(&opts.logLevel, "log-level", "error", "log level for skipped-appointment warnings")
	_ = cmd.MarkFlagRequired("appointments")
	return cmd
}

func runEvaluate(cmd *cobra.Command, opts evaluateOptions) error {
	loc, err := time.LoadLocation(opts.tz)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}
	now := time.Now().In(loc)
	if opts.at != "" {
		if now, err = time.Parse(time.RFC3339, opts.at); err != nil {
			return fmt.Errorf("parse --at: %w", err)
		}
		now = now.In(loc)
	}
	since := now
	if opts.since != "" {
		if since, err = time.Parse(time.RFC3339, opts.since); err != nil {
			return fmt.Errorf("parse --since: %w", err)
		}
	}
	window := analysis.Window{StartHour: opts.startHour, EndHour: opts.endHour}
	if err := window.Validate(); err != nil {
		return err
	}
	kpiRange, err := kpi.ParseRange(opts.kpiRange)
	if err != nil {
		return err
	}
	current := status.Status(opts.current)
	if !status.IsCanonical(opts.current) {
		return fmt.Errorf("%w: %q", automation.ErrNotCanonical, opts.current)
	}

	appts, err := appointments.LoadFile(opts.file)
	if err != nil {
		return err
	}

	logger := logging.NewWithWriter(cmd.ErrOrStderr(), opts.logLevel)
	s := automation.NewScheduler(appointments.NewStaticSource(appts), logger).
		WithClock(automation.ClockFunc(func() time.Time { return now })).
		WithAnalyzer(analysis.NewAnalyzer(opts.minGap, logger)).
		WithAggregator(kpi.NewAggregator(window, opts.minGap, "")).
		WithWindow(window).
		WithKPIRange(kpiRange)
	s.Store().Update(func(st *automation.State) {
		st.Status = current
		st.StatusSince = since
	})
	s.Tick(context.Background(), now)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(s.Snapshot())
}

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the automation rules in evaluation order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PIPELINE\tID\tTRIGGER\tDESCRIPTION")
			for _, r := range status.LegacyRules() {
				fmt.Fprintf(w, "legacy\t%s\t%s\t%s\n", r.ID, r.Trigger, r.Description)
			}
			for _, r := range status.DefaultRules() {
				fmt.Fprintf(w, "rules\t%s\t%s\t%s\n", r.ID, r.Trigger, r.Description)
			}
			return w.Flush()
		},
	}
}
