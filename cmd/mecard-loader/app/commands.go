package app

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metro-mecard/mecard/internal/ils/bimport"
	"github.com/metro-mecard/mecard/internal/loader"
)

// errRunFailed makes the process exit non-zero without printing the report twice.
var errRunFailed = errors.New("batch load did not complete")

func newRunCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one batch load",
		Long: "Run one batch load. A run that finds the lock held exits 0 and leaves the records for the next run; " +
			"a run with rejected customers or an aborted run exits 1.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.cleanup()

			rep := e.loader.Run(cmd.Context())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", rep.Result, rep.Summary())
			for _, id := range rep.Failed {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  failed: %s\n", id)
			}
			switch rep.Result {
			case loader.ResultFailed, loader.ResultAborted:
				return errRunFailed
			}
			return nil
		},
	}
}

func newWatchCommand(opts *Options) *cobra.Command {
	var interval time.Duration
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run batch loads on an interval and when records are staged, until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.cleanup()

			sopts := loader.SchedulerOptions{
				Interval: time.Duration(e.cfg.Loader.IntervalSec) * time.Second,
				Debounce: time.Duration(e.cfg.Loader.DebounceMillis) * time.Millisecond,
			}
			if interval > 0 {
				sopts.Interval = interval
			}
			if !noWatch {
				sopts.WatchDir = e.loader.Config().LoadDir
			}

			sched := loader.NewScheduler(e.loader, sopts, e.logger)
			if err := sched.Start(cmd.Context()); err != nil {
				return err
			}
			// Pick up whatever was staged while nothing was watching.
			sched.Trigger()

			<-cmd.Context().Done()
			e.logger.Info("interrupted, waiting for the current run")
			sched.Stop()
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "run interval (overrides loader.interval_sec)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not watch the load directory, run on the interval only")
	return cmd
}

func newInitHeaderCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "init-header",
		Short: "Write the bimport header template into the load directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.cleanup()

			path, err := bimport.WriteHeader(e.cfg.BImport)
			if err != nil {
				return err
			}
			e.logger.Info("header written", zap.String("path", path))
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newFailuresCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "failures",
		Short: "List customers bimport rejected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.cleanup()

			items, err := loader.ListFailures(e.loader.Config().FailureDir)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "CUSTOMER\tAT\tSTDOUT\tSTDERR")
			for _, f := range items {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.CustomerID, f.At.Format(time.RFC3339), f.Stdout, f.Stderr)
			}
			return tw.Flush()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear <customer-id>...",
		Short: "Remove failure markers once they have been dealt with",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.cleanup()

			var errs []error
			for _, id := range args {
				if err := loader.RemoveFailure(e.loader.Config().FailureDir, id); err != nil {
					errs = append(errs, err)
					continue
				}
				if e.outcome != nil {
					if err := e.outcome.Clear(cmd.Context(), id); err != nil {
						e.logger.Warn("clear recorded failure", zap.String("customer_id", id), zap.Error(err))
					}
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", id)
			}
			return errors.Join(errs...)
		},
	})
	return cmd
}
