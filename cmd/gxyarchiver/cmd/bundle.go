// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/oneconcern/gxyarchiver/internal/lock"
	"github.com/oneconcern/gxyarchiver/pkg/core"
	"github.com/oneconcern/gxyarchiver/pkg/core/status"
	"github.com/oneconcern/gxyarchiver/pkg/errors"
	"github.com/oneconcern/gxyarchiver/pkg/metrics"
	"github.com/oneconcern/gxyarchiver/pkg/model"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Pack complete exports into bundles",
	Long: `Run one bundling cycle: scan the staging root for complete exports, pack them into bundles
not exceeding the maximum bundle size, write a manifest and move each export into its bundle.

An export larger than the maximum bundle size gets a bundle of its own.

Interrupting the command (SIGINT, SIGTERM) completes the bundle in progress, then stops.

Exit status is 0 on success, 2 when an integrity check failed on some export, 1 on any other error.`,
	Run: func(cmd *cobra.Command, args []string) {
		// resources held by the cycle are released before exiting
		var ce *exitCodeError
		switch err := runBundle(cmd); {
		case err == nil:
		case errors.As(err, &ce):
			wrapFatalWithCodef(ce.code, "%v", ce.err)
		default:
			wrapFatalln("bundle", err)
		}
	},
}

// exitCodeError asks for a specific exit status once the command has returned
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string {
	return e.err.Error()
}

func runBundle(cmd *cobra.Command) error {
	settings, engine, logger, err := loadEngine()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err = os.MkdirAll(engine.BundledRoot, 0700); err != nil {
		return fmt.Errorf("create bundled root: %w", err)
	}
	lk, err := lock.Acquire(engine.BundledRoot)
	if err != nil {
		return fmt.Errorf("another bundling cycle is running: %w", err)
	}
	defer func() { _ = lk.Release() }()

	opts := []core.Option{core.Logger(logger)}
	var m *metrics.Cycle
	if settings.MetricsFile != "" {
		m = metrics.New(metrics.WithLabels(map[string]string{"staging_root": engine.StagingRoot}))
		opts = append(opts, core.WithMetrics(m))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := core.NewOrchestrator(afero.NewOsFs(), engine, opts...).Run(ctx)
	interrupted := errors.Is(err, status.ErrInterrupted)
	if err != nil && !interrupted {
		return fmt.Errorf("bundling cycle failed: %w", err)
	}

	if m != nil {
		if werr := m.WriteTextfile(settings.MetricsFile); werr != nil {
			logger.Warn("could not write metrics", zap.String("path", settings.MetricsFile), zap.Error(werr))
		}
	}

	if ferr := format(cmd, summary, FormatterFunc(printSummary)); ferr != nil {
		return fmt.Errorf("print summary: %w", ferr)
	}

	switch {
	case summary.HasIntegrityFailures():
		return &exitCodeError{code: exitIntegrity, err: fmt.Errorf("integrity check failed for: %v", summary.FlaggedIDs())}
	case interrupted:
		return &exitCodeError{code: exitFatal, err: err}
	}
	return nil
}

func printSummary(w io.Writer, data interface{}) error {
	summary := data.(model.CycleSummary)
	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	bad := color.New(color.FgRed, color.Bold)

	for _, b := range summary.Bundles {
		if !b.Committed {
			continue
		}
		if _, err := ok.Fprintf(w, "bundle %s\t%d exports\t%s\n", b.BundleID, len(b.Moved), units.HumanSize(float64(b.TotalSize))); err != nil {
			return err
		}
	}
	for _, issue := range summary.Issues {
		c := warn
		if issue.Kind == model.IssueIntegrity {
			c = bad
		}
		if _, err := c.Fprintf(w, "%s\t%s\t%s\t%s\n", issue.Kind, issueTarget(issue), color.HiBlackString(issue.BundleID), issue.Reason); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d bundles committed, %d exports moved, %d issues, in %v\n",
		len(summary.Committed()), summary.UnitsMoved(), len(summary.Issues), summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))
	if err != nil {
		return err
	}
	if summary.Interrupted {
		_, err = warn.Fprintf(w, "interrupted: %d planned bundles not started\n", summary.NotStarted)
	}
	return err
}

func issueTarget(issue model.Issue) string {
	if issue.UnitID != "" {
		return issue.UnitID
	}
	return "-"
}

func init() {
	addFormatFlag(bundleCmd, "text")
	rootCmd.AddCommand(bundleCmd)
}
