package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"LaborStats/internal/app"
	"LaborStats/internal/config"
	"LaborStats/internal/logging"
	"LaborStats/internal/usecase"
)

var (
	configPath string

	exportFrom   string
	exportTo     string
	exportSeries []string
	exportOutput string

	collectEvery time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "laborstats",
	Short: "Collect and serve Bureau of Labor Statistics time series",
	Long: `laborstats pulls monthly labor-market series from the BLS public data
API, merges new observations into a local CSV dataset and exposes the
result over an HTTP API.`,
	SilenceUsage: true,
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run the collection pipeline once",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer closeApp(a)

		ctx, stop := signalContext(cmd)
		defer stop()

		report, err := a.Collect(ctx)
		if err != nil {
			if errors.Is(err, usecase.ErrNoDataCollected) {
				fmt.Fprintln(cmd.OutOrStdout(), "no new data collected")
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "fetched %d observations, appended %d new rows (%d/%d series ok)\n",
			report.Fetched, report.Appended,
			len(report.Outcomes)-len(report.Failures()), len(report.Outcomes))
		for _, f := range report.Failures() {
			fmt.Fprintf(cmd.ErrOrStderr(), "series %s (%s) failed: %s\n", f.Series.Name, f.Series.ID, f.Error)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer closeApp(a)

		ctx, stop := signalContext(cmd)
		defer stop()

		return a.Serve(ctx, collectEvery)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the dataset as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer closeApp(a)

		from, to, err := parseExportRange()
		if err != nil {
			return err
		}

		var out io.Writer = cmd.OutOrStdout()
		if exportOutput != "" && exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			defer f.Close()
			out = f
		}
		return a.Export(out, from, to, exportSeries)
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "List upcoming release dates",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer closeApp(a)

		ctx, stop := signalContext(cmd)
		defer stop()

		releases, err := a.Releases(ctx)
		if err != nil {
			return err
		}
		if len(releases) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no upcoming releases found")
			return nil
		}
		for _, r := range releases {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", r.Date.Format("2006-01-02"), r.ReferenceMonth)
		}
		return nil
	},
}

func setup() (*app.Application, error) {
	if configPath != "" {
		if err := os.Setenv(config.PathEnv, configPath); err != nil {
			return nil, fmt.Errorf("set config path: %w", err)
		}
	}
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	return app.New(cfg, logger)
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func closeApp(a *app.Application) {
	if err := a.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close: %v\n", err)
	}
}

func parseExportRange() (from, to time.Time, err error) {
	if exportFrom != "" {
		from, err = time.Parse("2006-01-02", exportFrom)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from: %w", err)
		}
	}
	if exportTo != "" {
		to, err = time.Parse("2006-01-02", exportTo)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to: %w", err)
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, errors.New("--from must not be after --to")
	}
	return from, to, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	serveCmd.Flags().DurationVar(&collectEvery, "collect-every", 0, "re-run collection at this interval (0 disables)")

	exportCmd.Flags().StringVar(&exportFrom, "from", "", "start date (YYYY-MM-DD, inclusive)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "end date (YYYY-MM-DD, inclusive)")
	exportCmd.Flags().StringSliceVar(&exportSeries, "series", nil, "series names to include (default all)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "-", "output file (- for stdout)")

	rootCmd.AddCommand(collectCmd, serveCmd, exportCmd, scheduleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
