package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/placeresolve/internal/assemble"
	"github.com/sells-group/placeresolve/internal/ingest"
	"github.com/sells-group/placeresolve/internal/resolve"
)

var (
	resolveInput       string
	resolveOutput      string
	resolveBasePort    int
	resolveSessions    int
	resolveRetries     int
	resolveOnlyChanged bool
	resolveNoHeadless  bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Look up missing coordinates and write GeoJSON",
	Long: `Resolves coordinates for every input place that arrived without them.

Input format is chosen by extension: .csv is read as a Google Maps takeout
CSV, .shp as a point shapefile, anything else as GeoJSON. Places that already
carry coordinates pass through untouched. Output is always GeoJSON; places
that could not be resolved are emitted without geometry and flagged with a
"resolution_error" property so a later run can retry just those.

The run exits zero even when some places fail to resolve; only setup problems
(unreadable input, unwritable output, no reachable WebDriver servers) are
fatal.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		overrideConfig(cmd)
		log := zap.L().With(zap.String("command", "resolve"))

		records, err := ingest.Read(resolveInput)
		if err != nil {
			return err
		}

		// Fail on a bad output path before burning minutes on lookups.
		if err := assemble.CheckWritable(resolveOutput); err != nil {
			return err
		}

		var pending int
		for _, r := range records {
			if r.NeedsLookup() {
				pending++
			}
		}

		if pending > 0 {
			pool, err := resolve.Dial(ctx, resolve.DialConfig{
				BasePort: cfg.WebDriver.BasePort,
				Slots:    cfg.WebDriver.Sessions,
				Headless: cfg.WebDriver.Headless,
				Session: resolve.SessionConfig{
					WaitWindow:    cfg.Resolve.WaitTimeout(),
					PollInterval:  cfg.Resolve.PollInterval(),
					StableAfter:   cfg.Resolve.StableWindow(),
					SearchBaseURL: cfg.Resolve.SearchBaseURL,
				},
			})
			if err != nil {
				return eris.Wrap(err, "resolve: connect session pool")
			}
			defer pool.Close(ctx)

			opts := []resolve.Option{resolve.WithRetryCeiling(cfg.Resolve.Retries)}
			if bar := lookupBar(pending); bar != nil {
				opts = append(opts, resolve.WithProgress(func(done, total int) {
					_ = bar.Add(1)
				}))
			}

			outcomes, err := resolve.NewScheduler(pool, opts...).Run(ctx, records)
			if err != nil {
				return eris.Wrap(err, "resolve: run lookups")
			}
			assemble.Merge(records, outcomes)
		} else {
			log.Info("nothing to resolve, passing records through")
		}

		fc := assemble.FeatureCollection(records, resolveOnlyChanged)
		if err := assemble.WriteFile(resolveOutput, fc); err != nil {
			return err
		}

		var failed int
		for _, r := range records {
			if r.FailReason != "" {
				failed++
			}
		}
		if failed > 0 {
			fmt.Fprintf(os.Stderr, "%d of %d places left unresolved (see %q properties in output)\n",
				failed, len(records), "resolution_error")
		}
		return nil
	},
}

// overrideConfig applies explicitly-set flags over the loaded config.
func overrideConfig(cmd *cobra.Command) {
	if cmd.Flags().Changed("base-port") {
		cfg.WebDriver.BasePort = resolveBasePort
	}
	if cmd.Flags().Changed("sessions") {
		cfg.WebDriver.Sessions = resolveSessions
	}
	if cmd.Flags().Changed("retries") {
		cfg.Resolve.Retries = resolveRetries
	}
	if resolveNoHeadless {
		cfg.WebDriver.Headless = false
	}
}

// lookupBar returns a progress bar when stderr is a terminal, nil otherwise.
func lookupBar(n int) *progressbar.ProgressBar {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetDescription("Resolving places"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveInput, "input", "i", "", "input file: .csv, .shp, or GeoJSON (required)")
	resolveCmd.Flags().StringVarP(&resolveOutput, "output", "o", "", "output GeoJSON file (required)")
	resolveCmd.Flags().IntVar(&resolveBasePort, "base-port", 4444, "port of the first WebDriver server; session i uses base-port+i")
	resolveCmd.Flags().IntVar(&resolveSessions, "sessions", 4, "number of concurrent browser sessions")
	resolveCmd.Flags().IntVar(&resolveRetries, "retries", 2, "extra attempts for timed-out or session-failed lookups")
	resolveCmd.Flags().BoolVar(&resolveOnlyChanged, "only-changed-places", false, "emit only places whose coordinates were newly resolved")
	resolveCmd.Flags().BoolVar(&resolveNoHeadless, "noheadless", false, "show the browser as coordinates are looked up")
	_ = resolveCmd.MarkFlagRequired("input")
	_ = resolveCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(resolveCmd)
}
