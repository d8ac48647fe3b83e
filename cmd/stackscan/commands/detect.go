package commands

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/stackscan/cmd/stackscan/internal/bind"
	"github.com/vulntor/stackscan/cmd/stackscan/internal/format"
	"github.com/vulntor/stackscan/pkg/appctx"
	"github.com/vulntor/stackscan/pkg/config"
	"github.com/vulntor/stackscan/pkg/server/api"
	v1 "github.com/vulntor/stackscan/pkg/server/api/v1"
	"github.com/vulntor/stackscan/pkg/server/jobs"
	"github.com/vulntor/stackscan/pkg/techdetect"
)

const detectOperation = "detect"

// newDetectCommand creates the 'stackscan detect' command.
//
// Example usage:
//
//	stackscan detect https://example.com
//	stackscan detect example.com wordpress.org --output json
//	stackscan detect https://shop.example --cookie "session=abc" --timeout 20s
func newDetectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "detect <url> [url...]",
		Short:   "Detect the technologies used by one or more websites",
		GroupID: "detect",
		Long: `Fetch each URL and report the technologies it uses together with their
version, confidence and categories.

Several URLs are detected in parallel. When only some of them fail the
successful results are still printed and the command exits with status 8.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)

			opts, err := bind.BindDetectOptions(cmd, args)
			if err != nil {
				return formatter.PrintTotalFailureSummary(detectOperation, err, ErrorCode(err))
			}

			detector, cleanup, err := resolveDetector(cmd.Context())
			if err != nil {
				return formatter.PrintTotalFailureSummary(detectOperation, err, ErrorCode(err))
			}
			defer cleanup()

			results := runDetections(cmd.Context(), detector, opts)
			return printDetections(formatter, results)
		},
	}

	cmd.Flags().Duration("timeout", 0, "Per page fetch timeout (0 uses detect.timeout)")
	cmd.Flags().String("cookie", "", "Cookie header sent with every request")
	cmd.Flags().StringP("output", "o", string(format.ModeTable), "Output format (table, json)")
	cmd.Flags().Int("concurrency", 4, "Number of URLs detected in parallel")
	cmd.Flags().BoolP("quiet", "q", false, "Suppress summaries")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	config.BindDetectFlags(cmd.Flags())

	return cmd
}

// resolveDetector returns the detector stored in ctx or builds one from the
// loaded configuration.
func resolveDetector(ctx context.Context) (*techdetect.Detector, func(), error) {
	if d, ok := appctx.Detector(ctx); ok {
		return d, func() {}, nil
	}

	mgr, ok := appctx.Config(ctx)
	if !ok {
		return nil, nil, fmt.Errorf("%w: configuration not loaded", errConfigLoad)
	}

	detector, telemetry, err := bind.NewDetector(mgr.Get(), log.Logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := telemetry.Close(); err != nil {
			log.Warn().Err(err).Msg("close telemetry log")
		}
	}
	return detector, cleanup, nil
}

// runDetections detects every URL on a bounded worker pool and returns the
// results in argument order.
func runDetections(ctx context.Context, detector jobs.Detector, opts bind.DetectOptions) []jobs.Result {
	workers := opts.Concurrency
	if workers > len(opts.URLs) {
		workers = len(opts.URLs)
	}

	manager := jobs.NewMemoryManager(detector, workers)
	if err := manager.Start(ctx); err != nil {
		results := make([]jobs.Result, len(opts.URLs))
		for i, u := range opts.URLs {
			results[i] = jobs.Result{Job: jobs.Job{Request: techdetect.Request{URL: u}}, Err: err}
		}
		return results
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = manager.Stop(stopCtx)
	}()

	batch := make([]jobs.Job, len(opts.URLs))
	for i, u := range opts.URLs {
		batch[i] = jobs.Job{
			ID:      strconv.Itoa(i),
			Request: techdetect.Request{URL: u, Timeout: opts.Timeout, Cookie: opts.Cookie},
		}
	}
	return jobs.RunAll(ctx, manager, batch)
}

func printDetections(formatter format.Formatter, results []jobs.Result) error {
	summary := format.Summary{Operation: detectOperation}
	var firstErr error
	for _, res := range results {
		if res.Err == nil {
			summary.Success++
			continue
		}
		summary.Failed++
		summary.Errors = append(summary.Errors, format.ErrorDetail{
			Target:    res.Job.Request.URL,
			Error:     res.Err.Error(),
			ErrorCode: ErrorCode(res.Err),
		})
		if firstErr == nil {
			firstErr = res.Err
		}
	}
	summary.TotalErrors = summary.Failed

	// A single target behaves like a plain request.
	if len(results) == 1 {
		if firstErr != nil {
			return formatter.PrintTotalFailureSummary(detectOperation, firstErr, ErrorCode(firstErr))
		}
		if err := printReports(formatter, results); err != nil || formatter.IsJSON() {
			return err
		}
		return formatter.PrintSuccessSummary(detectOperation, results[0].Report.URL, technologyCount(results[0].Report))
	}

	if summary.Success > 0 || formatter.IsJSON() {
		if err := printReports(formatter, results); err != nil {
			return err
		}
	}

	if summary.Failed == 0 {
		if formatter.IsJSON() {
			return nil
		}
		return formatter.PrintSuccessSummary(detectOperation, fmt.Sprintf("%d URLs", summary.Success), "")
	}

	_ = formatter.PrintPartialFailureSummary(summary)
	if summary.Success == 0 {
		return &format.ReportedError{Err: firstErr}
	}
	return &format.ReportedError{
		Err: fmt.Errorf("%w: %d of %d URLs failed", ErrPartialFailure, summary.Failed, len(results)),
	}
}

func printReports(formatter format.Formatter, results []jobs.Result) error {
	if formatter.IsJSON() {
		if len(results) == 1 {
			return formatter.PrintJSON(api.NewDetectResponse(results[0].Report))
		}
		resp := v1.BatchResponse{Results: make([]v1.BatchItem, 0, len(results))}
		for _, res := range results {
			resp.Results = append(resp.Results, v1.NewBatchItem(res))
			if res.Err != nil {
				resp.Failed++
			} else {
				resp.Succeeded++
			}
		}
		return formatter.PrintJSON(resp)
	}

	var rows [][]string
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		rows = append(rows, reportRows(res.Report)...)
	}
	return formatter.PrintTable([]string{"URL", "TECHNOLOGY", "VERSION", "CONFIDENCE", "CATEGORIES"}, rows)
}

// reportRows renders one table row per technology, sorted by name.
func reportRows(r *techdetect.Report) [][]string {
	if len(r.Technologies) == 0 {
		return [][]string{{r.URL, "(none)", "-", "-", "-"}}
	}

	names := make([]string, 0, len(r.Technologies))
	for name := range r.Technologies {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		d := r.Technologies[name]
		version := d.Version
		if version == "" {
			version = "-"
		}
		cats := make([]string, len(d.Categories))
		for i, c := range d.Categories {
			cats[i] = strconv.Itoa(c)
		}
		categories := strings.Join(cats, ",")
		if categories == "" {
			categories = "-"
		}
		rows = append(rows, []string{r.URL, name, version, strconv.Itoa(d.Confidence) + "%", categories})
	}
	return rows
}

func technologyCount(r *techdetect.Report) string {
	if len(r.Technologies) == 1 {
		return "1 technology"
	}
	return fmt.Sprintf("%d technologies", len(r.Technologies))
}
