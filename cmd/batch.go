package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/derogation-cli/internal/derogation"
	"github.com/sells-group/derogation-cli/internal/points"
)

var (
	batchInput       string
	batchRadius      float64
	batchConcurrency int
	batchOutput      string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze every site listed in a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		sites, err := points.ReadFile(ctx, batchInput, batchRadius)
		if err != nil {
			return err
		}

		env, err := openLayers(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		analysis := derogation.NewAnalysis(cfg.Settings(), env.Catalog)
		results := processBatch(ctx, sites, batchConcurrency, analysis.Run)

		formatBatch(os.Stdout, results)
		if batchOutput != "" {
			f, err := os.Create(batchOutput)
			if err != nil {
				return eris.Wrapf(err, "batch: create %s", batchOutput)
			}
			if err := writeBatchCSV(f, results); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return eris.Wrapf(err, "batch: close %s", batchOutput)
			}
		}
		return nil
	},
}

// runFunc runs one analysis.
type runFunc func(ctx context.Context, req derogation.Request) derogation.Outcome

type batchResult struct {
	Site    points.Site
	Outcome derogation.Outcome
}

// processBatch analyzes sites concurrently. A failed site never aborts the
// batch. Results keep input order.
func processBatch(ctx context.Context, sites []points.Site, concurrency int, run runFunc) []batchResult {
	if len(sites) == 0 {
		zap.L().Info("no sites to analyze")
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("sites", len(sites)),
		zap.Int("concurrency", concurrency),
	)

	results := make([]batchResult, len(sites))
	var g errgroup.Group
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64
	for i, site := range sites {
		g.Go(func() error {
			out := run(ctx, site.Request())
			results[i] = batchResult{Site: site, Outcome: out}
			if out.OK() {
				succeeded.Add(1)
			} else {
				failed.Add(1)
				zap.L().Warn("site analysis failed", zap.String("site", site.ID), zap.Error(out.Err()))
			}
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return results
}

func batchRow(r batchResult) []string {
	row := []string{
		r.Site.ID,
		strconv.FormatFloat(r.Site.Point.X, 'f', -1, 64),
		strconv.FormatFloat(r.Site.Point.Y, 'f', -1, 64),
		strconv.FormatFloat(r.Site.Radius, 'f', -1, 64),
	}
	if !r.Outcome.OK() {
		return append(row, "", "", r.Outcome.Err().Error())
	}
	nearby := "-"
	if r.Outcome.Report.PrecedentLayerFound() {
		nearby = strconv.Itoa(r.Outcome.Report.Nearby)
	}
	return append(row, string(r.Outcome.Report.Verdict.Kind), nearby, "")
}

var batchHeader = []string{"ID", "X", "Y", "RADIUS", "VERDICT", "NEARBY", "ERROR"}

func formatBatch(w io.Writer, results []batchResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tX\tY\tRADIUS\tVERDICT\tNEARBY\tERROR")
	for _, r := range results {
		row := batchRow(r)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", row[0], row[1], row[2], row[3], row[4], row[5], row[6])
	}
	tw.Flush() //nolint:errcheck
}

func writeBatchCSV(w io.Writer, results []batchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(batchHeader); err != nil {
		return eris.Wrap(err, "batch: write csv header")
	}
	for _, r := range results {
		if err := cw.Write(batchRow(r)); err != nil {
			return eris.Wrap(err, "batch: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "batch: flush csv")
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "CSV or XLSX file with x, y and optional id and radius columns")
	batchCmd.Flags().Float64Var(&batchRadius, "radius", 50, "radius for rows without one")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 1, "sites analyzed in parallel; each site is an independent run")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write results to this CSV file")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
