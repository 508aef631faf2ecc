package main

import (
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coral-atlas/poi-cli/internal/batch"
	"github.com/coral-atlas/poi-cli/internal/model"
	"github.com/coral-atlas/poi-cli/internal/report"
	"github.com/coral-atlas/poi-cli/internal/resolve"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve coordinates for POI records",
	Long: `Runs the geocode resolution chain over a JSON file of POI records:
verified table first, then the query ladder across the fast adapters,
then the district-centroid fallback. Progress is checkpointed so an
interrupted run resumes without re-geocoding.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		reportPath, _ := cmd.Flags().GetString("report")
		cpPath, _ := cmd.Flags().GetString("checkpoint")
		workers, _ := cmd.Flags().GetInt("workers")
		limit, _ := cmd.Flags().GetInt("limit")
		fresh, _ := cmd.Flags().GetBool("fresh")
		persist, _ := cmd.Flags().GetBool("persist")

		log := zap.L().With(zap.String("command", "resolve"))

		records, err := report.ReadRecords(input)
		if err != nil {
			return eris.Wrapf(err, "resolve: read %s", input)
		}
		if limit > 0 && limit < len(records) {
			records = records[:limit]
		}
		if len(records) == 0 {
			log.Info("no records to resolve")
			return nil
		}

		validator, err := buildValidator()
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		resolver, err := buildResolver(validator, st)
		if err != nil {
			return err
		}

		cp := batch.NewCheckpoint()
		if !fresh {
			loaded, loadErr := batch.LoadCheckpoint(cpPath)
			if loadErr != nil {
				return eris.Wrapf(loadErr, "resolve: load checkpoint %s", cpPath)
			}
			cp = loaded
		}

		if workers <= 0 {
			workers = cfg.Batch.Workers
		}
		sched := batch.NewScheduler(workers, cfg.Batch.CheckpointEvery, batchDelay(), cfg.Batch.RatePerSec)
		sched.ShowProgress = isTerminal()

		results, runErr := sched.Run(ctx, records, cp, cpPath, resolver.Resolve)
		if runErr != nil {
			log.Warn("run interrupted, checkpoint saved", zap.Error(runErr))
		}

		stats := model.RunStats{
			Total:    len(records),
			BySource: map[string]int{},
		}
		var corrections []model.Correction

		out := make([]model.PlaceRecord, 0, len(records))
		for _, rec := range records {
			res, ok := results[rec.ID]
			if !ok {
				stats.Skipped++
				out = append(out, rec)
				continue
			}
			stats.Resolved++
			stats.BySource[res.Source]++
			if res.Source == resolve.SourceFallback {
				stats.Fallbacks++
			}

			updated, corr := resolver.ApplyResult(rec, &res)
			if corr != nil {
				stats.Corrected++
				corrections = append(corrections, *corr)
			} else {
				stats.Unchanged++
			}
			out = append(out, updated)
		}

		sort.Slice(corrections, func(i, j int) bool {
			return corrections[i].RecordID < corrections[j].RecordID
		})

		if err := report.WriteRecords(output, out); err != nil {
			return eris.Wrapf(err, "resolve: write %s", output)
		}

		rr := &model.RunReport{
			GeneratedAt: time.Now().UTC(),
			Stats:       stats,
			Corrections: corrections,
		}
		if err := report.WriteReport(reportPath, rr); err != nil {
			return eris.Wrapf(err, "resolve: write report %s", reportPath)
		}

		if persist {
			places := make([]model.CanonicalPlace, 0, len(out))
			for _, rec := range out {
				places = append(places, model.CanonicalPlace{
					CanonicalID:     rec.ID,
					PlaceRecord:     rec,
					CoordSource:     sourceOf(results, rec.ID),
					CoordConfidence: confidenceOf(results, rec.ID),
				})
			}
			if err := st.UpsertPlaces(ctx, places); err != nil {
				return eris.Wrap(err, "resolve: persist places")
			}
		}

		report.PrintSummary(cmd.OutOrStdout(), rr)
		return runErr
	},
}

func sourceOf(results map[string]model.GeocodeResult, id string) string {
	if res, ok := results[id]; ok {
		return res.Source
	}
	return ""
}

func confidenceOf(results map[string]model.GeocodeResult, id string) float64 {
	if res, ok := results[id]; ok {
		return res.Confidence
	}
	return 0
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() {
	resolveCmd.Flags().String("input", "records.json", "input JSON file of POI records")
	resolveCmd.Flags().String("output", "records.resolved.json", "output JSON file")
	resolveCmd.Flags().String("report", "resolve-report.json", "run report path")
	resolveCmd.Flags().String("checkpoint", ".poi-checkpoint.json", "checkpoint file path")
	resolveCmd.Flags().Int("workers", 0, "worker count (default from config)")
	resolveCmd.Flags().Int("limit", 0, "process at most N records (0 = all)")
	resolveCmd.Flags().Bool("fresh", false, "ignore any existing checkpoint")
	resolveCmd.Flags().Bool("persist", false, "upsert resolved records into the store")
	rootCmd.AddCommand(resolveCmd)
}
