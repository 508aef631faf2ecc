package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coral-atlas/poi-cli/internal/dedupe"
	"github.com/coral-atlas/poi-cli/internal/model"
	"github.com/coral-atlas/poi-cli/internal/report"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Detect duplicates and admit records into the canonical set",
	Long: `Flags duplicate pairs inside the input file, then merges the input
against the canonical set in the store: records that duplicate an
existing entity are dropped from admission (enrichment is a separate
pass), the rest become new canonical entities.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		reportPath, _ := cmd.Flags().GetString("report")
		detectOnly, _ := cmd.Flags().GetBool("detect-only")

		log := zap.L().With(zap.String("command", "dedupe"))

		incoming, err := report.ReadRecords(input)
		if err != nil {
			return eris.Wrapf(err, "dedupe: read %s", input)
		}

		// Pairwise pass inside the batch itself.
		pairs := dedupe.Detect(incoming)
		log.Info("duplicate scan complete",
			zap.Int("records", len(incoming)),
			zap.Int("pairs", len(pairs)),
		)

		rr := &model.RunReport{
			GeneratedAt: time.Now().UTC(),
			Stats:       model.RunStats{Total: len(incoming)},
			Duplicates:  pairs,
		}

		if detectOnly {
			if err := report.WriteReport(reportPath, rr); err != nil {
				return eris.Wrapf(err, "dedupe: write report %s", reportPath)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d records scanned, %d duplicate pairs\n", len(incoming), len(pairs))
			return nil
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		existing, err := st.ListPlaces(ctx)
		if err != nil {
			return eris.Wrap(err, "dedupe: list places")
		}

		merged, dropped := dedupe.Admit(existing, incoming)
		rr.Duplicates = append(rr.Duplicates, dropped...)
		rr.Stats.Resolved = len(merged) - len(existing)
		rr.Stats.Skipped = len(incoming) - (len(merged) - len(existing))

		if err := st.UpsertPlaces(ctx, merged); err != nil {
			return eris.Wrap(err, "dedupe: upsert places")
		}
		if output != "" {
			if err := report.WritePlaces(output, merged); err != nil {
				return eris.Wrapf(err, "dedupe: write %s", output)
			}
		}
		if err := report.WriteReport(reportPath, rr); err != nil {
			return eris.Wrapf(err, "dedupe: write report %s", reportPath)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d incoming: %d admitted, %d dropped as duplicates, %d canonical total\n",
			len(incoming), len(merged)-len(existing), len(incoming)-(len(merged)-len(existing)), len(merged))
		return nil
	},
}

func init() {
	dedupeCmd.Flags().String("input", "records.json", "input JSON file of POI records")
	dedupeCmd.Flags().String("output", "", "optional JSON dump of the canonical set")
	dedupeCmd.Flags().String("report", "dedupe-report.json", "run report path")
	dedupeCmd.Flags().Bool("detect-only", false, "report duplicate pairs without touching the store")
	rootCmd.AddCommand(dedupeCmd)
}
