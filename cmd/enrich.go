package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coral-atlas/poi-cli/internal/dedupe"
	"github.com/coral-atlas/poi-cli/internal/model"
	"github.com/coral-atlas/poi-cli/internal/report"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Layer a secondary source onto the canonical set",
	Long: `Matches records from a secondary source file against canonical
entities by shared external identifier and fills in missing or
placeholder fields. Existing real values are never overwritten.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		input, _ := cmd.Flags().GetString("input")
		source, _ := cmd.Flags().GetString("source")

		log := zap.L().With(zap.String("command", "enrich"))

		secondary, err := report.ReadRecords(input)
		if err != nil {
			return eris.Wrapf(err, "enrich: read %s", input)
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		places, err := st.ListPlaces(ctx)
		if err != nil {
			return eris.Wrap(err, "enrich: list places")
		}

		var enriched int
		var changed []model.CanonicalPlace
		for i := range places {
			touched := false
			for _, sec := range secondary {
				if dedupe.Enrich(&places[i], sec, source) {
					touched = true
				}
			}
			if touched {
				enriched++
				changed = append(changed, places[i])
			}
		}

		if len(changed) > 0 {
			if err := st.UpsertPlaces(ctx, changed); err != nil {
				return eris.Wrap(err, "enrich: upsert places")
			}
		}

		log.Info("enrichment complete",
			zap.String("source", source),
			zap.Int("secondary", len(secondary)),
			zap.Int("enriched", enriched),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d canonical entities enriched from %s\n", enriched, len(places), source)
		return nil
	},
}

func init() {
	enrichCmd.Flags().String("input", "", "secondary source JSON file of POI records")
	enrichCmd.Flags().String("source", "secondary", "provenance label for enriched fields")
	_ = enrichCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(enrichCmd)
}
