package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coral-atlas/poi-cli/internal/audit"
	"github.com/coral-atlas/poi-cli/internal/model"
	"github.com/coral-atlas/poi-cli/internal/report"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Quality-check stored coordinates",
	Long: `Re-checks every record against the territory geometry: missing or
zero coordinates, out-of-territory points, low precision, island
mismatches, and known placeholder coordinates. Exits non-zero when the
unresolved fraction exceeds the configured ceiling.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		input, _ := cmd.Flags().GetString("input")
		outPath, _ := cmd.Flags().GetString("report")

		log := zap.L().With(zap.String("command", "audit"))

		var records []model.PlaceRecord
		if input != "" {
			recs, err := report.ReadRecords(input)
			if err != nil {
				return eris.Wrapf(err, "audit: read %s", input)
			}
			records = recs
		} else {
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			places, err := st.ListPlaces(ctx)
			if err != nil {
				return eris.Wrap(err, "audit: list places")
			}
			records = make([]model.PlaceRecord, len(places))
			for i, p := range places {
				records[i] = p.PlaceRecord
			}
		}

		validator, err := buildValidator()
		if err != nil {
			return err
		}

		rep := audit.New(validator).Audit(records)

		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return eris.Wrap(err, "audit: marshal report")
		}
		if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
			return eris.Wrapf(err, "audit: write report %s", outPath)
		}

		log.Info("audit complete",
			zap.Int("records", len(records)),
			zap.Int("issues", len(rep.Issues)),
			zap.Int("reprocess", len(rep.Reprocess)),
			zap.Float64("unresolved_fraction", rep.UnresolvedFraction),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "%d records, %d issues, unresolved fraction %.3f (ceiling %.3f)\n",
			len(records), len(rep.Issues), rep.UnresolvedFraction, cfg.Audit.MaxUnresolvedFraction)

		if rep.UnresolvedFraction > cfg.Audit.MaxUnresolvedFraction {
			return fmt.Errorf("unresolved fraction %.3f exceeds ceiling %.3f",
				rep.UnresolvedFraction, cfg.Audit.MaxUnresolvedFraction)
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().String("input", "", "JSON records file (default: audit the store)")
	auditCmd.Flags().String("report", "audit-report.json", "audit report path")
	rootCmd.AddCommand(auditCmd)
}
