package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coral-atlas/poi-cli/pkg/geocode"
)

var importVerifiedCmd = &cobra.Command{
	Use:   "import-verified",
	Short: "Import a curator spreadsheet of verified locations",
	Long: `Reads an xlsx sheet of hand-verified locations (name, lat, lng,
optional semicolon-separated aliases) and writes the YAML table the
resolver consults before any geocoder.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		merge, _ := cmd.Flags().GetBool("merge")

		if output == "" {
			output = cfg.Tables.VerifiedPath
		}
		if output == "" {
			return eris.New("import-verified: no output path; set --output or tables.verified_path")
		}

		entries, err := geocode.ImportXLSX(input)
		if err != nil {
			return eris.Wrapf(err, "import-verified: read %s", input)
		}

		if merge {
			existing, loadErr := geocode.LoadTable(output)
			if loadErr == nil {
				entries = mergeVerified(existing.Entries(), entries)
			}
		}

		if err := geocode.WriteTable(output, entries); err != nil {
			return eris.Wrapf(err, "import-verified: write %s", output)
		}

		zap.L().Info("verified table written",
			zap.String("path", output),
			zap.Int("entries", len(entries)),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "%d verified locations written to %s\n", len(entries), output)
		return nil
	},
}

// mergeVerified overlays imported entries onto the existing table; the
// spreadsheet wins on name collisions.
func mergeVerified(existing, imported []geocode.VerifiedLocation) []geocode.VerifiedLocation {
	seen := make(map[string]bool, len(imported))
	for _, e := range imported {
		seen[e.Name] = true
	}
	out := make([]geocode.VerifiedLocation, 0, len(existing)+len(imported))
	out = append(out, imported...)
	for _, e := range existing {
		if !seen[e.Name] {
			out = append(out, e)
		}
	}
	return out
}

func init() {
	importVerifiedCmd.Flags().String("input", "", "xlsx spreadsheet of verified locations")
	importVerifiedCmd.Flags().String("output", "", "YAML table path (default tables.verified_path)")
	importVerifiedCmd.Flags().Bool("merge", false, "merge into the existing table instead of replacing it")
	_ = importVerifiedCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(importVerifiedCmd)
}
