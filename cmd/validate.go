package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coral-atlas/poi-cli/internal/model"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a single coordinate against the territory geometry",
	Example: `  poi-cli validate --lat 19.33 --lng -81.50 --category restaurant
  poi-cli validate --lat 19.3894 --lng -81.2740 --category dive_site`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lng, _ := cmd.Flags().GetFloat64("lng")
		category, _ := cmd.Flags().GetString("category")

		validator, err := buildValidator()
		if err != nil {
			return err
		}

		verdict := validator.Validate(lat, lng, category)
		out := cmd.OutOrStdout()

		if verdict.Valid {
			island := validator.IslandFor(lat, lng)
			switch {
			case island != "":
				fmt.Fprintf(out, "valid (%s)\n", island)
			case validator.OffshoreAllowed(category):
				fmt.Fprintf(out, "valid (offshore %s)\n", category)
			default:
				fmt.Fprintln(out, "valid (open water)")
			}
			return nil
		}

		fmt.Fprintf(out, "invalid: %s\n", verdict.Reason)
		if verdict.SuggestedFix != nil {
			fmt.Fprintf(out, "suggested fix: %.5f, %.5f\n", verdict.SuggestedFix.Lat, verdict.SuggestedFix.Lng)
		}
		if verdict.Reason == model.IssueOutOfTerritory {
			fmt.Fprintln(out, "point is outside the territory entirely; re-geocode instead of nudging")
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().Float64("lat", 0, "latitude")
	validateCmd.Flags().Float64("lng", 0, "longitude")
	validateCmd.Flags().String("category", "", "place category (offshore categories bypass the coastline check)")
	_ = validateCmd.MarkFlagRequired("lat")
	_ = validateCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(validateCmd)
}
