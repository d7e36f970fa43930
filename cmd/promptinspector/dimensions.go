package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guiperry/promptinspector/dimension"
	"github.com/guiperry/promptinspector/report"
)

var dimensionsCmd = &cobra.Command{
	Use:   "dimensions",
	Short: "List the quality dimensions prompts are scored on",
	RunE:  runDimensions,
}

func init() {
	dimensionsCmd.Flags().Bool("json", false, "print JSON instead of a table")
	rootCmd.AddCommand(dimensionsCmd)
}

type dimensionJSON struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

func runDimensions(cmd *cobra.Command, _ []string) error {
	defs := dimension.List()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		out := make([]dimensionJSON, len(defs))
		for i, d := range defs {
			out[i] = dimensionJSON{ID: d.ID, Label: d.Label, Description: d.Description, Weight: d.Weight}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	s := report.NewStyles(nil)
	for _, d := range defs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
			s.Label.Render(d.Label), s.Muted.Render(fmt.Sprintf("%-20s weight %.1f", d.ID, d.Weight)), d.Description)
	}
	return nil
}
