package main

import (
	"fmt"
	"io"

	"github.com/nishad/geopool/internal/classify"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [TITLE...]",
	Short: "Show how study titles are classified",
	Long: `Print the label (bulk or singlecell) assigned to each title. Titles are read
from stdin, one per line, when none are given.`,
	Example: `  geopool classify "Single-cell RNA-seq of mouse cortex"
  cut -f4 studies.tsv | geopool classify`,
	RunE: func(cmd *cobra.Command, args []string) error {
		titles, err := argsOrStdin(args, cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read titles: %w", err)
		}
		return writeLabels(cmd.OutOrStdout(), titles)
	},
}

func writeLabels(w io.Writer, titles []string) error {
	for _, title := range titles {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", classify.Classify(title), title); err != nil {
			return err
		}
	}
	return nil
}
