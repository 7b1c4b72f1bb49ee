package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"daycanvas/internal/model"
)

type layoutOutput struct {
	Intervals []model.LayoutInterval    `json:"intervals"`
	Warnings  []model.ValidationWarning `json:"warnings,omitempty"`
}

func newLayoutCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "layout [file]",
		Short: "Assign columns to one day of entries and print them as JSON",
		Long: `Reads a YAML or JSON list of entries (id, start "HH:MM", end, kind, title)
from file or stdin and prints each entry with its column and the number of
columns its overlap cluster needs. Malformed entries are reported as warnings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			df, err := readEntries(path, cmd.InOrStdin())
			if err != nil {
				return err
			}
			res := df.Layout()
			for _, w := range res.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w.String())
			}

			out := layoutOutput{Intervals: res.Intervals, Warnings: res.Warnings}
			if out.Intervals == nil {
				out.Intervals = []model.LayoutInterval{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}
