package main

import (
	"github.com/spf13/cobra"

	"github.com/observe-l/sclfec/internal/results"
)

func newShowCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <result-file>",
		Short: "Print a result file, optionally as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := results.Read(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return f.WriteJSON(cmd.OutOrStdout())
			}
			_, err = f.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "write JSON instead of the text format")
	return cmd
}
