package main

import (
	"fmt"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <snapshot>",
	Short: "Check a snapshot for consistency",
	Long:  `Reports duplicate ids, unknown node kinds and edges pointing at missing nodes.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := termenv.ColorProfile()
		snap, err := loadSnapshot(args[0])
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), termenv.String("Validation failed ✗").Foreground(p.Color("#f87171")))
			return err
		}
		msg := fmt.Sprintf("Graph is valid ✓ (%d nodes, %d edges)", len(snap.Nodes), len(snap.Edges))
		fmt.Fprintln(cmd.OutOrStdout(), termenv.String(msg).Foreground(p.Color("#34d399")))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
