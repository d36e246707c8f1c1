package main

import (
	"github.com/aretw0/flowcanvas/internal/presentation/mermaid"
	"github.com/aretw0/flowcanvas/pkg/render"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <snapshot>",
	Short: "Export the workflow graph visualization",
	Long:  `Reads a snapshot (JSON or YAML) and outputs a Mermaid diagram (graph TD).`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loadSnapshot(args[0])
		if err != nil {
			return err
		}
		reg, err := loadRegistry(cfg)
		if err != nil {
			return err
		}

		var overlay *mermaid.Overlay
		if selected, _ := cmd.Flags().GetStringSlice("highlight"); len(selected) > 0 {
			overlay = &mermaid.Overlay{Selected: selected}
		}
		adapter := mermaid.Adapter{W: cmd.OutOrStdout(), Overlay: overlay}
		return adapter.Render(cmd.Context(), render.Build(snap, reg))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringSlice("highlight", nil, "Node ids to highlight")
}
