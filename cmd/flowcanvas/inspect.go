package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/flowcanvas/internal/presentation/tui"
	"github.com/aretw0/flowcanvas/pkg/render"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <snapshot>",
	Short: "Summarize a snapshot in the terminal",
	Long:  `Prints the nodes, edges and custom code of a snapshot. Output is styled when stdout is a terminal.`,
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

		md := tui.Summary(filepath.Base(args[0]), render.Build(snap, reg))

		plain, _ := cmd.Flags().GetBool("plain")
		if plain || !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}
		out, err := tui.NewRenderer()(md)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("plain", false, "Print raw markdown")
}
