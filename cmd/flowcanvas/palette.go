package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var paletteCmd = &cobra.Command{
	Use:   "palette",
	Short: "List the node types available in the palette",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cfg)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "GROUP\tKIND\tLABEL\tICON")
		for _, item := range reg.Palette() {
			entry := reg.Resolve(item.Kind, item.Label)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.Group, item.Kind, item.Label, entry.Icon)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(paletteCmd)
}
