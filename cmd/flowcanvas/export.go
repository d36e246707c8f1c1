package main

import (
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <snapshot>",
	Short: "Convert a snapshot between JSON and YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loadSnapshot(args[0])
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		data, err := domain.MarshalSnapshot(snap, domain.Format(format))
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("format", "json", "Output format: json or yaml")
}
