package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/pkg/adapters/mcp"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes one workflow as MCP tools over Standard Input/Output, so AI agents
can add nodes, connect them and write custom code the way a user does on the canvas.

Without --workflow a new workflow is created; its id is logged to stderr.
Every change is saved to the configured store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		workflowID, _ := cmd.Flags().GetString("workflow")
		if cmd.Flags().Changed("store") {
			cfg.Store.Backend, _ = cmd.Flags().GetString("store")
		}
		// Ensure logs don't corrupt JSON-RPC on Stdout
		log.SetOutput(os.Stderr)

		ctx := context.Background()
		reg, err := loadRegistry(cfg)
		if err != nil {
			return err
		}
		ws, closeStore, err := buildWorkspace(ctx, cfg, flowcanvas.WithRegistry(reg))
		if err != nil {
			return err
		}
		defer closeStore()

		if workflowID == "" {
			wf, err := ws.Create(ctx, "MCP workflow", "created by flowcanvas mcp")
			if err != nil {
				return err
			}
			workflowID = wf.ID
		} else if _, err := ws.Editor(ctx, workflowID); err != nil {
			if errors.Is(err, domain.ErrWorkflowNotFound) {
				return fmt.Errorf("workflow %q not found in the %s store", workflowID, cfg.Store.Backend)
			}
			return err
		}

		logger.Info("starting flowcanvas MCP server (stdio)", "workflow_id", workflowID)
		srv := mcp.NewServer(ws, workflowID, mcp.WithLogger(logger), mcp.WithRegistry(reg))
		if err := srv.ServeStdio(); err != nil {
			return fmt.Errorf("MCP server execution failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("workflow", "", "Workflow id to edit")
	mcpCmd.Flags().String("store", "file", "Workflow store: memory, file or redis")
}
