// Package mcp exposes one workflow of a workspace as Model Context Protocol tools,
// so an agent can build the graph the same way a user does on the canvas.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/factory"
	"github.com/aretw0/flowcanvas/pkg/registry"
	"github.com/aretw0/flowcanvas/pkg/workspace"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NodeResult is returned by tools that create or change a node.
type NodeResult struct {
	Node domain.Node `json:"node" jsonschema_description:"The node after the change"`
}

// EdgeResult is returned by connect.
type EdgeResult struct {
	Edge    domain.Edge `json:"edge" jsonschema_description:"The connection"`
	Created bool        `json:"created" jsonschema_description:"False when an identical connection already existed"`
}

// RemoveResult is returned by remove_node and remove_edge.
type RemoveResult struct {
	Removed      string        `json:"removed" jsonschema_description:"Id of the removed element"`
	RemovedEdges []domain.Edge `json:"removed_edges,omitempty" jsonschema_description:"Edges removed together with a node"`
}

// Server exposes a workflow as MCP tools. Every mutation is saved to the
// workspace store when autosave is on.
type Server struct {
	workspace  *workspace.Manager
	workflowID string
	registry   *registry.Registry
	autosave   bool
	logger     *slog.Logger
	mcpServer  *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistry sets the registry listed by list_palette.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithAutosave persists the workflow after every successful mutation.
func WithAutosave(enabled bool) Option {
	return func(s *Server) {
		s.autosave = enabled
	}
}

// NewServer creates a new MCP Server editing workflowID.
func NewServer(ws *workspace.Manager, workflowID string, opts ...Option) *Server {
	s := &Server{
		workspace:  ws,
		workflowID: workflowID,
		autosave:   true,
		logger:     logging.NewNop(),
		mcpServer:  server.NewMCPServer("flowcanvas-mcp", strings.TrimSpace(flowcanvas.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = registry.New()
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

type addNodeArgs struct {
	Kind    string  `json:"kind"`
	Label   string  `json:"label"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

type connectArgs struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"source_handle"`
	TargetHandle string `json:"target_handle"`
}

type moveNodeArgs struct {
	NodeID string  `json:"node_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type idArgs struct {
	NodeID string `json:"node_id"`
	EdgeID string `json:"edge_id"`
}

type setCodeArgs struct {
	NodeID   string `json:"node_id"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

func (s *Server) registerTools() {
	// TOOL: list_palette
	s.mcpServer.AddTool(mcp.NewTool("list_palette",
		mcp.WithDescription("List the node types that can be added to the workflow."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, _ := json.Marshal(s.registry.Palette())
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: add_node
	addTool := mcp.NewTool("add_node",
		mcp.WithDescription("Add a node of the given kind. Omit label to use the default label of the kind."),
		mcp.WithString("kind", mcp.Required(), mcp.Enum("trigger", "action", "customCode"), mcp.Description("Node kind")),
		mcp.WithString("label", mcp.Description("Display label (e.g. 'Send Email')")),
		mcp.WithNumber("offset_x", mcp.Description("Horizontal offset of the visible canvas area")),
		mcp.WithNumber("offset_y", mcp.Description("Vertical offset of the visible canvas area")),
		mcp.WithOutputSchema[NodeResult](),
	)
	s.mcpServer.AddTool(addTool, mcp.NewStructuredToolHandler(s.handleAddNode))

	// TOOL: connect
	connectTool := mcp.NewTool("connect",
		mcp.WithDescription("Connect two nodes with a directed edge. Connecting the same handles twice is a no-op."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source node ID")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target node ID")),
		mcp.WithString("source_handle", mcp.Description("Source handle (optional)")),
		mcp.WithString("target_handle", mcp.Description("Target handle (optional)")),
		mcp.WithOutputSchema[EdgeResult](),
	)
	s.mcpServer.AddTool(connectTool, mcp.NewStructuredToolHandler(s.handleConnect))

	// TOOL: move_node
	moveTool := mcp.NewTool("move_node",
		mcp.WithDescription("Move a node to an absolute canvas position."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node ID")),
		mcp.WithNumber("x", mcp.Required()),
		mcp.WithNumber("y", mcp.Required()),
		mcp.WithOutputSchema[NodeResult](),
	)
	s.mcpServer.AddTool(moveTool, mcp.NewStructuredToolHandler(s.handleMoveNode))

	// TOOL: remove_node
	removeNodeTool := mcp.NewTool("remove_node",
		mcp.WithDescription("Remove a node and every edge attached to it."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node ID")),
		mcp.WithOutputSchema[RemoveResult](),
	)
	s.mcpServer.AddTool(removeNodeTool, mcp.NewStructuredToolHandler(s.handleRemoveNode))

	// TOOL: remove_edge
	removeEdgeTool := mcp.NewTool("remove_edge",
		mcp.WithDescription("Remove one edge. Its endpoints are kept."),
		mcp.WithString("edge_id", mcp.Required(), mcp.Description("Edge ID")),
		mcp.WithOutputSchema[RemoveResult](),
	)
	s.mcpServer.AddTool(removeEdgeTool, mcp.NewStructuredToolHandler(s.handleRemoveEdge))

	// TOOL: set_code
	setCodeTool := mcp.NewTool("set_code",
		mcp.WithDescription("Replace the code and language of a custom code node, as saving the code dialog does."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Custom code node ID")),
		mcp.WithString("code", mcp.Required(), mcp.Description("Source code")),
		mcp.WithString("language", mcp.Enum("javascript", "python"), mcp.Description("Defaults to the current language")),
		mcp.WithOutputSchema[NodeResult](),
	)
	s.mcpServer.AddTool(setCodeTool, mcp.NewStructuredToolHandler(s.handleSetCode))

	// TOOL: get_snapshot
	s.mcpServer.AddTool(mcp.NewTool("get_snapshot",
		mcp.WithDescription("Get the full graph document (nodes and edges)."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap, err := s.snapshot(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("snapshot failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(snap)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) registerResources() {
	uri := "flowcanvas://workflow/" + s.workflowID
	s.mcpServer.AddResource(mcp.NewResource(uri, "Current Workflow Graph",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		snap, err := s.snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read workflow: %w", err)
		}
		jsonBytes, _ := json.Marshal(snap)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

// Handler methods for structured tools

func (s *Server) handleAddNode(ctx context.Context, request mcp.CallToolRequest, args addNodeArgs) (NodeResult, error) {
	var node domain.Node
	err := s.mutate(ctx, func(ed *flowcanvas.Editor) error {
		var err error
		node, err = ed.AddNode(ctx, domain.NodeKind(args.Kind), args.Label, factory.Viewport{OffsetX: args.OffsetX, OffsetY: args.OffsetY})
		return err
	})
	if err != nil {
		return NodeResult{}, fmt.Errorf("add_node failed: %w", err)
	}
	return NodeResult{Node: node}, nil
}

func (s *Server) handleConnect(ctx context.Context, request mcp.CallToolRequest, args connectArgs) (EdgeResult, error) {
	var res EdgeResult
	err := s.mutate(ctx, func(ed *flowcanvas.Editor) error {
		var err error
		res.Edge, res.Created, err = ed.Connect(ctx, domain.ConnectRequest{
			Source:       args.Source,
			Target:       args.Target,
			SourceHandle: args.SourceHandle,
			TargetHandle: args.TargetHandle,
		})
		return err
	})
	if err != nil {
		return EdgeResult{}, fmt.Errorf("connect failed: %w", err)
	}
	return res, nil
}

func (s *Server) handleMoveNode(ctx context.Context, request mcp.CallToolRequest, args moveNodeArgs) (NodeResult, error) {
	var node domain.Node
	err := s.mutate(ctx, func(ed *flowcanvas.Editor) error {
		if err := ed.MoveNode(ctx, args.NodeID, domain.Position{X: args.X, Y: args.Y}); err != nil {
			return err
		}
		node, _ = ed.Node(args.NodeID)
		return nil
	})
	if err != nil {
		return NodeResult{}, fmt.Errorf("move_node failed: %w", err)
	}
	return NodeResult{Node: node}, nil
}

func (s *Server) handleRemoveNode(ctx context.Context, request mcp.CallToolRequest, args idArgs) (RemoveResult, error) {
	var removed []domain.Edge
	err := s.mutate(ctx, func(ed *flowcanvas.Editor) error {
		var err error
		removed, err = ed.RemoveNode(ctx, args.NodeID)
		return err
	})
	if err != nil {
		return RemoveResult{}, fmt.Errorf("remove_node failed: %w", err)
	}
	return RemoveResult{Removed: args.NodeID, RemovedEdges: removed}, nil
}

func (s *Server) handleRemoveEdge(ctx context.Context, request mcp.CallToolRequest, args idArgs) (RemoveResult, error) {
	err := s.mutate(ctx, func(ed *flowcanvas.Editor) error {
		return ed.RemoveEdge(ctx, args.EdgeID)
	})
	if err != nil {
		return RemoveResult{}, fmt.Errorf("remove_edge failed: %w", err)
	}
	return RemoveResult{Removed: args.EdgeID}, nil
}

// handleSetCode drives the code dialog (open, edit, save) so the node is
// written exactly as a user save would write it.
func (s *Server) handleSetCode(ctx context.Context, request mcp.CallToolRequest, args setCodeArgs) (NodeResult, error) {
	var node domain.Node
	err := s.mutate(ctx, func(ed *flowcanvas.Editor) error {
		if _, err := ed.OpenEditor(ctx, args.NodeID); err != nil {
			return err
		}
		if err := ed.SetDraftCode(args.Code); err != nil {
			_ = ed.CancelEditor(ctx)
			return err
		}
		if args.Language != "" {
			if err := ed.SetDraftLanguage(domain.Language(args.Language)); err != nil {
				_ = ed.CancelEditor(ctx)
				return err
			}
		}
		if _, err := ed.SaveEditor(ctx); err != nil {
			return err
		}
		node, _ = ed.Node(args.NodeID)
		return nil
	})
	if err != nil {
		return NodeResult{}, fmt.Errorf("set_code failed: %w", err)
	}
	return NodeResult{Node: node}, nil
}

func (s *Server) mutate(ctx context.Context, fn func(*flowcanvas.Editor) error) error {
	ed, err := s.workspace.Editor(ctx, s.workflowID)
	if err != nil {
		return err
	}
	if err := fn(ed); err != nil {
		s.logger.Debug("MCP: mutation rejected", "workflow_id", s.workflowID, "err", err)
		return err
	}
	if s.autosave {
		if _, err := s.workspace.Save(ctx, s.workflowID); err != nil {
			s.logger.Error("MCP: autosave failed", "workflow_id", s.workflowID, "err", err)
			return err
		}
	}
	return nil
}

func (s *Server) snapshot(ctx context.Context) (domain.Snapshot, error) {
	ed, err := s.workspace.Editor(ctx, s.workflowID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return ed.Snapshot(), nil
}
