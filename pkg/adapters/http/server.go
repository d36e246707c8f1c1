// Package http exposes workflows of a workspace over a JSON/SSE API.
package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/internal/presentation/mermaid"
	"github.com/aretw0/flowcanvas/pkg/codeeditor"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/factory"
	"github.com/aretw0/flowcanvas/pkg/registry"
	"github.com/aretw0/flowcanvas/pkg/render"
	"github.com/aretw0/flowcanvas/pkg/sanitize"
	"github.com/aretw0/flowcanvas/pkg/workspace"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
)

//go:embed openapi.yaml
var rawSpec []byte

// maxBodySize bounds request bodies; code payloads are checked again by the sanitizer.
const maxBodySize = 1 << 20

// Server serves the editing API of the workflows held by a workspace.
type Server struct {
	Workspace *workspace.Manager
	Registry  *registry.Registry
	Streams   *StreamManager
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistry sets the registry served by /palette. It should be the one the
// workspace editors use.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Server) {
		s.Registry = reg
	}
}

// NewServer creates a Server backed by ws.
func NewServer(ws *workspace.Manager, opts ...Option) *Server {
	s := &Server{
		Workspace: ws,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Registry == nil {
		s.Registry = registry.New()
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates the HTTP handler of a workspace.
func NewHandler(ws *workspace.Manager, opts ...Option) http.Handler {
	return NewServer(ws, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/palette", s.GetPalette)
	r.Get("/events", s.SubscribeEvents)

	r.Route("/workflows", func(r chi.Router) {
		r.Get("/", s.ListWorkflows)
		r.Post("/", s.CreateWorkflow)
		r.Post("/import", s.ImportWorkflow)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetWorkflow)
			r.Patch("/", s.UpdateWorkflow)
			r.Delete("/", s.DeleteWorkflow)
			r.Post("/save", s.SaveWorkflow)
			r.Get("/render", s.RenderWorkflow)
			r.Get("/export", s.ExportWorkflow)
			r.Post("/execute", s.ExecuteWorkflow)
			r.Post("/events", s.DispatchEvents)

			r.Post("/nodes", s.AddNode)
			r.Patch("/nodes/{nodeID}", s.UpdateNode)
			r.Delete("/nodes/{nodeID}", s.RemoveNode)
			r.Post("/edges", s.Connect)
			r.Delete("/edges/{edgeID}", s.RemoveEdge)

			r.Get("/editor", s.GetEditor)
			r.Post("/editor", s.OpenEditor)
			r.Put("/editor", s.EditDraft)
			r.Delete("/editor", s.CancelEditor)
			r.Post("/editor/save", s.SaveEditor)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>flowcanvas API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetSwagger parses the embedded OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	return openapi3.NewLoader().LoadFromData(rawSpec)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	} else if err != nil {
		s.logger.Error("failed to load OpenAPI spec", "err", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "flowcanvas-http",
		"version":     strings.TrimSpace(flowcanvas.Version),
		"api_version": apiVersion,
	})
}

// GetPalette handles the GET /palette request.
func (s *Server) GetPalette(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Registry.Palette())
}

// ListWorkflows handles the GET /workflows request.
func (s *Server) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Workspace.List(r.Context())
	if err != nil {
		s.fail(w, "list workflows", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

type createWorkflowRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateWorkflow handles the POST /workflows request.
func (s *Server) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var body createWorkflowRequest
	if !s.decode(w, r, &body, true) {
		return
	}
	name, err := sanitize.Label(body.Name)
	if err != nil {
		s.fail(w, "create workflow", err)
		return
	}
	wf, err := s.Workspace.Create(r.Context(), name, body.Description)
	if err != nil {
		s.fail(w, "create workflow", err)
		return
	}
	writeJSON(w, http.StatusCreated, wf)
}

// ImportWorkflow handles the POST /workflows/import request.
func (s *Server) ImportWorkflow(w http.ResponseWriter, r *http.Request) {
	var body domain.Workflow
	if !s.decode(w, r, &body, false) {
		return
	}
	wf, err := s.Workspace.Import(r.Context(), body)
	if err != nil {
		s.fail(w, "import workflow", err)
		return
	}
	writeJSON(w, http.StatusCreated, wf)
}

// GetWorkflow handles the GET /workflows/{id} request.
func (s *Server) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := s.Workspace.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "get workflow", err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

// UpdateWorkflow handles the PATCH /workflows/{id} request.
func (s *Server) UpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	var info workspace.Info
	if !s.decode(w, r, &info, false) {
		return
	}
	wf, err := s.Workspace.Update(r.Context(), chi.URLParam(r, "id"), info)
	if err != nil {
		s.fail(w, "update workflow", err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

// DeleteWorkflow handles the DELETE /workflows/{id} request.
func (s *Server) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	if err := s.Workspace.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "delete workflow", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveWorkflow handles the POST /workflows/{id}/save request.
func (s *Server) SaveWorkflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	// Save only persists open workflows.
	if _, err := s.Workspace.Editor(r.Context(), id); err != nil {
		s.fail(w, "save workflow", err)
		return
	}
	wf, err := s.Workspace.Save(r.Context(), id)
	if err != nil {
		s.fail(w, "save workflow", err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

// RenderWorkflow handles the GET /workflows/{id}/render request.
func (s *Server) RenderWorkflow(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ed.Render())
}

// ExportWorkflow handles the GET /workflows/{id}/export request.
func (s *Server) ExportWorkflow(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editor(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "mermaid":
		var overlay *mermaid.Overlay
		if _, draft, open := ed.EditorState(); open {
			overlay = &mermaid.Overlay{Editing: draft.NodeID}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_ = mermaid.Adapter{W: w, Overlay: overlay}.Render(r.Context(), ed.Render())
		return
	case "", string(domain.FormatJSON), string(domain.FormatYAML):
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}

	data, err := domain.MarshalSnapshot(ed.Snapshot(), domain.Format(format))
	if err != nil {
		s.fail(w, "export workflow", err)
		return
	}
	if domain.Format(format) == domain.FormatYAML {
		w.Header().Set("Content-Type", "application/yaml")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	_, _ = w.Write(data)
}

// ExecuteWorkflow handles the POST /workflows/{id}/execute request.
// Running workflows is out of scope for the editor.
func (s *Server) ExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotImplemented, "workflow execution is not supported")
}

// DispatchEvents handles the POST /workflows/{id}/events request.
func (s *Server) DispatchEvents(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	events, err := render.DecodeEvents(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		s.logger.Warn("DispatchEvents: invalid request body", "err", err)
		return
	}

	s.mutate(w, r, func(ctx context.Context, ed *flowcanvas.Editor) (any, int, error) {
		if err := ed.Dispatch(ctx, events...); err != nil {
			// Valid events were applied; report the rest.
			return map[string]any{"applied": false, "error": err.Error()}, http.StatusUnprocessableEntity, nil
		}
		return map[string]any{"applied": true}, http.StatusOK, nil
	})
}

type addNodeRequest struct {
	Kind     domain.NodeKind  `json:"kind"`
	Label    string           `json:"label"`
	Viewport factory.Viewport `json:"viewport"`
}

// AddNode handles the POST /workflows/{id}/nodes request.
func (s *Server) AddNode(w http.ResponseWriter, r *http.Request) {
	var body addNodeRequest
	if !s.decode(w, r, &body, false) {
		return
	}
	s.mutate(w, r, func(ctx context.Context, ed *flowcanvas.Editor) (any, int, error) {
		node, err := ed.AddNode(ctx, body.Kind, body.Label, body.Viewport)
		return node, http.StatusCreated, err
	})
}

type updateNodeRequest struct {
	Position *domain.Position `json:"position,omitempty"`
	Data     domain.NodeData  `json:"data,omitempty"`
}

// UpdateNode handles the PATCH /workflows/{id}/nodes/{nodeID} request.
func (s *Server) UpdateNode(w http.ResponseWriter, r *http.Request) {
	var body updateNodeRequest
	if !s.decode(w, r, &body, false) {
		return
	}
	nodeID := chi.URLParam(r, "nodeID")
	s.mutate(w, r, func(ctx context.Context, ed *flowcanvas.Editor) (any, int, error) {
		if err := ed.UpdateNode(ctx, nodeID, body.Position, body.Data); err != nil {
			return nil, 0, err
		}
		node, ok := ed.Node(nodeID)
		if !ok {
			return nil, 0, fmt.Errorf("%w: %q", domain.ErrNodeNotFound, nodeID)
		}
		return node, http.StatusOK, nil
	})
}

// RemoveNode handles the DELETE /workflows/{id}/nodes/{nodeID} request.
func (s *Server) RemoveNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	s.mutate(w, r, func(ctx context.Context, ed *flowcanvas.Editor) (any, int, error) {
		removed, err := ed.RemoveNode(ctx, nodeID)
		if removed == nil {
			removed = []domain.Edge{}
		}
		return map[string]any{"removed_edges": removed}, http.StatusOK, err
	})
}

// Connect handles the POST /workflows/{id}/edges request.
func (s *Server) Connect(w http.ResponseWriter, r *http.Request) {
	var body domain.ConnectRequest
	if !s.decode(w, r, &body, false) {
		return
	}
	s.mutate(w, r, func(ctx context.Context, ed *flowcanvas.Editor) (any, int, error) {
		edge, created, err := ed.Connect(ctx, body)
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		return edge, status, err
	})
}

// RemoveEdge handles the DELETE /workflows/{id}/edges/{edgeID} request.
func (s *Server) RemoveEdge(w http.ResponseWriter, r *http.Request) {
	edgeID := chi.URLParam(r, "edgeID")
	s.mutate(w, r, func(ctx context.Context, ed *flowcanvas.Editor) (any, int, error) {
		return nil, http.StatusNoContent, ed.RemoveEdge(ctx, edgeID)
	})
}

type editorResponse struct {
	State codeeditor.State  `json:"state"`
	Draft *codeeditor.Draft `json:"draft,omitempty"`
}

func newEditorResponse(ed *flowcanvas.Editor) editorResponse {
	state, draft, open := ed.EditorState()
	resp := editorResponse{State: state}
	if open {
		resp.Draft = &draft
	}
	return resp
}

// GetEditor handles the GET /workflows/{id}/editor request.
func (s *Server) GetEditor(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newEditorResponse(ed))
}

type openEditorRequest struct {
	NodeID string `json:"node_id"`
}

// OpenEditor handles the POST /workflows/{id}/editor request.
func (s *Server) OpenEditor(w http.ResponseWriter, r *http.Request) {
	var body openEditorRequest
	if !s.decode(w, r, &body, false) {
		return
	}
	ed, ok := s.editor(w, r)
	if !ok {
		return
	}
	if _, err := ed.OpenEditor(r.Context(), body.NodeID); err != nil {
		s.fail(w, "open editor", err)
		return
	}
	writeJSON(w, http.StatusOK, newEditorResponse(ed))
}

type editDraftRequest struct {
	Code     *string          `json:"code,omitempty"`
	Language *domain.Language `json:"language,omitempty"`
}

// EditDraft handles the PUT /workflows/{id}/editor request.
func (s *Server) EditDraft(w http.ResponseWriter, r *http.Request) {
	var body editDraftRequest
	if !s.decode(w, r, &body, false) {
		return
	}
	ed, ok := s.editor(w, r)
	if !ok {
		return
	}
	if body.Language != nil {
		if _, err := domain.ParseLanguage(string(*body.Language)); err != nil {
			s.fail(w, "edit draft", err)
			return
		}
	}
	if body.Code != nil {
		if err := ed.SetDraftCode(*body.Code); err != nil {
			s.fail(w, "edit draft", err)
			return
		}
	}
	if body.Language != nil {
		if err := ed.SetDraftLanguage(*body.Language); err != nil {
			s.fail(w, "edit draft", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, newEditorResponse(ed))
}

// CancelEditor handles the DELETE /workflows/{id}/editor request.
func (s *Server) CancelEditor(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editor(w, r)
	if !ok {
		return
	}
	if err := ed.CancelEditor(r.Context()); err != nil {
		s.fail(w, "cancel editor", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveEditor handles the POST /workflows/{id}/editor/save request.
func (s *Server) SaveEditor(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(ctx context.Context, ed *flowcanvas.Editor) (any, int, error) {
		draft, err := ed.SaveEditor(ctx)
		if err != nil {
			return nil, 0, err
		}
		node, _ := ed.Node(draft.NodeID)
		return node, http.StatusOK, nil
	})
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	workflowID := r.URL.Query().Get("workflow_id")
	if workflowID == "" {
		writeError(w, http.StatusBadRequest, "workflow_id is required")
		return
	}

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		for _, field := range strings.Split(watch, ",") {
			watchList = append(watchList, strings.TrimSpace(field))
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: subscribing to workflow updates", "workflow_id", workflowID)
	ch, cancel := s.Streams.Subscribe(workflowID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "workflow_id", workflowID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !matchesWatch(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// matchesWatch reports whether a serialized diff touches any watched collection.
func matchesWatch(msg string, watchList []string) bool {
	var diff domain.SnapshotDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watchList {
		switch field {
		case "nodes":
			if len(diff.AddedNodes)+len(diff.UpdatedNodes)+len(diff.RemovedNodes) > 0 {
				return true
			}
		case "edges":
			if len(diff.AddedEdges)+len(diff.RemovedEdges) > 0 {
				return true
			}
		}
	}
	return false
}

// -- Helpers --

// mutate runs fn on the workflow editor and broadcasts the resulting diff.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(context.Context, *flowcanvas.Editor) (any, int, error)) {
	workflowID := chi.URLParam(r, "id")
	ed, ok := s.editor(w, r)
	if !ok {
		return
	}

	before := ed.Snapshot()
	resp, status, err := fn(r.Context(), ed)
	after := ed.Snapshot()

	if diff := domain.Diff(workflowID, &before, &after); diff != nil {
		if data, mErr := json.Marshal(diff); mErr == nil {
			s.Streams.Broadcast(workflowID, string(data))
		}
	}

	if err != nil {
		s.fail(w, "mutation", err)
		return
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, resp)
}

func (s *Server) editor(w http.ResponseWriter, r *http.Request) (*flowcanvas.Editor, bool) {
	ed, err := s.Workspace.Editor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "open workflow", err)
		return nil, false
	}
	return ed, true
}

// decode reads a JSON body. With optional set an empty body is accepted.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	writeError(w, http.StatusBadRequest, "invalid request body")
	s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
	return false
}

// fail maps domain errors onto HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Debug(op+" rejected", "status", status, "err", err)
	}
	writeError(w, status, err.Error())
}

// StatusFor returns the HTTP status of a domain error.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrEdgeNotFound),
		errors.Is(err, domain.ErrWorkflowNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownEndpoint),
		errors.Is(err, domain.ErrUnsupportedLanguage),
		errors.Is(err, domain.ErrInvalidPayload),
		errors.Is(err, domain.ErrUnknownKind),
		errors.Is(err, domain.ErrInvalidSnapshot):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrNotEditable),
		errors.Is(err, domain.ErrDuplicateNode),
		errors.Is(err, domain.ErrDuplicateEdge):
		return http.StatusConflict
	case errors.Is(err, sanitize.ErrTooLarge),
		errors.Is(err, sanitize.ErrInvalidUTF8):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
