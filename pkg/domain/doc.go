/*
Package domain contains the core data model of the flowcanvas editor.

It defines the entities shared by every other package: Nodes and the
directed Edges between them, the connect request emitted by a canvas, the
exportable Snapshot of a document and the persisted Workflow record. The
package is kept pure and free of I/O, following Hexagonal Architecture
principles.

# Key Entities

  - Node: a vertex of the workflow graph (trigger, action or custom code).
  - Edge: a directed connection between two node handles, with an id derived
    from its endpoints.
  - Snapshot: an immutable export of a document, JSON and YAML serializable.
  - Workflow: a named, timestamped snapshot as written by a WorkflowStore.
*/
package domain
