/*
Package workspace manages the set of open workflow editors.

It loads workflows from a ports.WorkflowStore into flowcanvas.Editor instances,
writes their snapshots back on save, and serializes persistence per workflow
with reference counted local locks and an optional distributed lock, so that
several replicas can share one store.
*/
package workspace
