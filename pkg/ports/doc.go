/*
Package ports defines the driven ports (interfaces) of the editing core.

These interfaces decouple workspaces from external implementations, allowing
the same editor to persist workflows in memory, on disk or in Redis.

# Key Interfaces

  - WorkflowStore: Responsible for persisting and loading Workflow records.
  - DistributedLocker: Provides distributed locking when several replicas share a store.
*/
package ports
