package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownEndpoint is returned when an edge references a node that is not in the document.
	ErrUnknownEndpoint = errors.New("unknown edge endpoint")

	// ErrDuplicateEdge is returned when an identical edge (same derived id) already exists.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrNodeNotFound is returned when an operation targets a node id that is not in the document.
	ErrNodeNotFound = errors.New("node not found")

	// ErrEdgeNotFound is returned when an operation targets an edge id that is not in the document.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrDuplicateNode is returned when a node is added with an id already in use.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrUnknownKind is returned for node kinds outside the closed vocabulary.
	ErrUnknownKind = errors.New("unknown node kind")

	// ErrInvalidTransition is returned when a dialog operation is invoked outside the Open state.
	ErrInvalidTransition = errors.New("invalid editor transition")

	// ErrNotEditable is returned when the code dialog is opened on a node without a code editor.
	ErrNotEditable = errors.New("node is not editable")

	// ErrUnsupportedLanguage is returned for languages other than javascript and python.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrInvalidPayload is returned when a node payload entry has the wrong type.
	ErrInvalidPayload = errors.New("invalid node payload")

	// ErrWorkflowNotFound is returned when a workflow id cannot be found in the store.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrInvalidSnapshot is the sentinel wrapped by SnapshotError.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// SnapshotError aggregates every structural problem found in a snapshot.
type SnapshotError struct {
	Problems []string
}

func (e *SnapshotError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("%s: %s", ErrInvalidSnapshot, e.Problems[0])
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d problems:\n", ErrInvalidSnapshot, len(e.Problems))
	for i, p := range e.Problems {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, p)
	}
	return sb.String()
}

func (e *SnapshotError) Unwrap() error { return ErrInvalidSnapshot }
