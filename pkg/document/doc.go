/*
Package document implements the graph document, the single source of truth
of the editor.

A Document owns the ordered set of nodes and the ordered set of edges. Every
mutating operation is all-or-nothing: when it returns an error the document
is unchanged. Edges never dangle: removing a node removes every edge whose
source or target is that node, and new edges are validated by the connection
rule before they are stored.
*/
package document
