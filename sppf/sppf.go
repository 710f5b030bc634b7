// Package sppf implements a Shared Packed Parse Forest: a parse forest
// that reuses nodes between derivations of the same (symbol, span) or
// (rule, span) pair, so an ambiguous parse's trees share every subtree
// two derivations have in common instead of duplicating them.
//
// The node split (symbol nodes fanning out via or-edges to RHS nodes,
// RHS nodes fanning out via and-edges to their children) and the
// span-indexed search-tree dedup strategy are adapted from the teacher's
// lr/sppf package, generalized with the node vocabulary the engine's
// abstract-node annotations and error-recovery markers need: NIL
// (epsilon), ERROR (a recovery splice point, with a used flag so
// ReleaseTree's visitor does not double free the input tokens it
// swallowed), and ANODE/ALT (named abstract nodes and the alternative
// chain ambiguity is packed into, carrying costs for one-parse
// selection).
package sppf

import (
	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("earley.sppf")
}
