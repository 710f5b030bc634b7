/*
Package earley implements a general context-free parsing engine based on
Earley's algorithm, with Leo's right-recursion optimization, deterministic
lookahead filtering, ambiguity-preserving parse forests (SPPF), and
best-effort error recovery.

A client supplies a grammar — either built from rule callbacks or parsed
from a textual description (package frontend) — and a token stream produced
by an external lexer (package scanner defines the contract). Parsing
returns a single parse tree, a packed representation of all parses, or,
for invalid input, a best-effort recovery locating the error token and a
resynchronization point.

The engine is organized as:

■ grammar: symbol/rule tables, FIRST/FOLLOW/nullable analysis, and term-set
(lookahead) interning.

■ lr: the deduplicated situation/set-core/Earley-set stores the parser
builds its sets from.

■ parse: the parser-list builder (scan/predict/complete), the Leo engine,
error recovery, and the derivation-walking translation layer that turns a
completed parse into an SPPF.

■ sppf: the shared packed parse forest node types.

■ frontend: the textual grammar description language.

■ scanner: the token-reader contract plus two adapters.

■ engine: the public facade that ties them together behind the lifecycle
described in the project's specification: create a grammar, populate and
configure it, parse, and free the resulting tree.

This package itself holds only the shared token and span types the other
packages import.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package earley
