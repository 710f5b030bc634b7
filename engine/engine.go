// Package engine is the engine's public facade: the Go-native equivalent
// of the source library's create_grammar/read_grammar/parse_grammar/
// parse/free_tree/free_grammar C API (§5, §6). It is the one package
// allowed to import grammar, frontend, parse, sppf, and scanner together,
// since those packages themselves import the root package (for Token/
// Span) and must never be imported back by it — keeping the root package
// a leaf is what makes this layering cycle-free.
package engine

import (
	"fmt"
	"sync"

	"github.com/cforge/earley/frontend"
	"github.com/cforge/earley/grammar"
	"github.com/cforge/earley/parse"
	"github.com/cforge/earley/scanner"
	"github.com/cforge/earley/sppf"
)

// Grammar is the public handle: build it with NewGrammar, populate it
// with ReadGrammar or ParseGrammarText, configure it with the Set*
// methods, then Parse input with it.
type Grammar struct {
	builder *grammar.GrammarBuilder
	g       *grammar.Grammar
	parser  *parse.Parser

	lookahead     parse.LookaheadLevel
	oneParse      bool
	costFlag      bool
	recovery      bool
	recoveryMatch int
	debugLevel    int
}

// errCtx approximates the source engine's thread-local error buffer
// (§7): a process-wide map keyed by grammar handle, so concurrent
// grammars observe independent error state
// without needing real thread-local storage, which Go has no access to.
var errCtx sync.Map // *Grammar -> *errState

type errState struct {
	mu   sync.Mutex
	err  error
	code ErrorCode
}

func (gr *Grammar) state() *errState {
	v, _ := errCtx.LoadOrStore(gr, &errState{})
	return v.(*errState)
}

func (gr *Grammar) setError(code ErrorCode, err error) {
	st := gr.state()
	st.mu.Lock()
	st.code, st.err = code, err
	st.mu.Unlock()
}

func (gr *Grammar) clearError() { gr.setError(NoError, nil) }

// NewGrammar creates an empty, unconfigured grammar handle (create_grammar).
// name is used only for tracing.
func NewGrammar(name string) *Grammar {
	return &Grammar{
		builder:       grammar.NewGrammarBuilder(name),
		recoveryMatch: 3,
	}
}

// SetLookaheadLevel configures prediction filtering (set_lookahead_level):
// 0 none, 1 static, 2 dynamic. Call before ReadGrammar/ParseGrammarText.
func (gr *Grammar) SetLookaheadLevel(level int) { gr.lookahead = parse.LookaheadLevel(level) }

// SetOneParseFlag configures single minimum-cost-derivation selection
// (set_one_parse_flag).
func (gr *Grammar) SetOneParseFlag(b bool) { gr.oneParse = b }

// SetCostFlag records the cost flag (set_cost_flag) and passes it to the
// parser, which never reads it: SetOneParseFlag(true) selection picks the
// minimum-cost alternative whether or not the flag is set.
func (gr *Grammar) SetCostFlag(b bool) { gr.costFlag = b }

// SetErrorRecoveryFlag enables bounded resynchronization on a syntax
// error (set_error_recovery_flag).
func (gr *Grammar) SetErrorRecoveryFlag(b bool) { gr.recovery = b }

// SetRecoveryMatch records the resynchronization confirmation threshold K
// (set_recovery_match). The parser stores it but does not use it; recovery
// accepts a resume point without a K-token confirmation.
func (gr *Grammar) SetRecoveryMatch(k int) { gr.recoveryMatch = k }

// SetDebugLevel records a debug level (set_debug_level) and passes it to
// the parser, which never reads it; it does not change tracing output.
func (gr *Grammar) SetDebugLevel(n int) { gr.debugLevel = n }

// TerminalReader yields the next terminal declaration, or ok=false when
// exhausted (read_terminal_cb).
type TerminalReader func() (name string, code grammar.TokType, ok bool)

// RuleReader yields the next rule's left-hand side and right-hand-side
// symbol names plus an optional abstract-node annotation, or ok=false
// when exhausted (read_rule_cb).
type RuleReader func() (lhs string, rhs []string, annoName string, annoCost int, annoPositions []int, ok bool)

// ReadGrammar builds a grammar from callbacks rather than a textual
// description (read_grammar), then finalizes it against startName.
// strict is accepted for interface parity with the source engine; this
// implementation's builder already rejects every error strict guards
// against, so it has no additional effect.
func (gr *Grammar) ReadGrammar(startName string, strict bool, terms TerminalReader, rules RuleReader) error {
	known := make(map[string]grammar.TokType)
	for {
		name, code, ok := terms()
		if !ok {
			break
		}
		gr.builder.T(name, code)
		known[name] = code
	}
	for {
		lhs, rhs, annoName, annoCost, annoPositions, ok := rules()
		if !ok {
			break
		}
		gr.builder.LHS(lhs)
		for _, sym := range rhs {
			if code, isTerm := known[sym]; isTerm {
				gr.builder.T(sym, code)
			} else {
				gr.builder.N(sym)
			}
		}
		if annoName != "" {
			gr.builder.Anno(annoName, annoCost, annoPositions...)
		}
		gr.builder.End()
	}
	return gr.finalize(startName)
}

// ParseGrammarText builds a grammar from a textual description in the §6
// EBNF (parse_grammar), validating UTF-8 first, then finalizes it against
// startName. strict is currently unused, matching ReadGrammar.
func (gr *Grammar) ParseGrammarText(startName string, strict bool, description string) error {
	if err := frontend.Parse(gr.builder, description); err != nil {
		switch err.(type) {
		case *frontend.ErrInvalidUTF8:
			gr.setError(InvalidUtf8, err)
		default:
			gr.setError(DescriptionSyntax, err)
		}
		return err
	}
	return gr.finalize(startName)
}

func (gr *Grammar) finalize(startName string) error {
	g, err := gr.builder.Grammar(startName)
	if err != nil {
		gr.setError(mapGrammarError(err), err)
		return err
	}
	gr.g = g
	gr.parser = parse.NewParser(g,
		parse.WithLookaheadLevel(gr.lookahead),
		parse.WithOneParse(gr.oneParse),
		parse.WithCost(gr.costFlag),
		parse.WithErrorRecovery(gr.recovery),
		parse.WithRecoveryMatch(gr.recoveryMatch),
		parse.WithDebugLevel(gr.debugLevel),
	)
	gr.clearError()
	return nil
}

func mapGrammarError(err error) ErrorCode {
	ge, ok := err.(*grammar.Error)
	if !ok {
		return DescriptionSyntax
	}
	switch ge.Code {
	case grammar.NoRulesForSymbol:
		return NoRulesForSymbol
	case grammar.UndefinedSymbol:
		return UndefinedSymbol
	case grammar.RepeatedTermDecl:
		return RepeatedTermDecl
	case grammar.RepeatedRule:
		return RepeatedRule
	case grammar.UnaccessibleNonterminal:
		return UnaccessibleNonterminal
	case grammar.LoopNonterminal:
		return LoopNonterminal
	case grammar.InvalidTokenCode:
		return InvalidTokenCode
	default:
		return DescriptionSyntax
	}
}

func mapParseError(c parse.ErrorCode) ErrorCode {
	switch c {
	case parse.ParseSyntax, parse.ParseRecoveryFailed:
		return ParseSyntax
	case parse.InternalError:
		return Io
	default:
		return ParseSyntax
	}
}

// Parse runs the parser over scan's token stream (parse). On acceptance
// it returns the forest's root node (or, with SetOneParseFlag(true), the
// resolved single-derivation root).
func (gr *Grammar) Parse(scan scanner.Tokenizer) (*sppf.SymbolNode, error) {
	if gr.parser == nil {
		err := fmt.Errorf("engine: grammar not finalized, call ReadGrammar or ParseGrammarText first")
		gr.setError(DescriptionSyntax, err)
		return nil, err
	}
	accept, err := gr.parser.Parse(scan)
	if !accept {
		_, code := gr.parser.LastError()
		gr.setError(mapParseError(code), err)
		return nil, err
	}
	gr.clearError()
	return gr.parser.ParseForest().Root(), err
}

// FreeTree traverses the SPPF rooted at root exactly once (free_tree),
// invoking onTerminal for each terminal leaf (if provided) and onNode for
// every node visited.
func (gr *Grammar) FreeTree(root *sppf.SymbolNode, onTerminal, onNode func(*sppf.SymbolNode)) {
	if gr.parser == nil || gr.parser.ParseForest() == nil {
		return
	}
	gr.parser.ParseForest().ReleaseTree(root, func(sn *sppf.SymbolNode) {
		if sn.Kind == sppf.KindTerm && onTerminal != nil {
			onTerminal(sn)
		}
		if onNode != nil {
			onNode(sn)
		}
	})
}

// ErrorMessage returns the message from the most recent failing
// operation on gr, truncated UTF-8-safely at 1024 bytes (error_message).
func (gr *Grammar) ErrorMessage() string {
	st := gr.state()
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.err == nil {
		return ""
	}
	return truncateUTF8(st.err.Error(), maxErrorMessage)
}

// ErrorCode returns the stable code from the most recent failing
// operation on gr, or NoError (error_code).
func (gr *Grammar) ErrorCode() ErrorCode {
	st := gr.state()
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.code
}

// LeoStats reports Leo-optimization usage counters for the most recent
// Parse call (get_leo_stats).
func (gr *Grammar) LeoStats() (items, completions int) {
	if gr.parser == nil {
		return 0, 0
	}
	st := gr.parser.LeoStats()
	return st.TransitiveChainsBuilt, st.TransitiveChainsUsed
}

// Forest returns the parse forest built by the most recent successful
// Parse call, for clients that need to walk alternatives rather than
// just the one collapsed tree Parse returns.
func (gr *Grammar) Forest() *sppf.Forest {
	if gr.parser == nil {
		return nil
	}
	return gr.parser.ParseForest()
}

// FreeGrammar releases gr's error-context entry (free_grammar); the
// grammar and parser structures themselves are reclaimed by the garbage
// collector once gr is no longer reachable. Concurrent parses on gr must
// have completed before calling this.
func (gr *Grammar) FreeGrammar() {
	errCtx.Delete(gr)
}
