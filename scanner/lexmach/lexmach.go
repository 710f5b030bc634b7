// Package lexmach adapts github.com/timtadh/lexmachine to the scanner
// package's Tokenizer contract, for clients that want a generated DFA
// lexer instead of the text/scanner-backed DefaultTokenizer.
package lexmach

import (
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"

	"github.com/cforge/earley"
	"github.com/cforge/earley/scanner"
)

func tracer() tracing.Trace {
	return tracing.Select("earley.scanner")
}

// LMAdapter wraps a compiled lexmachine DFA lexer.
type LMAdapter struct {
	Lexer *lexmachine.Lexer
}

// NewLMAdapter builds a lexer from a caller-supplied init function (adding
// whatever patterns the grammar's terminals need), plus convenience lists
// of single-character literals and keywords, each mapped to its terminal
// code via tokenIds. It returns an error if the DFA fails to compile.
func NewLMAdapter(init func(*lexmachine.Lexer), literals []string, keywords []string, tokenIds map[string]int) (*LMAdapter, error) {
	adapter := &LMAdapter{Lexer: lexmachine.NewLexer()}
	init(adapter.Lexer)
	for _, lit := range literals {
		r := "\\" + strings.Join(strings.Split(lit, ""), "\\")
		adapter.Lexer.Add([]byte(r), MakeToken(lit, tokenIds[lit]))
	}
	for _, name := range keywords {
		adapter.Lexer.Add([]byte(strings.ToLower(name)), MakeToken(name, tokenIds[name]))
	}
	if err := adapter.Lexer.Compile(); err != nil {
		tracer().Errorf("error compiling DFA: %v", err)
		return nil, err
	}
	return adapter, nil
}

// Scanner creates a Tokenizer over input.
func (lm *LMAdapter) Scanner(input string) (*LMScanner, error) {
	s, err := lm.Lexer.Scanner([]byte(input))
	if err != nil {
		return &LMScanner{}, err
	}
	return &LMScanner{scanner: s, Error: logError}, nil
}

// LMScanner implements scanner.Tokenizer over a lexmachine DFA scan.
type LMScanner struct {
	scanner *lexmachine.Scanner
	Error   func(error)
}

var _ scanner.Tokenizer = (*LMScanner)(nil)

// SetErrorHandler implements scanner.Tokenizer.
func (lms *LMScanner) SetErrorHandler(h func(error)) {
	if h == nil {
		lms.Error = logError
		return
	}
	lms.Error = h
}

func logError(e error) {
	tracer().Errorf("scanner error: %s", e.Error())
}

// NextToken implements scanner.Tokenizer. Unconsumed-input errors are
// reported via Error and skipped past rather than aborting the scan.
func (lms *LMScanner) NextToken() earley.Token {
	tok, err, eof := lms.scanner.Next()
	for err != nil {
		lms.Error(err)
		if ui, is := err.(*machines.UnconsumedInput); is {
			lms.scanner.TC = ui.FailTC
		}
		tok, err, eof = lms.scanner.Next()
	}
	if eof {
		return scanner.MakeDefaultToken(earley.TokType(scanner.EOF), "", earley.Span{0, 0})
	}
	token := tok.(*lexmachine.Token)
	return scanner.MakeDefaultToken(
		earley.TokType(token.Type),
		string(token.Lexeme),
		earley.Span{uint64(token.StartColumn), uint64(token.EndColumn)},
	)
}

// Skip is a pre-defined lexmachine action that discards the match.
func Skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

// MakeToken is a pre-defined lexmachine action wrapping a match into a
// token carrying id as its terminal code.
func MakeToken(name string, id int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(id, string(m.Bytes), m), nil
	}
}
