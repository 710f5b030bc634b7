// Command earleyrepl is a small interactive driver: it loads a textual
// grammar description (§6), then reads input lines one at a time,
// parsing each against the loaded grammar and printing the resulting
// parse forest as a tree. It is a thin, spec-scoped convenience, not a
// term-rewriting sandbox.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"

	"github.com/cforge/earley/engine"
	"github.com/cforge/earley/scanner"
	"github.com/cforge/earley/sppf"
)

const defaultGrammar = `
TERM plus = 1 star = 2 lparen = 3 rparen = 4 number = 5 ;

Sum : Sum plus Product
    | Product
    ;
Product : Product star Factor
        | Factor
        ;
Factor : lparen Sum rparen
       | number
       ;
`

func main() {
	grammarFile := flag.String("grammar", "", "path to a grammar description file (default: a small built-in expression grammar)")
	start := flag.String("start", "Sum", "start symbol name")
	debug := flag.Int("debug", 0, "debug level passed to the parser")
	flag.Parse()

	initDisplay()

	description := defaultGrammar
	if *grammarFile != "" {
		b, err := os.ReadFile(*grammarFile)
		if err != nil {
			pterm.Error.Println(err.Error())
			os.Exit(1)
		}
		description = string(b)
	}

	gr := engine.NewGrammar("earleyrepl")
	gr.SetDebugLevel(*debug)
	if err := gr.ParseGrammarText(*start, true, description); err != nil {
		pterm.Error.Printf("grammar error: %s\n", gr.ErrorMessage())
		os.Exit(1)
	}
	pterm.Info.Println("grammar loaded, quit with <ctrl>D")

	repl, err := readline.New("earleyrepl> ")
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
	defer repl.Close()

	for {
		line, err := repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		root, err := gr.Parse(scanner.GoTokenizer("repl", strings.NewReader(line)))
		if err != nil {
			pterm.Error.Printf("%s: %s\n", line, gr.ErrorMessage())
			continue
		}
		printTree(gr.Forest(), root)
		built, used := gr.LeoStats()
		if built > 0 {
			pterm.Info.Printf("leo: %d chains built, %d used\n", built, used)
		}
	}
	println("bye")
}

func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  "  >>",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "  Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// printTree renders the parse forest reachable from root as a tree,
// following the lowest-numbered alternative at each ambiguous node and
// tagging it with its alternative count — a REPL line is meant for a
// quick look, not a full disambiguation dump.
func printTree(forest *sppf.Forest, root *sppf.SymbolNode) {
	pterm.DefaultTree.WithRoot(treeNodeFor(forest, root)).Render()
}

func treeNodeFor(forest *sppf.Forest, sn *sppf.SymbolNode) pterm.TreeNode {
	node := pterm.TreeNode{Text: nodeLabel(forest, sn)}
	if sn == nil || sn.Kind == sppf.KindTerm || sn.Kind == sppf.KindNil || sn.Kind == sppf.KindError {
		return node
	}
	var kids []*sppf.SymbolNode
	if sn.Kind == sppf.KindAnode {
		kids = sn.AnodeChildren
	} else if alts := forest.Alternatives(sn); len(alts) > 0 {
		kids = forest.Children(sn, 0)
	}
	for _, c := range kids {
		node.Children = append(node.Children, treeNodeFor(forest, c))
	}
	return node
}

func nodeLabel(forest *sppf.Forest, sn *sppf.SymbolNode) string {
	if sn == nil {
		return "nil"
	}
	switch sn.Kind {
	case sppf.KindTerm:
		return fmt.Sprintf("%s %v", sn.Symbol.Name, sn.Value)
	case sppf.KindNil:
		return sn.Symbol.Name + " (epsilon)"
	case sppf.KindError:
		return "#error"
	case sppf.KindAnode:
		return sn.AnodeName
	default:
		if n := len(forest.Alternatives(sn)); n > 1 {
			return fmt.Sprintf("%s (%d alts)", sn.Symbol.Name, n)
		}
		return sn.Symbol.Name
	}
}
