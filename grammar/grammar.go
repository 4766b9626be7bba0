package grammar

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/citrondev/citron/bitset"
)

// SymbolKind distinguishes terminals from nonterminals.
type SymbolKind int8

// Symbols are all either terminals or nonterminals.
const (
	Terminal SymbolKind = iota
	Nonterminal
)

// Assoc is the associativity of a terminal with a declared precedence.
type Assoc int8

// Associativity values. AssocUnknown is the state before any %left,
// %right or %nonassoc declaration names the terminal.
const (
	AssocLeft Assoc = iota
	AssocRight
	AssocNone
	AssocUnknown
)

// Symbol is a terminal or nonterminal of the grammar.
type Symbol struct {
	Name           string          // name of the symbol
	Index          int             // index number, assigned by SortSymbols
	Kind           SymbolKind      // terminal or nonterminal
	Rules          []*Rule         // rules with this symbol as LHS (nonterminals)
	Prec           int             // precedence if defined, -1 otherwise
	Assoc          Assoc           // associativity if precedence is defined
	First          *bitset.TermSet // FIRST-set over terminal indices (nonterminals)
	Lambda         bool            // true if the symbol can derive the empty string
	Destructor     string          // code run when the symbol is popped during error processing
	DestructorLine int             // line number of the destructor code
	DataType       string          // semantic value type (%type), nonterminals only
	DTNum          int             // slot number in the generated value-stack union
}

// IsTerminal returns true for terminal symbols.
func (sp *Symbol) IsTerminal() bool {
	return sp.Kind == Terminal
}

func (sp *Symbol) String() string {
	return sp.Name
}

// Rule is a single production of the grammar.
type Rule struct {
	LHS       *Symbol   // left-hand side
	LHSAlias  string    // alias for the LHS, "" if none
	RuleLine  int       // line number of the rule
	RHS       []*Symbol // right-hand side symbols
	RHSAlias  []string  // alias per RHS symbol, "" if none
	Line      int       // line number at which the action code begins
	Code      string    // action code executed when the rule is reduced
	PrecSym   *Symbol   // precedence symbol for this rule
	Index     int       // dense index, in declaration order
	CanReduce bool      // true if this rule is ever reduced
}

func (rp *Rule) String() string {
	var b strings.Builder
	b.WriteString(rp.LHS.Name)
	b.WriteString(" ::=")
	for _, sp := range rp.RHS {
		b.WriteString(" ")
		b.WriteString(sp.Name)
	}
	return b.String()
}

// Grammar is the state vector for one parser-generator run: the symbol
// table, the rules, the code fragments from the declarations, and the
// error count. It is created by NewGrammar and threaded explicitly
// through every phase of the pipeline.
type Grammar struct {
	Filename string // name of the input file
	Basename string // basename of the input file, no directory

	Name        string // name of the generated parser
	Arg         string // declaration of the extra argument to the parser
	TokenType   string // type of terminal symbols in the parser stack
	Start       string // name of the start symbol, "" for first rule's LHS
	StackSize   string // size of the parser stack
	TokenPrefix string // prefix added to token names in the header

	Include         string // code at the start of the generated file
	IncludeLine     int
	SyntaxError     string // code executed when a syntax error is seen
	SyntaxErrorLine int
	Overflow        string // code executed on a stack overflow
	OverflowLine    int
	Failure         string // code executed on parser failure
	FailureLine     int
	Accept          string // code executed when the parser accepts
	AcceptLine      int
	ExtraCode       string // code appended to the generated file
	ExtraCodeLine   int
	TokenDest       string // code executed to destroy token data
	TokenDestLine   int

	Rules      []*Rule   // all rules, in declaration order
	Symbols    []*Symbol // sorted array of symbols, valid after SortSymbols
	NSymbol    int       // number of symbols, excluding the {default} sentinel
	NTerminal  int       // number of terminal symbols
	ErrSym     *Symbol   // the "error" symbol
	DefaultSym *Symbol   // the "{default}" sentinel, valid after SortSymbols

	ErrorCount int // number of errors reported so far
	TableSize  int // number of packed action table entries, set by the emitter

	symtab map[string]*Symbol
	order  []*Symbol // symbols in order of first appearance
}

// NewGrammar creates an empty grammar for the given input file. The
// end-of-input sentinel "$" and the "error" symbol always exist.
func NewGrammar(filename string) *Grammar {
	g := &Grammar{
		Filename: filename,
		Basename: filepath.Base(filename),
		symtab:   make(map[string]*Symbol),
	}
	g.Symbol("$")
	g.ErrSym = g.Symbol("error")
	return g
}

// Symbol returns the symbol with the given name, creating it on first
// use. The kind of a new symbol is derived from its first character:
// uppercase names are terminals, all others nonterminals.
func (g *Grammar) Symbol(name string) *Symbol {
	if sp, ok := g.symtab[name]; ok {
		return sp
	}
	sp := &Symbol{
		Name:  name,
		Kind:  Nonterminal,
		Prec:  -1,
		Assoc: AssocUnknown,
	}
	if isUpper(name[0]) {
		sp.Kind = Terminal
	}
	g.symtab[name] = sp
	g.order = append(g.order, sp)
	return sp
}

// Lookup returns the symbol with the given name, or nil if it has never
// been seen.
func (g *Grammar) Lookup(name string) *Symbol {
	return g.symtab[name]
}

// StartSymbol resolves the start symbol of the grammar: the symbol named
// by %start_symbol if that names a known symbol, the LHS of the first
// rule otherwise.
func (g *Grammar) StartSymbol() *Symbol {
	if g.Start != "" {
		if sp := g.Lookup(g.Start); sp != nil {
			return sp
		}
	}
	return g.Rules[0].LHS
}

// SortSymbols freezes the symbol table. The {default} sentinel is
// appended, all symbols are sorted by name and indexed densely, and the
// terminal count is determined. Since "$" sorts before every identifier
// and "{default}" after, the sentinel ends up last and terminals form a
// prefix of the index space starting at 1.
func (g *Grammar) SortSymbols() {
	g.NSymbol = len(g.order)
	g.DefaultSym = g.Symbol("{default}")
	g.Symbols = append([]*Symbol(nil), g.order...)
	sort.Slice(g.Symbols, func(i, j int) bool {
		return g.Symbols[i].Name < g.Symbols[j].Name
	})
	for i, sp := range g.Symbols {
		sp.Index = i
	}
	i := 1
	for i < len(g.Symbols) && isUpper(g.Symbols[i].Name[0]) {
		i++
	}
	g.NTerminal = i
	tracer().Debugf("%d symbols, %d terminals", g.NSymbol, g.NTerminal)
}

// Dump is a debugging helper listing all symbols and rules.
func (g *Grammar) Dump() {
	for i, sp := range g.Symbols {
		tracer().Debugf("%3d: %s", i, sp.Name)
	}
	for _, rp := range g.Rules {
		tracer().Debugf("%d: %v", rp.Index, rp)
	}
}

func (g *Grammar) String() string {
	return fmt.Sprintf("(grammar %q | %d rules)", g.Basename, len(g.Rules))
}
