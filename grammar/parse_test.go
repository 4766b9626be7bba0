package grammar

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
)

func writeGrammar(t *testing.T, src string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "test.y")
	if err := os.WriteFile(name, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return name
}

func parseGrammar(t *testing.T, src string) *Grammar {
	t.Helper()
	g := NewGrammar(writeGrammar(t, src))
	g.ParseFile()
	return g
}

func TestParseSimpleRule(t *testing.T) {
	gtrace.SyntaxTracer = gotestingadapter.New()
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	g := parseGrammar(t, "start ::= A .\n")
	if g.ErrorCount != 0 {
		t.Errorf("expected no errors, got %d", g.ErrorCount)
	}
	if len(g.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(g.Rules))
	}
	rp := g.Rules[0]
	assert.Equal(t, "start", rp.LHS.Name)
	assert.Equal(t, 1, len(rp.RHS))
	assert.Equal(t, "A", rp.RHS[0].Name)
	assert.Equal(t, Terminal, rp.RHS[0].Kind)
	assert.Equal(t, Nonterminal, rp.LHS.Kind)
}

func TestParsePrecedenceDeclarations(t *testing.T) {
	g := parseGrammar(t, `
%left PLUS MINUS .
%left TIMES .
%right POW .
%nonassoc EQ .
e ::= e PLUS e .
`)
	assert.Zero(t, g.ErrorCount)
	plus := g.Lookup("PLUS")
	times := g.Lookup("TIMES")
	pow := g.Lookup("POW")
	eq := g.Lookup("EQ")
	assert.Equal(t, 1, plus.Prec)
	assert.Equal(t, AssocLeft, plus.Assoc)
	assert.Equal(t, 1, g.Lookup("MINUS").Prec)
	assert.Equal(t, 2, times.Prec)
	assert.Equal(t, 3, pow.Prec)
	assert.Equal(t, AssocRight, pow.Assoc)
	assert.Equal(t, 4, eq.Prec)
	assert.Equal(t, AssocNone, eq.Assoc)
}

func TestParseDuplicatePrecedence(t *testing.T) {
	var buf bytes.Buffer
	errOut = &buf
	defer func() { errOut = os.Stderr }()
	g := parseGrammar(t, "%left PLUS .\n%right PLUS .\ne ::= e PLUS e .\n")
	assert.Equal(t, 1, g.ErrorCount)
	assert.Contains(t, buf.String(), "already be given a precedence")
	// the original assignment survives
	assert.Equal(t, AssocLeft, g.Lookup("PLUS").Assoc)
}

func TestParseDeclarations(t *testing.T) {
	g := parseGrammar(t, `
%name Calc
%token_prefix TK_
%token_type {Token*}
%extra_argument {Ctx *ctx}
%stack_size 500
%start_symbol prog
%include { #include "calc.h" }
%code { /* trailer */ }
%type e {int}
%destructor e { free_e($$); }
prog ::= e .
e ::= INT .
`)
	assert.Zero(t, g.ErrorCount)
	assert.Equal(t, "Calc", g.Name)
	assert.Equal(t, "TK_", g.TokenPrefix)
	assert.Equal(t, "Token*", strings.TrimSpace(g.TokenType))
	assert.Equal(t, "Ctx *ctx", strings.TrimSpace(g.Arg))
	assert.Equal(t, "500", g.StackSize)
	assert.Equal(t, "prog", g.Start)
	assert.Contains(t, g.Include, "#include \"calc.h\"")
	assert.Contains(t, g.ExtraCode, "trailer")
	e := g.Lookup("e")
	assert.Equal(t, "int", strings.TrimSpace(e.DataType))
	assert.Contains(t, e.Destructor, "free_e($$)")
}

func TestParseRuleCodeAndAliases(t *testing.T) {
	g := parseGrammar(t, `
e(A) ::= e(B) PLUS e(C) . { A = B + C; }
e ::= INT .
`)
	assert.Zero(t, g.ErrorCount)
	rp := g.Rules[0]
	assert.Equal(t, "A", rp.LHSAlias)
	assert.Equal(t, []string{"B", "", "C"}, rp.RHSAlias)
	assert.Contains(t, rp.Code, "A = B + C;")
}

func TestParseCodeWithoutRule(t *testing.T) {
	var buf bytes.Buffer
	errOut = &buf
	defer func() { errOut = os.Stderr }()
	g := parseGrammar(t, "{ orphan(); }\ne ::= INT .\n")
	assert.Equal(t, 1, g.ErrorCount)
	assert.Contains(t, buf.String(), "code")
	assert.Len(t, g.Rules, 1)
}

func TestParseResyncAfterError(t *testing.T) {
	errOut = os.Stderr
	// bad token in rule position, then a good rule; the scanner resyncs
	// at the dot and the second rule survives
	g := parseGrammar(t, "e ::= ? INT .\ne ::= INT .\n")
	assert.Equal(t, 1, g.ErrorCount)
	assert.Len(t, g.Rules, 1)
}

func TestParseUnknownDeclaration(t *testing.T) {
	var buf bytes.Buffer
	errOut = &buf
	defer func() { errOut = os.Stderr }()
	g := parseGrammar(t, "%bogus thing\ne ::= INT .\n")
	assert.Equal(t, 1, g.ErrorCount)
	assert.Contains(t, buf.String(), "Unknown declaration keyword")
	assert.Len(t, g.Rules, 1)
}

func TestParseComments(t *testing.T) {
	g := parseGrammar(t, `
// line comment
/* block
   comment */
e ::= INT . // trailing
`)
	assert.Zero(t, g.ErrorCount)
	assert.Len(t, g.Rules, 1)
}

func TestParsePrecedenceMark(t *testing.T) {
	g := parseGrammar(t, "%left PLUS .\ne ::= MINUS e . [PLUS]\n")
	assert.Zero(t, g.ErrorCount)
	assert.Equal(t, "PLUS", g.Rules[0].PrecSym.Name)
}

func TestSortSymbols(t *testing.T) {
	g := parseGrammar(t, "start ::= A zz B .\nzz ::= C .\n")
	g.SortSymbols()
	// "$" is index 0, terminals form a prefix, names are sorted
	assert.Equal(t, "$", g.Symbols[0].Name)
	names := make([]string, len(g.Symbols))
	for i, sp := range g.Symbols {
		assert.Equal(t, i, sp.Index)
		names[i] = sp.Name
	}
	assert.True(t, sort.StringsAreSorted(names))
	for i := 1; i < g.NTerminal; i++ {
		assert.Equal(t, Terminal, g.Symbols[i].Kind)
	}
	for i := g.NTerminal; i < g.NSymbol; i++ {
		assert.NotEqual(t, Terminal, g.Symbols[i].Kind)
	}
	assert.Equal(t, "{default}", g.Symbols[len(g.Symbols)-1].Name)
}

func TestReprintRoundTrip(t *testing.T) {
	src := `
%left PLUS MINUS .
%left TIMES .
prog ::= e .
e ::= e PLUS e .
e ::= e TIMES e . [PLUS]
e ::= INT .
`
	g := parseGrammar(t, src)
	assert.Zero(t, g.ErrorCount)
	g.SortSymbols()

	var buf bytes.Buffer
	g.Reprint(&buf)

	g2 := parseGrammar(t, buf.String())
	assert.Zero(t, g2.ErrorCount)
	if assert.Equal(t, len(g.Rules), len(g2.Rules)) {
		for i := range g.Rules {
			assert.Equal(t, g.Rules[i].String(), g2.Rules[i].String())
			if g.Rules[i].PrecSym != nil {
				assert.Equal(t, g.Rules[i].PrecSym.Name, g2.Rules[i].PrecSym.Name)
			}
		}
	}
	for _, name := range []string{"PLUS", "MINUS", "TIMES"} {
		assert.Equal(t, g.Lookup(name).Prec, g2.Lookup(name).Prec, name)
		assert.Equal(t, g.Lookup(name).Assoc, g2.Lookup(name).Assoc, name)
	}
}

func TestErrorMsgWrapping(t *testing.T) {
	var buf bytes.Buffer
	errOut = &buf
	defer func() { errOut = os.Stderr }()
	long := strings.Repeat("word ", 40)
	ErrorMsg("test.y", 3, "%s", long)
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		assert.LessOrEqual(t, len(line), 79)
		assert.True(t, strings.HasPrefix(line, "test.y:3: "))
	}
}

func TestErrorMsgNoLine(t *testing.T) {
	var buf bytes.Buffer
	errOut = &buf
	defer func() { errOut = os.Stderr }()
	ErrorMsg("test.y", 0, "Can't open this file for reading.")
	assert.Equal(t, "test.y: Can't open this file for reading.\n", buf.String())
}
