package lalr

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"

	"github.com/citrondev/citron/grammar"
)

func buildGrammar(t *testing.T, src string) *grammar.Grammar {
	t.Helper()
	name := filepath.Join(t.TempDir(), "test.y")
	if err := os.WriteFile(name, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	g := grammar.NewGrammar(name)
	g.ParseFile()
	if g.ErrorCount != 0 {
		t.Fatalf("grammar has %d parse errors", g.ErrorCount)
	}
	g.SortSymbols()
	return g
}

func buildAutomaton(t *testing.T, src string) *Automaton {
	t.Helper()
	g := buildGrammar(t, src)
	aut := NewAutomaton(g)
	aut.CreateTables()
	return aut
}

func TestTrivialAccept(t *testing.T) {
	gtrace.SyntaxTracer = gotestingadapter.New()
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	aut := buildAutomaton(t, "%token_prefix T_\nstart ::= A .\n")
	g := aut.G
	assert.Zero(t, g.ErrorCount)
	assert.Zero(t, aut.NConflict)
	assert.Equal(t, 2, aut.NState)
	assert.Equal(t, 1, len(g.Rules))

	// the start state accepts on the start nonterminal
	foundAccept := false
	aut.Sorted[0].Actions.Each(func(ap *Action) {
		if ap.Kind == Accept {
			foundAccept = true
			assert.Equal(t, "start", ap.Symbol.Name)
		}
	})
	assert.True(t, foundAccept)
}

func TestLambdaAndFirst(t *testing.T) {
	// a derives epsilon, so does b; FIRST(b) stays empty
	g := buildGrammar(t, "a ::= .\nb ::= a a .\n")
	FindRulePrecedences(g)
	FindFirstSets(g)
	a := g.Lookup("a")
	b := g.Lookup("b")
	assert.True(t, a.Lambda)
	assert.True(t, b.Lambda)
	assert.Zero(t, b.First.Len())
}

func TestFirstSets(t *testing.T) {
	g := buildGrammar(t, `
s ::= a X .
a ::= B c .
a ::= .
c ::= C .
`)
	FindRulePrecedences(g)
	FindFirstSets(g)
	s := g.Lookup("s")
	a := g.Lookup("a")
	assert.True(t, a.Lambda)
	assert.False(t, s.Lambda)
	assert.True(t, a.First.Has(g.Lookup("B").Index))
	// a is nullable, so FIRST(s) includes both B and X
	assert.True(t, s.First.Has(g.Lookup("B").Index))
	assert.True(t, s.First.Has(g.Lookup("X").Index))
	assert.False(t, s.First.Has(g.Lookup("C").Index))
}

const exprGrammar = `
%left PLUS .
prog ::= e .
e ::= e PLUS e .
e ::= INT .
`

func TestPrecedenceResolvesShiftReduce(t *testing.T) {
	aut := buildAutomaton(t, exprGrammar)
	assert.Zero(t, aut.NConflict)

	// find the state holding the completed rule "e ::= e PLUS e ."
	var conflicted *State
	for _, stp := range aut.Sorted {
		for _, cfp := range stp.Configs {
			if cfp.Rule.Index == 1 && cfp.Dot == 3 {
				conflicted = stp
			}
		}
	}
	if conflicted == nil {
		t.Fatal("state with completed rule not found")
	}
	// on PLUS, left associativity keeps the reduce and drops the shift
	var sawResolvedShift, sawReduce bool
	conflicted.Actions.Each(func(ap *Action) {
		if ap.Symbol.Name != "PLUS" {
			return
		}
		switch ap.Kind {
		case ShResolved:
			sawResolvedShift = true
		case Reduce:
			sawReduce = true
		}
	})
	assert.True(t, sawResolvedShift, "shift should be resolved away")
	assert.True(t, sawReduce, "reduce should survive")
}

func TestUnresolvedConflict(t *testing.T) {
	aut := buildAutomaton(t, `
prog ::= e .
e ::= e PLUS e .
e ::= INT .
`)
	assert.GreaterOrEqual(t, aut.NConflict, 1)
	found := false
	for _, stp := range aut.Sorted {
		stp.Actions.Each(func(ap *Action) {
			if ap.Kind == Conflict {
				found = true
			}
		})
	}
	assert.True(t, found, "an action should be marked as conflict")
}

func TestRuleCannotBeReduced(t *testing.T) {
	g := buildGrammar(t, "prog ::= A .\nx ::= Y .\n")
	aut := NewAutomaton(g)
	aut.CreateTables()
	assert.Equal(t, 1, g.ErrorCount, "unreachable rule must be reported")
	assert.False(t, g.Rules[1].CanReduce)
	assert.True(t, g.Rules[0].CanReduce)
}

func TestStartSymbolOnRHS(t *testing.T) {
	g := buildGrammar(t, "%start_symbol s\ns ::= s A .\ns ::= B .\n")
	aut := NewAutomaton(g)
	aut.CreateTables()
	assert.GreaterOrEqual(t, g.ErrorCount, 1)
}

func TestStateCanonicalization(t *testing.T) {
	aut := buildAutomaton(t, exprGrammar)
	seen := make(map[string]int)
	for _, stp := range aut.Sorted {
		key := basisKey(stp.Basis)
		if other, ok := seen[key]; ok {
			t.Errorf("states %d and %d share a basis", other, stp.Index)
		}
		seen[key] = stp.Index
	}
	assert.Equal(t, aut.NState, len(aut.Sorted))
}

func TestClosureSoundness(t *testing.T) {
	aut := buildAutomaton(t, exprGrammar)
	for _, stp := range aut.Sorted {
		have := make(map[confKey]bool)
		for _, cfp := range stp.Configs {
			have[confKey{cfp.Rule.Index, cfp.Dot}] = true
		}
		for _, cfp := range stp.Configs {
			sp := cfp.PeekSymbol()
			if sp == nil || sp.IsTerminal() {
				continue
			}
			for _, rp := range sp.Rules {
				if !have[confKey{rp.Index, 0}] {
					t.Errorf("state %d: missing closure item for rule %d", stp.Index, rp.Index)
				}
			}
		}
	}
}

func TestFollowSetFixedPoint(t *testing.T) {
	aut := buildAutomaton(t, exprGrammar)
	for _, stp := range aut.Sorted {
		for _, cfp := range stp.Configs {
			for _, target := range cfp.Fplp {
				for _, e := range cfp.Fws.AppendTo(nil) {
					assert.True(t, target.Fws.Has(e),
						"follow(%v) not propagated to %v", cfp, target)
				}
			}
		}
	}
}

func TestCompressTables(t *testing.T) {
	aut := buildAutomaton(t, exprGrammar)
	aut.CompressTables()
	// a state reducing by the same rule on every lookahead collapses
	// onto a {default} action
	foundDefault := false
	for _, stp := range aut.Sorted {
		var def, unused int
		stp.Actions.Each(func(ap *Action) {
			if ap.Symbol == aut.G.DefaultSym {
				def++
			}
			if ap.Kind == NotUsed {
				unused++
			}
		})
		if def > 0 {
			foundDefault = true
			assert.GreaterOrEqual(t, unused, 1)
		}
	}
	assert.True(t, foundDefault, "compression should produce a default action")
}

func TestActionTableAsText(t *testing.T) {
	aut := buildAutomaton(t, exprGrammar)
	var buf bytes.Buffer
	aut.ActionTableAsText(&buf)
	out := buf.String()
	assert.Contains(t, out, "state")
	assert.Contains(t, out, "acc")
	assert.Contains(t, out, "INT")
}

func TestNonterminalWithoutRules(t *testing.T) {
	g := buildGrammar(t, "prog ::= thing .\n")
	aut := NewAutomaton(g)
	aut.CreateTables()
	assert.GreaterOrEqual(t, g.ErrorCount, 1, "nonterminal without rules must be reported")
}
