package lalr

import (
	"github.com/citrondev/citron/bitset"
	"github.com/citrondev/citron/grammar"
)

// FindRulePrecedences determines the precedence symbol of every rule.
//
// Rules with a precedence symbol coded in the input grammar using the
// "[symbol]" construct already have PrecSym set. Every other rule takes
// as its precedence symbol the first RHS symbol with a defined
// precedence. If no RHS symbol has a defined precedence, the field stays
// nil.
func FindRulePrecedences(g *grammar.Grammar) {
	for _, rp := range g.Rules {
		if rp.PrecSym != nil {
			continue
		}
		for _, sp := range rp.RHS {
			if sp.Prec >= 0 {
				rp.PrecSym = sp
				break
			}
		}
	}
}

// FindFirstSets finds all nonterminals which can generate the empty
// string, then computes the FIRST set of every nonterminal: the set of
// all terminals which can begin a string generated by that nonterminal.
// Both computations iterate over the rules until a fixed point is
// reached.
func FindFirstSets(g *grammar.Grammar) {
	for _, sp := range g.Symbols {
		sp.Lambda = false
	}
	for i := g.NTerminal; i < len(g.Symbols); i++ {
		g.Symbols[i].First = bitset.New(g.NTerminal)
	}

	// first compute all lambdas
	for progress := true; progress; {
		progress = false
		for _, rp := range g.Rules {
			if rp.LHS.Lambda {
				continue
			}
			allLambda := true
			for _, sp := range rp.RHS {
				if !sp.Lambda {
					allLambda = false
					break
				}
			}
			if allLambda {
				rp.LHS.Lambda = true
				progress = true
			}
		}
	}

	// now compute all first sets
	for progress := true; progress; {
		progress = false
		for _, rp := range g.Rules {
			s1 := rp.LHS
			for _, s2 := range rp.RHS {
				if s2.IsTerminal() {
					if s1.First.Add(s2.Index) {
						progress = true
					}
					break
				} else if s1 == s2 {
					if !s1.Lambda {
						break
					}
				} else {
					if s1.First.Union(s2.First) {
						progress = true
					}
					if !s2.Lambda {
						break
					}
				}
			}
		}
	}
}
