package lalr

import (
	"fmt"
	"sort"

	"github.com/cnf/structhash"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"

	"github.com/citrondev/citron/bitset"
	"github.com/citrondev/citron/grammar"
)

// Config is a configuration: a production rule together with a mark
// (dot) showing how much of the rule has been processed so far.
// Configurations also carry a follow set, the set of terminals allowed
// to immediately follow the end of the rule, and the propagation links
// through which follow sets flow between configurations.
type Config struct {
	Rule     *grammar.Rule   // the rule upon which the configuration is based
	Dot      int             // the parse point
	Fws      *bitset.TermSet // follow set for this configuration only
	Fplp     []*Config       // follow-set forward propagation links
	Bplp     []*Config       // follow-set backward propagation links
	State    *State          // the state which contains this configuration
	complete bool            // used during follow-set and shift computations
}

// PeekSymbol returns the symbol after the dot, or nil if the dot is at
// the end of the rule.
func (cfp *Config) PeekSymbol() *grammar.Symbol {
	if cfp.Dot >= len(cfp.Rule.RHS) {
		return nil
	}
	return cfp.Rule.RHS[cfp.Dot]
}

func (cfp *Config) String() string {
	return fmt.Sprintf("%s @%d", cfp.Rule, cfp.Dot)
}

// State is a state of the generated parser's finite state machine. Two
// states never share a sorted basis; getState collapses a duplicate
// basis onto the preexisting state.
type State struct {
	Basis         []*Config // the basis configurations for this state
	Configs       []*Config // all configurations in this set
	Index         int       // sequential number for this state
	Actions       *ActionList
	NAction       int // number of live actions, set by the emitter
	TabStart      int // first index of this state in the packed action table
	DefaultAction int // encoded default action for this state
}

func (stp *State) String() string {
	return fmt.Sprintf("(state %d | [%d])", stp.Index, len(stp.Configs))
}

// stateComparator sorts states by their serial index.
func stateComparator(a, b interface{}) int {
	s1 := a.(*State)
	s2 := b.(*State)
	return utils.IntComparator(s1.Index, s2.Index)
}

// Automaton is the LALR(1) state machine under construction for a
// grammar, plus the bookkeeping of one construction run.
type Automaton struct {
	G         *grammar.Grammar
	Sorted    []*State // states ordered by index
	NState    int
	NConflict int // number of unresolved parsing conflicts

	states   *treeset.Set      // all the states
	stateTab map[string]*State // canonical states, keyed by hashed basis

	// configuration-list builder, reset per construction cycle
	current []*Config
	basis   []*Config
	confTab map[confKey]*Config
}

type confKey struct {
	rule, dot int
}

// NewAutomaton creates an empty automaton for grammar g.
func NewAutomaton(g *grammar.Grammar) *Automaton {
	return &Automaton{
		G:        g,
		states:   treeset.NewWith(stateComparator),
		stateTab: make(map[string]*State),
	}
}

// reset discards the configuration list under construction and clears
// the per-cycle deduplication table.
func (aut *Automaton) reset() {
	aut.current = nil
	aut.basis = nil
	aut.confTab = make(map[confKey]*Config)
}

// add appends a configuration for (rp, dot) to the configuration list
// under construction, deduplicating against the current cycle.
func (aut *Automaton) add(rp *grammar.Rule, dot int) *Config {
	key := confKey{rp.Index, dot}
	if cfp, ok := aut.confTab[key]; ok {
		return cfp
	}
	cfp := &Config{
		Rule: rp,
		Dot:  dot,
		Fws:  bitset.New(aut.G.NTerminal),
	}
	aut.current = append(aut.current, cfp)
	aut.confTab[key] = cfp
	return cfp
}

// addBasis appends a basis configuration to both the configuration list
// and the basis list under construction.
func (aut *Automaton) addBasis(rp *grammar.Rule, dot int) *Config {
	key := confKey{rp.Index, dot}
	if cfp, ok := aut.confTab[key]; ok {
		return cfp
	}
	cfp := &Config{
		Rule: rp,
		Dot:  dot,
		Fws:  bitset.New(aut.G.NTerminal),
	}
	aut.current = append(aut.current, cfp)
	aut.basis = append(aut.basis, cfp)
	aut.confTab[key] = cfp
	return cfp
}

// sortConfigs orders a configuration list by (rule index, dot).
func sortConfigs(cfgs []*Config) {
	sort.Slice(cfgs, func(i, j int) bool {
		if cfgs[i].Rule.Index != cfgs[j].Rule.Index {
			return cfgs[i].Rule.Index < cfgs[j].Rule.Index
		}
		return cfgs[i].Dot < cfgs[j].Dot
	})
}

// basisKey hashes the sorted basis of a state. Two states are the same
// state exactly if their sorted (rule, dot) sequences coincide.
func basisKey(basis []*Config) string {
	type ruledot struct {
		R, D int
	}
	key := make([]ruledot, len(basis))
	for i, cfp := range basis {
		key[i] = ruledot{cfp.Rule.Index, cfp.Dot}
	}
	h, err := structhash.Hash(struct{ Basis []ruledot }{key}, 1)
	if err != nil { // no reason for this to happen, but the API demands it
		panic(err)
	}
	return h
}

// FindStates computes all LR(0) states for the grammar. Propagation
// links are recorded between configurations so that the LALR(1) follow
// sets can be computed later.
func (aut *Automaton) FindStates() {
	g := aut.G
	aut.reset()

	if g.Start != "" && g.Lookup(g.Start) == nil {
		grammar.ErrorMsg(g.Filename, 0,
			"The specified start symbol \"%s\" is not in a nonterminal of "+
				"the grammar.  \"%s\" will be used as the start symbol instead.",
			g.Start, g.Rules[0].LHS.Name)
		g.ErrorCount++
	}
	sp := g.StartSymbol()

	// Make sure the start symbol doesn't occur on the right-hand side of
	// any rule. Report an error if it does.
	for _, rp := range g.Rules {
		for _, rsp := range rp.RHS {
			if rsp == sp {
				grammar.ErrorMsg(g.Filename, 0,
					"The start symbol \"%s\" occurs on the right-hand side of "+
						"a rule. This will result in a parser which does not "+
						"work properly.", sp.Name)
				g.ErrorCount++
			}
		}
	}

	// The basis configuration set for the first state is all rules which
	// have the start symbol as their left-hand side, with the follow set
	// preseeded with end-of-input.
	for _, rp := range sp.Rules {
		cfp := aut.addBasis(rp, 0)
		cfp.Fws.Add(0)
	}

	// Computing the first state computes all other states recursively.
	aut.getState()
	aut.Sorted = make([]*State, 0, aut.states.Size())
	it := aut.states.Iterator()
	for it.Next() {
		aut.Sorted = append(aut.Sorted, it.Value().(*State))
	}
}

// getState returns the state described by the configuration list built
// from prior calls to add/addBasis. If a state with the same basis
// already exists, the follow-set propagation links of the construction
// in progress are transferred onto the preexisting state and that state
// is returned. Otherwise the closure is computed and successor states
// are built recursively.
func (aut *Automaton) getState() *State {
	sortConfigs(aut.basis)
	bp := aut.basis
	key := basisKey(bp)

	if stp, ok := aut.stateTab[key]; ok {
		// A state with the same basis already exists. Copy the backward
		// propagation links into the preexisting basis and discard the
		// configurations under construction.
		for i, x := range bp {
			y := stp.Basis[i]
			y.Bplp = append(y.Bplp, x.Bplp...)
			x.Fplp = nil
			x.Bplp = nil
		}
		aut.current = nil
		aut.basis = nil
		return stp
	}

	aut.closure()
	sortConfigs(aut.current)
	stp := &State{
		Basis:   bp,
		Configs: aut.current,
		Index:   aut.NState,
		Actions: newActionList(),
	}
	aut.NState++
	aut.current = nil
	aut.basis = nil
	aut.stateTab[key] = stp
	aut.states.Add(stp)
	aut.buildShifts(stp)
	return stp
}

// closure computes the closure of the configuration list under
// construction. For a configuration "A -> alpha . B beta" every rule
// "B -> gamma" contributes "B -> . gamma", with a follow set seeded from
// FIRST(beta) up to the first symbol of beta that cannot derive the empty
// string; if all of beta can derive the empty string, a forward
// propagation link to the new configuration is recorded as well.
func (aut *Automaton) closure() {
	g := aut.G
	for i := 0; i < len(aut.current); i++ { // list grows while we iterate
		cfp := aut.current[i]
		rp := cfp.Rule
		dot := cfp.Dot
		if dot >= len(rp.RHS) {
			continue
		}
		sp := rp.RHS[dot]
		if sp.IsTerminal() {
			continue
		}
		if len(sp.Rules) == 0 && sp != g.ErrSym {
			grammar.ErrorMsg(g.Filename, rp.Line,
				"Nonterminal \"%s\" has no rules.", sp.Name)
			g.ErrorCount++
		}
		for _, newrp := range sp.Rules {
			newcfp := aut.add(newrp, 0)
			var k int
			for k = dot + 1; k < len(rp.RHS); k++ {
				xsp := rp.RHS[k]
				if xsp.IsTerminal() {
					newcfp.Fws.Add(xsp.Index)
					break
				}
				newcfp.Fws.Union(xsp.First)
				if !xsp.Lambda {
					break
				}
			}
			if k == len(rp.RHS) {
				cfp.Fplp = append(cfp.Fplp, newcfp)
			}
		}
	}
}

// buildShifts constructs all successor states of stp: any state which
// can be reached by a shift action.
func (aut *Automaton) buildShifts(stp *State) {
	// Each configuration becomes complete after it contributes to a
	// successor state.
	for _, cfp := range stp.Configs {
		cfp.complete = false
	}

	for i, cfp := range stp.Configs {
		if cfp.complete {
			continue
		}
		if cfp.Dot >= len(cfp.Rule.RHS) {
			continue
		}
		aut.reset()
		sp := cfp.Rule.RHS[cfp.Dot] // symbol after the dot

		// Every configuration of stp with the same symbol after its dot
		// contributes a basis configuration with the dot advanced, and a
		// backward propagation link to its parent.
		for _, bcfp := range stp.Configs[i:] {
			if bcfp.complete {
				continue
			}
			if bcfp.Dot >= len(bcfp.Rule.RHS) {
				continue
			}
			if bcfp.Rule.RHS[bcfp.Dot] != sp {
				continue
			}
			bcfp.complete = true
			newcfp := aut.addBasis(bcfp.Rule, bcfp.Dot+1)
			newcfp.Bplp = append(newcfp.Bplp, bcfp)
		}

		newstp := aut.getState()
		addAction(stp, Shift, sp, newstp, nil)
	}
}
