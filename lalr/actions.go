package lalr

import (
	"github.com/emirpasic/gods/lists/arraylist"

	"github.com/citrondev/citron/grammar"
)

// ActionKind is the kind of a parser action.
type ActionKind int8

// Every shift or reduce operation is one of the following. The numeric
// order matters: actions of a state are sorted by (lookahead, kind) and
// conflict resolution walks adjacent entries.
const (
	Shift ActionKind = iota
	Accept
	Reduce
	Error
	Conflict   // was a reduce, but part of an unresolved conflict
	ShResolved // was a shift; precedence resolved the conflict
	RdResolved // was a reduce; precedence resolved the conflict
	NotUsed    // deleted by compression
)

// Action is a single shift or reduce operation of a state, keyed by a
// lookahead symbol. Shift and Accept carry a target state, the reduce
// kinds carry a rule.
type Action struct {
	Symbol *grammar.Symbol // the lookahead symbol
	Kind   ActionKind
	State  *State        // the new state, if a shift
	Rule   *grammar.Rule // the rule, if a reduce
}

// ActionList is the ordered list of actions of one state.
type ActionList struct {
	list *arraylist.List
}

func newActionList() *ActionList {
	return &ActionList{list: arraylist.New()}
}

// Each calls f for every action in list order.
func (al *ActionList) Each(f func(ap *Action)) {
	if al == nil {
		return
	}
	it := al.list.Iterator()
	for it.Next() {
		f(it.Value().(*Action))
	}
}

// Size returns the number of actions, including resolved and unused
// entries.
func (al *ActionList) Size() int {
	if al == nil {
		return 0
	}
	return al.list.Size()
}

// actionComparator orders actions by lookahead index, then kind, then
// rule index. The {default} sentinel has the highest symbol index and
// therefore sorts last.
func actionComparator(a, b interface{}) int {
	ap1 := a.(*Action)
	ap2 := b.(*Action)
	rc := ap1.Symbol.Index - ap2.Symbol.Index
	if rc == 0 {
		rc = int(ap1.Kind) - int(ap2.Kind)
	}
	if rc == 0 && ap1.Rule != nil && ap2.Rule != nil {
		rc = ap1.Rule.Index - ap2.Rule.Index
	}
	return rc
}

// sort orders the action list with the action comparator.
func (al *ActionList) sort() {
	al.list.Sort(actionComparator)
}

// addAction appends an action to the state's action list.
func addAction(stp *State, kind ActionKind, sp *grammar.Symbol, target *State, rp *grammar.Rule) {
	if stp.Actions == nil {
		stp.Actions = newActionList()
	}
	stp.Actions.list.Add(&Action{
		Symbol: sp,
		Kind:   kind,
		State:  target,
		Rule:   rp,
	})
}

// FindActions computes the reduce actions and resolves conflicts.
//
// A reduce action is added for each element of the follow set of a
// configuration which has its dot at the extreme right. The start state
// additionally accepts on the start nonterminal. Actions of each state
// are then sorted and adjacent entries with the same lookahead are
// resolved against each other; unresolved conflicts are counted.
func (aut *Automaton) FindActions() {
	g := aut.G

	for _, stp := range aut.Sorted {
		for _, cfp := range stp.Configs {
			if len(cfp.Rule.RHS) != cfp.Dot {
				continue
			}
			for j := 0; j < g.NTerminal; j++ {
				if cfp.Fws.Has(j) {
					// reduce by cfp.Rule if the lookahead is symbol j
					addAction(stp, Reduce, g.Symbols[j], nil, cfp.Rule)
				}
			}
		}
	}

	// Add to the start state an action to accept if the lookahead is the
	// start nonterminal.
	sp := g.StartSymbol()
	addAction(aut.Sorted[0], Accept, sp, nil, nil)

	// resolve conflicts
	for _, stp := range aut.Sorted {
		stp.Actions.sort()
		actions := stp.Actions.list
		i := 0
		for i < actions.Size() {
			v1, _ := actions.Get(i)
			ap := v1.(*Action)
			j := i + 1
			for j < actions.Size() {
				v2, _ := actions.Get(j)
				nap := v2.(*Action)
				if nap.Symbol != ap.Symbol {
					break
				}
				// The two actions ap and nap have the same lookahead.
				// Figure out which one should be used.
				aut.NConflict += resolveConflict(ap, nap)
				j++
			}
			i = j
		}
	}

	// Report an error for each rule that can never be reduced.
	for _, rp := range g.Rules {
		rp.CanReduce = false
	}
	for _, stp := range aut.Sorted {
		stp.Actions.Each(func(ap *Action) {
			if ap.Kind == Reduce {
				ap.Rule.CanReduce = true
			}
		})
	}
	for _, rp := range g.Rules {
		if rp.CanReduce {
			continue
		}
		grammar.ErrorMsg(g.Filename, rp.RuleLine, "This rule can not be reduced.\n")
		g.ErrorCount++
	}
}

// resolveConflict resolves a conflict between two actions on the same
// lookahead. It returns the number of unresolved conflicts (0 or 1).
//
// If either action is a shift, it must be apx: shifts sort before
// reduces, so this function is never called with apx a reduce and apy a
// shift. Two shifts on the same lookahead cannot occur, since successor
// construction produces exactly one shift per symbol.
func resolveConflict(apx, apy *Action) int {
	errcnt := 0
	switch {
	case apx.Kind == Shift && apy.Kind == Reduce:
		spx := apx.Symbol
		spy := apy.Rule.PrecSym
		if spy == nil || spx.Prec < 0 || spy.Prec < 0 {
			// not enough precedence information
			apy.Kind = Conflict
			errcnt++
		} else if spx.Prec > spy.Prec { // higher precedence wins
			apy.Kind = RdResolved
		} else if spx.Prec < spy.Prec {
			apx.Kind = ShResolved
		} else if spx.Assoc == grammar.AssocRight { // use associativity
			apy.Kind = RdResolved // to break the tie
		} else if spx.Assoc == grammar.AssocLeft {
			apx.Kind = ShResolved
		} else {
			apy.Kind = Conflict
			errcnt++
		}
	case apx.Kind == Reduce && apy.Kind == Reduce:
		spx := apx.Rule.PrecSym
		spy := apy.Rule.PrecSym
		if spx == nil || spy == nil || spx.Prec < 0 || spy.Prec < 0 ||
			spx.Prec == spy.Prec {
			apy.Kind = Conflict
			errcnt++
		} else if spx.Prec > spy.Prec {
			apy.Kind = RdResolved
		} else if spx.Prec < spy.Prec {
			apx.Kind = RdResolved
		}
	}
	return errcnt
}
