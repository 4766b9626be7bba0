package lalr

import (
	"io"
	"strconv"

	"github.com/dekarrin/rosed"
)

// CreateTables runs the complete construction for the automaton's
// grammar: rule precedences, lambda and FIRST analysis, LR(0) states,
// follow-set propagation, and action building with conflict resolution.
// Compression is left to the caller, since it is optional.
func (aut *Automaton) CreateTables() {
	FindRulePrecedences(aut.G)
	FindFirstSets(aut.G)
	aut.FindStates()
	aut.FindLinks()
	aut.FindFollowSets()
	aut.FindActions()
	tracer().Infof("%d states, %d conflicts", aut.NState, aut.NConflict)
}

// ActionTableAsText renders the action table as a plain-text table, one
// row per state and one column per symbol with at least one live action.
// This is a debugging aid; the generated parser gets its tables from the
// code emitter.
func (aut *Automaton) ActionTableAsText(w io.Writer) {
	used := make(map[int]bool)
	for _, stp := range aut.Sorted {
		stp.Actions.Each(func(ap *Action) {
			if ap.Kind == Shift || ap.Kind == Reduce || ap.Kind == Accept {
				used[ap.Symbol.Index] = true
			}
		})
	}
	header := []string{"state"}
	var cols []int
	for _, sp := range aut.G.Symbols {
		if used[sp.Index] {
			header = append(header, sp.Name)
			cols = append(cols, sp.Index)
		}
	}
	data := [][]string{header}
	for _, stp := range aut.Sorted {
		row := make([]string, len(cols)+1)
		row[0] = stp.String()
		cells := make(map[int]string)
		stp.Actions.Each(func(ap *Action) {
			switch ap.Kind {
			case Shift:
				cells[ap.Symbol.Index] = "s" + strconv.Itoa(ap.State.Index)
			case Reduce:
				cells[ap.Symbol.Index] = "r" + strconv.Itoa(ap.Rule.Index)
			case Accept:
				cells[ap.Symbol.Index] = "acc"
			}
		})
		for i, c := range cols {
			row[i+1] = cells[c]
		}
		data = append(data, row)
	}
	out := rosed.Edit("").
		InsertTableOpts(0, data, 120, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
	io.WriteString(w, out)
	io.WriteString(w, "\n")
}
