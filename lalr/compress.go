package lalr

// CompressTables reduces the size of the action tables, if possible, by
// making use of defaults.
//
// If all reduce actions of a state use the same rule, they are combined
// into a single default action keyed on the {default} sentinel symbol.
// States with a single reduce action are left alone.
func (aut *Automaton) CompressTables() {
	for _, stp := range aut.Sorted {
		var reduces []*Action
		stp.Actions.Each(func(ap *Action) {
			if ap.Kind == Reduce {
				reduces = append(reduces, ap)
			}
		})
		if len(reduces) < 2 {
			continue
		}
		rp := reduces[0].Rule
		uniform := true
		for _, ap := range reduces[1:] {
			if ap.Rule != rp {
				uniform = false
				break
			}
		}
		if !uniform {
			continue
		}

		// Combine all reduce actions into a single default.
		reduces[0].Symbol = aut.G.DefaultSym
		for _, ap := range reduces[1:] {
			ap.Kind = NotUsed
		}
		stp.Actions.sort()
	}
}
