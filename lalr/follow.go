package lalr

// FindLinks completes the propagation graph. Backward links recorded
// during successor construction are mirrored as forward links, since
// only the forward links are used in the follow-set computation.
func (aut *Automaton) FindLinks() {
	// Housekeeping detail: give every configuration a pointer back to the
	// state which contains it.
	for _, stp := range aut.Sorted {
		for _, cfp := range stp.Configs {
			cfp.State = stp
		}
	}

	for _, stp := range aut.Sorted {
		for _, cfp := range stp.Configs {
			for _, other := range cfp.Bplp {
				other.Fplp = append(other.Fplp, cfp)
			}
		}
	}
}

// FindFollowSets computes the follow set of every configuration: the set
// of all terminals which can come immediately after it. The propagation
// graph is iterated until no follow set changes.
func (aut *Automaton) FindFollowSets() {
	for _, stp := range aut.Sorted {
		for _, cfp := range stp.Configs {
			cfp.complete = false
		}
	}

	for progress := true; progress; {
		progress = false
		for _, stp := range aut.Sorted {
			for _, cfp := range stp.Configs {
				if cfp.complete {
					continue
				}
				for _, target := range cfp.Fplp {
					if target.Fws.Union(cfp.Fws) {
						target.complete = false
						progress = true
					}
				}
				cfp.complete = true
			}
		}
	}
}
