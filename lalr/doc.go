/*
Package lalr constructs the LALR(1) automaton for a grammar: the LR(0)
state graph, the follow sets of every reducible configuration, and the
resolved action list of every state.

The construction is canonical. States are identified by their sorted
basis: a basis that hashes to an existing state is merged into it,
transferring the follow-set propagation links of the construction in
progress. Follow sets are computed after all states exist, by iterating
the propagation graph to a fixed point. Reduce actions are then derived
from completed configurations, conflicts are resolved by precedence and
associativity, and states with a uniform reduce are collapsed onto a
default action.

Refer to "Crafting A Compiler" by Charles N. Fisher & Richard J. LeBlanc,
Jr., section 6.2.1 LR(0) Parsing.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package lalr

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'citron.lalr'.
func tracer() tracing.Trace {
	return tracing.Select("citron.lalr")
}
