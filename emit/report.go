package emit

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/citrondev/citron/lalr"
)

// configPrint renders a configuration with its dot.
func configPrint(w io.Writer, cfp *lalr.Config) {
	rp := cfp.Rule
	fmt.Fprintf(w, "%s ::=", rp.LHS.Name)
	for i := 0; i <= len(rp.RHS); i++ {
		if i == cfp.Dot {
			fmt.Fprintf(w, " *")
		}
		if i == len(rp.RHS) {
			break
		}
		fmt.Fprintf(w, " %s", rp.RHS[i].Name)
	}
}

// printAction renders an action to w with the lookahead right-aligned to
// the given indent. It returns false if nothing was printed, which is
// the case for resolved and unused entries.
func printAction(ap *lalr.Action, w io.Writer, indent int) bool {
	switch ap.Kind {
	case lalr.Shift:
		fmt.Fprintf(w, "%*s shift  %d", indent, ap.Symbol.Name, ap.State.Index)
	case lalr.Reduce:
		fmt.Fprintf(w, "%*s reduce %d", indent, ap.Symbol.Name, ap.Rule.Index)
	case lalr.Accept:
		fmt.Fprintf(w, "%*s accept", indent, ap.Symbol.Name)
	case lalr.Error:
		fmt.Fprintf(w, "%*s error", indent, ap.Symbol.Name)
	case lalr.Conflict:
		fmt.Fprintf(w, "%*s reduce %-3d ** Parsing conflict **",
			indent, ap.Symbol.Name, ap.Rule.Index)
	default: // ShResolved, RdResolved, NotUsed
		return false
	}
	return true
}

// Report generates the state-by-state report file (the ".out" file).
// Every state is listed with its configurations (only the basis if
// opts.Basis is set) and its actions; unresolved conflicts are annotated
// in place.
func Report(aut *lalr.Automaton, opts *Options) error {
	name := opts.outPath(aut.G.Filename, ".out")
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("can't open file %q: %w", name, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	WriteReport(w, aut, opts.Basis)
	if err := w.Flush(); err != nil {
		return fmt.Errorf("can't write file %q: %w", name, err)
	}
	tracer().Infof("wrote report %q", name)
	return nil
}

// WriteReport writes the state listing to an arbitrary writer.
func WriteReport(w io.Writer, aut *lalr.Automaton, basisOnly bool) {
	for _, stp := range aut.Sorted {
		fmt.Fprintf(w, "State %d:\n", stp.Index)
		configs := stp.Configs
		if basisOnly {
			configs = stp.Basis
		}
		for _, cfp := range configs {
			if cfp.Dot == len(cfp.Rule.RHS) {
				buf := fmt.Sprintf("(%d)", cfp.Rule.Index)
				fmt.Fprintf(w, "    %5s ", buf)
			} else {
				fmt.Fprintf(w, "          ")
			}
			configPrint(w, cfp)
			fmt.Fprintf(w, "\n")
		}
		fmt.Fprintf(w, "\n")
		stp.Actions.Each(func(ap *lalr.Action) {
			if printAction(ap, w, 30) {
				fmt.Fprintf(w, "\n")
			}
		})
		fmt.Fprintf(w, "\n")
	}
}
