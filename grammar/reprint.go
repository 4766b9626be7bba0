package grammar

import (
	"fmt"
	"io"
)

// Reprint writes a cleaned copy of the grammar to w: a comment block
// listing all symbols with their indices, followed by one line per rule
// without action code. The output parses back to the same rule set and
// precedence assignments.
func (g *Grammar) Reprint(w io.Writer) {
	fmt.Fprintf(w, "// Reprint of input file \"%s\".\n// Symbols:\n", g.Filename)
	maxlen := 10
	for _, sp := range g.Symbols {
		if len(sp.Name) > maxlen {
			maxlen = len(sp.Name)
		}
	}
	ncolumns := 76 / (maxlen + 5)
	if ncolumns < 1 {
		ncolumns = 1
	}
	nsymbol := len(g.Symbols)
	skip := (nsymbol + ncolumns - 1) / ncolumns
	for i := 0; i < skip; i++ {
		fmt.Fprintf(w, "//")
		for j := i; j < nsymbol; j += skip {
			sp := g.Symbols[j]
			fmt.Fprintf(w, " %3d %-*.*s", j, maxlen, maxlen, sp.Name)
		}
		fmt.Fprintf(w, "\n")
	}
	g.reprintPrecedences(w)
	for _, rp := range g.Rules {
		fmt.Fprintf(w, "%s ::=", rp.LHS.Name)
		for _, sp := range rp.RHS {
			fmt.Fprintf(w, " %s", sp.Name)
		}
		fmt.Fprintf(w, ".")
		if rp.PrecSym != nil {
			fmt.Fprintf(w, " [%s]", rp.PrecSym.Name)
		}
		fmt.Fprintf(w, "\n")
	}
}

// reprintPrecedences re-emits the %left/%right/%nonassoc declarations in
// ascending precedence order, so that re-parsing the reprinted grammar
// reproduces the precedence and associativity assignments.
func (g *Grammar) reprintPrecedences(w io.Writer) {
	maxprec := 0
	for _, sp := range g.Symbols {
		if sp.Prec > maxprec {
			maxprec = sp.Prec
		}
	}
	for prec := 1; prec <= maxprec; prec++ {
		var keyword string
		names := []string{}
		for _, sp := range g.Symbols {
			if sp.Prec != prec {
				continue
			}
			switch sp.Assoc {
			case AssocLeft:
				keyword = "%left"
			case AssocRight:
				keyword = "%right"
			case AssocNone:
				keyword = "%nonassoc"
			}
			names = append(names, sp.Name)
		}
		if len(names) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s", keyword)
		for _, name := range names {
			fmt.Fprintf(w, " %s", name)
		}
		fmt.Fprintf(w, " .\n")
	}
}
