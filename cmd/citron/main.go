// Command citron is an LALR(1) parser generator. It reads a grammar
// specification annotated with action code and emits a table-driven
// parser source file, a header with terminal defines, and a report
// describing states and actions.
//
// Usage:
//
//	citron [options] grammar-file
//
// The exit code is the number of grammar errors plus the number of
// unresolved parsing conflicts; zero means full success.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/citrondev/citron/emit"
	"github.com/citrondev/citron/grammar"
	"github.com/citrondev/citron/lalr"
)

const versionText = "citron version 1.0\n"

var (
	flagBasis      = pflag.BoolP("basis", "b", false, "Print only the basis in report.")
	flagNoCompress = pflag.BoolP("no-compress", "c", false, "Don't compress the action table.")
	flagOutDir     = pflag.StringP("output-dir", "d", "", "Output directory name.")
	flagReprint    = pflag.BoolP("grammar", "g", false, "Print grammar without actions.")
	flagMakeHdrs   = pflag.BoolP("makeheaders", "m", false, "Output a makeheaders compatible file.")
	flagQuiet      = pflag.BoolP("quiet", "q", false, "(Quiet) Don't print the report file.")
	flagStats      = pflag.BoolP("statistics", "s", false, "Print parser stats to standard output.")
	flagTemplate   = pflag.StringP("template", "t", "", "Template file to use.")
	flagVersion    = pflag.BoolP("version", "x", false, "Print the version number.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Print(versionText)
		os.Exit(0)
	}
	if pflag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Exactly one filename argument is required.\n")
		os.Exit(1)
	}

	g := grammar.NewGrammar(pflag.Arg(0))
	opts := &emit.Options{
		OutDir:      *flagOutDir,
		Template:    *flagTemplate,
		Basis:       *flagBasis,
		MakeHeaders: *flagMakeHdrs,
		Argv0:       os.Args[0],
	}

	// Parse the input file.
	g.ParseFile()
	if g.ErrorCount > 0 {
		os.Exit(g.ErrorCount)
	}
	if len(g.Rules) == 0 {
		fmt.Fprintf(os.Stderr, "Empty grammar.\n")
		os.Exit(1)
	}

	// Count and index the symbols of the grammar.
	g.SortSymbols()

	var aut *lalr.Automaton
	if *flagReprint {
		// Generate a reprint of the grammar.
		g.Reprint(os.Stdout)
	} else {
		// Find the precedence for every production rule, compute the
		// lambda nonterminals and FIRST sets, construct the LR(0) states
		// with their follow-set propagation links, compute the follow
		// sets, and build the resolved action tables.
		aut = lalr.NewAutomaton(g)
		aut.CreateTables()

		// Compress the action tables.
		if !*flagNoCompress {
			aut.CompressTables()
		}

		// Generate the report file.
		if !*flagQuiet {
			if err := emit.Report(aut, opts); err != nil {
				fatal(err)
			}
		}

		// Generate the source code for the parser.
		if err := emit.Table(aut, opts); err != nil {
			fatal(err)
		}

		// Produce the header file for use by the scanner. This step is
		// omitted in makeheaders mode, where a postprocessor generates
		// the file.
		if !*flagMakeHdrs {
			if err := emit.Header(g, opts); err != nil {
				fatal(err)
			}
		}
	}

	nconflict := 0
	nstate := 0
	if aut != nil {
		nconflict = aut.NConflict
		nstate = aut.NState
	}
	if *flagStats {
		fmt.Printf("Parser statistics: %d terminals, %d nonterminals, %d rules\n",
			g.NTerminal, g.NSymbol-g.NTerminal, len(g.Rules))
		fmt.Printf("                   %d states, %d parser table entries, %d conflicts\n",
			nstate, g.TableSize, nconflict)
	}
	if nconflict > 0 {
		fmt.Fprintf(os.Stderr, "%d parsing conflicts.\n", nconflict)
	}
	os.Exit(g.ErrorCount + nconflict)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "%v\n", err)
	os.Exit(1)
}
