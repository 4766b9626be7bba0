/*
Package grammar holds the object model for a context-free grammar
specification and the parser that reads specification files.

Building a Grammar

A specification file consists of %-declarations and production rules.
Rules are written with a "::=" arrow and terminated by a dot:

    expr(A) ::= expr(B) PLUS expr(C) .  { A = B + C; }
    expr ::= INT .

Terminals start with an uppercase letter, nonterminals with a lowercase
letter; the first character of a name decides the kind of the symbol
when it is first seen. Declarations configure the generated parser
(%token_type, %extra_argument, %include, …) or assign precedence and
associativity to terminals (%left, %right, %nonassoc).

ParseFile reads the whole specification and populates a Grammar value.
Faults are reported one message per cause and counted in
Grammar.ErrorCount; scanning resynchronizes at the next "." or "%" and
continues. Tokens skipped while resynchronizing are not checked.

After parsing, SortSymbols freezes the symbol table: symbols are ordered
by name, terminals form a prefix of the index space, and the sentinel
end-of-input symbol "$" has index 0.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package grammar

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'citron.grammar'.
func tracer() tracing.Trace {
	return tracing.Select("citron.grammar")
}
