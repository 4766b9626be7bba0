/*
Package emit produces the outputs of the parser generator: the generated
parser source (template substitution), the terminal-define header, and
the human-readable state report.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package emit

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'citron.emit'.
func tracer() tracing.Trace {
	return tracing.Select("citron.emit")
}
