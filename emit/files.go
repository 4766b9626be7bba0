package emit

import (
	"path/filepath"
	"strings"
)

// Options configure the emitters for one run.
type Options struct {
	OutDir      string // output directory; "" writes alongside the input
	Template    string // template file path given on the command line
	Basis       bool   // report only basis configurations
	MakeHeaders bool   // combined-output mode; token defines go into the source file
	Argv0       string // program path, for the fallback template search
}

// outPath derives an output filename from the input file: the basename
// with its extension replaced by the given suffix, placed into the
// output directory (default: the input's directory).
func (opts *Options) outPath(inputFile, suffix string) string {
	base := filepath.Base(inputFile)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	dir := opts.OutDir
	if dir == "" {
		dir = filepath.Dir(inputFile)
	}
	return filepath.Join(dir, base+suffix)
}
