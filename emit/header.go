package emit

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"github.com/citrondev/citron/grammar"
)

// Header generates the header file with one #define per terminal symbol,
// prefixed with the %token_prefix string. If a header with identical
// contents already exists, the file is left untouched so that its
// timestamp is preserved for make-style build systems.
func Header(g *grammar.Grammar, opts *Options) error {
	name := opts.outPath(g.Filename, ".h")

	var want bytes.Buffer
	for i := 1; i < g.NTerminal; i++ {
		fmt.Fprintf(&want, "#define %s%-30s %2d\n",
			g.TokenPrefix, g.Symbols[i].Name, i)
	}

	if old, err := os.ReadFile(name); err == nil {
		if bytes.Equal(old, want.Bytes()) {
			// no change in the file, don't rewrite it
			tracer().Debugf("header %q unchanged", name)
			return nil
		}
	}

	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("can't open file %q: %w", name, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if _, err := w.Write(want.Bytes()); err == nil {
		err = w.Flush()
	} else {
		w.Flush()
	}
	if err != nil {
		return fmt.Errorf("can't write file %q: %w", name, err)
	}
	tracer().Infof("wrote header %q", name)
	return nil
}
