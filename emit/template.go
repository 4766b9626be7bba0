package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// templateName is the default parser driver template.
const templateName = "lempar.c"

// findTemplate locates the parser driver template: the path given on the
// command line, then a sibling of the input file with a ".lt" extension,
// then a lempar.c next to the executable or on the PATH.
func findTemplate(inputFile string, opts *Options) (string, error) {
	if opts.Template != "" {
		return opts.Template, nil
	}
	sibling := inputFile
	if ext := filepath.Ext(sibling); ext != "" {
		sibling = strings.TrimSuffix(sibling, ext)
	}
	sibling += ".lt"
	if _, err := os.Stat(sibling); err == nil {
		return sibling, nil
	}
	if path := pathSearch(opts.Argv0, templateName); path != "" {
		return path, nil
	}
	return "", fmt.Errorf("can't find the parser driver template file %q", templateName)
}

// pathSearch looks for name in the directory of the executable, or, if
// argv0 carries no directory, in every directory of the PATH environment
// variable.
func pathSearch(argv0, name string) string {
	if dir := filepath.Dir(argv0); dir != "." || strings.ContainsRune(argv0, os.PathSeparator) {
		return filepath.Join(dir, name)
	}
	pathlist := os.Getenv("PATH")
	if pathlist == "" {
		pathlist = ".:/bin:/usr/bin"
	}
	for _, dir := range filepath.SplitList(pathlist) {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
