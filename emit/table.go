package emit

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/citrondev/citron/grammar"
	"github.com/citrondev/citron/lalr"
)

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isAlpha(c byte) bool { return isUpper(c) || isLower(c) }
func isAlnum(c byte) bool { return isAlpha(c) || c >= '0' && c <= '9' }

// computeAction encodes an action as the integer value stored in the
// generated action table: shifts are the target state index, reduces the
// rule index offset by the state count, then error, then accept. A
// negative result means no table entry is generated.
func computeAction(aut *lalr.Automaton, ap *lalr.Action) int {
	nrule := len(aut.G.Rules)
	switch ap.Kind {
	case lalr.Shift:
		return ap.State.Index
	case lalr.Reduce:
		return ap.Rule.Index + aut.NState
	case lalr.Error:
		return aut.NState + nrule
	case lalr.Accept:
		return aut.NState + nrule + 1
	default:
		return -1
	}
}

// tableEmitter merges the parser tables and the user code into the
// template, keeping a running output line number so that #line
// directives can bracket every user-code insertion.
type tableEmitter struct {
	g       *grammar.Grammar
	aut     *lalr.Automaton
	opts    *Options
	in      *bufio.Reader
	out     *bufio.Writer
	outname string
	lineno  int
	name    string // parser name substituted for "Parse" in the template
}

// Table generates the parser source file by template substitution.
func Table(aut *lalr.Automaton, opts *Options) error {
	g := aut.G
	tpltname, err := findTemplate(g.Filename, opts)
	if err != nil {
		return err
	}
	tplt, err := os.Open(tpltname)
	if err != nil {
		return fmt.Errorf("can't open the template file %q: %w", tpltname, err)
	}
	defer tplt.Close()

	outname := opts.outPath(g.Filename, ".c")
	f, err := os.Create(outname)
	if err != nil {
		return fmt.Errorf("can't open file %q: %w", outname, err)
	}
	defer f.Close()

	em := &tableEmitter{
		g:       g,
		aut:     aut,
		opts:    opts,
		in:      bufio.NewReader(tplt),
		out:     bufio.NewWriter(f),
		outname: outname,
		lineno:  1,
		name:    g.Name,
	}
	em.emit()
	if err := em.out.Flush(); err != nil {
		return fmt.Errorf("can't write file %q: %w", outname, err)
	}
	tracer().Infof("wrote parser %q", outname)
	return nil
}

// emit inserts the generated blocks into the template in fixed order,
// one block per "%%" marker.
func (em *tableEmitter) emit() {
	g := em.g
	em.xfer()

	// the %include code, plus the header include in combined mode
	em.print(g.Include, g.IncludeLine)
	if em.opts.MakeHeaders {
		base := filepath.Base(g.Filename)
		if ext := filepath.Ext(base); ext != "" {
			base = strings.TrimSuffix(base, ext)
		}
		fmt.Fprintf(em.out, "#include \"%s.h\"\n", base)
		em.lineno++
	}
	em.xfer()

	// #defines for all tokens, combined-header mode only
	if em.opts.MakeHeaders {
		fmt.Fprintf(em.out, "#if INTERFACE\n")
		em.lineno++
		for i := 1; i < g.NTerminal; i++ {
			fmt.Fprintf(em.out, "#define %s%-30s %2d\n",
				g.TokenPrefix, g.Symbols[i].Name, i)
			em.lineno++
		}
		fmt.Fprintf(em.out, "#endif\n")
		em.lineno++
	}
	em.xfer()

	// the core defines
	em.defines()
	em.xfer()

	// the packed action table
	em.actionTable()
	em.xfer()

	// the per-state descriptor table
	em.stateTable()
	em.xfer()

	// the symbolic name of every symbol
	em.symbolNames()
	em.xfer()

	// the %destructor actions
	em.destructors()
	em.xfer()

	// code executed whenever the parser stack overflows
	em.print(g.Overflow, g.OverflowLine)
	em.xfer()

	// the rule information table
	for _, rp := range g.Rules {
		fmt.Fprintf(em.out, "  { %d, %d },\n", rp.LHS.Index, len(rp.RHS))
		em.lineno++
	}
	em.xfer()

	// code executed during each reduce action
	for _, rp := range g.Rules {
		fmt.Fprintf(em.out, "      case %d:\n", rp.Index)
		em.lineno++
		fmt.Fprintf(em.out, "        YYTRACE(\"%s ::=", rp.LHS.Name)
		for _, sp := range rp.RHS {
			fmt.Fprintf(em.out, " %s", sp.Name)
		}
		fmt.Fprintf(em.out, "\")\n")
		em.lineno++
		em.code(rp)
		fmt.Fprintf(em.out, "        break;\n")
		em.lineno++
	}
	em.xfer()

	// code executed if a parse fails
	em.print(g.Failure, g.FailureLine)
	em.xfer()

	// code executed when a syntax error occurs
	em.print(g.SyntaxError, g.SyntaxErrorLine)
	em.xfer()

	// code executed when the parser accepts its input
	em.print(g.Accept, g.AcceptLine)
	em.xfer()

	// any additional code the user desires
	em.print(g.ExtraCode, g.ExtraCodeLine)
}

// xfer transfers template text to the output until a line beginning with
// "%%" is seen. If a parser name is configured, every word beginning
// with "Parse" is renamed.
func (em *tableEmitter) xfer() {
	for {
		line, err := em.in.ReadString('\n')
		if len(line) >= 2 && line[0] == '%' && line[1] == '%' {
			return
		}
		if line != "" {
			em.lineno++
			if em.name != "" {
				line = renameParse(line, em.name)
			}
			em.out.WriteString(line)
		}
		if err != nil {
			return
		}
	}
}

// renameParse substitutes name for the prefix "Parse" of every word on
// the line.
func renameParse(line, name string) string {
	var b strings.Builder
	iStart := 0
	for i := 0; i < len(line); i++ {
		if line[i] == 'P' && strings.HasPrefix(line[i:], "Parse") &&
			(i == 0 || !isAlpha(line[i-1])) {
			b.WriteString(line[iStart:i])
			b.WriteString(name)
			i += 4
			iStart = i + 1
		}
	}
	b.WriteString(line[iStart:])
	return b.String()
}

// print emits a user code fragment bracketed by #line directives, first
// pointing into the specification file, then back into the generated
// file.
func (em *tableEmitter) print(str string, strln int) {
	if str == "" {
		return
	}
	fmt.Fprintf(em.out, "#line %d \"%s\"\n", strln, em.g.Filename)
	em.lineno++
	for i := 0; i < len(str); i++ {
		if str[i] == '\n' {
			em.lineno++
		}
		em.out.WriteByte(str[i])
	}
	fmt.Fprintf(em.out, "\n#line %d \"%s\"\n", em.lineno+2, em.outname)
	em.lineno += 2
}

// defines emits the core #defines: the code and action types, the value
// stack union, the stack depth, the extra-argument macros, and the
// table dimensions.
func (em *tableEmitter) defines() {
	g := em.g
	codetype := "unsigned char"
	if g.NSymbol > 250 {
		codetype = "int"
	}
	fmt.Fprintf(em.out, "#define YYCODETYPE %s\n", codetype)
	em.lineno++
	fmt.Fprintf(em.out, "#define YYNOCODE %d\n", g.NSymbol+1)
	em.lineno++
	actiontype := "unsigned char"
	if em.aut.NState+len(g.Rules) > 250 {
		actiontype = "int"
	}
	fmt.Fprintf(em.out, "#define YYACTIONTYPE %s\n", actiontype)
	em.lineno++
	em.stackUnion()
	stacksize := "100"
	if g.StackSize != "" {
		if n, err := strconv.Atoi(g.StackSize); err != nil || n <= 0 {
			grammar.ErrorMsg(g.Filename, 0,
				"Illegal stack size: [%s].  The stack size should be an "+
					"integer constant.", g.StackSize)
			g.ErrorCount++
		} else {
			stacksize = g.StackSize
		}
	}
	fmt.Fprintf(em.out, "#define YYSTACKDEPTH %s\n", stacksize)
	em.lineno++

	if em.opts.MakeHeaders {
		fmt.Fprintf(em.out, "#if INTERFACE\n")
		em.lineno++
	}
	name := g.Name
	if name == "" {
		name = "Parse"
	}
	if arg := strings.TrimRight(g.Arg, " \t\n"); arg != "" {
		i := len(arg)
		for i >= 1 && isAlnum(arg[i-1]) {
			i--
		}
		fmt.Fprintf(em.out, "#define %sARGDECL ,%s\n", name, arg[i:])
		em.lineno++
		fmt.Fprintf(em.out, "#define %sXARGDECL %s;\n", name, g.Arg)
		em.lineno++
		fmt.Fprintf(em.out, "#define %sANSIARGDECL ,%s\n", name, g.Arg)
		em.lineno++
	} else {
		fmt.Fprintf(em.out, "#define %sARGDECL\n", name)
		em.lineno++
		fmt.Fprintf(em.out, "#define %sXARGDECL\n", name)
		em.lineno++
		fmt.Fprintf(em.out, "#define %sANSIARGDECL\n", name)
		em.lineno++
	}
	if em.opts.MakeHeaders {
		fmt.Fprintf(em.out, "#endif\n")
		em.lineno++
	}
	fmt.Fprintf(em.out, "#define YYNSTATE %d\n", em.aut.NState)
	em.lineno++
	fmt.Fprintf(em.out, "#define YYNRULE %d\n", len(g.Rules))
	em.lineno++
	fmt.Fprintf(em.out, "#define YYERRORSYMBOL %d\n", g.ErrSym.Index)
	em.lineno++
	fmt.Fprintf(em.out, "#define YYERRSYMDT yy%d\n", g.ErrSym.DTNum)
	em.lineno++
}

// stackUnion prints the definition of the union used for the parser's
// value stack, with one field per distinct %type datatype. As a side
// effect the DTNum field of every symbol is assigned: 0 for terminals
// and untyped nonterminals, the union slot number otherwise.
func (em *tableEmitter) stackUnion() {
	g := em.g
	arraysize := g.NSymbol * 2
	types := make([]string, arraysize)
	present := make([]bool, arraysize)

	for _, sp := range g.Symbols[:g.NSymbol] {
		if sp == g.ErrSym {
			sp.DTNum = arraysize + 1
			continue
		}
		if sp.Kind != grammar.Nonterminal || sp.DataType == "" {
			sp.DTNum = 0
			continue
		}
		stddt := strings.TrimSpace(sp.DataType)
		hash := 0
		for i := 0; i < len(stddt); i++ {
			hash = hash*53 + int(stddt[i])
		}
		if hash < 0 {
			hash = -hash
		}
		hash = hash % arraysize
		for present[hash] {
			if types[hash] == stddt {
				break
			}
			hash++
			if hash >= arraysize {
				hash = 0
			}
		}
		if !present[hash] {
			types[hash] = stddt
			present[hash] = true
		}
		sp.DTNum = hash + 1
	}

	name := g.Name
	if name == "" {
		name = "Parse"
	}
	if em.opts.MakeHeaders {
		fmt.Fprintf(em.out, "#if INTERFACE\n")
		em.lineno++
	}
	tokentype := g.TokenType
	if tokentype == "" {
		tokentype = "void*"
	}
	fmt.Fprintf(em.out, "#define %sTOKENTYPE %s\n", name, tokentype)
	em.lineno++
	if em.opts.MakeHeaders {
		fmt.Fprintf(em.out, "#endif\n")
		em.lineno++
	}
	fmt.Fprintf(em.out, "typedef union {\n")
	em.lineno++
	fmt.Fprintf(em.out, "  %sTOKENTYPE yy0;\n", name)
	em.lineno++
	for i := 0; i < arraysize; i++ {
		if !present[i] {
			continue
		}
		fmt.Fprintf(em.out, "  %s yy%d;\n", types[i], i+1)
		em.lineno++
	}
	fmt.Fprintf(em.out, "  int yy%d;\n", g.ErrSym.DTNum)
	em.lineno++
	fmt.Fprintf(em.out, "} YYMINORTYPE;\n")
	em.lineno++
}

// actionTable emits the packed action table. The entries of each state
// are laid out into an open hash table whose size is the smallest power
// of two holding them; collisions chain through explicit next-entry
// links.
func (em *tableEmitter) actionTable() {
	g := em.g
	aut := em.aut
	tablecnt := 0

	for _, stp := range aut.Sorted {
		stp.TabStart = tablecnt
		stp.NAction = 0
		stp.Actions.Each(func(ap *lalr.Action) {
			if ap.Symbol.Index != g.NSymbol && computeAction(aut, ap) >= 0 {
				stp.NAction++
			}
		})
		tablesize := 1
		for tablesize < stp.NAction {
			tablesize += tablesize
		}
		table := make([]*lalr.Action, tablesize)
		collide := make([]int, tablesize)
		next := make(map[*lalr.Action]*lalr.Action)
		for j := range collide {
			collide[j] = -1
		}

		// hash the actions into the table
		stp.DefaultAction = aut.NState + len(g.Rules)
		stp.Actions.Each(func(ap *lalr.Action) {
			action := computeAction(aut, ap)
			if ap.Symbol.Index == g.NSymbol {
				stp.DefaultAction = action
			} else if action >= 0 {
				h := ap.Symbol.Index & (tablesize - 1)
				next[ap] = table[h]
				table[h] = ap
			}
		})

		// resolve collisions
		for j, k := 0, 0; j < tablesize; j++ {
			if table[j] != nil && next[table[j]] != nil {
				for table[k] != nil {
					k++
				}
				table[k] = next[table[j]]
				collide[j] = k
				next[table[j]] = nil
				if k < j {
					j = k - 1
				}
			}
		}

		// print the hash table
		fmt.Fprintf(em.out, "/* State %d */\n", stp.Index)
		em.lineno++
		for j := 0; j < tablesize; j++ {
			if table[j] == nil {
				fmt.Fprintf(em.out, "  {YYNOCODE,0,0}, /* Unused */\n")
			} else {
				fmt.Fprintf(em.out, "  {%4d,%4d, ",
					table[j].Symbol.Index, computeAction(aut, table[j]))
				if collide[j] >= 0 {
					fmt.Fprintf(em.out, "&yyActionTable[%4d] }, /* ",
						collide[j]+tablecnt)
				} else {
					fmt.Fprintf(em.out, "0                    }, /* ")
				}
				printAction(table[j], em.out, 22)
				fmt.Fprintf(em.out, " */\n")
			}
			em.lineno++
		}
		tablecnt += tablesize
	}
	g.TableSize = tablecnt
}

// stateTable emits one descriptor per state: the offset of its hash
// table, the hash mask, and the encoded default action.
func (em *tableEmitter) stateTable() {
	for _, stp := range em.aut.Sorted {
		tablesize := 1
		for tablesize < stp.NAction {
			tablesize += tablesize
		}
		fmt.Fprintf(em.out, "  { &yyActionTable[%d], %d, %d},\n",
			stp.TabStart, tablesize-1, stp.DefaultAction)
		em.lineno++
	}
}

// symbolNames emits the table of symbolic names, four per line.
func (em *tableEmitter) symbolNames() {
	g := em.g
	i := 0
	for ; i < g.NSymbol; i++ {
		entry := fmt.Sprintf("\"%s\",", g.Symbols[i].Name)
		fmt.Fprintf(em.out, "  %-15s", entry)
		if i&3 == 3 {
			fmt.Fprintf(em.out, "\n")
			em.lineno++
		}
	}
	if i&3 != 0 {
		fmt.Fprintf(em.out, "\n")
		em.lineno++
	}
}

// hasDestructor returns true if the symbol has destructor code attached:
// the %token_destructor for terminals, the symbol's own %destructor
// otherwise.
func hasDestructor(sp *grammar.Symbol, g *grammar.Grammar) bool {
	if sp.Kind == grammar.Terminal {
		return g.TokenDest != ""
	}
	return sp.Destructor != ""
}

// destructors emits the switch cases which execute every time a symbol
// is popped from the stack while processing errors or while destroying
// the parser.
func (em *tableEmitter) destructors() {
	g := em.g
	if g.TokenDest != "" {
		for _, sp := range g.Symbols[:g.NSymbol] {
			if sp.Kind != grammar.Terminal {
				continue
			}
			fmt.Fprintf(em.out, "    case %d:\n", sp.Index)
			em.lineno++
		}
		for _, sp := range g.Symbols[:g.NSymbol] {
			if sp.Kind == grammar.Terminal {
				em.destructorCode(sp)
				fmt.Fprintf(em.out, "      break;\n")
				em.lineno++
				break
			}
		}
	}
	for _, sp := range g.Symbols[:g.NSymbol] {
		if sp.Kind == grammar.Terminal || sp.Destructor == "" {
			continue
		}
		fmt.Fprintf(em.out, "    case %d:\n", sp.Index)
		em.lineno++
		em.destructorCode(sp)
		fmt.Fprintf(em.out, "      break;\n")
		em.lineno++
	}
}

// destructorCode emits the destructor code for a symbol, with "$$"
// rewritten to the symbol's slot in the value union.
func (em *tableEmitter) destructorCode(sp *grammar.Symbol) {
	g := em.g
	var code string
	var line int
	if sp.Kind == grammar.Terminal {
		code = g.TokenDest
		if code == "" {
			return
		}
		line = g.TokenDestLine
	} else {
		code = sp.Destructor
		if code == "" {
			return
		}
		line = sp.DestructorLine
	}
	fmt.Fprintf(em.out, "#line %d \"%s\"\n{", line, g.Filename)
	linecnt := 0
	for i := 0; i < len(code); i++ {
		if code[i] == '$' && i+1 < len(code) && code[i+1] == '$' {
			fmt.Fprintf(em.out, "(yypminor->yy%d)", sp.DTNum)
			i++
			continue
		}
		if code[i] == '\n' {
			linecnt++
		}
		em.out.WriteByte(code[i])
	}
	em.lineno += 3 + linecnt
	fmt.Fprintf(em.out, "}\n#line %d \"%s\"\n", em.lineno, em.outname)
}

// code emits the user code which executes when a rule is reduced. RHS
// aliases are rewritten to references into the parser stack, the LHS
// alias to the goto minor; aliases which are declared but never used are
// errors, and unaliased RHS symbols get their destructors invoked.
func (em *tableEmitter) code(rp *grammar.Rule) {
	g := em.g
	used := make([]bool, len(rp.RHS))
	lhsused := false

	if rp.Code != "" {
		linecnt := 0
		fmt.Fprintf(em.out, "#line %d \"%s\"\n{", rp.Line, g.Filename)
		code := rp.Code
		for i := 0; i < len(code); i++ {
			c := code[i]
			if isAlpha(c) && (i == 0 || !isAlnum(code[i-1])) {
				j := i + 1
				for j < len(code) && isAlnum(code[j]) {
					j++
				}
				word := code[i:j]
				if rp.LHSAlias != "" && word == rp.LHSAlias {
					fmt.Fprintf(em.out, "yygotominor.yy%d", rp.LHS.DTNum)
					i = j - 1
					lhsused = true
					continue
				}
				replaced := false
				for k, alias := range rp.RHSAlias {
					if alias != "" && word == alias {
						fmt.Fprintf(em.out, "yymsp[%d].minor.yy%d",
							k-len(rp.RHS)+1, rp.RHS[k].DTNum)
						i = j - 1
						used[k] = true
						replaced = true
						break
					}
				}
				if replaced {
					continue
				}
			}
			if c == '\n' {
				linecnt++
			}
			em.out.WriteByte(c)
		}
		em.lineno += 3 + linecnt
		fmt.Fprintf(em.out, "}\n#line %d \"%s\"\n", em.lineno, em.outname)
	}

	if rp.LHSAlias != "" && !lhsused {
		grammar.ErrorMsg(g.Filename, rp.RuleLine,
			"Label \"%s\" for \"%s(%s)\" is never used.",
			rp.LHSAlias, rp.LHS.Name, rp.LHSAlias)
		g.ErrorCount++
	}

	for i, alias := range rp.RHSAlias {
		if alias != "" && !used[i] {
			grammar.ErrorMsg(g.Filename, rp.RuleLine,
				"Label $%s$ for \"%s(%s)\" is never used.",
				alias, rp.RHS[i].Name, alias)
			g.ErrorCount++
		} else if alias == "" {
			if hasDestructor(rp.RHS[i], g) {
				fmt.Fprintf(em.out, "  yy_destructor(%d,&yymsp[%d].minor);\n",
					rp.RHS[i].Index, i-len(rp.RHS)+1)
				em.lineno++
			} else {
				fmt.Fprintf(em.out, "        /* No destructor defined for %s */\n",
					rp.RHS[i].Name)
				em.lineno++
			}
		}
	}
}
