package grammar

import (
	"os"
)

// maxRHS bounds the number of symbols on the right-hand side of a rule.
const maxRHS = 1000

// ASCII character classification. The specification format passes UTF-8
// through but classifies bytes, so multi-byte runes simply count as
// identifier-breaking punctuation.
func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isAlpha(c byte) bool { return isUpper(c) || isLower(c) }
func isAlnum(c byte) bool { return isAlpha(c) || c >= '0' && c <= '9' }
func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\v' || c == '\f' || c == '\r'
}

// scanner states for the declaration/rule state machine
type pstateKind int8

const (
	initialize pstateKind = iota
	waitingForDeclOrRule
	waitingForDeclKeyword
	waitingForDeclArg
	waitingForPrecedenceSymbol
	waitingForArrow
	inRHS
	lhsAlias1
	lhsAlias2
	lhsAlias3
	rhsAlias1
	rhsAlias2
	precedenceMark1
	precedenceMark2
	resyncAfterRuleError
	resyncAfterDeclError
	waitingForDestructorSymbol
	waitingForDatatypeSymbol
)

// pstate is the state of the specification parser while it consumes
// tokens from the scanner.
type pstate struct {
	g           *Grammar
	tokenLine   int    // line number at which the current token starts
	token       string // text of the current token
	state       pstateKind
	lhs         *Symbol   // LHS of the current rule
	lhsalias    string    // alias for the LHS
	rhs         []*Symbol // RHS symbols seen so far
	alias       []string  // aliases for each RHS symbol
	prevrule    *Rule     // previous rule parsed
	declkeyword string    // keyword of the current declaration
	declargslot *string   // where the declaration argument goes
	decllnslot  *int      // where the declaration line number goes
	declassoc   Assoc     // associativity to assign to %left/%right/%nonassoc arguments
	preccounter int       // running precedence counter
}

// ParseFile reads the whole specification file into memory, tokenizes
// it, and feeds each token to the state machine. All faults are counted
// in g.ErrorCount; scanning resynchronizes and continues after each one.
func (g *Grammar) ParseFile() {
	buf, err := os.ReadFile(g.Filename)
	if err != nil {
		ErrorMsg(g.Filename, 0, "Can't open this file for reading.")
		g.ErrorCount++
		return
	}
	ps := &pstate{g: g, state: initialize}

	lineno := 1
	cp := 0
	for cp < len(buf) {
		c := buf[cp]
		if c == '\n' {
			lineno++
		}
		if isSpace(c) { // skip all white space
			cp++
			continue
		}
		if c == '/' && cp+1 < len(buf) && buf[cp+1] == '/' { // line comment
			cp += 2
			for cp < len(buf) && buf[cp] != '\n' {
				cp++
			}
			continue
		}
		if c == '/' && cp+1 < len(buf) && buf[cp+1] == '*' { // block comment
			cp += 2
			for cp < len(buf) && !(buf[cp] == '/' && buf[cp-1] == '*') {
				if buf[cp] == '\n' {
					lineno++
				}
				cp++
			}
			if cp < len(buf) {
				cp++
			}
			continue
		}
		tokenstart := cp
		ps.tokenLine = lineno
		var nextcp int
		switch {
		case c == '"': // string literal, token excludes the closing quote
			cp++
			for cp < len(buf) && buf[cp] != '"' {
				if buf[cp] == '\n' {
					lineno++
				}
				cp++
			}
			if cp >= len(buf) {
				ErrorMsg(g.Filename, ps.tokenLine,
					"String starting on this line is not terminated before the end of the file.")
				ps.g.ErrorCount++
				nextcp = cp
			} else {
				nextcp = cp + 1
			}
		case c == '{': // a block of code, balanced braces
			cp++
			level := 1
			for cp < len(buf) && (level > 1 || buf[cp] != '}') {
				c := buf[cp]
				switch {
				case c == '\n':
					lineno++
				case c == '{':
					level++
				case c == '}':
					level--
				case c == '/' && cp+1 < len(buf) && buf[cp+1] == '*':
					cp += 2
					for cp < len(buf) && !(buf[cp] == '/' && buf[cp-1] == '*') {
						if buf[cp] == '\n' {
							lineno++
						}
						cp++
					}
					if cp >= len(buf) {
						cp--
					}
				case c == '/' && cp+1 < len(buf) && buf[cp+1] == '/':
					cp += 2
					for cp < len(buf) && buf[cp] != '\n' {
						cp++
					}
					if cp < len(buf) {
						lineno++
					}
				case c == '\'' || c == '"': // character and string literals
					startchar := c
					var prevc byte
					cp++
					for cp < len(buf) && (buf[cp] != startchar || prevc == '\\') {
						if buf[cp] == '\n' {
							lineno++
						}
						if prevc == '\\' {
							prevc = 0
						} else {
							prevc = buf[cp]
						}
						cp++
					}
				}
				cp++
			}
			if cp >= len(buf) {
				ErrorMsg(g.Filename, ps.tokenLine,
					"C code starting on this line is not terminated before the end of the file.")
				ps.g.ErrorCount++
				nextcp = cp
				cp = len(buf)
			} else {
				nextcp = cp + 1
			}
		case isAlnum(c): // identifiers
			for cp < len(buf) && (isAlnum(buf[cp]) || buf[cp] == '_') {
				cp++
			}
			nextcp = cp
		case c == ':' && cp+2 < len(buf) && buf[cp+1] == ':' && buf[cp+2] == '=':
			cp += 3
			nextcp = cp
		default: // all other single-character operators
			cp++
			nextcp = cp
		}
		ps.token = string(buf[tokenstart:cp]) // copy into owned storage
		ps.parseOneToken()
		cp = nextcp
	}
	tracer().Debugf("parsed %q: %d rules, %d errors", g.Filename, len(g.Rules), g.ErrorCount)
}

// parseOneToken advances the declaration/rule state machine by a single
// token.
func (ps *pstate) parseOneToken() {
	x := ps.token
	g := ps.g
	switch ps.state {
	case initialize:
		ps.prevrule = nil
		ps.preccounter = 0
		fallthrough
	case waitingForDeclOrRule:
		switch {
		case x[0] == '%':
			ps.state = waitingForDeclKeyword
		case isLower(x[0]):
			ps.lhs = g.Symbol(x)
			ps.rhs = nil
			ps.alias = nil
			ps.lhsalias = ""
			ps.state = waitingForArrow
		case x[0] == '{':
			if ps.prevrule == nil {
				ErrorMsg(g.Filename, ps.tokenLine,
					"There is not prior rule opon which to attach the code "+
						"fragment which begins on this line.")
				g.ErrorCount++
			} else if ps.prevrule.Code != "" {
				ErrorMsg(g.Filename, ps.tokenLine,
					"Code fragment beginning on this line is not the first "+
						"to follow the previous rule.")
				g.ErrorCount++
			} else {
				ps.prevrule.Line = ps.tokenLine
				ps.prevrule.Code = x[1:]
			}
		case x[0] == '[':
			ps.state = precedenceMark1
		default:
			ErrorMsg(g.Filename, ps.tokenLine,
				"Token \"%s\" should be either \"%%\" or a nonterminal name.", x)
			g.ErrorCount++
		}
	case precedenceMark1:
		if !isUpper(x[0]) {
			ErrorMsg(g.Filename, ps.tokenLine,
				"The precedence symbol must be a terminal.")
			g.ErrorCount++
		} else if ps.prevrule == nil {
			ErrorMsg(g.Filename, ps.tokenLine,
				"There is no prior rule to assign precedence \"[%s]\".", x)
			g.ErrorCount++
		} else if ps.prevrule.PrecSym != nil {
			ErrorMsg(g.Filename, ps.tokenLine,
				"Precedence mark on this line is not the first "+
					"to follow the previous rule.")
			g.ErrorCount++
		} else {
			ps.prevrule.PrecSym = g.Symbol(x)
		}
		ps.state = precedenceMark2
	case precedenceMark2:
		if x[0] != ']' {
			ErrorMsg(g.Filename, ps.tokenLine, "Missing \"]\" on precedence mark.")
			g.ErrorCount++
		}
		ps.state = waitingForDeclOrRule
	case waitingForArrow:
		switch {
		case x == "::=":
			ps.state = inRHS
		case x[0] == '(':
			ps.state = lhsAlias1
		default:
			ErrorMsg(g.Filename, ps.tokenLine,
				"Expected to see a \":\" following the LHS symbol \"%s\".",
				ps.lhs.Name)
			g.ErrorCount++
			ps.state = resyncAfterRuleError
		}
	case lhsAlias1:
		if isAlpha(x[0]) {
			ps.lhsalias = x
			ps.state = lhsAlias2
		} else {
			ErrorMsg(g.Filename, ps.tokenLine,
				"\"%s\" is not a valid alias for the LHS \"%s\"", x, ps.lhs.Name)
			g.ErrorCount++
			ps.state = resyncAfterRuleError
		}
	case lhsAlias2:
		if x[0] == ')' {
			ps.state = lhsAlias3
		} else {
			ErrorMsg(g.Filename, ps.tokenLine,
				"Missing \")\" following LHS alias name \"%s\".", ps.lhsalias)
			g.ErrorCount++
			ps.state = resyncAfterRuleError
		}
	case lhsAlias3:
		if x == "::=" {
			ps.state = inRHS
		} else {
			ErrorMsg(g.Filename, ps.tokenLine,
				"Missing \"->\" following: \"%s(%s)\".", ps.lhs.Name, ps.lhsalias)
			g.ErrorCount++
			ps.state = resyncAfterRuleError
		}
	case inRHS:
		switch {
		case x[0] == '.':
			rp := &Rule{
				RuleLine: ps.tokenLine,
				LHS:      ps.lhs,
				LHSAlias: ps.lhsalias,
				RHS:      append([]*Symbol(nil), ps.rhs...),
				RHSAlias: append([]string(nil), ps.alias...),
				Index:    len(g.Rules),
			}
			g.Rules = append(g.Rules, rp)
			rp.LHS.Rules = append(rp.LHS.Rules, rp)
			ps.prevrule = rp
			ps.state = waitingForDeclOrRule
		case isAlpha(x[0]):
			if len(ps.rhs) >= maxRHS {
				ErrorMsg(g.Filename, ps.tokenLine,
					"Too many symbol on RHS or rule beginning at \"%s\".", x)
				g.ErrorCount++
				ps.state = resyncAfterRuleError
			} else {
				ps.rhs = append(ps.rhs, g.Symbol(x))
				ps.alias = append(ps.alias, "")
			}
		case x[0] == '(' && len(ps.rhs) > 0:
			ps.state = rhsAlias1
		default:
			ErrorMsg(g.Filename, ps.tokenLine,
				"Illegal character on RHS of rule: \"%s\".", x)
			g.ErrorCount++
			ps.state = resyncAfterRuleError
		}
	case rhsAlias1:
		if isAlpha(x[0]) {
			ps.alias[len(ps.alias)-1] = x
			ps.state = rhsAlias2
		} else {
			ErrorMsg(g.Filename, ps.tokenLine,
				"\"%s\" is not a valid alias for the RHS symbol \"%s\"",
				x, ps.rhs[len(ps.rhs)-1].Name)
			g.ErrorCount++
			ps.state = resyncAfterRuleError
		}
	case rhsAlias2:
		if x[0] == ')' {
			ps.state = inRHS
		} else {
			ErrorMsg(g.Filename, ps.tokenLine,
				"Missing \")\" following RHS alias name \"%s\".",
				ps.alias[len(ps.alias)-1])
			g.ErrorCount++
			ps.state = resyncAfterRuleError
		}
	case waitingForDeclKeyword:
		if isAlpha(x[0]) {
			ps.declkeyword = x
			ps.declargslot = nil
			ps.decllnslot = nil
			ps.state = waitingForDeclArg
			switch x {
			case "name":
				ps.declargslot = &g.Name
			case "include":
				ps.declargslot = &g.Include
				ps.decllnslot = &g.IncludeLine
			case "code":
				ps.declargslot = &g.ExtraCode
				ps.decllnslot = &g.ExtraCodeLine
			case "token_destructor":
				ps.declargslot = &g.TokenDest
				ps.decllnslot = &g.TokenDestLine
			case "token_prefix":
				ps.declargslot = &g.TokenPrefix
			case "syntax_error":
				ps.declargslot = &g.SyntaxError
				ps.decllnslot = &g.SyntaxErrorLine
			case "parse_accept":
				ps.declargslot = &g.Accept
				ps.decllnslot = &g.AcceptLine
			case "parse_failure":
				ps.declargslot = &g.Failure
				ps.decllnslot = &g.FailureLine
			case "stack_overflow":
				ps.declargslot = &g.Overflow
				ps.decllnslot = &g.OverflowLine
			case "extra_argument":
				ps.declargslot = &g.Arg
			case "token_type":
				ps.declargslot = &g.TokenType
			case "stack_size":
				ps.declargslot = &g.StackSize
			case "start_symbol":
				ps.declargslot = &g.Start
			case "left":
				ps.preccounter++
				ps.declassoc = AssocLeft
				ps.state = waitingForPrecedenceSymbol
			case "right":
				ps.preccounter++
				ps.declassoc = AssocRight
				ps.state = waitingForPrecedenceSymbol
			case "nonassoc":
				ps.preccounter++
				ps.declassoc = AssocNone
				ps.state = waitingForPrecedenceSymbol
			case "destructor":
				ps.state = waitingForDestructorSymbol
			case "type":
				ps.state = waitingForDatatypeSymbol
			default:
				ErrorMsg(g.Filename, ps.tokenLine,
					"Unknown declaration keyword: \"%%%s\".", x)
				g.ErrorCount++
				ps.state = resyncAfterDeclError
			}
		} else {
			ErrorMsg(g.Filename, ps.tokenLine,
				"Illegal declaration keyword: \"%s\".", x)
			g.ErrorCount++
			ps.state = resyncAfterDeclError
		}
	case waitingForDestructorSymbol:
		if !isAlpha(x[0]) {
			ErrorMsg(g.Filename, ps.tokenLine,
				"Symbol name missing after %%destructor keyword")
			g.ErrorCount++
			ps.state = resyncAfterDeclError
		} else {
			sp := g.Symbol(x)
			ps.declargslot = &sp.Destructor
			ps.decllnslot = &sp.DestructorLine
			ps.state = waitingForDeclArg
		}
	case waitingForDatatypeSymbol:
		if !isAlpha(x[0]) {
			ErrorMsg(g.Filename, ps.tokenLine,
				"Symbol name missing after %%type keyword")
			g.ErrorCount++
			ps.state = resyncAfterDeclError
		} else {
			sp := g.Symbol(x)
			ps.declargslot = &sp.DataType
			ps.decllnslot = nil
			ps.state = waitingForDeclArg
		}
	case waitingForPrecedenceSymbol:
		switch {
		case x[0] == '.':
			ps.state = waitingForDeclOrRule
		case isUpper(x[0]):
			sp := g.Symbol(x)
			if sp.Prec >= 0 {
				ErrorMsg(g.Filename, ps.tokenLine,
					"Symbol \"%s\" has already be given a precedence.", x)
				g.ErrorCount++
			} else {
				sp.Prec = ps.preccounter
				sp.Assoc = ps.declassoc
			}
		default:
			ErrorMsg(g.Filename, ps.tokenLine,
				"Can't assign a precedence to \"%s\".", x)
			g.ErrorCount++
		}
	case waitingForDeclArg:
		if x[0] == '{' || x[0] == '"' || isAlnum(x[0]) {
			if *ps.declargslot != "" {
				arg := x
				if x[0] == '"' {
					arg = x[1:]
				}
				ErrorMsg(g.Filename, ps.tokenLine,
					"The argument \"%s\" to declaration \"%%%s\" is not the first.",
					arg, ps.declkeyword)
				g.ErrorCount++
				ps.state = resyncAfterDeclError
			} else {
				if x[0] == '"' || x[0] == '{' {
					*ps.declargslot = x[1:]
				} else {
					*ps.declargslot = x
				}
				if ps.decllnslot != nil {
					*ps.decllnslot = ps.tokenLine
				}
				ps.state = waitingForDeclOrRule
			}
		} else {
			ErrorMsg(g.Filename, ps.tokenLine,
				"Illegal argument to %%%s: %s", ps.declkeyword, x)
			g.ErrorCount++
			ps.state = resyncAfterDeclError
		}
	case resyncAfterRuleError, resyncAfterDeclError:
		if x[0] == '.' {
			ps.state = waitingForDeclOrRule
		}
		if x[0] == '%' {
			ps.state = waitingForDeclKeyword
		}
	}
}
