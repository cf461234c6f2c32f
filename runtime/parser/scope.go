package parser

import (
	"github.com/aledsdavies/svelteparse/runtime/builder"
	"github.com/aledsdavies/svelteparse/runtime/directives"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
)

// scriptDeclarations returns the top-level names declared by a <script>
// body: let, var and const bindings (destructuring included), functions,
// classes and imports.
func scriptDeclarations(body []byte, start lexer.Position) []string {
	var sig []lexer.Token
	for _, tok := range lexer.ScanScript(body, start, false) {
		switch tok.Type {
		case lexer.START_MUSTACHE, lexer.EXTERNAL_DELIM:
			if tok.Text[0] == '{' {
				tok.Type = lexer.LBRACE
			} else {
				tok.Type = lexer.RBRACE
			}
		case lexer.END_MUSTACHE:
			tok.Type = lexer.RBRACE
		}
		if !tok.Type.IsTrivia() {
			sig = append(sig, tok)
		}
	}

	d := &declScanner{tokens: sig}
	d.scan()
	return d.names
}

type declScanner struct {
	tokens []lexer.Token
	i      int
	names  []string
}

func (d *declScanner) peek(n int) lexer.Token {
	if d.i+n < len(d.tokens) {
		return d.tokens[d.i+n]
	}
	return d.tokens[len(d.tokens)-1]
}

func (d *declScanner) word(n int) string {
	t := d.peek(n)
	if t.Type == lexer.IDENTIFIER || t.Type.IsKeyword() {
		return string(t.Text)
	}
	return ""
}

func (d *declScanner) scan() {
	depth := 0
	for d.i < len(d.tokens) && d.peek(0).Type != lexer.EOF {
		tok := d.peek(0)
		switch tok.Type {
		case lexer.LBRACE, lexer.LPAREN, lexer.LBRACKET:
			depth++
			d.i++
			continue
		case lexer.RBRACE, lexer.RPAREN, lexer.RBRACKET:
			depth--
			d.i++
			continue
		}
		if depth != 0 {
			d.i++
			continue
		}
		// Only statement starts declare names.
		if d.i > 0 && d.tokens[d.i-1].Type == lexer.DOT {
			d.i++
			continue
		}
		switch d.word(0) {
		case "let", "var", "const":
			d.i++
			d.bindingList()
		case "function", "class":
			d.i++
			if d.peek(0).Type == lexer.STAR {
				d.i++
			}
			if d.peek(0).Type == lexer.IDENTIFIER {
				d.names = append(d.names, string(d.peek(0).Text))
				d.i++
			}
		case "import":
			d.i++
			d.importClause()
		default:
			d.i++
		}
	}
}

// bindingList reads "a = 1, {b, c: d} = e, [f]".
func (d *declScanner) bindingList() {
	for {
		d.pattern()
		// Skip a type annotation and initializer up to the next top-level
		// comma or statement end.
		depth := 0
	skip:
		for d.peek(0).Type != lexer.EOF {
			switch d.peek(0).Type {
			case lexer.LBRACE, lexer.LPAREN, lexer.LBRACKET:
				depth++
			case lexer.RBRACE, lexer.RPAREN, lexer.RBRACKET:
				if depth == 0 {
					return
				}
				depth--
			case lexer.COMMA:
				if depth == 0 {
					break skip
				}
			case lexer.SEMICOLON:
				if depth == 0 {
					return
				}
			}
			if depth == 0 && d.i > 0 && d.peek(0).Position.Line > d.tokens[d.i-1].Position.Line && d.atStatementStart() {
				return
			}
			d.i++
		}
		if d.peek(0).Type != lexer.COMMA {
			return
		}
		d.i++
	}
}

func (d *declScanner) atStatementStart() bool {
	switch d.word(0) {
	case "let", "var", "const", "function", "class", "import", "export":
		return true
	}
	return false
}

// pattern collects the bound names of an identifier, object or array
// pattern.
func (d *declScanner) pattern() {
	switch d.peek(0).Type {
	case lexer.IDENTIFIER:
		d.names = append(d.names, string(d.peek(0).Text))
		d.i++
	case lexer.LBRACE:
		d.i++
		for d.peek(0).Type != lexer.RBRACE && d.peek(0).Type != lexer.EOF {
			switch {
			case d.peek(0).Type == lexer.ELLIPSIS:
				d.i++
				d.pattern()
			case d.peek(1).Type == lexer.COLON:
				d.i += 2
				d.pattern()
			case d.peek(0).Type == lexer.IDENTIFIER:
				d.pattern()
			default:
				d.i++
				continue
			}
			d.skipDefault(lexer.RBRACE)
			if d.peek(0).Type == lexer.COMMA {
				d.i++
			}
		}
		if d.peek(0).Type == lexer.RBRACE {
			d.i++
		}
	case lexer.LBRACKET:
		d.i++
		for d.peek(0).Type != lexer.RBRACKET && d.peek(0).Type != lexer.EOF {
			switch d.peek(0).Type {
			case lexer.COMMA:
				d.i++
				continue
			case lexer.ELLIPSIS:
				d.i++
			}
			d.pattern()
			d.skipDefault(lexer.RBRACKET)
			if d.peek(0).Type == lexer.COMMA {
				d.i++
			}
		}
		if d.peek(0).Type == lexer.RBRACKET {
			d.i++
		}
	default:
		d.i++
	}
}

// skipDefault skips "= value" up to the next comma or close at depth zero.
func (d *declScanner) skipDefault(close lexer.TokenType) {
	depth := 0
	for t := d.peek(0).Type; t != lexer.EOF; t = d.peek(0).Type {
		switch t {
		case lexer.LBRACE, lexer.LPAREN, lexer.LBRACKET:
			depth++
		case lexer.RBRACE, lexer.RPAREN, lexer.RBRACKET:
			if depth == 0 {
				return
			}
			depth--
		case lexer.COMMA:
			if depth == 0 {
				return
			}
		}
		d.i++
	}
}

// importClause reads "x from", "{a, b as c} from", "* as ns from" and
// "x, {y} from". Type-only imports declare names too.
func (d *declScanner) importClause() {
	if d.word(0) == "type" && d.peek(1).Type != lexer.COMMA && d.word(1) != "from" {
		d.i++
	}
	for d.peek(0).Type != lexer.EOF {
		switch {
		case d.peek(0).Type == lexer.STRING, d.word(0) == "from":
			return
		case d.peek(0).Type == lexer.STAR:
			d.i++
			if d.word(0) == "as" && d.peek(1).Type == lexer.IDENTIFIER {
				d.names = append(d.names, string(d.peek(1).Text))
				d.i += 2
			}
		case d.peek(0).Type == lexer.LBRACE:
			d.i++
			d.importSpecifiers()
		case d.peek(0).Type == lexer.IDENTIFIER:
			d.names = append(d.names, string(d.peek(0).Text))
			d.i++
		default:
			d.i++
		}
	}
}

func (d *declScanner) importSpecifiers() {
	for d.peek(0).Type != lexer.RBRACE && d.peek(0).Type != lexer.EOF {
		if d.word(0) == "type" && (d.peek(1).Type == lexer.IDENTIFIER || d.peek(1).Type.IsKeyword()) && d.word(1) != "as" {
			d.i++
		}
		name := d.word(0)
		d.i++
		if d.word(0) == "as" {
			name = d.word(1)
			d.i += 2
		}
		if name != "" {
			d.names = append(d.names, name)
		}
		if d.peek(0).Type == lexer.COMMA {
			d.i++
		}
	}
	if d.peek(0).Type == lexer.RBRACE {
		d.i++
	}
}

// templateBindings returns the names a region binds: each items and
// indexes, then/catch values, snippet names and parameters, let: values
// and {@const} declarations.
func templateBindings(tree *builder.Tree) []string {
	var names []string
	tree.Walk(func(id builder.NodeID, _ int) bool {
		switch tree.Kind(id) {
		case builder.KindParameter:
			names = append(names, patternNames(tree, id)...)
			return false
		case builder.KindVariable:
			names = append(names, patternNames(tree, id)...)
			return false
		case builder.KindFunctionDeclaration:
			if toks := tree.SignificantTokens(id); len(toks) > 0 && toks[0].Type == lexer.IDENTIFIER {
				names = append(names, string(toks[0].Text))
			}
		}
		return true
	})
	return names
}

// patternNames collects bound identifiers under a binding node. Type
// annotations, default values and initializers bind nothing, and the key of
// "key: target" is not a binding.
func patternNames(tree *builder.Tree, id builder.NodeID) []string {
	var names []string
	var visit func(id builder.NodeID)
	visit = func(id builder.NodeID) {
		kind := tree.Kind(id)
		children := tree.Nodes[id].Children
		// In "key: target" everything before the colon is the key.
		keyed := false
		if kind == builder.KindPatternProperty {
			for _, c := range children {
				if c.IsToken && tree.Tokens[c.Index].Type == lexer.COLON {
					keyed = true
				}
			}
		}
		for _, c := range children {
			if !c.IsToken {
				if keyed {
					continue
				}
				switch tree.Kind(builder.NodeID(c.Index)) {
				case builder.KindTypeAnnotation, builder.KindDefaultValue:
					continue
				}
				visit(builder.NodeID(c.Index))
				continue
			}
			tok := tree.Tokens[c.Index]
			if keyed {
				keyed = tok.Type != lexer.COLON
				continue
			}
			if kind == builder.KindVariable && tok.Type == lexer.EQ {
				return
			}
			if tok.Type == lexer.IDENTIFIER {
				names = append(names, string(tok.Text))
			}
		}
	}
	visit(id)
	return names
}

// buildScope collects script declarations and template bindings.
func (p *documentParser) buildScope() *directives.Scope {
	scope := directives.NewScope()
	for _, i := range p.scripts {
		s := p.tree.Tokens[i]
		for _, name := range scriptDeclarations(s.Text, s.Position) {
			scope.Add(name)
		}
	}
	for _, r := range p.tree.Regions {
		if r.Tree == nil {
			continue
		}
		for _, name := range templateBindings(r.Tree) {
			scope.Add(name)
		}
	}
	return scope
}
