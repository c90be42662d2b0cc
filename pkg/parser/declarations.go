package parser

import (
	"strconv"

	"github.com/compilium/compilium-go/pkg/cabs"
	"github.com/compilium/compilium-go/pkg/ctypes"
	"github.com/compilium/compilium-go/pkg/lexer"
)

var singleTokenTypeSpecs = []string{
	"void", "char", "int", "long", "unsigned", "extern", "__builtin_va_list",
}

func (p *Parser) parseFuncDef() *cabs.FuncDef {
	// function-definition:
	//   declaration-specifiers declarator compound-statement
	start := p.s.Pos()
	specs := p.parseDeclSpecs()
	var decl *cabs.Declarator
	if specs != nil {
		decl = p.parseDeclarator()
	}
	var body *cabs.CompoundStmt
	if decl != nil {
		body = p.parseCompoundStmt()
	}
	if body == nil {
		p.s.Seek(start)
		return nil
	}
	return &cabs.FuncDef{Specs: specs, Declarator: decl, Body: body}
}

func (p *Parser) parseDecl() *cabs.Decl {
	// declaration:
	//   declaration-specifiers init-declarator-list_opt ;
	specs := p.parseDeclSpecs()
	if specs == nil {
		return nil
	}
	decl := &cabs.Decl{Specs: specs, InitDeclarators: p.parseInitDeclarators()}
	p.expect(";")
	if decl.IsTypedef() {
		p.bindTypedef(decl)
	}
	return decl
}

// bindTypedef makes the declared name a type-specifier for everything
// parsed after this declaration.
func (p *Parser) bindTypedef(decl *cabs.Decl) {
	at := p.s.Last()
	if decl.InitDeclarators.Len() != 1 {
		p.semanticError(at, nil, "typedef must declare exactly one name")
		return
	}
	d, _ := decl.InitDeclarators.Items[0].(*cabs.Declarator)
	if d.Name() == "" {
		p.semanticError(at, nil, "typedef without a name")
		return
	}
	t := p.resolveType(decl.Specs, d.Pointer, d.Ident().Token)
	name := d.Name()
	p.scope.Bind(name, &cabs.TypeName{Name: name, Type: t})
	p.logger.Debug("bound typedef", "name", name, "type", t.String())
}

func (p *Parser) parseInitDeclarators() *cabs.List {
	return p.parseSeparated(p.parseInitDeclarator, ",")
}

func (p *Parser) parseInitDeclarator() cabs.Node {
	// init-declarator:
	//   declarator
	//   declarator = assignment-expression
	d := p.parseDeclarator()
	if d == nil {
		return nil
	}
	if _, ok := p.s.Consume("="); ok {
		init := p.parseAssignExpr()
		if init == nil {
			p.syntaxError("expected initializer for '%s'", d.Name())
			return nil
		}
		d.Initializer = init
	}
	return d
}

func (p *Parser) parseDeclSpecs() *cabs.List {
	// declaration-specifiers:
	//   [storage-class-specifier type-specifier type-qualifier function-specifier]+
	list := cabs.NewList()
	for {
		if kw := p.parseKeyword("typedef", "const", "_Noreturn"); kw != nil {
			list.Append(kw)
		} else if spec := p.parseTypeSpec(); spec != nil {
			list.Append(spec)
		} else {
			break
		}
	}
	if list.Len() == 0 {
		return nil
	}
	return list
}

func (p *Parser) parseSpecQualList() *cabs.List {
	// specifier-qualifier-list:
	//   [type-specifier type-qualifier]+
	list := cabs.NewList()
	for {
		if kw := p.parseKeyword("const"); kw != nil {
			list.Append(kw)
		} else if spec := p.parseTypeSpec(); spec != nil {
			list.Append(spec)
		} else {
			break
		}
	}
	if list.Len() == 0 {
		return nil
	}
	return list
}

func (p *Parser) parseKeyword(words ...string) *cabs.Keyword {
	if !p.s.IsNextIn(words...) {
		return nil
	}
	tok, _ := p.s.Pop()
	return &cabs.Keyword{Token: tok}
}

func (p *Parser) parseTypeSpec() cabs.Node {
	if kw := p.parseKeyword(singleTokenTypeSpecs...); kw != nil {
		return kw
	}
	if p.s.IsNext("struct") {
		return p.parseStructSpec()
	}
	if p.s.IsNext("enum") {
		return p.parseEnumSpec()
	}
	if tok, ok := p.s.Peek(); ok && p.isTypedefName(tok) {
		p.s.Pop()
		t, _ := p.scope.LookupType(tok.Text)
		return t
	}
	return nil
}

func (p *Parser) parseStructSpec() *cabs.StructSpec {
	// struct-or-union-specifier:
	//   struct identifier_opt { struct-declaration-list }
	//   struct identifier
	p.s.Pop()
	spec := &cabs.StructSpec{}
	if tag := p.parseName(); tag != nil {
		spec.Tag = tag.Token.Text
	}
	if _, ok := p.s.Consume("{"); !ok {
		if spec.Tag == "" {
			p.syntaxError("expected struct tag or '{'")
		}
		return spec
	}
	members := cabs.NewList()
	for !p.s.IsNext("}") {
		member := p.parseStructDecl()
		if member == nil {
			break
		}
		members.Append(member)
		p.expect(";")
	}
	p.expect("}")
	spec.Members = members
	return spec
}

func (p *Parser) parseStructDecl() *cabs.StructDecl {
	specs := p.parseSpecQualList()
	if specs == nil {
		return nil
	}
	decls := p.parseSeparated(p.parseDeclaratorNode, ",")
	if decls == nil {
		decls = cabs.NewList()
	}
	return &cabs.StructDecl{Specs: specs, Declarators: decls}
}

func (p *Parser) parseEnumSpec() *cabs.EnumSpec {
	// enum-specifier:
	//   enum identifier_opt { enumerator-list ,_opt }
	//   enum identifier
	p.s.Pop()
	spec := &cabs.EnumSpec{}
	if tag := p.parseName(); tag != nil {
		spec.Tag = tag.Token.Text
	}
	if _, ok := p.s.Consume("{"); !ok {
		if spec.Tag == "" {
			p.syntaxError("expected enum tag or '{'")
		}
		return spec
	}
	for !p.s.IsNext("}") {
		name := p.parseName()
		if name == nil {
			p.syntaxError("expected enumerator")
			return nil
		}
		tok := name.Token
		ordinal := len(spec.Enumerators)
		p.scope.Bind(tok.Text, &cabs.IntegerLiteral{
			Value: int64(ordinal),
			Token: lexer.Token{Kind: lexer.Integer, Text: strconv.Itoa(ordinal), File: tok.File, Line: tok.Line},
		})
		p.logger.Debug("bound enum constant", "name", tok.Text, "value", ordinal)
		spec.Enumerators = append(spec.Enumerators, tok)
		if _, ok := p.s.Consume(","); !ok {
			break
		}
	}
	p.expect("}")
	return spec
}

func (p *Parser) parsePointer() *cabs.Pointer {
	if _, ok := p.s.Consume("*"); !ok {
		return nil
	}
	return &cabs.Pointer{Inner: p.parsePointer()}
}

func (p *Parser) parseDeclarator() *cabs.Declarator {
	// declarator:
	//   pointer_opt direct-declarator
	start := p.s.Pos()
	ptr := p.parsePointer()
	direct := p.parseDirectDeclarator()
	if direct == nil {
		p.s.Seek(start)
		return nil
	}
	return &cabs.Declarator{Pointer: ptr, Direct: direct}
}

func (p *Parser) parseDeclaratorNode() cabs.Node {
	if d := p.parseDeclarator(); d != nil {
		return d
	}
	return nil
}

func (p *Parser) parseDirectDeclarator() *cabs.DirectDeclarator {
	// direct-declarator:
	//   identifier
	//   direct-declarator [ assignment-expression_opt ]
	//   direct-declarator ( parameter-type-list )
	//   direct-declarator ( identifier-list_opt )
	name := p.parseName()
	if name == nil {
		return nil
	}
	last := &cabs.DirectDeclarator{Kind: cabs.DirectIdent, Data: name}
	for {
		if _, ok := p.s.Consume("("); ok {
			if _, ok := p.s.Consume(")"); ok {
				last = &cabs.DirectDeclarator{Inner: last, Kind: cabs.DirectIdentList, Data: cabs.NewList()}
				continue
			}
			if params := p.parseParamTypeList(); params != nil {
				p.expect(")")
				last = &cabs.DirectDeclarator{Inner: last, Kind: cabs.DirectParamList, Data: params}
				continue
			}
			if idents := p.parseIdentList(); idents != nil {
				p.expect(")")
				last = &cabs.DirectDeclarator{Inner: last, Kind: cabs.DirectIdentList, Data: idents}
				continue
			}
			p.syntaxError("expected parameter list")
			return nil
		}
		if _, ok := p.s.Consume("["); ok {
			dim := p.parseAssignExpr()
			p.expect("]")
			last = &cabs.DirectDeclarator{Inner: last, Kind: cabs.DirectArray, Data: dim}
			continue
		}
		return last
	}
}

func (p *Parser) parseParamTypeList() *cabs.List {
	// parameter-type-list:
	//   parameter-list
	//   parameter-list , ...
	list := p.parseSeparated(p.parseParamDecl, ",")
	if list == nil {
		return nil
	}
	if _, ok := p.s.Consume(","); ok {
		list.Append(&cabs.Keyword{Token: p.expect("...")})
	}
	return list
}

func (p *Parser) parseParamDecl() cabs.Node {
	// parameter-declaration:
	//   declaration-specifiers declarator
	//   declaration-specifiers abstract-declarator_opt
	specs := p.parseDeclSpecs()
	if specs == nil {
		return nil
	}
	param := &cabs.ParamDecl{Specs: specs, Declarator: p.parseDeclarator()}
	if param.Declarator == nil {
		if ptr := p.parsePointer(); ptr != nil {
			param.Declarator = &cabs.Declarator{Pointer: ptr}
		}
	}
	return param
}

func (p *Parser) parseTypeName() *cabs.TypeName {
	// type-name:
	//   specifier-qualifier-list abstract-declarator_opt
	specs := p.parseSpecQualList()
	if specs == nil {
		return nil
	}
	at := p.s.Last()
	ptr := p.parsePointer()
	if ptr == nil && specs.Len() == 1 {
		if named, ok := specs.Items[0].(*cabs.TypeName); ok {
			return named
		}
	}
	return &cabs.TypeName{Type: p.resolveType(specs, ptr, at)}
}

// resolveType maps a specifier list plus pointer depth to a ctypes.Type.
// Exactly one type specifier is supported: void, char, int, an enum, or a
// typedef name.
func (p *Parser) resolveType(specs *cabs.List, ptr *cabs.Pointer, at lexer.Token) ctypes.Type {
	var base ctypes.Type
	count := 0
	for _, spec := range specs.Items {
		switch s := spec.(type) {
		case *cabs.Keyword:
			switch s.Token.Text {
			case "typedef", "const", "_Noreturn", "extern":
				continue
			case "void":
				base = ctypes.Void()
			case "char":
				base = ctypes.Char()
			case "int":
				base = ctypes.Int()
			default:
				p.semanticError(s.Token, nil, "type %s is not supported", s.Token.Text)
			}
		case *cabs.TypeName:
			base = s.Type
		case *cabs.EnumSpec:
			base = ctypes.Int()
		default:
			p.semanticError(at, nil, "struct types are not supported here")
		}
		count++
	}
	if count != 1 {
		p.semanticError(at, nil, "declaration specifiers with %d type specifiers are not supported", count)
	}
	return ctypes.PointerDepth(base, ptr.Depth())
}
