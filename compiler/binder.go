package compiler

import (
	"fmt"
	"slices"

	"github.com/rlch/kalc"
	"github.com/rlch/kalc/ast"
	"github.com/rlch/kalc/types"
)

// ExecuteMethodName is the instance method a script's top-level statements form.
const ExecuteMethodName = "execute"

// binder declares classes and binds bodies of one unit.
type binder struct {
	unit    *Unit
	handler DiagnosticHandler
	phase   Phase

	// classOf maps class declaration nodes to their classes.
	classOf map[kalc.NodeID]*types.Class
	// methodOf maps method declaration nodes to their descriptors.
	methodOf map[kalc.NodeID]*types.MethodDescriptor
	script   *types.Class
}

// scope is the lexical context while binding a body.
type scope struct {
	this   *types.ClassType
	class  *types.Class
	method *ast.Method
	locals []*ast.LocalVar
}

func (s *scope) child() *scope {
	c := *s
	c.locals = slices.Clip(s.locals)

	return &c
}

func (s *scope) lookupLocal(name string) *ast.LocalVar {
	for i := len(s.locals) - 1; i >= 0; i-- {
		if s.locals[i].Name == name {
			return s.locals[i]
		}
	}

	return nil
}

func (b *binder) report(span kalc.Span, severity Severity, code, format string, args ...any) {
	d := &Diagnostic{
		Span:     span,
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
		Code:     code,
		Phase:    b.phase,
	}
	b.unit.diagnostics = append(b.unit.diagnostics, d)

	if b.handler != nil {
		b.handler(d)
	}
}

func (b *binder) tree() *kalc.Tree { return b.unit.tree }

func (b *binder) lib() *types.Library { return b.unit.lib }

func (b *binder) object() *types.Class { return b.lib().Object() }

func (b *binder) set(id kalc.NodeID, n *ast.Node) {
	if id >= 0 && int(id) < len(b.unit.nodes) {
		b.unit.nodes[id] = n
	}
}

// Declarations.

// declare runs the member phase: classes are declared first and resolved
// second, so classes may refer to classes declared later in the unit.
func (b *binder) declare() {
	tree := b.tree()
	root := tree.Node(tree.Root)

	b.classOf = make(map[kalc.NodeID]*types.Class)
	b.methodOf = make(map[kalc.NodeID]*types.MethodDescriptor)
	b.set(tree.Root, ast.Other("compilation unit"))

	if b.unit.script {
		b.script = types.NewClass(ScriptClassName(b.unit.identifier), b.object())
		if !b.lib().Define(b.script) {
			b.report(kalc.Span{}, SeverityError, CodeDuplicateClass,
				"script class %s clashes with a library class", b.script.Name)
		}

		b.unit.classes = append(b.unit.classes, b.script)
	}

	for _, child := range root.Children {
		n := tree.Node(child)
		if n.Kind != kalc.KindClass || n.Name < 0 {
			continue
		}

		name := tree.NameText(child)
		c := types.NewClass(name, nil)

		if !b.lib().Define(c) {
			b.report(n.Span, SeverityError, CodeDuplicateClass, "class %s is already defined", name)
		}

		b.classOf[child] = c
		b.unit.classes = append(b.unit.classes, c)
		b.set(child, ast.Other("class "+name))
	}

	for _, child := range root.Children {
		if c, ok := b.classOf[child]; ok {
			b.resolveSuper(child, c)
		}
	}

	for _, child := range root.Children {
		n := tree.Node(child)

		switch {
		case n.Kind == kalc.KindImport:
			b.declareImport(child)
		case n.Kind == kalc.KindClass:
			if c, ok := b.classOf[child]; ok {
				b.declareMembers(c, n.Children)
			}
		case n.Kind == kalc.KindMethod && b.script != nil:
			b.declareMethod(b.script, child)
		}
	}

	if b.script != nil {
		b.script.AddMethod(ExecuteMethodName, 0, types.Void)
	}

	for _, c := range b.unit.classes {
		if !c.HasConstructor() {
			c.AddMethod(types.ConstructorName, 0, types.Void)
		}
	}
}

func (b *binder) resolveSuper(id kalc.NodeID, c *types.Class) {
	n := b.tree().Node(id)
	c.Super = b.object()

	if n.TypeRef == kalc.NoNode {
		return
	}

	name := b.tree().NameText(n.TypeRef)

	super, ok := b.lib().Lookup(name)
	if !ok {
		b.report(b.tree().Node(n.TypeRef).Span, SeverityError, CodeUnknownType, "unknown superclass %s", name)

		return
	}

	if super.IsSubclassOf(c) {
		b.report(b.tree().Node(n.TypeRef).Span, SeverityError, CodeCyclicInheritance,
			"class %s cannot extend %s: cyclic inheritance", c.Name, name)

		return
	}

	c.Super = super
	b.set(n.TypeRef, ast.ClassReference(super))
}

func (b *binder) declareImport(id kalc.NodeID) {
	tree := b.tree()
	b.set(id, ast.Other("import"))

	var decl *kalc.ImportDecl

	span := tree.Node(id).Span
	for i := range tree.Imports {
		if tree.Imports[i].Span == span {
			decl = &tree.Imports[i]

			break
		}
	}

	if decl == nil || decl.Class == "" {
		return
	}

	c, ok := b.lib().Lookup(decl.Class)
	if !ok {
		b.report(decl.Span, SeverityError, CodeUnknownImport, "unknown class %s", decl.Class)

		return
	}

	if !decl.Mixin {
		return
	}

	if decl.Member == "" {
		b.unit.mixins.Classes = append(b.unit.mixins.Classes, c)

		return
	}

	alias := decl.Alias
	if alias == "" {
		alias = decl.Member
	}

	b.unit.mixins.Named = append(b.unit.mixins.Named, MemberImport{
		Alias:  alias,
		Class:  c,
		Member: decl.Member,
	})
}

func (b *binder) declareMembers(c *types.Class, members []kalc.NodeID) {
	tree := b.tree()

	for _, id := range members {
		n := tree.Node(id)

		switch n.Kind {
		case kalc.KindField:
			if n.Name < 0 {
				continue
			}

			var mods types.Modifier
			if n.HasFlag(kalc.FlagStatic) {
				mods |= types.ModStatic
			}

			c.AddField(tree.NameText(id), b.resolveTypeRef(n.TypeRef), mods)
			b.set(id, ast.Other("field"))
		case kalc.KindMethod:
			b.declareMethod(c, id)
		}
	}
}

func (b *binder) declareMethod(c *types.Class, id kalc.NodeID) {
	tree := b.tree()
	n := tree.Node(id)

	var (
		name string
		mods types.Modifier
		ret  types.Type = types.Void
	)

	switch {
	case n.HasFlag(kalc.FlagInitializer):
		name = types.InitializerName
		mods = types.ModStatic
	case n.HasFlag(kalc.FlagConstructor):
		name = types.ConstructorName
	default:
		if n.Name < 0 {
			return
		}

		name = tree.NameText(id)
		ret = b.resolveTypeRef(n.TypeRef)

		if n.HasFlag(kalc.FlagStatic) {
			mods = types.ModStatic
		}
	}

	var params []types.ParameterDescriptor

	for _, child := range n.Children {
		p := tree.Node(child)
		if p.Kind != kalc.KindParam {
			continue
		}

		params = append(params, types.ParameterDescriptor{
			Name: tree.NameText(child),
			Type: b.resolveTypeRef(p.TypeRef),
		})
		b.set(child, ast.Other("parameter"))
	}

	b.methodOf[id] = c.AddMethod(name, mods, ret, params...)
	b.set(id, ast.Other("method "+name))
}

// resolveTypeRef resolves a declared type. Unknown types are reported and
// fall back to Object so members stay usable.
func (b *binder) resolveTypeRef(id kalc.NodeID) types.Type {
	if id == kalc.NoNode {
		return b.objectType()
	}

	name := b.tree().NameText(id)

	t, ok := b.lib().ResolveType(name)
	if !ok {
		b.report(b.tree().Node(id).Span, SeverityError, CodeUnknownType, "unknown type %s", name)

		return b.objectType()
	}

	if ct, ok := t.(*types.ClassType); ok {
		b.set(id, ast.ClassReference(ct.Class()))
	}

	return t
}

func (b *binder) objectType() types.Type {
	if o := b.object(); o != nil {
		return o.Type()
	}

	return types.Null
}

// Bodies.

// bind runs the body phase.
func (b *binder) bind() {
	tree := b.tree()
	root := tree.Node(tree.Root)

	var top *scope

	if b.script != nil {
		top = &scope{
			this:   b.script.Type(),
			class:  b.script,
			method: &ast.Method{Name: ExecuteMethodName, Class: b.script},
		}
	}

	for _, child := range root.Children {
		n := tree.Node(child)

		switch {
		case n.Kind == kalc.KindClass:
			if c, ok := b.classOf[child]; ok {
				b.bindClass(c, n.Children)
			}
		case n.Kind == kalc.KindMethod && b.script != nil:
			b.bindMethod(b.script, child)
		case n.Kind.IsStatement() && top != nil:
			top = b.bindStatement(child, top)
		}
	}
}

func (b *binder) bindClass(c *types.Class, members []kalc.NodeID) {
	tree := b.tree()

	for _, id := range members {
		n := tree.Node(id)

		switch n.Kind {
		case kalc.KindMethod:
			b.bindMethod(c, id)
		case kalc.KindField:
			s := &scope{class: c}
			if !n.HasFlag(kalc.FlagStatic) {
				s.this = c.Type()
			}

			for _, child := range n.Children {
				if tree.Node(child).Kind.IsExpression() {
					b.bindExpr(child, s)
				}
			}
		}
	}
}

func (b *binder) bindMethod(c *types.Class, id kalc.NodeID) {
	tree := b.tree()
	n := tree.Node(id)

	desc, ok := b.methodOf[id]
	if !ok {
		return
	}

	method := &ast.Method{Name: desc.Name, Static: desc.IsStatic(), Class: c}
	for _, p := range desc.Params {
		method.Params = append(method.Params, ast.Parameter{Name: p.Name, Type: p.Type})
	}

	s := &scope{class: c, method: method}
	if !desc.IsStatic() {
		s.this = c.Type()
	}

	for _, child := range n.Children {
		if tree.Node(child).Kind == kalc.KindBlock {
			b.bindBlock(child, s)
		}
	}
}

func (b *binder) bindBlock(id kalc.NodeID, s *scope) {
	b.set(id, ast.Other("block"))

	inner := s.child()
	for _, child := range b.tree().Node(id).Children {
		inner = b.bindStatement(child, inner)
	}
}

// bindStatement records the scope visible before the statement and binds it.
// It returns the scope for the next statement.
func (b *binder) bindStatement(id kalc.NodeID, s *scope) *scope {
	tree := b.tree()
	n := tree.Node(id)

	b.unit.scopes[id] = &ScopeInfo{
		This:   s.this,
		Locals: slices.Clone(s.locals),
		Method: s.method,
	}
	b.set(id, ast.Other(n.Kind.String()))

	switch n.Kind {
	case kalc.KindVarStat:
		return b.bindVar(id, s)
	case kalc.KindBlockStat:
		inner := s.child()
		for _, child := range n.Children {
			inner = b.bindStatement(child, inner)
		}
	default:
		for _, child := range n.Children {
			c := tree.Node(child)

			switch {
			case c.Kind.IsExpression():
				b.bindExpr(child, s)
			case c.Kind.IsStatement():
				b.bindStatement(child, s.child())
			}
		}
	}

	return s
}

func (b *binder) bindVar(id kalc.NodeID, s *scope) *scope {
	tree := b.tree()
	n := tree.Node(id)

	var init types.Type

	for _, child := range n.Children {
		if tree.Node(child).Kind.IsExpression() {
			if node := b.bindExpr(child, s); node != nil && node.Kind() == ast.KindExpression {
				init = node.Type()
			}
		}
	}

	if n.Name < 0 {
		return s
	}

	var t types.Type

	if n.HasFlag(kalc.FlagInferred) {
		t = b.inferVarType(init)
	} else {
		t = b.resolveTypeRef(n.TypeRef)
	}

	next := s.child()
	next.locals = append(next.locals, &ast.LocalVar{
		Name:   tree.NameText(id),
		Type:   t,
		Offset: n.Span.Start,
	})

	return next
}

// inferVarType gives `var` declarations the boxed class of a primitive
// initializer and Object for null. An unresolved initializer leaves the
// variable untyped.
func (b *binder) inferVarType(init types.Type) types.Type {
	switch t := init.(type) {
	case nil:
		return nil
	case *types.Primitive:
		if c, ok := b.lib().Lookup(t.BoxedName()); ok {
			return c.Type()
		}
	case *types.ClassType:
		return t
	}

	return b.objectType()
}

// bindExpr binds an expression and its operands. It returns the bound node,
// or nil when the expression could not be resolved.
func (b *binder) bindExpr(id kalc.NodeID, s *scope) *ast.Node {
	node := b.resolveExpr(id, s)
	if node != nil {
		b.set(id, node)
	}

	return node
}

func (b *binder) resolveExpr(id kalc.NodeID, s *scope) *ast.Node {
	tree := b.tree()
	n := tree.Node(id)

	switch n.Kind {
	case kalc.KindNameExpr:
		return b.resolveName(id, s)
	case kalc.KindLiteralExpr:
		return b.resolveLiteral(tree.Tokens[n.Name])
	case kalc.KindThisExpr:
		if s.this == nil {
			return nil
		}

		return ast.Expression(s.this)
	case kalc.KindParenExpr:
		if len(n.Children) == 0 {
			return nil
		}

		if inner := b.bindExpr(n.Children[0], s); inner != nil && inner.Kind() == ast.KindExpression {
			return ast.Expression(inner.Type())
		}

		return nil
	case kalc.KindMemberExpr:
		return b.resolveMember(id, s)
	case kalc.KindCallExpr:
		return b.resolveCall(id, s)
	case kalc.KindMixinCallExpr:
		return b.resolveMixinCall(id, s)
	case kalc.KindMethodRefExpr:
		if len(n.Children) > 0 {
			b.bindExpr(n.Children[0], s)
		}

		return ast.Other("method reference")
	case kalc.KindNewExpr:
		args := b.bindOperands(n.Children, s)

		if n.TypeRef == kalc.NoNode {
			return nil
		}

		c, ok := b.lib().Lookup(tree.NameText(n.TypeRef))
		if !ok {
			b.report(n.Span, SeverityError, CodeUnknownType, "unknown class %s", tree.NameText(n.TypeRef))

			return nil
		}

		b.set(n.TypeRef, ast.ClassReference(c))

		if ctors := named(c.DeclaredMethods(), types.ConstructorName); len(ctors) > 0 {
			b.unit.calls[id] = &Call{Method: selectOverload(ctors, "", args), Candidates: ctors}
		}

		return ast.Expression(c.Type())
	case kalc.KindUnaryExpr:
		operand := b.bindOperands(n.Children, s)
		if tree.Tokens[n.Name].Text == "!" {
			return ast.Expression(types.Boolean)
		}

		if len(operand) == 1 {
			if p := b.unbox(operand[0]); p != nil && p.IsNumeric() {
				return ast.Expression(promote(p, types.Int))
			}
		}

		return nil
	case kalc.KindBinaryExpr:
		return b.resolveBinary(tree.Tokens[n.Name].Text, b.bindOperands(n.Children, s))
	case kalc.KindAssignExpr:
		operands := b.bindOperands(n.Children, s)
		if len(operands) > 0 && operands[0] != nil {
			return ast.Expression(operands[0])
		}

		return nil
	default:
		return nil
	}
}

// bindOperands binds child expressions and returns their types; unresolved
// operands are nil.
func (b *binder) bindOperands(children []kalc.NodeID, s *scope) []types.Type {
	operands := make([]types.Type, 0, len(children))

	for _, child := range children {
		if !b.tree().Node(child).Kind.IsExpression() {
			continue
		}

		var t types.Type
		if node := b.bindExpr(child, s); node != nil && node.Kind() == ast.KindExpression {
			t = node.Type()
		}

		operands = append(operands, t)
	}

	return operands
}

func (b *binder) resolveName(id kalc.NodeID, s *scope) *ast.Node {
	tree := b.tree()
	name := tree.NameText(id)

	if local := s.lookupLocal(name); local != nil {
		return ast.Expression(local.Type)
	}

	if s.method != nil {
		for _, p := range s.method.Params {
			if p.Name == name {
				return ast.Expression(p.Type)
			}
		}
	}

	if s.class != nil {
		for _, f := range s.class.Type().FieldDescriptors() {
			if f.Name == name && (s.this != nil || f.IsStatic()) {
				return ast.Expression(f.Type)
			}
		}
	}

	if c, ok := b.lib().Lookup(name); ok {
		return ast.ClassReference(c)
	}

	b.report(tree.Node(id).Span, SeverityError, CodeUnresolvedName, "cannot resolve %s", name)

	return nil
}

func (b *binder) resolveLiteral(tok kalc.Token) *ast.Node {
	switch tok.Type {
	case kalc.TokenInt:
		return ast.Expression(types.Int)
	case kalc.TokenFloat:
		return ast.Expression(types.Double)
	case kalc.TokenTrue, kalc.TokenFalse:
		return ast.Expression(types.Boolean)
	case kalc.TokenNull:
		return ast.Expression(types.Null)
	case kalc.TokenString:
		if c, ok := b.lib().Lookup(types.StringClassName); ok {
			return ast.Expression(c.Type())
		}
	}

	return nil
}

// receiver binds the receiver of a member access and returns its object
// type and whether the access is static.
func (b *binder) receiver(id kalc.NodeID, s *scope) (types.ObjectType, bool) {
	node := b.bindExpr(id, s)
	if node == nil {
		return nil, false
	}

	switch node.Kind() {
	case ast.KindExpression:
		if ot, ok := node.Type().(types.ObjectType); ok {
			return ot, false
		}

		if p, ok := node.Type().(*types.Primitive); ok {
			if c, ok := b.lib().Lookup(p.BoxedName()); ok && p.BoxedName() != "" {
				return c.Type(), false
			}
		}
	case ast.KindClassReference:
		return node.Class().Type(), true
	case ast.KindOther:
	}

	return nil, false
}

func (b *binder) resolveMember(id kalc.NodeID, s *scope) *ast.Node {
	tree := b.tree()
	n := tree.Node(id)

	if len(n.Children) == 0 {
		return nil
	}

	recv, static := b.receiver(n.Children[0], s)
	if recv == nil || n.Name < 0 {
		return nil
	}

	name := tree.NameText(id)

	for _, f := range recv.FieldDescriptors() {
		if f.Name == name && (!static || f.IsStatic()) {
			return ast.Expression(f.Type)
		}
	}

	b.report(tree.Tokens[n.Name].Span, SeverityError, CodeUnknownMember, "%s has no field %s", recv, name)

	return nil
}

func (b *binder) resolveCall(id kalc.NodeID, s *scope) *ast.Node {
	tree := b.tree()
	n := tree.Node(id)

	if len(n.Children) == 0 {
		return nil
	}

	callee := tree.Node(n.Children[0])
	args := b.bindOperands(n.Children[1:], s)

	var (
		candidates []*types.MethodDescriptor
		name       string
	)

	switch callee.Kind {
	case kalc.KindMemberExpr:
		if len(callee.Children) == 0 || callee.Name < 0 {
			return nil
		}

		recv, static := b.receiver(callee.Children[0], s)
		if recv == nil {
			return nil
		}

		name = tree.NameText(callee.ID)
		for _, m := range recv.MethodDescriptors(true, true) {
			if !static || m.IsStatic() {
				candidates = append(candidates, m)
			}
		}

		b.set(callee.ID, ast.Other("method "+name))
	case kalc.KindNameExpr:
		if s.class == nil {
			return nil
		}

		name = tree.NameText(callee.ID)
		for _, m := range s.class.Type().MethodDescriptors(true, true) {
			if s.this != nil || m.IsStatic() {
				candidates = append(candidates, m)
			}
		}

		b.set(callee.ID, ast.Other("method "+name))
	default:
		b.bindExpr(callee.ID, s)

		return nil
	}

	m := selectOverload(candidates, name, args)
	b.unit.calls[id] = &Call{Method: m, Candidates: named(candidates, name)}

	if m == nil {
		b.report(callee.Span, SeverityError, CodeUnknownMember, "no method %s with %d arguments", name, len(args))

		return nil
	}

	return ast.Expression(m.Return)
}

func (b *binder) resolveMixinCall(id kalc.NodeID, s *scope) *ast.Node {
	tree := b.tree()
	n := tree.Node(id)

	if len(n.Children) == 0 {
		return nil
	}

	b.bindExpr(n.Children[0], s)
	args := b.bindOperands(n.Children[1:], s)

	if n.Name < 0 {
		return nil
	}

	name := tree.NameText(id)
	mixins := b.unit.mixins

	var candidates []*types.MethodDescriptor

	for i := len(mixins.Named) - 1; i >= 0; i-- {
		imp := mixins.Named[i]
		if imp.Alias != name {
			continue
		}

		for _, m := range imp.Class.DeclaredMethods() {
			if m.Name == imp.Member && m.IsStatic() {
				candidates = append(candidates, m)
			}
		}

		break
	}

	if len(candidates) == 0 {
		for i := len(mixins.Classes) - 1; i >= 0; i-- {
			for _, m := range mixins.Classes[i].DeclaredMethods() {
				if m.Name == name && m.IsStatic() {
					candidates = append(candidates, m)
				}
			}
		}
	}

	// The receiver is passed as the first argument.
	m := selectOverload(candidates, "", append([]types.Type{nil}, args...))
	if len(candidates) > 0 {
		b.unit.calls[id] = &Call{Method: m, Candidates: candidates, Mixin: true}
	}

	if m == nil {
		return nil
	}

	return ast.Expression(m.Return)
}

// selectOverload picks the first method named name (any name when empty)
// whose arity matches and whose parameters accept the known argument types,
// falling back to the first arity match.
func selectOverload(methods []*types.MethodDescriptor, name string, args []types.Type) *types.MethodDescriptor {
	var fallback *types.MethodDescriptor

	for _, m := range methods {
		if (name != "" && m.Name != name) || len(m.Params) != len(args) {
			continue
		}

		if fallback == nil {
			fallback = m
		}

		if accepts(m, args) {
			return m
		}
	}

	return fallback
}

// named returns the methods called name.
func named(methods []*types.MethodDescriptor, name string) []*types.MethodDescriptor {
	var out []*types.MethodDescriptor

	for _, m := range methods {
		if m.Name == name {
			out = append(out, m)
		}
	}

	return out
}

func accepts(m *types.MethodDescriptor, args []types.Type) bool {
	for i, arg := range args {
		if arg != nil && !m.Params[i].Type.IsAssignableFrom(arg) {
			return false
		}
	}

	return true
}

func (b *binder) resolveBinary(op string, operands []types.Type) *ast.Node {
	switch op {
	case "||", "&&", "==", "!=", "<", ">", "<=", ">=":
		return ast.Expression(types.Boolean)
	}

	if len(operands) != 2 || operands[0] == nil || operands[1] == nil {
		return nil
	}

	if op == "+" {
		for _, operand := range operands {
			if b.isString(operand) {
				return ast.Expression(operand)
			}
		}
	}

	l, r := b.unbox(operands[0]), b.unbox(operands[1])
	if l == nil || r == nil || !l.IsNumeric() || !r.IsNumeric() {
		return nil
	}

	return ast.Expression(promote(promote(l, r), types.Int))
}

func (b *binder) isString(t types.Type) bool {
	ct, ok := t.(*types.ClassType)

	return ok && ct.Class().Name == types.StringClassName
}

// unbox returns the primitive behind t, if any.
func (b *binder) unbox(t types.Type) *types.Primitive {
	switch t := t.(type) {
	case *types.Primitive:
		return t
	case *types.ClassType:
		for _, p := range []*types.Primitive{types.Boolean, types.Char, types.Int, types.Long, types.Float, types.Double} {
			if p.BoxedName() == t.Class().Name {
				return p
			}
		}
	}

	return nil
}

// promote returns the wider of two numeric primitives.
func promote(a, b *types.Primitive) *types.Primitive {
	if a.IsAssignableFrom(b) {
		return a
	}

	return b
}
