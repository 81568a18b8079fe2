package complete

import (
	"github.com/rlch/kalc"
	"github.com/rlch/kalc/analysis"
)

// scopeItems offers the locals, parameters and receiver members visible at
// tok. It only applies when tok is an identifier that starts its enclosing
// statement or expression, so `a.fo` or `int fo` offer nothing here.
func (r *request) scopeItems(tok kalc.Token) []Item {
	if !tok.IsIdent() {
		return nil
	}

	parent, ok := r.syntax.Enclosing(tok.Start(), analysis.StatementOrExpression)
	if !ok || !r.syntax.IsAtStart(parent, tok) {
		return nil
	}

	stat, ok := r.syntax.Enclosing(tok.Start(), analysis.Statement)
	if !ok {
		return nil
	}

	info, ok := r.unit.Scope(stat)
	if !ok {
		return nil
	}

	var items []Item

	for _, local := range info.Locals {
		items = append(items, VariableItem{
			Var:        local.Name,
			Type:       local.Type,
			DeclOffset: local.Offset,
			Caret:      r.caret,
		})
	}

	if info.Method != nil {
		for _, p := range info.Method.Params {
			items = append(items, VariableItem{
				Var:        p.Name,
				Type:       p.Type,
				DeclOffset: -1,
				Caret:      r.caret,
			})
		}
	}

	if info.This != nil {
		items = append(items, r.membersOf(info.This, anyMember)...)
	}

	return items
}
