// Package complete resolves code completion for Kal source.
//
// A request compiles the buffer with a partial compiler, maps the caret to a
// token, classifies the trigger before it (`.`, `..` or `::`) and gathers
// candidates from the compiled unit. Local variables and receiver members are
// offered whenever the caret ends an identifier that starts its statement or
// expression.
package complete

import (
	"context"
	"errors"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rlch/kalc"
	"github.com/rlch/kalc/analysis"
	"github.com/rlch/kalc/compiler"
	"go.uber.org/zap"
)

// Strategy names the gatherer a request used.
type Strategy string

const (
	// StrategyNone means no gatherer produced anything.
	StrategyNone Strategy = "none"
	// StrategyScope offers locals, parameters and receiver members.
	StrategyScope Strategy = "scope"
	// StrategyMember offers members after `.`.
	StrategyMember Strategy = "member"
	// StrategyMixin offers mixin methods after `..`.
	StrategyMixin Strategy = "mixin"
	// StrategyMethodRef offers method names after `::`.
	StrategyMethodRef Strategy = "method_ref"
)

// Option configures a Completer.
type Option func(*Completer)

// WithMetrics records request metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Completer) {
		c.metrics = m
	}
}

// Completer answers completion requests. It is safe for concurrent use as
// long as its PartialCompiler is.
type Completer struct {
	compiler compiler.PartialCompiler
	logger   *zap.Logger
	metrics  *Metrics
}

// New creates a Completer. A nil logger discards logs.
func New(pc compiler.PartialCompiler, logger *zap.Logger, opts ...Option) *Completer {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Completer{compiler: pc, logger: logger}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Complete compiles source and returns the completion items for caret, the
// byte offset just after the last typed character.
//
// Complete never fails: compile faults, stale compiles, out-of-range carets
// and internal panics all yield an empty, non-nil slice.
func (c *Completer) Complete(ctx context.Context, identifier, source string, script bool, caret int) (items []Item) {
	start := time.Now()
	strategy := StrategyNone

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Completion panicked",
				zap.String("identifier", identifier),
				zap.Int("caret", caret),
				zap.Any("panic", r),
			)

			items = []Item{}
		}

		c.metrics.observe(strategy, len(items), time.Since(start))
	}()

	unit, err := c.compiler.PartialCompile(ctx, identifier, source, script)
	if err != nil {
		var fault *compiler.CompileFault

		switch {
		case errors.Is(err, compiler.ErrStale):
			c.logger.Debug("Completion on stale compile", zap.String("identifier", identifier))
		case errors.As(err, &fault):
			c.logger.Warn("Compile fault during completion",
				zap.String("identifier", identifier),
				zap.Error(err),
			)
		default:
			c.logger.Debug("Compile failed", zap.String("identifier", identifier), zap.Error(err))
		}

		return []Item{}
	}

	items, strategy = c.resolve(unit, caret)

	c.logger.Debug("Completion",
		zap.String("identifier", identifier),
		zap.Int("caret", caret),
		zap.String("strategy", string(strategy)),
		zap.Int("items", len(items)),
	)

	return items
}

// CompleteUnit returns the completion items for caret in an already
// compiled unit.
func (c *Completer) CompleteUnit(unit *compiler.Unit, caret int) []Item {
	items, _ := c.resolve(unit, caret)

	return items
}

// request holds the state of one resolution.
type request struct {
	unit   *compiler.Unit
	tokens *analysis.TokenCursor
	syntax *analysis.SyntaxCursor
	caret  int
}

func (c *Completer) resolve(unit *compiler.Unit, caret int) ([]Item, Strategy) {
	set := newItemSet()
	strategy := StrategyNone

	r := &request{
		unit:   unit,
		tokens: analysis.NewTokenCursor(unit.Tokens()),
		syntax: analysis.NewSyntaxCursor(unit.Tree()),
		caret:  caret,
	}

	if err := r.tokens.MoveTo(caret - 1); err != nil {
		return set.list(), strategy
	}

	current := r.tokens.Current()

	if scoped := c.guard(StrategyScope, func() []Item { return r.scopeItems(current) }); len(scoped) > 0 {
		set.add(scoped...)

		strategy = StrategyScope
	}

	if current.IsIdent() {
		if !r.tokens.Back(1, kalc.ChannelDefault) {
			return set.list(), strategy
		}

		current = r.tokens.Current()
	}

	prev, ok := r.tokens.LookBack(1, kalc.ChannelDefault)
	if !ok {
		return set.list(), strategy
	}

	var gather func(boundary int) []Item

	switch current.Type {
	case kalc.TokenDot:
		strategy, gather = StrategyMember, r.memberItems
	case kalc.TokenDotDot:
		strategy, gather = StrategyMixin, r.mixinItems
	case kalc.TokenDoubleColon:
		strategy, gather = StrategyMethodRef, r.methodRefItems
	default:
		return set.list(), strategy
	}

	set.add(c.guard(strategy, func() []Item { return gather(prev.Stop()) })...)

	return set.list(), strategy
}

// guard runs one gatherer, turning a panic into no items.
func (c *Completer) guard(strategy Strategy, gather func() []Item) (items []Item) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Completion strategy panicked",
				zap.String("strategy", string(strategy)),
				zap.Any("panic", r),
			)

			items = nil
		}
	}()

	return gather()
}

// ReplaceStart returns the start of the identifier that ends at anchor, the
// range a host replaces when inserting an item. It returns anchor when no
// identifier precedes it.
func ReplaceStart(source string, anchor int) int {
	if anchor > len(source) {
		anchor = len(source)
	}

	if anchor < 0 {
		return 0
	}

	start := anchor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(source[:start])
		if r != '_' && r != '$' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}

		start -= size
	}

	return start
}
