package complete_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rlch/kalc/compiler"
	"github.com/rlch/kalc/complete"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const fooClass = `class Foo {
	static int count;
	int size;
	constructor() {}
	static { count = 0; }
	static Foo make() { return new Foo(); }
	int run() { return size; }
	int run(int n) { return n; }
}
`

func newCompleter(opts ...complete.Option) *complete.Completer {
	return complete.New(compiler.New(nil), zap.NewNop(), opts...)
}

// completeAtEnd completes source with the caret after its last character.
func completeAtEnd(t *testing.T, source string, script bool) []complete.Item {
	t.Helper()

	items := newCompleter().Complete(context.Background(), "Test", source, script, len(source))
	require.NotNil(t, items)

	return items
}

func names(items []complete.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name()
	}

	return out
}

func kinds(items []complete.Item) map[string]complete.ItemKind {
	out := make(map[string]complete.ItemKind, len(items))
	for _, item := range items {
		out[item.Name()] = item.Kind()
	}

	return out
}

func TestComplete_Member(t *testing.T) {
	t.Parallel()

	items := completeAtEnd(t, "var x = 1; x.", true)

	assert.Equal(t, []string{
		"compareTo", "intValue", "longValue", "doubleValue", "toString", "hashCode", "equals",
	}, names(items))

	for _, item := range items {
		assert.Equal(t, complete.ItemMethod, item.Kind())
		assert.Equal(t, 13, item.Anchor())
	}
}

func TestComplete_MemberPrefix(t *testing.T) {
	t.Parallel()

	items := completeAtEnd(t, `var s = "kal"; s.to`, true)

	assert.Contains(t, names(items), "toUpperCase")
	assert.NotContains(t, names(items), "s", "scope completion fired inside a member access")
}

func TestComplete_StaticInstancePartition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "class reference",
			source: fooClass + "Foo.",
			want:   []string{"count", "make"},
		},
		{
			name:   "value",
			source: fooClass + "var f = new Foo(); f.",
			want:   []string{"size", "run", "run", "toString", "hashCode", "equals"},
		},
		{
			name:   "primitive value",
			source: "int n = 1; n.",
			want:   []string{},
		},
		{
			name:   "static field",
			source: "Integer.",
			want:   []string{"MAX_VALUE", "MIN_VALUE", "parseInt", "valueOf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			items := completeAtEnd(t, tt.source, true)
			assert.Equal(t, tt.want, names(items))
		})
	}
}

func TestComplete_MemberOverloads(t *testing.T) {
	t.Parallel()

	items := completeAtEnd(t, fooClass+"var f = new Foo(); f.", true)

	var labels []string

	for _, item := range items {
		if item.Name() == "run" {
			labels = append(labels, item.Label())
		}
	}

	assert.Equal(t, []string{"run()", "run(int n)"}, labels)
}

func TestComplete_ExcludesSpecialMethods(t *testing.T) {
	t.Parallel()

	for _, source := range []string{
		fooClass + "Foo.",
		fooClass + "var f = new Foo(); f.",
		fooClass + "Foo::",
	} {
		for _, item := range completeAtEnd(t, source, true) {
			assert.NotEqual(t, byte('<'), item.Name()[0], "%q offered %s", source, item.Name())
		}
	}
}

func TestComplete_Scope(t *testing.T) {
	t.Parallel()

	items := completeAtEnd(t, "int abc; ab", true)

	require.NotEmpty(t, items)
	assert.Equal(t, "abc", items[0].Name())
	assert.Equal(t, complete.ItemVariable, items[0].Kind())
	assert.Equal(t, "int", items[0].Detail())

	v, ok := items[0].(complete.VariableItem)
	require.True(t, ok)
	assert.False(t, v.IsParameter())
	assert.Equal(t, 0, v.DeclOffset)
}

func TestComplete_ScopeInMethod(t *testing.T) {
	t.Parallel()

	source := `class Foo {
	static int count;
	int size;
	int run(int n) {
		var a = 1;
		a
	}
}`
	caret := len(source) - len("\n\t}\n}")

	items := newCompleter().Complete(context.Background(), "Foo", source, false, caret)

	assert.Equal(t, []string{
		"a", "n", "count", "size", "run", "toString", "hashCode", "equals",
	}, names(items))

	got := kinds(items)
	assert.Equal(t, complete.ItemVariable, got["n"])
	assert.Equal(t, complete.ItemField, got["count"])
	assert.Equal(t, complete.ItemMethod, got["run"])

	n, ok := items[1].(complete.VariableItem)
	require.True(t, ok)
	assert.True(t, n.IsParameter())
}

func TestComplete_ScopeOnlyAtStart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
	}{
		{name: "member name", source: "int abc; abc.ab"},
		{name: "declared name", source: "int abc; int ab"},
		{name: "keyword", source: "int abc; return"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			for _, item := range completeAtEnd(t, tt.source, true) {
				assert.NotEqual(t, complete.ItemVariable, item.Kind(), "offered %s", item.Name())
			}
		})
	}
}

func TestComplete_MethodRef(t *testing.T) {
	t.Parallel()

	items := completeAtEnd(t, fooClass+"Foo::", true)

	assert.Equal(t, []string{"make", "run", "toString", "hashCode", "equals"}, names(items))

	for _, item := range items {
		assert.Equal(t, complete.ItemMethodRef, item.Kind())
	}

	assert.Equal(t, "Foo::run", items[1].Detail())
}

func TestComplete_MethodRefDeduplicates(t *testing.T) {
	t.Parallel()

	items := completeAtEnd(t, `var s = "x"; s::`, true)

	seen := map[string]bool{}
	for _, name := range names(items) {
		assert.False(t, seen[name], "duplicate %s", name)
		seen[name] = true
	}

	assert.True(t, seen["substring"])
	assert.True(t, seen["valueOf"])
}

func TestComplete_Mixin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "applicable",
			source: "import mixin Ints; var obj = 2; obj..",
			want:   []string{"isEven", "clamp"},
		},
		{
			name:   "receiver not assignable",
			source: "import mixin Strings; var obj = 2; obj..",
			want:   []string{},
		},
		{
			name:   "zero parameters excluded",
			source: "import mixin Objects; var obj = 2; obj..",
			want:   []string{"isNull", "requireNonNull", "toStr"},
		},
		{
			name:   "named import",
			source: "import mixin Strings.reverse as rev; var s = \"ab\"; s..",
			want:   []string{"rev"},
		},
		{
			name:   "class reference receiver",
			source: "import mixin Objects.isNull; String..",
			want:   []string{"isNull"},
		},
		{
			name:   "no imports",
			source: "var s = \"ab\"; s..",
			want:   []string{},
		},
		{
			name:   "partial name",
			source: "import mixin Ints; var obj = 2; obj..is",
			want:   []string{"isEven", "clamp"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			items := completeAtEnd(t, tt.source, true)

			var got []string

			for _, item := range items {
				if item.Kind() == complete.ItemMethod {
					got = append(got, item.Name())
				}
			}

			if len(tt.want) == 0 {
				assert.Empty(t, got)

				return
			}

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComplete_MixinPrecedence(t *testing.T) {
	t.Parallel()

	items := completeAtEnd(t,
		`import mixin Strings; import mixin Objects.isNull as isBlank; var s = "x"; s..`, true)

	require.Equal(t, []string{"isBlank", "repeat", "reverse", "padLeft"}, names(items))

	m, ok := items[0].(complete.MethodItem)
	require.True(t, ok)
	assert.Equal(t, "Objects", m.Method.Owner.Name)
	assert.Equal(t, "isNull", m.Method.Name)
	assert.Equal(t, "isBlank(Object obj)", m.Label())
	assert.Equal(t, "static boolean isNull(Object obj)", m.Detail())
}

func TestComplete_UnresolvedReceiver(t *testing.T) {
	t.Parallel()

	for _, source := range []string{
		"var a = new Foo(); a.",
		"var a = new Foo(); a::",
		"var a = new Foo(); var b = a; b.",
		"import mixin Objects;\nvar a = new Foo(); a..",
	} {
		assert.Empty(t, completeAtEnd(t, source, true), "%q", source)
	}
}

func TestComplete_OutOfRange(t *testing.T) {
	t.Parallel()

	source := "var x = 1; x."
	c := newCompleter()

	for _, caret := range []int{-1, 0, len(source) + 1, len(source) + 10} {
		items := c.Complete(context.Background(), "Test", source, true, caret)
		assert.NotNil(t, items)
		assert.Empty(t, items, "caret %d", caret)
	}

	assert.Empty(t, c.Complete(context.Background(), "Test", "", true, 1))
}

func TestComplete_Idempotent(t *testing.T) {
	t.Parallel()

	c := newCompleter()

	for _, source := range []string{
		"var x = 1; x.",
		"int abc; ab",
		fooClass + "Foo::",
		"import mixin Ints; var obj = 2; obj..",
	} {
		first := c.Complete(context.Background(), "Test", source, true, len(source))
		second := c.Complete(context.Background(), "Test", source, true, len(source))
		assert.ElementsMatch(t, names(first), names(second), source)
	}
}

func TestComplete_Whitespace(t *testing.T) {
	t.Parallel()

	assert.Empty(t, completeAtEnd(t, "var x = 1; x. ", true))
	assert.Empty(t, completeAtEnd(t, "var x = 1;\n", true))
}

type faultyCompiler struct {
	err   error
	panic any
}

func (f faultyCompiler) PartialCompile(context.Context, string, string, bool) (*compiler.Unit, error) {
	if f.panic != nil {
		panic(f.panic)
	}

	return nil, f.err
}

func TestComplete_CompileFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		compiler faultyCompiler
	}{
		{name: "stale", compiler: faultyCompiler{err: compiler.ErrStale}},
		{name: "fault", compiler: faultyCompiler{err: &compiler.CompileFault{Identifier: "Test", Value: "boom"}}},
		{name: "canceled", compiler: faultyCompiler{err: context.Canceled}},
		{name: "panic", compiler: faultyCompiler{panic: errors.New("boom")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := complete.New(tt.compiler, nil)

			items := c.Complete(context.Background(), "Test", "var x = 1; x.", true, 13)
			assert.NotNil(t, items)
			assert.Empty(t, items)
		})
	}
}

func TestCompleteUnit(t *testing.T) {
	t.Parallel()

	source := "int abc; abc."

	unit, err := compiler.New(nil).PartialCompile(context.Background(), "Test", source, true)
	require.NoError(t, err)

	c := newCompleter()
	assert.Empty(t, c.CompleteUnit(unit, 0))
	assert.Empty(t, c.CompleteUnit(unit, len(source)), "int has no members")
	assert.Equal(t, "abc", c.CompleteUnit(unit, len("int abc; ab"))[0].Name())
}

func TestComplete_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics := complete.NewMetrics(reg)
	c := newCompleter(complete.WithMetrics(metrics))

	c.Complete(context.Background(), "Test", "var x = 1; x.", true, 13)
	c.Complete(context.Background(), "Test", "var x = 1; x.", true, 0)
	c.Complete(context.Background(), "Test", "int abc; ab", true, 11)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Requests.WithLabelValues(string(complete.StrategyMember))), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Requests.WithLabelValues(string(complete.StrategyNone))), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Requests.WithLabelValues(string(complete.StrategyScope))), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.Items))
}

func TestReplaceStart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		source string
		anchor int
		want   int
	}{
		{source: "x.fo", anchor: 4, want: 2},
		{source: "x.", anchor: 2, want: 2},
		{source: "abc", anchor: 3, want: 0},
		{source: "a b_1", anchor: 5, want: 2},
		{source: "x.héllo", anchor: 8, want: 2},
		{source: "abc", anchor: 10, want: 0},
		{source: "abc", anchor: -1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, complete.ReplaceStart(tt.source, tt.anchor))
		})
	}
}
