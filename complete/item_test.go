package complete

import (
	"testing"

	"github.com/rlch/kalc/types"
	"github.com/stretchr/testify/assert"
)

func TestOrderedMap(t *testing.T) {
	t.Parallel()

	m := newOrderedMap[string, int]()
	m.Set("b", 1)
	m.Set("a", 2)
	m.Set("b", 3)
	assert.False(t, m.SetIfAbsent("a", 4))
	assert.True(t, m.SetIfAbsent("c", 5))

	var keys []string

	var values []int

	for k, v := range m.All() {
		keys = append(keys, k)
		values = append(values, v)
	}

	assert.Equal(t, []string{"b", "a", "c"}, keys)
	assert.Equal(t, []int{3, 2, 5}, values)
	assert.Equal(t, 3, m.Len())

	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	for k := range m.All() {
		assert.Equal(t, "b", k)

		break
	}
}

func TestItemSet(t *testing.T) {
	t.Parallel()

	owner := types.NewClass("Foo", nil)
	run := owner.AddMethod("run", 0, types.Int)
	runN := owner.AddMethod("run", 0, types.Int, types.ParameterDescriptor{Name: "n", Type: types.Int})
	size := owner.AddField("size", types.Int, 0)

	set := newItemSet()
	assert.NotNil(t, set.list())

	set.add(
		VariableItem{Var: "x", Type: types.Int, DeclOffset: 0},
		VariableItem{Var: "x", Type: types.Int, DeclOffset: 0},
		VariableItem{Var: "x", Type: types.Long, DeclOffset: 12},
		FieldItem{Field: size},
		FieldItem{Field: size},
		MethodItem{Method: run},
		MethodItem{Method: runN},
		MethodItem{Method: run},
		MethodItem{Method: run, Alias: "go"},
		MethodRefItem{Method: "run", Owner: owner},
		MethodRefItem{Method: "run", Owner: owner},
	)

	var got []string
	for _, item := range set.list() {
		got = append(got, string(item.Kind())+":"+item.Label())
	}

	assert.Equal(t, []string{
		"variable:x",
		"variable:x",
		"field:size",
		"method:run()",
		"method:run(int n)",
		"method:go()",
		"method_ref:run",
	}, got)
}

func TestItemDetail(t *testing.T) {
	t.Parallel()

	owner := types.NewClass("Foo", nil)
	count := owner.AddField("count", types.Int, types.ModStatic)
	size := owner.AddField("size", types.Long, 0)
	factory := owner.AddMethod("make", types.ModStatic, owner.Type(),
		types.ParameterDescriptor{Name: "n", Type: types.Int})

	tests := []struct {
		item Item
		want string
	}{
		{item: VariableItem{Var: "x", Type: types.Double}, want: "double"},
		{item: VariableItem{Var: "x"}, want: ""},
		{item: FieldItem{Field: count}, want: "static int"},
		{item: FieldItem{Field: size}, want: "long"},
		{item: MethodItem{Method: factory}, want: "static Foo make(int n)"},
		{item: MethodRefItem{Method: "make", Owner: owner}, want: "Foo::make"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.item.Detail(), tt.item.Label())
	}
}
