package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestOrderedMap_Immutable(t *testing.T) {
	base := OrderedMapOf("b", 1, "a", 2)
	next := base.Set("c", 3).Delete("b")

	assert.Equal(t, []string{"b", "a"}, base.Keys())
	assert.Equal(t, []string{"a", "c"}, next.Keys())

	v, ok := base.Get("b")
	require.True(t, ok)
	assert.Equal(t, int64(1), v)

	// Deleting a missing key hands back the same map.
	same := base.Delete("zzz")
	assert.Equal(t, base.Keys(), same.Keys())
}

func TestOrderedMap_Merge(t *testing.T) {
	base := OrderedMapOf("a", 1, "b", OrderedMapOf("x", 1, "y", 2))
	over := OrderedMapOf("b", OrderedMapOf("y", 3), "c", 4)

	shallow := base.Merge(over)
	assert.True(t, shallow.Equal(OrderedMapOf("a", 1, "b", OrderedMapOf("y", 3), "c", 4)))
	assert.Equal(t, []string{"a", "b", "c"}, shallow.Keys())

	deep := base.MergeDeep(over)
	assert.True(t, deep.Equal(OrderedMapOf("a", 1, "b", OrderedMapOf("x", 1, "y", 3), "c", 4)))
}

func TestOrderedMap_EqualIgnoresOrderAndNumberKinds(t *testing.T) {
	a := OrderedMapOf("a", 1, "b", 2.0)
	b := OrderedMapOf("b", int64(2), "a", float64(1))
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(b.Set("a", 5)))
}

func TestOrderedMap_JSONKeepsOrder(t *testing.T) {
	v, err := ParseJSON([]byte(`{"z":1,"a":{"y":[1,"two",true,null],"b":2.5}}`), false)
	require.NoError(t, err)

	m, ok := v.(OrderedMap)
	require.True(t, ok)
	assert.Equal(t, []string{"z", "a"}, m.Keys())

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"z":1,"a":{"y":[1,"two",true,null],"b":2.5}}`, string(out))
	assert.Equal(t, `{"z":1,"a":{"y":[1,"two",true,null],"b":2.5}}`, string(out))
}

func TestParseJSON_Strict(t *testing.T) {
	v, err := ParseJSON([]byte(`{"net_rshares": 123456789012345678901}`), true)
	require.NoError(t, err)
	n, _ := v.(OrderedMap).Get("net_rshares")
	assert.Equal(t, json.Number("123456789012345678901"), n)

	v, err = ParseJSON([]byte(`{"n": 12}`), false)
	require.NoError(t, err)
	n, _ = v.(OrderedMap).Get("n")
	assert.Equal(t, int64(12), n)
}

func TestParseJSON_Errors(t *testing.T) {
	_, err := ParseJSON([]byte(`{"a":`), false)
	assert.Error(t, err)

	_, err = ParseJSON([]byte(`{"a":1} {"b":2}`), false)
	assert.ErrorContains(t, err, "trailing data")
}

func TestOrderedMap_YAMLKeepsOrder(t *testing.T) {
	var m OrderedMap
	require.NoError(t, yaml.Unmarshal([]byte("z: 1\na:\n  - x\n  - y\nb: {c: true}\n"), &m))
	assert.Equal(t, []string{"z", "a", "b"}, m.Keys())

	a, _ := m.Get("a")
	assert.Equal(t, []string{"x", "y"}, a.(List).Strings())

	out, err := yaml.Marshal(m)
	require.NoError(t, err)

	var back OrderedMap
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, m.Keys(), back.Keys())
	assert.True(t, m.Equal(back))
}

func TestList(t *testing.T) {
	l := StringList("a", "b")
	next := l.Append("c").Prepend("z")

	assert.Equal(t, []string{"a", "b"}, l.Strings())
	assert.Equal(t, []string{"z", "a", "b", "c"}, next.Strings())
	assert.Equal(t, []string{"z", "b", "c"}, next.Without("a").Strings())
	assert.Equal(t, []string{"z", "a", "c"}, next.Remove(2).Strings())
	assert.Equal(t, next.Strings(), next.Remove(99).Strings())
	assert.True(t, next.Contains("c"))
	assert.Equal(t, -1, next.IndexOf("q"))

	out, err := json.Marshal(List{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestWitnessSet(t *testing.T) {
	s := NewWitnessSet("b", "a", "b")
	assert.Equal(t, []string{"a", "b"}, s.Names())
	assert.True(t, s.Has("a"))

	assert.Equal(t, []string{"a", "b", "c"}, s.Add("c").Names())
	assert.Equal(t, []string{"b"}, s.Remove("a").Names())
	assert.True(t, s.Equal(s.Remove("missing")))
	assert.True(t, s.Equal(s.Add("c").Remove("c")))

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, string(out))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, int64(3), Normalize(3))
	assert.Equal(t, float64(1.5), Normalize(float32(1.5)))
	assert.Equal(t, []string{"x"}, Normalize([]string{"x"}).(List).Strings())

	m, ok := Normalize(map[string]int{"b": 1, "a": 2}).(OrderedMap)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, m.Keys())

	nested, ok := Normalize(map[string]any{"l": []any{map[string]any{"k": 1}}}).(OrderedMap)
	require.True(t, ok)
	l, _ := nested.Get("l")
	inner, ok := l.(List).At(0).(OrderedMap)
	require.True(t, ok)
	k, _ := inner.Get("k")
	assert.Equal(t, int64(1), k)
}
