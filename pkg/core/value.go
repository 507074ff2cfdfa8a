package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

// Payload is the raw, untyped shape of an inbound record (a post, an account,
// a metadata blob). It is normalized into immutable values on entry.
type Payload = map[string]any

// OrderedMap is an immutable string-keyed map that remembers insertion order.
// Every mutating method returns a new map; the receiver is never changed.
type OrderedMap struct {
	keys   []string
	values map[string]any
}

// OrderedMapOf builds a map from alternating key/value arguments.
func OrderedMapOf(kv ...any) OrderedMap {
	var m OrderedMap
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			k = fmt.Sprint(kv[i])
		}
		m.put(k, Normalize(kv[i+1]))
	}
	return m
}

// put writes in place. Only used while a map is being built.
func (m *OrderedMap) put(k string, v any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, ok := m.values[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.values[k] = v
}

func (m OrderedMap) Len() int { return len(m.keys) }

// Keys returns the keys in order.
func (m OrderedMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m OrderedMap) Get(k string) (any, bool) {
	v, ok := m.values[k]
	return v, ok
}

func (m OrderedMap) Has(k string) bool {
	_, ok := m.values[k]
	return ok
}

// Set returns a copy with k bound to v. New keys go last.
func (m OrderedMap) Set(k string, v any) OrderedMap {
	out := m.clone(1)
	out.put(k, Normalize(v))
	return out
}

// Delete returns a copy without k. Deleting a missing key returns m.
func (m OrderedMap) Delete(k string) OrderedMap {
	if !m.Has(k) {
		return m
	}
	out := OrderedMap{
		keys:   make([]string, 0, len(m.keys)-1),
		values: make(map[string]any, len(m.keys)-1),
	}
	for _, key := range m.keys {
		if key == k {
			continue
		}
		out.keys = append(out.keys, key)
		out.values[key] = m.values[key]
	}
	return out
}

// Merge is a shallow merge: keys of other win, keys only in m keep their place.
func (m OrderedMap) Merge(other OrderedMap) OrderedMap {
	if other.Len() == 0 {
		return m
	}
	if m.Len() == 0 {
		return other
	}
	out := m.clone(other.Len())
	for _, k := range other.keys {
		out.put(k, other.values[k])
	}
	return out
}

// MergeDeep is like Merge, but entries that are maps on both sides are merged
// recursively.
func (m OrderedMap) MergeDeep(other OrderedMap) OrderedMap {
	if other.Len() == 0 {
		return m
	}
	out := m.clone(other.Len())
	for _, k := range other.keys {
		v := other.values[k]
		if ov, ok := v.(OrderedMap); ok {
			if cur, ok := out.values[k].(OrderedMap); ok {
				v = cur.MergeDeep(ov)
			}
		}
		out.put(k, v)
	}
	return out
}

// Range calls fn for each entry in order until fn returns false.
func (m OrderedMap) Range(fn func(k string, v any) bool) {
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// ToPayload returns a shallow, unordered copy. Nested values stay immutable.
func (m OrderedMap) ToPayload() Payload {
	out := make(Payload, len(m.keys))
	for _, k := range m.keys {
		out[k] = m.values[k]
	}
	return out
}

// Equal compares entries regardless of key order.
func (m OrderedMap) Equal(o OrderedMap) bool {
	if m.Len() != o.Len() {
		return false
	}
	for _, k := range m.keys {
		ov, ok := o.values[k]
		if !ok || !valueEqual(m.values[k], ov) {
			return false
		}
	}
	return true
}

func (m OrderedMap) clone(extra int) OrderedMap {
	out := OrderedMap{
		keys:   make([]string, len(m.keys), len(m.keys)+extra),
		values: make(map[string]any, len(m.keys)+extra),
	}
	copy(out.keys, m.keys)
	for k, v := range m.values {
		out.values[k] = v
	}
	return out
}

// MarshalJSON writes keys in order.
func (m OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valueBytes, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(valueBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *OrderedMap) UnmarshalJSON(data []byte) error {
	v, err := ParseJSON(data, false)
	if err != nil {
		return err
	}
	om, ok := v.(OrderedMap)
	if !ok {
		return fmt.Errorf("expected a JSON object, got %T", v)
	}
	*m = om
	return nil
}

// MarshalYAML writes keys in order.
func (m OrderedMap) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range m.keys {
		vn := &yaml.Node{}
		if err := vn.Encode(m.values[k]); err != nil {
			return nil, fmt.Errorf("encode %q: %w", k, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			vn,
		)
	}
	return node, nil
}

func (m *OrderedMap) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseYAMLNode(node)
	if err != nil {
		return err
	}
	om, ok := v.(OrderedMap)
	if !ok {
		return fmt.Errorf("expected a YAML mapping, got %T", v)
	}
	*m = om
	return nil
}

// List is an immutable ordered sequence.
type List struct {
	items []any
}

// ListOf normalizes items into a List.
func ListOf(items ...any) List {
	if len(items) == 0 {
		return List{}
	}
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = Normalize(it)
	}
	return List{items: out}
}

// StringList is ListOf for keys.
func StringList(keys ...string) List {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return List{items: out}
}

func (l List) Len() int { return len(l.items) }

func (l List) At(i int) any { return l.items[i] }

// Items returns a copy of the elements.
func (l List) Items() []any {
	out := make([]any, len(l.items))
	copy(out, l.items)
	return out
}

// Strings returns the string elements, skipping anything else.
func (l List) Strings() []string {
	out := make([]string, 0, len(l.items))
	for _, it := range l.items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (l List) IndexOf(v any) int {
	for i, it := range l.items {
		if valueEqual(it, v) {
			return i
		}
	}
	return -1
}

func (l List) Contains(v any) bool { return l.IndexOf(v) >= 0 }

func (l List) Append(v any) List {
	out := make([]any, len(l.items), len(l.items)+1)
	copy(out, l.items)
	return List{items: append(out, Normalize(v))}
}

func (l List) Prepend(v any) List {
	out := make([]any, 0, len(l.items)+1)
	out = append(out, Normalize(v))
	return List{items: append(out, l.items...)}
}

// Set replaces element i. Out of range indexes return l.
func (l List) Set(i int, v any) List {
	if i < 0 || i >= len(l.items) {
		return l
	}
	out := make([]any, len(l.items))
	copy(out, l.items)
	out[i] = Normalize(v)
	return List{items: out}
}

// Remove drops element i. Out of range indexes return l.
func (l List) Remove(i int) List {
	if i < 0 || i >= len(l.items) {
		return l
	}
	out := make([]any, 0, len(l.items)-1)
	out = append(out, l.items[:i]...)
	return List{items: append(out, l.items[i+1:]...)}
}

// Without drops every element equal to v, preserving order.
func (l List) Without(v any) List {
	if !l.Contains(v) {
		return l
	}
	out := make([]any, 0, len(l.items))
	for _, it := range l.items {
		if !valueEqual(it, v) {
			out = append(out, it)
		}
	}
	return List{items: out}
}

func (l List) Equal(o List) bool {
	if len(l.items) != len(o.items) {
		return false
	}
	for i := range l.items {
		if !valueEqual(l.items[i], o.items[i]) {
			return false
		}
	}
	return true
}

func (l List) MarshalJSON() ([]byte, error) {
	if l.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.items)
}

func (l List) MarshalYAML() (any, error) {
	if l.items == nil {
		return []any{}, nil
	}
	return l.items, nil
}

// WitnessSet is the immutable, sorted set of witnesses an account approves.
type WitnessSet struct {
	names []string
}

func NewWitnessSet(names ...string) WitnessSet {
	var s WitnessSet
	for _, n := range names {
		s = s.Add(n)
	}
	return s
}

func (s WitnessSet) Len() int { return len(s.names) }

func (s WitnessSet) Has(name string) bool {
	i := sort.SearchStrings(s.names, name)
	return i < len(s.names) && s.names[i] == name
}

// Add returns s when name is already present.
func (s WitnessSet) Add(name string) WitnessSet {
	i := sort.SearchStrings(s.names, name)
	if i < len(s.names) && s.names[i] == name {
		return s
	}
	out := make([]string, 0, len(s.names)+1)
	out = append(out, s.names[:i]...)
	out = append(out, name)
	out = append(out, s.names[i:]...)
	return WitnessSet{names: out}
}

// Remove returns s when name is absent.
func (s WitnessSet) Remove(name string) WitnessSet {
	i := sort.SearchStrings(s.names, name)
	if i >= len(s.names) || s.names[i] != name {
		return s
	}
	out := make([]string, 0, len(s.names)-1)
	out = append(out, s.names[:i]...)
	out = append(out, s.names[i+1:]...)
	return WitnessSet{names: out}
}

func (s WitnessSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s WitnessSet) Equal(o WitnessSet) bool {
	if len(s.names) != len(o.names) {
		return false
	}
	for i := range s.names {
		if s.names[i] != o.names[i] {
			return false
		}
	}
	return true
}

func (s WitnessSet) MarshalJSON() ([]byte, error) { return json.Marshal(s.Names()) }

func (s WitnessSet) MarshalYAML() (any, error) { return s.Names(), nil }

// Normalize converts a Go value into the store's immutable representation:
// maps become OrderedMap (keys sorted when the source has no order), slices
// become List, integers become int64 and floats float64.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil, bool, string, json.Number, int64, float64:
		return x
	case OrderedMap, List, WitnessSet:
		return x
	case *OrderedMap:
		if x == nil {
			return nil
		}
		return *x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case map[string]any:
		return orderedFromMap(x)
	case []any:
		return ListOf(x...)
	case []string:
		return StringList(x...)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return ListOf(items...)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return orderedFromMap(m)
	}
	return v
}

func orderedFromMap(src map[string]any) OrderedMap {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var m OrderedMap
	for _, k := range keys {
		m.put(k, Normalize(src[k]))
	}
	return m
}

// normalizeFields turns a payload into a field map.
func normalizeFields(p Payload) OrderedMap {
	if p == nil {
		return OrderedMap{}
	}
	return orderedFromMap(p)
}

// asFields accepts anything map-shaped.
func asFields(v any) (OrderedMap, bool) {
	m, ok := Normalize(v).(OrderedMap)
	return m, ok
}

// exportAll lets cmp descend into caller types that Normalize passes through
// untouched, such as *big.Int, instead of panicking on unexported fields.
var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

func valueEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	return cmp.Equal(a, b, exportAll)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

func stringValue(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// textOf renders a scalar the way it would appear in a JSON document.
func textOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case int64:
		return fmt.Sprintf("%d", x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
