package core

import (
	"strconv"
	"strings"
)

// JoinPath renders a path for logs and errors.
func JoinPath(key []string) string { return strings.Join(key, ".") }

// validatePath checks that key addresses something a path action can touch.
// Bucket sections need exactly category and order for writes; removals may
// also drop a whole category.
func validatePath(kind Kind, key []string, write bool) error {
	if len(key) == 0 {
		return &ValidationError{Kind: kind, Field: "key"}
	}
	switch key[0] {
	case SectionContent, SectionAccounts, SectionMeta:
		if len(key) < 2 {
			return &ValidationError{Kind: kind, Field: "key", Reason: "must name an entry of " + key[0]}
		}
		if key[0] == SectionContent && len(key) > 2 && key[2] == "stats" {
			return &ValidationError{Kind: kind, Field: "key", Reason: "cannot address derived stats"}
		}
	case SectionStatus, SectionIndex:
		if write && len(key) != 3 {
			return &ValidationError{Kind: kind, Field: "key", Reason: "must be " + key[0] + ".<category>.<order>"}
		}
		if !write && (len(key) < 2 || len(key) > 3) {
			return &ValidationError{Kind: kind, Field: "key", Reason: "must be " + key[0] + ".<category>[.<order>]"}
		}
	}
	return nil
}

// validatePathValue checks that a value written at key has a shape the
// section can hold.
func validatePathValue(kind Kind, key []string, value any) error {
	bad := &ValidationError{Kind: kind, Field: "value"}
	switch key[0] {
	case SectionContent, SectionAccounts, SectionMeta:
		if len(key) == 2 {
			if _, ok := asFields(value); !ok {
				bad.Reason = "must be a map"
				return bad
			}
		}
	case SectionStatus:
		if _, ok := fetchStatusOf(value); !ok {
			bad.Reason = "must be a fetch status"
			return bad
		}
	case SectionIndex:
		if _, ok := Normalize(value).(List); !ok {
			bad.Reason = "must be a list of keys"
			return bad
		}
	}
	return nil
}

func getIn(v any, path []string) (any, bool) {
	if len(path) == 0 {
		return v, true
	}
	switch x := v.(type) {
	case OrderedMap:
		child, ok := x.Get(path[0])
		if !ok {
			return nil, false
		}
		return getIn(child, path[1:])
	case List:
		i, err := strconv.Atoi(path[0])
		if err != nil || i < 0 || i >= x.Len() {
			return nil, false
		}
		return getIn(x.At(i), path[1:])
	}
	return nil, false
}

// setIn returns v with value written at path. Missing intermediate entries
// become maps; a list index equal to the length appends.
func setIn(v any, path []string, value any) (any, bool) {
	if len(path) == 0 {
		return Normalize(value), true
	}
	switch x := v.(type) {
	case nil:
		child, ok := setIn(nil, path[1:], value)
		if !ok {
			return v, false
		}
		return OrderedMap{}.Set(path[0], child), true
	case OrderedMap:
		cur, _ := x.Get(path[0])
		child, ok := setIn(cur, path[1:], value)
		if !ok {
			return v, false
		}
		return x.Set(path[0], child), true
	case List:
		i, err := strconv.Atoi(path[0])
		if err != nil || i < 0 || i > x.Len() {
			return v, false
		}
		var cur any
		if i < x.Len() {
			cur = x.At(i)
		}
		child, ok := setIn(cur, path[1:], value)
		if !ok {
			return v, false
		}
		if i == x.Len() {
			return x.Append(child), true
		}
		return x.Set(i, child), true
	}
	return v, false
}

// removeIn returns v without the entry at path, and whether anything was
// removed.
func removeIn(v any, path []string) (any, bool) {
	if len(path) == 0 {
		return v, false
	}
	switch x := v.(type) {
	case OrderedMap:
		cur, ok := x.Get(path[0])
		if !ok {
			return v, false
		}
		if len(path) == 1 {
			return x.Delete(path[0]), true
		}
		child, ok := removeIn(cur, path[1:])
		if !ok {
			return v, false
		}
		return x.Set(path[0], child), true
	case List:
		i, err := strconv.Atoi(path[0])
		if err != nil || i < 0 || i >= x.Len() {
			return v, false
		}
		if len(path) == 1 {
			return x.Remove(i), true
		}
		child, ok := removeIn(x.At(i), path[1:])
		if !ok {
			return v, false
		}
		return x.Set(i, child), true
	}
	return v, false
}

// GetPath reads the value a path action would address.
func (s *Store) GetPath(key []string) (any, bool) {
	if len(key) == 0 {
		return nil, false
	}
	switch key[0] {
	case SectionContent:
		if len(key) < 2 {
			return nil, false
		}
		c, ok := s.Content(key[1])
		if !ok {
			return nil, false
		}
		return getIn(c.Export(), key[2:])
	case SectionAccounts:
		if len(key) < 2 {
			return nil, false
		}
		acct, ok := s.Account(key[1])
		if !ok {
			return nil, false
		}
		return getIn(acct, key[2:])
	case SectionMeta:
		if len(key) < 2 {
			return nil, false
		}
		m, ok := s.Meta(key[1])
		if !ok {
			return nil, false
		}
		return getIn(m, key[2:])
	case SectionStatus:
		if len(key) != 3 {
			return nil, false
		}
		st, ok := s.Status(key[1], key[2])
		if !ok {
			return nil, false
		}
		return st.Export(), true
	case SectionIndex:
		if len(key) != 3 {
			return nil, false
		}
		l, ok := s.indexList(key[1], key[2])
		if !ok {
			return nil, false
		}
		return l, true
	}
	v, ok := s.Extra(key[0])
	if !ok {
		return nil, false
	}
	return getIn(v, key[1:])
}

func setPath(s *Store, a SetPath) *Store {
	if validatePath(a.Kind(), a.Key, true) != nil || validatePathValue(a.Kind(), a.Key, a.Value) != nil {
		return s
	}
	key := a.Key

	switch key[0] {
	case SectionContent:
		prev, _ := s.Content(key[1])
		fields, ok := setIn(prev.fields, key[2:], a.Value)
		if !ok {
			return s
		}
		m, _ := asFields(fields)
		return s.putContent(key[1], withStats(m.Delete("stats")))
	case SectionAccounts:
		prev, _ := s.Account(key[1])
		fields, ok := setIn(prev, key[2:], a.Value)
		if !ok {
			return s
		}
		m, _ := asFields(fields)
		return s.putAccount(key[1], ingestFields(m))
	case SectionMeta:
		prev, _ := s.Meta(key[1])
		fields, ok := setIn(prev, key[2:], a.Value)
		if !ok {
			return s
		}
		m, _ := asFields(fields)
		return s.putMeta(key[1], m)
	case SectionStatus:
		st, _ := fetchStatusOf(a.Value)
		return s.putStatus(key[1], key[2], st)
	case SectionIndex:
		l, _ := Normalize(a.Value).(List)
		return s.putIndex(key[1], key[2], l)
	}

	prev, _ := s.Extra(key[0])
	v, ok := setIn(prev, key[1:], a.Value)
	if !ok {
		return s
	}
	if had, ok := s.Extra(key[0]); ok && valueEqual(had, v) {
		return s
	}
	return s.withExtra(key[0], v)
}

func removePath(s *Store, a RemovePath) *Store {
	if validatePath(a.Kind(), a.Key, false) != nil {
		return s
	}
	key := a.Key

	switch key[0] {
	case SectionContent:
		prev, ok := s.Content(key[1])
		if !ok {
			return s
		}
		if len(key) == 2 {
			return s.withoutContent(key[1])
		}
		fields, ok := removeIn(prev.fields, key[2:])
		if !ok {
			return s
		}
		return s.withContent(key[1], withStats(fields.(OrderedMap)))
	case SectionAccounts:
		prev, ok := s.Account(key[1])
		if !ok {
			return s
		}
		if len(key) == 2 {
			return s.withoutAccount(key[1])
		}
		fields, ok := removeIn(prev, key[2:])
		if !ok {
			return s
		}
		return s.withAccount(key[1], fields.(OrderedMap))
	case SectionMeta:
		prev, ok := s.Meta(key[1])
		if !ok {
			return s
		}
		if len(key) == 2 {
			return s.withoutMeta(key[1])
		}
		fields, ok := removeIn(prev, key[2:])
		if !ok {
			return s
		}
		return s.withMeta(key[1], fields.(OrderedMap))
	case SectionStatus:
		if len(key) == 2 {
			if len(s.statusOrders(key[1])) == 0 {
				return s
			}
			return s.withoutStatusCategory(key[1])
		}
		if _, ok := s.Status(key[1], key[2]); !ok {
			return s
		}
		return s.withoutStatus(key[1], key[2])
	case SectionIndex:
		if len(key) == 2 {
			if len(s.IndexOrders(key[1])) == 0 {
				return s
			}
			return s.withoutIndexCategory(key[1])
		}
		if _, ok := s.indexList(key[1], key[2]); !ok {
			return s
		}
		return s.withoutIndex(key[1], key[2])
	}

	prev, ok := s.Extra(key[0])
	if !ok {
		return s
	}
	if len(key) == 1 {
		return s.withoutExtra(key[0])
	}
	v, ok := removeIn(prev, key[1:])
	if !ok {
		return s
	}
	return s.withExtra(key[0], v)
}

func updatePath(s *Store, a UpdatePath) *Store {
	if a.Updater == nil || validatePath(a.Kind(), a.Key, true) != nil {
		return s
	}
	cur, found := s.GetPath(a.Key)
	if !found {
		cur = Normalize(a.NotSet)
	}
	next := Normalize(a.Updater(cur))
	if valueEqual(next, cur) {
		return s
	}
	return setPath(s, SetPath{Key: a.Key, Value: next})
}

// statusOrders lists the orders with a status under category.
func (s *Store) statusOrders(category string) []string {
	var orders []string
	s.status.Root().WalkPrefix(categoryPrefix(category), func(k []byte, _ any) bool {
		_, order := splitBucket(k)
		orders = append(orders, order)
		return false
	})
	return orders
}

// IndexOrders lists the orders indexed under category.
func (s *Store) IndexOrders(category string) []string {
	var orders []string
	s.index.Root().WalkPrefix(categoryPrefix(category), func(k []byte, _ any) bool {
		_, order := splitBucket(k)
		orders = append(orders, order)
		return false
	})
	return orders
}
