package core

import (
	"sort"
	"strconv"
	"strings"

	iradix "github.com/hashicorp/go-immutable-radix"
)

// Top-level section names, as used by path actions and exports.
const (
	SectionContent   = "content"
	SectionAccounts  = "accounts"
	SectionStatus    = "status"
	SectionIndex     = "discussion_idx"
	SectionMeta      = "metaLinkData"
	fetchingFieldKey = "fetching"
)

// FetchStatus is the state of a (category, order) fetch.
type FetchStatus struct {
	Fetching bool
}

func (f FetchStatus) Export() OrderedMap { return OrderedMapOf(fetchingFieldKey, f.Fetching) }

// Store is an immutable snapshot of the client state. Every section is a
// persistent radix tree, so a transition copies only the path it touches and
// shares the rest with its input.
//
// A *Store is never modified after construction; it is safe to share between
// goroutines.
type Store struct {
	content  *iradix.Tree // author/permlink -> Content
	accounts *iradix.Tree // name -> OrderedMap
	status   *iradix.Tree // bucket -> FetchStatus
	index    *iradix.Tree // bucket -> List of content keys
	meta     *iradix.Tree // id -> OrderedMap
	extra    *iradix.Tree // top-level key -> any
}

func isSection(name string) bool {
	switch name {
	case SectionContent, SectionAccounts, SectionStatus, SectionIndex, SectionMeta:
		return true
	}
	return false
}

var defaultStore = &Store{
	content:  iradix.New(),
	accounts: iradix.New(),
	status:   iradix.New(),
	index:    iradix.New(),
	meta:     iradix.New(),
	extra:    iradix.New(),
}

// Default returns the canonical empty store. It is the same pointer on every
// call.
func Default() *Store { return defaultStore }

// categoryPrefix is the key prefix shared by every bucket of category. The
// category is length-prefixed, so no (category, order) pair can spell the
// key of another.
func categoryPrefix(category string) []byte {
	return []byte(strconv.Itoa(len(category)) + ":" + category)
}

func bucket(category, order string) []byte {
	return append(categoryPrefix(category), order...)
}

func splitBucket(k []byte) (category, order string) {
	n, rest, _ := strings.Cut(string(k), ":")
	l, err := strconv.Atoi(n)
	if err != nil || l < 0 || l > len(rest) {
		return "", rest
	}
	return rest[:l], rest[l:]
}

// Content returns the node stored at key.
func (s *Store) Content(key string) (Content, bool) {
	v, ok := s.content.Get([]byte(key))
	if !ok {
		return Content{}, false
	}
	return v.(Content), true
}

// RangeContent walks content in key order until fn returns false.
func (s *Store) RangeContent(fn func(key string, c Content) bool) {
	s.content.Root().Walk(func(k []byte, v any) bool {
		return !fn(string(k), v.(Content))
	})
}

// ContentKeys returns every content key in lexical order.
func (s *Store) ContentKeys() []string {
	return treeKeys(s.content)
}

// Account returns the fields of the named account.
func (s *Store) Account(name string) (OrderedMap, bool) {
	v, ok := s.accounts.Get([]byte(name))
	if !ok {
		return OrderedMap{}, false
	}
	return v.(OrderedMap), true
}

// AccountNames returns every account name in lexical order.
func (s *Store) AccountNames() []string {
	return treeKeys(s.accounts)
}

// Status returns the fetch status of a bucket.
func (s *Store) Status(category, order string) (FetchStatus, bool) {
	v, ok := s.status.Get(bucket(category, order))
	if !ok {
		return FetchStatus{}, false
	}
	return v.(FetchStatus), true
}

// Index returns the content keys of a discussion bucket.
func (s *Store) Index(category, order string) ([]string, bool) {
	l, ok := s.indexList(category, order)
	if !ok {
		return nil, false
	}
	return l.Strings(), true
}

func (s *Store) indexList(category, order string) (List, bool) {
	v, ok := s.index.Get(bucket(category, order))
	if !ok {
		return List{}, false
	}
	return v.(List), true
}

// Meta returns the cached link metadata for id.
func (s *Store) Meta(id string) (OrderedMap, bool) {
	v, ok := s.meta.Get([]byte(id))
	if !ok {
		return OrderedMap{}, false
	}
	return v.(OrderedMap), true
}

// Extra returns a top-level value that has no typed section.
func (s *Store) Extra(key string) (any, bool) {
	return s.extra.Get([]byte(key))
}

// Counts is a summary of section sizes.
type Counts struct {
	Content  int `json:"content" yaml:"content"`
	Accounts int `json:"accounts" yaml:"accounts"`
	Status   int `json:"status" yaml:"status"`
	Indexes  int `json:"discussion_idx" yaml:"discussion_idx"`
	Meta     int `json:"meta" yaml:"meta"`
	Extra    int `json:"extra" yaml:"extra"`
}

func (s *Store) Counts() Counts {
	return Counts{
		Content:  s.content.Len(),
		Accounts: s.accounts.Len(),
		Status:   s.status.Len(),
		Indexes:  s.index.Len(),
		Meta:     s.meta.Len(),
		Extra:    s.extra.Len(),
	}
}

// Equal reports structural equality.
func (s *Store) Equal(o *Store) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	return treeEqual(s.content, o.content) &&
		treeEqual(s.accounts, o.accounts) &&
		treeEqual(s.status, o.status) &&
		treeEqual(s.index, o.index) &&
		treeEqual(s.meta, o.meta) &&
		treeEqual(s.extra, o.extra)
}

func treeEqual(a, b *iradix.Tree) bool {
	if a == b {
		return true
	}
	if a.Len() != b.Len() {
		return false
	}
	equal := true
	a.Root().Walk(func(k []byte, av any) bool {
		bv, ok := b.Get(k)
		if !ok || !sectionValueEqual(av, bv) {
			equal = false
		}
		return !equal
	})
	return equal
}

func sectionValueEqual(a, b any) bool {
	switch x := a.(type) {
	case Content:
		y, ok := b.(Content)
		return ok && x.Equal(y)
	case FetchStatus:
		y, ok := b.(FetchStatus)
		return ok && x == y
	}
	return valueEqual(a, b)
}

func treeKeys(t *iradix.Tree) []string {
	keys := make([]string, 0, t.Len())
	t.Root().Walk(func(k []byte, _ any) bool {
		keys = append(keys, string(k))
		return false
	})
	return keys
}

// Export renders the store as one nested map for JSON or YAML output.
func (s *Store) Export() OrderedMap {
	var content, accounts, meta OrderedMap
	s.content.Root().Walk(func(k []byte, v any) bool {
		content.put(string(k), v.(Content).Export())
		return false
	})
	s.accounts.Root().Walk(func(k []byte, v any) bool {
		accounts.put(string(k), v)
		return false
	})
	s.meta.Root().Walk(func(k []byte, v any) bool {
		meta.put(string(k), v)
		return false
	})

	var out OrderedMap
	out.put(SectionContent, content)
	out.put(SectionAccounts, accounts)
	out.put(SectionStatus, exportBuckets(s.status, func(v any) any {
		return v.(FetchStatus).Export()
	}))
	out.put(SectionIndex, exportBuckets(s.index, func(v any) any { return v }))
	out.put(SectionMeta, meta)
	s.extra.Root().Walk(func(k []byte, v any) bool {
		out.put(string(k), v)
		return false
	})
	return out
}

// exportBuckets nests bucket entries by category, categories in lexical order.
func exportBuckets(t *iradix.Tree, value func(any) any) OrderedMap {
	byCategory := make(map[string]OrderedMap)
	var categories []string
	t.Root().Walk(func(k []byte, v any) bool {
		category, order := splitBucket(k)
		m, ok := byCategory[category]
		if !ok {
			categories = append(categories, category)
		}
		byCategory[category] = m.Set(order, value(v))
		return false
	})
	sort.Strings(categories)

	var out OrderedMap
	for _, c := range categories {
		out.put(c, byCategory[c])
	}
	return out
}

func (s *Store) MarshalJSON() ([]byte, error) { return s.Export().MarshalJSON() }

func (s *Store) MarshalYAML() (any, error) { return s.Export().MarshalYAML() }

// The setters below return a new store; the receiver is left untouched.

func (s *Store) clone() *Store {
	out := *s
	return &out
}

func (s *Store) withContent(key string, c Content) *Store {
	out := s.clone()
	out.content, _, _ = s.content.Insert([]byte(key), c)
	return out
}

func (s *Store) withoutContent(key string) *Store {
	out := s.clone()
	out.content, _, _ = s.content.Delete([]byte(key))
	return out
}

func (s *Store) withAccount(name string, fields OrderedMap) *Store {
	out := s.clone()
	out.accounts, _, _ = s.accounts.Insert([]byte(name), fields)
	return out
}

func (s *Store) withoutAccount(name string) *Store {
	out := s.clone()
	out.accounts, _, _ = s.accounts.Delete([]byte(name))
	return out
}

func (s *Store) withStatus(category, order string, st FetchStatus) *Store {
	out := s.clone()
	out.status, _, _ = s.status.Insert(bucket(category, order), st)
	return out
}

func (s *Store) withoutStatus(category, order string) *Store {
	out := s.clone()
	out.status, _, _ = s.status.Delete(bucket(category, order))
	return out
}

func (s *Store) withoutStatusCategory(category string) *Store {
	out := s.clone()
	out.status, _ = s.status.DeletePrefix(categoryPrefix(category))
	return out
}

func (s *Store) withIndex(category, order string, keys List) *Store {
	out := s.clone()
	out.index, _, _ = s.index.Insert(bucket(category, order), keys)
	return out
}

func (s *Store) withoutIndex(category, order string) *Store {
	out := s.clone()
	out.index, _, _ = s.index.Delete(bucket(category, order))
	return out
}

func (s *Store) withoutIndexCategory(category string) *Store {
	out := s.clone()
	out.index, _ = s.index.DeletePrefix(categoryPrefix(category))
	return out
}

func (s *Store) withMeta(id string, fields OrderedMap) *Store {
	out := s.clone()
	out.meta, _, _ = s.meta.Insert([]byte(id), fields)
	return out
}

func (s *Store) withoutMeta(id string) *Store {
	out := s.clone()
	out.meta, _, _ = s.meta.Delete([]byte(id))
	return out
}

func (s *Store) withExtra(key string, v any) *Store {
	out := s.clone()
	out.extra, _, _ = s.extra.Insert([]byte(key), Normalize(v))
	return out
}

func (s *Store) withoutExtra(key string) *Store {
	out := s.clone()
	out.extra, _, _ = s.extra.Delete([]byte(key))
	return out
}
