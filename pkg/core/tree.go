package core

import "sort"

// putContent stores c at key unless an equal node is already there.
func (s *Store) putContent(key string, c Content) *Store {
	if prev, ok := s.Content(key); ok && prev.Equal(c) {
		return s
	}
	return s.withContent(key, c)
}

// upsertNode merges fields into the node identified by their author and
// permlink and returns the node key.
func upsertNode(s *Store, fields OrderedMap, seed bool) (*Store, string) {
	author, _ := fields.Get("author")
	permlink, _ := fields.Get("permlink")
	key := ContentKey(textOf(author), textOf(permlink))
	return upsertNodeAt(s, key, fields, seed), key
}

func upsertNodeAt(s *Store, key string, fields OrderedMap, seed bool) *Store {
	prev, found := s.Content(key)
	return s.putContent(key, upsertContent(prev, found, fields, seed))
}

func receiveContent(s *Store, a ReceiveContent) *Store {
	s, _ = upsertNode(s, normalizeFields(a.Content), true)
	return s
}

func receiveComment(s *Store, a ReceiveComment) *Store {
	fields := normalizeFields(a.Op)
	s, key := upsertNode(s, fields, true)

	pa, _ := fields.Get("parent_author")
	parentAuthor, _ := pa.(string)
	if parentAuthor == "" {
		return s
	}
	pp, _ := fields.Get("parent_permlink")
	return linkChild(s, key, ContentKey(parentAuthor, textOf(pp)))
}

func linkReply(s *Store, a LinkReply) *Store {
	if a.ParentAuthor == "" {
		return s
	}
	return linkChild(s,
		ContentKey(a.Author, a.Permlink),
		ContentKey(a.ParentAuthor, a.ParentPermlink),
	)
}

// linkChild makes sure parentKey lists childKey among its replies. A missing
// parent becomes a stub holding only replies and children.
func linkChild(s *Store, childKey, parentKey string) *Store {
	parent, _ := s.Content(parentKey)
	replies := parent.replyList()
	if replies.Contains(childKey) {
		if n, ok := parent.Children(); ok && int(n) == replies.Len() {
			return s
		}
	} else {
		replies = replies.Append(childKey)
	}
	return s.withContent(parentKey, parent.relinked(replies))
}

func deleteContent(s *Store, a DeleteContent) *Store {
	key := ContentKey(a.Author, a.Permlink)
	node, ok := s.Content(key)
	if !ok {
		return s
	}
	s = s.withoutContent(key)

	parentKey, ok := node.ParentKey()
	if !ok {
		return s
	}
	parent, ok := s.Content(parentKey)
	if !ok {
		return s
	}
	replies := parent.replyList()
	if !replies.Contains(key) {
		return s
	}
	return s.withContent(parentKey, parent.relinked(replies.Without(key)))
}

func setCollapsed(s *Store, a SetCollapsed) *Store {
	node, ok := s.Content(a.Post)
	if !ok {
		return s
	}
	return s.putContent(a.Post, Content{
		fields: node.fields.Set("collapsed", a.Collapsed),
		stats:  node.stats,
	})
}

// voted replaces the voter's entry in active_votes, or appends one.
func voted(s *Store, a Voted) *Store {
	key := ContentKey(a.Author, a.Permlink)
	node, ok := s.Content(key)
	if !ok {
		return s
	}

	vote := OrderedMapOf("voter", a.Username, "percent", a.Weight)
	current, _ := node.fields.Get("active_votes")

	var votes any
	switch v := current.(type) {
	case OrderedMap:
		votes = v.Set(a.Username, vote)
	case List:
		idx := -1
		for i, it := range v.items {
			if m, ok := it.(OrderedMap); ok {
				if voter, _ := m.Get("voter"); voter == a.Username {
					idx = i
					break
				}
			}
		}
		if idx >= 0 {
			votes = v.Set(idx, vote)
		} else {
			votes = v.Append(vote)
		}
	default:
		votes = ListOf(vote)
	}
	return s.putContent(key, withStats(node.fields.Set("active_votes", votes)))
}

// receiveState merges a snapshot. Content is seeded and gets fresh stats;
// links inside the snapshot are taken as already consistent.
func receiveState(s *Store, a ReceiveState) *Store {
	for _, key := range sortedKeys(a.Content) {
		s = upsertNodeAt(s, key, normalizeFields(a.Content[key]), true)
	}
	for _, name := range sortedKeys(a.Accounts) {
		s = mergeAccount(s, name, ingestAccount(a.Accounts[name]))
	}
	for _, category := range sortedKeys(a.DiscussionIdx) {
		orders := a.DiscussionIdx[category]
		for _, order := range sortedKeys(orders) {
			s = s.putIndex(category, order, StringList(orders[order]...))
		}
	}
	for _, k := range sortedKeys(a.Extra) {
		s = mergeSection(s, k, Normalize(a.Extra[k]))
	}
	return s
}

// mergeSection folds a top-level snapshot section into the store. Maps merge
// deeply into what is there; anything else replaces it.
func mergeSection(s *Store, key string, v any) *Store {
	incoming, isMap := v.(OrderedMap)
	switch key {
	case SectionContent, SectionAccounts, SectionIndex:
		// typed fields of ReceiveState
		return s
	case SectionMeta:
		if !isMap {
			return s
		}
		incoming.Range(func(id string, m any) bool {
			if fields, ok := m.(OrderedMap); ok {
				prev, _ := s.Meta(id)
				s = s.putMeta(id, prev.MergeDeep(fields))
			}
			return true
		})
		return s
	case SectionStatus:
		if !isMap {
			return s
		}
		incoming.Range(func(category string, orders any) bool {
			if m, ok := orders.(OrderedMap); ok {
				m.Range(func(order string, st any) bool {
					if fs, ok := fetchStatusOf(st); ok {
						s = s.putStatus(category, order, fs)
					}
					return true
				})
			}
			return true
		})
		return s
	}

	if prev, ok := s.Extra(key); ok && isMap {
		if pm, ok := prev.(OrderedMap); ok {
			v = pm.MergeDeep(incoming)
		}
	}
	if prev, ok := s.Extra(key); ok && valueEqual(prev, v) {
		return s
	}
	return s.withExtra(key, v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
