package core

// primaryFeedOrders are the orders whose pages belong to one account rather
// than to a community feed.
var primaryFeedOrders = map[string]bool{
	"by_author":   true,
	"by_feed":     true,
	"by_comments": true,
	"by_replies":  true,
}

// IsPrimaryFeed reports whether pages of order are kept on the account.
func IsPrimaryFeed(order string) bool { return primaryFeedOrders[order] }

// Recent posts are collected in this bucket.
const (
	RecentCategory = ""
	RecentOrder    = "created"
)

func (s *Store) putStatus(category, order string, st FetchStatus) *Store {
	if prev, ok := s.Status(category, order); ok && prev == st {
		return s
	}
	return s.withStatus(category, order, st)
}

func (s *Store) putIndex(category, order string, keys List) *Store {
	if prev, ok := s.indexList(category, order); ok && prev.Equal(keys) {
		return s
	}
	return s.withIndex(category, order, keys)
}

// fetchStatusOf accepts a FetchStatus, a bare flag or a {fetching} map.
func fetchStatusOf(v any) (FetchStatus, bool) {
	switch x := Normalize(v).(type) {
	case FetchStatus:
		return x, true
	case bool:
		return FetchStatus{Fetching: x}, true
	case OrderedMap:
		f, _ := x.Get(fetchingFieldKey)
		b, _ := f.(bool)
		return FetchStatus{Fetching: b}, true
	}
	return FetchStatus{}, false
}

func fetchingData(s *Store, a FetchingData) *Store {
	return s.putStatus(a.Category, a.Order, FetchStatus{Fetching: true})
}

// receiveData merges one page of content and records its keys, either on the
// account (primary feeds) or in the discussion index.
func receiveData(s *Store, a ReceiveData) *Store {
	for _, p := range a.Data {
		var key string
		s, key = upsertNode(s, normalizeFields(p), false)

		if IsPrimaryFeed(a.Order) {
			s = appendAccountKey(s, a.Accountname, a.Category, key)
			continue
		}
		keys, _ := s.indexList(a.Category, a.Order)
		if !keys.Contains(key) {
			s = s.withIndex(a.Category, a.Order, keys.Append(key))
		}
	}
	return s
}

func appendAccountKey(s *Store, name, category, key string) *Store {
	acct, _ := s.Account(name)
	v, _ := acct.Get(category)
	keys, _ := v.(List)
	if keys.Contains(key) {
		return s
	}
	return s.withAccount(name, acct.Set(category, keys.Append(key)))
}

// receiveRecentPosts puts new keys first in the recent bucket and stores
// posts that are not known yet. Known posts are left alone.
func receiveRecentPosts(s *Store, a ReceiveRecentPosts) *Store {
	keys, _ := s.indexList(RecentCategory, RecentOrder)
	prevLen := keys.Len()

	for _, p := range a.Data {
		fields := normalizeFields(p)
		author, _ := fields.Get("author")
		permlink, _ := fields.Get("permlink")
		key := ContentKey(textOf(author), textOf(permlink))

		if !keys.Contains(key) {
			keys = keys.Prepend(key)
		}
		if _, ok := s.Content(key); !ok {
			s = s.withContent(key, withStats(fields.Delete("stats")))
		}
	}
	if keys.Len() != prevLen {
		s = s.withIndex(RecentCategory, RecentOrder, keys)
	}
	return s
}
