package core

import "encoding/json"

// ContentKey is the identity of a post or comment.
func ContentKey(author, permlink string) string {
	return author + "/" + permlink
}

// Content is one post or comment: an immutable field map merged from every
// payload seen for its key, plus stats derived from those fields.
//
// Stub nodes created only to hold replies carry no stats.
type Content struct {
	fields OrderedMap
	stats  *Stats
}

// NewContent builds a node from raw fields and computes its stats.
func NewContent(fields Payload) Content {
	return withStats(normalizeFields(fields).Delete("stats"))
}

func withStats(fields OrderedMap) Content {
	st := ComputeStats(fields)
	return Content{fields: fields, stats: &st}
}

func (c Content) Key() string { return ContentKey(c.Author(), c.Permlink()) }

func (c Content) Author() string         { return c.str("author") }
func (c Content) Permlink() string       { return c.str("permlink") }
func (c Content) ParentAuthor() string   { return c.str("parent_author") }
func (c Content) ParentPermlink() string { return c.str("parent_permlink") }

// ParentKey returns the parent's key, or false for root posts.
func (c Content) ParentKey() (string, bool) {
	pa := c.ParentAuthor()
	if pa == "" {
		return "", false
	}
	return ContentKey(pa, c.ParentPermlink()), true
}

func (c Content) str(name string) string {
	v, _ := c.fields.Get(name)
	s, _ := stringValue(v)
	return s
}

// Fields returns the node's fields without stats.
func (c Content) Fields() OrderedMap { return c.fields }

func (c Content) Field(name string) (any, bool) { return c.fields.Get(name) }

// Stats returns the derived stats; false for stub nodes.
func (c Content) Stats() (Stats, bool) {
	if c.stats == nil {
		return Stats{}, false
	}
	return *c.stats, true
}

// Replies returns the keys of the known children, in arrival order.
func (c Content) Replies() []string {
	return c.replyList().Strings()
}

func (c Content) replyList() List {
	v, _ := c.fields.Get("replies")
	l, _ := v.(List)
	return l
}

// Children returns the child count and whether the field is present.
func (c Content) Children() (int64, bool) {
	v, ok := c.fields.Get("children")
	if !ok {
		return 0, false
	}
	f, ok := toFloat(v)
	return int64(f), ok
}

func (c Content) Equal(o Content) bool {
	if !c.fields.Equal(o.fields) {
		return false
	}
	if (c.stats == nil) != (o.stats == nil) {
		return false
	}
	return c.stats == nil || c.stats.Equal(*o.stats)
}

// Export renders the node with its stats as a plain field map.
func (c Content) Export() OrderedMap {
	if c.stats == nil {
		return c.fields
	}
	return c.fields.Set("stats", c.stats.Export())
}

func (c Content) MarshalJSON() ([]byte, error) { return json.Marshal(c.Export()) }

func (c Content) MarshalYAML() (any, error) { return c.Export(), nil }

// upsertContent shallow-merges payload over the node at a key. With seed, a
// node is first filled with the default content fields. Stats are always
// recomputed and never taken from the payload.
func upsertContent(prev Content, found bool, payload OrderedMap, seed bool) Content {
	base := prev.fields
	if seed {
		base = emptyContent.Merge(base)
	}
	if !found && !seed {
		base = OrderedMap{}
	}
	return withStats(base.Merge(payload.Delete("stats")))
}

// relinked rewrites the reply list and derives children from it. Stats are
// refreshed only on nodes that already carry them.
func (c Content) relinked(replies List) Content {
	fields := c.fields.
		Set("replies", replies).
		Set("children", int64(replies.Len()))
	if c.stats == nil {
		return Content{fields: fields}
	}
	return withStats(fields)
}

var emptyContent = OrderedMapOf(
	"author", "",
	"permlink", "",
	"category", "",
	"parent_author", "",
	"parent_permlink", "",
	"title", "",
	"body", "",
	"json_metadata", "{}",
	"created", "1970-01-01T00:00:00",
	"last_update", "1970-01-01T00:00:00",
	"depth", 0,
	"children", 0,
	"net_rshares", 0,
	"abs_rshares", 0,
	"vote_rshares", 0,
	"cashout_time", "1969-12-31T23:59:59",
	"total_vote_weight", 0,
	"reward_weight", 10000,
	"total_payout_value", "0.000 SBD",
	"curator_payout_value", "0.000 SBD",
	"author_rewards", 0,
	"net_votes", 0,
	"max_accepted_payout", "1000000.000 SBD",
	"percent_steem_dollars", 10000,
	"allow_replies", true,
	"allow_votes", true,
	"allow_curation_rewards", true,
	"url", "",
	"root_title", "",
	"pending_payout_value", "0.000 SBD",
	"total_pending_payout_value", "0.000 STEEM",
	"active_votes", List{},
	"promoted", "0.000 SBD",
	"body_length", 0,
	"reblogged_by", List{},
)

// EmptyContent returns the default content fields every seeded node starts with.
func EmptyContent() OrderedMap { return emptyContent }
