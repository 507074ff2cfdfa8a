package core

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	// grayRshares is the adjusted net rshares below which a post is grayed.
	grayRshares = -9999999999
	// minPendingPayout is the pending payout from which a post counts as paying.
	minPendingPayout = 0.02
	// tinyDownvoteLen: negative rshares strings shorter than this are ignored
	// when computing the adjusted net.
	tinyDownvoteLen = 11
)

// Stats are derived from a content node's fields and never stored on their own.
type Stats struct {
	IsNsfw           bool
	Hide             bool
	HasPendingPayout bool
	Gray             bool
	FlagWeight       int
	UpVotes          int
	TotalVotes       int
	AuthorRepLog10   *int
	AllowDelete      bool
}

func (s Stats) Equal(o Stats) bool {
	if (s.AuthorRepLog10 == nil) != (o.AuthorRepLog10 == nil) {
		return false
	}
	if s.AuthorRepLog10 != nil && *s.AuthorRepLog10 != *o.AuthorRepLog10 {
		return false
	}
	a, b := s, o
	a.AuthorRepLog10, b.AuthorRepLog10 = nil, nil
	return a == b
}

// Export renders the stats under their wire names.
func (s Stats) Export() OrderedMap {
	var rep any
	if s.AuthorRepLog10 != nil {
		rep = int64(*s.AuthorRepLog10)
	}
	return OrderedMapOf(
		"isNsfw", s.IsNsfw,
		"hide", s.Hide,
		"hasPendingPayout", s.HasPendingPayout,
		"gray", s.Gray,
		"flagWeight", s.FlagWeight,
		"up_votes", s.UpVotes,
		"total_votes", s.TotalVotes,
		"authorRepLog10", rep,
		"allowDelete", s.AllowDelete,
	)
}

func (s Stats) MarshalJSON() ([]byte, error) { return json.Marshal(s.Export()) }

// ComputeStats derives stats from content fields. Missing or malformed fields
// degrade to zero values.
func ComputeStats(fields OrderedMap) Stats {
	var (
		st        Stats
		netAdj    float64
		negShares float64
	)

	forEachVote(fields, func(vote OrderedMap) {
		p, _ := vote.Get("percent")
		percent, _ := toFloat(p)
		if percent == 0 {
			return
		}
		st.TotalVotes++
		if percent > 0 {
			st.UpVotes++
		}

		rv, _ := vote.Get("rshares")
		rs := textOf(rv)
		shares, _ := strconv.ParseFloat(rs, 64)
		if percent < 0 {
			negShares += shares
		}

		rep, _ := vote.Get("reputation")
		if strings.HasPrefix(textOf(rep), "-") {
			return
		}
		if strings.HasPrefix(rs, "-") && len(rs) < tinyDownvoteLen {
			return
		}
		netAdj += shares
	})

	pending, _ := fields.Get("pending_payout_value")
	st.HasPendingPayout = parsePayout(pending) >= minPendingPayout

	if rep, ok := fields.Get("author_reputation"); ok && rep != nil {
		r := RepLog10(textOf(rep))
		st.AuthorRepLog10 = &r
	}
	if st.AuthorRepLog10 != nil {
		st.Hide = *st.AuthorRepLog10 < 0
	}
	st.Gray = !st.HasPendingPayout &&
		((st.AuthorRepLog10 != nil && *st.AuthorRepLog10 < 1) || netAdj < grayRshares)
	st.FlagWeight = flagWeight(negShares)

	st.IsNsfw = isNsfw(fields)

	net, _ := fields.Get("net_rshares")
	netShares, _ := strconv.ParseFloat(textOf(net), 64)
	children, hasChildren := fields.Get("children")
	n, numeric := toFloat(children)
	st.AllowDelete = netShares <= 0 && hasChildren && numeric && n == 0

	return st
}

// flagWeight is the digit count of half the downvoted rshares beyond 11
// digits: 0 below 1e11, 1 up to 1e12, and so on.
func flagWeight(negShares float64) int {
	half := math.Trunc(math.Abs(negShares) / 2)
	return max(len(strconv.FormatFloat(half, 'f', 0, 64))-11, 0)
}

func forEachVote(fields OrderedMap, fn func(OrderedMap)) {
	v, ok := fields.Get("active_votes")
	if !ok {
		return
	}
	switch votes := v.(type) {
	case List:
		for _, it := range votes.items {
			if vote, ok := it.(OrderedMap); ok {
				fn(vote)
			}
		}
	case OrderedMap:
		votes.Range(func(_ string, it any) bool {
			if vote, ok := it.(OrderedMap); ok {
				fn(vote)
			}
			return true
		})
	}
}

// RepLog10 maps a raw reputation to the displayed score: 9 points per order
// of magnitude above 1e9, centered at 25.
func RepLog10(raw string) int {
	raw = strings.TrimSpace(raw)
	neg := strings.HasPrefix(raw, "-")
	raw = strings.TrimPrefix(raw, "-")
	if i := strings.IndexByte(raw, '.'); i >= 0 {
		raw = raw[:i]
	}

	out := 0.0
	if len(raw) > 0 {
		lead := raw
		if len(lead) > 4 {
			lead = lead[:4]
		}
		if d, err := strconv.Atoi(lead); err == nil && d > 0 {
			l := math.Log10(float64(d)) + 0.00000001
			out = float64(len(raw)-1) + (l - math.Trunc(l))
		}
	}
	out = math.Max(out-9, 0)
	if neg {
		out = -out
	}
	return int(out*9 + 25)
}

// parsePayout reads the amount of a "1.234 SBD" asset string.
func parsePayout(v any) float64 {
	s := strings.TrimSpace(textOf(v))
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return f
}

func isNsfw(fields OrderedMap) bool {
	tags := metadataTags(fields)
	if c, ok := fields.Get("category"); ok {
		if s, ok := c.(string); ok {
			tags = append(tags, s)
		}
	}
	for _, t := range tags {
		if strings.EqualFold(t, "nsfw") || strings.HasPrefix(strings.ToLower(t), "nsfw-") {
			return true
		}
	}
	return false
}

// metadataTags reads tags from json_metadata, which arrives either as an
// encoded JSON string or already decoded.
func metadataTags(fields OrderedMap) []string {
	raw, ok := fields.Get("json_metadata")
	if !ok {
		return nil
	}
	meta, ok := raw.(OrderedMap)
	if s, isString := raw.(string); isString {
		parsed, err := ParseJSON([]byte(s), false)
		if err != nil {
			return nil
		}
		meta, ok = parsed.(OrderedMap)
	}
	if !ok {
		return nil
	}
	v, _ := meta.Get("tags")
	switch tags := v.(type) {
	case string:
		return []string{tags}
	case List:
		return tags.Strings()
	}
	return nil
}
