package typed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/globalstate/pkg/core"
	"github.com/aretw0/globalstate/pkg/typed"
)

type Post struct {
	Author      string   `json:"author"`
	Permlink    string   `json:"permlink"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Replies     []string `json:"replies"`
	ActiveVotes []struct {
		Voter   string `json:"voter"`
		Percent int    `json:"percent"`
	} `json:"active_votes"`
}

type Account struct {
	Name           string   `json:"name"`
	WitnessVotes   []string `json:"witness_votes,omitempty"`
	PostingRewards int      `json:"posting_rewards"`
}

func seeded(t *testing.T) *core.Store {
	t.Helper()
	return core.ReduceAll(nil,
		core.ReceiveContent{Content: core.Payload{
			"author":       "alice",
			"permlink":     "hello",
			"title":        "Hello",
			"category":     "life",
			"active_votes": []any{map[string]any{"voter": "bob", "percent": 10000}},
		}},
		core.ReceiveComment{Op: core.Payload{
			"author": "bob", "permlink": "re-hello", "parent_author": "alice", "parent_permlink": "hello",
		}},
		core.ReceiveAccount{Account: core.Payload{"name": "bob", "posting_rewards": 12}},
		core.UpdateAccountWitnessVote{Account: "bob", Witness: "w1", Approve: true},
		core.ReceiveData{
			Data:     []core.Payload{{"author": "alice", "permlink": "hello"}, {"author": "ghost", "permlink": "gone"}},
			Order:    "trending",
			Category: "life",
		},
		core.RemovePath{Key: []string{"content", "ghost/gone"}},
	)
}

func TestContent(t *testing.T) {
	s := seeded(t)

	// 1. Fields decode into the caller's type
	post, err := typed.Content[Post](s, "alice/hello")
	require.NoError(t, err)
	assert.Equal(t, "alice/hello", post.Key)
	assert.Equal(t, "Hello", post.Data.Title)
	assert.Equal(t, []string{"bob/re-hello"}, post.Data.Replies)
	require.Len(t, post.Data.ActiveVotes, 1)
	assert.Equal(t, "bob", post.Data.ActiveVotes[0].Voter)

	// 2. Stats come alongside, not inside Data
	require.True(t, post.HasStats)
	assert.Equal(t, 1, post.Stats.UpVotes)

	// 3. Missing keys report ErrNotFound
	_, err = typed.Content[Post](s, "nobody/none")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestContent_DecodeError(t *testing.T) {
	s := core.Reduce(nil, core.ReceiveContent{Content: core.Payload{"author": "a", "permlink": "p", "title": 42}})

	_, err := typed.Content[Post](s, "a/p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a/p")
}

func TestContents(t *testing.T) {
	s := seeded(t)

	all, err := typed.Contents[Post](s)
	require.NoError(t, err)

	keys := make([]string, 0, len(all))
	for _, v := range all {
		keys = append(keys, v.Key)
	}
	assert.Equal(t, s.ContentKeys(), keys)
}

func TestAccount(t *testing.T) {
	s := seeded(t)

	bob, err := typed.Account[Account](s, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", bob.Name)
	assert.Equal(t, 12, bob.Data.PostingRewards)
	assert.Equal(t, []string{"w1"}, bob.Data.WitnessVotes)

	_, err = typed.Account[Account](s, "carol")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestFeed(t *testing.T) {
	s := seeded(t)

	// ghost/gone was indexed and then removed, so it is skipped.
	feed, err := typed.Feed[Post](s, "life", "trending")
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "alice/hello", feed[0].Key)

	_, err = typed.Feed[Post](s, "life", "hot")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDecode(t *testing.T) {
	m := core.OrderedMapOf("name", "x", "witness_votes", core.NewWitnessSet("b", "a"))
	got, err := typed.Decode[Account](m)
	require.NoError(t, err)
	assert.Equal(t, Account{Name: "x", WitnessVotes: []string{"a", "b"}}, got)

	asMap, err := typed.Decode[map[string]any](m)
	require.NoError(t, err)
	assert.Equal(t, "x", asMap["name"])
}
