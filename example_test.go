package globalstate_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/aretw0/globalstate"
	"github.com/aretw0/globalstate/pkg/core"
)

// Example_reduce links a reply to its parent and reads the result back.
func Example_reduce() {
	s := globalstate.Reduce(nil, core.ReceiveContent{Content: core.Payload{
		"author": "alice", "permlink": "hello", "title": "Hello",
	}})
	s = globalstate.Reduce(s, core.ReceiveComment{Op: core.Payload{
		"author": "bob", "permlink": "re-hello", "parent_author": "alice", "parent_permlink": "hello",
	}})

	parent, _ := s.Content("alice/hello")
	children, _ := parent.Children()
	fmt.Println(parent.Replies(), children)

	// Output: [bob/re-hello] 1
}

// Example_replay applies a directory of action files.
func Example_replay() {
	dir, err := os.MkdirTemp("", "globalstate-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	actions := `
- type: UPDATE_ACCOUNT_WITNESS_VOTE
  payload: {account: smee, witness: greech, approve: true}
- type: UPDATE_ACCOUNT_WITNESS_VOTE
  payload: {account: smee, witness: alpha, approve: true}
`
	if err := os.WriteFile(filepath.Join(dir, "votes.yaml"), []byte(actions), 0o644); err != nil {
		log.Fatal(err)
	}

	svc, err := globalstate.Replay(context.Background(), dir)
	if err != nil {
		log.Fatal(err)
	}

	type account struct {
		WitnessVotes []string `json:"witness_votes"`
	}
	smee, err := globalstate.AccountAs[account](svc.Store(), "smee")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(smee.Data.WitnessVotes)

	// Output: [alpha greech]
}
