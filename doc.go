// Package globalstate is the composition root for a social publishing
// client's state engine.
//
// The state is an immutable Store: content nodes keyed by author/permlink,
// accounts, per-bucket fetch status and paginated discussion indexes.
// Reduce maps a store and an action to the next store, sharing every
// section the action did not touch.
//
// Around that pure core the package wires a dispatch Service (one live
// store, ordered application, change events), an action-log reader for
// JSON, YAML and CSV files with watch support, a FETCH_JSON fetcher, and
// typed views over node fields.
//
// Usage:
//
//	// Replay a directory of action files
//	svc, err := globalstate.Replay(ctx, "./actions",
//		globalstate.WithPattern("**/*.yaml"),
//		globalstate.WithLogger(logger),
//	)
//
//	// Read a node into your own type
//	post, err := globalstate.ContentAs[Post](svc.Store(), "alice/hello")
package globalstate
