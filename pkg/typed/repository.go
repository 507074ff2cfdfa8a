package typed

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/globalstate/pkg/core"
)

// ContentView is a content node decoded into a caller-defined shape.
// Stats are kept apart from Data because they are derived, never stored
// in the node's own fields.
type ContentView[T any] struct {
	Key      string
	Data     T
	Stats    core.Stats
	HasStats bool
}

// AccountView is an account record decoded into a caller-defined shape.
type AccountView[T any] struct {
	Name string
	Data T
}

// Decode converts a generic record into T through its JSON form.
func Decode[T any](m core.OrderedMap) (T, error) {
	var out T
	raw, err := json.Marshal(m)
	if err != nil {
		return out, fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal record into %T: %w", out, err)
	}
	return out, nil
}

// Content returns the node stored under key.
func Content[T any](s *core.Store, key string) (*ContentView[T], error) {
	c, ok := s.Content(key)
	if !ok {
		return nil, fmt.Errorf("content %q: %w", key, core.ErrNotFound)
	}
	return contentView[T](key, c)
}

func contentView[T any](key string, c core.Content) (*ContentView[T], error) {
	data, err := Decode[T](c.Fields())
	if err != nil {
		return nil, fmt.Errorf("content %q: %w", key, err)
	}
	st, ok := c.Stats()
	return &ContentView[T]{Key: key, Data: data, Stats: st, HasStats: ok}, nil
}

// Contents decodes every content node in key order.
func Contents[T any](s *core.Store) ([]*ContentView[T], error) {
	result := make([]*ContentView[T], 0, s.Counts().Content)
	var err error
	s.RangeContent(func(key string, c core.Content) bool {
		var v *ContentView[T]
		v, err = contentView[T](key, c)
		if err != nil {
			return false
		}
		result = append(result, v)
		return true
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Account returns the account stored under name.
func Account[T any](s *core.Store, name string) (*AccountView[T], error) {
	fields, ok := s.Account(name)
	if !ok {
		return nil, fmt.Errorf("account %q: %w", name, core.ErrNotFound)
	}
	data, err := Decode[T](fields)
	if err != nil {
		return nil, fmt.Errorf("account %q: %w", name, err)
	}
	return &AccountView[T]{Name: name, Data: data}, nil
}

// Feed resolves the keys of a discussion index into their content nodes.
// Keys whose node is missing are skipped; a missing index is ErrNotFound.
func Feed[T any](s *core.Store, category, order string) ([]*ContentView[T], error) {
	keys, ok := s.Index(category, order)
	if !ok {
		return nil, fmt.Errorf("index %s/%s: %w", category, order, core.ErrNotFound)
	}
	result := make([]*ContentView[T], 0, len(keys))
	for _, key := range keys {
		c, ok := s.Content(key)
		if !ok {
			continue
		}
		v, err := contentView[T](key, c)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}
