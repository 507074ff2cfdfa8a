package globalstate

import "github.com/aretw0/globalstate/pkg/typed"

// ContentView is a content node decoded into a caller-defined shape.
type ContentView[T any] = typed.ContentView[T]

// AccountView is an account record decoded into a caller-defined shape.
type AccountView[T any] = typed.AccountView[T]

// ContentAs decodes the node stored under key into T.
func ContentAs[T any](s *Store, key string) (*ContentView[T], error) {
	return typed.Content[T](s, key)
}

// AccountAs decodes the named account into T.
func AccountAs[T any](s *Store, name string) (*AccountView[T], error) {
	return typed.Account[T](s, name)
}

// FeedAs decodes the nodes listed by a discussion index into T.
func FeedAs[T any](s *Store, category, order string) ([]*ContentView[T], error) {
	return typed.Feed[T](s, category, order)
}
