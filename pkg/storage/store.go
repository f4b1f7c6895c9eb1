// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"
)

// NewKey tells Put how to handle an existing key
type NewKey bool

const (
	// IfNotPresent fails a Put when the key already exists
	IfNotPresent NewKey = true

	// OverWrite replaces the content of an existing key
	OverWrite NewKey = false
)

// Store implementations know how to durably write small metadata objects, such as bundle manifests.
//
// Keys are slash-separated paths relative to the root of the store.
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) (io.ReadCloser, error)
	Put(context.Context, string, io.Reader, NewKey) error
	Delete(context.Context, string) error

	// Rename atomically moves an object to a new key. This is the commit point of a pending object.
	Rename(ctx context.Context, from, to string) error

	// List returns the names of the immediate children of a key prefix, sorted
	List(ctx context.Context, prefix string) ([]string, error)
}

// ReadAll retrieves the full content of an object
func ReadAll(ctx context.Context, s Store, key string) ([]byte, error) {
	reader, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
