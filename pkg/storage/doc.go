// Copyright © 2018 One Concern

// Package storage provides the interface to persist bundle metadata objects.
//
// This package supports the following backends:
//   - local file system (any afero.Fs, with durable writes and atomic renames)
package storage
