package storage

import (
	"context"
)

type Storage interface {
	// Put stores an artifact under the given key and returns its storage URL
	Put(ctx context.Context, key string, data []byte) (string, error)
	// Get retrieves an artifact from the given storage URL
	Get(ctx context.Context, url string) ([]byte, error)
	// List returns the keys of stored artifacts that start with prefix
	List(ctx context.Context, prefix string) ([]string, error)
}
