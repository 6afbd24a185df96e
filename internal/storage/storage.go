// Package storage provides the string key-value stores the expense
// collection is persisted in.
package storage

import "context"

// DefaultKey is the key the whole expense collection is stored under.
const DefaultKey = "home-expenses-data"

// KV is a string key-value store. Load reports ok=false for a missing key.
type KV interface {
	Load(ctx context.Context, key string) (value string, ok bool, err error)
	Save(ctx context.Context, key, value string) error
}
