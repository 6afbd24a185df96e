package backend

import (
	"context"
	"time"

	"homeexpenses/internal/services"
)

// Type names a storage backend for the expense collection.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{SQLiteBackend, MemoryBackend}
}

// Config holds what is needed to assemble an expense service.
type Config struct {
	Type Type

	SQLiteDBPath string
	StoreKey     string

	// Import events are published when AMQPURL is set.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	Location *time.Location
}

// Result is an assembled service. Cleanup releases its store and publisher.
type Result struct {
	Service       *services.ExpenseService
	EventsEnabled bool
	Cleanup       func() error
}

// Factory assembles expense services from configuration.
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}
