package backend

import (
	"context"
	"fmt"

	"homeexpenses/internal/amqp"
	"homeexpenses/internal/log"
	"homeexpenses/internal/services"
	"homeexpenses/internal/storage"
)

// Publisher is an event publisher that holds a connection.
type Publisher interface {
	services.EventPublisher
	Close() error
}

// DialFunc connects an import event publisher.
type DialFunc func(url, exchange, queue string) (Publisher, error)

func dialAMQP(url, exchange, queue string) (Publisher, error) {
	c, err := amqp.NewClient(url, exchange, queue)
	if err != nil {
		return nil, err
	}
	return c, nil
}

type DefaultFactory struct {
	logger *log.Logger
	dial   DialFunc
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Default(log.ComponentBackend)
	}
	return &DefaultFactory{logger: logger, dial: dialAMQP}
}

// Create opens the configured store and, when AMQP is configured, an event
// publisher. A publisher that fails to connect is logged and skipped; imports
// still work without events.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.openStore(ctx, config)
	if err != nil {
		return nil, err
	}

	opts := []services.Option{
		services.WithKey(config.StoreKey),
		services.WithLogger(f.logger.WithComponent(log.ComponentExpense)),
	}
	if config.Location != nil {
		opts = append(opts, services.WithLocation(config.Location))
	}

	eventsEnabled := false
	if config.AMQPURL != "" {
		pub, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WithComponent(log.ComponentAMQP).WarnContext(ctx, "Failed to initialize AMQP client, continuing without import events",
				log.FieldError, err)
		} else {
			f.logger.WithComponent(log.ComponentAMQP).InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			opts = append(opts, services.WithPublisher(pub))
			eventsEnabled = true
		}
	}

	svc := services.NewExpenseService(store, opts...)
	f.logger.InfoContext(ctx, "Initialized expense backend",
		"type", config.Type.String(),
		"events_enabled", eventsEnabled)

	return &Result{
		Service:       svc,
		EventsEnabled: eventsEnabled,
		Cleanup:       svc.Close,
	}, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config) (storage.KV, error) {
	switch config.Type {
	case SQLiteBackend:
		store, err := storage.NewSQLite(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite store: %w", err)
		}
		f.logger.WithComponent(log.ComponentStorage).InfoContext(ctx, "Opened SQLite store", "db_path", config.SQLiteDBPath)
		return store, nil
	case MemoryBackend:
		f.logger.WithComponent(log.ComponentStorage).InfoContext(ctx, "Using in-memory store, data is lost on exit")
		return storage.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
