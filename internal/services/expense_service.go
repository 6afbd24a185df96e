package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"homeexpenses/internal/amqp"
	"homeexpenses/internal/core"
	"homeexpenses/internal/ingest"
	"homeexpenses/internal/log"
	"homeexpenses/internal/storage"
	"homeexpenses/internal/summary"
)

var ErrExpenseNotFound = errors.New("expense not found")

// EventPublisher announces merged imports. *amqp.Client implements it.
type EventPublisher interface {
	PublishImportEvent(ctx context.Context, ev *amqp.ImportEvent) error
}

// ImportResult reports one merged batch.
type ImportResult struct {
	BatchID string   `json:"batchId"`
	Files   []string `json:"files"`
	Parsed  int      `json:"parsed"`
	Added   int      `json:"added"`
}

// ExpenseService owns the persisted expense collection. The collection is
// stored as one JSON array under a single key and replaced wholesale on every
// write; writes are serialized so concurrent callers act as one writer.
type ExpenseService struct {
	mu        sync.Mutex
	store     storage.KV
	key       string
	publisher EventPublisher
	location  *time.Location
	logger    *log.Logger

	// Batch id stamps strictly increase so two imports never share one.
	stampMu   sync.Mutex
	lastStamp int64
	now       func() time.Time
}

type Option func(*ExpenseService)

// WithPublisher publishes an ImportEvent after every merged import.
func WithPublisher(p EventPublisher) Option {
	return func(s *ExpenseService) { s.publisher = p }
}

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *ExpenseService) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLocation sets the time zone parsed dates are placed in.
func WithLocation(loc *time.Location) Option {
	return func(s *ExpenseService) { s.location = loc }
}

// WithClock sets the clock batch id stamps are taken from.
func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *ExpenseService) { s.logger = l }
}

func NewExpenseService(store storage.KV, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store:    store,
		key:      storage.DefaultKey,
		location: time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default(log.ComponentExpense)
	}
	return s
}

// Expenses returns the persisted collection. A missing or undecodable value
// is an empty collection.
func (s *ExpenseService) Expenses(ctx context.Context) ([]core.Expense, error) {
	return s.load(ctx)
}

// Parse reads a batch of files without touching the store.
func (s *ExpenseService) Parse(ctx context.Context, files []ingest.File) ([]core.Expense, error) {
	p := ingest.NewParser()
	p.Location = s.location
	p.Now = s.nextStamp
	p.Logger = s.logger.WithComponent(log.ComponentIngest).Slog()
	return p.ParseFiles(ctx, files)
}

// Preview parses a batch and summarizes it without merging.
func (s *ExpenseService) Preview(ctx context.Context, files []ingest.File) (summary.ImportPreview, error) {
	batch, err := s.Parse(ctx, files)
	if err != nil {
		return summary.ImportPreview{}, err
	}
	return summary.Preview(batch), nil
}

// Import parses files and merges the batch into the collection. Nothing is
// stored unless the whole batch parses.
func (s *ExpenseService) Import(ctx context.Context, files []ingest.File) (ImportResult, error) {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}

	batch, err := s.Parse(ctx, files)
	if err != nil {
		return ImportResult{}, err
	}
	return s.Merge(ctx, names, batch)
}

// Merge appends the records of batch whose ids are not yet stored.
func (s *ExpenseService) Merge(ctx context.Context, files []string, batch []core.Expense) (ImportResult, error) {
	result := ImportResult{BatchID: uuid.NewString(), Files: files, Parsed: len(batch)}

	err := s.update(ctx, func(existing []core.Expense) ([]core.Expense, error) {
		merged, added := MergeImport(existing, batch)
		result.Added = added
		return merged, nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	s.logger.LogOp(ctx, slog.LevelInfo, log.OpImport, "Imported expenses",
		log.NewFields().WithImport(result.BatchID, files, result.Parsed, result.Added))

	if err := s.publish(ctx, result); err != nil {
		// The batch is stored; the event only drives the report export.
		s.logger.ErrorContext(ctx, "Failed to publish import event",
			log.FieldBatchID, result.BatchID, log.FieldError, err)
	}
	return result, nil
}

// Delete removes one expense by id.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	err := s.update(ctx, func(existing []core.Expense) ([]core.Expense, error) {
		out := make([]core.Expense, 0, len(existing))
		for _, e := range existing {
			if e.ID != id {
				out = append(out, e)
			}
		}
		if len(out) == len(existing) {
			return nil, fmt.Errorf("%s: %w", id, ErrExpenseNotFound)
		}
		return out, nil
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Expense deleted", log.FieldExpenseID, id)
	return nil
}

// Clear removes every expense and returns how many were removed.
func (s *ExpenseService) Clear(ctx context.Context) (int, error) {
	var removed int
	err := s.update(ctx, func(existing []core.Expense) ([]core.Expense, error) {
		removed = len(existing)
		return []core.Expense{}, nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "Expenses cleared", log.FieldCount, removed)
	return removed, nil
}

// Dashboard aggregates the collection under state.
func (s *ExpenseService) Dashboard(ctx context.Context, state core.FilterState) (summary.Dashboard, error) {
	all, err := s.load(ctx)
	if err != nil {
		return summary.Dashboard{}, err
	}
	return summary.BuildDashboard(all, state), nil
}

// Ping checks the store when it supports health checks.
func (s *ExpenseService) Ping(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the store and publisher when they hold resources.
func (s *ExpenseService) Close() error {
	var errs []error
	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}

// nextStamp returns the clock reading, bumped to one millisecond past the
// previous stamp when the clock has not advanced.
func (s *ExpenseService) nextStamp() time.Time {
	s.stampMu.Lock()
	defer s.stampMu.Unlock()

	ms := max(s.now().UnixMilli(), s.lastStamp+1)
	s.lastStamp = ms
	return time.UnixMilli(ms)
}

func (s *ExpenseService) update(ctx context.Context, fn func([]core.Expense) ([]core.Expense, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(existing)
	if err != nil {
		return err
	}
	return s.save(ctx, next)
}

func (s *ExpenseService) load(ctx context.Context) ([]core.Expense, error) {
	raw, ok, err := s.store.Load(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	if !ok {
		return []core.Expense{}, nil
	}
	var stored []core.StoredExpense
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.WarnContext(ctx, "Stored expenses unreadable, starting empty",
			log.FieldKey, s.key, log.FieldError, err)
		return []core.Expense{}, nil
	}
	out := make([]core.Expense, len(stored))
	for i, se := range stored {
		out[i] = core.FromStoredIn(se, s.location)
	}
	return out, nil
}

func (s *ExpenseService) save(ctx context.Context, expenses []core.Expense) error {
	stored := make([]core.StoredExpense, len(expenses))
	for i, e := range expenses {
		stored[i] = core.ToStored(e)
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	if err := s.store.Save(ctx, s.key, string(raw)); err != nil {
		return fmt.Errorf("save expenses: %w", err)
	}
	return nil
}

func (s *ExpenseService) publish(ctx context.Context, r ImportResult) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping import event")
		return nil
	}
	return s.publisher.PublishImportEvent(ctx, amqp.NewImportEvent(r.BatchID, r.Files, r.Parsed, r.Added))
}

// MergeImport appends the records of batch whose ids are not present in
// existing, in batch order. Existing records are never replaced or moved and
// ids repeated inside batch are kept once.
func MergeImport(existing, batch []core.Expense) (merged []core.Expense, added int) {
	seen := make(map[string]struct{}, len(existing)+len(batch))
	merged = make([]core.Expense, 0, len(existing)+len(batch))
	for _, e := range existing {
		seen[e.ID] = struct{}{}
		merged = append(merged, e)
	}
	for _, e := range batch {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		merged = append(merged, e)
		added++
	}
	return merged, added
}
