package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"homeexpenses/internal/amqp"
	"homeexpenses/internal/core"
	"homeexpenses/internal/ingest"
	"homeexpenses/internal/storage"
)

const januaryCSV = "Datum,Beskrivning,Kategori,Kostnad,Valuta,Anna,Bob\n" +
	"2024-01-05,ICA,Livsmedel,\"250,00\",SEK,\"250,00\",\"-250,00\"\n" +
	"2024-01-20,Vattenfall,Elektricitet,800,SEK,0,0\n" +
	"2024-01-31,Totalsumma,,\"1050,00\",SEK,,\n"

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.ImportEvent
	err    error
}

func (p *fakePublisher) PublishImportEvent(_ context.Context, ev *amqp.ImportEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type failingKV struct{ err error }

func (f failingKV) Load(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingKV) Save(context.Context, string, string) error        { return f.err }

func csvFile(name, body string) ingest.File {
	return ingest.File{Name: name, Body: strings.NewReader(body)}
}

func newTestService(kv storage.KV, opts ...Option) *ExpenseService {
	return NewExpenseService(kv, append([]Option{WithLocation(time.UTC)}, opts...)...)
}

func TestMergeImport(t *testing.T) {
	existing := []core.Expense{{ID: "a"}, {ID: "b"}}
	batch := []core.Expense{{ID: "c"}, {ID: "a"}, {ID: "d"}, {ID: "c"}}

	merged, added := MergeImport(existing, batch)

	var ids []string
	for _, e := range merged {
		ids = append(ids, e.ID)
	}
	if want := []string{"a", "b", "c", "d"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("merged ids = %v, want %v", ids, want)
	}
	if added != 2 {
		t.Fatalf("added = %d, want 2", added)
	}
}

func TestMergeImportIdempotentForSameBatch(t *testing.T) {
	batch := []core.Expense{{ID: "x"}, {ID: "y"}}
	once, _ := MergeImport(nil, batch)
	twice, added := MergeImport(once, batch)
	if added != 0 || len(twice) != len(once) {
		t.Fatalf("re-merge added %d records", added)
	}
}

func TestExpenseService_Import(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	pub := &fakePublisher{}
	svc := newTestService(kv, WithPublisher(pub))

	res, err := svc.Import(ctx, []ingest.File{csvFile("jan.csv", januaryCSV)})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Parsed != 2 || res.Added != 2 || res.BatchID == "" {
		t.Fatalf("Import() = %+v", res)
	}

	got, err := svc.Expenses(ctx)
	if err != nil {
		t.Fatalf("Expenses() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("stored %d expenses, want 2", len(got))
	}
	ica := got[0]
	if ica.Description != "ICA" || ica.Cost != 250 || ica.SubcategoryName() != "Groceries" {
		t.Errorf("first expense = %+v", ica)
	}
	if want := []core.PersonShare{{Name: "Anna", Paid: 250}, {Name: "Bob", Owes: 250}}; !reflect.DeepEqual(ica.Shares, want) {
		t.Errorf("shares = %+v, want %+v", ica.Shares, want)
	}
	if !ica.Date.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", ica.Date)
	}

	if len(pub.events) != 1 || pub.events[0].BatchID != res.BatchID || pub.events[0].Added != 2 {
		t.Fatalf("published events = %+v", pub.events)
	}
}

func TestExpenseService_ImportFailureLeavesStore(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	pub := &fakePublisher{}
	svc := newTestService(kv, WithPublisher(pub))

	if _, err := svc.Import(ctx, []ingest.File{csvFile("jan.csv", januaryCSV)}); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	before, _, _ := kv.Load(ctx, storage.DefaultKey)

	_, err := svc.Import(ctx, []ingest.File{
		csvFile("feb.csv", januaryCSV),
		csvFile("notes.txt", "hello"),
	})
	if !errors.Is(err, ingest.ErrUnsupportedFile) {
		t.Fatalf("Import() error = %v, want ErrUnsupportedFile", err)
	}
	after, _, _ := kv.Load(ctx, storage.DefaultKey)
	if before != after {
		t.Fatal("failed import modified the store")
	}
	if len(pub.events) != 1 {
		t.Fatalf("failed import published an event")
	}
}

func TestExpenseService_PublishErrorDoesNotFailImport(t *testing.T) {
	svc := newTestService(storage.NewMemory(), WithPublisher(&fakePublisher{err: errors.New("broker down")}))
	if _, err := svc.Import(context.Background(), []ingest.File{csvFile("jan.csv", januaryCSV)}); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
}

func TestExpenseService_Preview(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	svc := newTestService(kv)

	p, err := svc.Preview(ctx, []ingest.File{csvFile("jan.csv", januaryCSV)})
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if p.Count != 2 || p.Total != 1050 {
		t.Fatalf("Preview() = %+v", p)
	}
	if _, ok, _ := kv.Load(ctx, storage.DefaultKey); ok {
		t.Fatal("Preview() wrote to the store")
	}
}

func TestExpenseService_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(storage.NewMemory())
	if _, err := svc.Import(ctx, []ingest.File{csvFile("jan.csv", januaryCSV)}); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	all, _ := svc.Expenses(ctx)

	if err := svc.Delete(ctx, all[0].ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(ctx, all[0].ID); !errors.Is(err, ErrExpenseNotFound) {
		t.Fatalf("second Delete() error = %v, want ErrExpenseNotFound", err)
	}
	left, _ := svc.Expenses(ctx)
	if len(left) != 1 || left[0].ID != all[1].ID {
		t.Fatalf("after delete = %+v", left)
	}

	n, err := svc.Clear(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Clear() = %d, %v", n, err)
	}
	if left, _ := svc.Expenses(ctx); len(left) != 0 {
		t.Fatalf("after clear = %+v", left)
	}
}

func TestExpenseService_UnreadableStoreIsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	_ = kv.Save(ctx, storage.DefaultKey, "{not json")

	got, err := newTestService(kv).Expenses(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("Expenses() = %v, %v, want empty", got, err)
	}
}

func TestExpenseService_StoreError(t *testing.T) {
	boom := errors.New("disk full")
	svc := newTestService(failingKV{err: boom})
	if _, err := svc.Expenses(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Expenses() error = %v", err)
	}
	if _, err := svc.Clear(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Clear() error = %v", err)
	}
}

func TestExpenseService_Dashboard(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(storage.NewMemory())
	if _, err := svc.Import(ctx, []ingest.File{csvFile("jan.csv", januaryCSV)}); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	d, err := svc.Dashboard(ctx, core.FilterState{Categories: []string{"Livsmedel"}})
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if d.Count != 1 || d.Total != 250 || len(d.AllCategories) != 2 {
		t.Fatalf("Dashboard() = %+v", d)
	}
}

func TestExpenseService_ConcurrentImports(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(storage.NewMemory())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Import(ctx, []ingest.File{csvFile("jan.csv", januaryCSV)}); err != nil {
				t.Errorf("Import() error = %v", err)
			}
		}()
	}
	wg.Wait()

	all, _ := svc.Expenses(ctx)
	seen := map[string]bool{}
	for _, e := range all {
		seen[e.ID] = true
	}
	if len(all) != 8*2 || len(seen) != len(all) {
		t.Fatalf("stored %d expenses with %d distinct ids, want %d", len(all), len(seen), 8*2)
	}
}

func TestExpenseService_ImportsInSameMillisecondKeepAllRecords(t *testing.T) {
	ctx := context.Background()
	frozen := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(storage.NewMemory(), WithClock(func() time.Time { return frozen }))

	const oneRow = "Datum,Beskrivning,Kategori,Kostnad\n2024-01-05,ICA,Livsmedel,250\n"
	for i := 0; i < 50; i++ {
		res, err := svc.Import(ctx, []ingest.File{csvFile("ica.csv", oneRow)})
		if err != nil {
			t.Fatalf("import %d: %v", i, err)
		}
		if res.Added != 1 {
			t.Fatalf("import %d: added %d, want 1", i, res.Added)
		}
	}

	all, _ := svc.Expenses(ctx)
	if len(all) != 50 {
		t.Fatalf("stored %d expenses, want 50", len(all))
	}
	first := fmt.Sprintf("%d-0", frozen.UnixMilli())
	last := fmt.Sprintf("%d-0", frozen.UnixMilli()+49)
	if all[0].ID != first || all[49].ID != last {
		t.Fatalf("ids = %s .. %s, want %s .. %s", all[0].ID, all[49].ID, first, last)
	}
}

func TestExpenseService_Close(t *testing.T) {
	svc := NewExpenseService(storage.NewMemory())
	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
