package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tinylink-dev/tinylink/internal/app/model"
	"github.com/tinylink-dev/tinylink/internal/app/store"
)

type mockStore struct {
	initFn        func(ctx context.Context) error
	queryFn       func(ctx context.Context, f store.Filter) ([]model.Link, error)
	insertFn      func(ctx context.Context, link *model.Link) error
	recordClickFn func(ctx context.Context, code string, at time.Time) error
	deleteFn      func(ctx context.Context, code string) error
}

func (m *mockStore) Init(ctx context.Context) error {
	if m.initFn != nil {
		return m.initFn(ctx)
	}
	return nil
}

func (m *mockStore) Query(ctx context.Context, f store.Filter) ([]model.Link, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, f)
	}
	return nil, nil
}

func (m *mockStore) Insert(ctx context.Context, link *model.Link) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, link)
	}
	return nil
}

func (m *mockStore) RecordClick(ctx context.Context, code string, at time.Time) error {
	if m.recordClickFn != nil {
		return m.recordClickFn(ctx, code, at)
	}
	return nil
}

func (m *mockStore) Delete(ctx context.Context, code string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, code)
	}
	return nil
}

func (m *mockStore) Ping(ctx context.Context) (time.Time, error) {
	return time.Now(), nil
}

func newTestRegistry(t *testing.T, st store.Store) *Registry {
	t.Helper()
	r, err := NewRegistry(context.Background(), st, RegistryOptions{})
	if err != nil {
		t.Fatalf("NewRegistry error: %v", err)
	}
	return r
}

func TestRegistry_CreateGeneratesValidCode(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, store.NewMemoryStore())

	link, err := r.Create(ctx, "https://example.com", "")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if len(link.Code) != 6 {
		t.Fatalf("generated code %q, want 6 chars", link.Code)
	}
	if link.Clicks != 0 {
		t.Fatalf("clicks = %d, want 0", link.Clicks)
	}
	if link.CreatedAt.IsZero() {
		t.Fatal("created_at not set")
	}
}

func TestRegistry_CreateRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, store.NewMemoryStore())

	if _, err := r.Create(ctx, "ftp://example.com", ""); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("bad scheme: err = %v, want ErrInvalidTarget", err)
	}
	if _, err := r.Create(ctx, "not a url", ""); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("garbage url: err = %v, want ErrInvalidTarget", err)
	}
	if _, err := r.Create(ctx, "https://example.com", "x"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("short code: err = %v, want ErrInvalidCode", err)
	}
	if _, err := r.Create(ctx, "https://example.com", "this-is-way-too-long"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("long code: err = %v, want ErrInvalidCode", err)
	}
}

func TestRegistry_CreateDuplicateTarget(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, store.NewMemoryStore())

	first, err := r.Create(ctx, "https://example.com", "")
	if err != nil {
		t.Fatalf("first Create error: %v", err)
	}

	_, err = r.Create(ctx, "https://example.com", "")
	var dup *DuplicateTargetError
	if !errors.As(err, &dup) {
		t.Fatalf("second Create = %v, want DuplicateTargetError", err)
	}
	if dup.Code != first.Code {
		t.Fatalf("duplicate carries code %q, want %q", dup.Code, first.Code)
	}

	links, err := r.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("list has %d links after duplicate create, want 1", len(links))
	}
}

func TestRegistry_CreateDuplicateCode(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, store.NewMemoryStore())

	if _, err := r.Create(ctx, "https://a.com", "mycode"); err != nil {
		t.Fatalf("first Create error: %v", err)
	}
	if _, err := r.Create(ctx, "https://b.com", "mycode"); !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("second Create = %v, want ErrDuplicateCode", err)
	}
}

func TestRegistry_CreateTrimsRequestedCode(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, store.NewMemoryStore())

	link, err := r.Create(ctx, "https://a.com", "  padded  ")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if link.Code != "padded" {
		t.Fatalf("code = %q, want %q", link.Code, "padded")
	}
}

func TestRegistry_GetByCodeNotFound(t *testing.T) {
	r := newTestRegistry(t, store.NewMemoryStore())
	if _, err := r.GetByCode(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByCode = %v, want ErrNotFound", err)
	}
}

func TestRegistry_DeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, store.NewMemoryStore())

	link, err := r.Create(ctx, "https://example.com", "")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if err := r.Delete(ctx, link.Code); err != nil {
		t.Fatalf("first Delete error: %v", err)
	}
	if _, err := r.GetByCode(ctx, link.Code); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByCode after delete = %v, want ErrNotFound", err)
	}
	if err := r.Delete(ctx, link.Code); err != nil {
		t.Fatalf("second Delete error: %v", err)
	}
}

func TestRegistry_RecordVisitConcurrent(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, store.NewMemoryStore())

	link, err := r.Create(ctx, "https://example.com", "")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	const visits = 100
	var wg sync.WaitGroup
	wg.Add(visits)
	for i := 0; i < visits; i++ {
		go func() {
			defer wg.Done()
			if err := r.RecordVisit(ctx, link.Code); err != nil {
				t.Errorf("RecordVisit error: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := r.GetByCode(ctx, link.Code)
	if err != nil {
		t.Fatalf("GetByCode error: %v", err)
	}
	if got.Clicks != visits {
		t.Fatalf("clicks = %d, want %d", got.Clicks, visits)
	}
	if got.LastClicked == nil {
		t.Fatal("last_clicked not set")
	}
}

func TestRegistry_RecordVisitNotFound(t *testing.T) {
	r := newTestRegistry(t, store.NewMemoryStore())
	if err := r.RecordVisit(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("RecordVisit = %v, want ErrNotFound", err)
	}
}

func TestRegistry_CodeFilterSkipsStoreOnMiss(t *testing.T) {
	queries := 0
	st := &mockStore{
		queryFn: func(ctx context.Context, f store.Filter) ([]model.Link, error) {
			queries++
			return nil, nil
		},
	}

	r := newTestRegistry(t, st)
	seedQueries := queries

	if _, err := r.GetByCode(context.Background(), "unknown"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByCode = %v, want ErrNotFound", err)
	}
	if queries != seedQueries {
		t.Fatalf("store queried %d times after seeding, want 0", queries-seedQueries)
	}
}

func TestRegistry_InsertRaceSurfacesDuplicateCode(t *testing.T) {
	// Both creations pass the pre-check; the store's unique constraint is
	// the safety net and must surface as a duplicate-code failure.
	st := &mockStore{
		insertFn: func(ctx context.Context, link *model.Link) error {
			return store.ErrDuplicate
		},
	}

	r := newTestRegistry(t, st)
	if _, err := r.Create(context.Background(), "https://example.com", "raced"); !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("Create = %v, want ErrDuplicateCode", err)
	}
}
