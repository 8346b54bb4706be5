package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/db"
)

// fakeStore is an in-memory shared tier.
type fakeStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
	gets   int
	sets   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string][]byte{}}
}

func (s *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	data, ok := s.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return data, nil
}

func (s *fakeStore) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

func newTestLayer(shared store) *Layer {
	return New(NewLRU(16), shared, nil, zap.NewNop())
}

func TestLayer_LocalHit(t *testing.T) {
	shared := newFakeStore()
	l := newTestLayer(shared)
	ctx := context.Background()

	l.Set(ctx, "k", []byte("v"), time.Minute)

	got, ok := l.Get(ctx, "k")
	if !ok || string(got) != "v" {
		t.Fatalf("Get = (%q, %v), want (v, true)", got, ok)
	}
	// Local tier answered; the shared Get must not have been touched.
	if shared.gets != 0 {
		t.Errorf("shared gets = %d, want 0", shared.gets)
	}
}

func TestLayer_SharedFallbackBackfills(t *testing.T) {
	shared := newFakeStore()
	shared.data["k"] = []byte("v")
	l := newTestLayer(shared)
	ctx := context.Background()

	got, ok := l.Get(ctx, "k")
	if !ok || string(got) != "v" {
		t.Fatalf("Get = (%q, %v), want shared hit", got, ok)
	}

	// Second read is served locally.
	l.Get(ctx, "k")
	if shared.gets != 1 {
		t.Errorf("shared gets = %d, want 1 (backfilled)", shared.gets)
	}
}

func TestLayer_SharedErrorDegrades(t *testing.T) {
	shared := newFakeStore()
	shared.getErr = errors.New("connection refused")
	shared.setErr = errors.New("connection refused")
	l := newTestLayer(shared)
	ctx := context.Background()

	if _, ok := l.Get(ctx, "k"); ok {
		t.Error("expected miss when the shared tier is down")
	}

	// Set still lands locally.
	l.Set(ctx, "k", []byte("v"), time.Minute)
	if got, ok := l.Get(ctx, "k"); !ok || string(got) != "v" {
		t.Errorf("Get after degraded Set = (%q, %v), want local value", got, ok)
	}
}

func TestLayer_NilShared(t *testing.T) {
	l := newTestLayer(nil)
	ctx := context.Background()

	l.Set(ctx, "k", []byte("v"), time.Minute)
	if got, ok := l.Get(ctx, "k"); !ok || string(got) != "v" {
		t.Errorf("local-only layer Get = (%q, %v), want (v, true)", got, ok)
	}
	if _, ok := l.Get(ctx, "absent"); ok {
		t.Error("expected miss for absent key in local-only mode")
	}
}

func TestLayer_JSONRoundTrip(t *testing.T) {
	l := newTestLayer(newFakeStore())
	ctx := context.Background()

	type record struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	l.SetJSON(ctx, "k", record{Name: "x", Count: 3}, time.Minute)

	var out record
	if !l.GetJSON(ctx, "k", &out) {
		t.Fatal("expected JSON hit")
	}
	if out.Name != "x" || out.Count != 3 {
		t.Errorf("out = %+v, want {x 3}", out)
	}
}

func TestLayer_CorruptJSONEvicted(t *testing.T) {
	l := newTestLayer(nil)
	ctx := context.Background()

	l.Set(ctx, "k", []byte("{not json"), time.Minute)

	var out map[string]any
	if l.GetJSON(ctx, "k", &out) {
		t.Fatal("corrupt entry must not decode")
	}
	// The corrupt entry is dropped so it cannot poison later reads.
	if _, ok := l.Get(ctx, "k"); ok {
		t.Error("corrupt entry should have been evicted")
	}
}

func TestLayer_SetWritesShared(t *testing.T) {
	shared := newFakeStore()
	l := newTestLayer(shared)
	ctx := context.Background()

	l.Set(ctx, "k", []byte("v"), time.Minute)
	if shared.sets != 1 {
		t.Errorf("shared sets = %d, want 1", shared.sets)
	}
	if string(shared.data["k"]) != "v" {
		t.Errorf("shared value = %q, want v", shared.data["k"])
	}
}
