package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLayer(store Store) (*Layer, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewLayer(store, WithLogger(zap.New(core))), logs
}

func TestLayer_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	layer := NewLayer(store)

	layer.Set(ctx, "book::1", []byte("v"), time.Minute)
	got, ok := layer.Get(ctx, "book::1")
	if !ok || string(got) != "v" {
		t.Fatalf("expected hit with v, got %q ok=%v", got, ok)
	}

	layer.Invalidate(ctx, "book::1")
	if _, ok := layer.Get(ctx, "book::1"); ok {
		t.Error("expected miss after invalidation")
	}
}

func TestLayer_DefaultsAndOptions(t *testing.T) {
	layer := NewLayer(newMockStore())
	if layer.TTL() != 3600*time.Second {
		t.Errorf("expected default ttl of 3600s, got %v", layer.TTL())
	}

	layer = NewLayer(newMockStore(), WithTTL(time.Minute), WithLogger(nil), WithTTL(0))
	if layer.TTL() != time.Minute {
		t.Errorf("expected ttl of 1m, got %v", layer.TTL())
	}
	if layer.logger == nil {
		t.Error("expected nil logger option to be ignored")
	}
}

func TestLayer_BackendErrorsAreSwallowed(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	store := newMockStore()
	store.getErr, store.setErr, store.deleteErr, store.taggedErr = boom, boom, boom, boom
	layer, logs := newObservedLayer(store)

	if _, ok := layer.Get(ctx, "k"); ok {
		t.Error("expected a failed get to be a miss")
	}
	layer.Set(ctx, "k", []byte("v"), time.Minute)
	layer.InvalidateAll(ctx, []string{"k"})
	layer.InvalidateTags(ctx, "tag::books")

	warnings := logs.FilterLevelExact(zapcore.WarnLevel)
	for _, msg := range []string{"cache get failed", "cache set failed", "cache invalidate failed", "cache tag lookup failed"} {
		if warnings.FilterMessage(msg).Len() != 1 {
			t.Errorf("expected one %q warning, got %d", msg, warnings.FilterMessage(msg).Len())
		}
	}
}

func TestLayer_SetRegistersTags(t *testing.T) {
	ctx := WithTags(context.Background(), "tag::extra")
	store := newMockStore()
	layer := NewLayer(store)

	layer.Set(ctx, "students", []byte("[]"), time.Minute, "tag::students", "tag::students")

	if !store.tagged("tag::students", "students") {
		t.Error("expected key under tag::students")
	}
	if !store.tagged("tag::extra", "students") {
		t.Error("expected key under context tag")
	}
}

func TestLayer_TagFailureDropsEntry(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.tagErr = errors.New("tag failed")
	layer, logs := newObservedLayer(store)

	layer.Set(ctx, "students", []byte("[]"), time.Minute, "tag::students")

	if store.has("students") {
		t.Error("expected untaggable entry to be removed")
	}
	if logs.FilterMessage("cache tag failed").Len() != 1 {
		t.Error("expected tag failure to be logged")
	}
}

func TestLayer_InvalidateTags(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	layer := NewLayer(store)

	layer.Set(ctx, "books", []byte("[]"), time.Minute, "tag::books")
	layer.Set(ctx, "books::status::available", []byte("[]"), time.Minute, "tag::books")
	layer.Set(ctx, "book::1", []byte("{}"), time.Minute, "tag::book::1")

	before := layer.Epoch()
	layer.InvalidateTags(ctx, "tag::books", "tag::missing")

	if layer.Epoch() == before {
		t.Error("expected invalidation to advance the epoch")
	}
	for _, key := range []string{"books", "books::status::available"} {
		if store.has(key) {
			t.Errorf("expected %s to be invalidated", key)
		}
	}
	if !store.has("book::1") {
		t.Error("expected unrelated entry to survive")
	}
	if store.tagged("tag::books", "books") {
		t.Error("expected tag index entries to be removed")
	}

	layer.InvalidateTags(ctx)
	layer.InvalidateAll(ctx, nil)
}

func TestLayer_FillSkipsAfterInvalidation(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	layer := NewLayer(store)

	epoch := layer.Epoch()
	layer.Invalidate(ctx, "book::1")

	if layer.Fill(ctx, epoch, "book::1", []byte("stale"), "tag::book::1") {
		t.Error("expected fill to be rejected")
	}
	if store.has("book::1") {
		t.Error("expected stale value to stay out of the cache")
	}

	epoch = layer.Epoch()
	if !layer.Fill(ctx, epoch, "book::1", []byte("fresh"), "tag::book::1") {
		t.Error("expected fill to be kept")
	}
	if !store.has("book::1") {
		t.Error("expected fresh value to be cached")
	}
}

// racingStore invalidates through the layer while a Set is in flight.
type racingStore struct {
	*mockStore
	layer *Layer
	fired bool
}

func (r *racingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.mockStore.Set(ctx, key, value, ttl)
	if !r.fired {
		r.fired = true
		r.layer.InvalidateTags(ctx, "tag::unrelated")
	}
	return err
}

func TestLayer_FillDropsWhenInvalidatedMidWrite(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{mockStore: newMockStore()}
	layer := NewLayer(store)
	store.layer = layer

	if layer.Fill(ctx, layer.Epoch(), "book::1", []byte("stale")) {
		t.Error("expected fill to report it was dropped")
	}
	if store.has("book::1") {
		t.Error("expected value written during invalidation to be removed")
	}
}
