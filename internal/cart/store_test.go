package cart

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type fakeBlobStore struct {
	data    map[string]string
	expires map[string]time.Duration
	failGet error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{data: map[string]string{}, expires: map[string]time.Duration{}}
}

func (f *fakeBlobStore) Get(_ context.Context, key string) (string, error) {
	if f.failGet != nil {
		return "", f.failGet
	}
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeBlobStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = fmt.Sprint(value)
	f.expires[key] = ttl
	return nil
}

func (f *fakeBlobStore) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	_, ok := f.data[key]
	f.expires[key] = ttl
	return ok, nil
}

func (f *fakeBlobStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeBlobStore) CartKey(token string) string {
	return "cart:" + token
}

func TestRedisStoreRoundTrip(t *testing.T) {
	blobs := newFakeBlobStore()
	store, err := NewRedisStore(blobs, time.Hour)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	ctx := context.Background()

	missing, err := store.Load(ctx, "tok")
	if err != nil || missing != nil {
		t.Fatalf("expected nil state for unknown token, got %+v %v", missing, err)
	}

	state := State{Open: true, Items: []LineItem{{ProductID: uuid.New(), Name: "Poster", UnitPriceCents: 1500, Quantity: 2}}}
	if err := store.Save(ctx, "tok", state); err != nil {
		t.Fatalf("save: %v", err)
	}
	if blobs.expires["cart:tok"] != time.Hour {
		t.Fatalf("expected ttl on save, got %v", blobs.expires["cart:tok"])
	}

	blobs.expires["cart:tok"] = 0
	loaded, err := store.Load(ctx, "tok")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded == nil || len(loaded.Items) != 1 || loaded.Items[0].Quantity != 2 || !loaded.Open {
		t.Fatalf("unexpected loaded state %+v", loaded)
	}
	if blobs.expires["cart:tok"] != time.Hour {
		t.Fatal("expected load to slide the ttl")
	}

	if err := store.Delete(ctx, "tok"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := blobs.data["cart:tok"]; ok {
		t.Fatal("expected cart removed")
	}
}

func TestRedisStoreCorruptBlob(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.data["cart:bad"] = "{not json"
	store, _ := NewRedisStore(blobs, time.Hour)

	if _, err := store.Load(context.Background(), "bad"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNewRedisStoreValidation(t *testing.T) {
	if _, err := NewRedisStore(nil, time.Hour); err == nil {
		t.Fatal("expected nil client error")
	}
	if _, err := NewRedisStore(newFakeBlobStore(), 0); err == nil {
		t.Fatal("expected ttl error")
	}
}
