package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFileStore(filepath.Join(dir, "files"))
	if err != nil {
		t.Fatal(err)
	}
	sq, err := NewSQLiteStore(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sq.Close() })
	rs, _ := newTestRedis(t)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
		"sqlite": sq,
		"redis":  rs,
	}
}

func newTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rs, err := NewRedisStore(context.Background(), RedisOptions{Addr: mr.Addr(), Prefix: "test"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rs.Close() })
	return rs, mr
}

func TestStores_GetPutDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(ctx, "BTCUSDT__1d"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := s.Put(ctx, "BTCUSDT__1d", []byte(`{"v":1}`)); err != nil {
				t.Fatal(err)
			}
			if err := s.Put(ctx, "BTCUSDT__1d", []byte(`{"v":2}`)); err != nil {
				t.Fatal(err)
			}
			got, err := s.Get(ctx, "BTCUSDT__1d")
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != `{"v":2}` {
				t.Errorf("got %s, want overwritten value", got)
			}
			if err := s.Delete(ctx, "BTCUSDT__1d"); err != nil {
				t.Fatal(err)
			}
			if _, err := s.Get(ctx, "BTCUSDT__1d"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound after delete, got %v", err)
			}
			if err := s.Delete(ctx, "missing"); err != nil {
				t.Errorf("deleting a missing key should be a no-op: %v", err)
			}
		})
	}
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"", "..", "a/b", `a\b`} {
		if err := s.Put(context.Background(), key, []byte("x")); err == nil {
			t.Errorf("expected error for key %q", key)
		}
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), Options{Backend: "etcd"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestRedisStore_WrapKey(t *testing.T) {
	s := &RedisStore{prefix: "marketbrief"}
	if got := s.wrapKey("ETHUSDT__1wk"); got != "marketbrief:ETHUSDT__1wk" {
		t.Errorf("wrapKey = %s", got)
	}
}

func TestRedisStore_PrefixedKeysAndErrors(t *testing.T) {
	ctx := context.Background()
	rs, mr := newTestRedis(t)

	if err := rs.Put(ctx, "ETHUSDT__1wk", []byte(`{"v":1}`)); err != nil {
		t.Fatal(err)
	}
	raw, err := mr.Get("test:ETHUSDT__1wk")
	if err != nil {
		t.Fatalf("record not stored under prefix: %v", err)
	}
	if raw != `{"v":1}` {
		t.Errorf("raw value = %s", raw)
	}
	if ttl := mr.TTL("test:ETHUSDT__1wk"); ttl != 0 {
		t.Errorf("records should not expire, ttl = %s", ttl)
	}

	mr.Close()
	if _, err := rs.Get(ctx, "ETHUSDT__1wk"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected a connection error distinct from ErrNotFound, got %v", err)
	}
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := Open(context.Background(), Options{Backend: BackendRedis, Redis: RedisOptions{Addr: mr.Addr()}})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok := s.(*RedisStore); !ok {
		t.Errorf("Open returned %T", s)
	}
}
