package driver

import (
	"os"
	"testing"

	"cinder/internal/observ"
	"cinder/internal/project"
)

func testPayload() *CachePayload {
	return &CachePayload{
		Schema:   cacheSchemaVersion,
		Assembly: []byte("main:\n  ret\n"),
		Stats:    AggregateStats{Instructions: 12, Functions: 1},
		Timing: observ.Report{
			TotalMS: 3.5,
			Phases:  []observ.PhaseReport{{Name: "codegen", DurationMS: 3.5}},
		},
	}
}

func TestDiskCache_PutGet(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCacheAt failed: %v", err)
	}
	key := project.HashBytes([]byte("artifact-v1"))

	if err := cache.Put(key, testPayload()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var got CachePayload
	ok, err := cache.Get(key, &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("freshly written entry missed")
	}
	if string(got.Assembly) != "main:\n  ret\n" {
		t.Errorf("assembly did not survive: %q", got.Assembly)
	}
	if got.Stats.Instructions != 12 || got.Stats.Functions != 1 {
		t.Errorf("stats did not survive: %+v", got.Stats)
	}
	if len(got.Timing.Phases) != 1 || got.Timing.Phases[0].Name != "codegen" {
		t.Errorf("timing did not survive: %+v", got.Timing)
	}
}

func TestDiskCache_MissOnUnknownKey(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCacheAt failed: %v", err)
	}

	var got CachePayload
	ok, err := cache.Get(project.HashBytes([]byte("never written")), &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("unknown key reported as hit")
	}
}

func TestDiskCache_CorruptEntryIsMiss(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCacheAt failed: %v", err)
	}
	key := project.HashBytes([]byte("artifact"))
	if err := cache.Put(key, testPayload()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := os.WriteFile(cache.pathFor(key), []byte("not msgpack"), 0o644); err != nil {
		t.Fatalf("corrupt entry: %v", err)
	}

	var got CachePayload
	ok, err := cache.Get(key, &got)
	if err != nil {
		t.Fatalf("Get on corrupt entry failed: %v", err)
	}
	if ok {
		t.Error("corrupt entry reported as hit")
	}
}

func TestDiskCache_SchemaMismatchIsMiss(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCacheAt failed: %v", err)
	}
	key := project.HashBytes([]byte("artifact"))
	stale := testPayload()
	stale.Schema = cacheSchemaVersion + 1
	if err := cache.Put(key, stale); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var got CachePayload
	ok, err := cache.Get(key, &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("stale schema reported as hit")
	}
}

func TestDiskCache_Clear(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCacheAt failed: %v", err)
	}
	key := project.HashBytes([]byte("artifact"))
	if err := cache.Put(key, testPayload()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	var got CachePayload
	ok, err := cache.Get(key, &got)
	if err != nil {
		t.Fatalf("Get after Clear failed: %v", err)
	}
	if ok {
		t.Error("entry survived Clear")
	}
}

func TestDiskCache_NilIsSafe(t *testing.T) {
	var cache *DiskCache
	if err := cache.Put(project.Digest{}, testPayload()); err != nil {
		t.Errorf("nil Put returned %v", err)
	}
	ok, err := cache.Get(project.Digest{}, &CachePayload{})
	if err != nil || ok {
		t.Errorf("nil Get = %v, %v", ok, err)
	}
	if err := cache.Clear(); err != nil {
		t.Errorf("nil Clear returned %v", err)
	}
}
