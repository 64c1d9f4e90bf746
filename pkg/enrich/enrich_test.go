package enrich

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/retrigger-io/retrigger/pkg/cache"
	"github.com/retrigger-io/retrigger/pkg/events"
	"github.com/retrigger-io/retrigger/pkg/hashing"
	"github.com/retrigger-io/retrigger/pkg/logging"
)

func newTestEnricher() *Enricher {
	c := cache.New(cache.DefaultConfig(), logging.RootLogger)
	h := hashing.NewEngine(hashing.Hybrid, logging.RootLogger)
	return New(c, h, logging.RootLogger)
}

func TestEnrichSmallFileCreate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	content := make([]byte, 100)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatal(err)
	}

	e := newTestEnricher()
	raw := events.RawEvent{
		Path:                 path,
		Kind:                 events.Created,
		TimestampNanoseconds: uint64(time.Now().UnixNano()),
		Size:                 100,
		IsDirectory:          false,
	}

	enriched := e.Enrich(raw)
	if enriched.Hash == nil {
		t.Fatal("expected a hash for a small file create")
	}
	if enriched.Hash.Size != 100 {
		t.Errorf("expected hash size 100, got %d", enriched.Hash.Size)
	}
	if enriched.Hash.IsIncremental {
		t.Error("expected IsIncremental to be false")
	}
	if stats := e.cache.Stats(); stats.Entries != 1 {
		t.Errorf("expected a cache entry for the hashed file, got %d", stats.Entries)
	}
}

func TestEnrichLargeFileModifyRecomputes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, make([]byte, 100), 0600); err != nil {
		t.Fatal(err)
	}

	e := newTestEnricher()
	first := e.Enrich(events.RawEvent{
		Path:                 path,
		Kind:                 events.Created,
		TimestampNanoseconds: uint64(time.Now().UnixNano()),
		Size:                 100,
	})

	time.Sleep(10 * time.Millisecond)

	large := make([]byte, 2*1024*1024)
	for i := range large {
		large[i] = byte(i)
	}
	if err := os.WriteFile(path, large, 0600); err != nil {
		t.Fatal(err)
	}

	second := e.Enrich(events.RawEvent{
		Path:                 path,
		Kind:                 events.Modified,
		TimestampNanoseconds: uint64(time.Now().UnixNano()),
		Size:                 uint64(len(large)),
	})

	if first.Hash == nil || second.Hash == nil {
		t.Fatal("expected both enrichments to produce a hash")
	}
	if first.Hash.Hash == second.Hash.Hash {
		t.Error("expected the modified large file to produce a different hash")
	}
}

func TestEnrichDirectoryDeleteInvalidatesSubtree(t *testing.T) {
	e := newTestEnricher()
	now := uint64(time.Now().UnixNano())

	e.cache.GetOrCompute("/t/a.txt", now, func() (events.HashResult, error) {
		return events.HashResult{Hash: 1}, nil
	})
	e.cache.GetOrCompute("/t/sub/b.txt", now, func() (events.HashResult, error) {
		return events.HashResult{Hash: 2}, nil
	})

	if got := e.cache.Stats().Entries; got != 2 {
		t.Fatalf("expected 2 cache entries before delete, got %d", got)
	}

	enriched := e.Enrich(events.RawEvent{
		Path:        "/t",
		Kind:        events.Deleted,
		IsDirectory: true,
	})

	if enriched.Hash != nil {
		t.Error("expected nil hash for a directory delete")
	}
	if got := e.cache.Stats().Entries; got != 0 {
		t.Fatalf("expected subtree invalidation to remove both entries, got %d", got)
	}
}

func TestEnrichDirectoryNonDeleteHasNoHash(t *testing.T) {
	e := newTestEnricher()
	enriched := e.Enrich(events.RawEvent{Path: "/t/sub", Kind: events.Created, IsDirectory: true})
	if enriched.Hash != nil {
		t.Error("expected nil hash for a directory create")
	}
}

func TestEnrichFileDeleteHasNoHash(t *testing.T) {
	e := newTestEnricher()
	enriched := e.Enrich(events.RawEvent{Path: "/t/a.txt", Kind: events.Deleted})
	if enriched.Hash != nil {
		t.Error("expected nil hash for a file delete")
	}
}
