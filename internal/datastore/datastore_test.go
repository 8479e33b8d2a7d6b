// /internal/datastore/datastore_test.go
package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) *DataStore {
	t.Helper()
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "store.json"), zerolog.Nop())
	cfg.AutoSaveInterval = time.Hour // keep autosave out of the way
	ds, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	t.Cleanup(func() { ds.Close() })
	return ds
}

func TestSetGetDelete(t *testing.T) {
	ds := newTestStore(t)

	type rec struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	if err := ds.Set("chat:1", rec{Name: "general", Count: 3}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got rec
	ok, err := ds.Get("chat:1", &got)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Name != "general" || got.Count != 3 {
		t.Errorf("got %+v", got)
	}

	ok, _ = ds.Get("chat:2", &got)
	if ok {
		t.Error("Get reported a missing key as present")
	}

	ds.Delete("chat:1")
	ok, _ = ds.Get("chat:1", &got)
	if ok {
		t.Error("key survived Delete")
	}
}

func TestSetCopiesValue(t *testing.T) {
	ds := newTestStore(t)

	v := []string{"a"}
	if err := ds.Set("k", v); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v[0] = "mutated"

	var got []string
	if _, err := ds.Get("k", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got[0] != "a" {
		t.Errorf("stored value tracked caller mutation: %v", got)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")

	cfg := DefaultConfig(path, zerolog.Nop())
	cfg.AutoSaveInterval = time.Hour
	ds, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	if err := ds.Set("k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := ds.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	cfg2 := DefaultConfig(path, zerolog.Nop())
	cfg2.AutoSaveInterval = time.Hour
	ds2, err := NewWithConfig(cfg2)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer ds2.Close()

	var got string
	ok, err := ds2.Get("k", &got)
	if err != nil || !ok || got != "v" {
		t.Fatalf("reopened store lost data: ok=%v err=%v got=%q", ok, err, got)
	}
}

func TestSaveSkipsUnchangedContent(t *testing.T) {
	ds := newTestStore(t)
	if err := ds.Set("k", 1); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := ds.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	before, err := os.Stat(ds.file)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if err := ds.Save(); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	after, err := os.Stat(ds.file)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("unchanged content was rewritten")
	}
}

func TestOperationsAfterClose(t *testing.T) {
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "store.json"), zerolog.Nop())
	cfg.AutoSaveInterval = time.Hour
	ds, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	ds.Close()

	if err := ds.Set("k", 1); err == nil {
		t.Error("Set after Close did not error")
	}
	if _, err := ds.Get("k", new(int)); err == nil {
		t.Error("Get after Close did not error")
	}
	if err := ds.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestBackupRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	cfg := DefaultConfig(path, zerolog.Nop())
	cfg.AutoSaveInterval = time.Hour
	cfg.BackupCount = 2
	ds, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	defer ds.Close()

	for i := 0; i < 5; i++ {
		if err := ds.Set("k", i); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := ds.Save(); err != nil {
			t.Fatalf("Save: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	matches, err := filepath.Glob(path + ".backup.*")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) > cfg.BackupCount {
		t.Errorf("got %d backups, want at most %d", len(matches), cfg.BackupCount)
	}
}

func TestConcurrentSavesAndWrites(t *testing.T) {
	ds := newTestStore(t)
	defer ds.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if err := ds.Set(fmt.Sprintf("key%d", n), j); err != nil {
					t.Errorf("Set: %v", err)
				}
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if err := ds.Save(); err != nil {
					t.Errorf("Save: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if err := ds.Save(); err != nil {
		t.Fatalf("final Save: %v", err)
	}
	var got int
	if ok, err := ds.Get("key0", &got); !ok || err != nil {
		t.Errorf("Get after concurrent saves: ok=%v err=%v", ok, err)
	}
}
