package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
)

func newTestStore(t *testing.T) (*Store, string, string) {
	t.Helper()
	dir := t.TempDir()
	blobPath := filepath.Join(dir, "cache", "repository.json")
	pluginDir := filepath.Join(dir, "plugins")
	return NewStore(hclog.NewNullLogger(), blobPath, pluginDir), blobPath, pluginDir
}

func TestStoreLoadMissingBlob(t *testing.T) {
	store, _, _ := newTestStore(t)

	repo, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if repo.Count() != 0 {
		t.Errorf("Load() of missing blob yielded %d plugins, want 0", repo.Count())
	}
}

func TestStorePersistLoadRoundTrip(t *testing.T) {
	store, _, _ := newTestStore(t)

	repo := NewRepository()
	repo.Add(testPlugin("blog", Inactive, &Method{Name: "save", Priority: 3}))

	if err := store.Persist(repo); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Count() != 1 {
		t.Fatalf("loaded Count() = %d, want 1", loaded.Count())
	}
	p, _ := loaded.Plugin("blog")
	if p.Activity != Inactive {
		t.Errorf("loaded activity = %v, want Inactive", p.Activity)
	}
}

func TestStoreLoadCorruptBlob(t *testing.T) {
	store, blobPath, _ := newTestStore(t)

	if err := os.MkdirAll(filepath.Dir(blobPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(blobPath, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Load(); err == nil {
		t.Error("Load() of corrupt blob should error")
	}
}

func TestStoreRescanMergesActivity(t *testing.T) {
	store, _, pluginDir := newTestStore(t)

	writeUnit(t, pluginDir, "blog", `function on_save(args) return true end`)

	// First scan: blog discovered active; deactivate and persist.
	repo, err := store.Rescan()
	if err != nil {
		t.Fatalf("Rescan() error = %v", err)
	}
	if err := repo.SetActive("blog", Inactive); err != nil {
		t.Fatal(err)
	}
	if err := store.Persist(repo); err != nil {
		t.Fatal(err)
	}

	// Grow the plugin's declared surface and rescan.
	writeUnit(t, pluginDir, "blog", `
function on_save(args) return true end
function on_delete(args) return true end
`)

	merged, err := store.Rescan()
	if err != nil {
		t.Fatalf("second Rescan() error = %v", err)
	}

	p, ok := merged.Plugin("blog")
	if !ok {
		t.Fatal("blog missing after rescan")
	}
	if p.Activity != Inactive {
		t.Errorf("activity = %v, want Inactive (stored state survives rescan)", p.Activity)
	}
	if _, ok := p.Method("delete"); !ok {
		t.Error("fresh declarations missing after rescan")
	}
}

func TestStoreRescanIgnoresCorruptBlob(t *testing.T) {
	store, blobPath, pluginDir := newTestStore(t)

	writeUnit(t, pluginDir, "blog", `function on_save(args) return true end`)
	if err := os.MkdirAll(filepath.Dir(blobPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(blobPath, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	repo, err := store.Rescan()
	if err != nil {
		t.Fatalf("Rescan() error = %v", err)
	}
	if repo.Count() != 1 {
		t.Errorf("Count() = %d, want 1", repo.Count())
	}
}

func TestStorePersistFailureIsTyped(t *testing.T) {
	dir := t.TempDir()
	// Blob path points at a directory, so the final rename must fail.
	blobPath := filepath.Join(dir, "blob")
	if err := os.MkdirAll(filepath.Join(blobPath, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	store := NewStore(hclog.NewNullLogger(), blobPath, dir)
	err := store.Persist(NewRepository())
	if err == nil {
		t.Fatal("Persist() to a directory path should error")
	}
	if !errors.Is(err, ErrPersist) {
		t.Errorf("Persist() error = %v, want ErrPersist", err)
	}
}
