package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
)

// Store loads, rebuilds and persists the plugin repository. The persisted
// blob is a cache of the plugin directory's declarative state: it is only
// replaced by an explicit Persist and never aged out.
type Store struct {
	logger   hclog.Logger
	blobPath string
	scanner  *Scanner
}

// NewStore creates a repository store. blobPath is where the serialized
// repository lives; pluginDir is the directory Rescan walks.
func NewStore(logger hclog.Logger, blobPath, pluginDir string) *Store {
	l := logger.Named("catalog")
	return &Store{
		logger:   l,
		blobPath: blobPath,
		scanner:  NewScanner(l, pluginDir),
	}
}

// Load deserializes the persisted repository blob. A missing blob yields an
// empty repository; a corrupt blob is an error.
func (s *Store) Load() (*Repository, error) {
	data, err := os.ReadFile(s.blobPath)
	if err != nil {
		if os.IsNotExist(err) {
			return NewRepository(), nil
		}
		return nil, fmt.Errorf("reading repository blob: %w", err)
	}

	repo := NewRepository()
	if err := json.Unmarshal(data, repo); err != nil {
		return nil, fmt.Errorf("parsing repository blob: %w", err)
	}

	return repo, nil
}

// Rescan walks the plugin directory and merges the result with the
// persisted repository: plugins that already exist keep their stored
// activity state while their method declarations are replaced by the fresh
// scan. Rescan does not persist; call Persist with the result.
func (s *Store) Rescan() (*Repository, error) {
	fresh, err := s.scanner.Scan()
	if err != nil {
		return nil, err
	}

	base, err := s.Load()
	if err != nil {
		// The blob is only a cache; a corrupt one must not block a rescan.
		s.logger.Warn("ignoring unreadable repository blob", "path", s.blobPath, "error", err)
		base = NewRepository()
	}

	fresh.AdoptActivity(base)
	return fresh, nil
}

// Persist atomically serializes the repository to the blob path. Failure is
// reported but the in-memory repository stays valid.
func (s *Store) Persist(repo *Repository) error {
	data, err := json.MarshalIndent(repo, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	dir := filepath.Dir(s.blobPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	// Write-then-rename so a concurrent Load never sees a torn blob.
	tmp, err := os.CreateTemp(dir, ".repository-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	if err := os.Rename(tmpName, s.blobPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	s.logger.Debug("repository persisted", "path", s.blobPath, "plugins", repo.Count())
	return nil
}
