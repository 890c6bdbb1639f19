package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/specsafe/specsafe/internal/config"
	"github.com/specsafe/specsafe/internal/sanitize"
	"github.com/specsafe/specsafe/internal/types"
)

// Store reads and writes one project's memory file with exclusive locking
// and atomic replacement. Loads of a missing file return an empty memory
// without touching the lock; a present-but-unusable file is a
// *CorruptionError and is never overwritten.
type Store struct {
	paths Paths
	cfg   config.Config
	lock  Locker
}

// NewStore returns a Store over the given layout guarded by a FileLock
func NewStore(paths Paths, cfg config.Config) *Store {
	return &Store{
		paths: paths,
		cfg:   cfg,
		lock:  NewFileLock(paths.LockPath, cfg),
	}
}

// NewStoreWithLocker returns a Store using a caller-supplied lock
// implementation
func NewStoreWithLocker(paths Paths, cfg config.Config, lock Locker) *Store {
	return &Store{paths: paths, cfg: cfg, lock: lock}
}

// Paths returns the resolved file layout this store operates on
func (s *Store) Paths() Paths {
	return s.paths
}

// Exists reports whether the store file is present on disk
func (s *Store) Exists() bool {
	_, err := os.Stat(s.paths.StorePath)
	return err == nil
}

// Load reads the project memory from disk.
//
// A missing store file is not an error: a fresh empty memory for projectID
// is returned and no lock is taken. When the file exists, its own project
// id wins; projectID only seeds new memories. Decision rationale and
// alternatives pass through secret redaction on the way in, so secrets
// written by older tools do not propagate.
func (s *Store) Load(ctx context.Context, projectID string) (*types.ProjectMemory, error) {
	if err := types.ValidateID("projectId", projectID); err != nil {
		return nil, err
	}

	if !s.Exists() {
		return types.NewProjectMemory(projectID), nil
	}

	if err := s.lock.Acquire(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := s.lock.Release(); err != nil {
			log.Printf("[STORE] failed to release lock: %v", err)
		}
	}()

	return s.readMemory(projectID)
}

// Save validates mem and atomically replaces the store file under the lock.
// The write goes to a temporary file in the store directory, then renames
// over the store file, so readers never observe a partial write.
func (s *Store) Save(ctx context.Context, mem *types.ProjectMemory) error {
	if mem == nil {
		return fmt.Errorf("cannot save nil memory")
	}
	if err := mem.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(s.paths.Dir, 0755); err != nil {
		return &IOError{Op: "creating", Path: s.paths.Dir, Err: err}
	}

	if err := s.lock.Acquire(ctx); err != nil {
		return err
	}
	defer func() {
		if err := s.lock.Release(); err != nil {
			log.Printf("[STORE] failed to release lock: %v", err)
		}
	}()

	return s.writeMemory(mem)
}

// Update applies fn to the current memory and writes the result, all under
// a single lock session. Two processes updating concurrently serialize on
// the lock, so neither's additions are lost to a stale read.
//
// fn returning an error aborts the update with nothing written. The updated
// memory is returned on success.
func (s *Store) Update(ctx context.Context, projectID string, fn func(*types.ProjectMemory) error) (*types.ProjectMemory, error) {
	if err := types.ValidateID("projectId", projectID); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.paths.Dir, 0755); err != nil {
		return nil, &IOError{Op: "creating", Path: s.paths.Dir, Err: err}
	}

	if err := s.lock.Acquire(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := s.lock.Release(); err != nil {
			log.Printf("[STORE] failed to release lock: %v", err)
		}
	}()

	mem, err := s.readMemory(projectID)
	if err != nil {
		return nil, err
	}

	if err := fn(mem); err != nil {
		return nil, err
	}

	if err := mem.Validate(); err != nil {
		return nil, err
	}

	if err := s.writeMemory(mem); err != nil {
		return nil, err
	}
	return mem, nil
}

// readMemory parses and validates the store file. Caller holds the lock.
// A missing file yields a fresh empty memory for projectID.
func (s *Store) readMemory(projectID string) (*types.ProjectMemory, error) {
	data, err := os.ReadFile(s.paths.StorePath)
	if os.IsNotExist(err) {
		return types.NewProjectMemory(projectID), nil
	}
	if err != nil {
		return nil, &IOError{Op: "reading", Path: s.paths.StorePath, Err: err}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &CorruptionError{Path: s.paths.StorePath, Reason: "file is empty"}
	}

	var mem types.ProjectMemory
	if err := json.Unmarshal(data, &mem); err != nil {
		return nil, &CorruptionError{Path: s.paths.StorePath, Reason: "invalid JSON", Err: err}
	}

	normalize(&mem)

	if err := mem.Validate(); err != nil {
		return nil, &CorruptionError{Path: s.paths.StorePath, Reason: "content violates memory invariants", Err: err}
	}

	if n := redactLoaded(&mem); n > 0 {
		log.Printf("[STORE] redacted %d secret-shaped fields while loading %s", n, s.paths.StorePath)
	}

	return &mem, nil
}

// writeMemory marshals mem and atomically replaces the store file.
// Caller holds the lock.
func (s *Store) writeMemory(mem *types.ProjectMemory) error {
	data, err := json.MarshalIndent(mem, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling memory: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.paths.Dir, s.cfg.StoreFileName+".tmp-*")
	if err != nil {
		return &IOError{Op: "creating temp file in", Path: s.paths.Dir, Err: err}
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath) // best-effort cleanup
		return &IOError{Op: "writing", Path: tmpPath, Err: err}
	}

	if err := os.Rename(tmpPath, s.paths.StorePath); err != nil {
		_ = os.Remove(tmpPath) // best-effort cleanup
		return &IOError{Op: "replacing", Path: s.paths.StorePath, Err: err}
	}

	log.Printf("[STORE] saved memory for %s: %d specs, %d decisions, %d patterns (%d bytes)",
		mem.ProjectID, len(mem.Specs), len(mem.Decisions), len(mem.Patterns), len(data))
	return nil
}

// normalize replaces nil collections with empty ones so a file written with
// missing arrays round-trips as [] rather than null
func normalize(mem *types.ProjectMemory) {
	if mem.Specs == nil {
		mem.Specs = []string{}
	}
	if mem.Decisions == nil {
		mem.Decisions = []types.Decision{}
	}
	if mem.Patterns == nil {
		mem.Patterns = []types.Pattern{}
	}
	if mem.Constraints == nil {
		mem.Constraints = []types.Constraint{}
	}
	if mem.History == nil {
		mem.History = []types.HistoryEntry{}
	}
}

// redactLoaded runs secret redaction over decision rationale and
// alternatives, returning how many fields changed
func redactLoaded(mem *types.ProjectMemory) int {
	changed := 0
	for i := range mem.Decisions {
		d := &mem.Decisions[i]
		if r := sanitize.Redact(d.Rationale); r != d.Rationale {
			d.Rationale = r
			changed++
		}
		for j, alt := range d.Alternatives {
			if r := sanitize.Redact(alt); r != alt {
				d.Alternatives[j] = r
				changed++
			}
		}
	}
	return changed
}
