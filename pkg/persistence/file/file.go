// Package file provides file-based persistence: one JSON document per entity under a root directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dukex/bizflow/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root         string
	processRepo  *ProcessRepository
	instanceRepo *InstanceRepository
	taskRepo     *TaskRepository
	orgRepo      *OrgRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:         cleanRoot,
		processRepo:  NewProcessRepository(cleanRoot),
		instanceRepo: NewInstanceRepository(cleanRoot),
		taskRepo:     NewTaskRepository(cleanRoot),
		orgRepo:      NewOrgRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) ProcessRepository() persistence.ProcessRepository {
	return fp.processRepo
}

func (fp *Persistence) InstanceRepository() persistence.InstanceRepository {
	return fp.instanceRepo
}

func (fp *Persistence) TaskRepository() persistence.TaskRepository {
	return fp.taskRepo
}

func (fp *Persistence) OrgRepository() persistence.OrgRepository {
	return fp.orgRepo
}

// collection is a directory of <id>.json documents.
type collection struct {
	dir string
	mu  sync.RWMutex
}

func newCollection(root string, name ...string) *collection {
	return &collection{dir: filepath.Join(append([]string{root}, name...)...)}
}

// validateID validates that the ID is safe for file operations.
func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", persistence.ErrInvalidID)
	}

	if strings.Contains(id, "..") || strings.Contains(id, "/") || strings.Contains(id, "\\") {
		return fmt.Errorf("%w: %q contains invalid characters", persistence.ErrInvalidID, id)
	}

	return nil
}

func (c *collection) path(id string) string {
	return filepath.Join(c.dir, id+".json")
}

// read loads the document id into dest. It reports false when the document does not exist.
func (c *collection) read(id string, dest any) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}

	body, err := os.ReadFile(c.path(id)) // #nosec G304 -- id is validated above
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to read %s: %w", id, err)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", id, err)
	}

	return true, nil
}

// write stores value as document id. The write goes through a temporary file and a rename
// so readers never observe a partially written document.
func (c *collection) write(id string, value any) error {
	if err := validateID(id); err != nil {
		return err
	}

	if err := os.MkdirAll(c.dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.dir, err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", id, err)
	}

	return writeAtomic(c.dir, c.path(id), data)
}

func writeAtomic(dir, target string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("failed to move %s into place: %w", target, err)
	}

	return nil
}

// remove deletes document id. Missing documents are not an error.
func (c *collection) remove(id string) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}

	err := os.Remove(c.path(id))
	if err != nil && os.IsNotExist(err) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to delete %s: %w", id, err)
	}

	return true, nil
}

// ids lists document ids in lexical order.
func (c *collection) ids() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}

		return nil, fmt.Errorf("failed to read directory %s: %w", c.dir, err)
	}

	ids := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}

		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}

	sort.Strings(ids)

	return ids, nil
}

// loadAll decodes every document of the collection.
func loadAll[T any](c *collection) ([]*T, error) {
	ids, err := c.ids()
	if err != nil {
		return nil, err
	}

	items := make([]*T, 0, len(ids))

	for _, id := range ids {
		var item T

		found, err := c.read(id, &item)
		if err != nil {
			if errors.Is(err, persistence.ErrInvalidID) {
				continue
			}

			return nil, err
		}

		if found {
			items = append(items, &item)
		}
	}

	return items, nil
}
