package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"github.com/comalice/chartkit/internal/core"
)

// ErrSnapshotNotFound is returned by Load for an unknown instance.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store persists instance snapshots.
type Store interface {
	Save(ctx context.Context, snapshot core.Snapshot) error
	Load(ctx context.Context, instanceID string) (core.Snapshot, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, instanceID string) error
}

type codec struct {
	ext       string
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte, any) error
}

// fileStore keeps one file per instance, replaced atomically on every save.
type fileStore struct {
	dir   string
	codec codec
}

var (
	_ Store = (*JSONStore)(nil)
	_ Store = (*YAMLStore)(nil)
)

// JSONStore is a file-based Store using JSON serialization.
type JSONStore struct{ fileStore }

// NewJSONStore creates a JSONStore, ensuring the directory exists.
func NewJSONStore(dir string) (*JSONStore, error) {
	fs, err := newFileStore(dir, codec{
		ext:       ".json",
		marshal:   func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") },
		unmarshal: json.Unmarshal,
	})
	if err != nil {
		return nil, err
	}
	return &JSONStore{fs}, nil
}

// YAMLStore is a file-based Store using YAML serialization.
type YAMLStore struct{ fileStore }

// NewYAMLStore creates a YAMLStore, ensuring the directory exists.
func NewYAMLStore(dir string) (*YAMLStore, error) {
	fs, err := newFileStore(dir, codec{ext: ".yaml", marshal: yaml.Marshal, unmarshal: yaml.Unmarshal})
	if err != nil {
		return nil, err
	}
	return &YAMLStore{fs}, nil
}

func newFileStore(dir string, c codec) (fileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fileStore{}, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return fileStore{dir: dir, codec: c}, nil
}

func (s fileStore) path(instanceID string) (string, error) {
	if instanceID == "" || strings.ContainsAny(instanceID, `/\`) || instanceID == "." || instanceID == ".." {
		return "", fmt.Errorf("invalid instance ID %q", instanceID)
	}
	return filepath.Join(s.dir, instanceID+s.codec.ext), nil
}

// Save writes the snapshot durably: temp file, fsync, rename.
func (s fileStore) Save(ctx context.Context, snapshot core.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fn, err := s.path(snapshot.InstanceID)
	if err != nil {
		return err
	}
	data, err := s.codec.marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", snapshot.InstanceID, err)
	}

	pending, err := renameio.NewPendingFile(fn)
	if err != nil {
		return fmt.Errorf("create pending %s: %w", fn, err)
	}
	defer pending.Cleanup() //nolint:errcheck // no-op after a successful replace
	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", fn, err)
	}
	return nil
}

func (s fileStore) Load(ctx context.Context, instanceID string) (core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return core.Snapshot{}, err
	}
	fn, err := s.path(instanceID)
	if err != nil {
		return core.Snapshot{}, err
	}
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.Snapshot{}, fmt.Errorf("instance %q: %w", instanceID, ErrSnapshotNotFound)
		}
		return core.Snapshot{}, fmt.Errorf("read %s: %w", fn, err)
	}
	var snapshot core.Snapshot
	if err := s.codec.unmarshal(data, &snapshot); err != nil {
		return core.Snapshot{}, fmt.Errorf("unmarshal %s: %w", fn, err)
	}
	snapshot.InstanceID = instanceID
	return snapshot, nil
}

// List returns the stored instance IDs, sorted.
func (s fileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id, ok := strings.CutSuffix(e.Name(), s.codec.ext); ok && !strings.HasPrefix(e.Name(), ".") {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s fileStore) Delete(ctx context.Context, instanceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fn, err := s.path(instanceID)
	if err != nil {
		return err
	}
	if err := os.Remove(fn); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("instance %q: %w", instanceID, ErrSnapshotNotFound)
		}
		return fmt.Errorf("remove %s: %w", fn, err)
	}
	return nil
}
