package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/liveparams/internal/logging"
	"github.com/aretw0/liveparams/pkg/adapters/memory"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by Load when the document file does not exist.
var ErrNotFound = errors.New("document file not found")

// Store reads and writes the full reference host state to one file.
// Files ending in .json are written as JSON; everything else as YAML.
type Store struct {
	Path string

	mu     sync.Mutex
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used by the change hook.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store for path.
func New(path string, opts ...Option) *Store {
	s := &Store{Path: path, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) isJSON() bool {
	return strings.EqualFold(filepath.Ext(s.Path), ".json")
}

// Load reads the host state from disk.
func (s *Store) Load(ctx context.Context) (memory.HostSpec, error) {
	var spec memory.HostSpec
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return spec, fmt.Errorf("%w: %s", ErrNotFound, s.Path)
		}
		return spec, fmt.Errorf("failed to read document file: %w", err)
	}

	if s.isJSON() {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&spec)
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&spec)
	}
	if err != nil {
		return spec, fmt.Errorf("failed to parse %s: %w", s.Path, err)
	}
	return spec, nil
}

// Save writes the host state atomically: temp file, fsync, rename.
func (s *Store) Save(ctx context.Context, spec memory.HostSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.marshal(spec)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure document directory: %w", err)
	}

	// Same directory so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(dir, "tmp-"+filepath.Base(s.Path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename fails on Windows when the destination exists.
	if _, err := os.Stat(s.Path); err == nil {
		if err := os.Remove(s.Path); err != nil {
			return fmt.Errorf("failed to remove existing document for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		return fmt.Errorf("failed to rename temp file to document: %w", err)
	}
	return nil
}

func (s *Store) marshal(spec memory.HostSpec) ([]byte, error) {
	if s.isJSON() {
		data, err := json.MarshalIndent(spec, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal document: %w", err)
		}
		return append(data, '\n'), nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(spec); err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return buf.Bytes(), nil
}

// Persist returns a memory.WithChangeHook callback that saves every change.
// Save failures are logged; the host mutation itself already succeeded.
func (s *Store) Persist() func(memory.HostSpec) {
	return func(spec memory.HostSpec) {
		if err := s.Save(context.Background(), spec); err != nil {
			s.logger.Error("Failed to persist document", "path", s.Path, "err", err)
			return
		}
		s.logger.Debug("Document persisted", "path", s.Path)
	}
}

// Host is a reference host backed by a Store. Every change is saved to the file,
// and Reload picks up changes written by other processes sharing it.
type Host struct {
	*memory.Host
	store *Store
}

// OpenHost loads the file into a reference host that saves itself back on every change.
// A missing file yields an empty host; it is created on the first change.
func OpenHost(ctx context.Context, s *Store, opts ...memory.Option) (*Host, error) {
	spec, err := s.Load(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	opts = append(opts, memory.WithChangeHook(s.Persist()))
	host, err := memory.NewFromSpec(spec, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid document %s: %w", s.Path, err)
	}
	return &Host{Host: host, store: s}, nil
}

// Reload replaces the in-memory state with the file contents.
// A file that does not exist yet leaves the host as is.
func (h *Host) Reload(ctx context.Context) error {
	spec, err := h.store.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := h.Host.Replace(spec); err != nil {
		return fmt.Errorf("invalid document %s: %w", h.store.Path, err)
	}
	return nil
}
