package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/abdul-hamid-achik/hitdesk/packages/logging"
)

const (
	// DefaultDir is the data directory, relative to the working directory.
	DefaultDir = "dist"
	// DefaultFileName is the name of the library file inside the data directory.
	DefaultFileName = "api.json"

	filePermission = 0o644
	dirPermission  = 0o755
)

// JSONStore keeps the library in a single JSON file.
type JSONStore struct {
	dir      string
	fileName string
	logger   *slog.Logger

	// serializes read-modify-write cycles such as SaveRequest
	mu sync.Mutex
}

type Option func(*JSONStore)

// WithFileName overrides DefaultFileName.
func WithFileName(name string) Option {
	return func(s *JSONStore) {
		s.fileName = name
	}
}

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *JSONStore) {
		s.logger = logger
	}
}

// NewJSONStore creates a store rooted at dir.
func NewJSONStore(dir string, opts ...Option) *JSONStore {
	s := &JSONStore{
		dir:      dir,
		fileName: DefaultFileName,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the location of the library file.
func (s *JSONStore) Path() string {
	return filepath.Join(s.dir, s.fileName)
}

// Dir returns the data directory.
func (s *JSONStore) Dir() string {
	return s.dir
}

// Bootstrap creates the data directory and an empty library file when they
// do not exist yet.
func (s *JSONStore) Bootstrap() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, dirPermission); err != nil {
		return &Error{Op: "store.bootstrap", Kind: KindIO, Path: s.dir, Err: err}
	}

	path := s.Path()
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return &Error{Op: "store.bootstrap", Kind: KindIO, Path: path, Err: err}
	}

	if err := s.write(NewDocument()); err != nil {
		return err
	}

	s.logger.Info("created library file", slog.String("path", path))
	return nil
}

// Load reads the library. A missing file yields an empty document.
func (s *JSONStore) Load() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save replaces the library file with doc.
func (s *JSONStore) Save(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(doc)
}

// SaveRequest updates an existing saved request in the persisted library.
// It returns ErrNotFound, without writing, when no request has req.ID.
func (s *JSONStore) SaveRequest(req SavedRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := doc.UpsertRequest(req); err != nil {
		return err
	}
	return s.write(doc)
}

// Update loads the library, applies fn and saves the result unless fn fails.
func (s *JSONStore) Update(fn func(doc *Document) error) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	if err := s.write(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *JSONStore) load() (*Document, error) {
	path := s.Path()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("library file does not exist, returning empty document",
				slog.String("path", path))
			return NewDocument(), nil
		}
		return nil, &Error{Op: "store.read", Kind: KindIO, Path: path, Err: err}
	}

	if err := validateDocument(data); err != nil {
		return nil, &Error{Op: "store.validate", Kind: KindSerialization, Path: path, Err: err}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Op: "store.unmarshal", Kind: KindSerialization, Path: path, Err: err}
	}
	doc.normalize()

	s.logger.Debug("loaded library",
		slog.String("path", path),
		slog.Int("collections", len(doc.Collections)),
		slog.Int("requests", doc.RequestCount()))

	return &doc, nil
}

func (s *JSONStore) write(doc *Document) error {
	path := s.Path()

	if doc == nil {
		doc = NewDocument()
	}
	doc.normalize()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &Error{Op: "store.marshal", Kind: KindSerialization, Path: path, Err: err}
	}
	// never write a file that Load would reject
	if err := validateDocument(data); err != nil {
		return &Error{Op: "store.validate", Kind: KindSerialization, Path: path, Err: err}
	}

	if err := os.MkdirAll(s.dir, dirPermission); err != nil {
		return &Error{Op: "store.mkdir", Kind: KindIO, Path: s.dir, Err: err}
	}

	if err := atomicWriteFile(path, data, filePermission); err != nil {
		return &Error{Op: "store.write", Kind: KindIO, Path: path, Err: err}
	}

	s.logger.Debug("saved library",
		slog.String("path", path),
		slog.Int("bytes", len(data)))
	return nil
}

// atomicWriteFile writes data to a temp file in the same directory, syncs it
// and renames it over path.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := f.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	success = true
	return nil
}
