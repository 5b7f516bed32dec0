package credential

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrymomot/voyagerkit/core/logger"
)

// Store persists one Set per principal.
// Read returns the empty set, not an error, for an unknown principal.
type Store interface {
	Read(ctx context.Context, principal string) (Set, error)
	Write(ctx context.Context, principal string, s Set) error
}

// StoreOptions holds settings shared by Store implementations.
type StoreOptions struct {
	Codec  Codec
	Logger *slog.Logger
}

// StoreOption configures a Store implementation.
type StoreOption func(*StoreOptions)

// WithCodec sets the codec used to serialize sets. Defaults to JSONCodec.
func WithCodec(c Codec) StoreOption {
	return func(o *StoreOptions) {
		if c != nil {
			o.Codec = c
		}
	}
}

// WithStoreLogger sets the logger used by a Store implementation.
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(o *StoreOptions) {
		if l != nil {
			o.Logger = l
		}
	}
}

// ApplyStoreOptions resolves opts over the defaults.
func ApplyStoreOptions(opts ...StoreOption) StoreOptions {
	o := StoreOptions{Codec: JSONCodec{}, Logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Filename returns the hex md5 digest of principal, used as a storage key
// that does not reveal the principal.
func Filename(principal string) string {
	sum := md5.Sum([]byte(principal))
	return hex.EncodeToString(sum[:])
}

// EphemeralStore remembers nothing: reads are empty, writes are dropped.
type EphemeralStore struct{}

// Read implements Store.
func (EphemeralStore) Read(context.Context, string) (Set, error) { return Set{}, nil }

// Write implements Store.
func (EphemeralStore) Write(context.Context, string, Set) error { return nil }

// MemoryStore keeps sets in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	sets map[string]Set
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string]Set)}
}

// Read implements Store.
func (m *MemoryStore) Read(ctx context.Context, principal string) (Set, error) {
	if err := ctx.Err(); err != nil {
		return Set{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sets[principal], nil
}

// Write implements Store.
func (m *MemoryStore) Write(ctx context.Context, principal string, s Set) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[principal] = s
	return nil
}

// FileStore keeps one file per principal under a directory.
type FileStore struct {
	dir    string
	codec  Codec
	logger *slog.Logger
}

// NewFileStore creates a store writing to dir. The directory is created on first use.
func NewFileStore(dir string, opts ...StoreOption) (*FileStore, error) {
	if dir == "" {
		return nil, ErrNoDirectory
	}
	o := ApplyStoreOptions(opts...)
	return &FileStore{
		dir:    dir,
		codec:  o.Codec,
		logger: o.Logger.With(logger.Component("credential.file")),
	}, nil
}

// Path returns the file holding principal's credentials.
func (f *FileStore) Path(principal string) string {
	return filepath.Join(f.dir, Filename(principal)+"-credentials.json")
}

// Read implements Store. A missing file is initialized with the empty set.
func (f *FileStore) Read(ctx context.Context, principal string) (Set, error) {
	if err := ctx.Err(); err != nil {
		return Set{}, err
	}
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return Set{}, err
	}

	data, err := os.ReadFile(f.Path(principal))
	if errors.Is(err, fs.ErrNotExist) {
		f.logger.InfoContext(ctx, "no credential file, writing empty set", logger.Principal(principal))
		return Set{}, f.Write(ctx, principal, Set{})
	}
	if err != nil {
		return Set{}, err
	}

	s, err := f.codec.Decode(data)
	if err != nil {
		f.logger.ErrorContext(ctx, "failed to decode credential file",
			logger.Principal(principal),
			logger.Error(err),
		)
		return Set{}, err
	}
	return s, nil
}

// Write implements Store. The file is replaced atomically.
func (f *FileStore) Write(ctx context.Context, principal string, s Set) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return err
	}

	data, err := f.codec.Encode(s)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, ".credentials-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path(principal))
}
