// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tempres materializes in-memory uploads as uniquely named temporary
// files so path-based conversion engines can read them. Each Resource is
// owned by a single conversion attempt and must be released exactly once.
package tempres

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// filePrefix is the name prefix of every temporary resource.
const filePrefix = "doc-reader-"

// Bridge creates and removes temporary resources on a filesystem.
type Bridge struct {
	fs  afero.Fs
	dir string
	log zerolog.Logger
}

// NewBridge returns a Bridge that creates resources in dir on fs. An empty
// dir selects the OS temp directory.
func NewBridge(fs afero.Fs, dir string, log zerolog.Logger) *Bridge {
	return &Bridge{fs: fs, dir: dir, log: log}
}

// NewOSBridge returns a Bridge backed by the host filesystem.
func NewOSBridge(dir string, log zerolog.Logger) *Bridge {
	return NewBridge(afero.NewOsFs(), dir, log)
}

// Resource is a handle to one temporary file.
type Resource struct {
	path   string
	bridge *Bridge
	once   sync.Once
}

// Path returns the resolved filesystem path of the resource.
func (r *Resource) Path() string { return r.path }

// Acquire writes content to a new temporary file whose name ends in ext.
// Callers lower-case ext so engines sniff formats case-insensitively.
func (b *Bridge) Acquire(content []byte, ext string) (*Resource, error) {
	f, err := afero.TempFile(b.fs, b.dir, filePrefix+"*"+ext)
	if err != nil {
		return nil, fmt.Errorf("creating temporary file: %w", err)
	}
	path := f.Name()

	_, werr := f.Write(content)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = b.fs.Remove(path)
		return nil, fmt.Errorf("writing temporary file %s: %w", path, err)
	}

	b.log.Debug().Str("path", path).Int("bytes", len(content)).Msg("acquired temporary resource")
	return &Resource{path: path, bridge: b}, nil
}

// Release deletes the resource file if it still exists. Only the first
// call has an effect. Deletion errors are logged and swallowed.
func (r *Resource) Release() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		err := r.bridge.fs.Remove(r.path)
		switch {
		case err == nil:
			r.bridge.log.Debug().Str("path", r.path).Msg("released temporary resource")
		case errors.Is(err, os.ErrNotExist):
		default:
			r.bridge.log.Warn().Err(err).Str("path", r.path).Msg("could not remove temporary resource")
		}
	})
}

// With acquires a resource, runs fn with its path and releases the
// resource on every exit path, including a panic in fn.
func (b *Bridge) With(content []byte, ext string, fn func(path string) error) error {
	r, err := b.Acquire(content, ext)
	if err != nil {
		return err
	}
	defer r.Release()
	return fn(r.Path())
}
