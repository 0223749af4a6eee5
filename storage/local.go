// storage/local.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmp/xpapt/aptdat"
)

// LocalBackend stores objects as files under a root directory; object
// names are slash-separated paths relative to it.
type LocalBackend struct {
	Root string
}

func MakeLocalBackend(root string) (*LocalBackend, error) {
	if fi, err := os.Stat(root); err != nil {
		return nil, err
	} else if !fi.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}
	return &LocalBackend{Root: root}, nil
}

func (l *LocalBackend) fullPath(path string) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(path)) {
		return "", fmt.Errorf("%s: path outside of %s", path, l.Root)
	}
	return filepath.Join(l.Root, filepath.FromSlash(path)), nil
}

func (l *LocalBackend) List(ctx context.Context, prefix string) (map[string]int64, error) {
	m := make(map[string]int64)
	err := filepath.WalkDir(l.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(l.Root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, prefix) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		m[rel] = fi.Size()
		return nil
	})
	return m, err
}

func (l *LocalBackend) OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	fp, err := l.fullPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fp)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Join(aptdat.ErrNotFound, err)
	}
	return f, err
}

func (l *LocalBackend) create(path string) (*os.File, error) {
	fp, err := l.fullPath(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return nil, err
	}
	return os.Create(fp)
}

func (l *LocalBackend) Store(ctx context.Context, path string, r io.Reader) (int64, error) {
	f, err := l.create(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		return n, err
	}
	return n, f.Close()
}

func (l *LocalBackend) StoreObject(ctx context.Context, path string, object any) (int64, error) {
	f, err := l.create(path)
	if err != nil {
		return 0, err
	}
	n, err := encodeObject(f, object)
	if err != nil {
		f.Close()
		return 0, err
	}
	return n, f.Close()
}

func (l *LocalBackend) Delete(ctx context.Context, path string) error {
	fp, err := l.fullPath(path)
	if err != nil {
		return err
	}
	return os.Remove(fp)
}

func (l *LocalBackend) Close() {}

// DryRunBackend reads from an underlying Backend but discards
// everything that is written to it.
type DryRunBackend struct {
	Backend
}

type SinkWriter struct{}

func (w *SinkWriter) Write(b []byte) (int, error) {
	return len(b), nil
}

func (d DryRunBackend) Store(ctx context.Context, path string, r io.Reader) (int64, error) {
	return io.Copy(&SinkWriter{}, r)
}

func (d DryRunBackend) StoreObject(ctx context.Context, path string, object any) (int64, error) {
	return encodeObject(&SinkWriter{}, object)
}

func (d DryRunBackend) Delete(ctx context.Context, path string) error { return nil }
