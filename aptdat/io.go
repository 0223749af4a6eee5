// aptdat/io.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aptdat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mmp/xpapt/log"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"
)

// IsZstd reports whether the path names a zstd-compressed file.
func IsZstd(path string) bool {
	return filepath.Ext(path) == ".zst"
}

// NewDecompressingReader returns a Reader that handles zstd decompression
// transparently if path has the .zst extension. The returned close
// function must be called when the caller is done with the Reader.
func NewDecompressingReader(r io.Reader, path string) (io.Reader, func(), error) {
	if !IsZstd(path) {
		return r, func() {}, nil
	}
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, nil, err
	}
	return zr, zr.Close, nil
}

// Load reads and parses the apt.dat file at the given path, which may be
// zstd compressed.
func Load(path string, lg *log.Logger) (*AptDat, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, closer, err := NewDecompressingReader(f, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer closer()

	ad, err := Read(r, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	lg.Info("loaded apt.dat", slog.String("path", path), slog.Int("version", ad.Version),
		slog.Int("airports", ad.Len()), slog.Duration("elapsed", time.Since(start)))
	if ad.Orphans > 0 {
		lg.Warnf("%s: discarded %d records before the first airport header", path, ad.Orphans)
	}

	return ad, nil
}

// LoadFiles loads multiple apt.dat files concurrently and returns a
// single AptDat with their airports in the order of the paths given. The
// version is taken from the first file.
func LoadFiles(ctx context.Context, paths []string, lg *log.Logger) (*AptDat, error) {
	loaded := make([]*AptDat, len(paths))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ad, err := Load(path, lg)
			loaded[i] = ad
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	ad := New()
	if len(loaded) == 1 {
		ad.Path = loaded[0].Path
	}
	for i, l := range loaded {
		if i == 0 {
			ad.Version = l.Version
		}
		ad.Extend(l)
		ad.Orphans += l.Orphans
	}
	return ad, nil
}

// CheckPath returns ErrInvalidPath unless path names a .dat or .dat.zst
// file.
func CheckPath(path string) error {
	if !strings.HasSuffix(path, ".dat") && !strings.HasSuffix(path, ".dat.zst") {
		return fmt.Errorf("%q: %w", path, ErrInvalidPath)
	}
	return nil
}

func writeDatFile(path string, wt io.WriterTo) error {
	if err := CheckPath(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if IsZstd(path) {
		zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			f.Close()
			return err
		}
		if _, err := wt.WriteTo(zw); err != nil {
			zw.Close()
			f.Close()
			return err
		}
		if err := zw.Close(); err != nil {
			f.Close()
			return err
		}
	} else if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
