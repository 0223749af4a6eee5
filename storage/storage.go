// storage/storage.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package storage provides access to apt.dat files and derived airport
// indices kept either on the local filesystem or in a Google Cloud
// Storage bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/mmp/xpapt/aptdat"
	"github.com/mmp/xpapt/log"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

type Backend interface {
	// List returns the names and sizes of all objects under the given
	// prefix.
	List(ctx context.Context, prefix string) (map[string]int64, error)
	OpenRead(ctx context.Context, path string) (io.ReadCloser, error)
	Store(ctx context.Context, path string, r io.Reader) (int64, error)
	// StoreObject stores object as zstd-compressed msgpack and returns
	// the number of bytes written.
	StoreObject(ctx context.Context, path string, object any) (int64, error)
	Delete(ctx context.Context, path string) error
	Close()
}

// Pool a limited number of them to keep memory use under control.
var zstdEncoders chan *zstd.Encoder

func init() {
	const nenc = 4
	zstdEncoders = make(chan *zstd.Encoder, nenc)
	for range nenc {
		ze, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression), zstd.WithEncoderConcurrency(1))
		if err != nil {
			panic(err)
		}
		zstdEncoders <- ze
	}
}

type CountingWriter struct {
	io.Writer
	N int64
}

func (w *CountingWriter) Write(b []byte) (int, error) {
	n, err := w.Writer.Write(b)
	w.N += int64(n)
	return n, err
}

// encodeObject writes object to w as zstd-compressed msgpack.
func encodeObject(w io.Writer, object any) (int64, error) {
	cw := &CountingWriter{Writer: w}

	zw := <-zstdEncoders
	defer func() { zstdEncoders <- zw }()
	zw.Reset(cw)

	if err := msgpack.NewEncoder(zw).Encode(object); err != nil {
		return 0, err
	} else if err := zw.Close(); err != nil {
		return 0, err
	}
	return cw.N, nil
}

// Open returns a Backend for the given location: "gs://bucket" gives a
// GCS bucket, with credentials taken from the environment variable
// credsEnv if it is set, and anything else is treated as a local
// directory.
func Open(ctx context.Context, location string, credsEnv string, lg *log.Logger) (Backend, error) {
	if bucket, ok := strings.CutPrefix(location, "gs://"); ok {
		bucket = strings.TrimSuffix(bucket, "/")
		if bucket == "" || strings.Contains(bucket, "/") {
			return nil, fmt.Errorf("%s: invalid bucket", location)
		}
		g, err := MakeGCSBackend(ctx, bucket, credsEnv, lg)
		if err != nil {
			return nil, err
		}
		return g, nil
	}

	l, err := MakeLocalBackend(location)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// SplitURL splits a path of the form gs://bucket/object into the
// location of its backend and the object path. Other paths are split
// into their directory and file name.
func SplitURL(p string) (location, object string) {
	if rest, ok := strings.CutPrefix(p, "gs://"); ok {
		bucket, obj, _ := strings.Cut(rest, "/")
		return "gs://" + bucket, obj
	}
	dir, file := path.Split(p)
	if dir == "" {
		dir = "."
	}
	return dir, file
}

// ReadAll returns the contents of the given object, decompressing it if
// it is zstd-compressed.
func ReadAll(ctx context.Context, b Backend, path string) ([]byte, error) {
	rc, err := b.OpenRead(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r, closer, err := aptdat.NewDecompressingReader(rc, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer closer()

	return io.ReadAll(r)
}

// LoadAptDat reads and parses the apt.dat file stored at path.
func LoadAptDat(ctx context.Context, b Backend, path string, lg *log.Logger) (*aptdat.AptDat, error) {
	if err := aptdat.CheckPath(path); err != nil {
		return nil, err
	}

	buf, err := ReadAll(ctx, b, path)
	if err != nil {
		return nil, err
	}
	ad, err := aptdat.Parse(string(buf), path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	lg.Info("loaded apt.dat from storage", "path", path, "airports", ad.Len(), "orphans", ad.Orphans)
	return ad, nil
}

// StoreAptDat writes the airports to path, compressing them if it has
// the .zst extension.
func StoreAptDat(ctx context.Context, b Backend, path string, ad *aptdat.AptDat) (int64, error) {
	if err := aptdat.CheckPath(path); err != nil {
		return 0, err
	}

	if !aptdat.IsZstd(path) {
		return b.Store(ctx, path, strings.NewReader(ad.String()))
	}

	var buf bytes.Buffer
	zw := <-zstdEncoders
	zw.Reset(&buf)
	_, err := ad.WriteTo(zw)
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	zstdEncoders <- zw
	if err != nil {
		return 0, err
	}

	return b.Store(ctx, path, &buf)
}

// StoreSummaries saves an airport index for later use with
// LoadSummaries.
func StoreSummaries(ctx context.Context, b Backend, path string, sums []aptdat.Summary) (int64, error) {
	return b.StoreObject(ctx, path, sums)
}

func LoadSummaries(ctx context.Context, b Backend, path string) ([]aptdat.Summary, error) {
	rc, err := b.OpenRead(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	zr, err := zstd.NewReader(rc)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var sums []aptdat.Summary
	if err := msgpack.NewDecoder(zr).Decode(&sums); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sums, nil
}
