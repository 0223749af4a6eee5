// util/cache.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/vmihailenco/msgpack/v5"
)

func fullCachePath(path string) (string, error) {
	cd, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cd, "xpapt", path), nil
}

// CacheStoreObject msgpack-encodes obj and stores it, deflate compressed,
// at the given path under the user's cache directory.
func CacheStoreObject(path string, obj any) error {
	path, err := fullCachePath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fw, err := flate.NewWriter(f, flate.BestSpeed)
	if err != nil {
		return err
	}

	if err := msgpack.NewEncoder(fw).Encode(obj); err != nil {
		return err
	}
	return fw.Close()
}

// ErrCacheExpired is returned by CacheRetrieveObject for objects older than
// the requested maximum age.
var ErrCacheExpired = errors.New("cached object expired")

// CacheRetrieveObject decodes an object previously stored with
// CacheStoreObject and returns the time it was written. An object older
// than maxAge is removed from the cache and ErrCacheExpired is returned, as
// is one that can't be decoded. A zero maxAge accepts objects of any age.
func CacheRetrieveObject(path string, obj any, maxAge time.Duration) (time.Time, error) {
	path, err := fullCachePath(path)
	if err != nil {
		return time.Time{}, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	if maxAge > 0 && time.Since(fi.ModTime()) > maxAge {
		if err := os.Remove(path); err != nil {
			return fi.ModTime(), err
		}
		return fi.ModTime(), ErrCacheExpired
	}

	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	fr := flate.NewReader(f)
	err = msgpack.NewDecoder(fr).Decode(obj)
	fr.Close()
	f.Close()

	if err != nil {
		os.Remove(path)
		return fi.ModTime(), fmt.Errorf("%s: %w: %w", path, ErrCacheExpired, err)
	}
	return fi.ModTime(), nil
}

// CacheCullObjects removes the least recently written objects from the
// cache until it uses no more than maxBytes.
func CacheCullObjects(maxBytes int64) error {
	cacheDir, err := fullCachePath("")
	if err != nil {
		return err
	}

	if _, err := os.Stat(cacheDir); os.IsNotExist(err) {
		return nil // Nothing to cull
	}

	type fileInfo struct {
		path    string
		size    int64
		modTime time.Time
	}
	var files []fileInfo
	var totalSize int64

	err = filepath.Walk(cacheDir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			files = append(files, fileInfo{
				path:    path,
				size:    info.Size(),
				modTime: info.ModTime(),
			})
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Oldest first
	slices.SortFunc(files, func(a, b fileInfo) int {
		return a.modTime.Compare(b.modTime)
	})

	for len(files) > 0 && totalSize > maxBytes {
		f := files[0]
		if err := os.Remove(f.path); err == nil {
			totalSize -= f.size
		}
		files = files[1:]
	}

	return nil
}
