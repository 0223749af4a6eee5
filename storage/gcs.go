// storage/gcs.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package storage

import (
	"context"
	"errors"
	"io"
	"os"
	fpath "path/filepath"

	"github.com/mmp/xpapt/aptdat"
	"github.com/mmp/xpapt/log"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GCSBackend struct {
	client *storage.Client
	bucket *storage.BucketHandle
	lg     *log.Logger
}

// MakeGCSBackend returns a Backend for the named bucket. If credsEnv
// names a set environment variable, its value is used as the service
// account JSON; otherwise the application default credentials are used.
func MakeGCSBackend(ctx context.Context, bucketName string, credsEnv string, lg *log.Logger) (*GCSBackend, error) {
	var opt option.ClientOption
	if credsJSON := os.Getenv(credsEnv); credsEnv != "" && credsJSON != "" {
		opt = option.WithCredentialsJSON([]byte(credsJSON))
	} else {
		creds, err := google.FindDefaultCredentials(ctx, storage.ScopeReadWrite)
		if err != nil {
			return nil, err
		}
		opt = option.WithCredentials(creds)
	}

	client, err := storage.NewClient(ctx, opt)
	if err != nil {
		return nil, err
	}

	lg.Debugf("opened GCS bucket %s", bucketName)
	return &GCSBackend{
		client: client,
		bucket: client.Bucket(bucketName),
		lg:     lg,
	}, nil
}

func (g *GCSBackend) List(ctx context.Context, path string) (map[string]int64, error) {
	path = fpath.Clean(path)
	if path == "." {
		path = ""
	}
	query := storage.Query{
		Projection: storage.ProjectionNoACL,
		Prefix:     path,
	}

	m := make(map[string]int64)
	it := g.bucket.Objects(ctx, &query)
	for {
		if obj, err := it.Next(); err == iterator.Done {
			break
		} else if err != nil {
			return nil, err
		} else if fpath.Clean(obj.Name) != path { // don't return the root ~folder
			m[obj.Name] = obj.Size
		}
	}

	return m, nil
}

func (g *GCSBackend) OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	r, err := g.bucket.Object(path).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, errors.Join(aptdat.ErrNotFound, err)
	}
	return r, err
}

func (g *GCSBackend) Store(ctx context.Context, path string, r io.Reader) (int64, error) {
	objw := g.bucket.Object(path).NewWriter(ctx)
	n, err := io.Copy(objw, r)
	if err != nil {
		objw.Close()
		return n, err
	}
	g.lg.Debugf("%s: stored %d bytes", path, n)
	return n, objw.Close()
}

func (g *GCSBackend) StoreObject(ctx context.Context, path string, object any) (int64, error) {
	objw := g.bucket.Object(path).NewWriter(ctx)
	n, err := encodeObject(objw, object)
	if err != nil {
		objw.Close()
		return 0, err
	}
	return n, objw.Close()
}

func (g *GCSBackend) Delete(ctx context.Context, path string) error {
	return g.bucket.Object(path).Delete(ctx)
}

func (g *GCSBackend) Close() { g.client.Close() }
