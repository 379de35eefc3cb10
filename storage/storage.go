package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"briefdraft-backend/config"
)

// ErrNotFound is returned when a key does not exist
var ErrNotFound = errors.New("file not found")

// ErrInvalidKey is returned for keys that escape the storage root
var ErrInvalidKey = errors.New("invalid storage key")

// Storage interface for file storage operations
type Storage interface {
	// Put stores data under key, replacing any existing object
	Put(ctx context.Context, key string, data io.Reader, contentType string) error

	// Open retrieves an object; ErrNotFound if missing
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether key is present
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes an object; missing keys are not an error
	Delete(ctx context.Context, key string) error
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
	StorageTypeMinio StorageType = "minio"
)

// Roots are the two logical storage areas served by the API
type Roots struct {
	Documents Storage
	Uploads   Storage
}

// NewRoots builds the generated-documents and uploads storages from configuration.
// Local storage uses sibling directories; object stores share one bucket with key prefixes.
func NewRoots(cfg config.StorageConfig) (*Roots, error) {
	switch StorageType(cfg.Type) {
	case StorageTypeLocal, "":
		docs, err := NewLocalStorage(filepath.Join(cfg.LocalPath, "docs"))
		if err != nil {
			return nil, err
		}
		uploads, err := NewLocalStorage(filepath.Join(cfg.LocalPath, "uploads"))
		if err != nil {
			return nil, err
		}
		return &Roots{Documents: docs, Uploads: uploads}, nil

	case StorageTypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}
		s3s, err := NewS3Storage(cfg)
		if err != nil {
			return nil, err
		}
		return &Roots{Documents: WithPrefix(s3s, "docs"), Uploads: WithPrefix(s3s, "uploads")}, nil

	case StorageTypeMinio:
		if cfg.MinioEndpoint == "" || cfg.MinioBucket == "" {
			return nil, errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required for MinIO storage")
		}
		ms, err := NewMinioStorage(cfg)
		if err != nil {
			return nil, err
		}
		return &Roots{Documents: WithPrefix(ms, "docs"), Uploads: WithPrefix(ms, "uploads")}, nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// CleanKey normalizes a slash-separated key and rejects traversal outside the root
func CleanKey(key string) (string, error) {
	key = strings.ReplaceAll(key, "\\", "/")
	cleaned := path.Clean("/" + key)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", ErrInvalidKey
		}
	}
	return cleaned, nil
}

type prefixed struct {
	inner  Storage
	prefix string
}

// WithPrefix scopes a storage to keys under prefix
func WithPrefix(s Storage, prefix string) Storage {
	return &prefixed{inner: s, prefix: strings.Trim(prefix, "/")}
}

func (p *prefixed) key(k string) string {
	return p.prefix + "/" + k
}

func (p *prefixed) Put(ctx context.Context, key string, data io.Reader, contentType string) error {
	return p.inner.Put(ctx, p.key(key), data, contentType)
}

func (p *prefixed) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return p.inner.Open(ctx, p.key(key))
}

func (p *prefixed) Exists(ctx context.Context, key string) (bool, error) {
	return p.inner.Exists(ctx, p.key(key))
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.key(key))
}

// ContentType determines content type from filename
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
