package storage

import (
	"strings"

	"github.com/timmy/gemstore/internal/config"
)

// NewStorage creates an ObjectStorage instance based on the configuration.
// Parameters:
//   - cfg: storage configuration including endpoint, credentials, and bucket.
// Returns:
//   - ObjectStorage: initialized storage client implementation.
//   - error: non-nil if the storage client cannot be created.
func NewStorage(cfg config.StorageConfig) (ObjectStorage, error) {
	storeType := StorageType(strings.ToLower(cfg.Type))
	if storeType == StorageTypeMemory {
		return NewMemoryStorage(cfg.PublicURL), nil
	}
	if storeType == "" {
		storeType = detectStorageType(cfg.Endpoint)
	}

	return NewS3Storage(&S3Config{
		Type:      storeType,
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		PublicURL: cfg.PublicURL,
	})
}

// detectStorageType attempts to detect the storage type from the endpoint
func detectStorageType(endpoint string) StorageType {
	endpoint = strings.ToLower(endpoint)

	switch {
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return StorageTypeR2
	case strings.Contains(endpoint, "amazonaws.com"):
		return StorageTypeS3
	default:
		return StorageTypeS3Compatible
	}
}
