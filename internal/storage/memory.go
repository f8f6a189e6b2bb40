package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MemoryStorage keeps objects in process memory. It backs local development
// (storage.type=memory) and tests.
type MemoryStorage struct {
	mu        sync.RWMutex
	objects   map[string]memoryObject
	publicURL string
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage(publicURL string) *MemoryStorage {
	if publicURL == "" {
		publicURL = "memory://gemstore"
	}
	return &MemoryStorage{objects: map[string]memoryObject{}, publicURL: strings.TrimSuffix(publicURL, "/")}
}

// EnsureBucket is a no-op.
func (m *MemoryStorage) EnsureBucket(ctx context.Context) error { return nil }

// Upload stores the reader's content under key.
func (m *MemoryStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read upload body: %w", err)
	}
	m.mu.Lock()
	m.objects[key] = memoryObject{data: data, contentType: contentType}
	m.mu.Unlock()
	return nil
}

// Download returns the stored object.
func (m *MemoryStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// GetURL returns publicURL/key.
func (m *MemoryStorage) GetURL(key string) string {
	return m.publicURL + "/" + key
}

// Delete removes an object.
func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Exists reports whether key is stored.
func (m *MemoryStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	return ok, nil
}

// ContentType returns the stored content type of key.
func (m *MemoryStorage) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.objects[key].contentType
}
