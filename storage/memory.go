package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rpupo63/collage-backend/errs"
)

type memoryObject struct {
	data      []byte
	updatedAt time.Time
}

// MemoryStore keeps blobs in process. Keys are stored exactly as written.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

// Seed stores data under key with an explicit modification time.
func (m *MemoryStore) Seed(key string, data []byte, updatedAt time.Time) {
	m.mu.Lock()
	m.objects[key] = memoryObject{data: append([]byte(nil), data...), updatedAt: updatedAt}
	m.mu.Unlock()
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Object
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, Object{Key: key, UpdatedAt: obj.updatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Get falls back to the .json form of key.
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		obj, ok = m.objects[withJSONExt(key)]
	}
	if !ok {
		return nil, fmt.Errorf("object %s: %w", key, errs.ErrNotFound)
	}
	return append([]byte(nil), obj.data...), nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.Seed(key, data, m.now())
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("object %s: %w", key, errs.ErrNotFound)
	}
	delete(m.objects, key)
	return nil
}
