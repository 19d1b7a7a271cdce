package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and the --memory dev mode.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]map[string]Doc
	now  func() time.Time

	failNext map[string]error
}

var errInvalidJSON = errors.New("invalid JSON document")

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		docs:     make(map[string]map[string]Doc),
		now:      time.Now,
		failNext: make(map[string]error),
	}
}

// SetClock overrides the timestamp source.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// FailNext makes the next operation on collection return err.
func (m *Memory) FailNext(collection string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext[collection] = err
}

func (m *Memory) takeFailure(collection string) error {
	err, ok := m.failNext[collection]
	if !ok {
		return nil
	}
	delete(m.failNext, collection)
	return err
}

// Set upserts a document.
func (m *Memory) Set(_ context.Context, collection, key string, data []byte) error {
	if !json.Valid(data) {
		return errInvalidJSON
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(collection); err != nil {
		return err
	}

	coll, ok := m.docs[collection]
	if !ok {
		coll = make(map[string]Doc)
		m.docs[collection] = coll
	}

	now := m.now()
	doc, exists := coll[key]
	if !exists {
		doc = Doc{Key: key, CreatedAt: now}
	}
	doc.Data = bytes.Clone(data)
	doc.UpdatedAt = now
	coll[key] = doc
	return nil
}

// Create inserts a document if key is free.
func (m *Memory) Create(_ context.Context, collection, key string, data []byte) error {
	if !json.Valid(data) {
		return errInvalidJSON
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(collection); err != nil {
		return err
	}

	coll, ok := m.docs[collection]
	if !ok {
		coll = make(map[string]Doc)
		m.docs[collection] = coll
	}
	if _, exists := coll[key]; exists {
		return ErrExists
	}

	now := m.now()
	coll[key] = Doc{Key: key, Data: bytes.Clone(data), CreatedAt: now, UpdatedAt: now}
	return nil
}

// Get returns a single document.
func (m *Memory) Get(_ context.Context, collection, key string) (*Doc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(collection); err != nil {
		return nil, err
	}

	doc, ok := m.docs[collection][key]
	if !ok {
		return nil, ErrNotFound
	}
	doc.Data = bytes.Clone(doc.Data)
	return &doc, nil
}

// List returns documents of a collection.
func (m *Memory) List(_ context.Context, collection string, opts ListOptions) ([]Doc, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(collection); err != nil {
		return nil, err
	}

	var docs []Doc
	for _, doc := range m.docs[collection] {
		if !matches(doc.Data, opts.Match) {
			continue
		}
		doc.Data = bytes.Clone(doc.Data)
		docs = append(docs, doc)
	}

	slices.SortFunc(docs, func(a, b Doc) int {
		c := compareDocs(a, b, opts.Order)
		if opts.Desc {
			return -c
		}
		return c
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(docs) {
			return nil, nil
		}
		docs = docs[opts.Offset:]
	}
	if opts.Limit > 0 && len(docs) > opts.Limit {
		docs = docs[:opts.Limit]
	}
	return docs, nil
}

// Delete removes a document.
func (m *Memory) Delete(_ context.Context, collection, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(collection); err != nil {
		return err
	}

	if _, ok := m.docs[collection][key]; !ok {
		return ErrNotFound
	}
	delete(m.docs[collection], key)
	return nil
}

// Count returns the number of documents in a collection.
func (m *Memory) Count(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs[collection])
}

func compareDocs(a, b Doc, order OrderField) int {
	switch order {
	case OrderByCreatedAt:
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
	case OrderByUpdatedAt:
		if c := a.UpdatedAt.Compare(b.UpdatedAt); c != 0 {
			return c
		}
	}
	return strings.Compare(a.Key, b.Key)
}

func matches(data []byte, match map[string]string) bool {
	if len(match) == 0 {
		return true
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}
	for field, want := range match {
		got, ok := fields[field].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}
