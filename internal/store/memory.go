package store

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync"

	"github.com/tidwall/gjson"
)

// MemoryStore is an in-memory Store and Allocator for tests and local
// development. All operations are safe for concurrent use.
type MemoryStore struct {
	mu       sync.Mutex
	docs     map[string]map[string]json.RawMessage
	counters map[string]int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]map[string]json.RawMessage),
		counters: make(map[string]int64),
	}
}

// Get returns one document body, or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.docs[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return body, nil
}

// Put upserts one document, merging top-level fields when merge is set.
func (s *MemoryStore) Put(ctx context.Context, collection, id string, body json.RawMessage, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]json.RawMessage)
	}
	existing, ok := s.docs[collection][id]
	if !merge || !ok {
		s.docs[collection][id] = append(json.RawMessage(nil), body...)
		return nil
	}

	var merged map[string]any
	if err := json.Unmarshal(existing, &merged); err != nil {
		merged = map[string]any{}
	}
	var patch map[string]any
	if err := json.Unmarshal(body, &patch); err != nil {
		return err
	}
	for k, v := range patch {
		merged[k] = v
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	s.docs[collection][id] = out
	return nil
}

// Delete removes one document. Absent documents are not an error.
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs[collection], id)
	return nil
}

// Query returns documents matching filter, ordered by numeric ID.
func (s *MemoryStore) Query(ctx context.Context, collection string, filter Filter, orderDesc bool) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var docs []Document
	for id, body := range s.docs[collection] {
		r := gjson.ParseBytes(body)
		// a missing draft flag hydrates as a draft, so filtering must
		// treat it the same way
		draft := !r.Get("draft").Exists() || r.Get("draft").Bool()
		switch filter.Visibility {
		case VisibilityPublished:
			if draft {
				continue
			}
		case VisibilityDraft:
			if !draft {
				continue
			}
		}
		if filter.Category != "" && r.Get("category").String() != filter.Category {
			continue
		}
		docs = append(docs, Document{ID: id, Body: append(json.RawMessage(nil), body...)})
	}

	sort.Slice(docs, func(i, j int) bool {
		a, _ := strconv.ParseInt(docs[i].ID, 10, 64)
		b, _ := strconv.ParseInt(docs[j].ID, 10, 64)
		if orderDesc {
			return a > b
		}
		return a < b
	})
	return docs, nil
}

// PutAll upserts a batch of documents.
func (s *MemoryStore) PutAll(ctx context.Context, collection string, docs []Document) error {
	for _, d := range docs {
		if err := s.Put(ctx, collection, d.ID, d.Body, false); err != nil {
			return err
		}
	}
	return nil
}

// EnsureLatestID raises the counter for kind to at least id.
func (s *MemoryStore) EnsureLatestID(ctx context.Context, kind string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id > s.counters[kind] {
		s.counters[kind] = id
	}
	return nil
}

// NextID increments and returns the counter for kind.
func (s *MemoryStore) NextID(ctx context.Context, kind string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[kind]++
	return s.counters[kind], nil
}
